// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ory/hydra/v2/oauth2"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/provider-sync-service/internal/apierrors"
)

func newTestAPI(ctrl *gomock.Controller, svc ServiceInterface) (*chi.Mux, *MockLoggerInterface) {
	logger := NewMockLoggerInterface(ctrl)
	logger.EXPECT().Debugf(gomock.Any(), gomock.Any()).AnyTimes()

	tracer := NewMockTracingInterface(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	).AnyTimes()

	mux := chi.NewRouter()
	NewAPI(svc, apierrors.NewWriter(false, logger), tracer, logger).RegisterEndpoints(mux)

	return mux, logger
}

func TestAPI_TokenHook(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMocks     func(*MockServiceInterface, *MockLoggerInterface)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "success",
			requestBody: &oauth2.TokenHookRequest{
				Session: oauth2.NewSession("user-123"),
			},
			setupMocks: func(mockSvc *MockServiceInterface, mockLogger *MockLoggerInterface) {
				claims := map[string]interface{}{"tenants": []string{"tenant-1"}, "tenant_id": "tenant-1"}
				response := &TokenHookResponse{Session: TokenHookSession{IDToken: claims, AccessToken: claims}}
				mockSvc.EXPECT().HandleTokenHook(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, req *oauth2.TokenHookRequest) (*TokenHookResponse, error) {
						if req.Session == nil || req.Session.DefaultSession == nil || req.Session.DefaultSession.Subject != "user-123" {
							return nil, errors.New("session was not decoded")
						}
						return response, nil
					})
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var result TokenHookResponse
				if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if result.Session.AccessToken["tenant_id"] != "tenant-1" {
					t.Errorf("expected tenant_id in access token, got %v", result.Session.AccessToken)
				}
			},
		},
		{
			name:           "invalid request body",
			requestBody:    "not-json",
			setupMocks:     func(*MockServiceInterface, *MockLoggerInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "service error",
			requestBody: &oauth2.TokenHookRequest{
				Session: oauth2.NewSession("user-123"),
			},
			setupMocks: func(mockSvc *MockServiceInterface, mockLogger *MockLoggerInterface) {
				mockSvc.EXPECT().HandleTokenHook(gomock.Any(), gomock.Any()).Return(nil, apierrors.Internal("storage failure", errors.New("service error")))
				mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any())
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockSvc := NewMockServiceInterface(ctrl)
			mux, mockLogger := newTestAPI(ctrl, mockSvc)
			tt.setupMocks(mockSvc, mockLogger)

			var body []byte
			if s, ok := tt.requestBody.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tt.requestBody)
			}

			req := httptest.NewRequest(http.MethodPost, "/webhooks/token", bytes.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestAPI_Registration(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMocks     func(*MockServiceInterface)
		expectedStatus int
	}{
		{
			name: "success",
			body: `{"id":"identity-123","traits":{"email":"user@example.com"}}`,
			setupMocks: func(mockSvc *MockServiceInterface) {
				mockSvc.EXPECT().HandleRegistration(gomock.Any(), "identity-123", "user@example.com").Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "missing email",
			body: `{"id":"identity-123","traits":{}}`,
			setupMocks: func(mockSvc *MockServiceInterface) {
				mockSvc.EXPECT().HandleRegistration(gomock.Any(), "identity-123", "").
					Return(apierrors.Validation("invalid identity", map[string]string{"traits.email": "is required"}))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid request body",
			body:           `{"id":`,
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockSvc := NewMockServiceInterface(ctrl)
			tt.setupMocks(mockSvc)
			mux, _ := newTestAPI(ctrl, mockSvc)

			req := httptest.NewRequest(http.MethodPost, "/webhooks/registration", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}
