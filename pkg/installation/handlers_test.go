// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package installation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/types"
	"github.com/canonical/provider-sync-service/pkg/connectors"
)

func newTestRouter(ctrl *gomock.Controller, service ServiceInterface, registry connectors.RegistryInterface) chi.Router {
	logger := NewMockLoggerInterface(ctrl)
	logger.EXPECT().Debugf(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Errorf(gomock.Any(), gomock.Any()).AnyTimes()

	tracer := NewMockTracingInterface(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	).AnyTimes()

	api := NewAPI(service, registry, apierrors.NewWriter(false, logger), tracer, logger)

	mux := chi.NewRouter()
	mux.Route("/api/v0", func(r chi.Router) {
		api.RegisterDiscoveryEndpoints(r)
		r.Route("/tenant/{tenantId}", func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					ctx := tenancy.WithTenant(r.Context(), chi.URLParam(r, "tenantId"))
					next.ServeHTTP(w, r.WithContext(ctx))
				})
			})
			api.RegisterEndpoints(r)
			api.RegisterCallbackEndpoints(r)
		})
	})

	return mux
}

func TestHandlers(t *testing.T) {
	prefix := "/api/v0/tenant/" + tenantID

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		setupMocks func(*MockServiceInterface)
		wantStatus int
		wantBody   string
	}{
		{
			name:   "initiate returns the authorization url",
			method: http.MethodPost,
			path:   prefix + "/connections/stripe/initiate",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().InitiateConnection(gomock.Any(), tenantID, "stripe").Return("https://connect.stripe.com/oauth/authorize?state=x", nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"authorizationUrl":"https://connect.stripe.com/oauth/authorize?state=x"`,
		},
		{
			name:   "initiate with unsupported provider",
			method: http.MethodPost,
			path:   prefix + "/connections/square/initiate",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().InitiateConnection(gomock.Any(), tenantID, "square").Return("", connectors.NotSupported("square"))
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `"kind":"validation_error"`,
		},
		{
			name:   "callback with query parameters",
			method: http.MethodGet,
			path:   prefix + "/connections/stripe/callback?code=abc&state=s1",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().HandleOAuthCallback(gomock.Any(), tenantID, "stripe", "abc", "s1").
					Return(&types.ConnectionView{TenantID: tenantID, Provider: "stripe", Status: types.ConnectionConnected}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"status":"connected"`,
		},
		{
			name:   "callback with form body",
			method: http.MethodPost,
			path:   prefix + "/connections/stripe/callback",
			body:   url.Values{"code": {"abc"}, "state": {"s1"}}.Encode(),
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().HandleOAuthCallback(gomock.Any(), tenantID, "stripe", "abc", "s1").
					Return(&types.ConnectionView{Status: types.ConnectionConnected}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "callback after denied consent",
			method:     http.MethodGet,
			path:       prefix + "/connections/stripe/callback?error=access_denied&state=s1",
			wantStatus: http.StatusBadRequest,
			wantBody:   `"error":"access_denied"`,
		},
		{
			name:   "replayed callback",
			method: http.MethodGet,
			path:   prefix + "/connections/stripe/callback?code=abc&state=s1",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().HandleOAuthCallback(gomock.Any(), tenantID, "stripe", "abc", "s1").
					Return(nil, apierrors.Conflict("authorization state was already used"))
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:   "provider failure is redacted",
			method: http.MethodGet,
			path:   prefix + "/connections/stripe/callback?code=abc&state=s1",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().HandleOAuthCallback(gomock.Any(), tenantID, "stripe", "abc", "s1").
					Return(nil, apierrors.Provider("exchange failed", false, connectors.ProviderError(400, "exchange", context.Canceled)))
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   `"message":"exchange failed"`,
		},
		{
			name:   "list connections",
			method: http.MethodGet,
			path:   prefix + "/connections",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().ListConnections(gomock.Any(), tenantID).Return([]*types.ConnectionView{
					{Provider: "paypal", Status: types.ConnectionNotConnected},
					{Provider: "stripe", Status: types.ConnectionPendingAuthorization},
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"status":"pending_authorization"`,
		},
		{
			name:   "get connection",
			method: http.MethodGet,
			path:   prefix + "/connections/stripe",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().GetConnection(gomock.Any(), tenantID, "stripe").
					Return(&types.ConnectionView{Provider: "stripe", Status: types.ConnectionError, LastError: rejectedTokenMessage}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"last_error":"access token was rejected by the provider"`,
		},
		{
			name:   "disconnect",
			method: http.MethodDelete,
			path:   prefix + "/connections/stripe",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Disconnect(gomock.Any(), tenantID, "stripe").Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:   "disconnect without a connection",
			method: http.MethodDelete,
			path:   prefix + "/connections/stripe",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Disconnect(gomock.Any(), tenantID, "stripe").Return(apierrors.NotFound("connection not found"))
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "validate",
			method: http.MethodPost,
			path:   prefix + "/connections/stripe/validate",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().ValidateConnection(gomock.Any(), tenantID, "stripe").
					Return(&types.ConnectionView{Provider: "stripe", Status: types.ConnectionConnected}, nil)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockServiceInterface(ctrl)
			registry := connectors.NewMockRegistryInterface(ctrl)
			if tt.setupMocks != nil {
				tt.setupMocks(service)
			}

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			}
			w := httptest.NewRecorder()

			newTestRouter(ctrl, service, registry).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Fatalf("expected body to contain %s, got %s", tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestListConnectors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := connectors.NewMockRegistryInterface(ctrl)
	registry.EXPECT().List().Return([]connectors.ConnectorInfo{
		{Name: "paypal", DisplayName: "PayPal"},
		{Name: "stripe", DisplayName: "Stripe"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v0/connectors", nil)
	w := httptest.NewRecorder()

	newTestRouter(ctrl, NewMockServiceInterface(ctrl), registry).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var infos []connectors.ConnectorInfo
	if err := json.Unmarshal(w.Body.Bytes(), &infos); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 2 || infos[1].Name != "stripe" {
		t.Fatalf("unexpected connectors %+v", infos)
	}
}
