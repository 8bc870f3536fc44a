// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tenant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/authorization"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/types"
)

const tenantID = "0190f5a2-7a1b-7c3d-8e4f-0000000000a1"

func newTestMocks(ctrl *gomock.Controller) (*MockLoggerInterface, *MockTracingInterface) {
	logger := NewMockLoggerInterface(ctrl)
	logger.EXPECT().Debugf(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Errorf(gomock.Any(), gomock.Any()).AnyTimes()

	tracer := NewMockTracingInterface(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	).AnyTimes()

	return logger, tracer
}

func TestHandlers(t *testing.T) {
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
			name:   "create tenant",
			method: http.MethodPost,
			path:   "/tenants",
			body:   `{"name":"Acme","ownerId":"owner-1"}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().CreateTenant(gomock.Any(), "Acme", "owner-1").
					Return(&types.Tenant{ID: tenantID, Name: "Acme", Enabled: true}, nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"name":"Acme"`,
		},
		{
			name:       "create tenant without name",
			method:     http.MethodPost,
			path:       "/tenants",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `"name":"is required"`,
		},
		{
			name:   "list tenants as non admin",
			method: http.MethodGet,
			path:   "/tenants",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().ListTenants(gomock.Any()).Return(nil, apierrors.Forbidden("app admin role is required"))
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "list my tenants",
			method: http.MethodGet,
			path:   "/me/tenants",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().ListMyTenants(gomock.Any()).Return([]*types.Tenant{{ID: tenantID, Name: "Acme"}}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   tenantID,
		},
		{
			name:   "rename tenant",
			method: http.MethodPatch,
			path:   "/tenants/" + tenantID,
			body:   `{"name":"Acme Corp"}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().UpdateTenant(gomock.Any(), tenantID, "Acme Corp").
					Return(&types.Tenant{ID: tenantID, Name: "Acme Corp"}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"name":"Acme Corp"`,
		},
		{
			name:   "delete tenant",
			method: http.MethodDelete,
			path:   "/tenants/" + tenantID,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().DeleteTenant(gomock.Any(), tenantID).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:   "get unknown tenant",
			method: http.MethodGet,
			path:   "/tenants/" + tenantID,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().GetTenant(gomock.Any(), tenantID).Return(nil, apierrors.NotFound("tenant not found"))
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "assign member",
			method: http.MethodPost,
			path:   "/members",
			body:   `{"userId":"user-2","role":"tenant_user"}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().AssignMember(gomock.Any(), tenantID, "user-2", types.RoleTenantUser).
					Return(&types.Membership{TenantID: tenantID, UserID: "user-2", Role: types.RoleTenantUser}, nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"role":"tenant_user"`,
		},
		{
			name:       "assign member with unknown role",
			method:     http.MethodPost,
			path:       "/members",
			body:       `{"userId":"user-2","role":"owner"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `"role":"must be one of`,
		},
		{
			name:   "invite member",
			method: http.MethodPost,
			path:   "/members/invite",
			body:   `{"email":"new@example.com","role":"read_only_user"}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().InviteMember(gomock.Any(), tenantID, "new@example.com", types.RoleReadOnlyUser).
					Return(&Invitation{UserID: "identity-9", Email: "new@example.com", Role: types.RoleReadOnlyUser, Link: "https://id.example.com/recovery"}, nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"link":"https://id.example.com/recovery"`,
		},
		{
			name:       "invite with malformed email",
			method:     http.MethodPost,
			path:       "/members/invite",
			body:       `{"email":"not-an-email","role":"tenant_user"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `"email":"must be an email address"`,
		},
		{
			name:   "list members",
			method: http.MethodGet,
			path:   "/members",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().ListMembers(gomock.Any(), tenantID).
					Return([]*types.TenantUser{{UserID: "user-1", Email: "a@example.com", Role: types.RoleTenantAdmin}}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"email":"a@example.com"`,
		},
		{
			name:   "get membership",
			method: http.MethodGet,
			path:   "/members/user-1",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().GetMembership(gomock.Any(), tenantID, "user-1").
					Return(&types.Membership{UserID: "user-1", Role: types.RoleTenantAdmin}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"role":"tenant_admin"`,
		},
		{
			name:   "update role without permission",
			method: http.MethodPatch,
			path:   "/members/user-2",
			body:   `{"role":"tenant_admin"}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().UpdateMemberRole(gomock.Any(), tenantID, "user-2", types.RoleTenantAdmin).
					Return(nil, apierrors.Forbidden("tenant_admin role is required"))
			},
			wantStatus: http.StatusForbidden,
			wantBody:   `tenant_admin role is required`,
		},
		{
			name:   "revoke member",
			method: http.MethodDelete,
			path:   "/members/user-2",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().RevokeMember(gomock.Any(), tenantID, "user-2").Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockServiceInterface(ctrl)
			if tt.setupMocks != nil {
				tt.setupMocks(service)
			}

			logger, tracer := newTestMocks(ctrl)
			api := NewAPI(service, apierrors.NewWriter(false, logger), tracer, logger)

			mux := chi.NewRouter()
			api.RegisterEndpoints(mux)
			mux.Group(func(r chi.Router) {
				r.Use(func(next http.Handler) http.Handler {
					return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						next.ServeHTTP(w, r.WithContext(tenancy.WithTenant(r.Context(), tenantID)))
					})
				})
				api.RegisterMemberEndpoints(r)
			})

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Fatalf("expected body to contain %s, got %s", tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestAccessMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		scoped     bool
		setupMocks func(*MockAccessInterface)
		wantStatus int
	}{
		{
			name:   "member",
			scoped: true,
			setupMocks: func(a *MockAccessInterface) {
				a.EXPECT().CheckAccess(gomock.Any(), tenantID, authorization.CAN_VIEW_PERMISSION).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "not a member",
			scoped: true,
			setupMocks: func(a *MockAccessInterface) {
				a.EXPECT().CheckAccess(gomock.Any(), tenantID, authorization.CAN_VIEW_PERMISSION).Return(apierrors.Forbidden("not a member of this tenant"))
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "no tenant resolved",
			setupMocks: func(*MockAccessInterface) {},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			access := NewMockAccessInterface(ctrl)
			tt.setupMocks(access)

			logger, tracer := newTestMocks(ctrl)
			mw := NewAccessMiddleware(access, apierrors.NewWriter(false, logger), tracer, logger)

			handler := mw.RequireMember(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/members", nil)
			if tt.scoped {
				req = req.WithContext(tenancy.WithTenant(req.Context(), tenantID))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}
