// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/authorization"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/internal/types"
	"github.com/canonical/provider-sync-service/pkg/authentication"
	"github.com/canonical/provider-sync-service/pkg/connectors"
	"github.com/canonical/provider-sync-service/pkg/installation"
	"github.com/canonical/provider-sync-service/pkg/syncjobs"
	"github.com/canonical/provider-sync-service/pkg/tenant"
	"github.com/canonical/provider-sync-service/pkg/webhooks"
)

const tenantID = "0190f5a2-7a1b-7c3d-8e4f-0000000000a1"

type routerMocks struct {
	installations *installation.MockServiceInterface
	registry      *connectors.MockRegistryInterface
	jobs          *syncjobs.MockManagerInterface
	tenants       *tenant.MockServiceInterface
	access        *tenant.MockAccessInterface
	hooks         *webhooks.MockServiceInterface
}

func TestRouter(t *testing.T) {
	connected := []*types.ConnectionView{{Provider: "stripe", Status: "connected"}}

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		header     string
		setupMocks func(*routerMocks)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "status is public",
			method:     http.MethodGet,
			path:       "/api/v0/status",
			wantStatus: http.StatusOK,
		},
		{
			name:   "connector discovery is public",
			method: http.MethodGet,
			path:   "/api/v0/connectors",
			setupMocks: func(m *routerMocks) {
				m.registry.EXPECT().List().Return([]connectors.ConnectorInfo{{Name: "stripe", DisplayName: "Stripe"}})
			},
			wantStatus: http.StatusOK,
			wantBody:   `"stripe"`,
		},
		{
			name:       "tenant route without a token",
			method:     http.MethodGet,
			path:       "/api/v0/tenant/" + tenantID + "/connections",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "tenant from the path",
			method: http.MethodGet,
			path:   "/api/v0/tenant/" + tenantID + "/connections",
			token:  "user-1",
			setupMocks: func(m *routerMocks) {
				m.access.EXPECT().CheckAccess(gomock.Any(), tenantID, authorization.CAN_VIEW_PERMISSION).Return(nil)
				m.installations.EXPECT().ListConnections(gomock.Any(), tenantID).Return(connected, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"stripe"`,
		},
		{
			name:   "tenant from the header",
			method: http.MethodGet,
			path:   "/api/v0/connections",
			token:  "user-1",
			header: tenantID,
			setupMocks: func(m *routerMocks) {
				m.access.EXPECT().CheckAccess(gomock.Any(), tenantID, authorization.CAN_VIEW_PERMISSION).Return(nil)
				m.installations.EXPECT().ListConnections(gomock.Any(), tenantID).Return(connected, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "tenant from the token claim",
			method: http.MethodGet,
			path:   "/api/v0/sync-jobs",
			token:  "user-1:" + tenantID,
			setupMocks: func(m *routerMocks) {
				m.access.EXPECT().CheckAccess(gomock.Any(), tenantID, authorization.CAN_VIEW_PERMISSION).Return(nil)
				m.jobs.EXPECT().ListJobs(gomock.Any(), tenantID, gomock.Any()).Return(nil, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "no tenant resolved",
			method:     http.MethodGet,
			path:       "/api/v0/connections",
			token:      "user-1",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed tenant in the path",
			method:     http.MethodGet,
			path:       "/api/v0/tenant/not-a-tenant/connections",
			token:      "user-1",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "caller is not a member",
			method: http.MethodGet,
			path:   "/api/v0/tenant/" + tenantID + "/sync-jobs",
			token:  "user-2",
			setupMocks: func(m *routerMocks) {
				m.access.EXPECT().CheckAccess(gomock.Any(), tenantID, authorization.CAN_VIEW_PERMISSION).Return(apierrors.Forbidden("not a member of this tenant"))
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "disconnect needs edit permission",
			method: http.MethodDelete,
			path:   "/api/v0/tenant/" + tenantID + "/connections/stripe",
			token:  "viewer-1",
			setupMocks: func(m *routerMocks) {
				m.access.EXPECT().CheckAccess(gomock.Any(), tenantID, authorization.CAN_EDIT_PERMISSION).Return(apierrors.Forbidden("role does not allow this action"))
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "oauth callback needs no token",
			method: http.MethodGet,
			path:   "/api/v0/tenant/" + tenantID + "/connections/stripe/callback?code=c0de&state=st4te",
			setupMocks: func(m *routerMocks) {
				m.installations.EXPECT().HandleOAuthCallback(gomock.Any(), tenantID, "stripe", "c0de", "st4te").
					Return(&types.ConnectionView{Provider: "stripe", Status: "connected"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "registration webhook needs no token",
			method: http.MethodPost,
			path:   "/api/v0/webhooks/registration",
			setupMocks: func(m *routerMocks) {
				m.hooks.EXPECT().HandleRegistration(gomock.Any(), "identity-1", "jane@example.com").Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "caller tenants",
			method: http.MethodGet,
			path:   "/api/v0/me/tenants",
			token:  "user-1",
			setupMocks: func(m *routerMocks) {
				m.tenants.EXPECT().ListMyTenants(gomock.Any()).Return([]*types.Tenant{{ID: tenantID, Name: "Acme"}}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   tenantID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			m := &routerMocks{
				installations: installation.NewMockServiceInterface(ctrl),
				registry:      connectors.NewMockRegistryInterface(ctrl),
				jobs:          syncjobs.NewMockManagerInterface(ctrl),
				tenants:       tenant.NewMockServiceInterface(ctrl),
				access:        tenant.NewMockAccessInterface(ctrl),
				hooks:         webhooks.NewMockServiceInterface(ctrl),
			}
			if tt.setupMocks != nil {
				tt.setupMocks(m)
			}

			logger := logging.NewNoopLogger()
			router := NewRouter(
				m.installations,
				m.registry,
				m.jobs,
				m.tenants,
				m.access,
				m.hooks,
				authentication.NewNoopVerifier(),
				nil,
				nil,
				false,
				tracing.NewNoopTracer(),
				monitoring.NewNoopMonitor("test", logger),
				logger,
			)

			var body *strings.Reader
			if tt.method == http.MethodPost {
				body = strings.NewReader(`{"id":"identity-1","traits":{"email":"jane@example.com"}}`)
			} else {
				body = strings.NewReader("")
			}

			req := httptest.NewRequest(tt.method, tt.path, body)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			if tt.header != "" {
				req.Header.Set("X-Tenant-Id", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Fatalf("expected body to contain %s, got %s", tt.wantBody, w.Body.String())
			}
		})
	}
}
