// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/provider-sync-service/internal/storage"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_authorization.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_tracer.go -source=../../internal/tracing/interfaces.go

const tenantID = "6f1c2a8e-3b7d-4c5e-9a0f-1d2e3f4a5b6c"

func TestAllowed(t *testing.T) {
	tests := []struct {
		role       types.Role
		permission string
		expected   bool
	}{
		{types.RoleAppAdmin, CAN_MANAGE_PERMISSION, true},
		{types.RoleTenantAdmin, CAN_MANAGE_PERMISSION, true},
		{types.RoleTenantUser, CAN_EDIT_PERMISSION, true},
		{types.RoleTenantUser, CAN_MANAGE_PERMISSION, false},
		{types.RoleSupportUser, CAN_VIEW_PERMISSION, true},
		{types.RoleReadOnlyUser, CAN_VIEW_PERMISSION, true},
		{types.RoleReadOnlyUser, CAN_EDIT_PERMISSION, false},
		{types.Role("owner"), CAN_VIEW_PERMISSION, false},
	}

	for _, test := range tests {
		t.Run(string(test.role)+"/"+test.permission, func(t *testing.T) {
			if got := Allowed(test.role, test.permission); got != test.expected {
				t.Fatalf("expected %v, got %v", test.expected, got)
			}
		})
	}
}

func TestPermissionFor(t *testing.T) {
	for method, expected := range map[string]string{
		http.MethodGet:    CAN_VIEW_PERMISSION,
		http.MethodHead:   CAN_VIEW_PERMISSION,
		http.MethodPost:   CAN_EDIT_PERMISSION,
		http.MethodPut:    CAN_EDIT_PERMISSION,
		http.MethodDelete: CAN_EDIT_PERMISSION,
	} {
		if got := PermissionFor(method); got != expected {
			t.Errorf("%s: expected %s, got %s", method, expected, got)
		}
	}
}

func TestAuthorizerCheck(t *testing.T) {
	tests := []struct {
		name        string
		permission  string
		setupMocks  func(*MockMembershipsInterface, *MockLoggerInterface)
		expected    bool
		expectedErr error
	}{
		{
			name:       "role grants permission",
			permission: CAN_EDIT_PERMISSION,
			setupMocks: func(m *MockMembershipsInterface, _ *MockLoggerInterface) {
				m.EXPECT().GetMembership(gomock.Any(), "user-1").Return(&types.Membership{UserID: "user-1", Role: types.RoleTenantUser}, nil)
			},
			expected: true,
		},
		{
			name:       "role does not grant permission",
			permission: CAN_MANAGE_PERMISSION,
			setupMocks: func(m *MockMembershipsInterface, logger *MockLoggerInterface) {
				m.EXPECT().GetMembership(gomock.Any(), "user-1").Return(&types.Membership{UserID: "user-1", Role: types.RoleTenantUser}, nil)
				logger.EXPECT().Debugf(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())
			},
			expected: false,
		},
		{
			name:       "not a member",
			permission: CAN_VIEW_PERMISSION,
			setupMocks: func(m *MockMembershipsInterface, _ *MockLoggerInterface) {
				m.EXPECT().GetMembership(gomock.Any(), "user-1").Return(nil, storage.ErrNotFound)
			},
			expectedErr: ErrNotMember,
		},
		{
			name:       "storage failure",
			permission: CAN_VIEW_PERMISSION,
			setupMocks: func(m *MockMembershipsInterface, _ *MockLoggerInterface) {
				m.EXPECT().GetMembership(gomock.Any(), "user-1").Return(nil, errBoom)
			},
			expectedErr: errBoom,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			memberships := NewMockMembershipsInterface(ctrl)
			logger := NewMockLoggerInterface(ctrl)
			tracer := NewMockTracingInterface(ctrl)
			monitor := NewMockMonitorInterface(ctrl)

			tracer.EXPECT().Start(gomock.Any(), "authorization.Authorizer.Check").DoAndReturn(
				func(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
					return ctx, trace.SpanFromContext(ctx)
				},
			)
			test.setupMocks(memberships, logger)

			a := NewAuthorizer(memberships, tracer, monitor, logger)
			allowed, err := a.Check(tenancy.WithTenant(context.Background(), tenantID), "user-1", test.permission)

			if !errors.Is(err, test.expectedErr) {
				t.Fatalf("expected error %v, got %v", test.expectedErr, err)
			}
			if allowed != test.expected {
				t.Fatalf("expected %v, got %v", test.expected, allowed)
			}
		})
	}
}

func TestAuthorizerCheckTenantAccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	memberships := NewMockMembershipsInterface(ctrl)
	logger := NewMockLoggerInterface(ctrl)
	tracer := NewMockTracingInterface(ctrl)
	monitor := NewMockMonitorInterface(ctrl)

	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	).AnyTimes()
	memberships.EXPECT().GetMembership(gomock.Any(), "user-1").DoAndReturn(
		func(ctx context.Context, _ string) (*types.Membership, error) {
			if id, ok := tenancy.FromContext(ctx); !ok || id != tenantID {
				t.Errorf("expected a context scoped to %s, got %q", tenantID, id)
			}
			return &types.Membership{UserID: "user-1", Role: types.RoleReadOnlyUser}, nil
		},
	)

	a := NewAuthorizer(memberships, tracer, monitor, logger)

	allowed, err := a.CheckTenantAccess(context.Background(), tenantID, "user-1", CAN_VIEW_PERMISSION)
	if err != nil || !allowed {
		t.Fatalf("expected access, got %v, %v", allowed, err)
	}

	if _, err := a.CheckTenantAccess(context.Background(), "not-a-uuid", "user-1", CAN_VIEW_PERMISSION); err == nil {
		t.Fatal("expected an error for a malformed tenant id")
	}
}

var errBoom = errors.New("boom")
