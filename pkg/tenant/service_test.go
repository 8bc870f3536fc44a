// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tenant

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/authorization"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/storage/memory"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/internal/types"
	"github.com/canonical/provider-sync-service/pkg/authentication"
)

//go:generate mockgen -build_flags=--mod=mod -package tenant -destination ./mock_tenant.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package tenant -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package tenant -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package tenant -destination ./mock_tracer.go -source=../../internal/tracing/interfaces.go

const (
	admin    = "admin-1"
	owner    = "owner-1"
	member   = "member-1"
	stranger = "stranger-1"
	viewer   = "viewer-1"
)

type harness struct {
	store    *memory.Store
	kratos   *MockKratosClientInterface
	security *MockSecurityLoggerInterface
	svc      *Service
	tenantID string
}

func newHarness(t *testing.T, ctrl *gomock.Controller, withKratos bool) *harness {
	t.Helper()

	h := new(harness)

	noop := logging.NewNoopLogger()
	h.store = memory.NewStore(tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", noop), noop)
	authorizer := authorization.NewAuthorizer(h.store, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", noop), noop)
	h.kratos = NewMockKratosClientInterface(ctrl)
	h.security = NewMockSecurityLoggerInterface(ctrl)

	logger := NewMockLoggerInterface(ctrl)
	logger.EXPECT().Security().Return(h.security).AnyTimes()
	logger.EXPECT().Debugf(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Infof(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Warnf(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Errorf(gomock.Any(), gomock.Any()).AnyTimes()

	tracer := NewMockTracingInterface(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	).AnyTimes()

	var kratos KratosClientInterface
	if withKratos {
		kratos = h.kratos
	}

	h.svc = NewService(h.store, authorizer, kratos, []string{admin, " "}, "24h", tracer, NewMockMonitorInterface(ctrl), logger)

	created, err := h.svc.ProvisionTenant(context.Background(), "Acme", owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.tenantID = created.ID

	if _, err := h.store.AddMember(tenancy.WithTenant(context.Background(), h.tenantID), member, types.RoleTenantUser); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return h
}

func as(subject string) context.Context {
	return authentication.WithUserID(context.Background(), subject)
}

func expectKind(t *testing.T, err error, kind apierrors.Kind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected a %s error, got nil", kind)
	}
	if apierrors.KindOf(err) != kind {
		t.Fatalf("expected a %s error, got %s: %v", kind, apierrors.KindOf(err), err)
	}
}

func TestProvisionTenant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl, false)

	m, err := h.svc.GetMembership(context.Background(), h.tenantID, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Role != types.RoleTenantAdmin {
		t.Fatalf("expected the owner to be tenant_admin, got %s", m.Role)
	}

	tenants, err := h.svc.ListUserTenants(context.Background(), owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tenants) != 1 || tenants[0].ID != h.tenantID || !tenants[0].Enabled {
		t.Fatalf("expected the enabled tenant %s, got %v", h.tenantID, tenants)
	}

	_, err = h.svc.ProvisionTenant(context.Background(), "   ", owner)
	expectKind(t, err, apierrors.KindValidation)
}

func TestCreateTenantRequiresAppAdmin(t *testing.T) {
	tests := []struct {
		name       string
		ctx        context.Context
		setupMocks func(*MockSecurityLoggerInterface)
		kind       *apierrors.Kind
	}{
		{
			name:       "app admin",
			ctx:        as(admin),
			setupMocks: func(*MockSecurityLoggerInterface) {},
		},
		{
			name: "tenant admin",
			ctx:  as(owner),
			setupMocks: func(s *MockSecurityLoggerInterface) {
				s.EXPECT().AuthzFailure(owner, "tenants")
			},
			kind: kindPtr(apierrors.KindForbidden),
		},
		{
			name:       "anonymous",
			ctx:        context.Background(),
			setupMocks: func(*MockSecurityLoggerInterface) {},
			kind:       kindPtr(apierrors.KindUnauthorized),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			h := newHarness(t, ctrl, false)
			test.setupMocks(h.security)

			created, err := h.svc.CreateTenant(test.ctx, "Globex", "")
			if test.kind != nil {
				expectKind(t, err, *test.kind)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			all, err := h.svc.ListTenants(test.ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(all) != 2 || all[1].ID != created.ID {
				t.Fatalf("expected both tenants, got %v", all)
			}
		})
	}
}

func TestCheckAccess(t *testing.T) {
	tests := []struct {
		name       string
		ctx        context.Context
		tenantID   func(*harness) string
		permission string
		setupMocks func(*harness)
		kind       *apierrors.Kind
	}{
		{
			name:       "app admin without membership",
			ctx:        as(admin),
			setupMocks: func(*harness) {},
		},
		{
			name:       "tenant admin",
			ctx:        as(owner),
			setupMocks: func(*harness) {},
		},
		{
			name:       "tenant user",
			ctx:        as(member),
			setupMocks: func(*harness) {},
		},
		{
			name:       "read only user viewing",
			ctx:        as(viewer),
			permission: authorization.CAN_VIEW_PERMISSION,
			setupMocks: addViewer,
		},
		{
			name:       "read only user editing",
			ctx:        as(viewer),
			permission: authorization.CAN_EDIT_PERMISSION,
			setupMocks: func(h *harness) {
				addViewer(h)
				h.security.EXPECT().AuthzFailure(viewer, "tenant:"+h.tenantID+":"+authorization.CAN_EDIT_PERMISSION)
			},
			kind: kindPtr(apierrors.KindForbidden),
		},
		{
			name: "not a member",
			ctx:  as(stranger),
			setupMocks: func(h *harness) {
				h.security.EXPECT().TenantMismatch(stranger, h.tenantID)
			},
			kind: kindPtr(apierrors.KindForbidden),
		},
		{
			name:       "anonymous",
			ctx:        context.Background(),
			setupMocks: func(*harness) {},
			kind:       kindPtr(apierrors.KindUnauthorized),
		},
		{
			name:       "malformed tenant id",
			ctx:        as(owner),
			tenantID:   func(*harness) string { return "acme" },
			setupMocks: func(*harness) {},
			kind:       kindPtr(apierrors.KindValidation),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			h := newHarness(t, ctrl, false)
			test.setupMocks(h)

			tenantID := h.tenantID
			if test.tenantID != nil {
				tenantID = test.tenantID(h)
			}

			permission := test.permission
			if permission == "" {
				permission = authorization.CAN_EDIT_PERMISSION
			}

			err := h.svc.CheckAccess(test.ctx, tenantID, permission)
			if test.kind != nil {
				expectKind(t, err, *test.kind)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestUpdateMemberRole(t *testing.T) {
	tests := []struct {
		name       string
		ctx        context.Context
		userID     string
		role       types.Role
		setupMocks func(*harness)
		kind       *apierrors.Kind
	}{
		{
			name:       "tenant admin promotes a member",
			ctx:        as(owner),
			userID:     member,
			role:       types.RoleSupportUser,
			setupMocks: func(*harness) {},
		},
		{
			name:       "app admin grants app_admin",
			ctx:        as(admin),
			userID:     member,
			role:       types.RoleAppAdmin,
			setupMocks: func(*harness) {},
		},
		{
			name:   "tenant user cannot change roles",
			ctx:    as(member),
			userID: member,
			role:   types.RoleTenantAdmin,
			setupMocks: func(h *harness) {
				h.security.EXPECT().AuthzFailure(member, "tenant:"+h.tenantID+":members")
			},
			kind: kindPtr(apierrors.KindForbidden),
		},
		{
			name:   "tenant admin cannot grant app_admin",
			ctx:    as(owner),
			userID: member,
			role:   types.RoleAppAdmin,
			setupMocks: func(h *harness) {
				h.security.EXPECT().AuthzFailure(owner, "tenant:"+h.tenantID+":members")
			},
			kind: kindPtr(apierrors.KindForbidden),
		},
		{
			name:       "unknown role",
			ctx:        as(owner),
			userID:     member,
			role:       types.Role("superuser"),
			setupMocks: func(*harness) {},
			kind:       kindPtr(apierrors.KindValidation),
		},
		{
			name:       "unknown member",
			ctx:        as(owner),
			userID:     stranger,
			role:       types.RoleTenantUser,
			setupMocks: func(*harness) {},
			kind:       kindPtr(apierrors.KindNotFound),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			h := newHarness(t, ctrl, false)
			test.setupMocks(h)

			m, err := h.svc.UpdateMemberRole(test.ctx, h.tenantID, test.userID, test.role)
			if test.kind != nil {
				expectKind(t, err, *test.kind)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Role != test.role {
				t.Fatalf("expected role %s, got %s", test.role, m.Role)
			}
		})
	}
}

func TestAssignMember(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl, false)

	m, err := h.svc.AssignMember(as(owner), h.tenantID, stranger, types.RoleReadOnlyUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.TenantID != h.tenantID || m.Role != types.RoleReadOnlyUser {
		t.Fatalf("unexpected membership %+v", m)
	}

	_, err = h.svc.AssignMember(as(owner), h.tenantID, stranger, types.RoleTenantUser)
	expectKind(t, err, apierrors.KindConflict)

	if err := h.svc.CheckAccess(as(stranger), h.tenantID, authorization.CAN_VIEW_PERMISSION); err != nil {
		t.Fatalf("expected the new member to get access, got %v", err)
	}
}

func TestInviteMember(t *testing.T) {
	tests := []struct {
		name       string
		withKratos bool
		email      string
		setupMocks func(*MockKratosClientInterface)
		userID     string
		kind       *apierrors.Kind
	}{
		{
			name:       "new identity",
			withKratos: true,
			email:      "new@example.com",
			setupMocks: func(k *MockKratosClientInterface) {
				k.EXPECT().FindIdentityByEmail(gomock.Any(), "new@example.com").Return("", nil)
				k.EXPECT().CreateIdentity(gomock.Any(), "new@example.com").Return("identity-9", nil)
				k.EXPECT().CreateRecoveryLink(gomock.Any(), "identity-9", "24h").Return("https://id.example.com/recovery", nil)
			},
			userID: "identity-9",
		},
		{
			name:       "existing member gets a fresh link",
			withKratos: true,
			email:      " member@example.com ",
			setupMocks: func(k *MockKratosClientInterface) {
				k.EXPECT().FindIdentityByEmail(gomock.Any(), "member@example.com").Return(member, nil)
				k.EXPECT().CreateRecoveryLink(gomock.Any(), member, "24h").Return("https://id.example.com/recovery", nil)
			},
			userID: member,
		},
		{
			name:       "identity lookup fails",
			withKratos: true,
			email:      "new@example.com",
			setupMocks: func(k *MockKratosClientInterface) {
				k.EXPECT().FindIdentityByEmail(gomock.Any(), "new@example.com").Return("", errors.New("connection refused"))
			},
			kind: kindPtr(apierrors.KindInternal),
		},
		{
			name:       "invitations disabled",
			email:      "new@example.com",
			setupMocks: func(*MockKratosClientInterface) {},
			kind:       kindPtr(apierrors.KindInternal),
		},
		{
			name:       "missing email",
			withKratos: true,
			setupMocks: func(*MockKratosClientInterface) {},
			kind:       kindPtr(apierrors.KindValidation),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			h := newHarness(t, ctrl, test.withKratos)
			test.setupMocks(h.kratos)

			invitation, err := h.svc.InviteMember(as(owner), h.tenantID, test.email, types.RoleTenantUser)
			if test.kind != nil {
				expectKind(t, err, *test.kind)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if invitation.UserID != test.userID || invitation.Link == "" {
				t.Fatalf("unexpected invitation %+v", invitation)
			}

			if _, err := h.svc.GetMembership(context.Background(), h.tenantID, test.userID); err != nil {
				t.Fatalf("expected the invitee to be a member, got %v", err)
			}
		})
	}
}

func TestListMembersAddsEmails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl, true)
	h.kratos.EXPECT().GetIdentityEmail(gomock.Any(), owner).Return("owner@example.com", nil)
	h.kratos.EXPECT().GetIdentityEmail(gomock.Any(), member).Return("", errors.New("identity not found"))

	users, err := h.svc.ListMembers(as(owner), h.tenantID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byID := make(map[string]*types.TenantUser)
	for _, u := range users {
		byID[u.UserID] = u
	}
	if len(byID) != 2 {
		t.Fatalf("expected 2 members, got %d", len(byID))
	}
	if byID[owner].Email != "owner@example.com" || byID[owner].Role != types.RoleTenantAdmin {
		t.Fatalf("unexpected owner %+v", byID[owner])
	}
	if byID[member].Email != "" || byID[member].Role != types.RoleTenantUser {
		t.Fatalf("unexpected member %+v", byID[member])
	}
}

func TestMembershipsAreTenantScoped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl, false)

	other, err := h.svc.ProvisionTenant(context.Background(), "Globex", stranger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	users, err := h.svc.ListMembers(as(owner), h.tenantID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, u := range users {
		if u.UserID == stranger {
			t.Fatalf("member of tenant %s leaked into %s", other.ID, h.tenantID)
		}
	}

	_, err = h.svc.GetMembership(context.Background(), h.tenantID, stranger)
	expectKind(t, err, apierrors.KindNotFound)

	// a context already scoped to one tenant is never re-scoped
	_, err = h.svc.ListMembers(tenancy.WithTenant(as(owner), other.ID), h.tenantID)
	expectKind(t, err, apierrors.KindForbidden)
}

func TestUpdateTenant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl, false)

	renamed, err := h.svc.UpdateTenant(as(owner), h.tenantID, " Acme Corp ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if renamed.Name != "Acme Corp" {
		t.Fatalf("expected the trimmed name, got %q", renamed.Name)
	}

	h.security.EXPECT().AuthzFailure(member, "tenant:"+h.tenantID+":members")
	_, err = h.svc.UpdateTenant(as(member), h.tenantID, "Hijacked")
	expectKind(t, err, apierrors.KindForbidden)

	got, err := h.svc.GetTenant(as(member), h.tenantID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Acme Corp" {
		t.Fatalf("expected name Acme Corp, got %q", got.Name)
	}
}

func TestDeleteTenantCascades(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl, false)

	h.security.EXPECT().AuthzFailure(owner, "tenant:"+h.tenantID)
	expectKind(t, h.svc.DeleteTenant(as(owner), h.tenantID), apierrors.KindForbidden)

	if err := h.svc.DeleteTenant(as(admin), h.tenantID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := h.svc.GetTenant(as(admin), h.tenantID)
	expectKind(t, err, apierrors.KindNotFound)

	tenants, err := h.svc.ListUserTenants(context.Background(), owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tenants) != 0 {
		t.Fatalf("expected memberships to be removed, got %v", tenants)
	}
}

func TestRevokeMember(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl, false)

	if err := h.svc.RevokeMember(as(owner), h.tenantID, member); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectKind(t, h.svc.RevokeMember(as(owner), h.tenantID, member), apierrors.KindNotFound)

	h.security.EXPECT().TenantMismatch(member, h.tenantID)
	expectKind(t, h.svc.CheckAccess(as(member), h.tenantID, authorization.CAN_VIEW_PERMISSION), apierrors.KindForbidden)
}

func addViewer(h *harness) {
	if _, err := h.store.AddMember(tenancy.WithTenant(context.Background(), h.tenantID), viewer, types.RoleReadOnlyUser); err != nil {
		panic(err)
	}
}

func kindPtr(k apierrors.Kind) *apierrors.Kind {
	return &k
}
