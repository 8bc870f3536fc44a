// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package tenant manages tenants and the membership of users in them.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/authorization"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/storage"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/internal/types"
	"github.com/canonical/provider-sync-service/pkg/authentication"
)

const maxTenantNameLength = 255

// ErrInvitationsDisabled is returned by InviteMember when no identity admin API is configured.
var ErrInvitationsDisabled = errors.New("invitations are disabled")

var (
	_ ServiceInterface     = (*Service)(nil)
	_ ProvisionerInterface = (*Service)(nil)
	_ AccessInterface      = (*Service)(nil)
)

// Invitation is the outcome of InviteMember, Link lets the invitee set a password.
type Invitation struct {
	UserID string     `json:"userId"`
	Email  string     `json:"email"`
	Role   types.Role `json:"role"`
	Link   string     `json:"link"`
}

type Service struct {
	storage            StorageInterface
	authorizer         authorization.AuthorizerInterface
	kratos             KratosClientInterface
	admins             map[string]struct{}
	invitationLifetime string

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (s *Service) CreateTenant(ctx context.Context, name, ownerID string) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.CreateTenant")
	defer span.End()

	if _, err := s.requireAppAdmin(ctx, "tenants"); err != nil {
		return nil, err
	}

	return s.ProvisionTenant(ctx, name, ownerID)
}

// ProvisionTenant creates an enabled tenant, ownerID becomes its tenant_admin when set.
func (s *Service) ProvisionTenant(ctx context.Context, name, ownerID string) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.ProvisionTenant")
	defer span.End()

	name, err := validName(name)
	if err != nil {
		return nil, err
	}

	created, err := s.storage.CreateTenant(ctx, &types.Tenant{Name: name, Enabled: true})
	if err != nil {
		return nil, storage.Classify(err, "tenant")
	}

	if ownerID != "" {
		if _, err := s.storage.AddMember(tenancy.WithTenant(ctx, created.ID), ownerID, types.RoleTenantAdmin); err != nil {
			if cleanupErr := s.storage.DeleteTenant(ctx, created.ID); cleanupErr != nil {
				s.logger.Errorf("failed to remove tenant %s without owner: %v", created.ID, cleanupErr)
			}
			return nil, storage.Classify(err, "membership")
		}
	}

	s.logger.Infof("provisioned tenant %s", created.ID)

	return created, nil
}

func (s *Service) GetTenant(ctx context.Context, tenantID string) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.GetTenant")
	defer span.End()

	ctx, tenantID, err := scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := s.CheckAccess(ctx, tenantID, authorization.CAN_VIEW_PERMISSION); err != nil {
		return nil, err
	}

	t, err := s.storage.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, storage.Classify(err, "tenant")
	}

	return t, nil
}

func (s *Service) UpdateTenant(ctx context.Context, tenantID, name string) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.UpdateTenant")
	defer span.End()

	name, err := validName(name)
	if err != nil {
		return nil, err
	}

	ctx, tenantID, err = scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := s.requireManager(ctx, tenantID); err != nil {
		return nil, err
	}

	t, err := s.storage.UpdateTenantName(ctx, tenantID, name)
	if err != nil {
		return nil, storage.Classify(err, "tenant")
	}

	return t, nil
}

// DeleteTenant removes the tenant together with its memberships, connections,
// jobs and synced records.
func (s *Service) DeleteTenant(ctx context.Context, tenantID string) error {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.DeleteTenant")
	defer span.End()

	ctx, tenantID, err := scope(ctx, tenantID)
	if err != nil {
		return err
	}

	p, err := s.requireAppAdmin(ctx, authorization.TenantResource(tenantID))
	if err != nil {
		return err
	}

	if err := s.storage.DeleteTenant(ctx, tenantID); err != nil {
		return storage.Classify(err, "tenant")
	}

	s.logger.Infof("tenant %s deleted by %s", tenantID, p.Subject)

	return nil
}

func (s *Service) ListTenants(ctx context.Context) ([]*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.ListTenants")
	defer span.End()

	if _, err := s.requireAppAdmin(ctx, "tenants"); err != nil {
		return nil, err
	}

	tenants, err := s.storage.ListTenants(ctx)
	if err != nil {
		return nil, storage.Classify(err, "tenant")
	}

	return tenants, nil
}

// ListMyTenants lists the enabled tenants the caller is a member of.
func (s *Service) ListMyTenants(ctx context.Context) ([]*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.ListMyTenants")
	defer span.End()

	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	return s.ListUserTenants(ctx, p.Subject)
}

func (s *Service) ListUserTenants(ctx context.Context, userID string) ([]*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.ListUserTenants")
	defer span.End()

	tenants, err := s.storage.ListTenantsByUserID(ctx, userID)
	if err != nil {
		return nil, storage.Classify(err, "tenant")
	}

	return tenants, nil
}

func (s *Service) AssignMember(ctx context.Context, tenantID, userID string, role types.Role) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.AssignMember")
	defer span.End()

	if err := validMember("userId", userID, role); err != nil {
		return nil, err
	}

	ctx, tenantID, err := scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := s.requireGrant(ctx, tenantID, role); err != nil {
		return nil, err
	}

	m, err := s.storage.AddMember(ctx, userID, role)
	if err != nil {
		return nil, storage.Classify(err, "membership")
	}

	s.logger.Infof("user %s joined tenant %s as %s", userID, tenantID, role)

	return m, nil
}

// InviteMember finds or creates the identity behind email, adds it to the
// tenant and returns a recovery link the invitee uses to sign in. Inviting an
// existing member only issues a fresh link.
func (s *Service) InviteMember(ctx context.Context, tenantID, email string, role types.Role) (*Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.InviteMember")
	defer span.End()

	email = strings.TrimSpace(email)
	if err := validMember("email", email, role); err != nil {
		return nil, err
	}

	if s.kratos == nil {
		return nil, apierrors.Internal("invitations are not available", ErrInvitationsDisabled)
	}

	ctx, tenantID, err := scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := s.requireGrant(ctx, tenantID, role); err != nil {
		return nil, err
	}

	identityID, err := s.kratos.FindIdentityByEmail(ctx, email)
	if err != nil {
		return nil, apierrors.Internal("failed to look up identity", goerr.Wrap(err, "find identity", goerr.V("tenant_id", tenantID)))
	}

	if identityID == "" {
		s.logger.Debugf("creating identity for invitation to tenant %s", tenantID)
		if identityID, err = s.kratos.CreateIdentity(ctx, email); err != nil {
			return nil, apierrors.Internal("failed to provision user", goerr.Wrap(err, "create identity", goerr.V("tenant_id", tenantID)))
		}
	}

	if _, err := s.storage.AddMember(ctx, identityID, role); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return nil, storage.Classify(err, "membership")
	}

	link, err := s.kratos.CreateRecoveryLink(ctx, identityID, s.invitationLifetime)
	if err != nil {
		return nil, apierrors.Internal("failed to generate invitation link", goerr.Wrap(err, "create recovery link", goerr.V("identity_id", identityID)))
	}

	s.logger.Infof("user %s invited to tenant %s as %s", identityID, tenantID, role)

	return &Invitation{UserID: identityID, Email: email, Role: role, Link: link}, nil
}

func (s *Service) UpdateMemberRole(ctx context.Context, tenantID, userID string, role types.Role) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.UpdateMemberRole")
	defer span.End()

	if err := validMember("userId", userID, role); err != nil {
		return nil, err
	}

	ctx, tenantID, err := scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := s.requireGrant(ctx, tenantID, role); err != nil {
		return nil, err
	}

	m, err := s.storage.UpdateMemberRole(ctx, userID, role)
	if err != nil {
		return nil, storage.Classify(err, "membership")
	}

	s.logger.Infof("user %s is now %s of tenant %s", userID, role, tenantID)

	return m, nil
}

func (s *Service) RevokeMember(ctx context.Context, tenantID, userID string) error {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.RevokeMember")
	defer span.End()

	if userID == "" {
		return apierrors.Validation("invalid member", map[string]string{"userId": "is required"})
	}

	ctx, tenantID, err := scope(ctx, tenantID)
	if err != nil {
		return err
	}

	if err := s.requireManager(ctx, tenantID); err != nil {
		return err
	}

	if err := s.storage.RemoveMember(ctx, userID); err != nil {
		return storage.Classify(err, "membership")
	}

	s.logger.Infof("user %s removed from tenant %s", userID, tenantID)

	return nil
}

// ListMembers returns the tenant's members, emails are filled in from the
// identity provider when one is configured.
func (s *Service) ListMembers(ctx context.Context, tenantID string) ([]*types.TenantUser, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.ListMembers")
	defer span.End()

	ctx, tenantID, err := scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	members, err := s.storage.ListMembers(ctx)
	if err != nil {
		return nil, storage.Classify(err, "membership")
	}

	users := make([]*types.TenantUser, 0, len(members))
	for _, m := range members {
		u := &types.TenantUser{UserID: m.UserID, Role: m.Role}
		if s.kratos != nil {
			// identities removed from kratos stay listed without an email
			if u.Email, err = s.kratos.GetIdentityEmail(ctx, m.UserID); err != nil {
				s.logger.Warnf("failed to get identity %s of tenant %s: %v", m.UserID, tenantID, err)
			}
		}
		users = append(users, u)
	}

	return users, nil
}

func (s *Service) GetMembership(ctx context.Context, tenantID, userID string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.GetMembership")
	defer span.End()

	ctx, _, err := scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	m, err := s.storage.GetMembership(ctx, userID)
	if err != nil {
		return nil, storage.Classify(err, "membership")
	}

	return m, nil
}

// CheckAccess lets app admins through, and members of tenantID whose role
// grants permission.
func (s *Service) CheckAccess(ctx context.Context, tenantID, permission string) error {
	ctx, span := s.tracer.Start(ctx, "tenant.Service.CheckAccess")
	defer span.End()

	p, err := caller(ctx)
	if err != nil {
		return err
	}

	ctx, tenantID, err = scope(ctx, tenantID)
	if err != nil {
		return err
	}

	if s.isAppAdmin(p) {
		return nil
	}

	allowed, err := s.authorizer.Check(ctx, p.Subject, permission)
	if errors.Is(err, authorization.ErrNotMember) {
		s.logger.Security().TenantMismatch(p.Subject, tenantID)
		return apierrors.Forbidden("not a member of this tenant")
	}
	if err != nil {
		return storage.Classify(err, "membership")
	}

	if !allowed {
		s.logger.Security().AuthzFailure(p.Subject, authorization.TenantResource(tenantID)+":"+permission)
		return apierrors.Forbidden("role does not allow this action")
	}

	return nil
}

func (s *Service) isAppAdmin(p *authentication.Principal) bool {
	_, ok := s.admins[p.Subject]
	return ok
}

func (s *Service) requireAppAdmin(ctx context.Context, resource string) (*authentication.Principal, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	if !s.isAppAdmin(p) {
		s.logger.Security().AuthzFailure(p.Subject, resource)
		return nil, apierrors.Forbidden("app admin role is required")
	}

	return p, nil
}

// requireManager expects ctx to be scoped to tenantID.
func (s *Service) requireManager(ctx context.Context, tenantID string) error {
	p, err := caller(ctx)
	if err != nil {
		return err
	}

	if s.isAppAdmin(p) {
		return nil
	}

	allowed, err := s.authorizer.Check(ctx, p.Subject, authorization.CAN_MANAGE_PERMISSION)
	if err != nil && !errors.Is(err, authorization.ErrNotMember) {
		return storage.Classify(err, "membership")
	}

	if !allowed {
		s.logger.Security().AuthzFailure(p.Subject, authorization.TenantResource(tenantID)+":members")
		return apierrors.Forbidden("tenant_admin role is required")
	}

	return nil
}

// requireGrant is requireManager plus: only app admins hand out app_admin.
func (s *Service) requireGrant(ctx context.Context, tenantID string, role types.Role) error {
	if err := s.requireManager(ctx, tenantID); err != nil {
		return err
	}

	if role == types.RoleAppAdmin {
		if _, err := s.requireAppAdmin(ctx, authorization.TenantResource(tenantID)+":members"); err != nil {
			return err
		}
	}

	return nil
}

func caller(ctx context.Context) (*authentication.Principal, error) {
	p := authentication.PrincipalFromContext(ctx)
	if p == nil || p.Subject == "" {
		return nil, apierrors.Unauthorized("authentication is required")
	}
	return p, nil
}

func scope(ctx context.Context, tenantID string) (context.Context, string, error) {
	ctx, err := tenancy.Scope(ctx, tenantID)
	if err != nil {
		return ctx, "", err
	}
	id, _ := tenancy.FromContext(ctx)
	return ctx, id, nil
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", apierrors.Validation("invalid tenant", map[string]string{"name": "is required"})
	case len(name) > maxTenantNameLength:
		return "", apierrors.Validation("invalid tenant", map[string]string{"name": fmt.Sprintf("must be at most %d characters", maxTenantNameLength)})
	}
	return name, nil
}

func validMember(field, subject string, role types.Role) error {
	fields := make(map[string]string)
	if subject == "" {
		fields[field] = "is required"
	}
	if !role.Valid() {
		fields["role"] = "is not a known role"
	}
	if len(fields) > 0 {
		return apierrors.Validation("invalid member", fields)
	}
	return nil
}

func NewService(
	s StorageInterface,
	authorizer authorization.AuthorizerInterface,
	kratos KratosClientInterface,
	appAdmins []string,
	invitationLifetime string,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	svc := new(Service)

	svc.storage = s
	svc.authorizer = authorizer
	svc.kratos = kratos
	svc.invitationLifetime = invitationLifetime
	svc.admins = make(map[string]struct{}, len(appAdmins))
	for _, subject := range appAdmins {
		if subject = strings.TrimSpace(subject); subject != "" {
			svc.admins[subject] = struct{}{}
		}
	}

	svc.tracer = tracer
	svc.monitor = monitor
	svc.logger = logger

	return svc
}
