// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tenant

import (
	"context"

	"github.com/canonical/provider-sync-service/internal/types"
)

type ServiceInterface interface {
	CreateTenant(ctx context.Context, name, ownerID string) (*types.Tenant, error)
	GetTenant(ctx context.Context, tenantID string) (*types.Tenant, error)
	UpdateTenant(ctx context.Context, tenantID, name string) (*types.Tenant, error)
	DeleteTenant(ctx context.Context, tenantID string) error
	ListTenants(ctx context.Context) ([]*types.Tenant, error)
	ListMyTenants(ctx context.Context) ([]*types.Tenant, error)

	AssignMember(ctx context.Context, tenantID, userID string, role types.Role) (*types.Membership, error)
	InviteMember(ctx context.Context, tenantID, email string, role types.Role) (*Invitation, error)
	UpdateMemberRole(ctx context.Context, tenantID, userID string, role types.Role) (*types.Membership, error)
	RevokeMember(ctx context.Context, tenantID, userID string) error
	ListMembers(ctx context.Context, tenantID string) ([]*types.TenantUser, error)
	GetMembership(ctx context.Context, tenantID, userID string) (*types.Membership, error)
}

// ProvisionerInterface is used by the identity webhooks, callers have no
// principal so no role checks apply.
type ProvisionerInterface interface {
	ProvisionTenant(ctx context.Context, name, ownerID string) (*types.Tenant, error)
	ListUserTenants(ctx context.Context, userID string) ([]*types.Tenant, error)
}

type AccessInterface interface {
	// CheckAccess fails unless the principal in ctx holds permission in tenantID.
	CheckAccess(ctx context.Context, tenantID, permission string) error
}

type StorageInterface interface {
	CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error)
	GetTenantByID(ctx context.Context, id string) (*types.Tenant, error)
	ListTenants(ctx context.Context) ([]*types.Tenant, error)
	ListTenantsByUserID(ctx context.Context, userID string) ([]*types.Tenant, error)
	UpdateTenantName(ctx context.Context, id, name string) (*types.Tenant, error)
	DeleteTenant(ctx context.Context, id string) error

	AddMember(ctx context.Context, userID string, role types.Role) (*types.Membership, error)
	GetMembership(ctx context.Context, userID string) (*types.Membership, error)
	ListMembers(ctx context.Context) ([]*types.Membership, error)
	UpdateMemberRole(ctx context.Context, userID string, role types.Role) (*types.Membership, error)
	RemoveMember(ctx context.Context, userID string) error
}

type KratosClientInterface interface {
	FindIdentityByEmail(ctx context.Context, email string) (string, error)
	CreateIdentity(ctx context.Context, email string) (string, error)
	GetIdentityEmail(ctx context.Context, id string) (string, error)
	CreateRecoveryLink(ctx context.Context, identityID, expiresIn string) (string, error)
}
