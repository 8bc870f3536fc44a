// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"

	"github.com/ory/hydra/v2/oauth2"

	"github.com/canonical/provider-sync-service/internal/types"
)

// TenantsInterface is the subset of the tenant service the hooks provision through.
type TenantsInterface interface {
	ProvisionTenant(ctx context.Context, name, ownerID string) (*types.Tenant, error)
	ListUserTenants(ctx context.Context, userID string) ([]*types.Tenant, error)
}

// ServiceInterface defines the webhook service operations.
type ServiceInterface interface {
	HandleRegistration(ctx context.Context, identityID, email string) error
	HandleTokenHook(ctx context.Context, req *oauth2.TokenHookRequest) (*TokenHookResponse, error)
}
