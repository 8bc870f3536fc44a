// Copyright 2025 Canonical Ltd
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"

	"github.com/canonical/provider-sync-service/internal/types"
)

type AuthorizerInterface interface {
	// Check reports whether userID holds permission in the tenant ctx is scoped to.
	Check(ctx context.Context, userID, permission string) (bool, error)
	CheckTenantAccess(ctx context.Context, tenantID, userID, permission string) (bool, error)
}

// MembershipsInterface reads memberships of the tenant ctx is scoped to.
type MembershipsInterface interface {
	GetMembership(ctx context.Context, userID string) (*types.Membership, error)
}
