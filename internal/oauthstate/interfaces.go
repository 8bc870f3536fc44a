// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package oauthstate

import (
	"context"
)

// StoreInterface keeps pending OAuth authorization requests. A state token can
// be consumed exactly once.
type StoreInterface interface {
	Issue(ctx context.Context, tenantID, provider, userID string) (*State, error)
	// Consume removes the state and returns it when it was issued for the
	// given tenant and provider. The token is spent even when it does not match.
	Consume(ctx context.Context, token, tenantID, provider string) (*State, error)
	// Pending reports whether an unconsumed state exists for the pair.
	Pending(ctx context.Context, tenantID, provider string) (bool, error)
}
