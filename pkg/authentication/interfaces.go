// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
)

type TokenVerifierInterface interface {
	// VerifyToken verifies a raw bearer token and returns the principal it identifies
	VerifyToken(ctx context.Context, rawToken string) (*Principal, error)
}
