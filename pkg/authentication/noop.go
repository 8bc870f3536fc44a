// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"strings"
)

type NoopVerifier struct{}

// NewNoopVerifier returns a no-op token verifier that allows all requests.
func NewNoopVerifier() *NoopVerifier {
	return &NoopVerifier{}
}

// VerifyToken treats the token as "<user id>[:<tenant id>]" for development purposes.
func (n *NoopVerifier) VerifyToken(ctx context.Context, rawIDToken string) (*Principal, error) {
	subject, tenantID, _ := strings.Cut(rawIDToken, ":")
	return &Principal{Subject: subject, TenantID: tenantID}, nil
}
