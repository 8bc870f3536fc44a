// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import "context"

// Principal is the authenticated caller of a request.
type Principal struct {
	Subject string
	// TenantID is the tenant_id claim, empty when the token carries none
	TenantID string
}

// Define a private custom type to avoid collisions
type contextKey struct{}

var principalContextKey = contextKey{}

// WithPrincipal returns a new context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext returns the principal, nil when the request is anonymous.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey).(*Principal)
	return p
}

// WithUserID returns a new context with the given user ID derived from the parent context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return WithPrincipal(ctx, &Principal{Subject: userID})
}

// GetUserID retrieves the user ID from the context.
// Returns an empty string and false if the user ID is not present.
func GetUserID(ctx context.Context) (string, bool) {
	p := PrincipalFromContext(ctx)
	if p == nil || p.Subject == "" {
		return "", false
	}
	return p.Subject, true
}

// TenantClaim exposes the tenant_id claim to the tenant resolver.
func TenantClaim(ctx context.Context) (string, bool) {
	p := PrincipalFromContext(ctx)
	if p == nil || p.TenantID == "" {
		return "", false
	}
	return p.TenantID, true
}
