// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tenancy

import (
	"context"

	"github.com/canonical/provider-sync-service/internal/apierrors"
)

type tenantContextKey struct{}
type resolutionContextKey struct{}

// WithTenant returns a context scoped to tenantID, storage reads the active
// tenant from here and nowhere else.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tenantID)
}

// FromContext returns the active tenant, false when the context carries none.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(tenantContextKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Scope binds tenantID to ctx. A context already scoped to another tenant is
// never re-scoped.
func Scope(ctx context.Context, tenantID string) (context.Context, error) {
	id, err := ParseTenantID(tenantID)
	if err != nil {
		return ctx, apierrors.Validation("invalid tenant id", map[string]string{"tenant_id": err.Error()})
	}

	if current, ok := FromContext(ctx); ok {
		if current != id {
			return ctx, apierrors.Forbidden("request is scoped to a different tenant")
		}
		return ctx, nil
	}

	return WithTenant(ctx, id), nil
}

func withResolution(ctx context.Context, r Resolution) context.Context {
	return context.WithValue(ctx, resolutionContextKey{}, r)
}

// ResolutionFromContext returns how the tenant of the current request was resolved.
func ResolutionFromContext(ctx context.Context) Resolution {
	if r, ok := ctx.Value(resolutionContextKey{}).(Resolution); ok {
		return r
	}
	return NoTenant
}
