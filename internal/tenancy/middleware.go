// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tenancy

import (
	"net/http"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/tracing"
)

type Middleware struct {
	resolver *Resolver
	errors   *apierrors.Writer

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// ResolveTenant publishes the request's tenant into its context for the
// remainder of the request.
func (m *Middleware) ResolveTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.Start(r.Context(), "tenancy.Middleware.ResolveTenant")
		defer span.End()

		res, err := m.resolver.Resolve(r.WithContext(ctx))
		if err != nil {
			m.errors.WriteError(w, r, err)
			return
		}

		ctx = withResolution(ctx, res)
		if res.Found() {
			ctx = WithTenant(ctx, res.TenantID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireTenant rejects requests that reached a tenant scoped route without a tenant.
func (m *Middleware) RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			m.errors.WriteError(w, r, apierrors.Unauthorized("tenant context is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func NewMiddleware(
	resolver *Resolver,
	errors *apierrors.Writer,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Middleware {
	return &Middleware{
		resolver: resolver,
		errors:   errors,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}
