// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tenant

import (
	"net/http"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/authorization"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/tracing"
)

// AccessMiddleware runs after tenant resolution and authentication, it only
// lets members of the resolved tenant and app admins through.
type AccessMiddleware struct {
	access AccessInterface
	errors *apierrors.Writer

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func (m *AccessMiddleware) RequireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.Start(r.Context(), "tenant.AccessMiddleware.RequireMember")
		defer span.End()

		tenantID, ok := tenancy.FromContext(ctx)
		if !ok {
			m.errors.WriteError(w, r, apierrors.Unauthorized("tenant context is required"))
			return
		}

		if err := m.access.CheckAccess(ctx, tenantID, authorization.PermissionFor(r.Method)); err != nil {
			m.errors.WriteError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func NewAccessMiddleware(access AccessInterface, errors *apierrors.Writer, tracer tracing.TracingInterface, logger logging.LoggerInterface) *AccessMiddleware {
	m := new(AccessMiddleware)

	m.access = access
	m.errors = errors

	m.tracer = tracer
	m.logger = logger

	return m
}
