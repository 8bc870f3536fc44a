// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tenancy

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/tracing"
)

func newTestMiddleware(claim ClaimFunc) *Middleware {
	logger := logging.NewNoopLogger()
	return NewMiddleware(
		NewResolver(claim),
		apierrors.NewWriter(false, logger),
		tracing.NewNoopTracer(),
		monitoring.NewNoopMonitor("test", logger),
		logger,
	)
}

func TestMiddlewarePublishesTenant(t *testing.T) {
	var (
		seen   string
		source Source
	)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		source = ResolutionFromContext(r.Context()).Source
		w.WriteHeader(http.StatusNoContent)
	})

	m := newTestMiddleware(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v0/tenant/"+tenantB+"/sync-jobs", nil)
	rr := httptest.NewRecorder()

	m.ResolveTenant(m.RequireTenant(next)).ServeHTTP(rr, req)

	gt.Value(t, rr.Code).Equal(http.StatusNoContent)
	gt.Value(t, seen).Equal(tenantB)
	gt.Value(t, source).Equal(SourcePath)
}

func TestMiddlewareRejectsMalformedTenant(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	m := newTestMiddleware(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v0/sync-jobs", nil)
	req.Header.Set(HeaderName, "nope")
	rr := httptest.NewRecorder()

	m.ResolveTenant(next).ServeHTTP(rr, req)

	gt.Value(t, rr.Code).Equal(http.StatusBadRequest)
	gt.Bool(t, called).False()
}

func TestRequireTenantWithoutTenant(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	m := newTestMiddleware(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v0/sync-jobs", nil)
	rr := httptest.NewRecorder()

	m.ResolveTenant(m.RequireTenant(next)).ServeHTTP(rr, req)

	gt.Value(t, rr.Code).Equal(http.StatusUnauthorized)
	gt.Bool(t, called).False()
}
