// Copyright 2025 Canonical Ltd
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/db"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/pkg/authentication"
	"github.com/canonical/provider-sync-service/pkg/connectors"
	"github.com/canonical/provider-sync-service/pkg/installation"
	"github.com/canonical/provider-sync-service/pkg/metrics"
	"github.com/canonical/provider-sync-service/pkg/status"
	"github.com/canonical/provider-sync-service/pkg/syncjobs"
	"github.com/canonical/provider-sync-service/pkg/tenant"
	"github.com/canonical/provider-sync-service/pkg/webhooks"
)

// NewRouter wires the HTTP API. Tenant scoped routes are served twice: under
// /api/v0/tenant/{tenantId} and directly under /api/v0, where the tenant
// comes from the X-Tenant-Id header, the tenantId query parameter or the
// token claim. dbClient may be nil when the service runs on the memory store.
func NewRouter(
	installations installation.ServiceInterface,
	registry connectors.RegistryInterface,
	jobs syncjobs.ManagerInterface,
	tenants tenant.ServiceInterface,
	access tenant.AccessInterface,
	hooks webhooks.ServiceInterface,
	verifier authentication.TokenVerifierInterface,
	checks map[string]status.CheckerInterface,
	dbClient db.DBClientInterface,
	diagnosticErrors bool,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	middlewares := make(chi.Middlewares, 0)
	middlewares = append(
		middlewares,
		middleware.RequestID,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS([]string{"*"}),
	)

	router.Use(middlewares...)

	errors := apierrors.NewWriter(diagnosticErrors, logger)

	authn := authentication.NewMiddleware(verifier, tracer, monitor, logger).Authenticate()
	tenancyMiddleware := tenancy.NewMiddleware(
		tenancy.NewResolver(authentication.TenantClaim),
		errors,
		tracer,
		monitor,
		logger,
	)
	member := tenant.NewAccessMiddleware(access, errors, tracer, logger).RequireMember

	transactional := func(r chi.Router) {
		if dbClient != nil {
			r.Use(db.TransactionMiddleware(dbClient, logger))
		}
	}

	installationAPI := installation.NewAPI(installations, registry, errors, tracer, logger)
	syncJobsAPI := syncjobs.NewAPI(jobs, errors, tracer, logger)
	tenantAPI := tenant.NewAPI(tenants, errors, tracer, logger)

	scoped := func(r chi.Router) {
		installationAPI.RegisterEndpoints(r)
		syncJobsAPI.RegisterEndpoints(r)
		r.Group(func(r chi.Router) {
			transactional(r)
			tenantAPI.RegisterMemberEndpoints(r)
		})
	}

	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(checks, tracer, monitor, logger).RegisterEndpoints(router)

	router.Route("/api/v0", func(r chi.Router) {
		installationAPI.RegisterDiscoveryEndpoints(r)
		webhooks.NewAPI(hooks, errors, tracer, logger).RegisterEndpoints(r)

		r.Route("/tenant/{tenantId}", func(r chi.Router) {
			r.Use(tenancyMiddleware.ResolveTenant)

			// providers redirect the browser here, the state token stands in for the bearer token
			installationAPI.RegisterCallbackEndpoints(r)

			r.Group(func(r chi.Router) {
				r.Use(authn, tenancyMiddleware.RequireTenant, member)
				scoped(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Group(func(r chi.Router) {
				transactional(r)
				tenantAPI.RegisterEndpoints(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(tenancyMiddleware.ResolveTenant, tenancyMiddleware.RequireTenant, member)
				scoped(r)
			})
		})
	})

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}
