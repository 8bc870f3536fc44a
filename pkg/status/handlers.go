// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/internal/version"
)

const checkTimeout = 2 * time.Second

type Status struct {
	Status    string `json:"status"`
	BuildInfo string `json:"buildInfo,omitempty"`
}

type Readiness struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

type API struct {
	checks map[string]CheckerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/v0/status", a.alive)
	mux.Get("/api/v0/version", a.version)
	mux.Get("/api/v0/ready", a.ready)
}

func (a *API) alive(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "status.API.alive")
	defer span.End()

	apierrors.WriteJSON(w, http.StatusOK, Status{Status: "ok"})
}

func (a *API) version(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "status.API.version")
	defer span.End()

	apierrors.WriteJSON(w, http.StatusOK, Status{Status: "ok", BuildInfo: version.Version})
}

// ready runs every registered check concurrently and reports 503 when any of
// them fails.
func (a *API) ready(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "status.API.ready")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	names := make([]string, 0, len(a.checks))
	for name := range a.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]error, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			results[i] = a.checks[name].Check(gctx)
			return nil
		})
	}
	_ = g.Wait()

	resp := Readiness{Status: "ok", Dependencies: make(map[string]string, len(names))}
	code := http.StatusOK
	for i, name := range names {
		availability := 1.0
		resp.Dependencies[name] = "ok"
		if results[i] != nil {
			a.logger.Warnf("dependency %s is not ready: %v", name, results[i])
			availability = 0
			resp.Dependencies[name] = "unavailable"
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
		_ = a.monitor.SetDependencyAvailability(map[string]string{"component": name}, availability)
	}

	apierrors.WriteJSON(w, code, resp)
}

func NewAPI(checks map[string]CheckerInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.checks = checks
	if a.checks == nil {
		a.checks = make(map[string]CheckerInterface)
	}

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
