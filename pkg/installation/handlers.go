// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package installation

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/pkg/connectors"
)

type InitiateResponse struct {
	AuthorizationURL string `json:"authorizationUrl"`
}

type API struct {
	service    ServiceInterface
	connectors connectors.RegistryInterface
	errors     *apierrors.Writer

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

// RegisterEndpoints mounts the tenant scoped connection routes.
func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/connections", a.listConnections)
	mux.Post("/connections/{provider}/initiate", a.initiate)
	mux.Get("/connections/{provider}", a.getConnection)
	mux.Delete("/connections/{provider}", a.disconnect)
	mux.Post("/connections/{provider}/validate", a.validate)
}

// RegisterCallbackEndpoints mounts the OAuth redirect target. The state
// token authenticates it, providers redirect the browser without a bearer token.
func (a *API) RegisterCallbackEndpoints(mux chi.Router) {
	mux.Get("/connections/{provider}/callback", a.callback)
	mux.Post("/connections/{provider}/callback", a.callback)
}

// RegisterDiscoveryEndpoints mounts the connector listing, it is not tenant scoped.
func (a *API) RegisterDiscoveryEndpoints(mux chi.Router) {
	mux.Get("/connectors", a.listConnectors)
}

func (a *API) listConnectors(w http.ResponseWriter, r *http.Request) {
	apierrors.WriteJSON(w, http.StatusOK, a.connectors.List())
}

func (a *API) listConnections(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "installation.API.listConnections")
	defer span.End()

	views, err := a.service.ListConnections(ctx, tenantOf(r))
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, views)
}

func (a *API) initiate(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "installation.API.initiate")
	defer span.End()

	authURL, err := a.service.InitiateConnection(ctx, tenantOf(r), chi.URLParam(r, "provider"))
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, &InitiateResponse{AuthorizationURL: authURL})
}

func (a *API) callback(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "installation.API.callback")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		a.errors.WriteError(w, r, apierrors.Validation("invalid callback", map[string]string{"body": "must be form encoded"}))
		return
	}

	// providers report a denied consent through the error parameter
	if reason := r.Form.Get("error"); reason != "" {
		a.errors.WriteError(w, r, apierrors.Validation("authorization was not granted", map[string]string{"error": reason}))
		return
	}

	view, err := a.service.HandleOAuthCallback(
		ctx,
		tenantOf(r),
		chi.URLParam(r, "provider"),
		r.Form.Get("code"),
		r.Form.Get("state"),
	)
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, view)
}

func (a *API) getConnection(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "installation.API.getConnection")
	defer span.End()

	view, err := a.service.GetConnection(ctx, tenantOf(r), chi.URLParam(r, "provider"))
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, view)
}

func (a *API) disconnect(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "installation.API.disconnect")
	defer span.End()

	if err := a.service.Disconnect(ctx, tenantOf(r), chi.URLParam(r, "provider")); err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) validate(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "installation.API.validate")
	defer span.End()

	view, err := a.service.ValidateConnection(ctx, tenantOf(r), chi.URLParam(r, "provider"))
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, view)
}

// tenantOf returns the tenant the resolver published, services reject the
// empty value.
func tenantOf(r *http.Request) string {
	id, _ := tenancy.FromContext(r.Context())
	return id
}

func NewAPI(
	service ServiceInterface,
	registry connectors.RegistryInterface,
	errors *apierrors.Writer,
	tracer tracing.TracingInterface,
	logger logging.LoggerInterface,
) *API {
	a := new(API)

	a.service = service
	a.connectors = registry
	a.errors = errors

	a.tracer = tracer
	a.logger = logger

	return a
}
