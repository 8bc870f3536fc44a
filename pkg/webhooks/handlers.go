// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ory/hydra/v2/oauth2"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/tracing"
)

type API struct {
	service ServiceInterface
	errors  *apierrors.Writer

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func NewAPI(service ServiceInterface, errors *apierrors.Writer, tracer tracing.TracingInterface, logger logging.LoggerInterface) *API {
	return &API{
		service: service,
		errors:  errors,
		tracer:  tracer,
		logger:  logger,
	}
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Post("/webhooks/registration", a.registration)
	mux.Post("/webhooks/token", a.tokenHook)
}

func (a *API) registration(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "webhooks.API.registration")
	defer span.End()

	var identity KratosIdentity
	if err := json.NewDecoder(r.Body).Decode(&identity); err != nil {
		a.errors.WriteError(w, r, apierrors.Validation("invalid request body", map[string]string{"body": "must be a kratos identity"}))
		return
	}

	if err := a.service.HandleRegistration(ctx, identity.ID, identity.Traits.Email); err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (a *API) tokenHook(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "webhooks.API.tokenHook")
	defer span.End()

	req := new(oauth2.TokenHookRequest)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		a.errors.WriteError(w, r, apierrors.Validation("invalid request body", map[string]string{"body": "must be a token hook request"}))
		return
	}

	resp, err := a.service.HandleTokenHook(ctx, req)
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, resp)
}
