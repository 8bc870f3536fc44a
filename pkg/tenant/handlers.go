// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tenant

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/internal/types"
)

type CreateTenantRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	OwnerID string `json:"ownerId,omitempty" validate:"omitempty,max=255"`
}

type UpdateTenantRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type AssignMemberRequest struct {
	UserID string     `json:"userId" validate:"required,max=255"`
	Role   types.Role `json:"role" validate:"required,oneof=app_admin tenant_admin tenant_user support_user read_only_user"`
}

type InviteMemberRequest struct {
	Email string     `json:"email" validate:"required,email"`
	Role  types.Role `json:"role" validate:"required,oneof=app_admin tenant_admin tenant_user support_user read_only_user"`
}

type UpdateMemberRequest struct {
	Role types.Role `json:"role" validate:"required,oneof=app_admin tenant_admin tenant_user support_user read_only_user"`
}

type API struct {
	service  ServiceInterface
	validate *validator.Validate
	errors   *apierrors.Writer

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

// RegisterEndpoints mounts the tenant management routes, they require an
// authenticated caller but no tenant scope.
func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/tenants", a.listTenants)
	mux.Post("/tenants", a.createTenant)
	mux.Get("/me/tenants", a.listMyTenants)
	mux.Get("/tenants/{tenantId}", a.getTenant)
	mux.Patch("/tenants/{tenantId}", a.updateTenant)
	mux.Delete("/tenants/{tenantId}", a.deleteTenant)
}

// RegisterMemberEndpoints mounts the membership routes of the resolved tenant.
func (a *API) RegisterMemberEndpoints(mux chi.Router) {
	mux.Get("/members", a.listMembers)
	mux.Post("/members", a.assignMember)
	mux.Post("/members/invite", a.inviteMember)
	mux.Get("/members/{userId}", a.getMembership)
	mux.Patch("/members/{userId}", a.updateMember)
	mux.Delete("/members/{userId}", a.revokeMember)
}

func (a *API) listTenants(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tenant.API.listTenants")
	defer span.End()

	tenants, err := a.service.ListTenants(ctx)
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, tenants)
}

func (a *API) listMyTenants(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tenant.API.listMyTenants")
	defer span.End()

	tenants, err := a.service.ListMyTenants(ctx)
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, tenants)
}

func (a *API) createTenant(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tenant.API.createTenant")
	defer span.End()

	req := new(CreateTenantRequest)
	if !a.decode(w, r, req) {
		return
	}

	t, err := a.service.CreateTenant(ctx, req.Name, req.OwnerID)
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusCreated, t)
}

func (a *API) getTenant(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tenant.API.getTenant")
	defer span.End()

	t, err := a.service.GetTenant(ctx, chi.URLParam(r, "tenantId"))
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, t)
}

func (a *API) updateTenant(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tenant.API.updateTenant")
	defer span.End()

	req := new(UpdateTenantRequest)
	if !a.decode(w, r, req) {
		return
	}

	t, err := a.service.UpdateTenant(ctx, chi.URLParam(r, "tenantId"), req.Name)
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, t)
}

func (a *API) deleteTenant(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tenant.API.deleteTenant")
	defer span.End()

	if err := a.service.DeleteTenant(ctx, chi.URLParam(r, "tenantId")); err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listMembers(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tenant.API.listMembers")
	defer span.End()

	members, err := a.service.ListMembers(ctx, tenantOf(r))
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, members)
}

func (a *API) assignMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tenant.API.assignMember")
	defer span.End()

	req := new(AssignMemberRequest)
	if !a.decode(w, r, req) {
		return
	}

	m, err := a.service.AssignMember(ctx, tenantOf(r), req.UserID, req.Role)
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusCreated, m)
}

func (a *API) inviteMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tenant.API.inviteMember")
	defer span.End()

	req := new(InviteMemberRequest)
	if !a.decode(w, r, req) {
		return
	}

	invitation, err := a.service.InviteMember(ctx, tenantOf(r), req.Email, req.Role)
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusCreated, invitation)
}

func (a *API) getMembership(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tenant.API.getMembership")
	defer span.End()

	m, err := a.service.GetMembership(ctx, tenantOf(r), chi.URLParam(r, "userId"))
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, m)
}

func (a *API) updateMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tenant.API.updateMember")
	defer span.End()

	req := new(UpdateMemberRequest)
	if !a.decode(w, r, req) {
		return
	}

	m, err := a.service.UpdateMemberRole(ctx, tenantOf(r), chi.URLParam(r, "userId"), req.Role)
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, m)
}

func (a *API) revokeMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tenant.API.revokeMember")
	defer span.End()

	if err := a.service.RevokeMember(ctx, tenantOf(r), chi.URLParam(r, "userId")); err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decode reads and validates a JSON body, it writes the error response itself.
func (a *API) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		a.errors.WriteError(w, r, apierrors.Validation("invalid request", map[string]string{"body": "must be a JSON object"}))
		return false
	}
	if err := a.validate.Struct(req); err != nil {
		a.errors.WriteError(w, r, apierrors.FromValidator(err))
		return false
	}
	return true
}

func tenantOf(r *http.Request) string {
	id, _ := tenancy.FromContext(r.Context())
	return id
}

func NewAPI(service ServiceInterface, errors *apierrors.Writer, tracer tracing.TracingInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.service = service
	a.validate = apierrors.NewValidator()
	a.errors = errors

	a.tracer = tracer
	a.logger = logger

	return a
}
