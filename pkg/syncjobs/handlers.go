// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package syncjobs

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/storage"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/internal/types"
)

const maxPageSize = 100

type CreateJobRequest struct {
	Provider string        `json:"provider" validate:"required,max=64"`
	JobType  types.JobType `json:"jobType" validate:"required,oneof=full_sync incremental_sync"`
}

type API struct {
	manager  ManagerInterface
	validate *validator.Validate
	errors   *apierrors.Writer

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Post("/sync-jobs", a.createJob)
	mux.Get("/sync-jobs", a.listJobs)
	mux.Get("/sync-jobs/{id}", a.getJob)
	mux.Post("/sync-jobs/{id}/cancel", a.cancelJob)
	mux.Post("/sync-jobs/{id}/retry", a.retryJob)
}

func (a *API) createJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "syncjobs.API.createJob")
	defer span.End()

	req := new(CreateJobRequest)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		a.errors.WriteError(w, r, apierrors.Validation("invalid request", map[string]string{"body": "must be a JSON object"}))
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.errors.WriteError(w, r, apierrors.FromValidator(err))
		return
	}

	job, err := a.manager.CreateJob(ctx, tenantOf(r), req.JobType, req.Provider)
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusCreated, job)
}

func (a *API) listJobs(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "syncjobs.API.listJobs")
	defer span.End()

	filter, err := parseFilter(r)
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	jobs, err := a.manager.ListJobs(ctx, tenantOf(r), filter)
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, jobs)
}

func (a *API) getJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "syncjobs.API.getJob")
	defer span.End()

	job, err := a.manager.GetJob(ctx, tenantOf(r), chi.URLParam(r, "id"))
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, job)
}

func (a *API) cancelJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "syncjobs.API.cancelJob")
	defer span.End()

	job, err := a.manager.RequestCancellation(ctx, tenantOf(r), chi.URLParam(r, "id"))
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusAccepted, job)
}

// retryJob starts a successor of a failed or cancelled job. A job that is
// still pending is dispatched again instead.
func (a *API) retryJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "syncjobs.API.retryJob")
	defer span.End()

	tenantID, jobID := tenantOf(r), chi.URLParam(r, "id")

	job, err := a.manager.GetJob(ctx, tenantID, jobID)
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	if job.Status == types.JobPending {
		job, err = a.manager.Redispatch(ctx, tenantID, jobID, 0)
		if err != nil {
			a.errors.WriteError(w, r, err)
			return
		}
		apierrors.WriteJSON(w, http.StatusAccepted, job)
		return
	}

	retry, err := a.manager.CreateRetryJob(ctx, tenantID, jobID, 0)
	if err != nil {
		a.errors.WriteError(w, r, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusCreated, retry)
}

func parseFilter(r *http.Request) (storage.JobFilter, error) {
	q := r.URL.Query()
	filter := storage.JobFilter{Provider: q.Get("provider"), Page: 1, Size: 20}
	fields := make(map[string]string)

	if s := q.Get("status"); s != "" {
		status := types.JobStatus(s)
		switch status {
		case types.JobPending, types.JobRunning, types.JobCompleted, types.JobFailed, types.JobCancelled:
			filter.Status = status
		default:
			fields["status"] = "is not a job status"
		}
	}

	if p := q.Get("page"); p != "" {
		page, err := strconv.ParseInt(p, 10, 64)
		if err != nil || page < 1 {
			fields["page"] = "must be a positive integer"
		}
		filter.Page = page
	}

	if s := q.Get("size"); s != "" {
		size, err := strconv.ParseInt(s, 10, 64)
		if err != nil || size < 1 || size > maxPageSize {
			fields["size"] = "must be between 1 and 100"
		}
		filter.Size = size
	}

	if len(fields) > 0 {
		return filter, apierrors.Validation("invalid query", fields)
	}

	return filter, nil
}

func tenantOf(r *http.Request) string {
	id, _ := tenancy.FromContext(r.Context())
	return id
}

func NewAPI(manager ManagerInterface, errors *apierrors.Writer, tracer tracing.TracingInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.manager = manager
	a.validate = apierrors.NewValidator()
	a.errors = errors

	a.tracer = tracer
	a.logger = logger

	return a
}
