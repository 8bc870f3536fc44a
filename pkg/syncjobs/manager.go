// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package syncjobs owns the lifecycle of sync jobs. Jobs move through
// pending, running and one terminal state, a new attempt is always a new job.
package syncjobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/storage"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/internal/types"
)

const DefaultMaxRetries = 3

var _ ManagerInterface = (*Manager)(nil)

type Manager struct {
	storage    StorageInterface
	dispatcher DispatcherInterface
	maxRetries int

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// CreateJob inserts a pending job and dispatches it. A job that could not be
// dispatched stays pending and can be handed over again with Redispatch.
func (m *Manager) CreateJob(ctx context.Context, tenantID string, jobType types.JobType, provider string) (*types.SyncJob, error) {
	ctx, span := m.tracer.Start(ctx, "syncjobs.Manager.CreateJob")
	defer span.End()

	ctx, err := tenancy.Scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if !jobType.Valid() {
		return nil, apierrors.Validation(
			"invalid sync job",
			map[string]string{"jobType": fmt.Sprintf("must be one of [%s %s]", types.JobTypeFullSync, types.JobTypeIncrementalSync)},
		)
	}

	if err := m.admit(ctx, provider); err != nil {
		return nil, err
	}

	job, err := m.storage.CreateJob(ctx, &types.SyncJob{Provider: provider, Type: jobType})
	if err != nil {
		return nil, storage.Classify(err, "sync job")
	}

	m.logger.Infof("created %s job %s for %s", jobType, job.ID, provider)
	m.dispatch(ctx, job, 0)

	return job, nil
}

func (m *Manager) GetJob(ctx context.Context, tenantID, jobID string) (*types.SyncJob, error) {
	ctx, span := m.tracer.Start(ctx, "syncjobs.Manager.GetJob")
	defer span.End()

	ctx, err := tenancy.Scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return m.job(ctx, jobID)
}

func (m *Manager) ListJobs(ctx context.Context, tenantID string, filter storage.JobFilter) ([]*types.SyncJob, error) {
	ctx, span := m.tracer.Start(ctx, "syncjobs.Manager.ListJobs")
	defer span.End()

	ctx, err := tenancy.Scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	jobs, err := m.storage.ListJobs(ctx, filter)
	if err != nil {
		return nil, storage.Classify(err, "sync job")
	}

	return jobs, nil
}

// UpdateJobStatus applies one of the legal transitions. Anything else is a
// programming error and is reported as such instead of being applied.
func (m *Manager) UpdateJobStatus(ctx context.Context, tenantID, jobID string, status types.JobStatus, update storage.JobUpdate) (*types.SyncJob, error) {
	ctx, span := m.tracer.Start(ctx, "syncjobs.Manager.UpdateJobStatus")
	defer span.End()

	ctx, err := tenancy.Scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	job, err := m.job(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if !job.Status.CanTransitionTo(status) {
		m.logger.Errorf("illegal transition of job %s from %s to %s", job.ID, job.Status, status)
		return nil, apierrors.Internal(
			fmt.Sprintf("illegal job transition from %s to %s", job.Status, status),
			storage.ErrIllegalTransition,
		)
	}

	updated, err := m.storage.TransitionJob(ctx, job.ID, job.Status, status, update)
	switch {
	case errors.Is(err, storage.ErrIllegalTransition):
		return nil, apierrors.Conflict("sync job %s changed status concurrently", job.ID).Wrap(err)
	case errors.Is(err, storage.ErrDuplicateKey):
		return nil, apierrors.Conflict("another %s sync job is already running", job.Provider).Wrap(err)
	case err != nil:
		return nil, storage.Classify(err, "sync job")
	}

	if status.Terminal() {
		m.monitor.IncSyncJobOutcome(map[string]string{"provider": updated.Provider, "status": string(status)})
	}

	m.logger.Debugf("job %s moved from %s to %s", updated.ID, job.Status, status)

	return updated, nil
}

func (m *Manager) UpdateProgress(ctx context.Context, tenantID, jobID string, progress int, checkpoint types.Checkpoint) (*types.SyncJob, error) {
	ctx, span := m.tracer.Start(ctx, "syncjobs.Manager.UpdateProgress")
	defer span.End()

	ctx, err := tenancy.Scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if progress < 0 || progress > 100 {
		return nil, apierrors.Validation("invalid progress", map[string]string{"progress": "must be between 0 and 100"})
	}

	updated, err := m.storage.UpdateJobProgress(ctx, jobID, progress, checkpoint)
	if errors.Is(err, storage.ErrIllegalTransition) {
		return nil, apierrors.Conflict("sync job %s is not running", jobID).Wrap(err)
	}
	if err != nil {
		return nil, storage.Classify(err, "sync job")
	}

	return updated, nil
}

// IncrementRetryCount reserves one more attempt for a failed job, it is
// refused once the retry ceiling is reached.
func (m *Manager) IncrementRetryCount(ctx context.Context, tenantID, jobID string) (*types.SyncJob, error) {
	ctx, span := m.tracer.Start(ctx, "syncjobs.Manager.IncrementRetryCount")
	defer span.End()

	ctx, err := tenancy.Scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	job, err := m.job(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != types.JobFailed {
		return nil, apierrors.Conflict("only failed sync jobs can be retried, %s is %s", job.ID, job.Status)
	}

	updated, err := m.storage.IncrementRetryCount(ctx, job.ID, m.maxRetries)
	if errors.Is(err, storage.ErrRetryLimitReached) {
		return nil, apierrors.Conflict("sync job %s reached the retry limit of %d", job.ID, m.maxRetries).Wrap(err)
	}
	if err != nil {
		return nil, storage.Classify(err, "sync job")
	}

	return updated, nil
}

// RequestCancellation flags a pending or running job, the processor stops at
// the next page boundary.
func (m *Manager) RequestCancellation(ctx context.Context, tenantID, jobID string) (*types.SyncJob, error) {
	ctx, span := m.tracer.Start(ctx, "syncjobs.Manager.RequestCancellation")
	defer span.End()

	ctx, err := tenancy.Scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	job, err := m.job(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return nil, apierrors.Conflict("sync job %s is already %s", job.ID, job.Status)
	}

	updated, err := m.storage.RequestCancellation(ctx, job.ID)
	if errors.Is(err, storage.ErrIllegalTransition) {
		return nil, apierrors.Conflict("sync job %s finished before it could be cancelled", job.ID).Wrap(err)
	}
	if err != nil {
		return nil, storage.Classify(err, "sync job")
	}

	m.logger.Infof("cancellation requested for job %s", updated.ID)

	return updated, nil
}

func (m *Manager) IsCancellationRequested(ctx context.Context, tenantID, jobID string) (bool, error) {
	ctx, span := m.tracer.Start(ctx, "syncjobs.Manager.IsCancellationRequested")
	defer span.End()

	ctx, err := tenancy.Scope(ctx, tenantID)
	if err != nil {
		return false, err
	}

	job, err := m.job(ctx, jobID)
	if err != nil {
		return false, err
	}

	return job.CancelRequested, nil
}

// CreateRetryJob starts a successor of a failed or cancelled job. The
// successor inherits the checkpoint and the retry count so it resumes where
// its parent stopped.
func (m *Manager) CreateRetryJob(ctx context.Context, tenantID, jobID string, delay time.Duration) (*types.SyncJob, error) {
	ctx, span := m.tracer.Start(ctx, "syncjobs.Manager.CreateRetryJob")
	defer span.End()

	ctx, err := tenancy.Scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	parent, err := m.job(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if parent.Status != types.JobFailed && parent.Status != types.JobCancelled {
		return nil, apierrors.Conflict("sync job %s is %s, only failed or cancelled jobs can be retried", parent.ID, parent.Status)
	}

	if err := m.admit(ctx, parent.Provider); err != nil {
		return nil, err
	}

	checkpoint := parent.Checkpoint.Clone()
	checkpoint.FailedCategory = ""

	job, err := m.storage.CreateJob(ctx, &types.SyncJob{
		Provider:    parent.Provider,
		Type:        parent.Type,
		RetryCount:  parent.RetryCount,
		Checkpoint:  checkpoint,
		ParentJobID: &parent.ID,
	})
	if err != nil {
		return nil, storage.Classify(err, "sync job")
	}

	m.logger.Infof("job %s retries %s after %s", job.ID, parent.ID, delay)
	m.dispatch(ctx, job, delay)

	return job, nil
}

// Redispatch hands a pending job to the dispatcher again. Delivering the
// same job twice is harmless, only one worker wins the pending to running
// transition.
func (m *Manager) Redispatch(ctx context.Context, tenantID, jobID string, delay time.Duration) (*types.SyncJob, error) {
	ctx, span := m.tracer.Start(ctx, "syncjobs.Manager.Redispatch")
	defer span.End()

	ctx, err := tenancy.Scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	job, err := m.job(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != types.JobPending {
		return nil, apierrors.Conflict("sync job %s is %s, only pending jobs can be dispatched again", job.ID, job.Status)
	}

	if err := m.dispatcher.Dispatch(ctx, job, delay); err != nil {
		return nil, apierrors.Internal("failed to dispatch sync job", err)
	}

	return job, nil
}

// admit checks that a new job may be queued for provider: the connection
// must be usable and no other job for the pair may be pending or running.
func (m *Manager) admit(ctx context.Context, provider string) error {
	if provider == "" {
		return apierrors.Validation("invalid sync job", map[string]string{"provider": "is required"})
	}

	conn, err := m.storage.GetConnection(ctx, provider)
	if errors.Is(err, storage.ErrNotFound) {
		return apierrors.NotFound("no %s connection for this tenant", provider).Wrap(err)
	}
	if err != nil {
		return storage.Classify(err, "connection")
	}
	if conn.Status != types.ConnectionConnected {
		return apierrors.Validation(
			"connection is not usable",
			map[string]string{"provider": fmt.Sprintf("%s connection is %s", provider, conn.Status)},
		)
	}

	active, err := m.storage.FindActiveJob(ctx, provider)
	if err == nil {
		return apierrors.Conflict("sync job %s for %s is already %s", active.ID, provider, active.Status)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return storage.Classify(err, "sync job")
	}

	return nil
}

func (m *Manager) job(ctx context.Context, jobID string) (*types.SyncJob, error) {
	job, err := m.storage.GetJob(ctx, jobID)
	if err != nil {
		return nil, storage.Classify(err, "sync job")
	}
	return job, nil
}

func (m *Manager) dispatch(ctx context.Context, job *types.SyncJob, delay time.Duration) {
	if err := m.dispatcher.Dispatch(ctx, job, delay); err != nil {
		m.logger.Errorf("job %s stays pending, dispatch failed: %v", job.ID, err)
	}
}

func NewManager(
	s StorageInterface,
	dispatcher DispatcherInterface,
	maxRetries int,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Manager {
	m := new(Manager)

	m.storage = s
	m.dispatcher = dispatcher
	m.maxRetries = maxRetries
	if m.maxRetries < 0 {
		m.maxRetries = DefaultMaxRetries
	}

	m.tracer = tracer
	m.monitor = monitor
	m.logger = logger

	return m
}
