// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package syncjobs

import (
	"context"
	"time"

	"github.com/canonical/provider-sync-service/internal/storage"
	"github.com/canonical/provider-sync-service/internal/types"
)

type ManagerInterface interface {
	CreateJob(ctx context.Context, tenantID string, jobType types.JobType, provider string) (*types.SyncJob, error)
	GetJob(ctx context.Context, tenantID, jobID string) (*types.SyncJob, error)
	ListJobs(ctx context.Context, tenantID string, filter storage.JobFilter) ([]*types.SyncJob, error)
	UpdateJobStatus(ctx context.Context, tenantID, jobID string, status types.JobStatus, update storage.JobUpdate) (*types.SyncJob, error)
	UpdateProgress(ctx context.Context, tenantID, jobID string, progress int, checkpoint types.Checkpoint) (*types.SyncJob, error)
	IncrementRetryCount(ctx context.Context, tenantID, jobID string) (*types.SyncJob, error)
	RequestCancellation(ctx context.Context, tenantID, jobID string) (*types.SyncJob, error)
	IsCancellationRequested(ctx context.Context, tenantID, jobID string) (bool, error)
	CreateRetryJob(ctx context.Context, tenantID, jobID string, delay time.Duration) (*types.SyncJob, error)
	Redispatch(ctx context.Context, tenantID, jobID string, delay time.Duration) (*types.SyncJob, error)
}

// DispatcherInterface hands a job to whatever runs the sync processor, the
// AMQP publisher in production or an in-process pool.
type DispatcherInterface interface {
	Dispatch(ctx context.Context, job *types.SyncJob, delay time.Duration) error
}

// StorageInterface is the subset of the data store the manager uses.
type StorageInterface interface {
	GetConnection(ctx context.Context, provider string) (*types.Connection, error)
	CreateJob(ctx context.Context, job *types.SyncJob) (*types.SyncJob, error)
	GetJob(ctx context.Context, id string) (*types.SyncJob, error)
	ListJobs(ctx context.Context, filter storage.JobFilter) ([]*types.SyncJob, error)
	FindActiveJob(ctx context.Context, provider string) (*types.SyncJob, error)
	TransitionJob(ctx context.Context, id string, from, to types.JobStatus, update storage.JobUpdate) (*types.SyncJob, error)
	UpdateJobProgress(ctx context.Context, id string, progress int, checkpoint types.Checkpoint) (*types.SyncJob, error)
	IncrementRetryCount(ctx context.Context, id string, ceiling int) (*types.SyncJob, error)
	RequestCancellation(ctx context.Context, id string) (*types.SyncJob, error)
}
