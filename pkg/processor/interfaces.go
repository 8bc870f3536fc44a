// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package processor

import (
	"context"
	"time"

	"github.com/canonical/provider-sync-service/internal/types"
)

// JobHandlerInterface runs one dispatched job to completion.
type JobHandlerInterface interface {
	ProcessJob(ctx context.Context, jobID string) error
}

// StorageInterface is the subset of the data store the processor writes to.
type StorageInterface interface {
	GetJobForDispatch(ctx context.Context, id string) (*types.SyncJob, error)
	LatestCompletedJob(ctx context.Context, provider string) (*types.SyncJob, error)
	UpsertCustomers(ctx context.Context, records []*types.SyncedCustomer) error
	UpsertSubscriptions(ctx context.Context, records []*types.SyncedSubscription) error
	UpsertPayments(ctx context.Context, records []*types.SyncedPayment) error
}

// StaleJobStoreInterface fails running jobs that lost their worker.
type StaleJobStoreInterface interface {
	FailStaleJobs(ctx context.Context, before time.Time, message string) ([]*types.SyncJob, error)
}
