// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/provider-sync-service/internal/db"
	"github.com/canonical/provider-sync-service/internal/types"
)

var jobColumns = []string{
	"id", "tenant_id", "provider", "job_type", "status", "progress", "retry_count",
	"error_message", "checkpoint", "parent_job_id", "cancel_requested",
	"created_at", "started_at", "completed_at", "updated_at",
}

func scanJob(row rowScanner) (*types.SyncJob, error) {
	var (
		j          types.SyncJob
		checkpoint []byte
	)

	err := row.Scan(
		&j.ID, &j.TenantID, &j.Provider, &j.Type, &j.Status, &j.Progress, &j.RetryCount,
		&j.ErrorMessage, &checkpoint, &j.ParentJobID, &j.CancelRequested,
		&j.CreatedAt, &j.StartedAt, &j.CompletedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalJSON(checkpoint, &j.Checkpoint); err != nil {
		return nil, err
	}

	return &j, nil
}

func (s *Storage) CreateJob(ctx context.Context, job *types.SyncJob) (*types.SyncJob, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateJob")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	checkpoint, err := marshalJSON(job.Checkpoint)
	if err != nil {
		return nil, err
	}

	created, err := scanJob(
		s.db.Statement(ctx).
			Insert("sync_jobs").
			Columns("id", "tenant_id", "provider", "job_type", "status", "progress", "retry_count", "checkpoint", "parent_job_id").
			Values(id, tenantID, job.Provider, job.Type, types.JobPending, 0, job.RetryCount, checkpoint, job.ParentJobID).
			Suffix("RETURNING " + columns(jobColumns)).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, mapWriteError(err, "create job")
	}

	return created, nil
}

func (s *Storage) GetJob(ctx context.Context, id string) (*types.SyncJob, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetJob")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	j, err := scanJob(
		s.db.Statement(ctx).
			Select(jobColumns...).
			From("sync_jobs").
			Where(sq.Eq{"tenant_id": tenantID, "id": id}).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, notFound(err, "get job")
	}

	return j, nil
}

func (s *Storage) GetJobForDispatch(ctx context.Context, id string) (*types.SyncJob, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetJobForDispatch")
	defer span.End()

	j, err := scanJob(
		s.db.Statement(ctx).
			Select(jobColumns...).
			From("sync_jobs").
			Where(sq.Eq{"id": id}).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, notFound(err, "get job for dispatch")
	}

	return j, nil
}

func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]*types.SyncJob, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListJobs")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	where := sq.Eq{"tenant_id": tenantID}
	if filter.Provider != "" {
		where["provider"] = filter.Provider
	}
	if filter.Status != "" {
		where["status"] = filter.Status
	}

	size := db.PageSize(filter.Size)
	rows, err := s.db.Statement(ctx).
		Select(jobColumns...).
		From("sync_jobs").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(size).
		Offset(db.Offset(filter.Page, size)).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*types.SyncJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return jobs, nil
}

// FindActiveJob returns the pending or running job of provider, if any.
func (s *Storage) FindActiveJob(ctx context.Context, provider string) (*types.SyncJob, error) {
	ctx, span := s.tracer.Start(ctx, "storage.FindActiveJob")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	j, err := scanJob(
		s.db.Statement(ctx).
			Select(jobColumns...).
			From("sync_jobs").
			Where(sq.Eq{
				"tenant_id": tenantID,
				"provider":  provider,
				"status":    []types.JobStatus{types.JobPending, types.JobRunning},
			}).
			OrderBy("created_at DESC").
			Limit(1).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, notFound(err, "find active job")
	}

	return j, nil
}

func (s *Storage) LatestCompletedJob(ctx context.Context, provider string) (*types.SyncJob, error) {
	ctx, span := s.tracer.Start(ctx, "storage.LatestCompletedJob")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	j, err := scanJob(
		s.db.Statement(ctx).
			Select(jobColumns...).
			From("sync_jobs").
			Where(sq.Eq{"tenant_id": tenantID, "provider": provider, "status": types.JobCompleted}).
			OrderBy("completed_at DESC").
			Limit(1).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, notFound(err, "get latest completed job")
	}

	return j, nil
}

// TransitionJob moves a job from one status to another in a single
// conditional update, a job that is no longer in from is left untouched.
func (s *Storage) TransitionJob(ctx context.Context, id string, from, to types.JobStatus, update JobUpdate) (*types.SyncJob, error) {
	ctx, span := s.tracer.Start(ctx, "storage.TransitionJob")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	q := s.db.Statement(ctx).
		Update("sync_jobs").
		Set("status", to).
		Set("updated_at", sq.Expr("NOW()"))

	if to == types.JobRunning {
		q = q.Set("started_at", sq.Expr("NOW()"))
	}
	if to.Terminal() {
		q = q.Set("completed_at", sq.Expr("NOW()"))
	}
	if update.Progress != nil {
		q = q.Set("progress", *update.Progress)
	}
	if update.ErrorMessage != nil {
		q = q.Set("error_message", *update.ErrorMessage)
	}
	if update.Checkpoint != nil {
		checkpoint, err := marshalJSON(update.Checkpoint)
		if err != nil {
			return nil, err
		}
		q = q.Set("checkpoint", checkpoint)
	}

	j, err := scanJob(
		q.Where(sq.Eq{"tenant_id": tenantID, "id": id, "status": from}).
			Suffix("RETURNING " + columns(jobColumns)).
			QueryRowContext(ctx),
	)
	if err == nil {
		return j, nil
	}

	if IsDuplicateKeyError(err) {
		return nil, WrapDuplicateKeyError(err, "another job is running")
	}
	if err := notFound(err, "transition job"); err != ErrNotFound {
		return nil, err
	}

	if _, err := s.GetJob(ctx, id); err != nil {
		return nil, err
	}

	return nil, ErrIllegalTransition
}

func (s *Storage) UpdateJobProgress(ctx context.Context, id string, progress int, checkpoint types.Checkpoint) (*types.SyncJob, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateJobProgress")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := marshalJSON(checkpoint)
	if err != nil {
		return nil, err
	}

	j, err := scanJob(
		s.db.Statement(ctx).
			Update("sync_jobs").
			Set("progress", progress).
			Set("checkpoint", raw).
			Set("updated_at", sq.Expr("NOW()")).
			Where(sq.Eq{"tenant_id": tenantID, "id": id, "status": types.JobRunning}).
			Suffix("RETURNING " + columns(jobColumns)).
			QueryRowContext(ctx),
	)
	if err == nil {
		return j, nil
	}

	if err := notFound(err, "update job progress"); err != ErrNotFound {
		return nil, err
	}

	if _, err := s.GetJob(ctx, id); err != nil {
		return nil, err
	}

	return nil, ErrIllegalTransition
}

func (s *Storage) IncrementRetryCount(ctx context.Context, id string, ceiling int) (*types.SyncJob, error) {
	ctx, span := s.tracer.Start(ctx, "storage.IncrementRetryCount")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	j, err := scanJob(
		s.db.Statement(ctx).
			Update("sync_jobs").
			Set("retry_count", sq.Expr("retry_count + 1")).
			Set("updated_at", sq.Expr("NOW()")).
			Where(sq.Eq{"tenant_id": tenantID, "id": id}).
			Where(sq.Lt{"retry_count": ceiling}).
			Suffix("RETURNING " + columns(jobColumns)).
			QueryRowContext(ctx),
	)
	if err == nil {
		return j, nil
	}

	if err := notFound(err, "increment retry count"); err != ErrNotFound {
		return nil, err
	}

	if _, err := s.GetJob(ctx, id); err != nil {
		return nil, err
	}

	return nil, ErrRetryLimitReached
}

// RequestCancellation flags a pending or running job, the processor acts on
// the flag between pages.
func (s *Storage) RequestCancellation(ctx context.Context, id string) (*types.SyncJob, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RequestCancellation")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	j, err := scanJob(
		s.db.Statement(ctx).
			Update("sync_jobs").
			Set("cancel_requested", true).
			Set("updated_at", sq.Expr("NOW()")).
			Where(sq.Eq{
				"tenant_id": tenantID,
				"id":        id,
				"status":    []types.JobStatus{types.JobPending, types.JobRunning},
			}).
			Suffix("RETURNING " + columns(jobColumns)).
			QueryRowContext(ctx),
	)
	if err == nil {
		return j, nil
	}

	if err := notFound(err, "request cancellation"); err != ErrNotFound {
		return nil, err
	}

	if _, err := s.GetJob(ctx, id); err != nil {
		return nil, err
	}

	return nil, ErrIllegalTransition
}

// FailStaleJobs runs without a tenant scope. A running job bumps updated_at
// with every page, one that stopped doing so lost its worker.
func (s *Storage) FailStaleJobs(ctx context.Context, before time.Time, message string) ([]*types.SyncJob, error) {
	ctx, span := s.tracer.Start(ctx, "storage.FailStaleJobs")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Update("sync_jobs").
		Set("status", types.JobFailed).
		Set("error_message", message).
		Set("completed_at", sq.Expr("NOW()")).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"status": types.JobRunning}).
		Where(sq.Lt{"updated_at": before}).
		Suffix("RETURNING " + columns(jobColumns)).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fail stale jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*types.SyncJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return jobs, nil
}
