// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/canonical/provider-sync-service/internal/storage"
	"github.com/canonical/provider-sync-service/internal/types"
)

func copyJob(j *types.SyncJob) *types.SyncJob {
	out := *j
	out.Checkpoint = j.Checkpoint.Clone()
	if j.ErrorMessage != nil {
		v := *j.ErrorMessage
		out.ErrorMessage = &v
	}
	if j.ParentJobID != nil {
		v := *j.ParentJobID
		out.ParentJobID = &v
	}
	if j.StartedAt != nil {
		v := *j.StartedAt
		out.StartedAt = &v
	}
	if j.CompletedAt != nil {
		v := *j.CompletedAt
		out.CompletedAt = &v
	}
	return &out
}

func (s *Store) scopedJob(tenantID, id string) (*types.SyncJob, error) {
	j, ok := s.jobs[id]
	if !ok || j.TenantID != tenantID {
		return nil, storage.ErrNotFound
	}
	return j, nil
}

func newestFirst(jobs []*types.SyncJob) {
	sort.Slice(jobs, func(i, k int) bool {
		if jobs[i].CreatedAt.Equal(jobs[k].CreatedAt) {
			return jobs[i].ID > jobs[k].ID
		}
		return jobs[i].CreatedAt.After(jobs[k].CreatedAt)
	})
}

func (s *Store) CreateJob(ctx context.Context, job *types.SyncJob) (*types.SyncJob, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.CreateJob")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[tenantID]; !ok {
		return nil, fmt.Errorf("create job: %w", storage.ErrForeignKeyViolation)
	}

	now := s.now()
	created := &types.SyncJob{
		ID:         newID(),
		TenantID:   tenantID,
		Provider:   job.Provider,
		Type:       job.Type,
		Status:     types.JobPending,
		RetryCount: job.RetryCount,
		Checkpoint: job.Checkpoint.Clone(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if job.ParentJobID != nil {
		parent := *job.ParentJobID
		created.ParentJobID = &parent
	}
	s.jobs[created.ID] = created

	return copyJob(created), nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*types.SyncJob, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.GetJob")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	j, err := s.scopedJob(tenantID, id)
	if err != nil {
		return nil, err
	}

	return copyJob(j), nil
}

func (s *Store) GetJobForDispatch(ctx context.Context, id string) (*types.SyncJob, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.GetJobForDispatch")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return copyJob(j), nil
}

func (s *Store) ListJobs(ctx context.Context, filter storage.JobFilter) ([]*types.SyncJob, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.ListJobs")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*types.SyncJob
	for _, j := range s.jobs {
		if j.TenantID != tenantID {
			continue
		}
		if filter.Provider != "" && j.Provider != filter.Provider {
			continue
		}
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		all = append(all, copyJob(j))
	}
	newestFirst(all)

	return page(all, filter.Page, filter.Size), nil
}

func (s *Store) FindActiveJob(ctx context.Context, provider string) (*types.SyncJob, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.FindActiveJob")
	defer span.End()

	return s.latest(ctx, provider, types.JobPending, types.JobRunning)
}

func (s *Store) LatestCompletedJob(ctx context.Context, provider string) (*types.SyncJob, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.LatestCompletedJob")
	defer span.End()

	return s.latest(ctx, provider, types.JobCompleted)
}

func (s *Store) latest(ctx context.Context, provider string, statuses ...types.JobStatus) (*types.SyncJob, error) {
	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*types.SyncJob
	for _, j := range s.jobs {
		if j.TenantID != tenantID || j.Provider != provider {
			continue
		}
		for _, st := range statuses {
			if j.Status == st {
				matches = append(matches, j)
				break
			}
		}
	}

	if len(matches) == 0 {
		return nil, storage.ErrNotFound
	}
	newestFirst(matches)

	return copyJob(matches[0]), nil
}

func (s *Store) TransitionJob(ctx context.Context, id string, from, to types.JobStatus, update storage.JobUpdate) (*types.SyncJob, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.TransitionJob")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.scopedJob(tenantID, id)
	if err != nil {
		return nil, err
	}
	if j.Status != from {
		return nil, storage.ErrIllegalTransition
	}

	if to == types.JobRunning {
		for _, other := range s.jobs {
			if other.ID != j.ID && other.TenantID == j.TenantID && other.Provider == j.Provider && other.Status == types.JobRunning {
				return nil, fmt.Errorf("another job is running: %w", storage.ErrDuplicateKey)
			}
		}
	}

	now := s.now()
	j.Status = to
	j.UpdatedAt = now
	if to == types.JobRunning {
		j.StartedAt = &now
	}
	if to.Terminal() {
		j.CompletedAt = &now
	}
	if update.Progress != nil {
		j.Progress = *update.Progress
	}
	if update.ErrorMessage != nil {
		msg := *update.ErrorMessage
		j.ErrorMessage = &msg
	}
	if update.Checkpoint != nil {
		j.Checkpoint = update.Checkpoint.Clone()
	}

	return copyJob(j), nil
}

func (s *Store) UpdateJobProgress(ctx context.Context, id string, progress int, checkpoint types.Checkpoint) (*types.SyncJob, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.UpdateJobProgress")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.scopedJob(tenantID, id)
	if err != nil {
		return nil, err
	}
	if j.Status != types.JobRunning {
		return nil, storage.ErrIllegalTransition
	}

	j.Progress = progress
	j.Checkpoint = checkpoint.Clone()
	j.UpdatedAt = s.now()

	return copyJob(j), nil
}

func (s *Store) IncrementRetryCount(ctx context.Context, id string, ceiling int) (*types.SyncJob, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.IncrementRetryCount")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.scopedJob(tenantID, id)
	if err != nil {
		return nil, err
	}
	if j.RetryCount >= ceiling {
		return nil, storage.ErrRetryLimitReached
	}

	j.RetryCount++
	j.UpdatedAt = s.now()

	return copyJob(j), nil
}

func (s *Store) RequestCancellation(ctx context.Context, id string) (*types.SyncJob, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.RequestCancellation")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.scopedJob(tenantID, id)
	if err != nil {
		return nil, err
	}
	if j.Status != types.JobPending && j.Status != types.JobRunning {
		return nil, storage.ErrIllegalTransition
	}

	j.CancelRequested = true
	j.UpdatedAt = s.now()

	return copyJob(j), nil
}

func (s *Store) FailStaleJobs(ctx context.Context, before time.Time, message string) ([]*types.SyncJob, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.FailStaleJobs")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	var failed []*types.SyncJob
	for _, j := range s.jobs {
		if j.Status != types.JobRunning || !j.UpdatedAt.Before(before) {
			continue
		}

		msg := message
		j.Status = types.JobFailed
		j.ErrorMessage = &msg
		j.CompletedAt = &now
		j.UpdatedAt = now

		failed = append(failed, copyJob(j))
	}
	newestFirst(failed)

	return failed, nil
}
