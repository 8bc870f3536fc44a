// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package processor

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/internal/types"
)

const (
	DefaultStaleAfter = 15 * time.Minute

	staleJobMessage = "sync job stopped reporting progress"
)

// Reaper fails running jobs whose worker went away. A running job touches
// its row after every page, so one left untouched for staleAfter has no
// worker left to finish it and would otherwise block its provider forever.
type Reaper struct {
	storage    StaleJobStoreInterface
	staleAfter time.Duration
	now        func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Reap fails every stale job once and returns how many it failed.
func (r *Reaper) Reap(ctx context.Context) (int, error) {
	ctx, span := r.tracer.Start(ctx, "processor.Reaper.Reap")
	defer span.End()

	failed, err := r.storage.FailStaleJobs(ctx, r.now().Add(-r.staleAfter), staleJobMessage)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to reap stale jobs", goerr.V("stale_after", r.staleAfter))
	}

	for _, job := range failed {
		r.logger.Warnf("job %s of tenant %s stalled while syncing %s, marked failed", job.ID, job.TenantID, job.Provider)
		_ = r.monitor.IncSyncJobOutcome(map[string]string{"provider": job.Provider, "status": string(types.JobFailed)})
	}

	return len(failed), nil
}

// Run reaps right away and then every interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.staleAfter / 3
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.Reap(ctx); err != nil && ctx.Err() == nil {
			r.logger.Errorf("%v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func NewReaper(storage StaleJobStoreInterface, staleAfter time.Duration, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Reaper {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}

	r := new(Reaper)
	r.storage = storage
	r.staleAfter = staleAfter
	r.now = time.Now

	r.tracer = tracer
	r.monitor = monitor
	r.logger = logger

	return r
}
