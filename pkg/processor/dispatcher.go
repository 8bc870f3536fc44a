// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package processor

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/internal/types"
	"github.com/canonical/provider-sync-service/pkg/syncjobs"
)

var ErrDispatcherStopped = errors.New("dispatcher is not running")

var _ syncjobs.DispatcherInterface = (*LocalDispatcher)(nil)

// LocalDispatcher runs jobs in process with bounded concurrency. It is used
// when no message broker is configured.
type LocalDispatcher struct {
	sem *semaphore.Weighted

	mu      sync.RWMutex
	ctx     context.Context
	handler JobHandlerInterface
	wg      sync.WaitGroup

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

// Start binds the dispatcher to the handler. Jobs dispatched afterwards run
// until ctx is cancelled.
func (d *LocalDispatcher) Start(ctx context.Context, handler JobHandlerInterface) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ctx = ctx
	d.handler = handler
}

func (d *LocalDispatcher) Dispatch(ctx context.Context, job *types.SyncJob, delay time.Duration) error {
	_, span := d.tracer.Start(ctx, "processor.LocalDispatcher.Dispatch")
	defer span.End()

	d.mu.RLock()
	runCtx, handler := d.ctx, d.handler
	d.mu.RUnlock()

	if handler == nil || runCtx.Err() != nil {
		return ErrDispatcherStopped
	}

	d.wg.Add(1)
	go d.run(runCtx, handler, job.ID, delay)

	return nil
}

func (d *LocalDispatcher) run(ctx context.Context, handler JobHandlerInterface, jobID string, delay time.Duration) {
	defer d.wg.Done()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer d.sem.Release(1)

	if err := handler.ProcessJob(ctx, jobID); err != nil {
		d.logger.Errorf("job %s: %v", jobID, err)
	}
}

// Wait blocks until every dispatched job returned.
func (d *LocalDispatcher) Wait() {
	d.wg.Wait()
}

func NewLocalDispatcher(workers int, tracer tracing.TracingInterface, logger logging.LoggerInterface) *LocalDispatcher {
	d := new(LocalDispatcher)

	if workers < 1 {
		workers = 1
	}
	d.sem = semaphore.NewWeighted(int64(workers))

	d.tracer = tracer
	d.logger = logger

	return d
}
