// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package processor executes sync jobs: it pages through every data category
// of a provider, upserts the records and keeps a resumable checkpoint.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/storage"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/internal/types"
	"github.com/canonical/provider-sync-service/pkg/connectors"
	"github.com/canonical/provider-sync-service/pkg/installation"
	"github.com/canonical/provider-sync-service/pkg/syncjobs"
)

var _ JobHandlerInterface = (*Processor)(nil)

type Processor struct {
	jobs        syncjobs.ManagerInterface
	credentials installation.CredentialsInterface
	connectors  connectors.RegistryInterface
	storage     StorageInterface

	policy      RetryPolicy
	pageTimeout time.Duration

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// run is the mutable state of one job execution.
type run struct {
	job        *types.SyncJob
	checkpoint types.Checkpoint
	creds      *installation.Credentials
	refreshed  bool
}

// ProcessJob loads a dispatched job, scopes itself to the job's tenant and
// runs it. Jobs that are no longer pending are skipped, a redelivered
// message must not run a job twice.
func (p *Processor) ProcessJob(ctx context.Context, jobID string) error {
	ctx, span := p.tracer.Start(ctx, "processor.Processor.ProcessJob")
	defer span.End()

	job, err := p.storage.GetJobForDispatch(ctx, jobID)
	if errors.Is(err, storage.ErrNotFound) {
		p.logger.Warnf("dropping dispatch of unknown job %s", jobID)
		return nil
	}
	if err != nil {
		return goerr.Wrap(err, "failed to load dispatched job", goerr.V("job_id", jobID))
	}

	if job.Status != types.JobPending {
		p.logger.Debugf("job %s is %s, skipping", job.ID, job.Status)
		return nil
	}

	return p.Process(tenancy.WithTenant(ctx, job.TenantID), job)
}

// Process runs a pending job to a terminal state.
func (p *Processor) Process(ctx context.Context, job *types.SyncJob) error {
	ctx, span := p.tracer.Start(ctx, "processor.Processor.Process")
	defer span.End()

	started, err := p.jobs.UpdateJobStatus(ctx, job.TenantID, job.ID, types.JobRunning, storage.JobUpdate{})
	switch {
	case errors.Is(err, storage.ErrDuplicateKey):
		delay := p.policy.Backoff(1)
		p.logger.Infof("another %s job of tenant %s is running, job %s waits %s", job.Provider, job.TenantID, job.ID, delay)
		if _, err := p.jobs.Redispatch(ctx, job.TenantID, job.ID, delay); err != nil {
			return goerr.Wrap(err, "failed to postpone job", goerr.V("job_id", job.ID))
		}
		return nil
	case errors.Is(err, storage.ErrIllegalTransition):
		p.logger.Debugf("job %s was picked up elsewhere", job.ID)
		return nil
	case err != nil:
		return goerr.Wrap(err, "failed to start job", goerr.V("job_id", job.ID))
	}

	r := &run{job: started, checkpoint: started.Checkpoint.Clone()}
	r.checkpoint.FailedCategory = ""

	if started.CancelRequested {
		return p.cancel(ctx, r)
	}

	if started.Type == types.JobTypeIncrementalSync && len(r.checkpoint.Categories) == 0 {
		if err := p.seed(ctx, r); err != nil {
			return p.fail(ctx, r, "", 0, err)
		}
	}

	connector, err := p.connectors.Get(started.Provider)
	if err != nil {
		return p.fail(ctx, r, "", 0, err)
	}

	r.creds, err = p.credentials.AccessToken(ctx, started.TenantID, started.Provider)
	if err != nil {
		return p.fail(ctx, r, "", 0, err)
	}

	p.logger.Infof("job %s started syncing %s for tenant %s", started.ID, started.Provider, started.TenantID)

	for _, category := range connectors.Categories {
		done, err := p.syncCategory(ctx, r, connector, category)
		if err != nil {
			return err
		}
		if !done {
			return nil
		}
	}

	return p.complete(ctx, r)
}

// syncCategory pages through one category. It returns false when the job
// reached a terminal state before the category was exhausted.
func (p *Processor) syncCategory(ctx context.Context, r *run, connector connectors.ConnectorInterface, category connectors.Category) (bool, error) {
	cp := r.checkpoint.Category(string(category))

	for !cp.Done {
		stop, err := p.cancelled(ctx, r)
		if err != nil {
			return false, err
		}
		if stop {
			return false, p.cancel(ctx, r)
		}

		page, err := p.fetch(ctx, r, connector, category, cp.Cursor)
		if err != nil {
			if ctx.Err() != nil {
				return false, p.cancel(ctx, r)
			}
			return false, p.fail(ctx, r, category, cp.Pages+1, err)
		}

		if err := p.store(ctx, r, category, page); err != nil {
			return false, p.fail(ctx, r, category, cp.Pages+1, err)
		}

		cp.Pages++
		cp.Records += page.Len()
		if page.NextCursor != "" {
			cp.Cursor = page.NextCursor
		}
		cp.Done = !page.HasMore
		r.checkpoint.Set(string(category), cp)

		if _, err := p.jobs.UpdateProgress(ctx, r.job.TenantID, r.job.ID, progress(r.checkpoint), r.checkpoint); err != nil {
			return false, goerr.Wrap(err, "failed to persist checkpoint", goerr.V("job_id", r.job.ID), goerr.V("category", category))
		}
	}

	return true, nil
}

// fetch pulls one page. A rejected access token is refreshed once per job
// and the page is tried again.
func (p *Processor) fetch(ctx context.Context, r *run, connector connectors.ConnectorInterface, category connectors.Category, cursor string) (*connectors.Page, error) {
	page, err := p.pull(ctx, r, connector, category, cursor)
	if err == nil || r.refreshed || !errors.Is(err, connectors.ErrAccessRejected) {
		return page, err
	}

	r.refreshed = true
	p.logger.Infof("%s rejected the access token during job %s, refreshing", r.job.Provider, r.job.ID)

	creds, err := p.credentials.RefreshConnection(ctx, r.job.TenantID, r.job.Provider)
	if err != nil {
		return nil, err
	}
	r.creds = creds

	return p.pull(ctx, r, connector, category, cursor)
}

func (p *Processor) pull(ctx context.Context, r *run, connector connectors.ConnectorInterface, category connectors.Category, cursor string) (*connectors.Page, error) {
	ctx, span := p.tracer.Start(ctx, "processor.Processor.pull")
	defer span.End()

	pageCtx, cancel := context.WithTimeout(ctx, p.pageTimeout)
	defer cancel()

	start := time.Now()
	page, err := connectors.Pull(pageCtx, connector, category, r.creds.AccessToken, cursor)

	p.monitor.SetSyncPageDuration(
		map[string]string{"provider": r.job.Provider, "category": string(category)},
		time.Since(start).Seconds(),
	)

	if err != nil && ctx.Err() == nil && errors.Is(pageCtx.Err(), context.DeadlineExceeded) && !apierrors.Is(err, apierrors.KindProvider) {
		return nil, apierrors.Provider(fmt.Sprintf("%s page timed out after %s", category, p.pageTimeout), true, err)
	}

	return page, err
}

func (p *Processor) store(ctx context.Context, r *run, category connectors.Category, page *connectors.Page) error {
	now := time.Now().UTC()
	userID, provider := r.creds.UserID, r.job.Provider

	var err error
	switch category {
	case connectors.CategoryCustomers:
		records := make([]*types.SyncedCustomer, 0, len(page.Customers))
		for _, c := range page.Customers {
			records = append(records, &types.SyncedCustomer{
				UserID:             userID,
				Provider:           provider,
				ProviderCustomerID: c.ID,
				Email:              c.Email,
				Name:               c.Name,
				Phone:              c.Phone,
				Metadata:           c.Metadata,
				SyncedAt:           now,
			})
		}
		err = p.storage.UpsertCustomers(ctx, records)
	case connectors.CategorySubscriptions:
		records := make([]*types.SyncedSubscription, 0, len(page.Subscriptions))
		for _, s := range page.Subscriptions {
			records = append(records, &types.SyncedSubscription{
				UserID:                 userID,
				Provider:               provider,
				ProviderSubscriptionID: s.ID,
				ProviderCustomerID:     s.CustomerID,
				Status:                 s.Status,
				Plan:                   s.Plan,
				Amount:                 s.Amount,
				Currency:               s.Currency,
				CurrentPeriodEnd:       s.CurrentPeriodEnd,
				Metadata:               s.Metadata,
				SyncedAt:               now,
			})
		}
		err = p.storage.UpsertSubscriptions(ctx, records)
	case connectors.CategoryPayments:
		records := make([]*types.SyncedPayment, 0, len(page.Payments))
		for _, py := range page.Payments {
			records = append(records, &types.SyncedPayment{
				UserID:             userID,
				Provider:           provider,
				ProviderPaymentID:  py.ID,
				ProviderCustomerID: py.CustomerID,
				Amount:             py.Amount,
				Currency:           py.Currency,
				Status:             py.Status,
				PaidAt:             py.PaidAt,
				Metadata:           py.Metadata,
				SyncedAt:           now,
			})
		}
		err = p.storage.UpsertPayments(ctx, records)
	}

	if err != nil {
		return storage.Classify(err, fmt.Sprintf("synced %s", category))
	}
	return nil
}

// seed starts an incremental job from the cursors of the latest completed job.
func (p *Processor) seed(ctx context.Context, r *run) error {
	last, err := p.storage.LatestCompletedJob(ctx, r.job.Provider)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storage.Classify(err, "sync job")
	}

	for name, cc := range last.Checkpoint.Categories {
		r.checkpoint.Set(name, types.CategoryCheckpoint{Cursor: cc.Cursor})
	}

	p.logger.Debugf("job %s resumes from the cursors of job %s", r.job.ID, last.ID)

	return nil
}

func (p *Processor) cancelled(ctx context.Context, r *run) (bool, error) {
	if ctx.Err() != nil {
		return true, nil
	}

	requested, err := p.jobs.IsCancellationRequested(ctx, r.job.TenantID, r.job.ID)
	if err != nil {
		return false, goerr.Wrap(err, "failed to check for cancellation", goerr.V("job_id", r.job.ID))
	}
	return requested, nil
}

func (p *Processor) complete(ctx context.Context, r *run) error {
	done := 100

	if _, err := p.jobs.UpdateJobStatus(ctx, r.job.TenantID, r.job.ID, types.JobCompleted, storage.JobUpdate{
		Progress:   &done,
		Checkpoint: &r.checkpoint,
	}); err != nil {
		return goerr.Wrap(err, "failed to complete job", goerr.V("job_id", r.job.ID))
	}

	p.logger.Infof("job %s completed", r.job.ID)

	return nil
}

// cancel stops the job keeping its checkpoint, a retry resumes from there.
func (p *Processor) cancel(ctx context.Context, r *run) error {
	ctx = context.WithoutCancel(ctx)
	current := progress(r.checkpoint)

	if _, err := p.jobs.UpdateJobStatus(ctx, r.job.TenantID, r.job.ID, types.JobCancelled, storage.JobUpdate{
		Progress:   &current,
		Checkpoint: &r.checkpoint,
	}); err != nil {
		return goerr.Wrap(err, "failed to cancel job", goerr.V("job_id", r.job.ID))
	}

	p.logger.Infof("job %s cancelled at %d%%", r.job.ID, current)

	return nil
}

// fail records cause on the job. Transient causes get a successor job as
// long as the retry ceiling allows it.
func (p *Processor) fail(ctx context.Context, r *run, category connectors.Category, page int, cause error) error {
	ctx = context.WithoutCancel(ctx)

	msg := fmt.Sprintf("%s page %d: %s", category, page, apierrors.PublicMessage(cause, false))
	if category == "" {
		msg = "setup: " + apierrors.PublicMessage(cause, false)
	}
	r.checkpoint.FailedCategory = string(category)
	current := progress(r.checkpoint)

	p.logger.Errorf("job %s failed, %s: %v", r.job.ID, msg, cause)

	if _, err := p.jobs.UpdateJobStatus(ctx, r.job.TenantID, r.job.ID, types.JobFailed, storage.JobUpdate{
		Progress:     &current,
		ErrorMessage: &msg,
		Checkpoint:   &r.checkpoint,
	}); err != nil {
		return goerr.Wrap(err, "failed to record job failure", goerr.V("job_id", r.job.ID))
	}

	if !apierrors.IsTransient(cause) {
		return nil
	}

	return p.retry(ctx, r)
}

func (p *Processor) retry(ctx context.Context, r *run) error {
	failed, err := p.jobs.IncrementRetryCount(ctx, r.job.TenantID, r.job.ID)
	if errors.Is(err, storage.ErrRetryLimitReached) {
		p.logger.Warnf("job %s used up its retries and stays failed", r.job.ID)
		return nil
	}
	if err != nil {
		return goerr.Wrap(err, "failed to reserve a retry", goerr.V("job_id", r.job.ID))
	}

	delay := p.policy.Backoff(failed.RetryCount)

	next, err := p.jobs.CreateRetryJob(ctx, r.job.TenantID, r.job.ID, delay)
	if err != nil {
		p.logger.Warnf("no retry scheduled for job %s: %v", r.job.ID, err)
		return nil
	}

	p.logger.Infof("job %s will be retried as %s in %s (attempt %d)", r.job.ID, next.ID, delay, failed.RetryCount)

	return nil
}

// progress weighs every category equally. A category still in flight counts
// pages/(pages+1) of its share, the job only reports 100 once completed.
func progress(cp types.Checkpoint) int {
	var total float64
	for _, c := range connectors.Categories {
		cc := cp.Category(string(c))
		switch {
		case cc.Done:
			total++
		case cc.Pages > 0:
			total += float64(cc.Pages) / float64(cc.Pages+1)
		}
	}

	return min(int(total*100/float64(len(connectors.Categories))), 99)
}

func NewProcessor(
	jobs syncjobs.ManagerInterface,
	credentials installation.CredentialsInterface,
	registry connectors.RegistryInterface,
	s StorageInterface,
	policy RetryPolicy,
	pageTimeout time.Duration,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Processor {
	p := new(Processor)

	p.jobs = jobs
	p.credentials = credentials
	p.connectors = registry
	p.storage = s

	p.policy = policy
	p.pageTimeout = pageTimeout
	if p.pageTimeout <= 0 {
		p.pageTimeout = DefaultPageTimeout
	}

	p.tracer = tracer
	p.monitor = monitor
	p.logger = logger

	return p
}
