// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package processor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/storage"
	"github.com/canonical/provider-sync-service/internal/storage/memory"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/internal/types"
	"github.com/canonical/provider-sync-service/pkg/connectors"
	"github.com/canonical/provider-sync-service/pkg/installation"
	"github.com/canonical/provider-sync-service/pkg/syncjobs"
)

//go:generate mockgen -build_flags=--mod=mod -package processor -destination ./mock_processor.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package processor -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go

var policy = RetryPolicy{Base: 30 * time.Second, Max: 15 * time.Minute}

type harness struct {
	store       *memory.Store
	manager     *syncjobs.Manager
	dispatcher  *syncjobs.MockDispatcherInterface
	credentials *installation.MockCredentialsInterface
	connector   *connectors.MockConnectorInterface
	processor   *Processor
	ctx         context.Context
}

func newHarness(t *testing.T, ctrl *gomock.Controller, monitor monitoring.MonitorInterface) *harness {
	t.Helper()

	logger := logging.NewNoopLogger()
	tracer := tracing.NewNoopTracer()
	if monitor == nil {
		monitor = monitoring.NewNoopMonitor("test", logger)
	}

	h := new(harness)
	h.store = memory.NewStore(tracer, monitor, logger)
	h.dispatcher = syncjobs.NewMockDispatcherInterface(ctrl)
	h.credentials = installation.NewMockCredentialsInterface(ctrl)
	h.connector = connectors.NewMockConnectorInterface(ctrl)
	h.connector.EXPECT().Name().Return("stripe").AnyTimes()

	registry, err := connectors.NewRegistry(h.connector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h.manager = syncjobs.NewManager(h.store, h.dispatcher, 3, tracer, monitor, logger)
	h.processor = NewProcessor(h.manager, h.credentials, registry, h.store, policy, time.Second, tracer, monitor, logger)

	tenant, err := h.store.CreateTenant(context.Background(), &types.Tenant{Name: "T1", Enabled: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.ctx = tenancy.WithTenant(context.Background(), tenant.ID)

	if _, err := h.store.UpsertConnection(h.ctx, &types.Connection{
		Provider:          "stripe",
		ProviderAccountID: "acct_1",
		AccessToken:       "ciphertext",
		Status:            types.ConnectionConnected,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return h
}

func (h *harness) job(t *testing.T, retryCount int) *types.SyncJob {
	t.Helper()

	job, err := h.store.CreateJob(h.ctx, &types.SyncJob{Provider: "stripe", Type: types.JobTypeFullSync, RetryCount: retryCount})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return job
}

func (h *harness) reload(t *testing.T, id string) *types.SyncJob {
	t.Helper()

	job, err := h.store.GetJob(h.ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return job
}

func (h *harness) token(accessToken string) {
	h.credentials.EXPECT().AccessToken(gomock.Any(), gomock.Any(), "stripe").
		Return(&installation.Credentials{AccessToken: accessToken, UserID: "user-1", Version: 1}, nil)
}

func (h *harness) empty(categories ...connectors.Category) {
	for _, c := range categories {
		switch c {
		case connectors.CategoryCustomers:
			h.connector.EXPECT().PullCustomers(gomock.Any(), gomock.Any(), gomock.Any()).Return(&connectors.Page{}, nil)
		case connectors.CategorySubscriptions:
			h.connector.EXPECT().PullSubscriptions(gomock.Any(), gomock.Any(), gomock.Any()).Return(&connectors.Page{}, nil)
		case connectors.CategoryPayments:
			h.connector.EXPECT().PullPayments(gomock.Any(), gomock.Any(), gomock.Any()).Return(&connectors.Page{}, nil)
		}
	}
}

// pageOf maps the fake cursor "c<n>" to the page that follows it.
func pageOf(cursor string) int {
	if cursor == "" {
		return 1
	}
	n, _ := strconv.Atoi(strings.TrimPrefix(cursor, "c"))
	return n + 1
}

func customersPage(n, last int) *connectors.Page {
	return &connectors.Page{
		Customers:  []connectors.CustomerRecord{{ID: fmt.Sprintf("cus_%d", n), Email: fmt.Sprintf("c%d@example.com", n)}},
		NextCursor: fmt.Sprintf("c%d", n),
		HasMore:    n < last,
	}
}

func TestCancelledJobResumesFromItsCursor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl, nil)
	job := h.job(t, 0)

	h.token("at")
	h.connector.EXPECT().PullCustomers(gomock.Any(), "at", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, cursor string) (*connectors.Page, error) {
			n := pageOf(cursor)
			if n == 3 {
				if _, err := h.manager.RequestCancellation(h.ctx, job.TenantID, job.ID); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
			return customersPage(n, 10), nil
		},
	).Times(3)

	if err := h.processor.Process(h.ctx, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled := h.reload(t, job.ID)
	customers := cancelled.Checkpoint.Category("customers")
	if cancelled.Status != types.JobCancelled || customers.Cursor != "c3" || customers.Pages != 3 || customers.Done {
		t.Fatalf("unexpected cancelled job %+v", cancelled)
	}

	h.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any(), time.Duration(0)).Return(nil)
	retry, err := h.manager.CreateRetryJob(h.ctx, job.TenantID, job.ID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var cursors []string
	h.token("at")
	h.connector.EXPECT().PullCustomers(gomock.Any(), "at", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, cursor string) (*connectors.Page, error) {
			cursors = append(cursors, cursor)
			return customersPage(pageOf(cursor), 10), nil
		},
	).Times(7)
	h.empty(connectors.CategorySubscriptions, connectors.CategoryPayments)

	if err := h.processor.ProcessJob(context.Background(), retry.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cursors[0] != "c3" {
		t.Fatalf("expected the retry to resume from c3, started from %q", cursors[0])
	}

	completed := h.reload(t, retry.ID)
	if completed.Status != types.JobCompleted || completed.Progress != 100 {
		t.Fatalf("unexpected completed job %+v", completed)
	}

	synced, err := h.store.ListCustomers(h.ctx, "stripe", 1, 50)
	if err != nil || len(synced) != 10 {
		t.Fatalf("expected 10 synced customers, got %d, %v", len(synced), err)
	}
	if synced[0].UserID != "user-1" || synced[0].TenantID != job.TenantID {
		t.Fatalf("unexpected synced customer %+v", synced[0])
	}
}

func TestFailure(t *testing.T) {
	tests := []struct {
		name        string
		retryCount  int
		err         error
		wantRetry   bool
		wantMessage string
	}{
		{
			name:        "transient failure schedules a successor",
			err:         connectors.ProviderError(503, "stripe list subscriptions", errors.New("unavailable")),
			wantRetry:   true,
			wantMessage: "subscriptions page 1: stripe list subscriptions: provider unavailable (status 503)",
		},
		{
			name:        "non transient failure is final",
			err:         connectors.ProviderError(400, "stripe list subscriptions", errors.New("bad request")),
			wantMessage: "subscriptions page 1: stripe list subscriptions: provider request failed (status 400)",
		},
		{
			name:        "retry ceiling reached",
			retryCount:  3,
			err:         connectors.ProviderError(429, "stripe list subscriptions", errors.New("slow down")),
			wantMessage: "subscriptions page 1: stripe list subscriptions: provider unavailable (status 429)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			h := newHarness(t, ctrl, nil)
			job := h.job(t, tt.retryCount)

			h.token("at")
			h.empty(connectors.CategoryCustomers)
			h.connector.EXPECT().PullSubscriptions(gomock.Any(), "at", "").Return(nil, tt.err)

			if tt.wantRetry {
				h.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any(), policy.Backoff(1)).Return(nil)
			}

			if err := h.processor.Process(h.ctx, job); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			failed := h.reload(t, job.ID)
			if failed.Status != types.JobFailed || failed.ErrorMessage == nil || *failed.ErrorMessage != tt.wantMessage {
				t.Fatalf("unexpected failed job %+v (message %v)", failed, failed.ErrorMessage)
			}
			if failed.Checkpoint.FailedCategory != "subscriptions" || !failed.Checkpoint.Category("customers").Done {
				t.Fatalf("unexpected checkpoint %+v", failed.Checkpoint)
			}

			jobs, err := h.store.ListJobs(h.ctx, storage.JobFilter{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !tt.wantRetry {
				if len(jobs) != 1 {
					t.Fatalf("expected no successor, got %d jobs", len(jobs))
				}
				return
			}

			if len(jobs) != 2 || jobs[0].ParentJobID == nil || *jobs[0].ParentJobID != job.ID || jobs[0].RetryCount != 1 {
				t.Fatalf("unexpected successor %+v", jobs[0])
			}
		})
	}
}

func TestRejectedTokenIsRefreshedOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl, nil)
	job := h.job(t, 0)

	rejected := connectors.ProviderError(401, "stripe list customers", errors.New("expired"))

	h.token("stale")
	gomock.InOrder(
		h.connector.EXPECT().PullCustomers(gomock.Any(), "stale", "").Return(nil, rejected),
		h.credentials.EXPECT().RefreshConnection(gomock.Any(), job.TenantID, "stripe").
			Return(&installation.Credentials{AccessToken: "fresh", UserID: "user-1", Version: 2}, nil),
		h.connector.EXPECT().PullCustomers(gomock.Any(), "fresh", "").Return(customersPage(1, 1), nil),
	)
	h.connector.EXPECT().PullSubscriptions(gomock.Any(), "fresh", "").Return(&connectors.Page{}, nil)
	h.connector.EXPECT().PullPayments(gomock.Any(), "fresh", "").Return(nil, rejected)

	if err := h.processor.Process(h.ctx, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	failed := h.reload(t, job.ID)
	if failed.Status != types.JobFailed || !strings.HasPrefix(*failed.ErrorMessage, "payments page 1: ") {
		t.Fatalf("expected a second rejection to fail the job, got %+v", failed)
	}
}

func TestMissingCredentialsFailTheJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl, nil)
	job := h.job(t, 0)

	h.credentials.EXPECT().AccessToken(gomock.Any(), job.TenantID, "stripe").
		Return(nil, errors.New("connection gone"))

	if err := h.processor.Process(h.ctx, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	failed := h.reload(t, job.ID)
	if failed.Status != types.JobFailed || *failed.ErrorMessage != "setup: internal server error" {
		t.Fatalf("unexpected job %+v", failed)
	}
}

func TestSecondJobWaitsForTheRunningOne(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl, nil)
	first := h.job(t, 0)
	second := h.job(t, 0)

	if _, err := h.manager.UpdateJobStatus(h.ctx, first.TenantID, first.ID, types.JobRunning, storage.JobUpdate{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any(), policy.Backoff(1)).Return(nil)

	if err := h.processor.Process(h.ctx, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := h.reload(t, second.ID); got.Status != types.JobPending {
		t.Fatalf("expected the second job to stay pending, got %s", got.Status)
	}
}

func TestProcessJobSkips(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*MockStorageInterface)
	}{
		{
			name: "unknown job",
			setupMocks: func(s *MockStorageInterface) {
				s.EXPECT().GetJobForDispatch(gomock.Any(), "job-1").Return(nil, storage.ErrNotFound)
			},
		},
		{
			name: "job already finished",
			setupMocks: func(s *MockStorageInterface) {
				s.EXPECT().GetJobForDispatch(gomock.Any(), "job-1").Return(&types.SyncJob{ID: "job-1", Status: types.JobCompleted}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s := NewMockStorageInterface(ctrl)
			tt.setupMocks(s)

			logger := logging.NewNoopLogger()
			p := NewProcessor(
				syncjobs.NewMockManagerInterface(ctrl),
				installation.NewMockCredentialsInterface(ctrl),
				connectors.NewMockRegistryInterface(ctrl),
				s,
				policy,
				0,
				tracing.NewNoopTracer(),
				monitoring.NewNoopMonitor("test", logger),
				logger,
			)

			if err := p.ProcessJob(context.Background(), "job-1"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPageDurationIsRecorded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	monitor := NewMockMonitorInterface(ctrl)
	monitor.EXPECT().IncSyncJobOutcome(map[string]string{"provider": "stripe", "status": "completed"}).Return(nil)
	for _, c := range connectors.Categories {
		monitor.EXPECT().SetSyncPageDuration(map[string]string{"provider": "stripe", "category": string(c)}, gomock.Any()).Return(nil)
	}

	h := newHarness(t, ctrl, monitor)
	job := h.job(t, 0)

	h.token("at")
	h.empty(connectors.Categories...)

	if err := h.processor.Process(h.ctx, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProgress(t *testing.T) {
	cp := types.Checkpoint{}
	if got := progress(cp); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}

	cp.Set("customers", types.CategoryCheckpoint{Done: true})
	cp.Set("subscriptions", types.CategoryCheckpoint{Pages: 1})
	if got := progress(cp); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}

	cp.Set("subscriptions", types.CategoryCheckpoint{Done: true})
	cp.Set("payments", types.CategoryCheckpoint{Done: true})
	if got := progress(cp); got != 99 {
		t.Fatalf("expected progress to stay below 100 until completion, got %d", got)
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		retry int
		want  time.Duration
	}{
		{retry: 0, want: 30 * time.Second},
		{retry: 1, want: 30 * time.Second},
		{retry: 2, want: time.Minute},
		{retry: 3, want: 2 * time.Minute},
		{retry: 10, want: 15 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("retry %d", tt.retry), func(t *testing.T) {
			if got := policy.Backoff(tt.retry); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}

	if got := (RetryPolicy{}).Backoff(1); got != DefaultBackoffBase {
		t.Fatalf("expected the default base, got %s", got)
	}

	if got := (RetryPolicy{Base: time.Minute, Max: 30 * time.Second}).Backoff(1); got != 30*time.Second {
		t.Fatalf("expected the ceiling to cap the first delay, got %s", got)
	}
}
