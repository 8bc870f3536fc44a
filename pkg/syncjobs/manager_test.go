// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package syncjobs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/storage"
	"github.com/canonical/provider-sync-service/internal/storage/memory"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package syncjobs -destination ./mock_syncjobs.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package syncjobs -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package syncjobs -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package syncjobs -destination ./mock_tracer.go -source=../../internal/tracing/interfaces.go

type harness struct {
	store      *memory.Store
	dispatcher *MockDispatcherInterface
	monitor    *MockMonitorInterface
	manager    *Manager
	tenantID   string
}

func newHarness(t *testing.T, ctrl *gomock.Controller) *harness {
	t.Helper()

	logger := logging.NewNoopLogger()

	h := new(harness)
	h.store = memory.NewStore(tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)
	h.dispatcher = NewMockDispatcherInterface(ctrl)
	h.monitor = NewMockMonitorInterface(ctrl)
	h.manager = NewManager(h.store, h.dispatcher, 3, tracing.NewNoopTracer(), h.monitor, logger)

	tenant, err := h.store.CreateTenant(context.Background(), &types.Tenant{Name: "T1", Enabled: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.tenantID = tenant.ID

	return h
}

func (h *harness) connect(t *testing.T, provider string, status types.ConnectionStatus) {
	t.Helper()

	ctx := tenancy.WithTenant(context.Background(), h.tenantID)
	_, err := h.store.UpsertConnection(ctx, &types.Connection{
		Provider:          provider,
		ProviderAccountID: "acct_" + provider,
		AccessToken:       "ciphertext",
		Status:            status,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// insert bypasses admission, used to set up a second job for the same pair.
func (h *harness) insert(t *testing.T, provider string) *types.SyncJob {
	t.Helper()

	ctx := tenancy.WithTenant(context.Background(), h.tenantID)
	job, err := h.store.CreateJob(ctx, &types.SyncJob{Provider: provider, Type: types.JobTypeFullSync})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return job
}

// drive moves a pending job through the given statuses.
func (h *harness) drive(t *testing.T, job *types.SyncJob, statuses ...types.JobStatus) *types.SyncJob {
	t.Helper()

	for _, s := range statuses {
		var err error
		job, err = h.manager.UpdateJobStatus(context.Background(), h.tenantID, job.ID, s, storage.JobUpdate{})
		if err != nil {
			t.Fatalf("moving job to %s: %v", s, err)
		}
	}
	return job
}

func expectKind(t *testing.T, err error, kind apierrors.Kind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected a %s error, got nil", kind)
	}
	if got := apierrors.KindOf(err); got != kind {
		t.Fatalf("expected a %s error, got %s: %v", kind, got, err)
	}
}

func TestCreateJob(t *testing.T) {
	tests := []struct {
		name       string
		jobType    types.JobType
		setup      func(*testing.T, *harness)
		setupMocks func(*harness)
		wantKind   *apierrors.Kind
	}{
		{
			name:     "no connection",
			jobType:  types.JobTypeFullSync,
			wantKind: kindPtr(apierrors.KindNotFound),
		},
		{
			name:    "connection in error",
			jobType: types.JobTypeFullSync,
			setup: func(t *testing.T, h *harness) {
				h.connect(t, "stripe", types.ConnectionError)
			},
			wantKind: kindPtr(apierrors.KindValidation),
		},
		{
			name:    "unknown job type",
			jobType: "nightly",
			setup: func(t *testing.T, h *harness) {
				h.connect(t, "stripe", types.ConnectionConnected)
			},
			wantKind: kindPtr(apierrors.KindValidation),
		},
		{
			name:    "another job is pending",
			jobType: types.JobTypeFullSync,
			setup: func(t *testing.T, h *harness) {
				h.connect(t, "stripe", types.ConnectionConnected)
				h.insert(t, "stripe")
			},
			wantKind: kindPtr(apierrors.KindConflict),
		},
		{
			name:    "created and dispatched",
			jobType: types.JobTypeIncrementalSync,
			setup: func(t *testing.T, h *harness) {
				h.connect(t, "stripe", types.ConnectionConnected)
			},
			setupMocks: func(h *harness) {
				h.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any(), time.Duration(0)).Return(nil)
			},
		},
		{
			name:    "dispatch failure leaves the job pending",
			jobType: types.JobTypeFullSync,
			setup: func(t *testing.T, h *harness) {
				h.connect(t, "stripe", types.ConnectionConnected)
			},
			setupMocks: func(h *harness) {
				h.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any(), time.Duration(0)).Return(errors.New("broker down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			h := newHarness(t, ctrl)
			if tt.setup != nil {
				tt.setup(t, h)
			}
			if tt.setupMocks != nil {
				tt.setupMocks(h)
			}

			job, err := h.manager.CreateJob(context.Background(), h.tenantID, tt.jobType, "stripe")
			if tt.wantKind != nil {
				expectKind(t, err, *tt.wantKind)
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if job.Status != types.JobPending || job.TenantID != h.tenantID || job.Type != tt.jobType {
				t.Fatalf("unexpected job %+v", job)
			}
		})
	}
}

func kindPtr(k apierrors.Kind) *apierrors.Kind {
	return &k
}

func TestUpdateJobStatusLegality(t *testing.T) {
	all := []types.JobStatus{types.JobPending, types.JobRunning, types.JobCompleted, types.JobFailed, types.JobCancelled}
	legal := map[[2]types.JobStatus]bool{
		{types.JobPending, types.JobRunning}:   true,
		{types.JobRunning, types.JobCompleted}: true,
		{types.JobRunning, types.JobFailed}:    true,
		{types.JobRunning, types.JobCancelled}: true,
	}
	// statuses to walk through to reach each starting point
	paths := map[types.JobStatus][]types.JobStatus{
		types.JobPending:   nil,
		types.JobRunning:   {types.JobRunning},
		types.JobCompleted: {types.JobRunning, types.JobCompleted},
		types.JobFailed:    {types.JobRunning, types.JobFailed},
		types.JobCancelled: {types.JobRunning, types.JobCancelled},
	}

	for _, from := range all {
		for _, to := range all {
			t.Run(fmt.Sprintf("%s to %s", from, to), func(t *testing.T) {
				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				h := newHarness(t, ctrl)
				h.monitor.EXPECT().IncSyncJobOutcome(gomock.Any()).Return(nil).AnyTimes()
				h.connect(t, "stripe", types.ConnectionConnected)

				job := h.drive(t, h.insert(t, "stripe"), paths[from]...)

				updated, err := h.manager.UpdateJobStatus(context.Background(), h.tenantID, job.ID, to, storage.JobUpdate{})
				if !legal[[2]types.JobStatus{from, to}] {
					expectKind(t, err, apierrors.KindInternal)
					if !errors.Is(err, storage.ErrIllegalTransition) {
						t.Fatalf("expected an illegal transition, got %v", err)
					}
					return
				}

				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if updated.Status != to {
					t.Fatalf("expected %s, got %s", to, updated.Status)
				}
			})
		}
	}
}

func TestAtMostOneRunningJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl)
	h.connect(t, "stripe", types.ConnectionConnected)
	h.monitor.EXPECT().IncSyncJobOutcome(map[string]string{"provider": "stripe", "status": "completed"}).Return(nil)

	first := h.drive(t, h.insert(t, "stripe"), types.JobRunning)
	second := h.insert(t, "stripe")

	_, err := h.manager.UpdateJobStatus(context.Background(), h.tenantID, second.ID, types.JobRunning, storage.JobUpdate{})
	expectKind(t, err, apierrors.KindConflict)

	_, err = h.manager.CreateJob(context.Background(), h.tenantID, types.JobTypeFullSync, "stripe")
	expectKind(t, err, apierrors.KindConflict)

	progress := 100
	h.drive(t, first, types.JobCompleted)

	started, err := h.manager.UpdateJobStatus(context.Background(), h.tenantID, second.ID, types.JobRunning, storage.JobUpdate{Progress: &progress})
	if err != nil || started.Status != types.JobRunning {
		t.Fatalf("expected the second job to start, got %+v, %v", started, err)
	}
}

func TestIncrementRetryCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl)
	h.connect(t, "stripe", types.ConnectionConnected)
	h.monitor.EXPECT().IncSyncJobOutcome(gomock.Any()).Return(nil)

	running := h.drive(t, h.insert(t, "stripe"), types.JobRunning)

	_, err := h.manager.IncrementRetryCount(context.Background(), h.tenantID, running.ID)
	expectKind(t, err, apierrors.KindConflict)

	failed := h.drive(t, running, types.JobFailed)

	for i := 1; i <= 3; i++ {
		job, err := h.manager.IncrementRetryCount(context.Background(), h.tenantID, failed.ID)
		if err != nil || job.RetryCount != i {
			t.Fatalf("attempt %d: unexpected result %+v, %v", i, job, err)
		}
	}

	_, err = h.manager.IncrementRetryCount(context.Background(), h.tenantID, failed.ID)
	expectKind(t, err, apierrors.KindConflict)
	if !errors.Is(err, storage.ErrRetryLimitReached) {
		t.Fatalf("expected the retry limit to be reported, got %v", err)
	}
}

func TestCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl)
	h.connect(t, "stripe", types.ConnectionConnected)
	h.monitor.EXPECT().IncSyncJobOutcome(gomock.Any()).Return(nil)

	job := h.drive(t, h.insert(t, "stripe"), types.JobRunning)

	requested, err := h.manager.IsCancellationRequested(context.Background(), h.tenantID, job.ID)
	if err != nil || requested {
		t.Fatalf("unexpected result %v, %v", requested, err)
	}

	if _, err := h.manager.RequestCancellation(context.Background(), h.tenantID, job.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	requested, err = h.manager.IsCancellationRequested(context.Background(), h.tenantID, job.ID)
	if err != nil || !requested {
		t.Fatalf("expected cancellation to be requested, got %v, %v", requested, err)
	}

	h.drive(t, job, types.JobCancelled)

	_, err = h.manager.RequestCancellation(context.Background(), h.tenantID, job.ID)
	expectKind(t, err, apierrors.KindConflict)
}

func TestCreateRetryJobResumesFromCheckpoint(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl)
	h.connect(t, "stripe", types.ConnectionConnected)
	h.monitor.EXPECT().IncSyncJobOutcome(gomock.Any()).Return(nil)

	job := h.drive(t, h.insert(t, "stripe"), types.JobRunning)

	_, err := h.manager.CreateRetryJob(context.Background(), h.tenantID, job.ID, 0)
	expectKind(t, err, apierrors.KindConflict)

	checkpoint := types.Checkpoint{}
	checkpoint.Set("customers", types.CategoryCheckpoint{Cursor: "c3", Pages: 3})
	if _, err := h.manager.UpdateProgress(context.Background(), h.tenantID, job.ID, 10, checkpoint); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h.drive(t, job, types.JobCancelled)

	h.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any(), 2*time.Minute).DoAndReturn(
		func(_ context.Context, retry *types.SyncJob, _ time.Duration) error {
			if retry.ParentJobID == nil || *retry.ParentJobID != job.ID {
				t.Fatalf("expected the retry to point at its parent, got %v", retry.ParentJobID)
			}
			return nil
		},
	)

	retry, err := h.manager.CreateRetryJob(context.Background(), h.tenantID, job.ID, 2*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retry.Status != types.JobPending || retry.Checkpoint.Category("customers").Cursor != "c3" {
		t.Fatalf("unexpected retry %+v", retry)
	}
}

func TestUpdateProgress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl)
	h.connect(t, "stripe", types.ConnectionConnected)

	job := h.insert(t, "stripe")

	_, err := h.manager.UpdateProgress(context.Background(), h.tenantID, job.ID, 10, types.Checkpoint{})
	expectKind(t, err, apierrors.KindConflict)

	job = h.drive(t, job, types.JobRunning)

	_, err = h.manager.UpdateProgress(context.Background(), h.tenantID, job.ID, 101, types.Checkpoint{})
	expectKind(t, err, apierrors.KindValidation)
}

func TestRedispatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl)
	h.connect(t, "stripe", types.ConnectionConnected)

	job := h.insert(t, "stripe")
	h.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any(), time.Duration(0)).Return(nil)

	if _, err := h.manager.Redispatch(context.Background(), h.tenantID, job.ID, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h.drive(t, job, types.JobRunning)

	_, err := h.manager.Redispatch(context.Background(), h.tenantID, job.ID, 0)
	expectKind(t, err, apierrors.KindConflict)
}

func TestJobsAreTenantScoped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, ctrl)
	h.connect(t, "stripe", types.ConnectionConnected)
	job := h.insert(t, "stripe")

	other, err := h.store.CreateTenant(context.Background(), &types.Tenant{Name: "T2", Enabled: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = h.manager.GetJob(context.Background(), other.ID, job.ID)
	expectKind(t, err, apierrors.KindNotFound)

	jobs, err := h.manager.ListJobs(context.Background(), other.ID, storage.JobFilter{})
	if err != nil || len(jobs) != 0 {
		t.Fatalf("expected no jobs for another tenant, got %d, %v", len(jobs), err)
	}

	_, err = h.manager.GetJob(context.Background(), "not-a-tenant", job.ID)
	expectKind(t, err, apierrors.KindValidation)
}
