// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package storage -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package storage -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package storage -destination ./mock_tracer.go -source=../../internal/tracing/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package storage -destination ./mock_db.go -source=../db/interfaces.go

const (
	tenantA = "0190f5a2-7a1b-7c3d-8e4f-00000000000a"
	tenantB = "0190f5a2-7a1b-7c3d-8e4f-00000000000b"
)

// recordingRunner captures the statements squirrel sends to the database.
type recordingRunner struct {
	queries []string
	args    [][]any
}

func (r *recordingRunner) record(query string, args []any) {
	r.queries = append(r.queries, query)
	r.args = append(r.args, args)
}

func (r *recordingRunner) Exec(query string, args ...any) (sql.Result, error) {
	r.record(query, args)
	return nil, sql.ErrConnDone
}

func (r *recordingRunner) Query(query string, args ...any) (*sql.Rows, error) {
	r.record(query, args)
	return nil, sql.ErrConnDone
}

func (r *recordingRunner) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	return r.Exec(query, args...)
}

func (r *recordingRunner) QueryContext(_ context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.Query(query, args...)
}

func (r *recordingRunner) QueryRowContext(_ context.Context, query string, args ...any) sq.RowScanner {
	r.record(query, args)
	return errScanner{err: sql.ErrNoRows}
}

type errScanner struct{ err error }

func (e errScanner) Scan(...any) error { return e.err }

func newTestStorage(ctrl *gomock.Controller, runner *recordingRunner) (*Storage, *MockDBClientInterface) {
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)
	mockDB := NewMockDBClientInterface(ctrl)

	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	).AnyTimes()

	if runner != nil {
		mockDB.EXPECT().Statement(gomock.Any()).Return(
			sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(runner),
		).AnyTimes()
	}

	return NewStorage(mockDB, mockTracer, mockMonitor, mockLogger), mockDB
}

func TestTenantScopedMethodsRequireTenant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// no Statement expectation: a query without tenant must never be built
	s, _ := newTestStorage(ctrl, nil)
	ctx := context.Background()

	calls := map[string]func() error{
		"AddMember":        func() error { _, err := s.AddMember(ctx, "user", types.RoleTenantUser); return err },
		"GetMembership":    func() error { _, err := s.GetMembership(ctx, "user"); return err },
		"ListMembers":      func() error { _, err := s.ListMembers(ctx); return err },
		"UpdateMemberRole": func() error { _, err := s.UpdateMemberRole(ctx, "user", types.RoleTenantAdmin); return err },
		"RemoveMember":     func() error { return s.RemoveMember(ctx, "user") },
		"UpsertConnection": func() error { _, err := s.UpsertConnection(ctx, &types.Connection{Provider: "stripe"}); return err },
		"GetConnection":    func() error { _, err := s.GetConnection(ctx, "stripe"); return err },
		"ListConnections":  func() error { _, err := s.ListConnections(ctx); return err },
		"UpdateConnectionTokens": func() error {
			_, err := s.UpdateConnectionTokens(ctx, "stripe", 1, TokenUpdate{AccessToken: "x"})
			return err
		},
		"UpdateConnectionStatus": func() error {
			_, err := s.UpdateConnectionStatus(ctx, "stripe", types.ConnectionError, nil)
			return err
		},
		"DisconnectConnection": func() error { _, err := s.DisconnectConnection(ctx, "stripe"); return err },
		"CreateJob":            func() error { _, err := s.CreateJob(ctx, &types.SyncJob{Provider: "stripe"}); return err },
		"GetJob":               func() error { _, err := s.GetJob(ctx, "job"); return err },
		"ListJobs":             func() error { _, err := s.ListJobs(ctx, JobFilter{}); return err },
		"FindActiveJob":        func() error { _, err := s.FindActiveJob(ctx, "stripe"); return err },
		"LatestCompletedJob":   func() error { _, err := s.LatestCompletedJob(ctx, "stripe"); return err },
		"TransitionJob": func() error {
			_, err := s.TransitionJob(ctx, "job", types.JobPending, types.JobRunning, JobUpdate{})
			return err
		},
		"UpdateJobProgress": func() error {
			_, err := s.UpdateJobProgress(ctx, "job", 10, types.Checkpoint{})
			return err
		},
		"IncrementRetryCount": func() error { _, err := s.IncrementRetryCount(ctx, "job", 3); return err },
		"RequestCancellation": func() error { _, err := s.RequestCancellation(ctx, "job"); return err },
		"UpsertCustomers":     func() error { return s.UpsertCustomers(ctx, []*types.SyncedCustomer{{}}) },
		"UpsertSubscriptions": func() error { return s.UpsertSubscriptions(ctx, []*types.SyncedSubscription{{}}) },
		"UpsertPayments":      func() error { return s.UpsertPayments(ctx, []*types.SyncedPayment{{}}) },
		"ListCustomers":       func() error { _, err := s.ListCustomers(ctx, "", 0, 0); return err },
		"ListSubscriptions":   func() error { _, err := s.ListSubscriptions(ctx, "", 0, 0); return err },
		"ListPayments":        func() error { _, err := s.ListPayments(ctx, "", 0, 0); return err },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			if err := call(); !errors.Is(err, ErrTenantRequired) {
				t.Errorf("expected ErrTenantRequired, got %v", err)
			}
		})
	}
}

func TestQueriesFilterByActiveTenant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	runner := new(recordingRunner)
	s, _ := newTestStorage(ctrl, runner)
	ctx := tenancy.WithTenant(context.Background(), tenantA)

	_, _ = s.GetConnection(ctx, "stripe")
	_, _ = s.ListJobs(ctx, JobFilter{Provider: "stripe"})
	_, _ = s.ListCustomers(ctx, "", 1, 50)
	_ = s.UpsertCustomers(ctx, []*types.SyncedCustomer{{TenantID: tenantB, ProviderCustomerID: "cus_1", Provider: "stripe"}})

	if len(runner.queries) != 4 {
		t.Fatalf("expected 4 queries, got %d", len(runner.queries))
	}

	for i, q := range runner.queries {
		if !strings.Contains(q, "tenant_id") {
			t.Errorf("query %d does not filter by tenant: %s", i, q)
		}

		foundA := false
		for _, arg := range runner.args[i] {
			if arg == tenantB {
				t.Errorf("query %d carries a foreign tenant: %v", i, runner.args[i])
			}
			if arg == tenantA {
				foundA = true
			}
		}
		if !foundA {
			t.Errorf("query %d is not bound to the active tenant: %v", i, runner.args[i])
		}
	}
}

func TestGetConnectionNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, _ := newTestStorage(ctrl, new(recordingRunner))
	ctx := tenancy.WithTenant(context.Background(), tenantA)

	if _, err := s.GetConnection(ctx, "stripe"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetJobForDispatchIsUnscoped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	runner := new(recordingRunner)
	s, _ := newTestStorage(ctrl, runner)

	_, err := s.GetJobForDispatch(context.Background(), "job-1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if len(runner.queries) != 1 || strings.Contains(runner.queries[0], "tenant_id =") {
		t.Errorf("unexpected dispatch query: %v", runner.queries)
	}
}

func TestFailStaleJobsQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	runner := new(recordingRunner)
	s, _ := newTestStorage(ctrl, runner)

	before := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.FailStaleJobs(context.Background(), before, "worker stopped")
	if !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("expected the driver error, got %v", err)
	}
	if len(runner.queries) != 1 {
		t.Fatalf("expected 1 query, got %d", len(runner.queries))
	}

	q := runner.queries[0]
	for _, fragment := range []string{"UPDATE sync_jobs", "status = $", "updated_at < $", "RETURNING"} {
		if !strings.Contains(q, fragment) {
			t.Errorf("expected %q in %s", fragment, q)
		}
	}
	if strings.Contains(q, "tenant_id =") {
		t.Errorf("stale jobs are failed across tenants: %s", q)
	}

	want := []any{types.JobFailed, "worker stopped", types.JobRunning, before}
	if fmt.Sprint(runner.args[0]) != fmt.Sprint(want) {
		t.Errorf("expected args %v, got %v", want, runner.args[0])
	}
}

func TestMarshalJSONDefaultsToEmptyObject(t *testing.T) {
	var metadata map[string]any

	raw, err := marshalJSON(metadata)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != "{}" {
		t.Errorf("expected {}, got %s", raw)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want apierrors.Kind
	}{
		{err: fmt.Errorf("get: %w", ErrNotFound), want: apierrors.KindNotFound},
		{err: fmt.Errorf("insert: %w", ErrDuplicateKey), want: apierrors.KindConflict},
		{err: ErrStaleVersion, want: apierrors.KindConflict},
		{err: ErrForeignKeyViolation, want: apierrors.KindNotFound},
		{err: ErrTenantRequired, want: apierrors.KindUnauthorized},
		{err: errors.New("connection reset"), want: apierrors.KindInternal},
		{err: apierrors.Forbidden("nope"), want: apierrors.KindForbidden},
	}

	for _, tt := range tests {
		if got := apierrors.KindOf(Classify(tt.err, "connection")); got != tt.want {
			t.Fatalf("Classify(%v) kind = %v, want %v", tt.err, got, tt.want)
		}
	}

	if Classify(nil, "connection") != nil {
		t.Fatal("expected nil to stay nil")
	}
}
