// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/canonical/provider-sync-service/internal/db"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/internal/types"
)

var _ StorageInterface = (*Storage)(nil)

type Storage struct {
	db db.DBClientInterface

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

type rowScanner interface {
	Scan(dest ...any) error
}

func NewStorage(c db.DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}

// scope returns the active tenant, every tenant scoped method calls it
// before building a query.
func scope(ctx context.Context) (string, error) {
	tenantID, ok := tenancy.FromContext(ctx)
	if !ok {
		return "", ErrTenantRequired
	}
	return tenantID, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, errNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate ID: %w", err)
	}
	return id.String(), nil
}

var tenantColumns = []string{"id", "name", "created_at", "enabled"}

func scanTenant(row rowScanner) (*types.Tenant, error) {
	var t types.Tenant
	if err := row.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.Enabled); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Storage) CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateTenant")
	defer span.End()

	id, err := newID()
	if err != nil {
		return nil, err
	}

	created, err := scanTenant(
		s.db.Statement(ctx).
			Insert("tenants").
			Columns("id", "name", "enabled").
			Values(id, t.Name, t.Enabled).
			Suffix("RETURNING " + columns(tenantColumns)).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert tenant: %w", err)
	}

	return created, nil
}

func (s *Storage) GetTenantByID(ctx context.Context, id string) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetTenantByID")
	defer span.End()

	t, err := scanTenant(
		s.db.Statement(ctx).
			Select(tenantColumns...).
			From("tenants").
			Where(sq.Eq{"id": id}).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, notFound(err, "get tenant")
	}

	return t, nil
}

func (s *Storage) ListTenants(ctx context.Context) ([]*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListTenants")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select(tenantColumns...).
		From("tenants").
		OrderBy("created_at").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*types.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tenant rows: %w", err)
	}

	return tenants, nil
}

// ListTenantsByUserID returns the tenants a user is a member of. Only tenant
// root rows leave this query.
func (s *Storage) ListTenantsByUserID(ctx context.Context, userID string) ([]*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListTenantsByUserID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("t.id", "t.name", "t.created_at", "t.enabled").
		From("tenants t").
		Join("memberships m ON t.id = m.tenant_id").
		Where(sq.Eq{"m.user_id": userID, "t.enabled": true}).
		OrderBy("t.created_at").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*types.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return tenants, nil
}

func (s *Storage) UpdateTenantName(ctx context.Context, id, name string) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateTenantName")
	defer span.End()

	t, err := scanTenant(
		s.db.Statement(ctx).
			Update("tenants").
			Set("name", name).
			Where(sq.Eq{"id": id}).
			Suffix("RETURNING " + columns(tenantColumns)).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, notFound(err, "update tenant")
	}

	return t, nil
}

// DeleteTenant removes the tenant, memberships, connections, jobs and synced
// records go with it through ON DELETE CASCADE.
func (s *Storage) DeleteTenant(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteTenant")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("tenants").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
