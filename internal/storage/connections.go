// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/provider-sync-service/internal/types"
)

var connectionColumns = []string{
	"id", "tenant_id", "user_id", "provider", "provider_account_id",
	"access_token", "refresh_token", "token_expires_at", "status", "last_error",
	"version", "created_at", "updated_at",
}

func scanConnection(row rowScanner) (*types.Connection, error) {
	var c types.Connection
	err := row.Scan(
		&c.ID, &c.TenantID, &c.UserID, &c.Provider, &c.ProviderAccountID,
		&c.AccessToken, &c.RefreshToken, &c.TokenExpiresAt, &c.Status, &c.LastError,
		&c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertConnection creates the tenant's connection for c.Provider or replaces
// the credentials of the existing one. A provider account that already backs
// another live connection yields ErrDuplicateKey.
func (s *Storage) UpsertConnection(ctx context.Context, c *types.Connection) (*types.Connection, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpsertConnection")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	conn, err := scanConnection(
		s.db.Statement(ctx).
			Insert("connections").
			Columns(
				"id", "tenant_id", "user_id", "provider", "provider_account_id",
				"access_token", "refresh_token", "token_expires_at", "status",
			).
			Values(
				id, tenantID, c.UserID, c.Provider, c.ProviderAccountID,
				c.AccessToken, c.RefreshToken, c.TokenExpiresAt, c.Status,
			).
			Suffix(`ON CONFLICT (tenant_id, provider) DO UPDATE SET
				user_id = EXCLUDED.user_id,
				provider_account_id = EXCLUDED.provider_account_id,
				access_token = EXCLUDED.access_token,
				refresh_token = EXCLUDED.refresh_token,
				token_expires_at = EXCLUDED.token_expires_at,
				status = EXCLUDED.status,
				last_error = NULL,
				version = connections.version + 1,
				updated_at = NOW()
			RETURNING ` + columns(connectionColumns)).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, mapWriteError(err, "upsert connection")
	}

	return conn, nil
}

func (s *Storage) GetConnection(ctx context.Context, provider string) (*types.Connection, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetConnection")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	c, err := scanConnection(
		s.db.Statement(ctx).
			Select(connectionColumns...).
			From("connections").
			Where(sq.Eq{"tenant_id": tenantID, "provider": provider}).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, notFound(err, "get connection")
	}

	return c, nil
}

func (s *Storage) ListConnections(ctx context.Context) ([]*types.Connection, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListConnections")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Statement(ctx).
		Select(connectionColumns...).
		From("connections").
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("provider").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var conns []*types.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		conns = append(conns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return conns, nil
}

func (s *Storage) UpdateConnectionTokens(ctx context.Context, provider string, version int64, tokens TokenUpdate) (*types.Connection, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateConnectionTokens")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	c, err := scanConnection(
		s.db.Statement(ctx).
			Update("connections").
			Set("access_token", tokens.AccessToken).
			Set("refresh_token", tokens.RefreshToken).
			Set("token_expires_at", tokens.TokenExpiresAt).
			Set("status", types.ConnectionConnected).
			Set("last_error", nil).
			Set("version", sq.Expr("version + 1")).
			Set("updated_at", sq.Expr("NOW()")).
			Where(sq.Eq{"tenant_id": tenantID, "provider": provider, "version": version}).
			Suffix("RETURNING " + columns(connectionColumns)).
			QueryRowContext(ctx),
	)
	if err == nil {
		return c, nil
	}

	if err := notFound(err, "update connection tokens"); err != ErrNotFound {
		return nil, err
	}

	// nothing matched, tell a missing row from a lost race
	if _, err := s.GetConnection(ctx, provider); err != nil {
		return nil, err
	}

	return nil, ErrStaleVersion
}

func (s *Storage) UpdateConnectionStatus(ctx context.Context, provider string, status types.ConnectionStatus, lastError *string) (*types.Connection, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateConnectionStatus")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	c, err := scanConnection(
		s.db.Statement(ctx).
			Update("connections").
			Set("status", status).
			Set("last_error", lastError).
			Set("version", sq.Expr("version + 1")).
			Set("updated_at", sq.Expr("NOW()")).
			Where(sq.Eq{"tenant_id": tenantID, "provider": provider}).
			Suffix("RETURNING " + columns(connectionColumns)).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, notFound(err, "update connection status")
	}

	return c, nil
}

func (s *Storage) DisconnectConnection(ctx context.Context, provider string) (*types.Connection, error) {
	ctx, span := s.tracer.Start(ctx, "storage.DisconnectConnection")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	c, err := scanConnection(
		s.db.Statement(ctx).
			Update("connections").
			Set("status", types.ConnectionDisconnected).
			Set("access_token", "").
			Set("refresh_token", nil).
			Set("token_expires_at", nil).
			Set("last_error", nil).
			Set("version", sq.Expr("version + 1")).
			Set("updated_at", sq.Expr("NOW()")).
			Where(sq.Eq{"tenant_id": tenantID, "provider": provider}).
			Suffix("RETURNING " + columns(connectionColumns)).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, notFound(err, "disconnect connection")
	}

	return c, nil
}
