// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/provider-sync-service/internal/types"
)

var membershipColumns = []string{"id", "tenant_id", "user_id", "role", "created_at"}

func scanMembership(row rowScanner) (*types.Membership, error) {
	var m types.Membership
	if err := row.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Storage) AddMember(ctx context.Context, userID string, role types.Role) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.AddMember")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	m, err := scanMembership(
		s.db.Statement(ctx).
			Insert("memberships").
			Columns("id", "tenant_id", "user_id", "role").
			Values(id, tenantID, userID, role).
			Suffix("RETURNING " + columns(membershipColumns)).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, mapWriteError(err, "add member")
	}

	return m, nil
}

func (s *Storage) GetMembership(ctx context.Context, userID string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetMembership")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	m, err := scanMembership(
		s.db.Statement(ctx).
			Select(membershipColumns...).
			From("memberships").
			Where(sq.Eq{"tenant_id": tenantID, "user_id": userID}).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, notFound(err, "get membership")
	}

	return m, nil
}

func (s *Storage) ListMembers(ctx context.Context) ([]*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListMembers")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Statement(ctx).
		Select(membershipColumns...).
		From("memberships").
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("created_at").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*types.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return members, nil
}

func (s *Storage) UpdateMemberRole(ctx context.Context, userID string, role types.Role) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateMemberRole")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	m, err := scanMembership(
		s.db.Statement(ctx).
			Update("memberships").
			Set("role", role).
			Where(sq.Eq{"tenant_id": tenantID, "user_id": userID}).
			Suffix("RETURNING " + columns(membershipColumns)).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, notFound(err, "update member")
	}

	return m, nil
}

func (s *Storage) RemoveMember(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoveMember")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return err
	}

	res, err := s.db.Statement(ctx).
		Delete("memberships").
		Where(sq.Eq{"tenant_id": tenantID, "user_id": userID}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
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
