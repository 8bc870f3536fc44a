// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/canonical/provider-sync-service/internal/storage"
	"github.com/canonical/provider-sync-service/internal/types"
)

func (s *Store) findMembership(tenantID, userID string) *types.Membership {
	for _, m := range s.memberships {
		if m.TenantID == tenantID && m.UserID == userID {
			return m
		}
	}
	return nil
}

func (s *Store) AddMember(ctx context.Context, userID string, role types.Role) (*types.Membership, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.AddMember")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[tenantID]; !ok {
		return nil, fmt.Errorf("add member: %w", storage.ErrForeignKeyViolation)
	}
	if s.findMembership(tenantID, userID) != nil {
		return nil, fmt.Errorf("add member: %w", storage.ErrDuplicateKey)
	}

	m := &types.Membership{
		ID:        newID(),
		TenantID:  tenantID,
		UserID:    userID,
		Role:      role,
		CreatedAt: s.now(),
	}
	s.memberships[m.ID] = m

	out := *m
	return &out, nil
}

func (s *Store) GetMembership(ctx context.Context, userID string) (*types.Membership, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.GetMembership")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	m := s.findMembership(tenantID, userID)
	if m == nil {
		return nil, storage.ErrNotFound
	}

	out := *m
	return &out, nil
}

func (s *Store) ListMembers(ctx context.Context) ([]*types.Membership, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.ListMembers")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.Membership
	for _, m := range s.memberships {
		if m.TenantID == tenantID {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (s *Store) UpdateMemberRole(ctx context.Context, userID string, role types.Role) (*types.Membership, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.UpdateMemberRole")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.findMembership(tenantID, userID)
	if m == nil {
		return nil, storage.ErrNotFound
	}
	m.Role = role

	out := *m
	return &out, nil
}

func (s *Store) RemoveMember(ctx context.Context, userID string) error {
	_, span := s.tracer.Start(ctx, "memory.Store.RemoveMember")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.findMembership(tenantID, userID)
	if m == nil {
		return storage.ErrNotFound
	}
	delete(s.memberships, m.ID)

	return nil
}
