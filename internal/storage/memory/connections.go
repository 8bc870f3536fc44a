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

func (s *Store) findConnection(tenantID, provider string) *types.Connection {
	for _, c := range s.connections {
		if c.TenantID == tenantID && c.Provider == provider {
			return c
		}
	}
	return nil
}

func copyConnection(c *types.Connection) *types.Connection {
	out := *c
	if c.RefreshToken != nil {
		v := *c.RefreshToken
		out.RefreshToken = &v
	}
	if c.TokenExpiresAt != nil {
		v := *c.TokenExpiresAt
		out.TokenExpiresAt = &v
	}
	if c.LastError != nil {
		v := *c.LastError
		out.LastError = &v
	}
	return &out
}

func (s *Store) UpsertConnection(ctx context.Context, c *types.Connection) (*types.Connection, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.UpsertConnection")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[tenantID]; !ok {
		return nil, fmt.Errorf("upsert connection: %w", storage.ErrForeignKeyViolation)
	}

	if c.Status != types.ConnectionDisconnected {
		for _, other := range s.connections {
			if other.ProviderAccountID != c.ProviderAccountID || other.Status == types.ConnectionDisconnected {
				continue
			}
			if other.TenantID != tenantID || other.Provider != c.Provider {
				return nil, fmt.Errorf("upsert connection: %w", storage.ErrDuplicateKey)
			}
		}
	}

	now := s.now()
	existing := s.findConnection(tenantID, c.Provider)
	if existing == nil {
		existing = &types.Connection{
			ID:        newID(),
			TenantID:  tenantID,
			Provider:  c.Provider,
			CreatedAt: now,
		}
		s.connections[existing.ID] = existing
	}

	existing.UserID = c.UserID
	existing.ProviderAccountID = c.ProviderAccountID
	existing.AccessToken = c.AccessToken
	existing.RefreshToken = c.RefreshToken
	existing.TokenExpiresAt = c.TokenExpiresAt
	existing.Status = c.Status
	existing.LastError = nil
	existing.Version++
	existing.UpdatedAt = now

	return copyConnection(existing), nil
}

func (s *Store) GetConnection(ctx context.Context, provider string) (*types.Connection, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.GetConnection")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.findConnection(tenantID, provider)
	if c == nil {
		return nil, storage.ErrNotFound
	}

	return copyConnection(c), nil
}

func (s *Store) ListConnections(ctx context.Context) ([]*types.Connection, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.ListConnections")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.Connection
	for _, c := range s.connections {
		if c.TenantID == tenantID {
			out = append(out, copyConnection(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })

	return out, nil
}

func (s *Store) UpdateConnectionTokens(ctx context.Context, provider string, version int64, tokens storage.TokenUpdate) (*types.Connection, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.UpdateConnectionTokens")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findConnection(tenantID, provider)
	if c == nil {
		return nil, storage.ErrNotFound
	}
	if c.Version != version {
		return nil, storage.ErrStaleVersion
	}

	c.AccessToken = tokens.AccessToken
	c.RefreshToken = tokens.RefreshToken
	c.TokenExpiresAt = tokens.TokenExpiresAt
	c.Status = types.ConnectionConnected
	c.LastError = nil
	c.Version++
	c.UpdatedAt = s.now()

	return copyConnection(c), nil
}

func (s *Store) UpdateConnectionStatus(ctx context.Context, provider string, status types.ConnectionStatus, lastError *string) (*types.Connection, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.UpdateConnectionStatus")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findConnection(tenantID, provider)
	if c == nil {
		return nil, storage.ErrNotFound
	}

	c.Status = status
	c.LastError = lastError
	c.Version++
	c.UpdatedAt = s.now()

	return copyConnection(c), nil
}

func (s *Store) DisconnectConnection(ctx context.Context, provider string) (*types.Connection, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.DisconnectConnection")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findConnection(tenantID, provider)
	if c == nil {
		return nil, storage.ErrNotFound
	}

	c.Status = types.ConnectionDisconnected
	c.AccessToken = ""
	c.RefreshToken = nil
	c.TokenExpiresAt = nil
	c.LastError = nil
	c.Version++
	c.UpdatedAt = s.now()

	return copyConnection(c), nil
}
