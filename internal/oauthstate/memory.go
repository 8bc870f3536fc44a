// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package oauthstate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/tracing"
)

var _ StoreInterface = (*MemoryStore)(nil)

// MemoryStore is the process local state store used when no redis is configured.
type MemoryStore struct {
	mu       sync.Mutex
	states   map[string]*State
	consumed map[string]time.Time

	ttl time.Duration
	now func() time.Time

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func (m *MemoryStore) Issue(ctx context.Context, tenantID, provider, userID string) (*State, error) {
	_, span := m.tracer.Start(ctx, "oauthstate.MemoryStore.Issue")
	defer span.End()

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.gc()

	state := &State{
		Token:     token,
		TenantID:  tenantID,
		Provider:  provider,
		UserID:    userID,
		ExpiresAt: m.now().Add(m.ttl),
	}
	m.states[token] = state

	c := *state
	return &c, nil
}

func (m *MemoryStore) Consume(ctx context.Context, token, tenantID, provider string) (*State, error) {
	_, span := m.tracer.Start(ctx, "oauthstate.MemoryStore.Consume")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[token]
	if !ok {
		if _, spent := m.consumed[token]; spent {
			return nil, ErrStateConsumed
		}
		return nil, ErrStateNotFound
	}

	delete(m.states, token)
	m.consumed[token] = state.ExpiresAt

	if state.Expired(m.now()) {
		return nil, ErrStateNotFound
	}

	if !state.matches(tenantID, provider) {
		return nil, ErrStateMismatch
	}

	c := *state
	return &c, nil
}

func (m *MemoryStore) Pending(ctx context.Context, tenantID, provider string) (bool, error) {
	_, span := m.tracer.Start(ctx, "oauthstate.MemoryStore.Pending")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, s := range m.states {
		if s.matches(tenantID, provider) && !s.Expired(now) {
			return true, nil
		}
	}
	return false, nil
}

// gc drops expired states and tombstones, callers hold the lock.
func (m *MemoryStore) gc() {
	now := m.now()
	for k, s := range m.states {
		if s.Expired(now) {
			delete(m.states, k)
		}
	}
	for k, exp := range m.consumed {
		if !now.Before(exp) {
			delete(m.consumed, k)
		}
	}
}

func NewMemoryStore(ttl time.Duration, tracer tracing.TracingInterface, logger logging.LoggerInterface) *MemoryStore {
	m := new(MemoryStore)

	m.states = make(map[string]*State)
	m.consumed = make(map[string]time.Time)
	m.ttl = ttl
	m.now = time.Now

	m.tracer = tracer
	m.logger = logger

	return m
}
