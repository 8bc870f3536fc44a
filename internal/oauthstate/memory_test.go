// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package oauthstate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/tracing"
)

const (
	tenantA = "0190d3b6-5c4e-7a31-8c7e-2f1a9b0c4d11"
	tenantB = "0190d3b6-5c4e-7a31-8c7e-2f1a9b0c4d22"
)

func newMemoryStore(ttl time.Duration) *MemoryStore {
	return NewMemoryStore(ttl, tracing.NewNoopTracer(), logging.NewNoopLogger())
}

func TestMemoryStoreSingleUse(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(time.Minute)

	state, err := s.Issue(ctx, tenantA, "stripe", "user-1")
	gt.NoError(t, err).Required()
	gt.Value(t, len(state.Token)).Equal(43)

	pending, err := s.Pending(ctx, tenantA, "stripe")
	gt.NoError(t, err).Required()
	gt.Bool(t, pending).True()

	consumed, err := s.Consume(ctx, state.Token, tenantA, "stripe")
	gt.NoError(t, err).Required()
	gt.Value(t, consumed.TenantID).Equal(tenantA)
	gt.Value(t, consumed.UserID).Equal("user-1")

	_, err = s.Consume(ctx, state.Token, tenantA, "stripe")
	gt.Bool(t, errors.Is(err, ErrStateConsumed)).True()

	pending, err = s.Pending(ctx, tenantA, "stripe")
	gt.NoError(t, err).Required()
	gt.Bool(t, pending).False()
}

func TestMemoryStoreUnknownToken(t *testing.T) {
	s := newMemoryStore(time.Minute)

	_, err := s.Consume(context.Background(), "nope", tenantA, "stripe")
	gt.Bool(t, errors.Is(err, ErrStateNotFound)).True()
}

func TestMemoryStoreExpired(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(time.Minute)

	now := time.Now()
	s.now = func() time.Time { return now }

	state, err := s.Issue(ctx, tenantA, "stripe", "user-1")
	gt.NoError(t, err).Required()

	s.now = func() time.Time { return now.Add(2 * time.Minute) }

	pending, err := s.Pending(ctx, tenantA, "stripe")
	gt.NoError(t, err).Required()
	gt.Bool(t, pending).False()

	_, err = s.Consume(ctx, state.Token, tenantA, "stripe")
	gt.Bool(t, errors.Is(err, ErrStateNotFound)).True()
}

func TestMemoryStoreMismatchSpendsToken(t *testing.T) {
	tests := []struct {
		name     string
		tenantID string
		provider string
	}{
		{name: "other tenant", tenantID: tenantB, provider: "stripe"},
		{name: "other provider", tenantID: tenantA, provider: "paypal"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx := context.Background()
			s := newMemoryStore(time.Minute)

			state, err := s.Issue(ctx, tenantA, "stripe", "user-1")
			gt.NoError(t, err).Required()

			_, err = s.Consume(ctx, state.Token, test.tenantID, test.provider)
			gt.Bool(t, errors.Is(err, ErrStateMismatch)).True()

			_, err = s.Consume(ctx, state.Token, tenantA, "stripe")
			gt.Bool(t, errors.Is(err, ErrStateConsumed)).True()
		})
	}
}

func TestMemoryStoreTokensAreUnique(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(time.Minute)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		state, err := s.Issue(ctx, tenantA, "stripe", "user-1")
		gt.NoError(t, err).Required()
		gt.Bool(t, seen[state.Token]).False()
		seen[state.Token] = true
	}
}

func TestMemoryStorePendingSurvivesOlderConsume(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(time.Minute)

	older, err := s.Issue(ctx, tenantA, "stripe", "user-1")
	gt.NoError(t, err).Required()
	newer, err := s.Issue(ctx, tenantA, "stripe", "user-2")
	gt.NoError(t, err).Required()

	_, err = s.Consume(ctx, older.Token, tenantA, "stripe")
	gt.NoError(t, err).Required()

	pending, err := s.Pending(ctx, tenantA, "stripe")
	gt.NoError(t, err).Required()
	gt.Bool(t, pending).True()

	consumed, err := s.Consume(ctx, newer.Token, tenantA, "stripe")
	gt.NoError(t, err).Required()
	gt.Value(t, consumed.UserID).Equal("user-2")
}
