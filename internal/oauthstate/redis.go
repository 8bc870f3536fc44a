// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package oauthstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/tracing"
)

const keyPrefix = "oauthstate:"

var _ StoreInterface = (*RedisStore)(nil)

// RedisStore shares pending states between API replicas. GETDEL makes the
// consumption atomic, a tombstone keeps replays distinguishable from unknown
// tokens until the state would have expired. The pending key of a tenant and
// provider is a set of outstanding tokens, consuming one leaves the others.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func stateKey(token string) string {
	return keyPrefix + token
}

func tombstoneKey(token string) string {
	return keyPrefix + "consumed:" + token
}

func pendingKey(tenantID, provider string) string {
	return fmt.Sprintf("%spending:%s:%s", keyPrefix, tenantID, provider)
}

func (r *RedisStore) Issue(ctx context.Context, tenantID, provider, userID string) (*State, error) {
	ctx, span := r.tracer.Start(ctx, "oauthstate.RedisStore.Issue")
	defer span.End()

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	state := &State{
		Token:     token,
		TenantID:  tenantID,
		Provider:  provider,
		UserID:    userID,
		ExpiresAt: r.now().Add(r.ttl),
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, stateKey(token), payload, r.ttl)
		pipe.SAdd(ctx, pendingKey(tenantID, provider), token)
		pipe.Expire(ctx, pendingKey(tenantID, provider), r.ttl)
		return nil
	})
	if err != nil {
		r.unavailable()
		return nil, fmt.Errorf("failed to store state: %w", err)
	}

	return state, nil
}

func (r *RedisStore) Consume(ctx context.Context, token, tenantID, provider string) (*State, error) {
	ctx, span := r.tracer.Start(ctx, "oauthstate.RedisStore.Consume")
	defer span.End()

	payload, err := r.client.GetDel(ctx, stateKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		n, err := r.client.Exists(ctx, tombstoneKey(token)).Result()
		if err != nil {
			r.unavailable()
			return nil, fmt.Errorf("failed to look up state tombstone: %w", err)
		}
		if n > 0 {
			return nil, ErrStateConsumed
		}
		return nil, ErrStateNotFound
	}
	if err != nil {
		r.unavailable()
		return nil, fmt.Errorf("failed to consume state: %w", err)
	}

	state := new(State)
	if err := json.Unmarshal(payload, state); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}

	remaining := state.ExpiresAt.Sub(r.now())
	if remaining <= 0 {
		return nil, ErrStateNotFound
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tombstoneKey(token), state.TenantID, remaining)
		pipe.SRem(ctx, pendingKey(state.TenantID, state.Provider), token)
		return nil
	})
	if err != nil {
		// the state is already gone, a missing tombstone only degrades a
		// replay into a not found
		r.logger.Warnf("failed to record consumed oauth state: %v", err)
	}

	if !state.matches(tenantID, provider) {
		return nil, ErrStateMismatch
	}

	return state, nil
}

func (r *RedisStore) Pending(ctx context.Context, tenantID, provider string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "oauthstate.RedisStore.Pending")
	defer span.End()

	key := pendingKey(tenantID, provider)

	tokens, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		r.unavailable()
		return false, fmt.Errorf("failed to look up pending state: %w", err)
	}

	// set members outlive the state keys they name when a state expires
	stale := make([]any, 0, len(tokens))
	pending := false
	for _, token := range tokens {
		n, err := r.client.Exists(ctx, stateKey(token)).Result()
		if err != nil {
			r.unavailable()
			return false, fmt.Errorf("failed to look up pending state: %w", err)
		}
		if n > 0 {
			pending = true
			continue
		}
		stale = append(stale, token)
	}

	if len(stale) > 0 {
		if err := r.client.SRem(ctx, key, stale...).Err(); err != nil {
			r.logger.Debugf("failed to prune stale oauth states: %v", err)
		}
	}

	return pending, nil
}

func (r *RedisStore) unavailable() {
	_ = r.monitor.SetDependencyAvailability(map[string]string{"component": "redis"}, 0)
}

// NewRedisClient builds the client and checks the server is reachable.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}

	return client, nil
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *RedisStore {
	r := new(RedisStore)

	r.client = client
	r.ttl = ttl
	r.now = time.Now

	r.tracer = tracer
	r.monitor = monitor
	r.logger = logger

	_ = monitor.SetDependencyAvailability(map[string]string{"component": "redis"}, 1)

	return r
}
