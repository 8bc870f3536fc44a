// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package memory

import (
	"context"
	"maps"
	"sort"

	"github.com/canonical/provider-sync-service/internal/db"
	"github.com/canonical/provider-sync-service/internal/types"
)

func page[T any](all []T, p, size int64) []T {
	pageSize := db.PageSize(size)
	offset := db.Offset(p, pageSize)
	if offset >= uint64(len(all)) {
		return nil
	}

	end := offset + pageSize
	if end > uint64(len(all)) {
		end = uint64(len(all))
	}
	return all[offset:end]
}

func sortedKeys[V any](m map[syncedKey]V, tenantID, provider string) []syncedKey {
	var keys []syncedKey
	for k := range m {
		if k.tenantID != tenantID || (provider != "" && k.provider != provider) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].provider == keys[j].provider {
			return keys[i].id < keys[j].id
		}
		return keys[i].provider < keys[j].provider
	})
	return keys
}

func (s *Store) UpsertCustomers(ctx context.Context, records []*types.SyncedCustomer) error {
	_, span := s.tracer.Start(ctx, "memory.Store.UpsertCustomers")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, r := range records {
		c := *r
		c.TenantID = tenantID
		c.Metadata = maps.Clone(r.Metadata)
		c.SyncedAt = now
		s.customers[syncedKey{tenantID, r.Provider, r.ProviderCustomerID}] = &c
	}

	return nil
}

func (s *Store) UpsertSubscriptions(ctx context.Context, records []*types.SyncedSubscription) error {
	_, span := s.tracer.Start(ctx, "memory.Store.UpsertSubscriptions")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, r := range records {
		c := *r
		c.TenantID = tenantID
		c.Metadata = maps.Clone(r.Metadata)
		c.SyncedAt = now
		s.subscriptions[syncedKey{tenantID, r.Provider, r.ProviderSubscriptionID}] = &c
	}

	return nil
}

func (s *Store) UpsertPayments(ctx context.Context, records []*types.SyncedPayment) error {
	_, span := s.tracer.Start(ctx, "memory.Store.UpsertPayments")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, r := range records {
		c := *r
		c.TenantID = tenantID
		c.Metadata = maps.Clone(r.Metadata)
		c.SyncedAt = now
		s.payments[syncedKey{tenantID, r.Provider, r.ProviderPaymentID}] = &c
	}

	return nil
}

func (s *Store) ListCustomers(ctx context.Context, provider string, p, size int64) ([]*types.SyncedCustomer, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.ListCustomers")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.SyncedCustomer
	for _, k := range sortedKeys(s.customers, tenantID, provider) {
		c := *s.customers[k]
		out = append(out, &c)
	}

	return page(out, p, size), nil
}

func (s *Store) ListSubscriptions(ctx context.Context, provider string, p, size int64) ([]*types.SyncedSubscription, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.ListSubscriptions")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.SyncedSubscription
	for _, k := range sortedKeys(s.subscriptions, tenantID, provider) {
		c := *s.subscriptions[k]
		out = append(out, &c)
	}

	return page(out, p, size), nil
}

func (s *Store) ListPayments(ctx context.Context, provider string, p, size int64) ([]*types.SyncedPayment, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.ListPayments")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.SyncedPayment
	for _, k := range sortedKeys(s.payments, tenantID, provider) {
		c := *s.payments[k]
		out = append(out, &c)
	}

	return page(out, p, size), nil
}
