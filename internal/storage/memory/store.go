// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package memory keeps tenant scoped records in process. It honours the same
// contract as the postgres storage and backs tests and DSN=memory:// runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/storage"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/internal/types"
)

var _ storage.StorageInterface = (*Store)(nil)

type syncedKey struct {
	tenantID string
	provider string
	id       string
}

type Store struct {
	mu sync.RWMutex

	tenants       map[string]*types.Tenant
	memberships   map[string]*types.Membership
	connections   map[string]*types.Connection
	jobs          map[string]*types.SyncJob
	customers     map[syncedKey]*types.SyncedCustomer
	subscriptions map[syncedKey]*types.SyncedSubscription
	payments      map[syncedKey]*types.SyncedPayment

	now func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func scope(ctx context.Context) (string, error) {
	tenantID, ok := tenancy.FromContext(ctx)
	if !ok {
		return "", storage.ErrTenantRequired
	}
	return tenantID, nil
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *Store) CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.CreateTenant")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	created := &types.Tenant{
		ID:        newID(),
		Name:      t.Name,
		Enabled:   t.Enabled,
		CreatedAt: s.now(),
	}
	s.tenants[created.ID] = created

	out := *created
	return &out, nil
}

func (s *Store) GetTenantByID(ctx context.Context, id string) (*types.Tenant, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.GetTenantByID")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	out := *t
	return &out, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]*types.Tenant, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.ListTenants")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		c := *t
		out = append(out, &c)
	}
	sortTenants(out)

	return out, nil
}

func (s *Store) ListTenantsByUserID(ctx context.Context, userID string) ([]*types.Tenant, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.ListTenantsByUserID")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.Tenant
	for _, m := range s.memberships {
		if m.UserID != userID {
			continue
		}
		if t, ok := s.tenants[m.TenantID]; ok && t.Enabled {
			c := *t
			out = append(out, &c)
		}
	}
	sortTenants(out)

	return out, nil
}

func (s *Store) UpdateTenantName(ctx context.Context, id, name string) (*types.Tenant, error) {
	_, span := s.tracer.Start(ctx, "memory.Store.UpdateTenantName")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	t.Name = name

	out := *t
	return &out, nil
}

// DeleteTenant mirrors ON DELETE CASCADE.
func (s *Store) DeleteTenant(ctx context.Context, id string) error {
	_, span := s.tracer.Start(ctx, "memory.Store.DeleteTenant")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.tenants, id)

	for k, m := range s.memberships {
		if m.TenantID == id {
			delete(s.memberships, k)
		}
	}
	for k, c := range s.connections {
		if c.TenantID == id {
			delete(s.connections, k)
		}
	}
	for k, j := range s.jobs {
		if j.TenantID == id {
			delete(s.jobs, k)
		}
	}
	for k := range s.customers {
		if k.tenantID == id {
			delete(s.customers, k)
		}
	}
	for k := range s.subscriptions {
		if k.tenantID == id {
			delete(s.subscriptions, k)
		}
	}
	for k := range s.payments {
		if k.tenantID == id {
			delete(s.payments, k)
		}
	}

	return nil
}

func sortTenants(ts []*types.Tenant) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].CreatedAt.Equal(ts[j].CreatedAt) {
			return ts[i].ID < ts[j].ID
		}
		return ts[i].CreatedAt.Before(ts[j].CreatedAt)
	})
}

func NewStore(tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Store {
	s := new(Store)

	s.tenants = make(map[string]*types.Tenant)
	s.memberships = make(map[string]*types.Membership)
	s.connections = make(map[string]*types.Connection)
	s.jobs = make(map[string]*types.SyncJob)
	s.customers = make(map[syncedKey]*types.SyncedCustomer)
	s.subscriptions = make(map[syncedKey]*types.SyncedSubscription)
	s.payments = make(map[syncedKey]*types.SyncedPayment)
	s.now = func() time.Time { return time.Now().UTC() }

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
