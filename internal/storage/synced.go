// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/provider-sync-service/internal/db"
	"github.com/canonical/provider-sync-service/internal/types"
)

const (
	upsertCustomerSuffix = `ON CONFLICT (tenant_id, provider, provider_customer_id) DO UPDATE SET
		user_id = EXCLUDED.user_id,
		email = EXCLUDED.email,
		name = EXCLUDED.name,
		phone = EXCLUDED.phone,
		metadata = EXCLUDED.metadata,
		synced_at = NOW()`

	upsertSubscriptionSuffix = `ON CONFLICT (tenant_id, provider, provider_subscription_id) DO UPDATE SET
		user_id = EXCLUDED.user_id,
		provider_customer_id = EXCLUDED.provider_customer_id,
		status = EXCLUDED.status,
		plan = EXCLUDED.plan,
		amount = EXCLUDED.amount,
		currency = EXCLUDED.currency,
		current_period_end = EXCLUDED.current_period_end,
		metadata = EXCLUDED.metadata,
		synced_at = NOW()`

	upsertPaymentSuffix = `ON CONFLICT (tenant_id, provider, provider_payment_id) DO UPDATE SET
		user_id = EXCLUDED.user_id,
		provider_customer_id = EXCLUDED.provider_customer_id,
		amount = EXCLUDED.amount,
		currency = EXCLUDED.currency,
		status = EXCLUDED.status,
		paid_at = EXCLUDED.paid_at,
		metadata = EXCLUDED.metadata,
		synced_at = NOW()`
)

func (s *Storage) UpsertCustomers(ctx context.Context, records []*types.SyncedCustomer) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpsertCustomers")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return nil
	}

	q := s.db.Statement(ctx).
		Insert("synced_customers").
		Columns("tenant_id", "user_id", "provider", "provider_customer_id", "email", "name", "phone", "metadata")

	for _, r := range records {
		metadata, err := marshalJSON(r.Metadata)
		if err != nil {
			return err
		}
		q = q.Values(tenantID, r.UserID, r.Provider, r.ProviderCustomerID, r.Email, r.Name, r.Phone, metadata)
	}

	if _, err := q.Suffix(upsertCustomerSuffix).ExecContext(ctx); err != nil {
		return mapWriteError(err, "upsert customers")
	}

	return nil
}

func (s *Storage) UpsertSubscriptions(ctx context.Context, records []*types.SyncedSubscription) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpsertSubscriptions")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return nil
	}

	q := s.db.Statement(ctx).
		Insert("synced_subscriptions").
		Columns(
			"tenant_id", "user_id", "provider", "provider_subscription_id", "provider_customer_id",
			"status", "plan", "amount", "currency", "current_period_end", "metadata",
		)

	for _, r := range records {
		metadata, err := marshalJSON(r.Metadata)
		if err != nil {
			return err
		}
		q = q.Values(
			tenantID, r.UserID, r.Provider, r.ProviderSubscriptionID, r.ProviderCustomerID,
			r.Status, r.Plan, r.Amount, r.Currency, r.CurrentPeriodEnd, metadata,
		)
	}

	if _, err := q.Suffix(upsertSubscriptionSuffix).ExecContext(ctx); err != nil {
		return mapWriteError(err, "upsert subscriptions")
	}

	return nil
}

func (s *Storage) UpsertPayments(ctx context.Context, records []*types.SyncedPayment) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpsertPayments")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return nil
	}

	q := s.db.Statement(ctx).
		Insert("synced_payments").
		Columns(
			"tenant_id", "user_id", "provider", "provider_payment_id", "provider_customer_id",
			"amount", "currency", "status", "paid_at", "metadata",
		)

	for _, r := range records {
		metadata, err := marshalJSON(r.Metadata)
		if err != nil {
			return err
		}
		q = q.Values(
			tenantID, r.UserID, r.Provider, r.ProviderPaymentID, r.ProviderCustomerID,
			r.Amount, r.Currency, r.Status, r.PaidAt, metadata,
		)
	}

	if _, err := q.Suffix(upsertPaymentSuffix).ExecContext(ctx); err != nil {
		return mapWriteError(err, "upsert payments")
	}

	return nil
}

func (s *Storage) ListCustomers(ctx context.Context, provider string, page, size int64) ([]*types.SyncedCustomer, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListCustomers")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	pageSize := db.PageSize(size)
	rows, err := s.db.Statement(ctx).
		Select("tenant_id", "user_id", "provider", "provider_customer_id", "email", "name", "phone", "metadata", "synced_at").
		From("synced_customers").
		Where(syncedFilter(tenantID, provider)).
		OrderBy("provider", "provider_customer_id").
		Limit(pageSize).
		Offset(db.Offset(page, pageSize)).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var out []*types.SyncedCustomer
	for rows.Next() {
		var (
			c        types.SyncedCustomer
			metadata []byte
		)
		if err := rows.Scan(&c.TenantID, &c.UserID, &c.Provider, &c.ProviderCustomerID, &c.Email, &c.Name, &c.Phone, &metadata, &c.SyncedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		if err := unmarshalJSON(metadata, &c.Metadata); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return out, nil
}

func (s *Storage) ListSubscriptions(ctx context.Context, provider string, page, size int64) ([]*types.SyncedSubscription, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListSubscriptions")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	pageSize := db.PageSize(size)
	rows, err := s.db.Statement(ctx).
		Select(
			"tenant_id", "user_id", "provider", "provider_subscription_id", "provider_customer_id",
			"status", "plan", "amount", "currency", "current_period_end", "metadata", "synced_at",
		).
		From("synced_subscriptions").
		Where(syncedFilter(tenantID, provider)).
		OrderBy("provider", "provider_subscription_id").
		Limit(pageSize).
		Offset(db.Offset(page, pageSize)).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []*types.SyncedSubscription
	for rows.Next() {
		var (
			sub      types.SyncedSubscription
			metadata []byte
		)
		err := rows.Scan(
			&sub.TenantID, &sub.UserID, &sub.Provider, &sub.ProviderSubscriptionID, &sub.ProviderCustomerID,
			&sub.Status, &sub.Plan, &sub.Amount, &sub.Currency, &sub.CurrentPeriodEnd, &metadata, &sub.SyncedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		if err := unmarshalJSON(metadata, &sub.Metadata); err != nil {
			return nil, err
		}
		out = append(out, &sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return out, nil
}

func (s *Storage) ListPayments(ctx context.Context, provider string, page, size int64) ([]*types.SyncedPayment, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListPayments")
	defer span.End()

	tenantID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	pageSize := db.PageSize(size)
	rows, err := s.db.Statement(ctx).
		Select(
			"tenant_id", "user_id", "provider", "provider_payment_id", "provider_customer_id",
			"amount", "currency", "status", "paid_at", "metadata", "synced_at",
		).
		From("synced_payments").
		Where(syncedFilter(tenantID, provider)).
		OrderBy("provider", "provider_payment_id").
		Limit(pageSize).
		Offset(db.Offset(page, pageSize)).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var out []*types.SyncedPayment
	for rows.Next() {
		var (
			p        types.SyncedPayment
			metadata []byte
		)
		err := rows.Scan(
			&p.TenantID, &p.UserID, &p.Provider, &p.ProviderPaymentID, &p.ProviderCustomerID,
			&p.Amount, &p.Currency, &p.Status, &p.PaidAt, &metadata, &p.SyncedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		if err := unmarshalJSON(metadata, &p.Metadata); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return out, nil
}

func syncedFilter(tenantID, provider string) sq.Eq {
	where := sq.Eq{"tenant_id": tenantID}
	if provider != "" {
		where["provider"] = provider
	}
	return where
}
