// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"time"

	"github.com/canonical/provider-sync-service/internal/types"
)

// TenantStoreInterface works on tenant root rows, it is the only store that
// is not scoped by the active tenant.
type TenantStoreInterface interface {
	CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error)
	GetTenantByID(ctx context.Context, id string) (*types.Tenant, error)
	ListTenants(ctx context.Context) ([]*types.Tenant, error)
	ListTenantsByUserID(ctx context.Context, userID string) ([]*types.Tenant, error)
	UpdateTenantName(ctx context.Context, id, name string) (*types.Tenant, error)
	DeleteTenant(ctx context.Context, id string) error
}

// MembershipStoreInterface is scoped to the tenant carried by ctx.
type MembershipStoreInterface interface {
	AddMember(ctx context.Context, userID string, role types.Role) (*types.Membership, error)
	GetMembership(ctx context.Context, userID string) (*types.Membership, error)
	ListMembers(ctx context.Context) ([]*types.Membership, error)
	UpdateMemberRole(ctx context.Context, userID string, role types.Role) (*types.Membership, error)
	RemoveMember(ctx context.Context, userID string) error
}

// ConnectionStoreInterface is scoped to the tenant carried by ctx.
type ConnectionStoreInterface interface {
	UpsertConnection(ctx context.Context, c *types.Connection) (*types.Connection, error)
	GetConnection(ctx context.Context, provider string) (*types.Connection, error)
	ListConnections(ctx context.Context) ([]*types.Connection, error)
	// UpdateConnectionTokens only applies when the stored version still equals version.
	UpdateConnectionTokens(ctx context.Context, provider string, version int64, tokens TokenUpdate) (*types.Connection, error)
	UpdateConnectionStatus(ctx context.Context, provider string, status types.ConnectionStatus, lastError *string) (*types.Connection, error)
	// DisconnectConnection marks the connection disconnected and wipes its credentials.
	DisconnectConnection(ctx context.Context, provider string) (*types.Connection, error)
}

// JobStoreInterface is scoped to the tenant carried by ctx, except for
// GetJobForDispatch.
type JobStoreInterface interface {
	CreateJob(ctx context.Context, job *types.SyncJob) (*types.SyncJob, error)
	GetJob(ctx context.Context, id string) (*types.SyncJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*types.SyncJob, error)
	FindActiveJob(ctx context.Context, provider string) (*types.SyncJob, error)
	LatestCompletedJob(ctx context.Context, provider string) (*types.SyncJob, error)
	TransitionJob(ctx context.Context, id string, from, to types.JobStatus, update JobUpdate) (*types.SyncJob, error)
	UpdateJobProgress(ctx context.Context, id string, progress int, checkpoint types.Checkpoint) (*types.SyncJob, error)
	IncrementRetryCount(ctx context.Context, id string, ceiling int) (*types.SyncJob, error)
	RequestCancellation(ctx context.Context, id string) (*types.SyncJob, error)
	// GetJobForDispatch reads a job without a tenant scope, workers use it to
	// learn which tenant to scope themselves to.
	GetJobForDispatch(ctx context.Context, id string) (*types.SyncJob, error)
	// FailStaleJobs fails the running jobs of every tenant whose last update is
	// older than before, it returns the jobs it failed.
	FailStaleJobs(ctx context.Context, before time.Time, message string) ([]*types.SyncJob, error)
}

// SyncedRecordStoreInterface is scoped to the tenant carried by ctx, the
// tenant of upserted records is always taken from the scope.
type SyncedRecordStoreInterface interface {
	UpsertCustomers(ctx context.Context, records []*types.SyncedCustomer) error
	UpsertSubscriptions(ctx context.Context, records []*types.SyncedSubscription) error
	UpsertPayments(ctx context.Context, records []*types.SyncedPayment) error
	ListCustomers(ctx context.Context, provider string, page, size int64) ([]*types.SyncedCustomer, error)
	ListSubscriptions(ctx context.Context, provider string, page, size int64) ([]*types.SyncedSubscription, error)
	ListPayments(ctx context.Context, provider string, page, size int64) ([]*types.SyncedPayment, error)
}

type StorageInterface interface {
	TenantStoreInterface
	MembershipStoreInterface
	ConnectionStoreInterface
	JobStoreInterface
	SyncedRecordStoreInterface
}

type TokenUpdate struct {
	AccessToken    string
	RefreshToken   *string
	TokenExpiresAt *time.Time
}

type JobFilter struct {
	Provider string
	Status   types.JobStatus
	Page     int64
	Size     int64
}

// JobUpdate carries the optional fields written alongside a status change.
type JobUpdate struct {
	Progress     *int
	ErrorMessage *string
	Checkpoint   *types.Checkpoint
}
