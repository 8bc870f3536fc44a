// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

type Role string

const (
	RoleAppAdmin     Role = "app_admin"
	RoleTenantAdmin  Role = "tenant_admin"
	RoleTenantUser   Role = "tenant_user"
	RoleSupportUser  Role = "support_user"
	RoleReadOnlyUser Role = "read_only_user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAppAdmin, RoleTenantAdmin, RoleTenantUser, RoleSupportUser, RoleReadOnlyUser:
		return true
	}
	return false
}

type Tenant struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Enabled   bool      `db:"enabled" json:"enabled"`
}

// Membership is the UserTenant relation, unique per (tenant, user).
type Membership struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Role      Role      `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type TenantUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   Role   `json:"role"`
}

type ConnectionStatus string

const (
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionDisconnected ConnectionStatus = "disconnected"
	ConnectionError        ConnectionStatus = "error"

	// Derived states, never persisted.
	ConnectionNotConnected         ConnectionStatus = "not_connected"
	ConnectionPendingAuthorization ConnectionStatus = "pending_authorization"
)

// Connection is a tenant's authorized link to one provider. Token fields hold
// ciphertext only.
type Connection struct {
	ID                string           `db:"id"`
	TenantID          string           `db:"tenant_id"`
	UserID            string           `db:"user_id"`
	Provider          string           `db:"provider"`
	ProviderAccountID string           `db:"provider_account_id"`
	AccessToken       string           `db:"access_token"`
	RefreshToken      *string          `db:"refresh_token"`
	TokenExpiresAt    *time.Time       `db:"token_expires_at"`
	Status            ConnectionStatus `db:"status"`
	LastError         *string          `db:"last_error"`
	Version           int64            `db:"version"`
	CreatedAt         time.Time        `db:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at"`
}

// ConnectionView is the client facing projection of a Connection, it never
// carries credentials.
type ConnectionView struct {
	TenantID          string           `json:"tenant_id"`
	Provider          string           `json:"provider"`
	ProviderAccountID string           `json:"provider_account_id,omitempty"`
	Status            ConnectionStatus `json:"status"`
	LastError         string           `json:"last_error,omitempty"`
	CreatedAt         *time.Time       `json:"created_at,omitempty"`
	UpdatedAt         *time.Time       `json:"updated_at,omitempty"`
}

func (c *Connection) View() *ConnectionView {
	v := &ConnectionView{
		TenantID:          c.TenantID,
		Provider:          c.Provider,
		ProviderAccountID: c.ProviderAccountID,
		Status:            c.Status,
		CreatedAt:         &c.CreatedAt,
		UpdatedAt:         &c.UpdatedAt,
	}
	if c.LastError != nil {
		v.LastError = *c.LastError
	}
	return v
}

type JobType string

const (
	JobTypeFullSync        JobType = "full_sync"
	JobTypeIncrementalSync JobType = "incremental_sync"
)

func (t JobType) Valid() bool {
	return t == JobTypeFullSync || t == JobTypeIncrementalSync
}

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// CanTransitionTo lists the only legal job status changes.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobPending:
		return next == JobRunning
	case JobRunning:
		return next == JobCompleted || next == JobFailed || next == JobCancelled
	}
	return false
}

// CategoryCheckpoint is the resumption marker for one data category.
type CategoryCheckpoint struct {
	Cursor  string `json:"cursor,omitempty"`
	Pages   int    `json:"pages"`
	Records int    `json:"records"`
	Done    bool   `json:"done"`
}

// Checkpoint is persisted with every page so a retry resumes instead of restarting.
type Checkpoint struct {
	Categories     map[string]CategoryCheckpoint `json:"categories,omitempty"`
	FailedCategory string                        `json:"failed_category,omitempty"`
}

func (c Checkpoint) Category(name string) CategoryCheckpoint {
	if c.Categories == nil {
		return CategoryCheckpoint{}
	}
	return c.Categories[name]
}

func (c *Checkpoint) Set(name string, cc CategoryCheckpoint) {
	if c.Categories == nil {
		c.Categories = make(map[string]CategoryCheckpoint)
	}
	c.Categories[name] = cc
}

// Clone returns a deep copy, checkpoints are shared between a job and its retry.
func (c Checkpoint) Clone() Checkpoint {
	out := Checkpoint{FailedCategory: c.FailedCategory}
	for k, v := range c.Categories {
		out.Set(k, v)
	}
	return out
}

type SyncJob struct {
	ID              string     `db:"id" json:"id"`
	TenantID        string     `db:"tenant_id" json:"tenant_id"`
	Provider        string     `db:"provider" json:"provider"`
	Type            JobType    `db:"job_type" json:"job_type"`
	Status          JobStatus  `db:"status" json:"status"`
	Progress        int        `db:"progress" json:"progress"`
	RetryCount      int        `db:"retry_count" json:"retry_count"`
	ErrorMessage    *string    `db:"error_message" json:"error_message,omitempty"`
	Checkpoint      Checkpoint `db:"checkpoint" json:"checkpoint"`
	ParentJobID     *string    `db:"parent_job_id" json:"parent_job_id,omitempty"`
	CancelRequested bool       `db:"cancel_requested" json:"cancel_requested"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	StartedAt       *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

type SyncedCustomer struct {
	TenantID           string         `db:"tenant_id" json:"tenant_id"`
	UserID             string         `db:"user_id" json:"user_id"`
	Provider           string         `db:"provider" json:"provider"`
	ProviderCustomerID string         `db:"provider_customer_id" json:"provider_customer_id"`
	Email              string         `db:"email" json:"email,omitempty"`
	Name               string         `db:"name" json:"name,omitempty"`
	Phone              string         `db:"phone" json:"phone,omitempty"`
	Metadata           map[string]any `db:"metadata" json:"metadata,omitempty"`
	SyncedAt           time.Time      `db:"synced_at" json:"synced_at"`
}

type SyncedSubscription struct {
	TenantID               string         `db:"tenant_id" json:"tenant_id"`
	UserID                 string         `db:"user_id" json:"user_id"`
	Provider               string         `db:"provider" json:"provider"`
	ProviderSubscriptionID string         `db:"provider_subscription_id" json:"provider_subscription_id"`
	ProviderCustomerID     string         `db:"provider_customer_id" json:"provider_customer_id,omitempty"`
	Status                 string         `db:"status" json:"status"`
	Plan                   string         `db:"plan" json:"plan,omitempty"`
	Amount                 int64          `db:"amount" json:"amount"`
	Currency               string         `db:"currency" json:"currency,omitempty"`
	CurrentPeriodEnd       *time.Time     `db:"current_period_end" json:"current_period_end,omitempty"`
	Metadata               map[string]any `db:"metadata" json:"metadata,omitempty"`
	SyncedAt               time.Time      `db:"synced_at" json:"synced_at"`
}

type SyncedPayment struct {
	TenantID           string         `db:"tenant_id" json:"tenant_id"`
	UserID             string         `db:"user_id" json:"user_id"`
	Provider           string         `db:"provider" json:"provider"`
	ProviderPaymentID  string         `db:"provider_payment_id" json:"provider_payment_id"`
	ProviderCustomerID string         `db:"provider_customer_id" json:"provider_customer_id,omitempty"`
	Amount             int64          `db:"amount" json:"amount"`
	Currency           string         `db:"currency" json:"currency,omitempty"`
	Status             string         `db:"status" json:"status"`
	PaidAt             *time.Time     `db:"paid_at" json:"paid_at,omitempty"`
	Metadata           map[string]any `db:"metadata" json:"metadata,omitempty"`
	SyncedAt           time.Time      `db:"synced_at" json:"synced_at"`
}
