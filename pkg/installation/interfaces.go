// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package installation

import (
	"context"

	"github.com/canonical/provider-sync-service/internal/storage"
	"github.com/canonical/provider-sync-service/internal/types"
)

type ServiceInterface interface {
	InitiateConnection(ctx context.Context, tenantID, provider string) (string, error)
	HandleOAuthCallback(ctx context.Context, tenantID, provider, code, state string) (*types.ConnectionView, error)
	GetConnection(ctx context.Context, tenantID, provider string) (*types.ConnectionView, error)
	ListConnections(ctx context.Context, tenantID string) ([]*types.ConnectionView, error)
	Disconnect(ctx context.Context, tenantID, provider string) error
	ValidateConnection(ctx context.Context, tenantID, provider string) (*types.ConnectionView, error)
}

// CredentialsInterface hands decrypted credentials to the sync processor.
type CredentialsInterface interface {
	AccessToken(ctx context.Context, tenantID, provider string) (*Credentials, error)
	RefreshConnection(ctx context.Context, tenantID, provider string) (*Credentials, error)
}

// StorageInterface is the subset of the data store the installation flow uses.
type StorageInterface interface {
	UpsertConnection(ctx context.Context, c *types.Connection) (*types.Connection, error)
	GetConnection(ctx context.Context, provider string) (*types.Connection, error)
	ListConnections(ctx context.Context) ([]*types.Connection, error)
	UpdateConnectionTokens(ctx context.Context, provider string, version int64, tokens storage.TokenUpdate) (*types.Connection, error)
	UpdateConnectionStatus(ctx context.Context, provider string, status types.ConnectionStatus, lastError *string) (*types.Connection, error)
	DisconnectConnection(ctx context.Context, provider string) (*types.Connection, error)
}
