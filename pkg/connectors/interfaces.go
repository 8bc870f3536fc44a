// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package connectors

import (
	"context"
)

// ConnectorInterface is the capability set every provider implements.
// Orchestration code only ever talks to providers through it.
type ConnectorInterface interface {
	Name() string
	DisplayName() string
	AuthorizationURL(state, redirectURI string) (string, error)
	ExchangeCode(ctx context.Context, code, redirectURI string) (*Tokens, error)
	ValidateConnection(ctx context.Context, accessToken string) (bool, error)
	// RefreshAccessToken returns ErrRefreshUnsupported when the provider has
	// no refresh grant.
	RefreshAccessToken(ctx context.Context, refreshToken string) (*Tokens, error)
	// RevokeAccess is best effort, callers drop local credentials regardless.
	RevokeAccess(ctx context.Context, accessToken, providerAccountID string) error
	PullCustomers(ctx context.Context, accessToken, cursor string) (*Page, error)
	PullSubscriptions(ctx context.Context, accessToken, cursor string) (*Page, error)
	PullPayments(ctx context.Context, accessToken, cursor string) (*Page, error)
}

type RegistryInterface interface {
	Register(c ConnectorInterface) error
	Get(name string) (ConnectorInterface, error)
	List() []ConnectorInfo
}
