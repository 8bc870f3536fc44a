// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package installation owns the OAuth lifecycle of provider connections:
// initiate, callback, validation, refresh and disconnect.
package installation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/cipher"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/oauthstate"
	"github.com/canonical/provider-sync-service/internal/storage"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/internal/types"
	"github.com/canonical/provider-sync-service/pkg/authentication"
	"github.com/canonical/provider-sync-service/pkg/connectors"
)

const rejectedTokenMessage = "access token was rejected by the provider"

var (
	_ ServiceInterface     = (*Service)(nil)
	_ CredentialsInterface = (*Service)(nil)
)

// Credentials are the decrypted tokens of a connected connection. They only
// live in memory for the duration of a sync.
type Credentials struct {
	AccessToken string
	UserID      string
	Version     int64
}

type Service struct {
	connectors connectors.RegistryInterface
	cipher     cipher.CipherInterface
	storage    StorageInterface
	states     oauthstate.StoreInterface
	baseURL    string

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (s *Service) InitiateConnection(ctx context.Context, tenantID, provider string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "installation.Service.InitiateConnection")
	defer span.End()

	ctx, tenantID, err := scope(ctx, tenantID)
	if err != nil {
		return "", err
	}

	connector, err := s.connectors.Get(provider)
	if err != nil {
		return "", err
	}

	userID, _ := authentication.GetUserID(ctx)

	state, err := s.states.Issue(ctx, tenantID, provider, userID)
	if err != nil {
		return "", apierrors.Internal("failed to start authorization", err)
	}

	authURL, err := connector.AuthorizationURL(state.Token, s.CallbackURL(tenantID, provider))
	if err != nil {
		return "", apierrors.Internal("failed to build authorization url", err)
	}

	s.logger.Debugf("authorization started for tenant %s with %s", tenantID, provider)

	return authURL, nil
}

func (s *Service) HandleOAuthCallback(ctx context.Context, tenantID, provider, code, state string) (*types.ConnectionView, error) {
	ctx, span := s.tracer.Start(ctx, "installation.Service.HandleOAuthCallback")
	defer span.End()

	fields := make(map[string]string)
	if code == "" {
		fields["code"] = "is required"
	}
	if state == "" {
		fields["state"] = "is required"
	}
	if len(fields) > 0 {
		return nil, apierrors.Validation("invalid callback", fields)
	}

	ctx, tenantID, err := scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	connector, err := s.connectors.Get(provider)
	if err != nil {
		return nil, err
	}

	pending, err := s.states.Consume(ctx, state, tenantID, provider)
	if err != nil {
		return nil, s.stateError(err, tenantID, provider)
	}

	tokens, err := connector.ExchangeCode(ctx, code, s.CallbackURL(tenantID, provider))
	if err != nil {
		s.logger.Errorf("code exchange with %s failed for tenant %s: %v", provider, tenantID, err)
		return nil, exchangeError(err)
	}

	conn, err := s.sealed(tokens)
	if err != nil {
		return nil, err
	}
	conn.Provider = provider
	conn.Status = types.ConnectionConnected
	conn.UserID = pending.UserID
	if userID, ok := authentication.GetUserID(ctx); ok && conn.UserID == "" {
		conn.UserID = userID
	}

	stored, err := s.storage.UpsertConnection(ctx, conn)
	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil, apierrors.Conflict("provider account is already linked to another tenant").Wrap(err)
	}
	if err != nil {
		return nil, storage.Classify(err, "connection")
	}

	s.logger.Security().CredentialStored(tenantID, provider)
	s.logger.Infof("tenant %s connected %s account %s", tenantID, provider, stored.ProviderAccountID)

	return stored.View(), nil
}

func (s *Service) GetConnection(ctx context.Context, tenantID, provider string) (*types.ConnectionView, error) {
	ctx, span := s.tracer.Start(ctx, "installation.Service.GetConnection")
	defer span.End()

	ctx, tenantID, err := scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if _, err := s.connectors.Get(provider); err != nil {
		return nil, err
	}

	conn, err := s.storage.GetConnection(ctx, provider)
	if err == nil {
		return conn.View(), nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, storage.Classify(err, "connection")
	}

	return s.derivedView(ctx, tenantID, provider)
}

// ListConnections reports every registered provider, including the ones the
// tenant never connected.
func (s *Service) ListConnections(ctx context.Context, tenantID string) ([]*types.ConnectionView, error) {
	ctx, span := s.tracer.Start(ctx, "installation.Service.ListConnections")
	defer span.End()

	ctx, tenantID, err := scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	conns, err := s.storage.ListConnections(ctx)
	if err != nil {
		return nil, storage.Classify(err, "connection")
	}

	byProvider := make(map[string]*types.Connection, len(conns))
	for _, c := range conns {
		byProvider[c.Provider] = c
	}

	infos := s.connectors.List()
	views := make([]*types.ConnectionView, 0, len(infos))
	for _, info := range infos {
		if c, ok := byProvider[info.Name]; ok {
			views = append(views, c.View())
			continue
		}

		v, err := s.derivedView(ctx, tenantID, info.Name)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}

	return views, nil
}

// Disconnect always drops the local credentials, revoking them upstream is
// best effort.
func (s *Service) Disconnect(ctx context.Context, tenantID, provider string) error {
	ctx, span := s.tracer.Start(ctx, "installation.Service.Disconnect")
	defer span.End()

	ctx, tenantID, err := scope(ctx, tenantID)
	if err != nil {
		return err
	}

	connector, err := s.connectors.Get(provider)
	if err != nil {
		return err
	}

	conn, err := s.storage.GetConnection(ctx, provider)
	if err != nil {
		return storage.Classify(err, "connection")
	}

	if conn.Status == types.ConnectionDisconnected {
		return nil
	}

	if accessToken, err := s.cipher.Decrypt(conn.AccessToken); err != nil {
		s.logger.Errorf("skipping upstream revoke for tenant %s on %s: %v", tenantID, provider, err)
	} else if err := connector.RevokeAccess(ctx, accessToken, conn.ProviderAccountID); err != nil {
		s.logger.Warnf("upstream revoke for tenant %s on %s failed: %v", tenantID, provider, err)
	}

	if _, err := s.storage.DisconnectConnection(ctx, provider); err != nil {
		return storage.Classify(err, "connection")
	}

	s.logger.Security().CredentialRevoked(tenantID, provider)

	return nil
}

// ValidateConnection asks the provider whether the stored token still works
// and moves the connection between connected and error accordingly.
func (s *Service) ValidateConnection(ctx context.Context, tenantID, provider string) (*types.ConnectionView, error) {
	ctx, span := s.tracer.Start(ctx, "installation.Service.ValidateConnection")
	defer span.End()

	ctx, tenantID, err := scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	connector, err := s.connectors.Get(provider)
	if err != nil {
		return nil, err
	}

	conn, err := s.storage.GetConnection(ctx, provider)
	if err != nil {
		return nil, storage.Classify(err, "connection")
	}
	if conn.Status == types.ConnectionDisconnected {
		return nil, apierrors.Conflict("%s connection is disconnected", provider)
	}

	accessToken, err := s.cipher.Decrypt(conn.AccessToken)
	if err != nil {
		return nil, apierrors.Internal("stored credentials are unreadable", err)
	}

	valid, err := connector.ValidateConnection(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	status, lastError := types.ConnectionConnected, (*string)(nil)
	if !valid {
		msg := rejectedTokenMessage
		status, lastError = types.ConnectionError, &msg
	}

	updated, err := s.storage.UpdateConnectionStatus(ctx, provider, status, lastError)
	if err != nil {
		return nil, storage.Classify(err, "connection")
	}

	s.logger.Infof("validated %s connection of tenant %s: %s", provider, tenantID, status)

	return updated.View(), nil
}

func (s *Service) AccessToken(ctx context.Context, tenantID, provider string) (*Credentials, error) {
	ctx, span := s.tracer.Start(ctx, "installation.Service.AccessToken")
	defer span.End()

	ctx, _, err := scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	conn, err := s.connected(ctx, provider)
	if err != nil {
		return nil, err
	}

	return s.credentials(conn)
}

// RefreshConnection swaps the tokens of a connection using its refresh token.
// A concurrent refresh that already replaced the tokens wins, its result is
// returned instead.
func (s *Service) RefreshConnection(ctx context.Context, tenantID, provider string) (*Credentials, error) {
	ctx, span := s.tracer.Start(ctx, "installation.Service.RefreshConnection")
	defer span.End()

	ctx, tenantID, err := scope(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	connector, err := s.connectors.Get(provider)
	if err != nil {
		return nil, err
	}

	conn, err := s.connected(ctx, provider)
	if err != nil {
		return nil, err
	}

	if conn.RefreshToken == nil {
		return nil, apierrors.Provider(provider+": no refresh token available", false, connectors.ErrRefreshUnsupported)
	}

	refreshToken, err := s.cipher.Decrypt(*conn.RefreshToken)
	if err != nil {
		return nil, apierrors.Internal("stored credentials are unreadable", err)
	}

	tokens, err := connector.RefreshAccessToken(ctx, refreshToken)
	if errors.Is(err, connectors.ErrRefreshUnsupported) {
		return nil, apierrors.Provider(provider+": token refresh is not supported", false, err)
	}
	if err != nil {
		if errors.Is(err, connectors.ErrAccessRejected) {
			s.markError(ctx, provider, "refresh token was rejected by the provider")
		}
		return nil, err
	}

	sealed, err := s.sealed(tokens)
	if err != nil {
		return nil, err
	}

	update := storage.TokenUpdate{
		AccessToken:    sealed.AccessToken,
		RefreshToken:   sealed.RefreshToken,
		TokenExpiresAt: sealed.TokenExpiresAt,
	}
	if update.RefreshToken == nil {
		// providers that do not rotate refresh tokens keep the current one
		update.RefreshToken = conn.RefreshToken
	}

	updated, err := s.storage.UpdateConnectionTokens(ctx, provider, conn.Version, update)
	if errors.Is(err, storage.ErrStaleVersion) {
		s.logger.Debugf("concurrent refresh of %s for tenant %s, using the newer tokens", provider, tenantID)
		return s.AccessToken(ctx, tenantID, provider)
	}
	if err != nil {
		return nil, storage.Classify(err, "connection")
	}

	return &Credentials{AccessToken: tokens.AccessToken, UserID: updated.UserID, Version: updated.Version}, nil
}

// CallbackURL is the redirect target registered with the provider.
func (s *Service) CallbackURL(tenantID, provider string) string {
	return fmt.Sprintf(
		"%s/api/v0/tenant/%s/connections/%s/callback",
		strings.TrimRight(s.baseURL, "/"),
		url.PathEscape(tenantID),
		url.PathEscape(provider),
	)
}

func (s *Service) connected(ctx context.Context, provider string) (*types.Connection, error) {
	conn, err := s.storage.GetConnection(ctx, provider)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apierrors.NotFound("no %s connection for this tenant", provider).Wrap(err)
	}
	if err != nil {
		return nil, storage.Classify(err, "connection")
	}
	if conn.Status != types.ConnectionConnected {
		return nil, apierrors.Validation(
			"connection is not usable",
			map[string]string{"provider": fmt.Sprintf("%s connection is %s", provider, conn.Status)},
		)
	}
	return conn, nil
}

func (s *Service) credentials(conn *types.Connection) (*Credentials, error) {
	accessToken, err := s.cipher.Decrypt(conn.AccessToken)
	if err != nil {
		return nil, apierrors.Internal("stored credentials are unreadable", goerr.Wrap(err, "decrypt access token", goerr.V("provider", conn.Provider)))
	}
	return &Credentials{AccessToken: accessToken, UserID: conn.UserID, Version: conn.Version}, nil
}

// sealed encrypts tokens into a connection record, plaintext never leaves
// this function.
func (s *Service) sealed(tokens *connectors.Tokens) (*types.Connection, error) {
	access, err := s.cipher.Encrypt(tokens.AccessToken)
	if err != nil {
		return nil, apierrors.Internal("failed to protect credentials", err)
	}

	conn := &types.Connection{
		ProviderAccountID: tokens.ProviderAccountID,
		AccessToken:       access,
		TokenExpiresAt:    tokens.ExpiresAt,
	}

	if tokens.RefreshToken != "" {
		refresh, err := s.cipher.Encrypt(tokens.RefreshToken)
		if err != nil {
			return nil, apierrors.Internal("failed to protect credentials", err)
		}
		conn.RefreshToken = &refresh
	}

	return conn, nil
}

func (s *Service) markError(ctx context.Context, provider, msg string) {
	if _, err := s.storage.UpdateConnectionStatus(ctx, provider, types.ConnectionError, &msg); err != nil {
		s.logger.Errorf("failed to flag %s connection as errored: %v", provider, err)
	}
}

func (s *Service) derivedView(ctx context.Context, tenantID, provider string) (*types.ConnectionView, error) {
	pending, err := s.states.Pending(ctx, tenantID, provider)
	if err != nil {
		return nil, apierrors.Internal("failed to look up pending authorization", err)
	}

	status := types.ConnectionNotConnected
	if pending {
		status = types.ConnectionPendingAuthorization
	}

	return &types.ConnectionView{TenantID: tenantID, Provider: provider, Status: status}, nil
}

func (s *Service) stateError(err error, tenantID, provider string) error {
	switch {
	case errors.Is(err, oauthstate.ErrStateConsumed):
		s.logger.Security().OAuthStateReplay(tenantID, provider)
		return apierrors.Conflict("authorization state was already used").Wrap(err)
	case errors.Is(err, oauthstate.ErrStateNotFound), errors.Is(err, oauthstate.ErrStateMismatch):
		return apierrors.Validation("invalid or expired state", map[string]string{"state": "is invalid or expired"}).Wrap(err)
	}
	return apierrors.Internal("failed to verify authorization state", err)
}

func exchangeError(err error) error {
	return apierrors.Provider("exchange failed", apierrors.IsTransient(err), err)
}

// scope binds the tenant to ctx and returns its canonical form.
func scope(ctx context.Context, tenantID string) (context.Context, string, error) {
	ctx, err := tenancy.Scope(ctx, tenantID)
	if err != nil {
		return ctx, "", err
	}
	id, _ := tenancy.FromContext(ctx)
	return ctx, id, nil
}

func NewService(
	registry connectors.RegistryInterface,
	c cipher.CipherInterface,
	s StorageInterface,
	states oauthstate.StoreInterface,
	baseURL string,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	svc := new(Service)

	svc.connectors = registry
	svc.cipher = c
	svc.storage = s
	svc.states = states
	svc.baseURL = baseURL

	svc.tracer = tracer
	svc.monitor = monitor
	svc.logger = logger

	return svc
}
