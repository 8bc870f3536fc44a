// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package installation

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/cipher"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/oauthstate"
	"github.com/canonical/provider-sync-service/internal/storage"
	"github.com/canonical/provider-sync-service/internal/storage/memory"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/internal/types"
	"github.com/canonical/provider-sync-service/pkg/authentication"
	"github.com/canonical/provider-sync-service/pkg/connectors"
)

//go:generate mockgen -build_flags=--mod=mod -package installation -destination ./mock_installation.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package installation -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package installation -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package installation -destination ./mock_tracer.go -source=../../internal/tracing/interfaces.go

const (
	tenantID = "0190f5a2-7a1b-7c3d-8e4f-0000000000a1"
	otherID  = "0190f5a2-7a1b-7c3d-8e4f-0000000000b2"
	baseURL  = "https://sync.example.com"
)

type fixture struct {
	storage   *MockStorageInterface
	connector *connectors.MockConnectorInterface
	logger    *MockLoggerInterface
	security  *MockSecurityLoggerInterface
	states    *oauthstate.MemoryStore
	cipher    *cipher.Cipher
	svc       *Service
}

func newFixture(t *testing.T, ctrl *gomock.Controller, s StorageInterface) *fixture {
	t.Helper()

	f := new(fixture)
	f.storage = NewMockStorageInterface(ctrl)
	f.connector = connectors.NewMockConnectorInterface(ctrl)
	f.logger = NewMockLoggerInterface(ctrl)
	f.security = NewMockSecurityLoggerInterface(ctrl)

	f.connector.EXPECT().Name().Return("stripe").AnyTimes()
	f.connector.EXPECT().DisplayName().Return("Stripe").AnyTimes()

	f.logger.EXPECT().Security().Return(f.security).AnyTimes()
	f.logger.EXPECT().Debugf(gomock.Any(), gomock.Any()).AnyTimes()
	f.logger.EXPECT().Infof(gomock.Any(), gomock.Any()).AnyTimes()
	f.logger.EXPECT().Warnf(gomock.Any(), gomock.Any()).AnyTimes()
	f.logger.EXPECT().Errorf(gomock.Any(), gomock.Any()).AnyTimes()

	tracer := NewMockTracingInterface(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	).AnyTimes()

	registry, err := connectors.NewRegistry(f.connector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.cipher, err = cipher.NewCipher("test-secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.states = oauthstate.NewMemoryStore(time.Minute, tracing.NewNoopTracer(), f.logger)

	if s == nil {
		s = f.storage
	}

	f.svc = NewService(registry, f.cipher, s, f.states, baseURL, tracer, monitoring.NewNoopMonitor("test", f.logger), f.logger)

	return f
}

func (f *fixture) seal(t *testing.T, plaintext string) string {
	t.Helper()

	c, err := f.cipher.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func stateOf(t *testing.T, authURL string) string {
	t.Helper()

	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return u.Query().Get("state")
}

func expectKind(t *testing.T, err error, kind apierrors.Kind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected a %s error, got nil", kind)
	}
	if apierrors.KindOf(err) != kind {
		t.Fatalf("expected a %s error, got %s: %v", kind, apierrors.KindOf(err), err)
	}
}

func TestInstallFlowStateIsSingleUse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	logger := logging.NewNoopLogger()
	store := memory.NewStore(tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)

	tenant, err := store.CreateTenant(context.Background(), &types.Tenant{Name: "T1", Enabled: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := newFixture(t, ctrl, store)
	redirect := f.svc.CallbackURL(tenant.ID, "stripe")

	f.connector.EXPECT().AuthorizationURL(gomock.Any(), redirect).DoAndReturn(
		func(state, redirectURI string) (string, error) {
			return "https://connect.stripe.com/oauth/authorize?" + url.Values{"state": {state}, "redirect_uri": {redirectURI}}.Encode(), nil
		},
	)
	f.connector.EXPECT().ExchangeCode(gomock.Any(), "abc", redirect).Return(&connectors.Tokens{
		AccessToken:       "sk_live_plain",
		RefreshToken:      "rt_plain",
		ProviderAccountID: "acct_1",
	}, nil)
	f.security.EXPECT().CredentialStored(tenant.ID, "stripe")
	f.security.EXPECT().OAuthStateReplay(tenant.ID, "stripe")

	ctx := context.Background()

	authURL, err := f.svc.InitiateConnection(ctx, tenant.ID, "stripe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state := stateOf(t, authURL)

	view, err := f.svc.GetConnection(ctx, tenant.ID, "stripe")
	if err != nil || view.Status != types.ConnectionPendingAuthorization {
		t.Fatalf("expected a pending authorization, got %+v, %v", view, err)
	}

	view, err = f.svc.HandleOAuthCallback(ctx, tenant.ID, "stripe", "abc", state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != types.ConnectionConnected || view.ProviderAccountID != "acct_1" {
		t.Fatalf("unexpected connection %+v", view)
	}

	_, err = f.svc.HandleOAuthCallback(ctx, tenant.ID, "stripe", "abc", state)
	expectKind(t, err, apierrors.KindConflict)

	stored, err := store.GetConnection(tenancy.WithTenant(ctx, tenant.ID), "stripe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.AccessToken == "sk_live_plain" || *stored.RefreshToken == "rt_plain" {
		t.Fatal("tokens were stored in plaintext")
	}
	if plain, _ := f.cipher.Decrypt(stored.AccessToken); plain != "sk_live_plain" {
		t.Fatalf("stored access token does not decrypt, got %q", plain)
	}
}

func TestInitiateConnection(t *testing.T) {
	tests := []struct {
		name     string
		tenantID string
		provider string
		wantKind apierrors.Kind
	}{
		{name: "unknown provider", tenantID: tenantID, provider: "square", wantKind: apierrors.KindValidation},
		{name: "malformed tenant", tenantID: "not-a-uuid", provider: "stripe", wantKind: apierrors.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			f := newFixture(t, ctrl, nil)

			_, err := f.svc.InitiateConnection(context.Background(), tt.tenantID, tt.provider)
			expectKind(t, err, tt.wantKind)
		})
	}
}

func TestInitiateConnectionRejectsForeignScope(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl, nil)

	ctx := tenancy.WithTenant(context.Background(), otherID)
	_, err := f.svc.InitiateConnection(ctx, tenantID, "stripe")
	expectKind(t, err, apierrors.KindForbidden)
}

func TestHandleOAuthCallback(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		state      func(*fixture) string
		setupMocks func(*fixture)
		wantKind   apierrors.Kind
	}{
		{
			name:     "missing code",
			state:    func(*fixture) string { return "s" },
			wantKind: apierrors.KindValidation,
		},
		{
			name:     "unknown state",
			code:     "abc",
			state:    func(*fixture) string { return "forged" },
			wantKind: apierrors.KindValidation,
		},
		{
			name: "state issued for another tenant",
			code: "abc",
			state: func(f *fixture) string {
				s, _ := f.states.Issue(context.Background(), otherID, "stripe", "user-1")
				return s.Token
			},
			wantKind: apierrors.KindValidation,
		},
		{
			name: "exchange failure is redacted",
			code: "abc",
			state: func(f *fixture) string {
				s, _ := f.states.Issue(context.Background(), tenantID, "stripe", "user-1")
				return s.Token
			},
			setupMocks: func(f *fixture) {
				f.connector.EXPECT().ExchangeCode(gomock.Any(), "abc", gomock.Any()).
					Return(nil, connectors.ProviderError(400, "stripe code exchange", errors.New("invalid_grant: raw provider payload")))
			},
			wantKind: apierrors.KindProvider,
		},
		{
			name: "account linked to another tenant",
			code: "abc",
			state: func(f *fixture) string {
				s, _ := f.states.Issue(context.Background(), tenantID, "stripe", "user-1")
				return s.Token
			},
			setupMocks: func(f *fixture) {
				f.connector.EXPECT().ExchangeCode(gomock.Any(), "abc", gomock.Any()).
					Return(&connectors.Tokens{AccessToken: "tok", ProviderAccountID: "acct_taken"}, nil)
				f.storage.EXPECT().UpsertConnection(gomock.Any(), gomock.Any()).
					Return(nil, storage.ErrDuplicateKey)
			},
			wantKind: apierrors.KindConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			f := newFixture(t, ctrl, nil)
			if tt.setupMocks != nil {
				tt.setupMocks(f)
			}

			_, err := f.svc.HandleOAuthCallback(context.Background(), tenantID, "stripe", tt.code, tt.state(f))
			expectKind(t, err, tt.wantKind)

			if msg := apierrors.PublicMessage(err, false); msg == "" || strings.Contains(msg, "raw provider payload") {
				t.Fatalf("unexpected public message %q", msg)
			}
		})
	}
}

func TestUpsertedConnectionCarriesCiphertext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl, nil)
	state, _ := f.states.Issue(context.Background(), tenantID, "stripe", "user-1")

	f.connector.EXPECT().ExchangeCode(gomock.Any(), "abc", gomock.Any()).
		Return(&connectors.Tokens{AccessToken: "plain-access", ProviderAccountID: "acct_1"}, nil)
	f.storage.EXPECT().UpsertConnection(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, c *types.Connection) (*types.Connection, error) {
			if id, _ := tenancy.FromContext(ctx); id != tenantID {
				t.Fatalf("upsert ran outside the tenant scope: %q", id)
			}
			if c.AccessToken == "plain-access" || c.RefreshToken != nil {
				t.Fatalf("unexpected credentials %+v", c)
			}
			c.TenantID = tenantID
			return c, nil
		},
	)
	f.security.EXPECT().CredentialStored(tenantID, "stripe")

	view, err := f.svc.HandleOAuthCallback(context.Background(), tenantID, "stripe", "abc", state.Token)
	if err != nil || view.Status != types.ConnectionConnected {
		t.Fatalf("unexpected result %+v, %v", view, err)
	}
}

func TestCallbackAttributesConnectionToInitiatingUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	logger := logging.NewNoopLogger()
	store := memory.NewStore(tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)

	tenant, err := store.CreateTenant(context.Background(), &types.Tenant{Name: "T1", Enabled: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := newFixture(t, ctrl, store)

	f.connector.EXPECT().AuthorizationURL(gomock.Any(), gomock.Any()).DoAndReturn(
		func(state, redirectURI string) (string, error) {
			return "https://connect.stripe.com/oauth/authorize?" + url.Values{"state": {state}}.Encode(), nil
		},
	)
	f.connector.EXPECT().ExchangeCode(gomock.Any(), "abc", gomock.Any()).
		Return(&connectors.Tokens{AccessToken: "tok", ProviderAccountID: "acct_1"}, nil)
	f.security.EXPECT().CredentialStored(tenant.ID, "stripe")

	authURL, err := f.svc.InitiateConnection(authentication.WithUserID(context.Background(), "user-1"), tenant.ID, "stripe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// the provider redirect is anonymous
	if _, err := f.svc.HandleOAuthCallback(context.Background(), tenant.ID, "stripe", "abc", stateOf(t, authURL)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := store.GetConnection(tenancy.WithTenant(context.Background(), tenant.ID), "stripe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.UserID != "user-1" {
		t.Fatalf("expected the connection to belong to user-1, got %q", stored.UserID)
	}
}

func TestGetConnection(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl, nil)
	f.storage.EXPECT().GetConnection(gomock.Any(), "stripe").Return(nil, storage.ErrNotFound)

	view, err := f.svc.GetConnection(context.Background(), tenantID, "stripe")
	if err != nil || view.Status != types.ConnectionNotConnected {
		t.Fatalf("expected not connected, got %+v, %v", view, err)
	}
}

func TestListConnectionsCoversEveryConnector(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl, nil)
	f.storage.EXPECT().ListConnections(gomock.Any()).Return([]*types.Connection{}, nil)

	views, err := f.svc.ListConnections(context.Background(), tenantID)
	if err != nil || len(views) != 1 || views[0].Provider != "stripe" || views[0].Status != types.ConnectionNotConnected {
		t.Fatalf("unexpected views %+v, %v", views, err)
	}
}

func TestDisconnect(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*testing.T, *fixture)
		wantKind   *apierrors.Kind
	}{
		{
			name: "revoke failure still drops credentials",
			setupMocks: func(t *testing.T, f *fixture) {
				f.storage.EXPECT().GetConnection(gomock.Any(), "stripe").Return(&types.Connection{
					Provider:          "stripe",
					ProviderAccountID: "acct_1",
					AccessToken:       f.seal(t, "plain"),
					Status:            types.ConnectionConnected,
				}, nil)
				f.connector.EXPECT().RevokeAccess(gomock.Any(), "plain", "acct_1").Return(errors.New("upstream down"))
				f.storage.EXPECT().DisconnectConnection(gomock.Any(), "stripe").Return(&types.Connection{Status: types.ConnectionDisconnected}, nil)
				f.security.EXPECT().CredentialRevoked(tenantID, "stripe")
			},
		},
		{
			name: "already disconnected",
			setupMocks: func(t *testing.T, f *fixture) {
				f.storage.EXPECT().GetConnection(gomock.Any(), "stripe").Return(&types.Connection{Status: types.ConnectionDisconnected}, nil)
			},
		},
		{
			name: "no connection",
			setupMocks: func(t *testing.T, f *fixture) {
				f.storage.EXPECT().GetConnection(gomock.Any(), "stripe").Return(nil, storage.ErrNotFound)
			},
			wantKind: kindPtr(apierrors.KindNotFound),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			f := newFixture(t, ctrl, nil)
			tt.setupMocks(t, f)

			err := f.svc.Disconnect(context.Background(), tenantID, "stripe")
			if tt.wantKind == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			expectKind(t, err, *tt.wantKind)
		})
	}
}

func kindPtr(k apierrors.Kind) *apierrors.Kind {
	return &k
}

func TestValidateConnection(t *testing.T) {
	tests := []struct {
		name       string
		valid      bool
		wantStatus types.ConnectionStatus
	}{
		{name: "token still valid", valid: true, wantStatus: types.ConnectionConnected},
		{name: "token rejected", valid: false, wantStatus: types.ConnectionError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			f := newFixture(t, ctrl, nil)
			f.storage.EXPECT().GetConnection(gomock.Any(), "stripe").Return(&types.Connection{
				Provider:    "stripe",
				AccessToken: f.seal(t, "plain"),
				Status:      types.ConnectionConnected,
			}, nil)
			f.connector.EXPECT().ValidateConnection(gomock.Any(), "plain").Return(tt.valid, nil)
			f.storage.EXPECT().UpdateConnectionStatus(gomock.Any(), "stripe", tt.wantStatus, gomock.Any()).
				DoAndReturn(func(_ context.Context, provider string, status types.ConnectionStatus, lastError *string) (*types.Connection, error) {
					if (lastError != nil) == tt.valid {
						t.Fatalf("unexpected last error %v", lastError)
					}
					return &types.Connection{Provider: provider, Status: status, LastError: lastError}, nil
				})

			view, err := f.svc.ValidateConnection(context.Background(), tenantID, "stripe")
			if err != nil || view.Status != tt.wantStatus {
				t.Fatalf("unexpected result %+v, %v", view, err)
			}
		})
	}
}

func TestAccessTokenRequiresConnectedStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl, nil)
	f.storage.EXPECT().GetConnection(gomock.Any(), "stripe").Return(&types.Connection{Status: types.ConnectionError}, nil)

	_, err := f.svc.AccessToken(context.Background(), tenantID, "stripe")
	expectKind(t, err, apierrors.KindValidation)
}

func TestRefreshConnectionLosesRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl, nil)
	refresh := f.seal(t, "rt_old")

	gomock.InOrder(
		f.storage.EXPECT().GetConnection(gomock.Any(), "stripe").Return(&types.Connection{
			Provider:     "stripe",
			AccessToken:  f.seal(t, "at_old"),
			RefreshToken: &refresh,
			Status:       types.ConnectionConnected,
			Version:      3,
		}, nil),
		f.storage.EXPECT().UpdateConnectionTokens(gomock.Any(), "stripe", int64(3), gomock.Any()).Return(nil, storage.ErrStaleVersion),
		f.storage.EXPECT().GetConnection(gomock.Any(), "stripe").Return(&types.Connection{
			Provider:    "stripe",
			AccessToken: f.seal(t, "at_winner"),
			Status:      types.ConnectionConnected,
			Version:     4,
		}, nil),
	)
	f.connector.EXPECT().RefreshAccessToken(gomock.Any(), "rt_old").Return(&connectors.Tokens{AccessToken: "at_mine"}, nil)

	creds, err := f.svc.RefreshConnection(context.Background(), tenantID, "stripe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.AccessToken != "at_winner" || creds.Version != 4 {
		t.Fatalf("expected the concurrent refresh to win, got %+v", creds)
	}
}

func TestRefreshConnectionKeepsRefreshToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl, nil)
	refresh := f.seal(t, "rt")

	f.storage.EXPECT().GetConnection(gomock.Any(), "stripe").Return(&types.Connection{
		Provider:     "stripe",
		AccessToken:  f.seal(t, "at_old"),
		RefreshToken: &refresh,
		Status:       types.ConnectionConnected,
		Version:      1,
	}, nil)
	f.connector.EXPECT().RefreshAccessToken(gomock.Any(), "rt").Return(&connectors.Tokens{AccessToken: "at_new"}, nil)
	f.storage.EXPECT().UpdateConnectionTokens(gomock.Any(), "stripe", int64(1), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, _ int64, update storage.TokenUpdate) (*types.Connection, error) {
			if update.RefreshToken == nil || *update.RefreshToken != refresh {
				t.Fatalf("expected the current refresh token to be kept, got %v", update.RefreshToken)
			}
			return &types.Connection{Version: 2, UserID: "user-1"}, nil
		},
	)

	creds, err := f.svc.RefreshConnection(context.Background(), tenantID, "stripe")
	if err != nil || creds.AccessToken != "at_new" || creds.Version != 2 || creds.UserID != "user-1" {
		t.Fatalf("unexpected result %+v, %v", creds, err)
	}
}

func TestCallbackURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl, nil)

	want := baseURL + "/api/v0/tenant/" + tenantID + "/connections/stripe/callback"
	if got := f.svc.CallbackURL(tenantID, "stripe"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
