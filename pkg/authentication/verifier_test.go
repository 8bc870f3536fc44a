// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"
)

const testIssuer = "https://issuer.example.com"

func signToken(t *testing.T, key *rsa.PrivateKey, claims map[string]any) string {
	t.Helper()

	enc := base64.RawURLEncoding
	header, _ := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT"})
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("failed to marshal claims: %v", err)
	}

	signingInput := enc.EncodeToString(header) + "." + enc.EncodeToString(payload)
	digest := sha256.Sum256([]byte(signingInput))

	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	return signingInput + "." + enc.EncodeToString(sig)
}

func TestJWTVerifier_VerifyToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name            string
		claims          map[string]any
		config          VerifierConfig
		expectedSubject string
		expectedTenant  string
		expectErr       bool
		expectAuthzLog  bool
	}{
		{
			name:            "subject and tenant claim",
			claims:          map[string]any{"iss": testIssuer, "sub": "user-1", "exp": exp, "tenant_id": "tenant-1"},
			expectedSubject: "user-1",
			expectedTenant:  "tenant-1",
		},
		{
			name:            "required scope present",
			claims:          map[string]any{"iss": testIssuer, "sub": "user-2", "exp": exp, "scope": "openid sync"},
			config:          VerifierConfig{RequiredScope: "sync"},
			expectedSubject: "user-2",
		},
		{
			name:           "required scope missing",
			claims:         map[string]any{"iss": testIssuer, "sub": "user-3", "exp": exp, "scp": []string{"openid"}},
			config:         VerifierConfig{RequiredScope: "sync"},
			expectErr:      true,
			expectAuthzLog: true,
		},
		{
			name:            "scp as a string",
			claims:          map[string]any{"iss": testIssuer, "sub": "user-6", "exp": exp, "scp": "openid sync"},
			config:          VerifierConfig{RequiredScope: "sync"},
			expectedSubject: "user-6",
		},
		{
			name:            "allowed subject skips the scope check",
			claims:          map[string]any{"iss": testIssuer, "sub": "ci-bot", "exp": exp},
			config:          VerifierConfig{RequiredScope: "sync", AllowedSubjects: []string{"ci-bot"}},
			expectedSubject: "ci-bot",
		},
		{
			name:            "custom tenant claim",
			claims:          map[string]any{"iss": testIssuer, "sub": "user-7", "exp": exp, "tenant_id": "ignored", "org": "tenant-7"},
			config:          VerifierConfig{TenantClaim: "org"},
			expectedSubject: "user-7",
			expectedTenant:  "tenant-7",
		},
		{
			name:      "missing subject",
			claims:    map[string]any{"iss": testIssuer, "exp": exp, "tenant_id": "tenant-1"},
			expectErr: true,
		},
		{
			name:      "wrong issuer",
			claims:    map[string]any{"iss": "https://evil.example.com", "sub": "user-4", "exp": exp},
			expectErr: true,
		},
		{
			name:      "expired",
			claims:    map[string]any{"iss": testIssuer, "sub": "user-5", "exp": time.Now().Add(-time.Hour).Unix()},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			mockSecurity := NewMockSecurityLoggerInterface(ctrl)

			ctx := context.Background()
			mockTracer.EXPECT().Start(gomock.Any(), "authentication.JWTVerifier.VerifyToken").Return(ctx, trace.SpanFromContext(ctx))
			if tt.expectAuthzLog {
				mockLogger.EXPECT().Security().Return(mockSecurity)
				mockSecurity.EXPECT().AuthzFailure(tt.claims["sub"], "jwt_api_access")
			}

			keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
			idVerifier := oidc.NewVerifier(testIssuer, keySet, &oidc.Config{SkipClientIDCheck: true})

			v := newJWTVerifier(idVerifier, tt.config, mockTracer, mockMonitor, mockLogger)

			principal, err := v.VerifyToken(ctx, signToken(t, key, tt.claims))
			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got principal %+v", principal)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if principal.Subject != tt.expectedSubject {
				t.Errorf("expected subject %q, got %q", tt.expectedSubject, principal.Subject)
			}
			if principal.TenantID != tt.expectedTenant {
				t.Errorf("expected tenant %q, got %q", tt.expectedTenant, principal.TenantID)
			}
		})
	}
}

func TestNoopVerifier(t *testing.T) {
	tests := []struct {
		token   string
		subject string
		tenant  string
	}{
		{token: "user-1", subject: "user-1"},
		{token: "user-1:tenant-1", subject: "user-1", tenant: "tenant-1"},
		{token: ":tenant-1", subject: "", tenant: "tenant-1"},
	}

	for _, test := range tests {
		t.Run(test.token, func(t *testing.T) {
			p, err := NewNoopVerifier().VerifyToken(context.Background(), test.token)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Subject != test.subject || p.TenantID != test.tenant {
				t.Fatalf("expected %s/%s, got %s/%s", test.subject, test.tenant, p.Subject, p.TenantID)
			}
		})
	}
}

// newIssuer serves discovery and a key set for key from a local server.
func newIssuer(t *testing.T, key *rsa.PublicKey) *httptest.Server {
	t.Helper()

	enc := base64.RawURLEncoding
	jwks := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"n":   enc.EncodeToString(key.N.Bytes()),
			"e":   enc.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	}

	mux := chi.NewMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.Get("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 srv.URL,
			"jwks_uri":               srv.URL + "/keys",
			"authorization_endpoint": srv.URL + "/oauth2/auth",
			"token_endpoint":         srv.URL + "/oauth2/token",
		})
	})
	mux.Get("/keys", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(jwks)
	})

	return srv
}

func TestNewJWTVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	issuer := newIssuer(t, &key.PublicKey)

	tests := []struct {
		name      string
		config    VerifierConfig
		expectErr bool
	}{
		{name: "discovery", config: VerifierConfig{Issuer: issuer.URL}},
		{name: "manual key set", config: VerifierConfig{Issuer: issuer.URL, JWKSURL: issuer.URL + "/keys"}},
		{name: "missing issuer", config: VerifierConfig{}, expectErr: true},
		{name: "unreachable issuer", config: VerifierConfig{Issuer: issuer.URL + "/nowhere"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			mockLogger.EXPECT().Infof(gomock.Any(), gomock.Any()).AnyTimes()
			mockTracer.EXPECT().Start(gomock.Any(), "authentication.JWTVerifier.VerifyToken").DoAndReturn(
				func(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
					return ctx, trace.SpanFromContext(ctx)
				},
			).AnyTimes()

			v, err := NewJWTVerifier(context.Background(), tt.config, mockTracer, mockMonitor, mockLogger)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			token := signToken(t, key, map[string]any{
				"iss":       issuer.URL,
				"sub":       "user-1",
				"exp":       time.Now().Add(time.Hour).Unix(),
				"tenant_id": "tenant-1",
			})

			principal, err := v.VerifyToken(context.Background(), token)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if principal.Subject != "user-1" || principal.TenantID != "tenant-1" {
				t.Errorf("unexpected principal %+v", principal)
			}
		})
	}
}
