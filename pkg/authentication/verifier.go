// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/tracing"
)

const DefaultTenantClaim = "tenant_id"

var (
	otelHTTPClient = http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	ErrMissingSubject = errors.New("token carries no subject")
	ErrScopeDenied    = errors.New("unauthorized: missing required scope or subject not allowed")
)

// VerifierConfig describes where signing keys come from and which claims make
// a token acceptable. Keys are fetched from JWKSURL when set, otherwise from
// the jwks_uri the issuer advertises through discovery.
type VerifierConfig struct {
	Issuer  string
	JWKSURL string

	// TenantClaim names the claim holding the caller's tenant, it defaults
	// to tenant_id.
	TenantClaim string

	// RequiredScope is waived for AllowedSubjects.
	RequiredScope   string
	AllowedSubjects []string
}

type JWTVerifier struct {
	verifier *oidc.IDTokenVerifier
	config   VerifierConfig

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (v *JWTVerifier) VerifyToken(ctx context.Context, rawToken string) (*Principal, error) {
	ctx, span := v.tracer.Start(ctx, "authentication.JWTVerifier.VerifyToken")
	defer span.End()

	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	claims := make(map[string]any)
	if err := token.Claims(&claims); err != nil {
		v.logger.Debugf("Failed to extract claims: %v", err)
		return nil, err
	}

	if token.Subject == "" {
		return nil, ErrMissingSubject
	}

	principal := &Principal{Subject: token.Subject}
	principal.TenantID, _ = claims[v.config.TenantClaim].(string)

	if !v.permitted(token.Subject, claims) {
		v.logger.Security().AuthzFailure(token.Subject, "jwt_api_access")
		return nil, ErrScopeDenied
	}

	return principal, nil
}

func (v *JWTVerifier) permitted(subject string, claims map[string]any) bool {
	if v.config.RequiredScope == "" || slices.Contains(v.config.AllowedSubjects, subject) {
		return true
	}

	if scope, ok := claims["scope"].(string); ok && slices.Contains(strings.Fields(scope), v.config.RequiredScope) {
		return true
	}

	// scp is a list with some issuers and a space separated string with others
	switch scp := claims["scp"].(type) {
	case string:
		return slices.Contains(strings.Fields(scp), v.config.RequiredScope)
	case []any:
		for _, s := range scp {
			if s == v.config.RequiredScope {
				return true
			}
		}
	}

	return false
}

// NewJWTVerifier resolves the issuer's signing keys and returns a verifier
// for its access tokens.
func NewJWTVerifier(ctx context.Context, config VerifierConfig, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*JWTVerifier, error) {
	if config.Issuer == "" {
		return nil, fmt.Errorf("issuer is required for JWT authentication")
	}

	ctx = oidc.ClientContext(ctx, &otelHTTPClient)
	oidcConfig := &oidc.Config{SkipClientIDCheck: true}

	var verifier *oidc.IDTokenVerifier
	if config.JWKSURL != "" {
		logger.Infof("Using manual JWKS URL: %s", config.JWKSURL)
		verifier = oidc.NewVerifier(config.Issuer, oidc.NewRemoteKeySet(ctx, config.JWKSURL), oidcConfig)
	} else {
		logger.Infof("Using OIDC discovery for issuer: %s", config.Issuer)
		provider, err := oidc.NewProvider(ctx, config.Issuer)
		if err != nil {
			return nil, fmt.Errorf("failed to create OIDC provider: %v", err)
		}
		verifier = provider.Verifier(oidcConfig)
	}

	return newJWTVerifier(verifier, config, tracer, monitor, logger), nil
}

func newJWTVerifier(verifier *oidc.IDTokenVerifier, config VerifierConfig, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *JWTVerifier {
	if config.TenantClaim == "" {
		config.TenantClaim = DefaultTenantClaim
	}

	v := new(JWTVerifier)
	v.verifier = verifier
	v.config = config
	v.tracer = tracer
	v.monitor = monitor
	v.logger = logger

	return v
}
