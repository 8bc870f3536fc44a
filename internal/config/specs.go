// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"true"`

	LogLevel         string `envconfig:"log_level" default:"error"`
	Debug            bool   `envconfig:"debug" default:"false"`
	DiagnosticErrors bool   `envconfig:"diagnostic_errors" default:"false"`

	Port int `envconfig:"port" default:"8080"`

	// DSN memory:// keeps every record in process, for development only
	DSN string `envconfig:"DSN" required:"true"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	CredentialsSecret string        `envconfig:"credentials_secret" required:"true"`
	PublicBaseURL     string        `envconfig:"public_base_url" default:"http://localhost:8080"`
	OAuthStateTTL     time.Duration `envconfig:"oauth_state_ttl" default:"10m"`

	RedisAddr     string `envconfig:"redis_addr"`
	RedisPassword string `envconfig:"redis_password"`
	RedisDB       int    `envconfig:"redis_db" default:"0"`

	AMQPURL string `envconfig:"amqp_url"`

	SyncMaxRetries  int           `envconfig:"sync_max_retries" default:"3"`
	SyncBackoffBase time.Duration `envconfig:"sync_backoff_base" default:"30s"`
	SyncBackoffMax  time.Duration `envconfig:"sync_backoff_max" default:"15m"`
	SyncPageTimeout time.Duration `envconfig:"sync_page_timeout" default:"30s"`
	SyncWorkers     int64         `envconfig:"sync_workers" default:"4"`
	SyncStaleAfter  time.Duration `envconfig:"sync_stale_after" default:"15m"`

	StripeClientID     string `envconfig:"stripe_client_id"`
	StripeClientSecret string `envconfig:"stripe_client_secret"`
	StripeAPIURL       string `envconfig:"stripe_api_url" default:"https://api.stripe.com"`
	StripeConnectURL   string `envconfig:"stripe_connect_url" default:"https://connect.stripe.com"`

	PaypalClientID     string `envconfig:"paypal_client_id"`
	PaypalClientSecret string `envconfig:"paypal_client_secret"`
	PaypalAPIURL       string `envconfig:"paypal_api_url" default:"https://api-m.paypal.com"`
	PaypalAuthURL      string `envconfig:"paypal_auth_url" default:"https://www.paypal.com"`

	AuthenticationEnabled         bool     `envconfig:"authentication_enabled" default:"false"`
	AuthenticationIssuer          string   `envconfig:"authentication_issuer"`
	AuthenticationJWKSURL         string   `envconfig:"authentication_jwks_url"`
	AuthenticationTenantClaim     string   `envconfig:"authentication_tenant_claim" default:"tenant_id"`
	AuthenticationRequiredScope   string   `envconfig:"authentication_required_scope"`
	AuthenticationAllowedSubjects []string `envconfig:"authentication_allowed_subjects"`

	AppAdminSubjects []string `envconfig:"app_admin_subjects"`
	KratosAdminURL   string   `envconfig:"kratos_admin_url"`

	InvitationLifetime string `envconfig:"invitation_lifetime" default:"24h"`
}
