// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package kratos looks up and provisions identities for tenant invitations.
package kratos

import (
	"context"
	"fmt"
	"net/http"

	ory "github.com/ory/client-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/tracing"
)

const identitySchema = "default"

type ClientInterface interface {
	// FindIdentityByEmail returns an empty id when no identity uses the address.
	FindIdentityByEmail(ctx context.Context, email string) (string, error)
	CreateIdentity(ctx context.Context, email string) (string, error)
	GetIdentityEmail(ctx context.Context, id string) (string, error)
	CreateRecoveryLink(ctx context.Context, identityID, expiresIn string) (string, error)
}

var _ ClientInterface = (*Client)(nil)

type Client struct {
	client *ory.APIClient

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (c *Client) FindIdentityByEmail(ctx context.Context, email string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.Client.FindIdentityByEmail")
	defer span.End()

	// an empty page token works around https://github.com/ory/sdk/issues/461
	ids, r, err := c.client.IdentityAPI.ListIdentities(ctx).CredentialsIdentifier(email).PageToken("").Execute()
	if err != nil {
		if r != nil && r.StatusCode == http.StatusNotFound {
			return "", nil
		}
		c.unavailable(r)
		return "", fmt.Errorf("failed to list identities: %w", err)
	}

	if len(ids) == 0 {
		return "", nil
	}

	return ids[0].Id, nil
}

func (c *Client) CreateIdentity(ctx context.Context, email string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.Client.CreateIdentity")
	defer span.End()

	body := ory.CreateIdentityBody{
		SchemaId: identitySchema,
		Traits:   map[string]interface{}{"email": email},
	}

	identity, r, err := c.client.IdentityAPI.CreateIdentity(ctx).CreateIdentityBody(body).Execute()
	if err != nil {
		c.unavailable(r)
		return "", fmt.Errorf("failed to create identity: %w", err)
	}

	return identity.Id, nil
}

func (c *Client) GetIdentityEmail(ctx context.Context, id string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.Client.GetIdentityEmail")
	defer span.End()

	identity, r, err := c.client.IdentityAPI.GetIdentity(ctx, id).Execute()
	if err != nil {
		c.unavailable(r)
		return "", fmt.Errorf("failed to get identity: %w", err)
	}

	return EmailOf(identity), nil
}

func (c *Client) CreateRecoveryLink(ctx context.Context, identityID, expiresIn string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.Client.CreateRecoveryLink")
	defer span.End()

	body := ory.CreateRecoveryCodeForIdentityBody{
		IdentityId: identityID,
		ExpiresIn:  &expiresIn,
	}

	code, r, err := c.client.IdentityAPI.CreateRecoveryCodeForIdentity(ctx).CreateRecoveryCodeForIdentityBody(body).Execute()
	if err != nil {
		c.unavailable(r)
		return "", fmt.Errorf("failed to create recovery link: %w", err)
	}

	return code.RecoveryLink, nil
}

// unavailable flags kratos as down when the call never got an HTTP answer
// or the answer was a server error.
func (c *Client) unavailable(r *http.Response) {
	if r == nil || r.StatusCode >= http.StatusInternalServerError {
		_ = c.monitor.SetDependencyAvailability(map[string]string{"component": "kratos"}, 0)
	}
}

// EmailOf reads the email trait of an identity.
func EmailOf(identity *ory.Identity) string {
	if identity == nil {
		return ""
	}
	traits, ok := identity.Traits.(map[string]interface{})
	if !ok {
		return ""
	}
	email, _ := traits["email"].(string)
	return email
}

func NewClient(adminURL string, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Client {
	c := new(Client)

	conf := ory.NewConfiguration()
	conf.Servers = ory.ServerConfigurations{{URL: adminURL}}
	conf.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	c.client = ory.NewAPIClient(conf)

	c.tracer = tracer
	c.monitor = monitor
	c.logger = logger

	return c
}
