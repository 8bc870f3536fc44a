// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"
	"fmt"

	"github.com/ory/hydra/v2/oauth2"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/tracing"
)

const (
	tenantClaim  = "tenant_id"
	tenantsClaim = "tenants"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	tenants TenantsInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	tenants TenantsInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		tenants: tenants,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

// HandleRegistration gives a newly registered identity its own tenant. Kratos
// retries hooks, an identity that already belongs to a tenant is left alone.
func (s *Service) HandleRegistration(ctx context.Context, identityID, email string) error {
	ctx, span := s.tracer.Start(ctx, "webhooks.Service.HandleRegistration")
	defer span.End()

	s.logger.Debugf("handling registration for identity %s", identityID)

	fields := make(map[string]string)
	if identityID == "" {
		fields["id"] = "is required"
	}
	if email == "" {
		fields["traits.email"] = "is required"
	}
	if len(fields) > 0 {
		return apierrors.Validation("invalid identity", fields)
	}

	existing, err := s.tenants.ListUserTenants(ctx, identityID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		s.logger.Debugf("identity %s already belongs to %d tenants", identityID, len(existing))
		return nil
	}

	t, err := s.tenants.ProvisionTenant(ctx, fmt.Sprintf("%s's Org", email), identityID)
	if err != nil {
		return err
	}

	s.logger.Infof("provisioned tenant %s for identity %s", t.ID, identityID)
	return nil
}

// HandleTokenHook adds the caller's tenants to the issued tokens. tenant_id
// is only set when the choice is unambiguous.
func (s *Service) HandleTokenHook(ctx context.Context, req *oauth2.TokenHookRequest) (*TokenHookResponse, error) {
	ctx, span := s.tracer.Start(ctx, "webhooks.Service.HandleTokenHook")
	defer span.End()

	if req == nil || req.Session == nil || req.Session.DefaultSession == nil || req.Session.DefaultSession.Subject == "" {
		return nil, apierrors.Validation("invalid token hook request", map[string]string{"session.id_token.subject": "is required"})
	}
	subject := req.Session.DefaultSession.Subject

	tenants, err := s.tenants.ListUserTenants(ctx, subject)
	if err != nil {
		return nil, err
	}

	s.logger.Debugf("subject %s belongs to %d tenants", subject, len(tenants))

	resp := new(TokenHookResponse)
	if len(tenants) == 0 {
		return resp, nil
	}

	ids := make([]string, 0, len(tenants))
	for _, t := range tenants {
		ids = append(ids, t.ID)
	}

	claims := map[string]interface{}{tenantsClaim: ids}
	if len(ids) == 1 {
		claims[tenantClaim] = ids[0]
	}

	resp.Session.IDToken = claims
	resp.Session.AccessToken = claims

	return resp, nil
}
