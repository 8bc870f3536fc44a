// Copyright 2025 Canonical Ltd
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"errors"

	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/storage"
	"github.com/canonical/provider-sync-service/internal/tenancy"
	"github.com/canonical/provider-sync-service/internal/tracing"
)

// ErrNotMember is returned by Check when the user holds no role in the tenant.
var ErrNotMember = errors.New("user is not a member of the tenant")

var _ AuthorizerInterface = (*Authorizer)(nil)

// Authorizer grants permissions from the role a user holds in a tenant.
type Authorizer struct {
	memberships MembershipsInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *Authorizer) Check(ctx context.Context, userID, permission string) (bool, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.Check")
	defer span.End()

	m, err := a.memberships.GetMembership(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, ErrNotMember
	}
	if err != nil {
		return false, err
	}

	allowed := Allowed(m.Role, permission)
	if !allowed {
		a.logger.Debugf("role %s of %s does not grant %s", m.Role, userID, permission)
	}

	return allowed, nil
}

func (a *Authorizer) CheckTenantAccess(ctx context.Context, tenantID, userID, permission string) (bool, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.CheckTenantAccess")
	defer span.End()

	ctx, err := tenancy.Scope(ctx, tenantID)
	if err != nil {
		return false, err
	}

	return a.Check(ctx, userID, permission)
}

func NewAuthorizer(memberships MembershipsInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Authorizer {
	authorizer := new(Authorizer)
	authorizer.memberships = memberships
	authorizer.tracer = tracer
	authorizer.monitor = monitor
	authorizer.logger = logger

	return authorizer
}
