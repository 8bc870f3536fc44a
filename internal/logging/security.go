// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"fmt"

	"go.uber.org/zap"
)

const appID = "provider-sync-service"

var _ SecurityLoggerInterface = (*SecurityLogger)(nil)

type SecurityLogger struct {
	l *zap.Logger
}

func (s *SecurityLogger) event(level, event, description string, fields ...zap.Field) {
	fields = append(
		fields,
		zap.String("type", "security"),
		zap.String("appid", appID),
		zap.String("event", event),
		zap.String("level", level),
		zap.String("description", description),
	)

	switch level {
	case "CRITICAL", "WARN":
		s.l.Warn(description, fields...)
	default:
		s.l.Info(description, fields...)
	}
}

func (s *SecurityLogger) SystemStartup() {
	s.event("WARN", "sys_startup", fmt.Sprintf("%s is starting", appID))
}

func (s *SecurityLogger) SystemShutdown() {
	s.event("WARN", "sys_shutdown", fmt.Sprintf("%s is shutting down", appID))
}

func (s *SecurityLogger) AuthnFailure(reason string) {
	s.event("WARN", "authn_login_fail", "authentication failed", zap.String("reason", reason))
}

func (s *SecurityLogger) AuthzFailure(userID, resource string) {
	s.event(
		"CRITICAL",
		fmt.Sprintf("authz_fail:%s,%s", userID, resource),
		fmt.Sprintf("user %s attempted to access %s without entitlement", userID, resource),
	)
}

func (s *SecurityLogger) TenantMismatch(userID, requestedTenant string) {
	s.event(
		"CRITICAL",
		fmt.Sprintf("authz_tenant_mismatch:%s,%s", userID, requestedTenant),
		fmt.Sprintf("user %s is not a member of tenant %s", userID, requestedTenant),
	)
}

func (s *SecurityLogger) CredentialStored(tenantID, provider string) {
	s.event(
		"INFO",
		fmt.Sprintf("sensitive_create:%s,%s", tenantID, provider),
		fmt.Sprintf("provider credentials stored for tenant %s", tenantID),
	)
}

func (s *SecurityLogger) CredentialRevoked(tenantID, provider string) {
	s.event(
		"WARN",
		fmt.Sprintf("sensitive_delete:%s,%s", tenantID, provider),
		fmt.Sprintf("provider credentials removed for tenant %s", tenantID),
	)
}

func (s *SecurityLogger) OAuthStateReplay(tenantID, provider string) {
	s.event(
		"CRITICAL",
		fmt.Sprintf("authn_token_reuse:%s,%s", tenantID, provider),
		"an already consumed oauth state token was presented again",
	)
}

func newSecurityLogger(l *zap.Logger) *SecurityLogger {
	return &SecurityLogger{l: l}
}
