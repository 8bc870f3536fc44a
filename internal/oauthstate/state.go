// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package oauthstate issues the single-use state tokens that bind an OAuth
// redirect to the tenant and provider that started it.
package oauthstate

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"
)

const tokenBytes = 32

var (
	// ErrStateNotFound covers unknown and expired tokens.
	ErrStateNotFound = errors.New("oauth state is invalid or expired")
	// ErrStateConsumed is returned when a token is presented a second time.
	ErrStateConsumed = errors.New("oauth state was already used")
	// ErrStateMismatch means the token was issued for another tenant or provider.
	ErrStateMismatch = errors.New("oauth state does not match the request")
)

// State is a pending authorization. UserID records who started it, the
// provider redirect that consumes it carries no credentials.
type State struct {
	Token     string    `json:"token"`
	TenantID  string    `json:"tenant_id"`
	Provider  string    `json:"provider"`
	UserID    string    `json:"user_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *State) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func (s *State) matches(tenantID, provider string) bool {
	return s.TenantID == tenantID && s.Provider == provider
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
