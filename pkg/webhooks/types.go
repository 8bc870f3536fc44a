// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

type KratosIdentity struct {
	ID     string       `json:"id"`
	Traits KratosTraits `json:"traits"`
}

type KratosTraits struct {
	Email string `json:"email"`
}

// TokenHookSession carries the claims hydra merges into the issued tokens.
type TokenHookSession struct {
	IDToken     map[string]interface{} `json:"id_token,omitempty"`
	AccessToken map[string]interface{} `json:"access_token,omitempty"`
}

type TokenHookResponse struct {
	Session TokenHookSession `json:"session"`
}
