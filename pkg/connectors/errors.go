// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package connectors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/canonical/provider-sync-service/internal/apierrors"
)

var (
	ErrConnectorNotSupported = errors.New("connector not supported")
	ErrRefreshUnsupported    = errors.New("provider does not support token refresh")
	// ErrAccessRejected marks 401 and 403 answers, the access token is
	// expired or was revoked on the provider side.
	ErrAccessRejected = errors.New("provider rejected the access token")
)

// NotSupported is the client facing error for an unknown provider name.
func NotSupported(name string) error {
	return apierrors.Validation(
		"unsupported provider",
		map[string]string{"provider": fmt.Sprintf("no connector named %q", name)},
	).Wrap(ErrConnectorNotSupported)
}

// ProviderError classifies an upstream failure. status is the HTTP status
// when one was received, 0 otherwise. The summary never contains the
// provider's response body.
func ProviderError(status int, op string, err error) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apierrors.Provider(
			fmt.Sprintf("%s: access was rejected by the provider", op),
			false,
			fmt.Errorf("status %d: %w", status, ErrAccessRejected),
		)
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return apierrors.Provider(
			fmt.Sprintf("%s: provider unavailable (status %d)", op, status),
			true,
			err,
		)
	case status != 0:
		return apierrors.Provider(
			fmt.Sprintf("%s: provider request failed (status %d)", op, status),
			false,
			err,
		)
	case isTimeout(err):
		return apierrors.Provider(fmt.Sprintf("%s: provider timed out", op), true, err)
	}
	return apierrors.Provider(fmt.Sprintf("%s: provider unreachable", op), true, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
