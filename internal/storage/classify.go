// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"errors"

	"github.com/canonical/provider-sync-service/internal/apierrors"
)

// Classify maps storage sentinels onto the API error taxonomy. resource
// names the record in client facing messages.
func Classify(err error, resource string) error {
	var apiErr *apierrors.Error

	switch {
	case err == nil:
		return nil
	case errors.As(err, &apiErr):
		return err
	case errors.Is(err, ErrNotFound):
		return apierrors.NotFound("%s not found", resource).Wrap(err)
	case errors.Is(err, ErrDuplicateKey):
		return apierrors.Conflict("%s already exists", resource).Wrap(err)
	case errors.Is(err, ErrStaleVersion):
		return apierrors.Conflict("%s was modified concurrently", resource).Wrap(err)
	case errors.Is(err, ErrForeignKeyViolation):
		return apierrors.NotFound("tenant not found").Wrap(err)
	case errors.Is(err, ErrTenantRequired):
		return apierrors.Unauthorized("tenant context is required").Wrap(err)
	}
	return apierrors.Internal("storage failure", err)
}
