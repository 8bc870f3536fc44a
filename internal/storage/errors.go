// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors for storage operations.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrDuplicateKey        = errors.New("duplicate key violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrTenantRequired is returned instead of running a tenant scoped query
	// without an active tenant.
	ErrTenantRequired = errors.New("tenant scope required")
	// ErrStaleVersion means a compare-and-swap lost against a newer write.
	ErrStaleVersion = errors.New("stale row version")
	// ErrIllegalTransition means the row was not in the expected status.
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrRetryLimitReached means the retry ceiling of a job is exhausted.
	ErrRetryLimitReached = errors.New("retry limit reached")
)

// PostgreSQL error codes
const (
	pgErrCodeUniqueViolation     = "23505"
	pgErrCodeForeignKeyViolation = "23503"
)

// IsDuplicateKeyError checks if the error is a PostgreSQL unique constraint violation.
func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrCodeUniqueViolation
	}
	return false
}

// IsForeignKeyViolation checks if the error is a PostgreSQL foreign key violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrCodeForeignKeyViolation
	}
	return false
}

// mapWriteError translates constraint violations into sentinel errors.
func mapWriteError(err error, op string) error {
	switch {
	case IsDuplicateKeyError(err):
		return WrapDuplicateKeyError(err, op)
	case IsForeignKeyViolation(err):
		return WrapForeignKeyError(err, op)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// WrapDuplicateKeyError wraps a duplicate key error with context about which constraint was violated.
func WrapDuplicateKeyError(err error, context string) error {
	if !IsDuplicateKeyError(err) {
		return err
	}
	return fmt.Errorf("%s: %w", context, ErrDuplicateKey)
}

// WrapForeignKeyError wraps a foreign key violation with context.
func WrapForeignKeyError(err error, context string) error {
	if !IsForeignKeyViolation(err) {
		return err
	}
	return fmt.Errorf("%s: %w", context, ErrForeignKeyViolation)
}
