// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
)

// CheckerInterface reports whether a dependency the service relies on is reachable.
type CheckerInterface interface {
	Check(context.Context) error
}

// CheckFunc adapts a plain function to CheckerInterface.
type CheckFunc func(context.Context) error

func (f CheckFunc) Check(ctx context.Context) error {
	return f(ctx)
}
