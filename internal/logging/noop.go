// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"go.uber.org/zap"
)

// NewNoopLogger discards application and security events alike. Tests and
// the in-memory stack use it where log output is not asserted.
func NewNoopLogger() *Logger {
	z := zap.NewNop()

	return &Logger{
		SugaredLogger: z.Sugar(),
		security:      newSecurityLogger(z),
	}
}
