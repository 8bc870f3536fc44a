// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package queue

import (
	"context"
)

// JobHandlerInterface runs one dispatched sync job.
type JobHandlerInterface interface {
	ProcessJob(ctx context.Context, jobID string) error
}
