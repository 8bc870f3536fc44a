// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package processor

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultBackoffBase = 30 * time.Second
	DefaultBackoffMax  = 15 * time.Minute
	DefaultPageTimeout = 30 * time.Second
)

// RetryPolicy spaces out automatic retries of transiently failed jobs.
type RetryPolicy struct {
	Base time.Duration
	Max  time.Duration
}

// Backoff is the delay before attempt retry (1 based): Base * 2^(retry-1),
// never more than Max. Retries are scheduled as new jobs, so the schedule is
// deterministic and carries no jitter.
func (p RetryPolicy) Backoff(retry int) time.Duration {
	b := p.schedule()

	delay := b.NextBackOff()
	for i := 1; i < retry; i++ {
		delay = b.NextBackOff()
	}

	return min(delay, b.MaxInterval)
}

func (p RetryPolicy) schedule() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Base
	b.MaxInterval = p.Max
	b.Multiplier = 2
	b.RandomizationFactor = 0

	if b.InitialInterval <= 0 {
		b.InitialInterval = DefaultBackoffBase
	}
	if b.MaxInterval <= 0 {
		b.MaxInterval = DefaultBackoffMax
	}
	b.Reset()

	return b
}
