// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package monitoring

type MonitorInterface interface {
	GetService() string
	SetResponseTimeMetric(map[string]string, float64) error
	SetDependencyAvailability(map[string]string, float64) error
	// IncSyncJobOutcome counts finished sync jobs, labels are provider and status.
	IncSyncJobOutcome(map[string]string) error
	// SetSyncPageDuration records the time spent fetching and storing one provider page.
	SetSyncPageDuration(map[string]string, float64) error
}
