// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
)

var _ monitoring.MonitorInterface = (*Monitor)(nil)

type Monitor struct {
	service string

	responseTime     *prometheus.HistogramVec
	dependencies     *prometheus.GaugeVec
	syncJobOutcomes  *prometheus.CounterVec
	syncPageDuration *prometheus.HistogramVec

	logger logging.LoggerInterface
}

func (m *Monitor) GetService() string {
	return m.service
}

func (m *Monitor) SetResponseTimeMetric(tags map[string]string, value float64) error {
	if m.responseTime == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.responseTime.With(m.withService(tags)).Observe(value)

	return nil
}

func (m *Monitor) SetDependencyAvailability(tags map[string]string, value float64) error {
	if m.dependencies == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.dependencies.With(m.withService(tags)).Set(value)

	return nil
}

func (m *Monitor) IncSyncJobOutcome(tags map[string]string) error {
	if m.syncJobOutcomes == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.syncJobOutcomes.With(m.withService(tags)).Inc()

	return nil
}

func (m *Monitor) SetSyncPageDuration(tags map[string]string, value float64) error {
	if m.syncPageDuration == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.syncPageDuration.With(m.withService(tags)).Observe(value)

	return nil
}

func (m *Monitor) withService(tags map[string]string) prometheus.Labels {
	labels := prometheus.Labels{"service": m.service}
	for k, v := range tags {
		labels[k] = v
	}
	return labels
}

func (m *Monitor) registerHistograms() {
	m.responseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_time_seconds",
			Help: "http_response_time_seconds",
		},
		[]string{"route", "status", "service"},
	)

	m.syncPageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_page_duration_seconds",
			Help:    "time spent fetching and storing one provider page",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"provider", "category", "service"},
	)

	for _, c := range []prometheus.Collector{m.responseTime, m.syncPageDuration} {
		if err := prometheus.Register(c); err != nil {
			m.logger.Debugf("metric already registered: %v", err)
		}
	}
}

func (m *Monitor) registerGauges() {
	m.dependencies = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dependency_available",
			Help: "dependency_available",
		},
		[]string{"component", "service"},
	)

	if err := prometheus.Register(m.dependencies); err != nil {
		m.logger.Debugf("metric already registered: %v", err)
	}
}

func (m *Monitor) registerCounters() {
	m.syncJobOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_jobs_total",
			Help: "finished sync jobs by provider and terminal status",
		},
		[]string{"provider", "status", "service"},
	)

	if err := prometheus.Register(m.syncJobOutcomes); err != nil {
		m.logger.Debugf("metric already registered: %v", err)
	}
}

func NewMonitor(service string, logger logging.LoggerInterface) *Monitor {
	m := new(Monitor)

	m.service = service
	m.logger = logger

	m.registerHistograms()
	m.registerGauges()
	m.registerCounters()

	return m
}
