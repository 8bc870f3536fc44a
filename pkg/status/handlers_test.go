// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/provider-sync-service/internal/version"
)

//go:generate mockgen -build_flags=--mod=mod -package status -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package status -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package status -destination ./mock_tracer.go -source=../../internal/tracing/interfaces.go

func newTracer(ctrl *gomock.Controller) *MockTracingInterface {
	tracer := NewMockTracingInterface(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	).AnyTimes()
	return tracer
}

func TestAliveAndVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mux := chi.NewRouter()
	NewAPI(nil, newTracer(ctrl), NewMockMonitorInterface(ctrl), NewMockLoggerInterface(ctrl)).RegisterEndpoints(mux)

	for _, path := range []string{"/api/v0/status", "/api/v0/version"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected status %d, got %d", path, http.StatusOK, w.Code)
		}

		var body Status
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("%s: failed to decode response: %v", path, err)
		}
		if body.Status != "ok" {
			t.Fatalf("%s: expected ok, got %s", path, body.Status)
		}
		if path == "/api/v0/version" && body.BuildInfo != version.Version {
			t.Fatalf("expected build info %s, got %s", version.Version, body.BuildInfo)
		}
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckerInterface
		setupMocks func(*MockMonitorInterface, *MockLoggerInterface)
		wantStatus int
		wantDeps   map[string]string
	}{
		{
			name:       "no dependencies",
			setupMocks: func(*MockMonitorInterface, *MockLoggerInterface) {},
			wantStatus: http.StatusOK,
			wantDeps:   map[string]string{},
		},
		{
			name: "all dependencies reachable",
			checks: map[string]CheckerInterface{
				"database": CheckFunc(func(context.Context) error { return nil }),
				"redis":    CheckFunc(func(context.Context) error { return nil }),
			},
			setupMocks: func(m *MockMonitorInterface, _ *MockLoggerInterface) {
				m.EXPECT().SetDependencyAvailability(map[string]string{"component": "database"}, 1.0).Return(nil)
				m.EXPECT().SetDependencyAvailability(map[string]string{"component": "redis"}, 1.0).Return(nil)
			},
			wantStatus: http.StatusOK,
			wantDeps:   map[string]string{"database": "ok", "redis": "ok"},
		},
		{
			name: "database down",
			checks: map[string]CheckerInterface{
				"database": CheckFunc(func(context.Context) error { return errors.New("connection refused") }),
				"redis":    CheckFunc(func(context.Context) error { return nil }),
			},
			setupMocks: func(m *MockMonitorInterface, l *MockLoggerInterface) {
				l.EXPECT().Warnf(gomock.Any(), "database", gomock.Any())
				m.EXPECT().SetDependencyAvailability(map[string]string{"component": "database"}, 0.0).Return(nil)
				m.EXPECT().SetDependencyAvailability(map[string]string{"component": "redis"}, 1.0).Return(nil)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantDeps:   map[string]string{"database": "unavailable", "redis": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			monitor := NewMockMonitorInterface(ctrl)
			logger := NewMockLoggerInterface(ctrl)
			tt.setupMocks(monitor, logger)

			mux := chi.NewRouter()
			NewAPI(tt.checks, newTracer(ctrl), monitor, logger).RegisterEndpoints(mux)

			req := httptest.NewRequest(http.MethodGet, "/api/v0/ready", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}

			var body Readiness
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if len(body.Dependencies) != len(tt.wantDeps) {
				t.Fatalf("expected dependencies %v, got %v", tt.wantDeps, body.Dependencies)
			}
			for name, state := range tt.wantDeps {
				if body.Dependencies[name] != state {
					t.Fatalf("expected %s to be %s, got %s", name, state, body.Dependencies[name])
				}
			}
		})
	}
}
