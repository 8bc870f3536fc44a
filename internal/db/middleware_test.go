// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/canonical/provider-sync-service/internal/tenancy"
)

//go:generate mockgen -build_flags=--mod=mod -package db -destination ./mock_db.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package db -destination ./mock_logger.go -source=../../internal/logging/interfaces.go

const tenantID = "0190f5a2-7a1b-7c3d-8e4f-0000000000a1"

func TestTransactionMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		tenant     string
		status     int
		setupMocks func(*MockDBClientInterface, *MockLoggerInterface)
		expectTx   bool
		expectErr  bool
	}{
		{
			name:   "reads skip the transaction",
			method: http.MethodGet,
			tenant: tenantID,
			status: http.StatusOK,
		},
		{
			name:      "successful write commits in the tenant scope",
			method:    http.MethodPost,
			tenant:    tenantID,
			status:    http.StatusCreated,
			expectTx:  true,
			expectErr: false,
		},
		{
			name:      "failed write rolls back quietly",
			method:    http.MethodPost,
			tenant:    tenantID,
			status:    http.StatusConflict,
			expectTx:  true,
			expectErr: true,
		},
		{
			name:   "write without a tenant is logged",
			method: http.MethodDelete,
			status: http.StatusNoContent,
			setupMocks: func(_ *MockDBClientInterface, logger *MockLoggerInterface) {
				logger.EXPECT().Debugf(gomock.Any(), http.MethodDelete, "/members/m-1")
			},
			expectTx: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			db := NewMockDBClientInterface(ctrl)
			logger := NewMockLoggerInterface(ctrl)

			if test.setupMocks != nil {
				test.setupMocks(db, logger)
			}

			if test.expectTx {
				db.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
					func(ctx context.Context, fn func(context.Context) error) error {
						if id, _ := tenancy.FromContext(ctx); id != test.tenant {
							t.Errorf("expected the transaction to run for tenant %q, got %q", test.tenant, id)
						}

						err := fn(ctx)
						if (err != nil) != test.expectErr {
							t.Errorf("expected rollback %v, got %v", test.expectErr, err)
						}
						return err
					},
				)
			}

			handler := TransactionMiddleware(db, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.status)
			}))

			req := httptest.NewRequest(test.method, "/members/m-1", nil)
			if test.tenant != "" {
				req = req.WithContext(tenancy.WithTenant(req.Context(), test.tenant))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != test.status {
				t.Fatalf("expected status %d, got %d", test.status, rec.Code)
			}
		})
	}
}

func TestTransactionMiddlewareReportsCommitFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := NewMockDBClientInterface(ctrl)
	logger := NewMockLoggerInterface(ctrl)

	db.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			if err := fn(ctx); err != nil {
				return err
			}
			return errors.New("commit: connection reset")
		},
	)
	logger.EXPECT().Errorf(gomock.Any(), http.MethodPut, "/members/m-1", http.StatusOK, gomock.Any())

	handler := TransactionMiddleware(db, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}))

	req := httptest.NewRequest(http.MethodPut, "/members/m-1", nil)
	req = req.WithContext(tenancy.WithTenant(req.Context(), tenantID))

	handler.ServeHTTP(httptest.NewRecorder(), req)
}
