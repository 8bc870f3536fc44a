// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/tenancy"
)

var errRequestFailed = errors.New("request failed")

// TransactionMiddleware runs every write request in a single transaction that
// commits when the handler answers below 400.
//
// The transaction starts lazily on the first statement. That statement is
// preceded by set_config('app.tenant_id', ...) with the tenant that the tenancy
// middleware put in the request context, so row level security checks the same
// tenant the handler was scoped to. Handlers re-scoping the context to another
// tenant re-run set_config before their next statement. A request that reaches
// this middleware without a tenant runs unscoped and relies on the storage
// layer rejecting it.
func TransactionMiddleware(db DBClientInterface, logger logging.LoggerInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			if _, ok := tenancy.FromContext(ctx); !ok {
				logger.Debugf("%s %s opens a transaction without a tenant", r.Method, r.URL.Path)
			}

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			err := db.WithTx(ctx, func(txCtx context.Context) error {
				next.ServeHTTP(rw, r.WithContext(txCtx))

				if rw.statusCode >= http.StatusBadRequest {
					return fmt.Errorf("%w with status %d", errRequestFailed, rw.statusCode)
				}
				return nil
			})

			// the response is already written, a failed commit can only be reported
			if err != nil && !errors.Is(err, errRequestFailed) {
				logger.Errorf("transaction of %s %s failed after a %d response: %v", r.Method, r.URL.Path, rw.statusCode, err)
			}
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
