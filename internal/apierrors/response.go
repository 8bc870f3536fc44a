// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package apierrors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/canonical/provider-sync-service/internal/logging"
)

// ErrorResponse is the JSON envelope returned for every failed request.
type ErrorResponse struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Kind    string            `json:"kind"`
	TraceID string            `json:"trace_id,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Writer turns errors into HTTP responses and decides what gets logged.
type Writer struct {
	diagnostic bool

	logger logging.LoggerInterface
}

func (w *Writer) WriteError(rw http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	kind := KindOf(err)

	traceID := middleware.GetReqID(r.Context())
	if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}

	if kind == KindInternal || kind == KindProvider {
		w.logger.Errorf("request %s %s failed [trace %s]: %v", r.Method, r.URL.Path, traceID, err)
	} else {
		w.logger.Debugf("request %s %s rejected: %v", r.Method, r.URL.Path, err)
	}

	WriteJSON(rw, status, &ErrorResponse{
		Status:  status,
		Message: PublicMessage(err, w.diagnostic),
		Kind:    kind.String(),
		TraceID: traceID,
		Fields:  FieldsOf(err),
	})
}

func WriteJSON(rw http.ResponseWriter, status int, body any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(body)
}

func NewWriter(diagnostic bool, logger logging.LoggerInterface) *Writer {
	return &Writer{
		diagnostic: diagnostic,
		logger:     logger,
	}
}
