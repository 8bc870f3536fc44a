// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package apierrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/canonical/provider-sync-service/internal/logging"
)

func TestKindOfWrappedErrors(t *testing.T) {
	base := NotFound("connection for provider %s not found", "stripe")
	wrapped := fmt.Errorf("create job: %w", base)

	gt.Value(t, KindOf(wrapped)).Equal(KindNotFound)
	gt.Value(t, HTTPStatus(wrapped)).Equal(http.StatusNotFound)
	gt.Value(t, KindOf(errors.New("boom"))).Equal(KindInternal)
	gt.Bool(t, Is(nil, KindInternal)).False()
}

func TestIsTransient(t *testing.T) {
	gt.Bool(t, IsTransient(Provider("rate limited", true, nil))).True()
	gt.Bool(t, IsTransient(Provider("bad request", false, nil))).False()
	gt.Bool(t, IsTransient(Conflict("job already running"))).False()
	gt.Bool(t, IsTransient(fmt.Errorf("wrapped: %w", Provider("timeout", true, errors.New("i/o timeout"))))).True()
}

func TestPublicMessageRedaction(t *testing.T) {
	upstream := errors.New(`{"error":"invalid_grant","secret":"sk_live_123"}`)
	err := Provider("authorization code exchange failed", false, upstream)

	gt.Value(t, PublicMessage(err, false)).Equal("authorization code exchange failed")
	gt.Value(t, PublicMessage(Internal("storage failure", upstream), false)).Equal("internal server error")
	gt.Value(t, PublicMessage(errors.New("raw"), false)).Equal("internal server error")
	gt.Value(t, PublicMessage(Validation("invalid input", nil), false)).Equal("invalid input")
	gt.Value(t, PublicMessage(errors.New("raw"), true)).Equal("raw")
}

func TestWriterWriteError(t *testing.T) {
	w := NewWriter(false, logging.NewNoopLogger())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v0/sync-jobs", nil)
	w.WriteError(rr, req, Validation("invalid request", map[string]string{"provider": "required"}))

	gt.Value(t, rr.Code).Equal(http.StatusBadRequest)

	var body ErrorResponse
	gt.NoError(t, json.NewDecoder(rr.Body).Decode(&body)).Required()
	gt.Value(t, body.Kind).Equal("validation_error")
	gt.Value(t, body.Fields["provider"]).Equal("required")
}

func TestFromValidator(t *testing.T) {
	type request struct {
		Provider string `json:"provider" validate:"required"`
		JobType  string `json:"jobType" validate:"required,oneof=full_sync incremental_sync"`
	}

	err := FromValidator(NewValidator().Struct(&request{JobType: "nightly"}))

	gt.Value(t, KindOf(err)).Equal(KindValidation)
	gt.Value(t, FieldsOf(err)["provider"]).Equal("is required")
	gt.Value(t, FieldsOf(err)["jobType"]).Equal("must be one of [full_sync incremental_sync]")
	gt.NoError(t, FromValidator(nil))
}
