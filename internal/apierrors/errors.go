// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package apierrors holds the error taxonomy shared by services and HTTP handlers.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindUnauthorized
	KindForbidden
	KindProvider
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation_error"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindProvider:
		return "provider_error"
	case KindConflict:
		return "conflict"
	default:
		return "internal_error"
	}
}

// Error is a classified error. Message is safe to show to API clients,
// the wrapped error is only meant for server side logs.
type Error struct {
	Kind      Kind
	Message   string
	Fields    map[string]string
	Transient bool

	err error
}

func (e *Error) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(parts, ", "))
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %v", msg, e.err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.err
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation returns a validation error, fields maps a field name to its problem.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Provider wraps an upstream failure, summary must not contain provider payloads.
func Provider(summary string, transient bool, err error) *Error {
	return &Error{Kind: KindProvider, Message: summary, Transient: transient, err: err}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, err: err}
}

// Wrap attaches a cause to a classified error without changing its kind.
func (e *Error) Wrap(err error) *Error {
	e.err = err
	return e
}

// KindOf returns the kind of the first classified error in the chain,
// unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsTransient reports whether err is a provider failure worth retrying.
func IsTransient(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindProvider && e.Transient
	}
	return false
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is what a caller may see. Provider and internal failures are
// redacted unless diagnostic is set.
func PublicMessage(err error, diagnostic bool) string {
	var e *Error
	if !errors.As(err, &e) {
		if diagnostic {
			return err.Error()
		}
		return "internal server error"
	}

	switch e.Kind {
	case KindInternal:
		if diagnostic {
			return e.Error()
		}
		return "internal server error"
	case KindProvider:
		if diagnostic {
			return e.Error()
		}
		return e.Message
	default:
		return e.Message
	}
}

// FieldsOf returns field-level validation messages, if any.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
