// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tenancy

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/canonical/provider-sync-service/internal/apierrors"
)

const (
	// HeaderName carries an explicit tenant selection.
	HeaderName = "X-Tenant-Id"
	// QueryParam carries the tenant as a query parameter.
	QueryParam = "tenantId"
	// PathSegment precedes the tenant id in paths like /tenant/{tenantId}/...
	PathSegment = "tenant"
)

type Source string

const (
	SourceHeader Source = "header"
	SourcePath   Source = "path"
	SourceQuery  Source = "query"
	SourceClaim  Source = "claim"
	SourceNone   Source = "none"
)

type Resolution struct {
	TenantID string
	Source   Source
}

func (r Resolution) Found() bool {
	return r.Source != SourceNone && r.TenantID != ""
}

// NoTenant is the explicit result when no source names a tenant.
var NoTenant = Resolution{Source: SourceNone}

// ClaimFunc returns the tenant claim of the authenticated principal.
type ClaimFunc func(context.Context) (string, bool)

// Resolver picks the tenant of a request from the first source that is
// present: header, path, query parameter, then identity claim.
// A present but malformed value fails the resolution, it never falls
// through to a lower priority source.
type Resolver struct {
	claim ClaimFunc
}

func (r *Resolver) Resolve(req *http.Request) (Resolution, error) {
	if v, ok := headerValue(req); ok {
		return resolution(v, SourceHeader)
	}

	if v, ok := pathValue(req.URL.Path); ok {
		return resolution(v, SourcePath)
	}

	if v, ok := queryValue(req); ok {
		return resolution(v, SourceQuery)
	}

	if r.claim != nil {
		if v, ok := r.claim(req.Context()); ok && strings.TrimSpace(v) != "" {
			return resolution(v, SourceClaim)
		}
	}

	return NoTenant, nil
}

func resolution(raw string, source Source) (Resolution, error) {
	id, err := ParseTenantID(raw)
	if err != nil {
		return NoTenant, apierrors.Validation(
			"malformed tenant identifier",
			map[string]string{string(source): err.Error()},
		)
	}
	return Resolution{TenantID: id, Source: source}, nil
}

func headerValue(req *http.Request) (string, bool) {
	values, ok := req.Header[http.CanonicalHeaderKey(HeaderName)]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func pathValue(path string) (string, bool) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		if s == PathSegment && i+1 < len(segments) {
			return segments[i+1], true
		}
	}
	return "", false
}

func queryValue(req *http.Request) (string, bool) {
	q := req.URL.Query()
	if !q.Has(QueryParam) {
		return "", false
	}
	return q.Get(QueryParam), true
}

// ParseTenantID accepts the canonical 36 character UUID form only and
// returns it lower cased.
func ParseTenantID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 36 {
		return "", fmt.Errorf("expected a canonical uuid")
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("expected a canonical uuid")
	}

	if id == uuid.Nil {
		return "", fmt.Errorf("nil uuid is not a tenant")
	}

	return id.String(), nil
}

func NewResolver(claim ClaimFunc) *Resolver {
	return &Resolver{claim: claim}
}
