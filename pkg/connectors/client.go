// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/canonical/provider-sync-service/internal/apierrors"
)

const maxErrorBody = 4096

// Request describes one call against a provider API.
type Request struct {
	Op     string
	Method string
	Path   string
	Query  url.Values
	Form   url.Values

	Bearer    string
	BasicUser string
	BasicPass string
}

// HTTPClient performs provider API calls and turns failures into
// classified provider errors.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// Client exposes the instrumented client, oauth2 flows reuse it.
func (c *HTTPClient) Client() *http.Client {
	return c.client
}

func (c *HTTPClient) JSON(ctx context.Context, r *Request, out any) error {
	target := strings.TrimRight(c.baseURL, "/") + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if r.Form != nil {
		body = strings.NewReader(r.Form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", r.Op, err)
	}

	req.Header.Set("Accept", "application/json")
	if r.Form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	switch {
	case r.Bearer != "":
		req.Header.Set("Authorization", "Bearer "+r.Bearer)
	case r.BasicUser != "":
		req.SetBasicAuth(r.BasicUser, r.BasicPass)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return ProviderError(0, r.Op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drained for connection reuse, the body is not surfaced
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return ProviderError(resp.StatusCode, r.Op, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, r.Path))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apierrors.Provider(r.Op+": unexpected response from provider", false, fmt.Errorf("failed to decode response: %w", err))
	}

	return nil
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	c := new(HTTPClient)

	c.baseURL = baseURL
	c.client = &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	return c
}
