// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/pkg/connectors"
)

func newFakeStripe(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("client_secret") != "sk_platform" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch {
		case r.PostForm.Get("grant_type") == "authorization_code" && r.PostForm.Get("code") == "abc":
		case r.PostForm.Get("grant_type") == "refresh_token" && r.PostForm.Get("refresh_token") == "rt_1":
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"internal detail"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":   "sk_connected",
			"refresh_token":  "rt_2",
			"token_type":     "bearer",
			"stripe_user_id": "acct_123",
		})
	})
	mux.HandleFunc("/oauth/deauthorize", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Header.Get("Authorization") != "Bearer sk_platform" || r.PostForm.Get("stripe_user_id") != "acct_123" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"stripe_user_id":"acct_123"}`))
	})
	mux.HandleFunc("/v1/account", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk_connected" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"acct_123"}`))
	})
	mux.HandleFunc("/v1/customers", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("starting_after") == "cus_2" {
			_, _ = w.Write([]byte(`{"data":[{"id":"cus_3","email":"c@example.com"}],"has_more":false}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"cus_1","email":"a@example.com","name":"A","metadata":{"tier":"gold"},"created":1700000000},{"id":"cus_2"}],"has_more":true}`))
	})
	mux.HandleFunc("/v1/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("status") != "all" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"sub_1","customer":"cus_1","status":"active","current_period_end":1700000000,"items":{"data":[{"price":{"id":"price_1","unit_amount":1500,"currency":"usd"}}]}}],"has_more":false}`))
	})
	mux.HandleFunc("/v1/payment_intents", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	return httptest.NewServer(mux)
}

func newConnector(srv *httptest.Server) *Connector {
	return NewConnector(
		Config{
			ClientID:     "ca_123",
			ClientSecret: "sk_platform",
			APIURL:       srv.URL,
			ConnectURL:   srv.URL,
			Timeout:      5 * time.Second,
		},
		tracing.NewNoopTracer(),
		logging.NewNoopLogger(),
	)
}

func TestAuthorizationURL(t *testing.T) {
	c := NewConnector(Config{ClientID: "ca_123", ConnectURL: "https://connect.stripe.com"}, tracing.NewNoopTracer(), logging.NewNoopLogger())

	raw, err := c.AuthorizationURL("state-1", "https://app.example.com/callback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := u.Query()
	if u.Host != "connect.stripe.com" || u.Path != "/oauth/authorize" {
		t.Fatalf("unexpected authorization endpoint %s", raw)
	}
	if q.Get("state") != "state-1" || q.Get("client_id") != "ca_123" || q.Get("redirect_uri") != "https://app.example.com/callback" || q.Get("response_type") != "code" {
		t.Fatalf("unexpected authorization query %v", q)
	}
}

func TestExchangeCode(t *testing.T) {
	srv := newFakeStripe(t)
	defer srv.Close()

	c := newConnector(srv)

	tokens, err := c.ExchangeCode(context.Background(), "abc", "https://app.example.com/callback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens.AccessToken != "sk_connected" || tokens.RefreshToken != "rt_2" || tokens.ProviderAccountID != "acct_123" {
		t.Fatalf("unexpected tokens %+v", tokens)
	}

	_, err = c.ExchangeCode(context.Background(), "bad", "https://app.example.com/callback")
	if apierrors.KindOf(err) != apierrors.KindProvider || apierrors.IsTransient(err) {
		t.Fatalf("expected a permanent provider error, got %v", err)
	}
}

func TestRefreshAccessToken(t *testing.T) {
	srv := newFakeStripe(t)
	defer srv.Close()

	c := newConnector(srv)

	tokens, err := c.RefreshAccessToken(context.Background(), "rt_1")
	if err != nil || tokens.AccessToken != "sk_connected" {
		t.Fatalf("unexpected refresh result %+v, %v", tokens, err)
	}

	if _, err := c.RefreshAccessToken(context.Background(), ""); !errors.Is(err, connectors.ErrRefreshUnsupported) {
		t.Fatalf("expected ErrRefreshUnsupported, got %v", err)
	}
}

func TestValidateConnection(t *testing.T) {
	srv := newFakeStripe(t)
	defer srv.Close()

	c := newConnector(srv)

	ok, err := c.ValidateConnection(context.Background(), "sk_connected")
	if err != nil || !ok {
		t.Fatalf("expected a valid connection, got %v, %v", ok, err)
	}

	ok, err = c.ValidateConnection(context.Background(), "sk_revoked")
	if err != nil || ok {
		t.Fatalf("expected an invalid connection, got %v, %v", ok, err)
	}
}

func TestRevokeAccess(t *testing.T) {
	srv := newFakeStripe(t)
	defer srv.Close()

	if err := newConnector(srv).RevokeAccess(context.Background(), "sk_connected", "acct_123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPullCustomersPages(t *testing.T) {
	srv := newFakeStripe(t)
	defer srv.Close()

	c := newConnector(srv)

	page, err := c.PullCustomers(context.Background(), "sk_connected", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Customers) != 2 || !page.HasMore || page.NextCursor != "cus_2" {
		t.Fatalf("unexpected first page %+v", page)
	}
	if page.Customers[0].Metadata["tier"] != "gold" {
		t.Fatalf("expected metadata to be kept, got %v", page.Customers[0].Metadata)
	}

	page, err = c.PullCustomers(context.Background(), "sk_connected", page.NextCursor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Customers) != 1 || page.HasMore || page.NextCursor != "cus_3" {
		t.Fatalf("unexpected second page %+v", page)
	}
}

func TestPullSubscriptions(t *testing.T) {
	srv := newFakeStripe(t)
	defer srv.Close()

	page, err := newConnector(srv).PullSubscriptions(context.Background(), "sk_connected", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := page.Subscriptions[0]
	if s.CustomerID != "cus_1" || s.Plan != "price_1" || s.Amount != 1500 || s.Currency != "usd" || s.CurrentPeriodEnd == nil {
		t.Fatalf("unexpected subscription %+v", s)
	}
}

func TestPullPaymentsRateLimited(t *testing.T) {
	srv := newFakeStripe(t)
	defer srv.Close()

	_, err := newConnector(srv).PullPayments(context.Background(), "sk_connected", "")
	if !apierrors.IsTransient(err) {
		t.Fatalf("expected a transient error, got %v", err)
	}
}
