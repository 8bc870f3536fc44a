// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package stripe connects tenants through Stripe Connect OAuth and pulls
// their customers, subscriptions and payment intents.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/canonical/provider-sync-service/internal/apierrors"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/pkg/connectors"
)

const (
	Name     = "stripe"
	pageSize = 100
)

var _ connectors.ConnectorInterface = (*Connector)(nil)

type Config struct {
	ClientID     string
	ClientSecret string
	APIURL       string
	ConnectURL   string
	Timeout      time.Duration
}

type Connector struct {
	oauth        oauth2.Config
	api          *connectors.HTTPClient
	connect      *connectors.HTTPClient
	clientSecret string

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func (c *Connector) Name() string {
	return Name
}

func (c *Connector) DisplayName() string {
	return "Stripe"
}

func (c *Connector) AuthorizationURL(state, redirectURI string) (string, error) {
	conf := c.oauth
	conf.RedirectURL = redirectURI

	return conf.AuthCodeURL(state), nil
}

func (c *Connector) ExchangeCode(ctx context.Context, code, redirectURI string) (*connectors.Tokens, error) {
	ctx, span := c.tracer.Start(ctx, "stripe.Connector.ExchangeCode")
	defer span.End()

	conf := c.oauth
	conf.RedirectURL = redirectURI

	tok, err := conf.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return nil, oauthError("stripe code exchange", err)
	}

	return tokens(tok)
}

func (c *Connector) RefreshAccessToken(ctx context.Context, refreshToken string) (*connectors.Tokens, error) {
	ctx, span := c.tracer.Start(ctx, "stripe.Connector.RefreshAccessToken")
	defer span.End()

	if refreshToken == "" {
		return nil, connectors.ErrRefreshUnsupported
	}

	tok, err := c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, oauthError("stripe token refresh", err)
	}

	return tokens(tok)
}

func (c *Connector) ValidateConnection(ctx context.Context, accessToken string) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "stripe.Connector.ValidateConnection")
	defer span.End()

	var account struct {
		ID string `json:"id"`
	}

	err := c.api.JSON(ctx, &connectors.Request{Op: "stripe account", Path: "/v1/account", Bearer: accessToken}, &account)
	if errors.Is(err, connectors.ErrAccessRejected) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return account.ID != "", nil
}

func (c *Connector) RevokeAccess(ctx context.Context, accessToken, providerAccountID string) error {
	ctx, span := c.tracer.Start(ctx, "stripe.Connector.RevokeAccess")
	defer span.End()

	form := url.Values{
		"client_id":      {c.oauth.ClientID},
		"stripe_user_id": {providerAccountID},
	}

	return c.connect.JSON(ctx, &connectors.Request{
		Op:     "stripe deauthorize",
		Method: http.MethodPost,
		Path:   "/oauth/deauthorize",
		Form:   form,
		Bearer: c.clientSecret,
	}, nil)
}

func (c *Connector) PullCustomers(ctx context.Context, accessToken, cursor string) (*connectors.Page, error) {
	ctx, span := c.tracer.Start(ctx, "stripe.Connector.PullCustomers")
	defer span.End()

	var list listResponse[customer]
	if err := c.list(ctx, "stripe customers", "/v1/customers", accessToken, cursor, nil, &list); err != nil {
		return nil, err
	}

	page := &connectors.Page{HasMore: list.HasMore}
	for _, cu := range list.Data {
		page.Customers = append(page.Customers, connectors.CustomerRecord{
			ID:       cu.ID,
			Email:    cu.Email,
			Name:     cu.Name,
			Phone:    cu.Phone,
			Metadata: metadata(cu.Metadata, cu.Created),
		})
		page.NextCursor = cu.ID
	}

	return page, nil
}

func (c *Connector) PullSubscriptions(ctx context.Context, accessToken, cursor string) (*connectors.Page, error) {
	ctx, span := c.tracer.Start(ctx, "stripe.Connector.PullSubscriptions")
	defer span.End()

	var list listResponse[subscription]
	if err := c.list(ctx, "stripe subscriptions", "/v1/subscriptions", accessToken, cursor, url.Values{"status": {"all"}}, &list); err != nil {
		return nil, err
	}

	page := &connectors.Page{HasMore: list.HasMore}
	for _, s := range list.Data {
		record := connectors.SubscriptionRecord{
			ID:               s.ID,
			CustomerID:       s.Customer,
			Status:           s.Status,
			CurrentPeriodEnd: unixTime(s.CurrentPeriodEnd),
			Metadata:         metadata(s.Metadata, s.Created),
		}
		if len(s.Items.Data) > 0 {
			price := s.Items.Data[0].Price
			record.Plan = price.ID
			record.Amount = price.UnitAmount
			record.Currency = price.Currency
		}

		page.Subscriptions = append(page.Subscriptions, record)
		page.NextCursor = s.ID
	}

	return page, nil
}

func (c *Connector) PullPayments(ctx context.Context, accessToken, cursor string) (*connectors.Page, error) {
	ctx, span := c.tracer.Start(ctx, "stripe.Connector.PullPayments")
	defer span.End()

	var list listResponse[paymentIntent]
	if err := c.list(ctx, "stripe payment intents", "/v1/payment_intents", accessToken, cursor, nil, &list); err != nil {
		return nil, err
	}

	page := &connectors.Page{HasMore: list.HasMore}
	for _, p := range list.Data {
		record := connectors.PaymentRecord{
			ID:       p.ID,
			Amount:   p.Amount,
			Currency: p.Currency,
			Status:   p.Status,
			Metadata: metadata(p.Metadata, p.Created),
		}
		if p.Customer != nil {
			record.CustomerID = *p.Customer
		}
		if p.Status == "succeeded" {
			record.PaidAt = unixTime(p.Created)
		}

		page.Payments = append(page.Payments, record)
		page.NextCursor = p.ID
	}

	return page, nil
}

func (c *Connector) list(ctx context.Context, op, path, accessToken, cursor string, extra url.Values, out any) error {
	query := url.Values{"limit": {strconv.Itoa(pageSize)}}
	for k, v := range extra {
		query[k] = v
	}
	if cursor != "" {
		query.Set("starting_after", cursor)
	}

	return c.api.JSON(ctx, &connectors.Request{Op: op, Path: path, Query: query, Bearer: accessToken}, out)
}

func (c *Connector) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.connect.Client())
}

func tokens(tok *oauth2.Token) (*connectors.Tokens, error) {
	accountID, _ := tok.Extra("stripe_user_id").(string)
	if accountID == "" {
		return nil, apierrors.Provider("stripe token: response without account id", false, errors.New("token response without stripe_user_id"))
	}

	t := &connectors.Tokens{
		AccessToken:       tok.AccessToken,
		RefreshToken:      tok.RefreshToken,
		ProviderAccountID: accountID,
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		t.ExpiresAt = &expiry
	}

	return t, nil
}

func oauthError(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return connectors.ProviderError(re.Response.StatusCode, op, fmt.Errorf("oauth error %q", re.ErrorCode))
	}
	return connectors.ProviderError(0, op, err)
}

func NewConnector(cfg Config, tracer tracing.TracingInterface, logger logging.LoggerInterface) *Connector {
	c := new(Connector)

	c.oauth = oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.ConnectURL + "/oauth/authorize",
			TokenURL:  cfg.ConnectURL + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: []string{"read_write"},
	}
	c.clientSecret = cfg.ClientSecret
	c.api = connectors.NewHTTPClient(cfg.APIURL, cfg.Timeout)
	c.connect = connectors.NewHTTPClient(cfg.ConnectURL, cfg.Timeout)

	c.tracer = tracer
	c.logger = logger

	return c
}
