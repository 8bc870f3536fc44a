// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package paypal connects tenants with Log in with PayPal and pulls their
// transactions and billing subscriptions.
package paypal

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
	Name = "paypal"

	transactionPageSize  = 100
	subscriptionPageSize = 20
	// the reporting API caps a query at 31 days
	transactionWindow = 31 * 24 * time.Hour
)

var _ connectors.ConnectorInterface = (*Connector)(nil)

type Config struct {
	ClientID     string
	ClientSecret string
	APIURL       string
	AuthURL      string
	Timeout      time.Duration
}

type Connector struct {
	oauth oauth2.Config
	api   *connectors.HTTPClient
	now   func() time.Time

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func (c *Connector) Name() string {
	return Name
}

func (c *Connector) DisplayName() string {
	return "PayPal"
}

func (c *Connector) AuthorizationURL(state, redirectURI string) (string, error) {
	conf := c.oauth
	conf.RedirectURL = redirectURI

	return conf.AuthCodeURL(state, oauth2.SetAuthURLParam("flowEntry", "static")), nil
}

func (c *Connector) ExchangeCode(ctx context.Context, code, redirectURI string) (*connectors.Tokens, error) {
	ctx, span := c.tracer.Start(ctx, "paypal.Connector.ExchangeCode")
	defer span.End()

	conf := c.oauth
	conf.RedirectURL = redirectURI

	tok, err := conf.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return nil, oauthError("paypal code exchange", err)
	}

	return c.tokens(ctx, tok)
}

func (c *Connector) RefreshAccessToken(ctx context.Context, refreshToken string) (*connectors.Tokens, error) {
	ctx, span := c.tracer.Start(ctx, "paypal.Connector.RefreshAccessToken")
	defer span.End()

	if refreshToken == "" {
		return nil, connectors.ErrRefreshUnsupported
	}

	tok, err := c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, oauthError("paypal token refresh", err)
	}

	return c.tokens(ctx, tok)
}

func (c *Connector) ValidateConnection(ctx context.Context, accessToken string) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "paypal.Connector.ValidateConnection")
	defer span.End()

	info, err := c.userInfo(ctx, accessToken)
	if errors.Is(err, connectors.ErrAccessRejected) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return info.PayerID != "", nil
}

func (c *Connector) RevokeAccess(ctx context.Context, accessToken, providerAccountID string) error {
	ctx, span := c.tracer.Start(ctx, "paypal.Connector.RevokeAccess")
	defer span.End()

	return c.api.JSON(ctx, &connectors.Request{
		Op:        "paypal token terminate",
		Method:    http.MethodPost,
		Path:      "/v1/oauth2/token/terminate",
		Form:      url.Values{"token": {accessToken}, "token_type_hint": {"ACCESS_TOKEN"}},
		BasicUser: c.oauth.ClientID,
		BasicPass: c.oauth.ClientSecret,
	}, nil)
}

// PullCustomers derives customers from the payers of the transactions page,
// PayPal has no customer listing for merchants.
func (c *Connector) PullCustomers(ctx context.Context, accessToken, cursor string) (*connectors.Page, error) {
	ctx, span := c.tracer.Start(ctx, "paypal.Connector.PullCustomers")
	defer span.End()

	resp, next, err := c.transactions(ctx, "paypal payers", accessToken, cursor)
	if err != nil {
		return nil, err
	}

	page := &connectors.Page{NextCursor: next.encode(), HasMore: next.page <= resp.TotalPages, Total: resp.TotalPages}
	seen := make(map[string]bool)
	for _, d := range resp.TransactionDetails {
		payer := d.PayerInfo
		if payer.AccountID == "" || seen[payer.AccountID] {
			continue
		}
		seen[payer.AccountID] = true

		page.Customers = append(page.Customers, connectors.CustomerRecord{
			ID:       payer.AccountID,
			Email:    payer.EmailAddress,
			Name:     payer.PayerName.AlternateFullName,
			Phone:    payer.PhoneNumber.NationalNumber,
			Metadata: map[string]any{"country_code": payer.CountryCode},
		})
	}

	return page, nil
}

func (c *Connector) PullSubscriptions(ctx context.Context, accessToken, cursor string) (*connectors.Page, error) {
	ctx, span := c.tracer.Start(ctx, "paypal.Connector.PullSubscriptions")
	defer span.End()

	n := 1
	if cursor != "" {
		var err error
		if n, err = strconv.Atoi(cursor); err != nil || n < 1 {
			return nil, apierrors.Validation("invalid cursor", map[string]string{"cursor": "must be a page number"})
		}
	}

	query := url.Values{
		"page_size":      {strconv.Itoa(subscriptionPageSize)},
		"page":           {strconv.Itoa(n)},
		"total_required": {"true"},
	}

	var resp subscriptionsResponse
	if err := c.api.JSON(ctx, &connectors.Request{Op: "paypal subscriptions", Path: "/v1/billing/subscriptions", Query: query, Bearer: accessToken}, &resp); err != nil {
		return nil, err
	}

	page := &connectors.Page{NextCursor: strconv.Itoa(n + 1), HasMore: n < resp.TotalPages, Total: resp.TotalPages}
	for _, s := range resp.Subscriptions {
		amount, err := minorUnits(s.BillingInfo.LastPayment.Amount.Value)
		if err != nil {
			c.logger.Warnf("paypal subscription %s: %v", s.ID, err)
		}

		page.Subscriptions = append(page.Subscriptions, connectors.SubscriptionRecord{
			ID:               s.ID,
			CustomerID:       s.Subscriber.PayerID,
			Status:           s.Status,
			Plan:             s.PlanID,
			Amount:           amount,
			Currency:         s.BillingInfo.LastPayment.Amount.CurrencyCode,
			CurrentPeriodEnd: parseTime(s.BillingInfo.NextBillingTime),
			Metadata:         map[string]any{"create_time": s.CreateTime},
		})
	}

	return page, nil
}

func (c *Connector) PullPayments(ctx context.Context, accessToken, cursor string) (*connectors.Page, error) {
	ctx, span := c.tracer.Start(ctx, "paypal.Connector.PullPayments")
	defer span.End()

	resp, next, err := c.transactions(ctx, "paypal transactions", accessToken, cursor)
	if err != nil {
		return nil, err
	}

	page := &connectors.Page{NextCursor: next.encode(), HasMore: next.page <= resp.TotalPages, Total: resp.TotalPages}
	for _, d := range resp.TransactionDetails {
		info := d.TransactionInfo

		amount, err := minorUnits(info.TransactionAmount.Value)
		if err != nil {
			c.logger.Warnf("paypal transaction %s: %v", info.TransactionID, err)
		}

		record := connectors.PaymentRecord{
			ID:         info.TransactionID,
			CustomerID: d.PayerInfo.AccountID,
			Amount:     amount,
			Currency:   info.TransactionAmount.CurrencyCode,
			Status:     info.TransactionStatus,
			Metadata:   map[string]any{"event_code": info.TransactionEventCode},
		}
		// S is the reporting API status for completed transactions
		if info.TransactionStatus == "S" {
			record.PaidAt = parseTime(info.TransactionInitiationDate)
		}

		page.Payments = append(page.Payments, record)
	}

	return page, nil
}

func (c *Connector) transactions(ctx context.Context, op, accessToken, cursor string) (*transactionsResponse, *transactionCursor, error) {
	cur, err := decodeTransactionCursor(cursor, c.now())
	if err != nil {
		return nil, nil, apierrors.Validation("invalid cursor", map[string]string{"cursor": err.Error()})
	}

	query := url.Values{
		"start_date": {cur.start.Format(time.RFC3339)},
		"end_date":   {cur.end.Format(time.RFC3339)},
		"fields":     {"transaction_info,payer_info"},
		"page_size":  {strconv.Itoa(transactionPageSize)},
		"page":       {strconv.Itoa(cur.page)},
	}

	resp := new(transactionsResponse)
	if err := c.api.JSON(ctx, &connectors.Request{Op: op, Path: "/v1/reporting/transactions", Query: query, Bearer: accessToken}, resp); err != nil {
		return nil, nil, err
	}

	next := *cur
	next.page++

	return resp, &next, nil
}

func (c *Connector) userInfo(ctx context.Context, accessToken string) (*userInfo, error) {
	info := new(userInfo)
	err := c.api.JSON(ctx, &connectors.Request{
		Op:     "paypal userinfo",
		Path:   "/v1/identity/oauth2/userinfo",
		Query:  url.Values{"schema": {"paypalv1.1"}},
		Bearer: accessToken,
	}, info)
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (c *Connector) tokens(ctx context.Context, tok *oauth2.Token) (*connectors.Tokens, error) {
	info, err := c.userInfo(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}
	if info.PayerID == "" {
		return nil, apierrors.Provider("paypal userinfo: response without payer id", false, errors.New("userinfo without payer_id"))
	}

	t := &connectors.Tokens{
		AccessToken:       tok.AccessToken,
		RefreshToken:      tok.RefreshToken,
		ProviderAccountID: info.PayerID,
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		t.ExpiresAt = &expiry
	}

	return t, nil
}

func (c *Connector) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.api.Client())
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
			AuthURL:   cfg.AuthURL + "/signin/authorize",
			TokenURL:  cfg.APIURL + "/v1/oauth2/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		Scopes: []string{"openid", "email", "https://uri.paypal.com/services/paypalattributes"},
	}
	c.api = connectors.NewHTTPClient(cfg.APIURL, cfg.Timeout)
	c.now = time.Now

	c.tracer = tracer
	c.logger = logger

	return c
}
