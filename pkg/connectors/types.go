// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package connectors

import (
	"context"
	"fmt"
	"time"
)

type Category string

const (
	CategoryCustomers     Category = "customers"
	CategorySubscriptions Category = "subscriptions"
	CategoryPayments      Category = "payments"
)

// Categories is the fixed sync order, later categories reference customers.
var Categories = []Category{CategoryCustomers, CategorySubscriptions, CategoryPayments}

type ConnectorInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// Tokens is what a successful code exchange or refresh yields. Only the
// installation service ever sees these in plaintext.
type Tokens struct {
	AccessToken       string
	RefreshToken      string
	ExpiresAt         *time.Time
	ProviderAccountID string
}

type CustomerRecord struct {
	ID       string
	Email    string
	Name     string
	Phone    string
	Metadata map[string]any
}

type SubscriptionRecord struct {
	ID               string
	CustomerID       string
	Status           string
	Plan             string
	Amount           int64
	Currency         string
	CurrentPeriodEnd *time.Time
	Metadata         map[string]any
}

type PaymentRecord struct {
	ID         string
	CustomerID string
	Amount     int64
	Currency   string
	Status     string
	PaidAt     *time.Time
	Metadata   map[string]any
}

// Page is one provider page of a single category. NextCursor resumes right
// after the last record of the page.
type Page struct {
	Customers     []CustomerRecord
	Subscriptions []SubscriptionRecord
	Payments      []PaymentRecord

	NextCursor string
	HasMore    bool
	// Total is the number of pages or records the provider announced, 0 when unknown.
	Total int
}

func (p *Page) Len() int {
	return len(p.Customers) + len(p.Subscriptions) + len(p.Payments)
}

// Pull fetches one page of category from c.
func Pull(ctx context.Context, c ConnectorInterface, category Category, accessToken, cursor string) (*Page, error) {
	switch category {
	case CategoryCustomers:
		return c.PullCustomers(ctx, accessToken, cursor)
	case CategorySubscriptions:
		return c.PullSubscriptions(ctx, accessToken, cursor)
	case CategoryPayments:
		return c.PullPayments(ctx, accessToken, cursor)
	}
	return nil, fmt.Errorf("unknown category %q", category)
}
