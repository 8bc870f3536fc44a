// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package paypal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type userInfo struct {
	UserID  string `json:"user_id"`
	PayerID string `json:"payer_id"`
}

type transactionsResponse struct {
	TransactionDetails []struct {
		TransactionInfo struct {
			TransactionID             string `json:"transaction_id"`
			TransactionStatus         string `json:"transaction_status"`
			TransactionInitiationDate string `json:"transaction_initiation_date"`
			TransactionAmount         money  `json:"transaction_amount"`
			TransactionEventCode      string `json:"transaction_event_code"`
		} `json:"transaction_info"`
		PayerInfo struct {
			AccountID    string `json:"account_id"`
			EmailAddress string `json:"email_address"`
			PhoneNumber  struct {
				NationalNumber string `json:"national_number"`
			} `json:"phone_number"`
			PayerName struct {
				AlternateFullName string `json:"alternate_full_name"`
			} `json:"payer_name"`
			CountryCode string `json:"country_code"`
		} `json:"payer_info"`
	} `json:"transaction_details"`
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
}

type subscriptionsResponse struct {
	Subscriptions []struct {
		ID         string `json:"id"`
		Status     string `json:"status"`
		PlanID     string `json:"plan_id"`
		Subscriber struct {
			PayerID string `json:"payer_id"`
		} `json:"subscriber"`
		BillingInfo struct {
			NextBillingTime string `json:"next_billing_time"`
			LastPayment     struct {
				Amount money `json:"amount"`
			} `json:"last_payment"`
		} `json:"billing_info"`
		CreateTime string `json:"create_time"`
	} `json:"subscriptions"`
	TotalPages int `json:"total_pages"`
}

// minorUnits converts a decimal amount such as "12.5" into cents.
func minorUnits(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}

	neg := strings.HasPrefix(value, "-")
	value = strings.TrimPrefix(value, "-")

	whole, frac, _ := strings.Cut(value, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two decimals", value)
	}
	frac += strings.Repeat("0", 2-len(frac))

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}

	cents := w*100 + f
	if neg {
		cents = -cents
	}
	return cents, nil
}

func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700"} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
