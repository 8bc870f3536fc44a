// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package paypal

import (
	"errors"
	"net/url"
	"strconv"
	"time"
)

// transactionCursor pins the reporting window so every page of one pass
// reads the same range.
type transactionCursor struct {
	page  int
	start time.Time
	end   time.Time
}

func (c *transactionCursor) encode() string {
	return url.Values{
		"page":  {strconv.Itoa(c.page)},
		"start": {strconv.FormatInt(c.start.Unix(), 10)},
		"end":   {strconv.FormatInt(c.end.Unix(), 10)},
	}.Encode()
}

func decodeTransactionCursor(raw string, now time.Time) (*transactionCursor, error) {
	if raw == "" {
		end := now.UTC().Truncate(time.Second)
		return &transactionCursor{page: 1, start: end.Add(-transactionWindow), end: end}, nil
	}

	v, err := url.ParseQuery(raw)
	if err != nil {
		return nil, errors.New("malformed cursor")
	}

	page, err := strconv.Atoi(v.Get("page"))
	if err != nil || page < 1 {
		return nil, errors.New("cursor page must be a positive number")
	}
	start, err := strconv.ParseInt(v.Get("start"), 10, 64)
	if err != nil {
		return nil, errors.New("cursor start must be a unix time")
	}
	end, err := strconv.ParseInt(v.Get("end"), 10, 64)
	if err != nil || end < start {
		return nil, errors.New("cursor end must be a unix time after start")
	}

	return &transactionCursor{page: page, start: time.Unix(start, 0).UTC(), end: time.Unix(end, 0).UTC()}, nil
}
