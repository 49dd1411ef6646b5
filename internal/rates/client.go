// Package rates fetches and caches currency spot rates for price
// composition. Rates live for the duration of a pricing session only and
// are never persisted; a persisted stale rate is a mispriced ticket.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
)

// Table maps upper-case ISO 4217 codes to their spot rate relative to the
// table's base currency (1 base = rate units of the code's currency).
type Table struct {
	Base  string
	Rates map[string]decimal.Decimal
}

// Rate returns the multiplier converting an amount from one currency to
// another through the base. ok is false when either code is absent from
// the table, meaning there is no conversion path.
func (t *Table) Rate(from, to string) (decimal.Decimal, bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}
	rf, okFrom := t.Rates[from]
	rt, okTo := t.Rates[to]
	if !okFrom || !okTo || rf.IsZero() {
		return decimal.Decimal{}, false
	}
	return rt.Div(rf), true
}

// Source produces a rate table. Implementations must be safe for
// concurrent use.
type Source interface {
	FetchRates(ctx context.Context) (*Table, error)
}

// Client fetches spot rates from the external rate API, a black box
// returning code -> rate pairs relative to a base currency.
type Client struct {
	url     string
	timeout time.Duration
	http    *fasthttp.Client
}

// NewClient builds a Client for the given endpoint. The timeout bounds
// each fetch including connection setup.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{url: url, timeout: timeout, http: &fasthttp.Client{}}
}

// ratesResponse mirrors the wire format of the rate API. Rates arrive as
// JSON numbers; json.Number keeps them out of float64 on the way to
// decimal.
type ratesResponse struct {
	Base  string                 `json:"base"`
	Rates map[string]json.Number `json:"rates"`
}

// FetchRates performs one GET against the rate API. The context deadline
// tightens the configured timeout when it is sooner.
func (c *Client) FetchRates(ctx context.Context) (*Table, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remain := time.Until(deadline); remain < timeout {
			timeout = remain
		}
	}
	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("rate API request failed: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("rate API returned status %d", resp.StatusCode())
	}

	var body ratesResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("rate API response malformed: %w", err)
	}
	if body.Base == "" || len(body.Rates) == 0 {
		return nil, fmt.Errorf("rate API response missing base or rates")
	}

	t := &Table{
		Base:  strings.ToUpper(body.Base),
		Rates: make(map[string]decimal.Decimal, len(body.Rates)+1),
	}
	for code, raw := range body.Rates {
		d, err := decimal.NewFromString(raw.String())
		if err != nil {
			return nil, fmt.Errorf("rate for %s malformed: %w", code, err)
		}
		t.Rates[strings.ToUpper(code)] = d
	}
	// the base currency always rates 1 against itself
	t.Rates[t.Base] = decimal.NewFromInt(1)
	return t, nil
}
