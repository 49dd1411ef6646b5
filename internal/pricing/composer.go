package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/matchdayhq/ticket-pricing/internal/model"
)

// Quote is the fully composed price of one ticket in one currency.
// Amounts are rounded half-up to two decimal places, once per component,
// so BasePrice + MarkupAmount reproduces FinalPrice digit for digit on
// every surface that renders the quote.
type Quote struct {
	BasePrice    decimal.Decimal       `json:"base_price"`
	MarkupAmount decimal.Decimal       `json:"markup_amount"`
	FinalPrice   decimal.Decimal       `json:"final_price"`
	Currency     string                `json:"currency"`
	Converted    bool                  `json:"converted"`
	Markup       *model.ResolvedMarkup `json:"markup,omitempty"`
}

// RateProvider is the slice of the rate cache the composer needs.
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, bool)
}

// Composer combines a face value, a resolved markup and a display
// currency into a final price. ReferenceCurrency is the denomination of
// every fixed markup amount.
type Composer struct {
	Rates             RateProvider
	ReferenceCurrency string
}

// round2 rounds half away from zero to two decimal places, the display
// precision of every composed amount.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

var hundred = decimal.NewFromInt(100)

// Compose builds the quote in the fixed order the price-agreement
// invariant requires:
//
//  1. convert the face value into the display currency; with no
//     conversion path the quote degrades to the ticket currency and is
//     labeled Converted=false rather than failing the page.
//  2. derive the markup: fixed amounts convert from the reference
//     currency into the quote currency (dropped entirely when that path
//     is missing, never added raw); percentages apply to the rounded
//     converted base.
//  3. add the two rounded components.
func (c *Composer) Compose(ctx context.Context, faceValue decimal.Decimal, ticketCurrency, displayCurrency string, rm *model.ResolvedMarkup) Quote {
	q := Quote{Currency: displayCurrency, Converted: true, Markup: rm}

	base := faceValue
	if ticketCurrency != displayCurrency {
		if rate, ok := c.Rates.Rate(ctx, ticketCurrency, displayCurrency); ok {
			base = faceValue.Mul(rate)
		} else {
			q.Currency = ticketCurrency
			q.Converted = false
		}
	}
	q.BasePrice = round2(base)

	markup := decimal.Zero
	if rm != nil {
		switch rm.MarkupType {
		case model.MarkupFixed:
			if rate, ok := c.Rates.Rate(ctx, c.ReferenceCurrency, q.Currency); ok {
				markup = round2(rm.MarkupAmount.Mul(rate))
			}
		case model.MarkupPercentage:
			markup = round2(q.BasePrice.Mul(rm.MarkupAmount).Div(hundred))
		}
	}
	q.MarkupAmount = markup
	q.FinalPrice = q.BasePrice.Add(markup)
	return q
}
