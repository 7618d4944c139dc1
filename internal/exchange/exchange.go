// Package exchange looks up currency rates so balances can be shown in a
// display currency other than the one they are booked in.
package exchange

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidCurrency is returned for codes that are not three ISO letters.
var ErrInvalidCurrency = errors.New("invalid currency code")

// ErrRateUnavailable is returned when the source has no rate for a pair.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// Rate is the price of one unit of From expressed in To.
type Rate struct {
	From  string
	To    string
	Value decimal.Decimal
	Date  time.Time
}

// Apply converts amount at this rate, rounded to cents. Negative amounts
// keep their sign.
func (r Rate) Apply(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(r.Value).Round(2)
}

// RateSource returns the current rate for a currency pair.
type RateSource interface {
	Rate(ctx context.Context, from, to string) (Rate, error)
}

var codeRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// NormalizeCode upper-cases and validates a currency code.
func NormalizeCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !codeRegex.MatchString(c) {
		return "", ErrInvalidCurrency
	}
	return c, nil
}

func identity(code string, now time.Time) Rate {
	return Rate{From: code, To: code, Value: decimal.NewFromInt(1), Date: now}
}
