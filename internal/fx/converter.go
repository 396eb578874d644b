// Package fx converts foreign-currency amounts into the home currency using
// the operator-maintained rate table.
package fx

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// RateTable is the rate storage the converter reads and (via SetRate only)
// writes. Rate reports found=false when no rate is stored for the code.
type RateTable interface {
	Rate(ctx context.Context, currency string) (rate decimal.Decimal, found bool, err error)
	SetRate(ctx context.Context, currency string, rate decimal.Decimal) error
}

// Converter turns arbitrary-currency amounts into whole home-currency
// units. The home currency never hits the rate table; it is rate 1.0 by
// convention.
type Converter struct {
	home  string
	rates RateTable
}

func NewConverter(home string, rates RateTable) *Converter {
	return &Converter{home: Normalize(home), rates: rates}
}

// Home returns the normalized home currency code.
func (c *Converter) Home() string { return c.home }

// Normalize canonicalizes a currency code: trimmed and upper-cased. Blank
// input stays blank and is treated as the home currency.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Conversion is the persisted outcome of a conversion. Amount is the
// authoritative home-currency value. For home-currency input the foreign
// trace fields stay empty.
type Conversion struct {
	Amount   int64
	Currency string
	Original decimal.Decimal
	Rate     decimal.Decimal
}

// Convert resolves the home-currency amount for one transaction.
//
// Home-currency (or blank) input uses fallbackHome, or original when no
// fallback is given. Foreign input requires original; the rate is the
// explicit one when given, otherwise the table entry for the code. A
// missing or non-positive rate rejects the input.
//
// Converted amounts are rounded to whole home-currency units, half away
// from zero. The home currency has no subdivision, so home amounts are
// rounded the same way.
func (c *Converter) Convert(ctx context.Context, currency string, original, explicitRate, fallbackHome *decimal.Decimal) (Conversion, error) {
	code := Normalize(currency)

	if code == "" || code == c.home {
		amount := fallbackHome
		if amount == nil {
			amount = original
		}
		if amount == nil {
			return Conversion{}, fmt.Errorf("%w: amount is required", core.ErrValidation)
		}
		return Conversion{Amount: roundWhole(*amount)}, nil
	}

	if original == nil {
		return Conversion{}, fmt.Errorf("%w: original amount is required for %s", core.ErrValidation, code)
	}

	rate, err := c.resolveRate(ctx, code, explicitRate)
	if err != nil {
		return Conversion{}, err
	}

	return Conversion{
		Amount:   roundWhole(original.Mul(rate)),
		Currency: code,
		Original: *original,
		Rate:     rate,
	}, nil
}

func (c *Converter) resolveRate(ctx context.Context, code string, explicit *decimal.Decimal) (decimal.Decimal, error) {
	if explicit != nil {
		if explicit.Sign() <= 0 {
			return decimal.Decimal{}, fmt.Errorf("%w: rate for %s must be positive, got %s", core.ErrValidation, code, explicit)
		}
		return *explicit, nil
	}

	rate, found, err := c.rates.Rate(ctx, code)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("look up rate for %s: %w", code, err)
	}
	if !found {
		return decimal.Decimal{}, fmt.Errorf("%w: no fx rate for %s", core.ErrValidation, code)
	}
	if rate.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: stored rate for %s is not positive", core.ErrValidation, code)
	}
	return rate, nil
}

// SetRate stores a rate for a foreign currency. Setting the home currency
// is a silent no-op; non-positive rates are rejected.
func (c *Converter) SetRate(ctx context.Context, currency string, rate decimal.Decimal) error {
	code := Normalize(currency)
	if code == "" || code == c.home {
		return nil
	}
	if rate.Sign() <= 0 {
		return fmt.Errorf("%w: rate for %s must be positive, got %s", core.ErrValidation, code, rate)
	}
	return c.rates.SetRate(ctx, code, rate)
}

// roundWhole rounds to the nearest whole home-currency unit, half away
// from zero.
func roundWhole(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
