package main

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// formatHome renders a home-currency amount with thousands grouping, e.g.
// ¥-12,500. The home currency has no subdivision, so there are never
// decimals.
func formatHome(amount int64) string {
	neg := amount < 0
	digits := strconv.FormatInt(amount, 10)
	if neg {
		digits = digits[1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return "¥" + b.String()
}

// formatForeign renders the display-only foreign trace of a row, or "-"
// when there is none.
func formatForeign(tx core.Transaction) string {
	if tx.Currency == "" {
		return "-"
	}
	return tx.Original.String() + " " + tx.Currency + " @ " + tx.Rate.String()
}

func decimalFromInt(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// parseDecimalFlag parses an optional decimal flag; empty means unset.
func parseDecimalFlag(s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseDateFlag parses an optional date flag; empty means unset.
func parseDateFlag(s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(strings.TrimSpace(s))
}
