package importer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// parseAmount reads a monetary cell tolerant of locale formatting. Currency
// symbols and spaces are stripped, and whichever of '.' or ',' appears last
// is treated as the decimal separator, unless that character repeats, which
// marks it as a grouping character.
//
//	"1.234,56"  -> 1234.56
//	"1,234.56"  -> 1234.56
//	"1,234,567" -> 1234567
//	"¥ -2,500"  -> -2500
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '-', r == ',', r == '.':
			return r
		default:
			return -1
		}
	}, strings.TrimSpace(s))

	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: empty amount %q", core.ErrValidation, s)
	}

	sepPos := strings.LastIndexAny(cleaned, ".,")
	if sepPos >= 0 && strings.Count(cleaned, cleaned[sepPos:sepPos+1]) > 1 {
		sepPos = -1
	}

	var normalized string
	if sepPos >= 0 {
		intPart := stripNonNumeric(cleaned[:sepPos], true)
		fracPart := stripNonNumeric(cleaned[sepPos+1:], false)
		if fracPart == "" {
			normalized = intPart
		} else {
			normalized = intPart + "." + fracPart
		}
	} else {
		normalized = stripNonNumeric(cleaned, true)
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: unparseable amount %q", core.ErrValidation, s)
	}
	return d, nil
}

// stripNonNumeric keeps digits, and the leading sign when allowSign is set.
func stripNonNumeric(s string, allowSign bool) string {
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if allowSign && r == '-' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
