package fx

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// fakeRates is an in-memory RateTable for converter tests.
type fakeRates struct {
	rates map[string]decimal.Decimal
}

func newFakeRates(rates map[string]string) *fakeRates {
	f := &fakeRates{rates: map[string]decimal.Decimal{}}
	for code, rate := range rates {
		f.rates[code] = decimal.RequireFromString(rate)
	}
	return f
}

func (f *fakeRates) Rate(_ context.Context, currency string) (decimal.Decimal, bool, error) {
	rate, ok := f.rates[currency]
	return rate, ok, nil
}

func (f *fakeRates) SetRate(_ context.Context, currency string, rate decimal.Decimal) error {
	f.rates[currency] = rate
	return nil
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestConvert(t *testing.T) {
	conv := NewConverter("jpy", newFakeRates(map[string]string{
		"USD": "150",
		"EUR": "165",
	}))
	ctx := context.Background()

	tests := []struct {
		name     string
		currency string
		original *decimal.Decimal
		rate     *decimal.Decimal
		fallback *decimal.Decimal

		wantAmount   int64
		wantCurrency string
		wantErr      bool
	}{
		{
			name:     "home amount passes through",
			fallback: dec("-2500"),

			wantAmount: -2500,
		},
		{
			name:     "home currency explicit",
			currency: "JPY",
			fallback: dec("320000"),

			wantAmount: 320000,
		},
		{
			name:     "home original without fallback",
			original: dec("1200"),

			wantAmount: 1200,
		},
		{
			name:     "usd via table",
			currency: "USD",
			original: dec("100"),

			wantAmount:   15000,
			wantCurrency: "USD",
		},
		{
			name:     "eur via table",
			currency: "eur",
			original: dec("1500"),

			wantAmount:   247500,
			wantCurrency: "EUR",
		},
		{
			name:     "explicit rate beats table",
			currency: "USD",
			original: dec("100"),
			rate:     dec("155"),

			wantAmount:   15500,
			wantCurrency: "USD",
		},
		{
			name:     "rounds half away from zero",
			currency: "USD",
			original: dec("0.01"),
			rate:     dec("150"),

			wantAmount:   2,
			wantCurrency: "USD",
		},
		{
			name:     "negative rounds away from zero",
			currency: "USD",
			original: dec("-0.01"),
			rate:     dec("150"),

			wantAmount:   -2,
			wantCurrency: "USD",
		},
		{
			name:     "home amount rounds to whole units",
			fallback: dec("999.5"),

			wantAmount: 1000,
		},
		{
			name:     "unknown currency",
			currency: "GBP",
			original: dec("10"),
			wantErr:  true,
		},
		{
			name:     "foreign without original",
			currency: "USD",
			fallback: dec("100"),
			wantErr:  true,
		},
		{
			name:     "non-positive explicit rate",
			currency: "USD",
			original: dec("100"),
			rate:     dec("0"),
			wantErr:  true,
		},
		{
			name:    "no amount at all",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := conv.Convert(ctx, tt.currency, tt.original, tt.rate, tt.fallback)
			if tt.wantErr {
				if !errors.Is(err, core.ErrValidation) {
					t.Fatalf("Convert() error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if got.Amount != tt.wantAmount {
				t.Errorf("Amount = %d, want %d", got.Amount, tt.wantAmount)
			}
			if got.Currency != tt.wantCurrency {
				t.Errorf("Currency = %q, want %q", got.Currency, tt.wantCurrency)
			}
		})
	}
}

func TestConvertHomeHasNoForeignTrace(t *testing.T) {
	conv := NewConverter("JPY", newFakeRates(nil))

	got, err := conv.Convert(context.Background(), " jpy ", nil, nil, dec("5000"))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got.Currency != "" || !got.Original.IsZero() || !got.Rate.IsZero() {
		t.Errorf("home conversion carries a foreign trace: %+v", got)
	}
}

func TestSetRate(t *testing.T) {
	rates := newFakeRates(nil)
	conv := NewConverter("JPY", rates)
	ctx := context.Background()

	if err := conv.SetRate(ctx, "usd", decimal.RequireFromString("150.25")); err != nil {
		t.Fatalf("SetRate() error = %v", err)
	}
	if _, ok := rates.rates["USD"]; !ok {
		t.Error("SetRate did not store the normalized code")
	}

	// Home currency is a silent no-op.
	if err := conv.SetRate(ctx, "JPY", decimal.RequireFromString("2")); err != nil {
		t.Fatalf("SetRate(home) error = %v", err)
	}
	if _, ok := rates.rates["JPY"]; ok {
		t.Error("SetRate stored a rate for the home currency")
	}

	if err := conv.SetRate(ctx, "EUR", decimal.Zero); !errors.Is(err, core.ErrValidation) {
		t.Errorf("SetRate(0) error = %v, want ErrValidation", err)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"usd", "USD"},
		{"  EUR ", "EUR"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
