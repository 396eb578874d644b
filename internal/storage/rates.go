package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// Rate returns the stored rate for a currency code, or found=false. The
// repository satisfies fx.RateTable.
func (r *Repository) Rate(ctx context.Context, currency string) (decimal.Decimal, bool, error) {
	var rate float64
	err := r.db.QueryRowContext(ctx,
		`SELECT fx_rate_to_jpy FROM currency_rates WHERE currency = ?`,
		currency).Scan(&rate)
	if err == sql.ErrNoRows {
		return decimal.Decimal{}, false, nil
	}
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("get rate %s: %w", currency, err)
	}
	return decimal.NewFromFloat(rate), true, nil
}

// SetRate inserts or replaces the rate for a currency code. Positivity and
// home-currency rules are enforced by the converter before this is called;
// the CHECK constraint backstops direct writes.
func (r *Repository) SetRate(ctx context.Context, currency string, rate decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO currency_rates (currency, fx_rate_to_jpy, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(currency) DO UPDATE SET
			fx_rate_to_jpy = excluded.fx_rate_to_jpy,
			updated_at = excluded.updated_at`,
		currency, rate.InexactFloat64())
	if err != nil {
		return fmt.Errorf("set rate %s: %w", currency, err)
	}
	return nil
}

// ListRates returns the whole rate table ordered by currency code.
func (r *Repository) ListRates(ctx context.Context) ([]core.Rate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT currency, fx_rate_to_jpy, updated_at FROM currency_rates ORDER BY currency`)
	if err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	defer rows.Close()

	var rates []core.Rate
	for rows.Next() {
		var (
			rate core.Rate
			f    float64
		)
		if err := rows.Scan(&rate.Currency, &f, &rate.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list rates: %w", err)
		}
		rate.ToHome = decimal.NewFromFloat(f)
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	return rates, nil
}
