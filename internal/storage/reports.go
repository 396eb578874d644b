package storage

import (
	"context"
	"fmt"

	"kakeibo/internal/core"
)

// bucketLabel returns the SQL expression that maps tx_date onto its bucket
// label. The week expression shifts each date back to the Monday of its ISO
// week (strftime %w counts Sunday as 0).
func bucketLabel(g core.Granularity) (string, error) {
	switch g {
	case core.ByDay:
		return "tx_date", nil
	case core.ByWeek:
		return "date(tx_date, '-' || ((CAST(strftime('%w', tx_date) AS INTEGER) + 6) % 7) || ' days')", nil
	case core.ByMonth:
		return "date(tx_date, 'start of month')", nil
	case core.ByYear:
		return "date(tx_date, 'start of year')", nil
	default:
		return "", fmt.Errorf("%w: unknown granularity %q", core.ErrValidation, g)
	}
}

// Timeseries returns income/expense sums per bucket over [start, end],
// ordered by label. Buckets without transactions are not produced.
func (r *Repository) Timeseries(ctx context.Context, start, end core.Date, g core.Granularity, excludeRecurring bool) ([]core.TimeseriesBucket, error) {
	label, err := bucketLabel(g)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + label + ` AS label,
		       COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0) AS income,
		       COALESCE(SUM(CASE WHEN amount < 0 THEN amount ELSE 0 END), 0) AS expense
		FROM transactions
		WHERE tx_date BETWEEN ? AND ?`
	if excludeRecurring {
		query += ` AND source IS NOT 'recurring'`
	}
	query += `
		GROUP BY label
		ORDER BY label ASC`

	rows, err := r.db.QueryContext(ctx, query, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("timeseries: %w", err)
	}
	defer rows.Close()

	var buckets []core.TimeseriesBucket
	for rows.Next() {
		var b core.TimeseriesBucket
		if err := rows.Scan(&b.Label, &b.Income, &b.Expense); err != nil {
			return nil, fmt.Errorf("timeseries: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("timeseries: %w", err)
	}
	return buckets, nil
}

// CategoryBreakdown returns per-category expense totals (absolute values)
// over [start, end], largest first. Income rows never enter the breakdown.
func (r *Repository) CategoryBreakdown(ctx context.Context, start, end core.Date, excludeRecurring bool) ([]core.CategoryTotal, error) {
	query := `
		SELECT COALESCE(NULLIF(TRIM(category), ''), 'Uncategorized') AS category,
		       SUM(-amount) AS total
		FROM transactions
		WHERE tx_date BETWEEN ? AND ? AND amount < 0`
	if excludeRecurring {
		query += ` AND source IS NOT 'recurring'`
	}
	query += `
		GROUP BY category
		ORDER BY total DESC, category COLLATE NOCASE`

	rows, err := r.db.QueryContext(ctx, query, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var t core.CategoryTotal
		if err := rows.Scan(&t.Category, &t.Total); err != nil {
			return nil, fmt.Errorf("category breakdown: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	return totals, nil
}

// MTDSummary sums income and expenses from the first of asOf's month
// through asOf inclusive.
func (r *Repository) MTDSummary(ctx context.Context, asOf core.Date) (core.MTDSummary, error) {
	start := asOf.MonthStart()

	var income, expenses int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN amount < 0 THEN amount ELSE 0 END), 0)
		FROM transactions
		WHERE tx_date >= ? AND tx_date <= ?`,
		start.String(), asOf.String()).Scan(&income, &expenses)
	if err != nil {
		return core.MTDSummary{}, fmt.Errorf("month-to-date summary: %w", err)
	}

	return core.MTDSummary{
		Income:   income,
		Expenses: expenses,
		Net:      income + expenses,
		Start:    start,
		End:      asOf,
	}, nil
}
