package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const transactionColumns = `
	id, tx_date, amount, currency, amount_original, fx_rate_to_jpy,
	name, description, category, source, recurring_rule_id, external_id
`

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		tx       core.Transaction
		txDate   string
		currency sql.NullString
		original sql.NullFloat64
		rate     sql.NullFloat64
		name     sql.NullString
		desc     sql.NullString
		source   sql.NullString
		ruleID   sql.NullInt64
		extID    sql.NullString
	)

	if err := s.Scan(
		&tx.ID, &txDate, &tx.Amount, &currency, &original, &rate,
		&name, &desc, &tx.Category, &source, &ruleID, &extID,
	); err != nil {
		return core.Transaction{}, err
	}

	d, err := core.ParseDate(txDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored tx_date: %w", err)
	}
	tx.Date = d

	tx.Currency = currency.String
	if original.Valid {
		tx.Original = decimal.NewFromFloat(original.Float64)
	}
	if rate.Valid {
		tx.Rate = decimal.NewFromFloat(rate.Float64)
	}
	tx.Name = name.String
	tx.Description = desc.String
	tx.Source = source.String
	tx.RecurringRuleID = ruleID.Int64
	tx.ExternalID = extID.String

	return tx, nil
}

// nullable maps the domain's ""-means-absent strings to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// foreignTrace maps the display-only currency fields to their columns. A
// row without a currency carries no foreign trace at all.
func foreignTrace(currency string, original, rate decimal.Decimal) (cur, orig, r any) {
	if currency == "" {
		return nil, nil, nil
	}
	return currency, original.InexactFloat64(), rate.InexactFloat64()
}

func coalesceCategory(category string) string {
	if strings.TrimSpace(category) == "" {
		return core.DefaultCategory
	}
	return category
}

// InsertTransaction stores a converted row. A non-empty external id that is
// already present makes the insert a silent no-op reported as a duplicate;
// rows without an external id are never considered duplicates.
func (r *Repository) InsertTransaction(ctx context.Context, tx core.Transaction) (core.InsertResult, error) {
	cur, orig, rate := foreignTrace(tx.Currency, tx.Original, tx.Rate)

	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO transactions
			(tx_date, amount, currency, amount_original, fx_rate_to_jpy,
			 name, description, category, source, recurring_rule_id, external_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.Date.String(), tx.Amount, cur, orig, rate,
		nullable(tx.Name), nullable(tx.Description), coalesceCategory(tx.Category),
		nullable(tx.Source), nullableID(tx.RecurringRuleID), nullable(tx.ExternalID),
	)
	if err != nil {
		return core.InsertResult{}, fmt.Errorf("insert transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return core.InsertResult{}, fmt.Errorf("insert transaction: rows affected: %w", err)
	}
	if affected == 0 {
		return core.InsertResult{Duplicate: true}, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.InsertResult{}, fmt.Errorf("insert transaction: last id: %w", err)
	}
	return core.InsertResult{ID: id}, nil
}

// UpdateTransaction overwrites the editable fields of a row. Source,
// external id and the rule back-reference are deliberately left alone.
func (r *Repository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	cur, orig, rate := foreignTrace(tx.Currency, tx.Original, tx.Rate)

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET tx_date = ?, amount = ?, currency = ?, amount_original = ?,
		    fx_rate_to_jpy = ?, name = ?, description = ?, category = ?
		WHERE id = ?`,
		tx.Date.String(), tx.Amount, cur, orig, rate,
		nullable(tx.Name), nullable(tx.Description), coalesceCategory(tx.Category),
		tx.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", tx.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction %d: rows affected: %w", tx.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("update transaction %d: %w", tx.ID, core.ErrNotFound)
	}
	return nil
}

// DeleteTransaction hard-deletes a row. Deleting an id that is already gone
// is not an error.
func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

// GetTransaction returns one row by id, or core.ErrNotFound.
func (r *Repository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)

	tx, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
		}
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, nil
}

// ListTransactions returns rows newest first (date desc, id desc).
func (r *Repository) ListTransactions(ctx context.Context, f core.ListFilter) ([]core.Transaction, error) {
	var (
		where []string
		args  []any
	)

	if !f.Start.IsZero() {
		where = append(where, "tx_date >= ?")
		args = append(args, f.Start.String())
	}
	if !f.End.IsZero() {
		where = append(where, "tx_date <= ?")
		args = append(args, f.End.String())
	}

	switch f.Type {
	case core.FilterExpenses:
		where = append(where, "amount < 0")
	case core.FilterIncome:
		where = append(where, "amount > 0")
	}

	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.ExcludeRecurring {
		where = append(where, "source IS NOT 'recurring'")
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY tx_date DESC, id DESC LIMIT ?"

	limit := f.Limit
	if limit <= 0 {
		limit = core.DefaultListLimit
	}
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("list transactions: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// ListCategories returns the distinct categories in use, blanks coalesced
// to the default, ordered case-insensitively.
func (r *Repository) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT COALESCE(NULLIF(TRIM(category), ''), 'Uncategorized') AS category
		FROM transactions
		ORDER BY category COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
