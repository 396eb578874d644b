package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

const ruleColumns = `
	id, name, amount, currency, amount_original, fx_rate_to_jpy,
	category, description, day_of_month, start_date, end_date, active
`

func scanRule(s scanner) (core.RecurringRule, error) {
	var (
		r        core.RecurringRule
		currency sql.NullString
		original sql.NullFloat64
		rate     sql.NullFloat64
		desc     sql.NullString
		start    string
		end      sql.NullString
		active   int64
	)

	if err := s.Scan(
		&r.ID, &r.Name, &r.Amount, &currency, &original, &rate,
		&r.Category, &desc, &r.DayOfMonth, &start, &end, &active,
	); err != nil {
		return core.RecurringRule{}, err
	}

	startDate, err := core.ParseDate(start)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("stored start_date: %w", err)
	}
	r.StartDate = startDate

	if end.Valid && end.String != "" {
		endDate, err := core.ParseDate(end.String)
		if err != nil {
			return core.RecurringRule{}, fmt.Errorf("stored end_date: %w", err)
		}
		r.EndDate = endDate
	}

	r.Currency = currency.String
	if original.Valid {
		r.Original = decimal.NewFromFloat(original.Float64)
	}
	if rate.Valid {
		r.Rate = decimal.NewFromFloat(rate.Float64)
	}
	r.Description = desc.String
	r.Active = active != 0

	return r, nil
}

func nullableDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

// CreateRule stores a new recurring rule and returns its id.
func (r *Repository) CreateRule(ctx context.Context, rule core.RecurringRule) (int64, error) {
	cur, orig, rate := foreignTrace(rule.Currency, rule.Original, rule.Rate)

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_rules
			(name, amount, currency, amount_original, fx_rate_to_jpy,
			 category, description, day_of_month, start_date, end_date, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.Name, rule.Amount, cur, orig, rate,
		coalesceCategory(rule.Category), nullable(rule.Description),
		rule.DayOfMonth, rule.StartDate.String(), nullableDate(rule.EndDate),
		boolToInt(rule.Active),
	)
	if err != nil {
		return 0, fmt.Errorf("create rule: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create rule: last id: %w", err)
	}
	return id, nil
}

// UpdateRule overwrites every editable field of a rule, including the
// active flag and end date (so reactivation is a plain update).
func (r *Repository) UpdateRule(ctx context.Context, rule core.RecurringRule) error {
	cur, orig, rate := foreignTrace(rule.Currency, rule.Original, rule.Rate)

	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_rules
		SET name = ?, amount = ?, currency = ?, amount_original = ?,
		    fx_rate_to_jpy = ?, category = ?, description = ?,
		    day_of_month = ?, start_date = ?, end_date = ?, active = ?
		WHERE id = ?`,
		rule.Name, rule.Amount, cur, orig, rate,
		coalesceCategory(rule.Category), nullable(rule.Description),
		rule.DayOfMonth, rule.StartDate.String(), nullableDate(rule.EndDate),
		boolToInt(rule.Active), rule.ID,
	)
	if err != nil {
		return fmt.Errorf("update rule %d: %w", rule.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rule %d: rows affected: %w", rule.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("update rule %d: %w", rule.ID, core.ErrNotFound)
	}
	return nil
}

// StopRule deactivates a rule from the given end date forward. Historical
// transactions stay untouched.
func (r *Repository) StopRule(ctx context.Context, id int64, end core.Date) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_rules SET active = 0, end_date = ? WHERE id = ?`,
		end.String(), id)
	if err != nil {
		return fmt.Errorf("stop rule %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("stop rule %d: rows affected: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("stop rule %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// GetRule returns one rule by id, or core.ErrNotFound.
func (r *Repository) GetRule(ctx context.Context, id int64) (core.RecurringRule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM recurring_rules WHERE id = ?`, id)

	rule, err := scanRule(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.RecurringRule{}, fmt.Errorf("rule %d: %w", id, core.ErrNotFound)
		}
		return core.RecurringRule{}, fmt.Errorf("get rule %d: %w", id, err)
	}
	return rule, nil
}

// ListRules returns rules ordered by id. With activeOnly set, stopped rules
// are filtered out.
func (r *Repository) ListRules(ctx context.Context, activeOnly bool) ([]core.RecurringRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM recurring_rules`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var rules []core.RecurringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("list rules: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return rules, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
