package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCategory is what blank categories coalesce to, in storage and in
// reports alike.
const DefaultCategory = "Uncategorized"

// Well-known provenance tags. Source is freeform; these are the ones the
// engine itself writes.
const (
	SourceManual    = "manual"
	SourceCSV       = "csv"
	SourceRecurring = "recurring"
	SourceSample    = "sample"
)

var (
	// ErrValidation is the root of the rejected-input taxonomy. Errors
	// wrapping it mean the operation was refused before touching storage.
	ErrValidation = errors.New("validation")

	// ErrNotFound is returned for lookups of ids that do not exist.
	ErrNotFound = errors.New("not found")
)

// Transaction is a stored ledger row. Amount is always the home-currency
// value and is the only field aggregation ever reads. Currency, Original
// and Rate are populated together for rows that arrived in a foreign
// currency and are display-only; Currency == "" means the row has no
// foreign trace. ExternalID == "" means the row never participates in
// duplicate detection; RecurringRuleID == 0 means the row was not
// materialized from a rule.
type Transaction struct {
	ID              int64
	Date            Date
	Amount          int64
	Currency        string
	Original        decimal.Decimal
	Rate            decimal.Decimal
	Name            string
	Description     string
	Category        string
	Source          string
	RecurringRuleID int64
	ExternalID      string
}

// Income reports whether the row counts as income under the list filters.
// Zero-amount rows are neither income nor expense.
func (t Transaction) Income() bool  { return t.Amount > 0 }
func (t Transaction) Expense() bool { return t.Amount < 0 }

// TransactionDraft is the write shape accepted by the ledger before
// currency conversion. Exactly one of FallbackHome (home-currency rows) or
// Original (foreign rows) carries the economic amount; the converter
// decides which based on Currency.
type TransactionDraft struct {
	Date            Date
	Currency        string
	Original        *decimal.Decimal
	Rate            *decimal.Decimal
	FallbackHome    *decimal.Decimal
	Name            string
	Description     string
	Category        string
	Source          string
	RecurringRuleID int64
	ExternalID      string
}

func (d TransactionDraft) Validate() error {
	if d.Date.IsZero() {
		return fmt.Errorf("%w: transaction date is required", ErrValidation)
	}
	if d.Original == nil && d.FallbackHome == nil {
		return fmt.Errorf("%w: transaction amount is required", ErrValidation)
	}
	return nil
}

// TransactionUpdate carries the editable fields of a row. Update never
// touches source, external id or the rule back-reference.
type TransactionUpdate struct {
	Date         Date
	Currency     string
	Original     *decimal.Decimal
	Rate         *decimal.Decimal
	FallbackHome *decimal.Decimal
	Name         string
	Description  string
	Category     string
}

// InsertResult is the tagged outcome of an insert: either a fresh row id or
// a suppressed duplicate (never both, never an error).
type InsertResult struct {
	ID        int64
	Duplicate bool
}

func (r InsertResult) Inserted() bool { return !r.Duplicate }

// TypeFilter selects rows by amount sign when listing.
type TypeFilter string

const (
	FilterAll      TypeFilter = "All"
	FilterExpenses TypeFilter = "Expenses"
	FilterIncome   TypeFilter = "Income"
)

// ListFilter narrows a transaction listing. Zero values mean "no filter";
// Limit <= 0 falls back to DefaultListLimit.
type ListFilter struct {
	Start            Date
	End              Date
	Type             TypeFilter
	Category         string
	ExcludeRecurring bool
	Limit            int
}

const DefaultListLimit = 200

// RecurringRule is a monthly schedule template. Amount is home-currency
// with the sign encoding income/expense; Currency/Original/Rate mirror the
// transaction fields for rules defined in a foreign currency. A stopped
// rule keeps Active == false and a set EndDate; its past transactions stay.
type RecurringRule struct {
	ID          int64
	Name        string
	Amount      int64
	Currency    string
	Original    decimal.Decimal
	Rate        decimal.Decimal
	Category    string
	Description string
	DayOfMonth  int
	StartDate   Date
	EndDate     Date
	Active      bool
}

// RuleDraft is the pre-conversion write shape for recurring rules,
// mirroring TransactionDraft's amount fields.
type RuleDraft struct {
	Name         string
	Currency     string
	Original     *decimal.Decimal
	Rate         *decimal.Decimal
	FallbackHome *decimal.Decimal
	Category     string
	Description  string
	DayOfMonth   int
	StartDate    Date
	EndDate      Date
	Active       bool
}

func (d RuleDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: rule name is required", ErrValidation)
	}
	if d.DayOfMonth < 1 || d.DayOfMonth > 31 {
		return fmt.Errorf("%w: day of month %d out of range 1-31", ErrValidation, d.DayOfMonth)
	}
	if d.StartDate.IsZero() {
		return fmt.Errorf("%w: rule start date is required", ErrValidation)
	}
	if !d.EndDate.IsZero() && d.EndDate.Before(d.StartDate) {
		return fmt.Errorf("%w: rule end date before start date", ErrValidation)
	}
	if d.Original == nil && d.FallbackHome == nil {
		return fmt.Errorf("%w: rule amount is required", ErrValidation)
	}
	return nil
}

func (r RecurringRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: rule name is required", ErrValidation)
	}
	if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
		return fmt.Errorf("%w: day of month %d out of range 1-31", ErrValidation, r.DayOfMonth)
	}
	if r.StartDate.IsZero() {
		return fmt.Errorf("%w: rule start date is required", ErrValidation)
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate) {
		return fmt.Errorf("%w: rule end date before start date", ErrValidation)
	}
	return nil
}

// ImportStats summarizes a best-effort batch import.
type ImportStats struct {
	Imported   int
	Duplicates int
	Failed     int
}

// SyncStats summarizes one materialization pass.
type SyncStats struct {
	Inserted   int
	Duplicates int
}

// Rate is one row of the operator-maintained rate table.
type Rate struct {
	Currency  string
	ToHome    decimal.Decimal
	UpdatedAt string
}

// TimeseriesBucket is one grouped interval of the timeseries report.
// Income is >= 0, Expense <= 0 (kept negative); Net is their sum. Buckets
// with no transactions are not produced; callers needing a dense series
// zero-fill the gaps themselves.
type TimeseriesBucket struct {
	Label   string
	Income  int64
	Expense int64
}

func (b TimeseriesBucket) Net() int64 { return b.Income + b.Expense }

// Granularity selects the timeseries bucket width.
type Granularity string

const (
	ByDay   Granularity = "day"
	ByWeek  Granularity = "week"
	ByMonth Granularity = "month"
	ByYear  Granularity = "year"
)

// CategoryTotal is one row of the expense breakdown, Total stored as an
// absolute value.
type CategoryTotal struct {
	Category string
	Total    int64
}

// MTDSummary is the month-to-date rollup for the home dashboard.
type MTDSummary struct {
	Income   int64
	Expenses int64
	Net      int64
	Start    Date
	End      Date
}
