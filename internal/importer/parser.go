// Package importer parses bank and PayPal CSV exports into the draft rows
// the ledger accepts. Date parsing, locale-aware amounts, status filtering
// and column mapping all live here; deduplication stays the ledger's job.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"kakeibo/internal/core"
	"kakeibo/internal/fx"
)

// Mapping names the CSV columns for each logical field. Date, Amount and
// ExternalID are required; the rest are optional. ItemTitle, Subject and
// Note are the PayPal-style description fallbacks, tried in that order when
// no Description column is mapped.
type Mapping struct {
	Date        string
	Amount      string
	ExternalID  string
	Status      string
	Name        string
	Description string
	Category    string
	Currency    string
	ItemTitle   string
	Subject     string
	Note        string
}

// PresetPayPal is the column mapping for PayPal activity exports.
const PresetPayPal = "paypal"

// Options configures one parse run.
type Options struct {
	// Preset selects a built-in mapping; when empty, Mapping is used.
	Preset  string
	Mapping Mapping

	// Source is the provenance tag stamped on every row (default "csv").
	Source string

	// DefaultCategory fills rows without a category cell.
	DefaultCategory string

	// DefaultCurrency fills rows without a currency cell.
	DefaultCurrency string

	// HomeCurrency decides whether a row's amount is already home-currency
	// or needs conversion downstream.
	HomeCurrency string

	// OnlyCompleted drops rows whose status cell is set and not
	// "completed" (PayPal holds and reversals).
	OnlyCompleted bool
}

func (o Options) withDefaults() Options {
	if o.Source == "" {
		o.Source = core.SourceCSV
	}
	if o.DefaultCategory == "" {
		o.DefaultCategory = core.DefaultCategory
	}
	if o.HomeCurrency == "" {
		o.HomeCurrency = "JPY"
	}
	if o.DefaultCurrency == "" {
		o.DefaultCurrency = o.HomeCurrency
	}
	return o
}

func paypalMapping() Mapping {
	return Mapping{
		Date:       "Date",
		Amount:     "Net",
		ExternalID: "Transaction ID",
		Status:     "Status",
		Name:       "Name",
		Currency:   "Currency",
		ItemTitle:  "Item Title",
		Subject:    "Subject",
		Note:       "Note",
	}
}

// dateLayouts are tried in order when parsing date cells.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	"02.01.2006",
}

func parseCellDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, fmt.Errorf("%w: date missing", core.ErrValidation)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.NewDate(t.Date()), nil
		}
	}
	return core.Date{}, fmt.Errorf("%w: unparseable date %q", core.ErrValidation, s)
}

// Parse reads one CSV export and returns draft rows ready for the ledger's
// batch import, plus the count of rows rejected by cell-level validation.
// Rows without an external id are dropped silently: without one the ledger
// cannot deduplicate them on re-import. A bad date or amount cell fails
// only its own row; structural problems fail the whole file.
func Parse(ctx context.Context, r io.Reader, opts Options) ([]core.TransactionDraft, int, error) {
	opts = opts.withDefaults()
	batch := uuid.NewString()

	utf8r, err := newUTF8Reader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("detect encoding: %w", err)
	}

	content, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, 0, fmt.Errorf("read csv: %w", err)
	}

	header, _, _ := strings.Cut(string(content), "\n")

	reader := csv.NewReader(strings.NewReader(string(content)))
	reader.Comma = sniffDelimiter(header)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("%w: empty csv", core.ErrValidation)
	}

	mapping := opts.Mapping
	if strings.EqualFold(opts.Preset, PresetPayPal) {
		mapping = paypalMapping()
		opts.OnlyCompleted = true
	}

	cols, err := resolveColumns(rows[0], mapping)
	if err != nil {
		return nil, 0, err
	}

	var (
		drafts  []core.TransactionDraft
		dropped int
		failed  int
	)

	for _, row := range rows[1:] {
		draft, ok, err := parseRow(row, cols, opts)
		if errors.Is(err, core.ErrValidation) {
			failed++
			slog.WarnContext(ctx, "CSV row rejected", "batch", batch, "error", err)
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			dropped++
			continue
		}
		drafts = append(drafts, draft)
	}

	slog.InfoContext(ctx, "CSV parsed",
		"batch", batch, "rows", len(drafts), "dropped", dropped, "failed", failed,
		"preset", opts.Preset, "source", opts.Source)
	return drafts, failed, nil
}

// colIndex maps each logical field to its column position, -1 when the
// field is unmapped.
type colIndex struct {
	date, amount, externalID, status      int
	name, description, category, currency int
	itemTitle, subject, note              int
}

// resolveColumns validates the mapping against the header. Header matching
// is case-insensitive on trimmed names. Date, amount and external id are
// required; other mapped names must exist, unmapped fields stay optional.
func resolveColumns(header []string, m Mapping) (colIndex, error) {
	byName := make(map[string]int, len(header))
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		if name != "" {
			byName[name] = i
		}
	}

	lookup := func(field, name string, required bool) (int, error) {
		name = strings.TrimSpace(name)
		if name == "" {
			if required {
				return -1, fmt.Errorf("%w: missing required column mapping for %s", core.ErrValidation, field)
			}
			return -1, nil
		}
		idx, ok := byName[strings.ToLower(name)]
		if !ok {
			if required {
				return -1, fmt.Errorf("%w: column not found for %s: %q", core.ErrValidation, field, name)
			}
			return -1, nil
		}
		return idx, nil
	}

	var (
		cols colIndex
		err  error
	)
	if cols.date, err = lookup("date", m.Date, true); err != nil {
		return colIndex{}, err
	}
	if cols.amount, err = lookup("amount", m.Amount, true); err != nil {
		return colIndex{}, err
	}
	if cols.externalID, err = lookup("external_id", m.ExternalID, true); err != nil {
		return colIndex{}, err
	}
	cols.status, _ = lookup("status", m.Status, false)
	cols.name, _ = lookup("name", m.Name, false)
	cols.description, _ = lookup("description", m.Description, false)
	cols.category, _ = lookup("category", m.Category, false)
	cols.currency, _ = lookup("currency", m.Currency, false)
	cols.itemTitle, _ = lookup("item_title", m.ItemTitle, false)
	cols.subject, _ = lookup("subject", m.Subject, false)
	cols.note, _ = lookup("note", m.Note, false)

	return cols, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow turns one data row into a draft. ok=false means the row was
// filtered (no external id, or status not completed), which is not an
// error.
func parseRow(row []string, cols colIndex, opts Options) (core.TransactionDraft, bool, error) {
	externalID := cell(row, cols.externalID)
	if externalID == "" {
		return core.TransactionDraft{}, false, nil
	}

	if opts.OnlyCompleted && cols.status >= 0 {
		status := strings.ToLower(cell(row, cols.status))
		if status != "" && status != "completed" {
			return core.TransactionDraft{}, false, nil
		}
	}

	date, err := parseCellDate(cell(row, cols.date))
	if err != nil {
		return core.TransactionDraft{}, false, err
	}

	amount, err := parseAmount(cell(row, cols.amount))
	if err != nil {
		return core.TransactionDraft{}, false, err
	}

	currency := fx.Normalize(cell(row, cols.currency))
	if currency == "" {
		currency = fx.Normalize(opts.DefaultCurrency)
	}

	category := cell(row, cols.category)
	if category == "" {
		category = opts.DefaultCategory
	}

	draft := core.TransactionDraft{
		Date:        date,
		Name:        cell(row, cols.name),
		Description: pickDescription(row, cols),
		Category:    category,
		Source:      opts.Source,
		ExternalID:  externalID,
	}

	if currency == fx.Normalize(opts.HomeCurrency) {
		draft.FallbackHome = &amount
	} else {
		draft.Currency = currency
		draft.Original = &amount
	}

	return draft, true, nil
}

// pickDescription prefers the mapped description column, then the
// PayPal-ish fallbacks in a fixed order.
func pickDescription(row []string, cols colIndex) string {
	for _, idx := range []int{cols.description, cols.itemTitle, cols.subject, cols.note} {
		if v := cell(row, idx); v != "" {
			return v
		}
	}
	return ""
}
