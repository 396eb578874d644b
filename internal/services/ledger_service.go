// Package services wires the ledger's storage, conversion and reporting
// pieces into the operations the rest of the application calls.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
	"kakeibo/internal/fx"
	"kakeibo/internal/storage"
)

// LedgerService is the write and read surface for individual transactions.
// Every write runs its amount through the converter first, so the stored
// Amount column is always home-currency. reports may be nil; when set, its
// cache is invalidated after each successful write.
type LedgerService struct {
	repo    *storage.Repository
	fx      *fx.Converter
	reports *ReportService
}

func NewLedgerService(repo *storage.Repository, conv *fx.Converter, reports *ReportService) *LedgerService {
	return &LedgerService{repo: repo, fx: conv, reports: reports}
}

// Insert converts and stores one transaction. A suppressed duplicate is a
// normal outcome, reported through the result, not an error.
func (s *LedgerService) Insert(ctx context.Context, draft core.TransactionDraft) (core.InsertResult, error) {
	if err := draft.Validate(); err != nil {
		return core.InsertResult{}, err
	}

	conv, err := s.fx.Convert(ctx, draft.Currency, draft.Original, draft.Rate, draft.FallbackHome)
	if err != nil {
		return core.InsertResult{}, err
	}

	res, err := s.repo.InsertTransaction(ctx, core.Transaction{
		Date:            draft.Date,
		Amount:          conv.Amount,
		Currency:        conv.Currency,
		Original:        conv.Original,
		Rate:            conv.Rate,
		Name:            draft.Name,
		Description:     draft.Description,
		Category:        draft.Category,
		Source:          draft.Source,
		RecurringRuleID: draft.RecurringRuleID,
		ExternalID:      draft.ExternalID,
	})
	if err != nil {
		return core.InsertResult{}, err
	}

	if res.Duplicate {
		slog.DebugContext(ctx, "Duplicate transaction suppressed",
			"external_id", draft.ExternalID, "source", draft.Source)
		return res, nil
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", res.ID, "date", draft.Date.String(), "amount", conv.Amount,
		"currency", conv.Currency, "source", draft.Source)
	s.invalidate()
	return res, nil
}

// Update re-converts and overwrites the editable fields of a row.
func (s *LedgerService) Update(ctx context.Context, id int64, upd core.TransactionUpdate) error {
	if upd.Date.IsZero() {
		return fmt.Errorf("%w: transaction date is required", core.ErrValidation)
	}

	conv, err := s.fx.Convert(ctx, upd.Currency, upd.Original, upd.Rate, upd.FallbackHome)
	if err != nil {
		return err
	}

	err = s.repo.UpdateTransaction(ctx, core.Transaction{
		ID:          id,
		Date:        upd.Date,
		Amount:      conv.Amount,
		Currency:    conv.Currency,
		Original:    conv.Original,
		Rate:        conv.Rate,
		Name:        upd.Name,
		Description: upd.Description,
		Category:    upd.Category,
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction updated", "id", id, "amount", conv.Amount)
	s.invalidate()
	return nil
}

// Delete removes a row permanently.
func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	s.invalidate()
	return nil
}

// Get returns one transaction by id.
func (s *LedgerService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// List returns transactions newest first under the given filter.
func (s *LedgerService) List(ctx context.Context, f core.ListFilter) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx, f)
}

// Categories returns the distinct categories in use.
func (s *LedgerService) Categories(ctx context.Context) ([]string, error) {
	return s.repo.ListCategories(ctx)
}

// Import inserts a batch best-effort: a row rejected by validation or
// conversion counts as failed and the loop continues, so one malformed
// record never blocks the rest of the file. Storage failures abort the
// batch; rows already imported stay (the import is not atomic, by design).
func (s *LedgerService) Import(ctx context.Context, drafts []core.TransactionDraft) (core.ImportStats, error) {
	var stats core.ImportStats

	for _, draft := range drafts {
		res, err := s.Insert(ctx, draft)
		if errors.Is(err, core.ErrValidation) {
			stats.Failed++
			slog.WarnContext(ctx, "Import row rejected",
				"external_id", draft.ExternalID, "error", err)
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("import: %w", err)
		}
		if res.Duplicate {
			stats.Duplicates++
		} else {
			stats.Imported++
		}
	}

	slog.InfoContext(ctx, "Import finished",
		"imported", stats.Imported, "duplicates", stats.Duplicates, "failed", stats.Failed)
	return stats, nil
}

// SetRate stores an fx rate through the converter's validation rules.
func (s *LedgerService) SetRate(ctx context.Context, currency string, rate decimal.Decimal) error {
	if err := s.fx.SetRate(ctx, currency, rate); err != nil {
		return err
	}
	slog.InfoContext(ctx, "FX rate stored", "currency", fx.Normalize(currency), "rate", rate.String())
	return nil
}

// Rates returns the stored rate table.
func (s *LedgerService) Rates(ctx context.Context) ([]core.Rate, error) {
	return s.repo.ListRates(ctx)
}

func (s *LedgerService) invalidate() {
	if s.reports != nil {
		s.reports.Invalidate()
	}
}
