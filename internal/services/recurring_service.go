package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
	"kakeibo/internal/fx"
	"kakeibo/internal/storage"
)

// RecurringService owns rule definitions and materializes them into
// concrete transactions. Materialization is keyed by a deterministic
// external id per rule and month, so any overlapping re-run is idempotent
// and a killed pass repairs itself on the next one.
type RecurringService struct {
	repo    *storage.Repository
	fx      *fx.Converter
	reports *ReportService
}

func NewRecurringService(repo *storage.Repository, conv *fx.Converter, reports *ReportService) *RecurringService {
	return &RecurringService{repo: repo, fx: conv, reports: reports}
}

// materializationID builds the deterministic dedup key for one rule-month.
func materializationID(ruleID int64, month core.Date) string {
	return fmt.Sprintf("rr:%d:%s", ruleID, month.MonthKey())
}

// CreateRule converts and stores a new rule. It does not materialize
// anything; callers run Sync when they want the ledger caught up.
func (s *RecurringService) CreateRule(ctx context.Context, draft core.RuleDraft) (int64, error) {
	rule, err := s.ruleFromDraft(ctx, draft)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.CreateRule(ctx, rule)
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Recurring rule created",
		"id", id, "name", rule.Name, "amount", rule.Amount, "day_of_month", rule.DayOfMonth)
	return id, nil
}

// UpdateRule overwrites a rule in place. Past months are not re-materialized;
// only future Sync calls see the new values.
func (s *RecurringService) UpdateRule(ctx context.Context, id int64, draft core.RuleDraft) error {
	rule, err := s.ruleFromDraft(ctx, draft)
	if err != nil {
		return err
	}
	rule.ID = id

	if err := s.repo.UpdateRule(ctx, rule); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Recurring rule updated", "id", id, "name", rule.Name)
	return nil
}

// StopRule deactivates a rule from end onward. The rule and its history
// stay; it simply stops generating new months past the end date.
func (s *RecurringService) StopRule(ctx context.Context, id int64, end core.Date) error {
	if end.IsZero() {
		end = core.Today()
	}
	if err := s.repo.StopRule(ctx, id, end); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Recurring rule stopped", "id", id, "end_date", end.String())
	return nil
}

// GetRule returns one rule by id.
func (s *RecurringService) GetRule(ctx context.Context, id int64) (core.RecurringRule, error) {
	return s.repo.GetRule(ctx, id)
}

// ListRules returns all rules, or only the active ones.
func (s *RecurringService) ListRules(ctx context.Context, activeOnly bool) ([]core.RecurringRule, error) {
	return s.repo.ListRules(ctx, activeOnly)
}

// Sync materializes every elapsed month for the targeted rules: one rule
// when ruleID is non-nil, otherwise all of them. upTo defaults to today.
// The whole pass runs in a single database transaction, so a failure
// commits nothing; already-materialized months count as duplicates.
func (s *RecurringService) Sync(ctx context.Context, ruleID *int64, upTo core.Date) (core.SyncStats, error) {
	if upTo.IsZero() {
		upTo = core.Today()
	}

	var stats core.SyncStats
	err := s.repo.WithTx(ctx, func(repo *storage.Repository) error {
		rules, err := s.targetRules(ctx, repo, ruleID)
		if err != nil {
			return err
		}

		for _, rule := range rules {
			ruleStats, err := s.syncRule(ctx, repo, rule, upTo)
			if err != nil {
				return fmt.Errorf("sync rule %d: %w", rule.ID, err)
			}
			stats.Inserted += ruleStats.Inserted
			stats.Duplicates += ruleStats.Duplicates
		}
		return nil
	})
	if err != nil {
		return core.SyncStats{}, err
	}

	if stats.Inserted > 0 {
		s.invalidate()
	}
	slog.InfoContext(ctx, "Recurring sync finished",
		"inserted", stats.Inserted, "duplicates", stats.Duplicates, "up_to", upTo.String())
	return stats, nil
}

func (s *RecurringService) targetRules(ctx context.Context, repo *storage.Repository, ruleID *int64) ([]core.RecurringRule, error) {
	if ruleID != nil {
		rule, err := repo.GetRule(ctx, *ruleID)
		if err != nil {
			return nil, err
		}
		return []core.RecurringRule{rule}, nil
	}
	return repo.ListRules(ctx, false)
}

// syncRule walks calendar months from the rule's start month through the
// effective-end month, inserting one row per month whose clamped target day
// falls inside the rule's window.
func (s *RecurringService) syncRule(ctx context.Context, repo *storage.Repository, rule core.RecurringRule, upTo core.Date) (core.SyncStats, error) {
	end := rule.EndDate
	if end.IsZero() {
		if !rule.Active {
			// Stopped without an end date: nothing left to backfill.
			return core.SyncStats{}, nil
		}
		end = upTo
	}

	conv, err := s.convertRuleAmount(ctx, rule)
	if err != nil {
		return core.SyncStats{}, err
	}

	var stats core.SyncStats
	lastMonth := end.MonthStart()

	for month := rule.StartDate.MonthStart(); !month.After(lastMonth); month = month.AddMonths(1) {
		target := core.ClampDay(month.Year(), month.Month(), rule.DayOfMonth)
		if target.Before(rule.StartDate) || target.After(end) {
			continue
		}

		res, err := repo.InsertTransaction(ctx, core.Transaction{
			Date:            target,
			Amount:          conv.Amount,
			Currency:        conv.Currency,
			Original:        conv.Original,
			Rate:            conv.Rate,
			Name:            rule.Name,
			Description:     rule.Description,
			Category:        rule.Category,
			Source:          core.SourceRecurring,
			RecurringRuleID: rule.ID,
			ExternalID:      materializationID(rule.ID, month),
		})
		if err != nil {
			return core.SyncStats{}, err
		}

		if res.Duplicate {
			stats.Duplicates++
		} else {
			stats.Inserted++
		}
	}

	return stats, nil
}

// convertRuleAmount re-runs the conversion with the rule's stored explicit
// rate, so a materialized amount is reproducible no matter what the rate
// table says today.
func (s *RecurringService) convertRuleAmount(ctx context.Context, rule core.RecurringRule) (fx.Conversion, error) {
	fallback := decimal.NewFromInt(rule.Amount)
	if rule.Currency == "" {
		return s.fx.Convert(ctx, "", nil, nil, &fallback)
	}
	original := rule.Original
	rate := rule.Rate
	return s.fx.Convert(ctx, rule.Currency, &original, &rate, &fallback)
}

func (s *RecurringService) ruleFromDraft(ctx context.Context, draft core.RuleDraft) (core.RecurringRule, error) {
	if err := draft.Validate(); err != nil {
		return core.RecurringRule{}, err
	}

	conv, err := s.fx.Convert(ctx, draft.Currency, draft.Original, draft.Rate, draft.FallbackHome)
	if err != nil {
		return core.RecurringRule{}, err
	}

	return core.RecurringRule{
		Name:        draft.Name,
		Amount:      conv.Amount,
		Currency:    conv.Currency,
		Original:    conv.Original,
		Rate:        conv.Rate,
		Category:    draft.Category,
		Description: draft.Description,
		DayOfMonth:  draft.DayOfMonth,
		StartDate:   draft.StartDate,
		EndDate:     draft.EndDate,
		Active:      draft.Active,
	}, nil
}

func (s *RecurringService) invalidate() {
	if s.reports != nil {
		s.reports.Invalidate()
	}
}
