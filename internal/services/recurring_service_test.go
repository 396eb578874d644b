package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kakeibo/internal/core"
)

func TestSyncMaterializesElapsedMonths(t *testing.T) {
	ledger, recurring, _ := newTestServices(t)
	ctx := context.Background()

	id, err := recurring.CreateRule(ctx, core.RuleDraft{
		Name:         "Rent",
		FallbackHome: dec("-85000"),
		Category:     "Housing",
		DayOfMonth:   1,
		StartDate:    core.MustDate("2024-01-01"),
		Active:       true,
	})
	require.NoError(t, err)

	stats, err := recurring.Sync(ctx, nil, core.MustDate("2024-03-15"))
	require.NoError(t, err)
	assert.Equal(t, core.SyncStats{Inserted: 3}, stats)

	txs, err := ledger.List(ctx, core.ListFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 3)

	// Newest first.
	assert.Equal(t, "2024-03-01", txs[0].Date.String())
	assert.Equal(t, "2024-02-01", txs[1].Date.String())
	assert.Equal(t, "2024-01-01", txs[2].Date.String())

	for i, tx := range txs {
		assert.Equal(t, int64(-85000), tx.Amount)
		assert.Equal(t, core.SourceRecurring, tx.Source)
		assert.Equal(t, id, tx.RecurringRuleID)
		assert.Equal(t, fmt.Sprintf("rr:%d:2024-0%d", id, 3-i), tx.ExternalID)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	_, recurring, _ := newTestServices(t)
	ctx := context.Background()

	_, err := recurring.CreateRule(ctx, core.RuleDraft{
		Name:         "Gym",
		FallbackHome: dec("-7000"),
		DayOfMonth:   5,
		StartDate:    core.MustDate("2024-01-01"),
		Active:       true,
	})
	require.NoError(t, err)

	first, err := recurring.Sync(ctx, nil, core.MustDate("2024-04-10"))
	require.NoError(t, err)
	assert.Equal(t, 4, first.Inserted)

	second, err := recurring.Sync(ctx, nil, core.MustDate("2024-04-10"))
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, first.Inserted, second.Duplicates)
}

func TestSyncClampsDayToMonthEnd(t *testing.T) {
	ledger, recurring, _ := newTestServices(t)
	ctx := context.Background()

	_, err := recurring.CreateRule(ctx, core.RuleDraft{
		Name:         "Payday",
		FallbackHome: dec("320000"),
		DayOfMonth:   31,
		StartDate:    core.MustDate("2024-01-01"),
		Active:       true,
	})
	require.NoError(t, err)

	stats, err := recurring.Sync(ctx, nil, core.MustDate("2024-04-30"))
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Inserted)

	txs, err := ledger.List(ctx, core.ListFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 4)

	dates := []string{txs[3].Date.String(), txs[2].Date.String(), txs[1].Date.String(), txs[0].Date.String()}
	assert.Equal(t, []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"}, dates)
}

func TestSyncRespectsWindow(t *testing.T) {
	ledger, recurring, _ := newTestServices(t)
	ctx := context.Background()

	// Starts mid-month after the target day, ends mid-month before it.
	_, err := recurring.CreateRule(ctx, core.RuleDraft{
		Name:         "Short",
		FallbackHome: dec("-1000"),
		DayOfMonth:   10,
		StartDate:    core.MustDate("2024-01-15"),
		EndDate:      core.MustDate("2024-04-05"),
		Active:       true,
	})
	require.NoError(t, err)

	stats, err := recurring.Sync(ctx, nil, core.MustDate("2024-12-31"))
	require.NoError(t, err)

	// January's day 10 precedes the start, April's day 10 follows the end:
	// only February and March materialize.
	assert.Equal(t, 2, stats.Inserted)

	txs, err := ledger.List(ctx, core.ListFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "2024-03-10", txs[0].Date.String())
	assert.Equal(t, "2024-02-10", txs[1].Date.String())
}

func TestSyncSingleRule(t *testing.T) {
	ledger, recurring, _ := newTestServices(t)
	ctx := context.Background()

	a, err := recurring.CreateRule(ctx, core.RuleDraft{
		Name: "A", FallbackHome: dec("-100"), DayOfMonth: 1,
		StartDate: core.MustDate("2024-01-01"), Active: true,
	})
	require.NoError(t, err)

	_, err = recurring.CreateRule(ctx, core.RuleDraft{
		Name: "B", FallbackHome: dec("-200"), DayOfMonth: 1,
		StartDate: core.MustDate("2024-01-01"), Active: true,
	})
	require.NoError(t, err)

	stats, err := recurring.Sync(ctx, &a, core.MustDate("2024-02-15"))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Inserted)

	txs, err := ledger.List(ctx, core.ListFilter{})
	require.NoError(t, err)
	for _, tx := range txs {
		assert.Equal(t, a, tx.RecurringRuleID)
	}
}

func TestSyncStoppedRuleBackfillsThroughEndDate(t *testing.T) {
	_, recurring, _ := newTestServices(t)
	ctx := context.Background()

	id, err := recurring.CreateRule(ctx, core.RuleDraft{
		Name: "Old sub", FallbackHome: dec("-1480"), DayOfMonth: 20,
		StartDate: core.MustDate("2024-01-01"), Active: true,
	})
	require.NoError(t, err)

	require.NoError(t, recurring.StopRule(ctx, id, core.MustDate("2024-02-28")))

	stats, err := recurring.Sync(ctx, nil, core.MustDate("2024-06-30"))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Inserted, "stopped rule still backfills through its end date")
}

func TestSyncInactiveRuleWithoutEndDateIsSkipped(t *testing.T) {
	_, recurring, _ := newTestServices(t)
	ctx := context.Background()

	_, err := recurring.CreateRule(ctx, core.RuleDraft{
		Name: "Draft rule", FallbackHome: dec("-500"), DayOfMonth: 1,
		StartDate: core.MustDate("2024-01-01"), Active: false,
	})
	require.NoError(t, err)

	stats, err := recurring.Sync(ctx, nil, core.MustDate("2024-06-30"))
	require.NoError(t, err)
	assert.Equal(t, core.SyncStats{}, stats)
}

func TestSyncForeignRuleUsesPinnedRate(t *testing.T) {
	ledger, recurring, _ := newTestServices(t)
	ctx := context.Background()

	_, err := recurring.CreateRule(ctx, core.RuleDraft{
		Name:       "Cloud hosting",
		Currency:   "USD",
		Original:   dec("-20"),
		Rate:       dec("150"),
		DayOfMonth: 1,
		StartDate:  core.MustDate("2024-01-01"),
		Active:     true,
	})
	require.NoError(t, err)

	// Move the table rate; materialization must keep using the pinned one.
	require.NoError(t, ledger.SetRate(ctx, "USD", *dec("999")))

	_, err = recurring.Sync(ctx, nil, core.MustDate("2024-02-15"))
	require.NoError(t, err)

	txs, err := ledger.List(ctx, core.ListFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, int64(-3000), tx.Amount)
		assert.Equal(t, "USD", tx.Currency)
	}
}

func TestStopRuleDefaultsToToday(t *testing.T) {
	_, recurring, _ := newTestServices(t)
	ctx := context.Background()

	id, err := recurring.CreateRule(ctx, core.RuleDraft{
		Name: "X", FallbackHome: dec("-100"), DayOfMonth: 1,
		StartDate: core.MustDate("2024-01-01"), Active: true,
	})
	require.NoError(t, err)

	require.NoError(t, recurring.StopRule(ctx, id, core.Date{}))

	rule, err := recurring.GetRule(ctx, id)
	require.NoError(t, err)
	assert.False(t, rule.Active)
	assert.Equal(t, core.Today(), rule.EndDate)
}
