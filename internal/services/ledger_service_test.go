package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kakeibo/internal/core"
	"kakeibo/internal/fx"
	"kakeibo/internal/storage"
)

// newTestServices opens a fresh database and wires the full service stack
// the way the binaries do.
func newTestServices(t *testing.T) (*LedgerService, *RecurringService, *ReportService) {
	t.Helper()

	repo, err := storage.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	reports := NewReportService(repo)
	conv := fx.NewConverter("JPY", repo)
	return NewLedgerService(repo, conv, reports), NewRecurringService(repo, conv, reports), reports
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestInsertConvertsForeignCurrency(t *testing.T) {
	ledger, _, _ := newTestServices(t)
	ctx := context.Background()

	// USD is seeded at 150.
	res, err := ledger.Insert(ctx, core.TransactionDraft{
		Date:     core.MustDate("2024-01-15"),
		Currency: "USD",
		Original: dec("-19.99"),
		Source:   core.SourceManual,
	})
	require.NoError(t, err)

	got, err := ledger.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-2999), got.Amount, "-19.99 * 150 rounds to -2999 (half away from zero)")
	assert.Equal(t, "USD", got.Currency)
}

func TestInsertExplicitRateBeatsTable(t *testing.T) {
	ledger, _, _ := newTestServices(t)
	ctx := context.Background()

	res, err := ledger.Insert(ctx, core.TransactionDraft{
		Date:     core.MustDate("2024-01-15"),
		Currency: "USD",
		Original: dec("100"),
		Rate:     dec("155"),
		Source:   core.SourceManual,
	})
	require.NoError(t, err)

	got, err := ledger.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(15500), got.Amount)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("155")))
}

func TestInsertUnknownCurrencyFails(t *testing.T) {
	ledger, _, _ := newTestServices(t)

	_, err := ledger.Insert(context.Background(), core.TransactionDraft{
		Date:     core.MustDate("2024-01-15"),
		Currency: "XXX",
		Original: dec("10"),
	})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestUpdateReconverts(t *testing.T) {
	ledger, _, _ := newTestServices(t)
	ctx := context.Background()

	res, err := ledger.Insert(ctx, core.TransactionDraft{
		Date:         core.MustDate("2024-01-15"),
		FallbackHome: dec("-2500"),
		Source:       core.SourceManual,
	})
	require.NoError(t, err)

	// Switch the row to a foreign amount.
	err = ledger.Update(ctx, res.ID, core.TransactionUpdate{
		Date:     core.MustDate("2024-01-15"),
		Currency: "EUR",
		Original: dec("-10"),
	})
	require.NoError(t, err)

	got, err := ledger.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-1650), got.Amount)
	assert.Equal(t, "EUR", got.Currency)
}

func TestImportBestEffort(t *testing.T) {
	ledger, _, _ := newTestServices(t)
	ctx := context.Background()

	drafts := []core.TransactionDraft{
		{Date: core.MustDate("2024-01-01"), FallbackHome: dec("-100"), ExternalID: "A1", Source: core.SourceCSV},
		{Date: core.MustDate("2024-01-02"), FallbackHome: dec("-200"), ExternalID: "A2", Source: core.SourceCSV},
		// Duplicate of A1.
		{Date: core.MustDate("2024-01-01"), FallbackHome: dec("-100"), ExternalID: "A1", Source: core.SourceCSV},
		// Unknown currency: fails validation, rest of the batch continues.
		{Date: core.MustDate("2024-01-03"), Currency: "XXX", Original: dec("5"), ExternalID: "A3", Source: core.SourceCSV},
		{Date: core.MustDate("2024-01-04"), FallbackHome: dec("-400"), ExternalID: "A4", Source: core.SourceCSV},
	}

	stats, err := ledger.Import(ctx, drafts)
	require.NoError(t, err)
	assert.Equal(t, core.ImportStats{Imported: 3, Duplicates: 1, Failed: 1}, stats)

	// Re-importing the same batch only produces duplicates.
	stats, err = ledger.Import(ctx, drafts)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Imported)
	assert.Equal(t, 4, stats.Duplicates)
	assert.Equal(t, 1, stats.Failed)
}

func TestSetRateRoundTrip(t *testing.T) {
	ledger, _, _ := newTestServices(t)
	ctx := context.Background()

	require.NoError(t, ledger.SetRate(ctx, "aud", decimal.RequireFromString("97.5")))

	rates, err := ledger.Rates(ctx)
	require.NoError(t, err)

	var found bool
	for _, r := range rates {
		if r.Currency == "AUD" {
			found = true
			assert.True(t, r.ToHome.Equal(decimal.RequireFromString("97.5")), "rate = %s", r.ToHome)
		}
	}
	assert.True(t, found, "AUD rate not stored")

	err = ledger.SetRate(ctx, "AUD", decimal.Zero)
	assert.ErrorIs(t, err, core.ErrValidation)
}
