package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

type seedCmd struct {
	app *app

	months int
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "insert sample transactions" }
func (*seedCmd) Usage() string {
	return `kakeibo seed [-months <n>]

  Inserts a few months of sample transactions for trying the reports on
  an empty database. Sample rows carry source "sample" so they are easy
  to find and delete.
`
}

func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.months, "months", 3, "months of samples to generate, ending this month")
}

// seedRow is one sample template: a home-currency amount and a day of the
// month it lands on.
type seedRow struct {
	day      int
	amount   int64
	name     string
	category string
}

var seedRows = []seedRow{
	{25, 320000, "Acme Corp", "Salary"},
	{1, -85000, "Maple Heights", "Rent"},
	{3, -6480, "Konbini", "Groceries"},
	{8, -12300, "Super Mart", "Groceries"},
	{11, -3200, "Ramen Ichi", "Dining"},
	{15, -9800, "Dept Store", "Shopping"},
	{18, -1480, "Stream Plus", "Subscriptions"},
	{21, -5400, "City Transit", "Transport"},
	{27, -7600, "Izakaya", "Dining"},
}

func (c *seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.months < 1 {
		return fail(fmt.Errorf("-months must be at least 1"))
	}

	batch := uuid.NewString()[:8]
	month := core.Today().MonthStart().AddMonths(1 - c.months)

	var drafts []core.TransactionDraft
	for i := 0; i < c.months; i++ {
		for _, row := range seedRows {
			amount := decimal.NewFromInt(row.amount)
			drafts = append(drafts, core.TransactionDraft{
				Date:         core.ClampDay(month.Year(), month.Month(), row.day),
				FallbackHome: &amount,
				Name:         row.name,
				Category:     row.category,
				Source:       core.SourceSample,
				ExternalID:   fmt.Sprintf("sample:%s:%s:%s", batch, month.MonthKey(), row.name),
			})
		}
		month = month.AddMonths(1)
	}

	stats, err := c.app.ledger.Import(ctx, drafts)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Seeded %d sample transactions\n", stats.Imported)
	return subcommands.ExitSuccess
}
