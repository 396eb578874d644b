package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"kakeibo/internal/importer"
)

type importCmd struct {
	app *app

	file     string
	preset   string
	source   string
	category string
	currency string

	colDate       string
	colAmount     string
	colExternalID string
	colStatus     string
	colName       string
	colDesc       string
	colCategory   string
	colCurrency   string

	onlyCompleted bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import transactions from a CSV export" }
func (*importCmd) Usage() string {
	return `kakeibo import -file <path> [-preset paypal | -col-* mappings] [flags]

  Imports a CSV export. Re-running the same file is safe: rows are
  deduplicated by their external id. Use -preset paypal for PayPal
  activity exports, or map the columns by hand with the -col-* flags.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "path to the CSV file")
	f.StringVar(&c.preset, "preset", "", "built-in column mapping (paypal)")
	f.StringVar(&c.source, "source", "", "provenance tag for imported rows")
	f.StringVar(&c.category, "category", "", "category for rows without one")
	f.StringVar(&c.currency, "currency", "", "currency for rows without one")

	f.StringVar(&c.colDate, "col-date", "", "date column name")
	f.StringVar(&c.colAmount, "col-amount", "", "amount column name")
	f.StringVar(&c.colExternalID, "col-external-id", "", "external id column name")
	f.StringVar(&c.colStatus, "col-status", "", "status column name")
	f.StringVar(&c.colName, "col-name", "", "counterparty column name")
	f.StringVar(&c.colDesc, "col-desc", "", "description column name")
	f.StringVar(&c.colCategory, "col-category", "", "category column name")
	f.StringVar(&c.colCurrency, "col-currency", "", "currency column name")

	f.BoolVar(&c.onlyCompleted, "only-completed", false, "drop rows whose status is not completed")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		return fail(fmt.Errorf("-file is required"))
	}

	file, err := os.Open(c.file)
	if err != nil {
		return fail(err)
	}
	defer file.Close()

	source := c.source
	if source == "" {
		source = c.app.cfg.ImportSource
	}
	category := c.category
	if category == "" {
		category = c.app.cfg.ImportCategory
	}

	drafts, failed, err := importer.Parse(ctx, file, importer.Options{
		Preset: c.preset,
		Mapping: importer.Mapping{
			Date:        c.colDate,
			Amount:      c.colAmount,
			ExternalID:  c.colExternalID,
			Status:      c.colStatus,
			Name:        c.colName,
			Description: c.colDesc,
			Category:    c.colCategory,
			Currency:    c.colCurrency,
		},
		Source:          source,
		DefaultCategory: category,
		DefaultCurrency: c.currency,
		HomeCurrency:    c.app.cfg.HomeCurrency,
		OnlyCompleted:   c.onlyCompleted,
	})
	if err != nil {
		return fail(err)
	}

	stats, err := c.app.ledger.Import(ctx, drafts)
	stats.Failed += failed
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import aborted after %d rows: %v\n", stats.Imported, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Imported %d, skipped %d duplicates, %d failed\n",
		stats.Imported, stats.Duplicates, stats.Failed)
	return subcommands.ExitSuccess
}
