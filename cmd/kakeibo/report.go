package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"kakeibo/internal/core"
)

type reportCmd struct {
	app *app

	from             string
	to               string
	by               string
	excludeRecurring bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "income/expense timeseries" }
func (*reportCmd) Usage() string {
	return `kakeibo report -from <date> -to <date> [-by day|week|month|year] [-exclude-recurring]

  Sums income and expenses per bucket over the range. Week buckets are
  labeled by their Monday. Buckets without transactions are omitted.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "start date (inclusive)")
	f.StringVar(&c.to, "to", "", "end date (inclusive)")
	f.StringVar(&c.by, "by", string(core.ByMonth), "bucket width: day, week, month or year")
	f.BoolVar(&c.excludeRecurring, "exclude-recurring", false, "leave out materialized recurring rows")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	start, err := parseDateFlag(c.from)
	if err != nil {
		return fail(err)
	}
	end, err := parseDateFlag(c.to)
	if err != nil {
		return fail(err)
	}

	buckets, err := c.app.reports.Timeseries(ctx, start, end, core.Granularity(c.by), c.excludeRecurring)
	if err != nil {
		return fail(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BUCKET\tINCOME\tEXPENSE\tNET")
	for _, b := range buckets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			b.Label, formatHome(b.Income), formatHome(b.Expense), formatHome(b.Net()))
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type breakdownCmd struct {
	app *app

	from             string
	to               string
	excludeRecurring bool
}

func (*breakdownCmd) Name() string     { return "breakdown" }
func (*breakdownCmd) Synopsis() string { return "expense totals per category" }
func (*breakdownCmd) Usage() string {
	return `kakeibo breakdown -from <date> -to <date> [-exclude-recurring]

  Sums expenses per category over the range, largest first. Income rows
  are not counted.
`
}

func (c *breakdownCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "start date (inclusive)")
	f.StringVar(&c.to, "to", "", "end date (inclusive)")
	f.BoolVar(&c.excludeRecurring, "exclude-recurring", false, "leave out materialized recurring rows")
}

func (c *breakdownCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	start, err := parseDateFlag(c.from)
	if err != nil {
		return fail(err)
	}
	end, err := parseDateFlag(c.to)
	if err != nil {
		return fail(err)
	}

	totals, err := c.app.reports.CategoryBreakdown(ctx, start, end, c.excludeRecurring)
	if err != nil {
		return fail(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tTOTAL")
	for _, t := range totals {
		fmt.Fprintf(w, "%s\t%s\n", t.Category, formatHome(t.Total))
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type mtdCmd struct {
	app *app

	asOf string
}

func (*mtdCmd) Name() string     { return "mtd" }
func (*mtdCmd) Synopsis() string { return "month-to-date summary" }
func (*mtdCmd) Usage() string {
	return `kakeibo mtd [-as-of <date>]

  Sums the month of the given date from its first day through the date
  itself (default today).
`
}

func (c *mtdCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.asOf, "as-of", "", "summarize the month of this date")
}

func (c *mtdCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	asOf, err := parseDateFlag(c.asOf)
	if err != nil {
		return fail(err)
	}

	summary, err := c.app.reports.MonthToDate(ctx, asOf)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Month to date (%s .. %s)\n", summary.Start, summary.End)
	fmt.Printf("  Income:   %s\n", formatHome(summary.Income))
	fmt.Printf("  Expenses: %s\n", formatHome(summary.Expenses))
	fmt.Printf("  Net:      %s\n", formatHome(summary.Net))
	return subcommands.ExitSuccess
}
