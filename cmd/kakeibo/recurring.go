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

type recurringAddCmd struct {
	app *app

	name     string
	amount   string
	currency string
	original string
	rate     string
	category string
	desc     string
	day      int
	start    string
	end      string
}

func (*recurringAddCmd) Name() string     { return "recurring-add" }
func (*recurringAddCmd) Synopsis() string { return "create a monthly recurring rule" }
func (*recurringAddCmd) Usage() string {
	return `kakeibo recurring-add -name <name> -day <1-31> -start <date> [-amount <home>] [-currency <code> -original <amount> [-rate <rate>]] [flags]

  Creates a monthly rule. Nothing is materialized until the next sync
  pass; months where the target day does not exist clamp to the month's
  last day.
`
}

func (c *recurringAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "rule name, also the transaction name")
	f.StringVar(&c.amount, "amount", "", "home-currency amount, sign encodes income/expense")
	f.StringVar(&c.currency, "currency", "", "original currency code")
	f.StringVar(&c.original, "original", "", "amount in the original currency")
	f.StringVar(&c.rate, "rate", "", "explicit fx rate, pinned for every materialization")
	f.StringVar(&c.category, "category", "", "category for materialized rows")
	f.StringVar(&c.desc, "desc", "", "description for materialized rows")
	f.IntVar(&c.day, "day", 1, "day of month (1-31)")
	f.StringVar(&c.start, "start", core.Today().String(), "first date the rule applies")
	f.StringVar(&c.end, "end", "", "last date the rule applies (open-ended when unset)")
}

func (c *recurringAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	start, err := parseDateFlag(c.start)
	if err != nil {
		return fail(err)
	}
	end, err := parseDateFlag(c.end)
	if err != nil {
		return fail(err)
	}
	amount, err := parseDecimalFlag(c.amount)
	if err != nil {
		return fail(err)
	}
	original, err := parseDecimalFlag(c.original)
	if err != nil {
		return fail(err)
	}
	rate, err := parseDecimalFlag(c.rate)
	if err != nil {
		return fail(err)
	}

	id, err := c.app.recurring.CreateRule(ctx, core.RuleDraft{
		Name:         c.name,
		Currency:     c.currency,
		Original:     original,
		Rate:         rate,
		FallbackHome: amount,
		Category:     c.category,
		Description:  c.desc,
		DayOfMonth:   c.day,
		StartDate:    start,
		EndDate:      end,
		Active:       true,
	})
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Created rule %d\n", id)
	return subcommands.ExitSuccess
}

type recurringListCmd struct {
	app *app

	activeOnly bool
}

func (*recurringListCmd) Name() string     { return "recurring-list" }
func (*recurringListCmd) Synopsis() string { return "list recurring rules" }
func (*recurringListCmd) Usage() string {
	return `kakeibo recurring-list [-active]

  Lists recurring rules.
`
}

func (c *recurringListCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.activeOnly, "active", false, "only active rules")
}

func (c *recurringListCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rules, err := c.app.recurring.ListRules(ctx, c.activeOnly)
	if err != nil {
		return fail(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tAMOUNT\tDAY\tSTART\tEND\tACTIVE")
	for _, r := range rules {
		end := r.EndDate.String()
		if end == "" {
			end = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%t\n",
			r.ID, r.Name, formatHome(r.Amount), r.DayOfMonth, r.StartDate, end, r.Active)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type recurringStopCmd struct {
	app *app

	id  int64
	end string
}

func (*recurringStopCmd) Name() string     { return "recurring-stop" }
func (*recurringStopCmd) Synopsis() string { return "stop a recurring rule" }
func (*recurringStopCmd) Usage() string {
	return `kakeibo recurring-stop -id <id> [-end <date>]

  Stops a rule from the end date onward (default today). Transactions
  already materialized stay in the ledger.
`
}

func (c *recurringStopCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "rule id")
	f.StringVar(&c.end, "end", "", "last date the rule applies")
}

func (c *recurringStopCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == 0 {
		return fail(fmt.Errorf("-id is required"))
	}
	end, err := parseDateFlag(c.end)
	if err != nil {
		return fail(err)
	}
	if err := c.app.recurring.StopRule(ctx, c.id, end); err != nil {
		return fail(err)
	}
	fmt.Printf("Stopped rule %d\n", c.id)
	return subcommands.ExitSuccess
}

type syncCmd struct {
	app *app

	ruleID int64
	upTo   string
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "materialize recurring rules" }
func (*syncCmd) Usage() string {
	return `kakeibo sync [-id <rule>] [-up-to <date>]

  Materializes every elapsed month for recurring rules, one rule when
  -id is set. Safe to re-run: already materialized months are skipped.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.ruleID, "id", 0, "only this rule")
	f.StringVar(&c.upTo, "up-to", "", "materialize through this date (default today)")
}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	upTo, err := parseDateFlag(c.upTo)
	if err != nil {
		return fail(err)
	}

	var ruleID *int64
	if c.ruleID != 0 {
		ruleID = &c.ruleID
	}

	stats, err := c.app.recurring.Sync(ctx, ruleID, upTo)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Materialized %d transactions, %d already present\n",
		stats.Inserted, stats.Duplicates)
	return subcommands.ExitSuccess
}
