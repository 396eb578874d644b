package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type rateCmd struct {
	app *app

	currency string
	rate     string
}

func (*rateCmd) Name() string     { return "rate" }
func (*rateCmd) Synopsis() string { return "store an fx rate" }
func (*rateCmd) Usage() string {
	return `kakeibo rate -currency <code> -rate <rate>

  Stores the conversion rate for one currency: home units per 1 unit of
  the foreign currency. The rate must be positive.
`
}

func (c *rateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", "", "currency code")
	f.StringVar(&c.rate, "rate", "", "home units per 1 unit")
}

func (c *rateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.currency == "" {
		return fail(fmt.Errorf("-currency is required"))
	}
	rate, err := decimal.NewFromString(c.rate)
	if err != nil {
		return fail(fmt.Errorf("parse rate %q: %w", c.rate, err))
	}

	if err := c.app.ledger.SetRate(ctx, c.currency, rate); err != nil {
		return fail(err)
	}
	fmt.Printf("Stored rate %s = %s %s\n", c.currency, rate, c.app.cfg.HomeCurrency)
	return subcommands.ExitSuccess
}

type ratesCmd struct {
	app *app
}

func (*ratesCmd) Name() string     { return "rates" }
func (*ratesCmd) Synopsis() string { return "list stored fx rates" }
func (*ratesCmd) Usage() string {
	return `kakeibo rates

  Lists the stored fx rate table.
`
}

func (*ratesCmd) SetFlags(*flag.FlagSet) {}

func (c *ratesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rates, err := c.app.ledger.Rates(ctx)
	if err != nil {
		return fail(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CURRENCY\tRATE\tUPDATED")
	for _, r := range rates {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Currency, r.ToHome, r.UpdatedAt)
	}
	w.Flush()
	return subcommands.ExitSuccess
}
