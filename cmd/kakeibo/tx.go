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

type addCmd struct {
	app *app

	date     string
	amount   string
	currency string
	original string
	rate     string
	name     string
	desc     string
	category string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a transaction" }
func (*addCmd) Usage() string {
	return `kakeibo add -date <date> [-amount <home>] [-currency <code> -original <amount> [-rate <rate>]] [flags]

  Records one transaction. Use -amount for home-currency entries, or
  -currency/-original (optionally -rate) for foreign ones; negative
  amounts are expenses.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", core.Today().String(), "transaction date (YYYY-MM-DD)")
	f.StringVar(&c.amount, "amount", "", "home-currency amount, sign encodes income/expense")
	f.StringVar(&c.currency, "currency", "", "original currency code for foreign entries")
	f.StringVar(&c.original, "original", "", "amount in the original currency")
	f.StringVar(&c.rate, "rate", "", "explicit fx rate (home units per 1 unit)")
	f.StringVar(&c.name, "name", "", "merchant or counterparty")
	f.StringVar(&c.desc, "desc", "", "description")
	f.StringVar(&c.category, "category", "", "category (defaults to Uncategorized)")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	draft, err := c.draft()
	if err != nil {
		return fail(err)
	}

	res, err := c.app.ledger.Insert(ctx, draft)
	if err != nil {
		return fail(err)
	}
	if res.Duplicate {
		fmt.Println("Duplicate suppressed")
		return subcommands.ExitSuccess
	}
	fmt.Printf("Saved transaction %d\n", res.ID)
	return subcommands.ExitSuccess
}

func (c *addCmd) draft() (core.TransactionDraft, error) {
	date, err := parseDateFlag(c.date)
	if err != nil {
		return core.TransactionDraft{}, err
	}
	amount, err := parseDecimalFlag(c.amount)
	if err != nil {
		return core.TransactionDraft{}, err
	}
	original, err := parseDecimalFlag(c.original)
	if err != nil {
		return core.TransactionDraft{}, err
	}
	rate, err := parseDecimalFlag(c.rate)
	if err != nil {
		return core.TransactionDraft{}, err
	}

	return core.TransactionDraft{
		Date:         date,
		Currency:     c.currency,
		Original:     original,
		Rate:         rate,
		FallbackHome: amount,
		Name:         c.name,
		Description:  c.desc,
		Category:     c.category,
		Source:       core.SourceManual,
	}, nil
}

type editCmd struct {
	app *app

	id       int64
	date     string
	amount   string
	currency string
	original string
	rate     string
	name     string
	desc     string
	category string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "edit a transaction" }
func (*editCmd) Usage() string {
	return `kakeibo edit -id <id> [flags]

  Overwrites the editable fields of a transaction. Unset flags keep the
  stored value; source, external id and the recurring link never change.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "transaction id")
	f.StringVar(&c.date, "date", "", "transaction date (YYYY-MM-DD)")
	f.StringVar(&c.amount, "amount", "", "home-currency amount")
	f.StringVar(&c.currency, "currency", "", "original currency code")
	f.StringVar(&c.original, "original", "", "amount in the original currency")
	f.StringVar(&c.rate, "rate", "", "explicit fx rate")
	f.StringVar(&c.name, "name", "", "merchant or counterparty")
	f.StringVar(&c.desc, "desc", "", "description")
	f.StringVar(&c.category, "category", "", "category")
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == 0 {
		return fail(fmt.Errorf("-id is required"))
	}

	current, err := c.app.ledger.Get(ctx, c.id)
	if err != nil {
		return fail(err)
	}

	upd, err := c.update(f, current)
	if err != nil {
		return fail(err)
	}

	if err := c.app.ledger.Update(ctx, c.id, upd); err != nil {
		return fail(err)
	}
	fmt.Printf("Updated transaction %d\n", c.id)
	return subcommands.ExitSuccess
}

// update merges set flags over the stored row so a partial edit keeps the
// untouched fields.
func (c *editCmd) update(f *flag.FlagSet, current core.Transaction) (core.TransactionUpdate, error) {
	set := map[string]bool{}
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	upd := core.TransactionUpdate{
		Date:        current.Date,
		Currency:    current.Currency,
		Name:        current.Name,
		Description: current.Description,
		Category:    current.Category,
	}
	if current.Currency != "" {
		orig, rate := current.Original, current.Rate
		upd.Original, upd.Rate = &orig, &rate
	} else {
		amount := decimalFromInt(current.Amount)
		upd.FallbackHome = &amount
	}

	var err error
	if set["date"] {
		if upd.Date, err = parseDateFlag(c.date); err != nil {
			return core.TransactionUpdate{}, err
		}
	}
	if set["name"] {
		upd.Name = c.name
	}
	if set["desc"] {
		upd.Description = c.desc
	}
	if set["category"] {
		upd.Category = c.category
	}
	if set["amount"] {
		if upd.FallbackHome, err = parseDecimalFlag(c.amount); err != nil {
			return core.TransactionUpdate{}, err
		}
		upd.Currency, upd.Original, upd.Rate = "", nil, nil
	}
	if set["currency"] || set["original"] || set["rate"] {
		upd.Currency = c.currency
		if upd.Original, err = parseDecimalFlag(c.original); err != nil {
			return core.TransactionUpdate{}, err
		}
		if upd.Rate, err = parseDecimalFlag(c.rate); err != nil {
			return core.TransactionUpdate{}, err
		}
		upd.FallbackHome = nil
	}
	return upd, nil
}

type rmCmd struct {
	app *app
	id  int64
}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete a transaction" }
func (*rmCmd) Usage() string {
	return `kakeibo rm -id <id>

  Deletes a transaction permanently.
`
}

func (c *rmCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "transaction id")
}

func (c *rmCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == 0 {
		return fail(fmt.Errorf("-id is required"))
	}
	if err := c.app.ledger.Delete(ctx, c.id); err != nil {
		return fail(err)
	}
	fmt.Printf("Deleted transaction %d\n", c.id)
	return subcommands.ExitSuccess
}

type listCmd struct {
	app *app

	from             string
	to               string
	txType           string
	category         string
	excludeRecurring bool
	limit            int
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list transactions, newest first" }
func (*listCmd) Usage() string {
	return `kakeibo list [-from <date>] [-to <date>] [-type All|Expenses|Income] [-category <name>] [-exclude-recurring] [-limit <n>]

  Lists transactions newest first.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "start date (inclusive)")
	f.StringVar(&c.to, "to", "", "end date (inclusive)")
	f.StringVar(&c.txType, "type", string(core.FilterAll), "All, Expenses or Income")
	f.StringVar(&c.category, "category", "", "only this category")
	f.BoolVar(&c.excludeRecurring, "exclude-recurring", false, "hide materialized recurring rows")
	f.IntVar(&c.limit, "limit", core.DefaultListLimit, "maximum rows")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	start, err := parseDateFlag(c.from)
	if err != nil {
		return fail(err)
	}
	end, err := parseDateFlag(c.to)
	if err != nil {
		return fail(err)
	}

	txs, err := c.app.ledger.List(ctx, core.ListFilter{
		Start:            start,
		End:              end,
		Type:             core.TypeFilter(c.txType),
		Category:         c.category,
		ExcludeRecurring: c.excludeRecurring,
		Limit:            c.limit,
	})
	if err != nil {
		return fail(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tAMOUNT\tCATEGORY\tNAME\tORIGINAL\tSOURCE")
	for _, tx := range txs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date, formatHome(tx.Amount), tx.Category, tx.Name,
			formatForeign(tx), tx.Source)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type categoriesCmd struct {
	app *app
}

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "list categories in use" }
func (*categoriesCmd) Usage() string {
	return `kakeibo categories

  Lists the distinct categories in use.
`
}

func (*categoriesCmd) SetFlags(*flag.FlagSet) {}

func (c *categoriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	categories, err := c.app.ledger.Categories(ctx)
	if err != nil {
		return fail(err)
	}
	for _, cat := range categories {
		fmt.Println(cat)
	}
	return subcommands.ExitSuccess
}
