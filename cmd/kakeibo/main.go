// kakeibo is the operator CLI for the ledger engine: transactions,
// recurring rules, fx rates, imports and reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"kakeibo/internal/config"
	"kakeibo/internal/fx"
	"kakeibo/internal/log"
	"kakeibo/internal/services"
	"kakeibo/internal/storage"
)

// app carries the wired services every subcommand works against.
type app struct {
	cfg       *config.Config
	ledger    *services.LedgerService
	recurring *services.RecurringService
	reports   *services.ReportService
}

func main() {
	// Load .env for local development; absence is fine.
	_ = godotenv.Load()

	// The CLI prints its own output; keep the log quiet unless something
	// goes wrong.
	logger := log.New(log.Config{Level: slog.LevelWarn, Component: log.ComponentApp})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	repo, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open ledger database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	reports := services.NewReportService(repo)
	conv := fx.NewConverter(cfg.HomeCurrency, repo)
	a := &app{
		cfg:       cfg,
		ledger:    services.NewLedgerService(repo, conv, reports),
		recurring: services.NewRecurringService(repo, conv, reports),
		reports:   reports,
	}

	commander := subcommands.NewCommander(flag.CommandLine, "kakeibo")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&addCmd{app: a}, "transactions")
	commander.Register(&editCmd{app: a}, "transactions")
	commander.Register(&rmCmd{app: a}, "transactions")
	commander.Register(&listCmd{app: a}, "transactions")
	commander.Register(&categoriesCmd{app: a}, "transactions")
	commander.Register(&importCmd{app: a}, "transactions")
	commander.Register(&seedCmd{app: a}, "transactions")

	commander.Register(&rateCmd{app: a}, "rates")
	commander.Register(&ratesCmd{app: a}, "rates")

	commander.Register(&recurringAddCmd{app: a}, "recurring")
	commander.Register(&recurringListCmd{app: a}, "recurring")
	commander.Register(&recurringStopCmd{app: a}, "recurring")
	commander.Register(&syncCmd{app: a}, "recurring")

	commander.Register(&reportCmd{app: a}, "reports")
	commander.Register(&breakdownCmd{app: a}, "reports")
	commander.Register(&mtdCmd{app: a}, "reports")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// fail prints an error the way every subcommand reports one.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return subcommands.ExitFailure
}
