package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/BurairCodes/Expense-tracker/internal/aggregate"
	"github.com/BurairCodes/Expense-tracker/internal/chart"
	"github.com/BurairCodes/Expense-tracker/internal/cli"
	"github.com/BurairCodes/Expense-tracker/internal/config"
	"github.com/BurairCodes/Expense-tracker/internal/core"
	"github.com/BurairCodes/Expense-tracker/internal/filter"
	"github.com/BurairCodes/Expense-tracker/internal/log"
	"github.com/BurairCodes/Expense-tracker/internal/schedule"
	"github.com/BurairCodes/Expense-tracker/internal/store/sqlite"
	"github.com/BurairCodes/Expense-tracker/internal/worker"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trackerctl",
		Short:         "Administer the expense tracker",
		Long:          "trackerctl reads the same environment as the tracker server and operates on its store.",
		SilenceUsage:  true,
	}
	root.AddCommand(newSummaryCmd(), newExportCmd(), newWorkerCmd(), newMigrateCmd())
	return root
}

// withApp loads config and opens the store for one command run.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *cli.App) error) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg).WithComponent(log.ComponentCLI)

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func newSummaryCmd() *cobra.Command {
	var (
		from, to, currency string
		asJSON             bool
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print income, expenses, balance and the expense breakdown",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := dateRange(from, to)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, app *cli.App) error {
				d, err := app.Ledger.Dashboard(ctx, p, chart.Options{Currency: currency})
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(d.Chart)
				}
				active, err := app.Ledger.List(ctx, core.KindScheduled, filter.Predicate{OnlyActive: true})
				if err != nil {
					return err
				}
				return printDashboard(cmd.OutOrStdout(), d.Balance, d.Expenses, schedule.Commitment(active), currency)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&currency, "currency", "USD", "currency code for amounts")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the expense chart model as JSON")
	return cmd
}

func dateRange(from, to string) (filter.Predicate, error) {
	var p filter.Predicate
	if from != "" {
		d, err := core.ParseDate(from)
		if err != nil {
			return p, fmt.Errorf("--from: %w", err)
		}
		p.DateFrom = d
	}
	if to != "" {
		d, err := core.ParseDate(to)
		if err != nil {
			return p, fmt.Errorf("--to: %w", err)
		}
		p.DateTo = d
	}
	return p, nil
}

func printDashboard(w io.Writer, b aggregate.Balance, expenses aggregate.Summary, scheduled core.Money, currency string) error {
	sym := chart.CurrencySymbol(currency)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Income\t%s\n", chart.FormatAmount(b.Income, sym))
	fmt.Fprintf(tw, "Expenses\t%s\n", chart.FormatAmount(b.Expenses, sym))
	fmt.Fprintf(tw, "Balance\t%s\t(%s)\n", chart.FormatAmount(b.Net, sym), b.Status)
	fmt.Fprintf(tw, "Scheduled/month\t%s\n", chart.FormatAmount(scheduled, sym))
	if len(expenses.Categories) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "CATEGORY\tTOTAL\tCOUNT\tSHARE")
		for _, c := range expenses.Categories {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c.Category, chart.FormatAmount(c.Total, sym), c.Count, chart.FormatPercentage(c.Percentage))
		}
	}
	return tw.Flush()
}

func newExportCmd() *cobra.Command {
	var collection string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Mirror collections to the configured Google spreadsheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *cli.App) error {
				w, err := newSyncWorker(ctx, app)
				if err != nil {
					return err
				}
				if collection == "" {
					return w.ExportAll(ctx)
				}
				kind, err := core.ParseKind(collection)
				if err != nil {
					return fmt.Errorf("--collection %q: %w", collection, err)
				}
				return w.Export(ctx, kind)
			})
		},
	}
	cmd.Flags().StringVar(&collection, "collection", "", "only export this collection (expenses, income, scheduled)")
	return cmd
}

func newWorkerCmd() *cobra.Command {
	var skipStartupSync bool
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume change events and keep the spreadsheet mirror current",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *cli.App) error {
				if !app.Events.Remote {
					return errors.New("worker needs AMQP_URL; without it the server mirrors in process")
				}
				w, err := newSyncWorker(ctx, app)
				if err != nil {
					return err
				}
				if !skipStartupSync {
					if err := w.ExportAll(ctx); err != nil {
						app.Logger.Error("Startup sync failed", log.FieldError, err)
					}
				}
				return w.Run(ctx, app.Events.Consumer)
			})
		},
	}
	cmd.Flags().BoolVar(&skipStartupSync, "skip-startup-sync", false, "do not export every collection before consuming")
	return cmd
}

func newSyncWorker(ctx context.Context, app *cli.App) (*worker.SyncWorker, error) {
	if !app.Config.SheetsEnabled() {
		return nil, errors.New("GOOGLE_SPREADSHEET_ID is not set")
	}
	exporter, err := cli.NewExporter(ctx, app.Config, app.Logger)
	if err != nil {
		return nil, err
	}
	return worker.NewSyncWorker(app.Ledger, exporter, app.Metrics, app.Logger, app.Config.SheetsExportDebounce), nil
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the SQLite schema",
	}
	dbPath := func() string {
		config.LoadDotEnv()
		return config.Load().SQLiteDBPath
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := sqlite.RunMigrations(dbPath()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert every applied migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := sqlite.RollbackMigrations(dbPath()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				v, dirty, err := sqlite.SchemaVersion(dbPath())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", v, dirty)
				return nil
			},
		},
	)
	return cmd
}
