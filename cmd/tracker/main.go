package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BurairCodes/Expense-tracker/internal/cache"
	"github.com/BurairCodes/Expense-tracker/internal/cli"
	apphttp "github.com/BurairCodes/Expense-tracker/internal/http"
	"github.com/BurairCodes/Expense-tracker/internal/log"
	"github.com/BurairCodes/Expense-tracker/internal/sheets"
	"github.com/BurairCodes/Expense-tracker/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	// The in-process mirror only runs when events stay in this process;
	// with AMQP, trackerctl worker consumes them. An unusable exporter
	// fails startup so no queue fills without a consumer.
	var exporter sheets.Exporter
	if cfg.SheetsEnabled() && !cfg.AMQPEnabled() {
		exporter, err = cli.NewExporter(ctx, cfg, logger)
		if err != nil {
			logger.Error("Spreadsheet mirror unavailable", log.FieldError, err, log.FieldErrorType, log.ErrorTypeConfiguration)
			return fmt.Errorf("spreadsheet mirror: %w", err)
		}
	}

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Startup failed", log.FieldError, err, log.FieldOperation, log.OpStartup)
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Cleanup failed", log.FieldError, err)
		}
	}()

	caches := cache.NewManager(app.Metrics.CacheExpired)
	app.Ledger.RegisterCaches(caches)
	caches.StartCleanup(cfg.CacheTTL)
	defer caches.Stop()

	srv := apphttp.NewServer(apphttp.Config{
		Addr:           ":" + cfg.Port,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, app.Ledger, logger, app.Metrics)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting tracker server",
			"port", cfg.Port,
			log.FieldBackend, app.Backend.Type,
			"degraded", app.Backend.Degraded)
		return srv.ListenAndServe()
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	if exporter != nil && app.Events.Consumer != nil && !app.Events.Remote {
		w := worker.NewSyncWorker(app.Ledger, exporter, app.Metrics, logger, cfg.SheetsExportDebounce)
		g.Go(func() error { return w.Run(gctx, app.Events.Consumer) })
	}

	start := time.Now()
	err = g.Wait()
	logger.Info("Server stopped", "uptime", time.Since(start).Round(time.Second).String())
	return err
}
