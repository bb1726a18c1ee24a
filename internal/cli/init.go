// Package cli provides common initialization shared by cmd/tracker and
// cmd/trackerctl.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BurairCodes/Expense-tracker/internal/backend"
	"github.com/BurairCodes/Expense-tracker/internal/config"
	"github.com/BurairCodes/Expense-tracker/internal/events"
	"github.com/BurairCodes/Expense-tracker/internal/ledger"
	"github.com/BurairCodes/Expense-tracker/internal/log"
	"github.com/BurairCodes/Expense-tracker/internal/metrics"
	"github.com/BurairCodes/Expense-tracker/internal/sheets"
	"github.com/BurairCodes/Expense-tracker/internal/sheets/google"
)

// localQueueSize bounds the in-process event queue used without AMQP.
const localQueueSize = 256

// SetupLogger builds the application logger from config and makes it the
// slog default.
func SetupLogger(cfg *config.Config) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentApp,
		Format:    cfg.LogFormat,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// LoadConfig reads .env (if present) and the environment, then validates.
func LoadConfig() (*config.Config, error) {
	config.LoadDotEnv()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// EventBus is the change-event transport chosen from config.
type EventBus struct {
	Publisher events.Publisher
	// Consumer is nil when events leave the process and no worker may
	// read them here.
	Consumer events.Consumer
	Remote   bool
}

// Close closes the publisher.
func (b *EventBus) Close() error { return b.Publisher.Close() }

// NewEventBus connects to AMQP when configured. Without AMQP, events are
// delivered in process when the spreadsheet mirror is enabled and
// dropped otherwise.
func NewEventBus(cfg *config.Config, logger *log.Logger) (*EventBus, error) {
	switch {
	case cfg.AMQPEnabled():
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to AMQP: %w", err)
		}
		return &EventBus{Publisher: client, Consumer: client, Remote: true}, nil
	case cfg.SheetsEnabled():
		q := events.NewLocal(localQueueSize)
		return &EventBus{Publisher: q, Consumer: q}, nil
	default:
		return &EventBus{Publisher: events.Nop{}}, nil
	}
}

// App bundles the long-lived services both binaries need.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Metrics *metrics.Metrics
	Ledger  *ledger.Service
	Backend *backend.BackendResult
	Events  *EventBus
}

// NewApp selects the store, connects the event bus and builds the ledger.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	m := metrics.New()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	m.SetStoreDegraded(res.Degraded)

	bus, err := NewEventBus(cfg, logger)
	if err != nil {
		_ = res.Cleanup()
		return nil, err
	}

	svc := ledger.New(res.Store,
		ledger.WithPublisher(bus.Publisher),
		ledger.WithMetrics(m),
		ledger.WithLogger(logger),
		ledger.WithCache(cfg.CacheSize, cfg.CacheTTL))

	logger.InfoContext(ctx, "Application initialized",
		log.FieldBackend, res.Type,
		"degraded", res.Degraded,
		"amqp", cfg.AMQPEnabled(),
		"sheets", cfg.SheetsEnabled())

	return &App{Config: cfg, Logger: logger, Metrics: m, Ledger: svc, Backend: res, Events: bus}, nil
}

// Close releases the event bus and the store.
func (a *App) Close() error {
	errs := []error{a.Ledger.Close()}
	if a.Backend.Cleanup != nil {
		errs = append(errs, a.Backend.Cleanup())
	}
	return errors.Join(errs...)
}

// NewExporter opens the Google Sheets exporter.
func NewExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.Exporter, error) {
	return google.New(ctx, google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
}
