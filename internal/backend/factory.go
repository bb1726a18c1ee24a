package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BurairCodes/Expense-tracker/internal/core"
	"github.com/BurairCodes/Expense-tracker/internal/store/badger"
	"github.com/BurairCodes/Expense-tracker/internal/store/memory"
	"github.com/BurairCodes/Expense-tracker/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if !config.Type.IsDurable() {
		return f.createMemoryBackend(ctx, config)
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case BadgerBackend:
		res, err = f.createBadgerBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err == nil {
		return res, nil
	}

	f.logger.Warn("Durable store unavailable, falling back to in-memory store",
		"requested_backend", config.Type,
		"error", fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err))

	res, err = f.createMemoryBackend(ctx, config)
	if err != nil {
		return nil, err
	}
	res.Degraded = true
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := sqlite.Open(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   repo,
		Type:    SQLiteBackend,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createBadgerBackend(config Config) (*BackendResult, error) {
	st, err := badger.Open(badger.Config{
		Path:       config.BadgerPath,
		SyncWrites: true,
		Logger:     f.logger.With("component", "badger"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Badger store: %w", err)
	}

	f.logger.Info("Initialized Badger backend", "path", config.BadgerPath)

	return &BackendResult{
		Store:   st,
		Type:    BadgerBackend,
		Cleanup: st.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	st, err := memory.NewFromFile(ctx, config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory store: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)

	return &BackendResult{
		Store:   st,
		Type:    MemoryBackend,
		Cleanup: st.Close,
	}, nil
}
