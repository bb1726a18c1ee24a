// Package sqlite is the durable relational record store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurairCodes/Expense-tracker/internal/core"
	"github.com/BurairCodes/Expense-tracker/internal/store"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db      *sql.DB
	queries *Queries
	now     store.Clock
}

var _ store.Store = (*Repository)(nil)

type Option func(*Repository)

func WithClock(c store.Clock) Option {
	return func(r *Repository) { r.now = c }
}

// Open opens (creating if needed) the database at dbPath and migrates it.
func Open(dbPath string, opts ...Option) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	r := &Repository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *Repository) Insert(ctx context.Context, kind core.Kind, in core.Input) (core.Record, error) {
	if err := store.CheckKind(kind); err != nil {
		return core.Record{}, err
	}
	now := r.now()
	rec, err := in.Build(kind, now)
	if err != nil {
		return core.Record{}, err
	}
	row, err := r.queries.CreateRecord(ctx, CreateRecordParams{
		Kind:        string(kind),
		Title:       rec.Title,
		AmountCents: rec.Amount.Cents,
		Category:    rec.Category,
		Date:        rec.Date.String(),
		Description: rec.Description,
		Frequency:   string(rec.Frequency),
		IsActive:    rec.IsActive,
		CreatedAt:   now.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return core.Record{}, fmt.Errorf("create record: %w", err)
	}

	slog.DebugContext(ctx, "Record saved to SQLite",
		"id", row.ID,
		"kind", row.Kind,
		"amount_cents", row.AmountCents)

	return toCore(row)
}

func (r *Repository) List(ctx context.Context, kind core.Kind) ([]core.Record, error) {
	if err := store.CheckKind(kind); err != nil {
		return nil, err
	}
	rows, err := r.queries.ListRecords(ctx, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make([]core.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := toCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, kind core.Kind, id string) (core.Record, error) {
	if err := store.CheckKind(kind); err != nil {
		return core.Record{}, err
	}
	n, ok := parseID(id)
	if !ok {
		return core.Record{}, store.NotFound(kind, id)
	}
	row, err := r.queries.GetRecord(ctx, string(kind), n)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, store.NotFound(kind, id)
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get record by id: %w", err)
	}
	return toCore(row)
}

func (r *Repository) Update(ctx context.Context, kind core.Kind, id string, in core.Input) (core.Record, error) {
	if err := store.CheckKind(kind); err != nil {
		return core.Record{}, err
	}
	n, ok := parseID(id)
	if !ok {
		return core.Record{}, store.NotFound(kind, id)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Record{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	row, err := q.GetRecord(ctx, string(kind), n)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, store.NotFound(kind, id)
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get record by id: %w", err)
	}
	existing, err := toCore(row)
	if err != nil {
		return core.Record{}, err
	}
	rec, err := in.Apply(existing)
	if err != nil {
		return core.Record{}, err
	}

	row, err = q.UpdateRecord(ctx, UpdateRecordParams{
		Title:       rec.Title,
		AmountCents: rec.Amount.Cents,
		Category:    rec.Category,
		Date:        rec.Date.String(),
		Description: rec.Description,
		Frequency:   string(rec.Frequency),
		IsActive:    rec.IsActive,
		Kind:        string(kind),
		ID:          n,
	})
	if err != nil {
		return core.Record{}, fmt.Errorf("update record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Record{}, fmt.Errorf("commit update: %w", err)
	}
	return toCore(row)
}

func (r *Repository) Delete(ctx context.Context, kind core.Kind, id string) error {
	if err := store.CheckKind(kind); err != nil {
		return err
	}
	n, ok := parseID(id)
	if !ok {
		return store.NotFound(kind, id)
	}
	affected, err := r.queries.DeleteRecord(ctx, string(kind), n)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if affected == 0 {
		return store.NotFound(kind, id)
	}
	return nil
}

func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	return n, err == nil && n > 0
}

func toCore(row Record) (core.Record, error) {
	d, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Record{}, fmt.Errorf("record %d: bad date %q: %w", row.ID, row.Date, err)
	}
	created, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return core.Record{}, fmt.Errorf("record %d: bad created_at %q: %w", row.ID, row.CreatedAt, err)
	}
	return core.Record{
		ID:          strconv.FormatInt(row.ID, 10),
		Kind:        core.Kind(row.Kind),
		Title:       row.Title,
		Amount:      core.Money{Cents: row.AmountCents},
		Category:    row.Category,
		Date:        d,
		Description: row.Description,
		Frequency:   core.Frequency(row.Frequency),
		IsActive:    row.IsActive,
		CreatedAt:   created,
	}, nil
}
