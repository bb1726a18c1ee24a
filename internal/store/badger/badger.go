// Package badger is the durable document store: one JSON document per
// record, keyed by collection and a monotonically increasing id.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/BurairCodes/Expense-tracker/internal/core"
	"github.com/BurairCodes/Expense-tracker/internal/store"
)

const (
	seqKey       = "seq/records"
	seqBandwidth = 100
)

type Config struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path string

	InMemory bool

	SyncWrites bool

	// Logger receives badger's internal logs. Nil silences them.
	Logger *slog.Logger
}

// document is the stored JSON form of a record.
type document struct {
	ID          int64     `json:"id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	AmountCents int64     `json:"amountCents"`
	Category    string    `json:"category"`
	Date        string    `json:"date"`
	Description string    `json:"description,omitempty"`
	Frequency   string    `json:"frequency,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Store struct {
	db  *badger.DB
	seq *badger.Sequence
	now store.Clock

	// Update is read-modify-write; badger transactions would report
	// conflicts instead of waiting.
	mu sync.Mutex
}

var _ store.Store = (*Store)(nil)

type Option func(*Store)

func WithClock(c store.Clock) Option {
	return func(s *Store) { s.now = c }
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func Open(cfg Config, opts ...Option) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var bopts badger.Options
	if cfg.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		bopts = badger.DefaultOptions(cfg.Path)
	}
	bopts = bopts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		bopts = bopts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		bopts = bopts.WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	seq, err := db.GetSequence([]byte(seqKey), seqBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open id sequence: %w", err)
	}

	s := &Store{db: db, seq: seq, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Close releases unused ids and closes the database. Released ids are
// skipped, never handed out again.
func (s *Store) Close() error {
	var errs []error
	if err := s.seq.Release(); err != nil {
		errs = append(errs, fmt.Errorf("release id sequence: %w", err))
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close badger: %w", err))
	}
	return errors.Join(errs...)
}

func (s *Store) Ping(context.Context) error {
	if s.db.IsClosed() {
		return core.ErrStoreUnavailable
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, kind core.Kind, in core.Input) (core.Record, error) {
	if err := store.CheckKind(kind); err != nil {
		return core.Record{}, err
	}
	now := s.now()
	rec, err := in.Build(kind, now)
	if err != nil {
		return core.Record{}, err
	}
	n, err := s.seq.Next()
	if err != nil {
		return core.Record{}, fmt.Errorf("next id: %w", err)
	}
	// Sequences start at zero; ids start at one.
	n++
	rec.ID = strconv.FormatUint(n, 10)
	rec.CreatedAt = now.UTC()

	if err := s.put(rec); err != nil {
		return core.Record{}, err
	}
	return rec, nil
}

func (s *Store) List(_ context.Context, kind core.Kind) ([]core.Record, error) {
	if err := store.CheckKind(kind); err != nil {
		return nil, err
	}
	out := []core.Record{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := kindPrefix(kind)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var doc document
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &doc)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			rec, err := doc.record()
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, kind core.Kind, id string) (core.Record, error) {
	if err := store.CheckKind(kind); err != nil {
		return core.Record{}, err
	}
	return s.get(kind, id)
}

func (s *Store) Update(_ context.Context, kind core.Kind, id string, in core.Input) (core.Record, error) {
	if err := store.CheckKind(kind); err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.get(kind, id)
	if err != nil {
		return core.Record{}, err
	}
	rec, err := in.Apply(existing)
	if err != nil {
		return core.Record{}, err
	}
	if err := s.put(rec); err != nil {
		return core.Record{}, err
	}
	return rec, nil
}

func (s *Store) Delete(_ context.Context, kind core.Kind, id string) error {
	if err := store.CheckKind(kind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := recordKey(kind, id)
	if !ok {
		return store.NotFound(kind, id)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return store.NotFound(kind, id)
		} else if err != nil {
			return fmt.Errorf("get record: %w", err)
		}
		return txn.Delete(key)
	})
}

func (s *Store) get(kind core.Kind, id string) (core.Record, error) {
	key, ok := recordKey(kind, id)
	if !ok {
		return core.Record{}, store.NotFound(kind, id)
	}
	var doc document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &doc)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return core.Record{}, store.NotFound(kind, id)
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get record: %w", err)
	}
	return doc.record()
}

func (s *Store) put(rec core.Record) error {
	key, ok := recordKey(rec.Kind, rec.ID)
	if !ok {
		return fmt.Errorf("invalid record id %q", rec.ID)
	}
	data, err := json.Marshal(newDocument(rec))
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	}); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func kindPrefix(kind core.Kind) []byte {
	return []byte("rec/" + string(kind) + "/")
}

// recordKey zero-pads the id so keys iterate in id order.
func recordKey(kind core.Kind, id string) ([]byte, bool) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return nil, false
	}
	return []byte(fmt.Sprintf("rec/%s/%020d", kind, n)), true
}

func newDocument(r core.Record) document {
	id, _ := strconv.ParseInt(r.ID, 10, 64)
	return document{
		ID:          id,
		Kind:        string(r.Kind),
		Title:       r.Title,
		AmountCents: r.Amount.Cents,
		Category:    r.Category,
		Date:        r.Date.String(),
		Description: r.Description,
		Frequency:   string(r.Frequency),
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
	}
}

func (d document) record() (core.Record, error) {
	date, err := core.ParseDate(d.Date)
	if err != nil {
		return core.Record{}, fmt.Errorf("record %d: bad date %q: %w", d.ID, d.Date, err)
	}
	return core.Record{
		ID:          strconv.FormatInt(d.ID, 10),
		Kind:        core.Kind(d.Kind),
		Title:       d.Title,
		Amount:      core.Money{Cents: d.AmountCents},
		Category:    d.Category,
		Date:        date,
		Description: d.Description,
		Frequency:   core.Frequency(d.Frequency),
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
	}, nil
}
