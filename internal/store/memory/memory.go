// Package memory is the transient record store. Contents live for the
// lifetime of the process.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/BurairCodes/Expense-tracker/internal/core"
	"github.com/BurairCodes/Expense-tracker/internal/store"
)

type Store struct {
	mu     sync.RWMutex
	lastID int64
	items  map[core.Kind][]core.Record
	now    store.Clock
}

var _ store.Store = (*Store)(nil)

type Option func(*Store)

// WithClock overrides time.Now, mostly for tests.
func WithClock(c store.Clock) Option {
	return func(s *Store) { s.now = c }
}

func New(opts ...Option) *Store {
	s := &Store{
		items: make(map[core.Kind][]core.Record, 3),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewFromFile creates a store pre-populated from a YAML seed file, falling
// back to the built-in fixtures when the file does not exist.
func NewFromFile(ctx context.Context, path string, opts ...Option) (*Store, error) {
	seed, err := store.LoadSeed(path)
	if err != nil {
		return nil, err
	}
	s := New(opts...)
	if _, err := seed.Apply(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Insert(_ context.Context, kind core.Kind, in core.Input) (core.Record, error) {
	if err := store.CheckKind(kind); err != nil {
		return core.Record{}, err
	}
	now := s.now()
	r, err := in.Build(kind, now)
	if err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	r.ID = strconv.FormatInt(s.lastID, 10)
	r.CreatedAt = now.UTC()
	s.items[kind] = append(s.items[kind], r)
	return r, nil
}

// List returns a copy of the collection in insertion order.
func (s *Store) List(_ context.Context, kind core.Kind) ([]core.Record, error) {
	if err := store.CheckKind(kind); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Record{}, s.items[kind]...), nil
}

func (s *Store) Get(_ context.Context, kind core.Kind, id string) (core.Record, error) {
	if err := store.CheckKind(kind); err != nil {
		return core.Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(kind, id)
	if i < 0 {
		return core.Record{}, store.NotFound(kind, id)
	}
	return s.items[kind][i], nil
}

func (s *Store) Update(_ context.Context, kind core.Kind, id string, in core.Input) (core.Record, error) {
	if err := store.CheckKind(kind); err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(kind, id)
	if i < 0 {
		return core.Record{}, store.NotFound(kind, id)
	}
	r, err := in.Apply(s.items[kind][i])
	if err != nil {
		return core.Record{}, err
	}
	s.items[kind][i] = r
	return r, nil
}

func (s *Store) Delete(_ context.Context, kind core.Kind, id string) error {
	if err := store.CheckKind(kind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(kind, id)
	if i < 0 {
		return store.NotFound(kind, id)
	}
	items := s.items[kind]
	s.items[kind] = append(items[:i:i], items[i+1:]...)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// indexOf must be called with s.mu held.
func (s *Store) indexOf(kind core.Kind, id string) int {
	for i, r := range s.items[kind] {
		if r.ID == id {
			return i
		}
	}
	return -1
}
