// Package ledger is the application service in front of the record store.
// It serializes mutations, caches list and summary views per collection,
// and announces every change as a RecordEvent.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/BurairCodes/Expense-tracker/internal/aggregate"
	"github.com/BurairCodes/Expense-tracker/internal/cache"
	"github.com/BurairCodes/Expense-tracker/internal/chart"
	"github.com/BurairCodes/Expense-tracker/internal/core"
	"github.com/BurairCodes/Expense-tracker/internal/events"
	"github.com/BurairCodes/Expense-tracker/internal/filter"
	"github.com/BurairCodes/Expense-tracker/internal/log"
	"github.com/BurairCodes/Expense-tracker/internal/metrics"
	"github.com/BurairCodes/Expense-tracker/internal/store"
)

const (
	DefaultCacheSize = 256
	DefaultCacheTTL  = 5 * time.Minute
)

// views holds the cached reads of one collection.
type views struct {
	lists     *cache.LRUCache[[]core.Record]
	summaries *cache.LRUCache[aggregate.Summary]
	// generation is bumped by every mutation; fills started under an older
	// generation are discarded.
	generation uint64
}

type Service struct {
	store     store.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *log.Logger
	activity  *log.StructuredLogger

	// writeMu makes validate, mutate and invalidate one step.
	writeMu sync.Mutex

	cacheMu sync.Mutex
	views   map[core.Kind]*views
	flight  singleflight.Group
}

// Dashboard is the combined income/expense view.
type Dashboard struct {
	Income   aggregate.Summary
	Expenses aggregate.Summary
	Balance  aggregate.Balance
	Chart    chart.Model
}

type options struct {
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *log.Logger
	cacheSize int
	cacheTTL  time.Duration
}

type Option func(*options)

func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCache sizes the per-collection view caches.
func WithCache(size int, ttl time.Duration) Option {
	return func(o *options) {
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}

func New(st store.Store, opts ...Option) *Service {
	o := options{
		publisher: events.Nop{},
		cacheSize: DefaultCacheSize,
		cacheTTL:  DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(log.DefaultConfig())
	}
	logger := o.logger.WithComponent(log.ComponentLedger)

	s := &Service{
		store:     st,
		publisher: o.publisher,
		metrics:   o.metrics,
		logger:    logger,
		activity:  log.NewStructuredLogger(logger),
		views:     make(map[core.Kind]*views, 3),
	}
	for _, k := range core.Kinds() {
		s.views[k] = &views{
			lists:     cache.NewLRUCache[[]core.Record](o.cacheSize, o.cacheTTL),
			summaries: cache.NewLRUCache[aggregate.Summary](o.cacheSize, o.cacheTTL),
		}
	}
	return s
}

// RegisterCaches hands the view caches to m for TTL sweeps.
func (s *Service) RegisterCaches(m *cache.Manager) {
	for _, k := range core.Kinds() {
		m.Register(s.views[k].lists)
		m.Register(s.views[k].summaries)
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close closes the event publisher. The store belongs to the caller.
func (s *Service) Close() error {
	return s.publisher.Close()
}

func (s *Service) Create(ctx context.Context, kind core.Kind, in core.Input) (core.Record, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rec, err := s.store.Insert(ctx, kind, in)
	if err != nil {
		return core.Record{}, err
	}
	s.changed(ctx, rec, log.OpCreate, events.OpCreated)
	return rec, nil
}

func (s *Service) Get(ctx context.Context, kind core.Kind, id string) (core.Record, error) {
	return s.store.Get(ctx, kind, id)
}

func (s *Service) Update(ctx context.Context, kind core.Kind, id string, in core.Input) (core.Record, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rec, err := s.store.Update(ctx, kind, id, in)
	if err != nil {
		return core.Record{}, err
	}
	s.changed(ctx, rec, log.OpUpdate, events.OpUpdated)
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, kind core.Kind, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rec, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, kind, id); err != nil {
		return err
	}
	s.changed(ctx, rec, log.OpDelete, events.OpDeleted)
	return nil
}

// SetActive deactivates or reactivates a scheduled charge, leaving every
// other field untouched.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (core.Record, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.store.Get(ctx, core.KindScheduled, id)
	if err != nil {
		return core.Record{}, err
	}
	rec, err := s.store.Update(ctx, core.KindScheduled, id, core.Input{
		Title:       existing.Title,
		Amount:      existing.Amount,
		Category:    existing.Category,
		Date:        existing.Date,
		Description: existing.Description,
		Frequency:   existing.Frequency,
		IsActive:    &active,
	})
	if err != nil {
		return core.Record{}, err
	}
	s.changed(ctx, rec, log.OpUpdate, events.OpUpdated)
	return rec, nil
}

// changed runs after a successful mutation, with writeMu held.
func (s *Service) changed(ctx context.Context, rec core.Record, op string, eop events.Op) {
	s.invalidate(rec.Kind)
	s.metrics.RecordMutation(string(rec.Kind), op)
	s.activity.LogRecordChanged(ctx, op, string(rec.Kind), rec.ID, rec.Amount.Cents, rec.Category)

	err := s.publisher.Publish(ctx, events.NewRecordEvent(rec.Kind, rec.ID, eop))
	s.metrics.EventPublished(err)
	if err != nil {
		// The mutation is already durable.
		s.activity.LogError(ctx, "Failed to publish record event", err, log.ComponentAMQP, log.OpPublish,
			log.NewFields().WithRecord(string(rec.Kind), rec.ID, rec.Amount.Cents, rec.Category))
	}
}

func (s *Service) invalidate(kind core.Kind) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	v := s.views[kind]
	v.generation++
	v.lists.Purge()
	v.summaries.Purge()
}

func (s *Service) viewsFor(kind core.Kind) (*views, uint64, error) {
	if err := store.CheckKind(kind); err != nil {
		return nil, 0, err
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	v := s.views[kind]
	return v, v.generation, nil
}

// List returns the records of kind matching p, newest first.
func (s *Service) List(ctx context.Context, kind core.Kind, p filter.Predicate) ([]core.Record, error) {
	v, gen, err := s.viewsFor(kind)
	if err != nil {
		return nil, err
	}
	key := p.Key()
	if cached, ok := v.lists.Get(key); ok {
		s.metrics.CacheLookup(string(kind), true)
		return clone(cached), nil
	}
	s.metrics.CacheLookup(string(kind), false)

	// The flight is shared, so one caller's cancellation must not fail the rest.
	flightCtx := context.WithoutCancel(ctx)
	res, err, _ := s.flight.Do(fmt.Sprintf("%s/%d/%s", kind, gen, key), func() (interface{}, error) {
		all, err := s.store.List(flightCtx, kind)
		if err != nil {
			return nil, err
		}
		out := filter.Apply(all, p)
		s.fill(kind, gen, func() { v.lists.Set(key, out) })
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return clone(res.([]core.Record)), nil
}

// Summary aggregates the records of kind matching p.
func (s *Service) Summary(ctx context.Context, kind core.Kind, p filter.Predicate) (aggregate.Summary, error) {
	v, gen, err := s.viewsFor(kind)
	if err != nil {
		return aggregate.Summary{}, err
	}
	key := p.Key()
	if cached, ok := v.summaries.Get(key); ok {
		s.metrics.CacheLookup(string(kind), true)
		return cloneSummary(cached), nil
	}
	s.metrics.CacheLookup(string(kind), false)

	records, err := s.List(ctx, kind, p)
	if err != nil {
		return aggregate.Summary{}, err
	}
	sum := aggregate.Summarize(records)
	s.fill(kind, gen, func() { v.summaries.Set(key, sum) })
	return cloneSummary(sum), nil
}

func (s *Service) Chart(ctx context.Context, kind core.Kind, p filter.Predicate, opts chart.Options) (chart.Model, error) {
	sum, err := s.Summary(ctx, kind, p)
	if err != nil {
		return chart.Model{}, err
	}
	return chart.ToChartModel(sum, opts), nil
}

// Dashboard summarizes income and expenses over the same predicate. The
// chart shows the expense breakdown.
func (s *Service) Dashboard(ctx context.Context, p filter.Predicate, opts chart.Options) (Dashboard, error) {
	var income, expenses []core.Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = s.List(gctx, core.KindIncome, p)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.List(gctx, core.KindExpense, p)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	// Summarize outside the group: it panics on corrupt data and the
	// panic must reach the caller's goroutine.
	d := Dashboard{
		Income:   aggregate.Summarize(income),
		Expenses: aggregate.Summarize(expenses),
	}
	d.Balance = aggregate.ComputeBalance(d.Income, d.Expenses)
	d.Chart = chart.ToChartModel(d.Expenses, opts)
	return d, nil
}

// fill stores a freshly computed view unless a mutation happened since gen.
func (s *Service) fill(kind core.Kind, gen uint64, set func()) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.views[kind].generation == gen {
		set()
	}
}

func clone(rs []core.Record) []core.Record {
	out := make([]core.Record, len(rs))
	copy(out, rs)
	return out
}

func cloneSummary(sum aggregate.Summary) aggregate.Summary {
	if sum.Categories != nil {
		cats := make([]aggregate.CategoryTotal, len(sum.Categories))
		copy(cats, sum.Categories)
		sum.Categories = cats
	}
	return sum
}
