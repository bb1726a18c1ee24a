// Package worker mirrors collections to a spreadsheet as change events
// arrive.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BurairCodes/Expense-tracker/internal/core"
	"github.com/BurairCodes/Expense-tracker/internal/events"
	"github.com/BurairCodes/Expense-tracker/internal/filter"
	"github.com/BurairCodes/Expense-tracker/internal/log"
	"github.com/BurairCodes/Expense-tracker/internal/metrics"
	"github.com/BurairCodes/Expense-tracker/internal/sheets"
)

// Lister reads a full collection. *ledger.Service satisfies it.
type Lister interface {
	List(ctx context.Context, kind core.Kind, p filter.Predicate) ([]core.Record, error)
}

// SyncWorker exports a collection once no further change to it has been
// seen for the debounce interval. Bursts of edits produce one export.
type SyncWorker struct {
	records  Lister
	exporter sheets.Exporter
	metrics  *metrics.Metrics
	logger   *log.Logger
	debounce time.Duration

	mu      sync.Mutex
	timers  map[core.Kind]*time.Timer
	pending map[core.Kind]bool
}

// NewSyncWorker wires the worker. m may be nil; a non-positive debounce
// exports on every event.
func NewSyncWorker(records Lister, exporter sheets.Exporter, m *metrics.Metrics, logger *log.Logger, debounce time.Duration) *SyncWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SyncWorker{
		records:  records,
		exporter: exporter,
		metrics:  m,
		logger:   logger.WithComponent(log.ComponentWorker),
		debounce: debounce,
		timers:   make(map[core.Kind]*time.Timer),
		pending:  make(map[core.Kind]bool),
	}
}

// Run consumes events until ctx is done, then exports whatever is still
// pending. The final flush has its own deadline.
func (w *SyncWorker) Run(ctx context.Context, c events.Consumer) error {
	w.logger.InfoContext(ctx, "Sync worker started", "debounce", w.debounce.String())
	err := c.Consume(ctx, w.HandleEvent)

	flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if ferr := w.Flush(flushCtx); ferr != nil {
		w.logger.ErrorContext(flushCtx, "Final flush failed", log.FieldError, ferr)
	}
	w.logger.InfoContext(ctx, "Sync worker stopped")

	if errors.Is(err, context.Canceled) || errors.Is(err, events.ErrQueueClosed) {
		return nil
	}
	return err
}

// HandleEvent schedules an export of the event's collection.
func (w *SyncWorker) HandleEvent(ctx context.Context, e *events.RecordEvent) error {
	if !e.Kind.IsValid() {
		return fmt.Errorf("event for unknown collection %q", e.Kind)
	}
	w.logger.DebugContext(ctx, "Change event received",
		log.FieldKind, e.Kind,
		log.FieldRecordID, e.ID,
		log.FieldOperation, string(e.Op))

	if w.debounce <= 0 {
		return w.Export(ctx, e.Kind)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[e.Kind] = true
	if t, ok := w.timers[e.Kind]; ok {
		t.Reset(w.debounce)
		return nil
	}
	kind := e.Kind
	w.timers[kind] = time.AfterFunc(w.debounce, func() { w.fire(ctx, kind) })
	return nil
}

func (w *SyncWorker) fire(ctx context.Context, kind core.Kind) {
	if !w.take(kind) {
		return
	}
	if ctx.Err() != nil {
		// Shutdown flush picks it up.
		w.mu.Lock()
		w.pending[kind] = true
		w.mu.Unlock()
		return
	}
	if err := w.Export(ctx, kind); err != nil {
		w.logger.ErrorContext(ctx, "Scheduled export failed", log.FieldKind, kind, log.FieldError, err)
	}
}

// take clears the pending flag and reports whether it was set.
func (w *SyncWorker) take(kind core.Kind) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	was := w.pending[kind]
	delete(w.pending, kind)
	return was
}

// Flush exports every collection with a pending change now.
func (w *SyncWorker) Flush(ctx context.Context) error {
	w.mu.Lock()
	var kinds []core.Kind
	for _, k := range core.Kinds() {
		if w.pending[k] {
			kinds = append(kinds, k)
			delete(w.pending, k)
		}
		if t, ok := w.timers[k]; ok {
			t.Stop()
			delete(w.timers, k)
		}
	}
	w.mu.Unlock()

	var errs []error
	for _, k := range kinds {
		if err := w.Export(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ExportAll mirrors every collection, used at startup to recover from
// events missed while the worker was down.
func (w *SyncWorker) ExportAll(ctx context.Context) error {
	var errs []error
	for _, k := range core.Kinds() {
		if err := w.Export(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Export writes the full collection, inactive scheduled charges included.
func (w *SyncWorker) Export(ctx context.Context, kind core.Kind) error {
	start := time.Now()
	records, err := w.records.List(ctx, kind, filter.Predicate{})
	if err == nil {
		err = w.exporter.Export(ctx, kind, records)
	}
	w.metrics.SheetsExport(string(kind), err)
	if err != nil {
		return fmt.Errorf("export %s: %w", kind, err)
	}
	w.logger.InfoContext(ctx, "Collection exported",
		log.FieldKind, kind,
		"records", len(records),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}
