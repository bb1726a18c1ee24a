package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BurairCodes/Expense-tracker/internal/core"
	"github.com/BurairCodes/Expense-tracker/internal/events"
	"github.com/BurairCodes/Expense-tracker/internal/filter"
	"github.com/BurairCodes/Expense-tracker/internal/log"
	"github.com/BurairCodes/Expense-tracker/internal/metrics"
	"github.com/BurairCodes/Expense-tracker/internal/sheets/memory"
)

type fakeLister struct {
	mu      sync.Mutex
	records map[core.Kind][]core.Record
	preds   []filter.Predicate
	err     error
}

func (f *fakeLister) List(_ context.Context, kind core.Kind, p filter.Predicate) ([]core.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preds = append(f.preds, p)
	if f.err != nil {
		return nil, f.err
	}
	return f.records[kind], nil
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Level: 12, Output: io.Discard})
}

func newLister() *fakeLister {
	return &fakeLister{records: map[core.Kind][]core.Record{
		core.KindExpense: {{ID: "1", Kind: core.KindExpense, Title: "Lunch", Amount: core.Money{Cents: 1200}, Category: "Food", Date: core.NewDate(2024, 1, 5)}},
		core.KindScheduled: {{ID: "2", Kind: core.KindScheduled, Title: "Gym", Amount: core.Money{Cents: 3000}, Category: "Healthcare",
			Date: core.NewDate(2024, 1, 1), Frequency: core.Monthly, IsActive: false}},
	}}
}

func event(kind core.Kind, id string) *events.RecordEvent {
	return events.NewRecordEvent(kind, id, events.OpCreated)
}

func TestExport_IncludesInactive(t *testing.T) {
	lister := newLister()
	exp := memory.New()
	w := NewSyncWorker(lister, exp, nil, quietLogger(), 0)

	require.NoError(t, w.Export(context.Background(), core.KindScheduled))
	rows := exp.Sheet("Scheduled")
	require.Len(t, rows, 2)
	assert.Equal(t, "false", rows[1][7])
	assert.False(t, lister.preds[0].OnlyActive)
}

func TestHandleEvent_NoDebounceExportsImmediately(t *testing.T) {
	exp := memory.New()
	w := NewSyncWorker(newLister(), exp, nil, quietLogger(), 0)

	require.NoError(t, w.HandleEvent(context.Background(), event(core.KindExpense, "1")))
	assert.Equal(t, 1, exp.Exports(core.KindExpense))
}

func TestHandleEvent_DebouncesBursts(t *testing.T) {
	exp := memory.New()
	w := NewSyncWorker(newLister(), exp, nil, quietLogger(), 50*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, w.HandleEvent(ctx, event(core.KindExpense, "1")))
	}
	assert.Equal(t, 0, exp.Exports(core.KindExpense), "nothing exported inside the window")

	require.Eventually(t, func() bool { return exp.Exports(core.KindExpense) == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, exp.Exports(core.KindExpense), "burst yields a single export")
	assert.Equal(t, 0, exp.Exports(core.KindIncome))
}

func TestHandleEvent_RejectsUnknownKind(t *testing.T) {
	w := NewSyncWorker(newLister(), memory.New(), nil, quietLogger(), 0)
	assert.Error(t, w.HandleEvent(context.Background(), &events.RecordEvent{Kind: "loans", ID: "1", Op: events.OpCreated}))
}

func TestFlush_ExportsPendingOnly(t *testing.T) {
	exp := memory.New()
	w := NewSyncWorker(newLister(), exp, nil, quietLogger(), time.Hour)
	ctx := context.Background()

	require.NoError(t, w.HandleEvent(ctx, event(core.KindIncome, "9")))
	require.NoError(t, w.Flush(ctx))
	assert.Equal(t, 1, exp.Exports(core.KindIncome))
	assert.Equal(t, 0, exp.Exports(core.KindExpense))

	require.NoError(t, w.Flush(ctx))
	assert.Equal(t, 1, exp.Exports(core.KindIncome), "flush clears pending state")
}

func TestExportAll_ReportsFailures(t *testing.T) {
	exp := memory.New()
	m := metrics.New()
	w := NewSyncWorker(newLister(), exp, m, quietLogger(), 0)

	require.NoError(t, w.ExportAll(context.Background()))
	for _, k := range core.Kinds() {
		assert.Equal(t, 1, exp.Exports(k))
	}

	boom := errors.New("quota exceeded")
	exp.FailWith(boom)
	err := w.ExportAll(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestExport_ListError(t *testing.T) {
	lister := newLister()
	lister.err = core.ErrStoreUnavailable
	exp := memory.New()
	w := NewSyncWorker(lister, exp, nil, quietLogger(), 0)

	assert.ErrorIs(t, w.Export(context.Background(), core.KindExpense), core.ErrStoreUnavailable)
	assert.Equal(t, 0, exp.Exports(core.KindExpense))
}

func TestRun_ConsumesAndFlushesOnShutdown(t *testing.T) {
	queue := events.NewLocal(16)
	exp := memory.New()
	w := NewSyncWorker(newLister(), exp, nil, quietLogger(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, queue) }()

	require.NoError(t, queue.Publish(context.Background(), event(core.KindExpense, "1")))
	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.pending[core.KindExpense]
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 1, exp.Exports(core.KindExpense), "pending change exported on shutdown")
}
