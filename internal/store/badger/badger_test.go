package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BurairCodes/Expense-tracker/internal/core"
	"github.com/BurairCodes/Expense-tracker/internal/store"
	"github.com/BurairCodes/Expense-tracker/internal/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T, clock store.Clock) store.Store {
		s, err := Open(Config{InMemory: true}, WithClock(clock))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
}

func TestPersistentReopenDoesNotReuseIDs(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "badger")

	s, err := Open(Config{Path: dir, SyncWrites: true})
	require.NoError(t, err)
	in := core.Input{Title: "Rent", Amount: core.Money{Cents: 120000}, Category: "Bills", Frequency: core.Monthly}
	first, err := s.Insert(ctx, core.KindScheduled, in)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, core.KindScheduled, first.ID))
	require.NoError(t, s.Close())

	s, err = Open(Config{Path: dir})
	require.NoError(t, err)
	defer s.Close()

	second, err := s.Insert(ctx, core.KindScheduled, in)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	all, err := s.List(ctx, core.KindScheduled)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, second.ID, all[0].ID)
}

func TestListOrderedByID(t *testing.T) {
	ctx := context.Background()
	s, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	var want []string
	for i := 0; i < 12; i++ {
		r, err := s.Insert(ctx, core.KindExpense, core.Input{Title: "x", Amount: core.Money{Cents: 100}, Category: "Food"})
		require.NoError(t, err)
		want = append(want, r.ID)
	}
	all, err := s.List(ctx, core.KindExpense)
	require.NoError(t, err)
	var got []string
	for _, r := range all {
		got = append(got, r.ID)
	}
	assert.Equal(t, want, got)
}
