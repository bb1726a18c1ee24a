// Package storetest holds the behavioral contract every store.Store
// implementation must satisfy.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BurairCodes/Expense-tracker/internal/core"
	"github.com/BurairCodes/Expense-tracker/internal/store"
)

// Factory opens an empty store using the given clock.
type Factory func(t *testing.T, clock store.Clock) store.Store

// FixedClock returns a clock that advances one second per call, starting at start.
func FixedClock(start time.Time) store.Clock {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Second)
		return t
	}
}

var start = time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)

func grocery() core.Input {
	return core.Input{
		Title:       "Grocery Shopping",
		Amount:      core.Money{Cents: 8550},
		Category:    "Food",
		Date:        core.NewDate(2024, 1, 15),
		Description: "Weekly groceries",
	}
}

// Run executes the contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("InsertAssignsIDAndDefaults", func(t *testing.T) {
		s := newStore(t, FixedClock(start))
		ctx := context.Background()

		r, err := s.Insert(ctx, core.KindExpense, grocery())
		require.NoError(t, err)
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, core.KindExpense, r.Kind)
		assert.Equal(t, int64(8550), r.Amount.Cents)
		assert.True(t, r.CreatedAt.Equal(start), "createdAt = %v", r.CreatedAt)

		sched, err := s.Insert(ctx, core.KindScheduled, core.Input{
			Title: "Netflix", Amount: core.Money{Cents: 1599}, Category: "Entertainment",
		})
		require.NoError(t, err)
		assert.Equal(t, core.Monthly, sched.Frequency)
		assert.True(t, sched.IsActive)
		assert.Equal(t, "2024-01-20", sched.Date.String())

		got, err := s.Get(ctx, core.KindScheduled, sched.ID)
		require.NoError(t, err)
		assertSameRecord(t, sched, got)
	})

	t.Run("InsertRejectsInvalid", func(t *testing.T) {
		s := newStore(t, FixedClock(start))
		ctx := context.Background()

		bad := grocery()
		bad.Amount = core.Money{Cents: -100}
		_, err := s.Insert(ctx, core.KindExpense, bad)
		require.Error(t, err)
		assert.True(t, core.IsValidation(err))

		wrongSet := grocery()
		wrongSet.Category = "Salary"
		_, err = s.Insert(ctx, core.KindExpense, wrongSet)
		assert.ErrorIs(t, err, core.ErrInvalidCategory)

		_, err = s.Insert(ctx, core.Kind("bogus"), grocery())
		assert.ErrorIs(t, err, core.ErrInvalidKind)

		all, err := s.List(ctx, core.KindExpense)
		require.NoError(t, err)
		assert.Empty(t, all, "rejected inserts must not be stored")
	})

	t.Run("CollectionsAreIsolated", func(t *testing.T) {
		s := newStore(t, FixedClock(start))
		ctx := context.Background()

		e, err := s.Insert(ctx, core.KindExpense, grocery())
		require.NoError(t, err)
		_, err = s.Insert(ctx, core.KindIncome, core.Input{
			Title: "Salary", Amount: core.Money{Cents: 300000}, Category: "Salary", Date: core.NewDate(2024, 1, 1),
		})
		require.NoError(t, err)

		exp, err := s.List(ctx, core.KindExpense)
		require.NoError(t, err)
		require.Len(t, exp, 1)
		assert.Equal(t, e.ID, exp[0].ID)

		_, err = s.Get(ctx, core.KindIncome, e.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("UpdatePreservesIdentity", func(t *testing.T) {
		s := newStore(t, FixedClock(start))
		ctx := context.Background()

		r, err := s.Insert(ctx, core.KindExpense, grocery())
		require.NoError(t, err)

		in := grocery()
		in.Amount = core.Money{Cents: 9000}
		in.Title = "Groceries"
		upd, err := s.Update(ctx, core.KindExpense, r.ID, in)
		require.NoError(t, err)
		assert.Equal(t, r.ID, upd.ID)
		assert.True(t, upd.CreatedAt.Equal(r.CreatedAt))
		assert.Equal(t, int64(9000), upd.Amount.Cents)

		got, err := s.Get(ctx, core.KindExpense, r.ID)
		require.NoError(t, err)
		assertSameRecord(t, upd, got)

		in.Amount = core.Money{}
		_, err = s.Update(ctx, core.KindExpense, r.ID, in)
		assert.True(t, core.IsValidation(err))
		got, err = s.Get(ctx, core.KindExpense, r.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(9000), got.Amount.Cents, "failed update must not change the record")

		_, err = s.Update(ctx, core.KindExpense, "999999", grocery())
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("UpdateKeepsActiveFlagUnlessSupplied", func(t *testing.T) {
		s := newStore(t, FixedClock(start))
		ctx := context.Background()

		off := false
		r, err := s.Insert(ctx, core.KindScheduled, core.Input{
			Title: "Gym", Amount: core.Money{Cents: 3000}, Category: "Healthcare", IsActive: &off, Frequency: core.Weekly,
		})
		require.NoError(t, err)
		assert.False(t, r.IsActive)

		upd, err := s.Update(ctx, core.KindScheduled, r.ID, core.Input{
			Title: "Gym", Amount: core.Money{Cents: 3200}, Category: "Healthcare",
		})
		require.NoError(t, err)
		assert.False(t, upd.IsActive)
		assert.Equal(t, core.Weekly, upd.Frequency)

		on := true
		upd, err = s.Update(ctx, core.KindScheduled, r.ID, core.Input{
			Title: "Gym", Amount: core.Money{Cents: 3200}, Category: "Healthcare", IsActive: &on,
		})
		require.NoError(t, err)
		assert.True(t, upd.IsActive)
	})

	t.Run("DeleteRemovesAndNeverReusesIDs", func(t *testing.T) {
		s := newStore(t, FixedClock(start))
		ctx := context.Background()

		a, err := s.Insert(ctx, core.KindExpense, grocery())
		require.NoError(t, err)
		b, err := s.Insert(ctx, core.KindExpense, grocery())
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, core.KindExpense, b.ID))
		_, err = s.Get(ctx, core.KindExpense, b.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, core.KindExpense, b.ID), core.ErrNotFound)

		c, err := s.Insert(ctx, core.KindExpense, grocery())
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, c.ID)
		assert.NotEqual(t, b.ID, c.ID, "ids of deleted records must not be reused")

		rest, err := s.List(ctx, core.KindExpense)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{a.ID, c.ID}, recordIDs(rest))
	})

	t.Run("ListIncludesInactive", func(t *testing.T) {
		s := newStore(t, FixedClock(start))
		ctx := context.Background()

		off := false
		_, err := s.Insert(ctx, core.KindScheduled, core.Input{
			Title: "Old plan", Amount: core.Money{Cents: 999}, Category: "Bills", IsActive: &off,
		})
		require.NoError(t, err)
		all, err := s.List(ctx, core.KindScheduled)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.False(t, all[0].IsActive)
	})

	t.Run("ListReturnsCopies", func(t *testing.T) {
		s := newStore(t, FixedClock(start))
		ctx := context.Background()

		r, err := s.Insert(ctx, core.KindExpense, grocery())
		require.NoError(t, err)
		all, err := s.List(ctx, core.KindExpense)
		require.NoError(t, err)
		all[0].Title = "mutated"

		got, err := s.Get(ctx, core.KindExpense, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "Grocery Shopping", got.Title)
	})

	t.Run("ConcurrentInsertsGetDistinctIDs", func(t *testing.T) {
		s := newStore(t, FixedClock(start))
		ctx := context.Background()

		const n = 20
		var wg sync.WaitGroup
		ids := make([]string, n)
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				in := grocery()
				in.Title = fmt.Sprintf("item %d", i)
				r, err := s.Insert(ctx, core.KindExpense, in)
				ids[i], errs[i] = r.ID, err
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}
		sort.Strings(ids)
		for i := 1; i < n; i++ {
			assert.NotEqual(t, ids[i-1], ids[i])
		}
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStore(t, FixedClock(start))
		assert.NoError(t, s.Ping(context.Background()))
	})
}

func recordIDs(rs []core.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func assertSameRecord(t *testing.T, want, got core.Record) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Amount, got.Amount)
	assert.Equal(t, want.Category, got.Category)
	assert.Equal(t, want.Date.String(), got.Date.String())
	assert.Equal(t, want.Description, got.Description)
	assert.Equal(t, want.Frequency, got.Frequency)
	assert.Equal(t, want.IsActive, got.IsActive)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "createdAt %v != %v", want.CreatedAt, got.CreatedAt)
}
