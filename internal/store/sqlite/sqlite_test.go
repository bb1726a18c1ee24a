package sqlite

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

func openTemp(t *testing.T, opts ...Option) (*Repository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracker.db")
	r, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, path
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T, clock store.Clock) store.Store {
		r, _ := openTemp(t, WithClock(clock))
		return r
	})
}

func TestRecordsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	r, path := openTemp(t)

	rec, err := r.Insert(ctx, core.KindIncome, core.Input{
		Title: "Salary", Amount: core.Money{Cents: 300000}, Category: "Salary", Date: core.NewDate(2024, 1, 1),
	})
	require.NoError(t, err)
	require.NoError(t, r.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, core.KindIncome, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Salary", got.Title)
	assert.Equal(t, int64(300000), got.Amount.Cents)
	assert.Equal(t, "2024-01-01", got.Date.String())
}

func TestIDsNotReusedAfterDeletingLast(t *testing.T) {
	ctx := context.Background()
	r, _ := openTemp(t)

	in := core.Input{Title: "Gas", Amount: core.Money{Cents: 4500}, Category: "Transportation"}
	a, err := r.Insert(ctx, core.KindExpense, in)
	require.NoError(t, err)
	require.NoError(t, r.Delete(ctx, core.KindExpense, a.ID))

	b, err := r.Insert(ctx, core.KindExpense, in)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestMalformedIDIsNotFound(t *testing.T) {
	r, _ := openTemp(t)
	_, err := r.Get(context.Background(), core.KindExpense, "abc")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, r.Delete(context.Background(), core.KindExpense, "-1"), core.ErrNotFound)
}

func TestSchemaVersion(t *testing.T) {
	_, path := openTemp(t)
	v, dirty, err := SchemaVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)
}
