package memory

import (
	"context"
	"os"
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
		return New(WithClock(clock))
	})
}

func TestNewFromFileMissingUsesFixtures(t *testing.T) {
	s, err := NewFromFile(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	exp, err := s.List(context.Background(), core.KindExpense)
	require.NoError(t, err)
	require.Len(t, exp, 2)
	assert.Equal(t, "Grocery Shopping", exp[0].Title)
	assert.Equal(t, int64(8550), exp[0].Amount.Cents)

	inc, err := s.List(context.Background(), core.KindIncome)
	require.NoError(t, err)
	require.Len(t, inc, 1)
	assert.Equal(t, int64(300000), inc[0].Amount.Cents)
}

func TestNewFromFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
expenses:
  - title: Coffee
    amount: 3.20
    category: Food
    date: 2024-02-01
scheduled:
  - title: Rent
    amount: "1200"
    category: Bills
    date: 2024-02-01
    frequency: monthly
    isActive: false
`), 0o644))

	s, err := NewFromFile(context.Background(), path)
	require.NoError(t, err)

	exp, _ := s.List(context.Background(), core.KindExpense)
	require.Len(t, exp, 1)
	assert.Equal(t, int64(320), exp[0].Amount.Cents)

	sched, _ := s.List(context.Background(), core.KindScheduled)
	require.Len(t, sched, 1)
	assert.False(t, sched[0].IsActive)
	assert.Equal(t, core.Monthly, sched[0].Frequency)

	inc, _ := s.List(context.Background(), core.KindIncome)
	assert.Empty(t, inc)
}

func TestNewFromFileRejectsBadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("expenses:\n  - title: X\n    amount: -1\n    category: Food\n"), 0o644))

	_, err := NewFromFile(context.Background(), path)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}
