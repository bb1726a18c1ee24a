package aggregate

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BurairCodes/Expense-tracker/internal/core"
)

func expense(id, cat string, cents int64) core.Record {
	return core.Record{
		ID:       id,
		Kind:     core.KindExpense,
		Title:    "t" + id,
		Category: cat,
		Amount:   core.Money{Cents: cents},
		Date:     core.NewDate(2024, 1, 15),
	}
}

func TestSummarizeSeedExpenses(t *testing.T) {
	s := Summarize([]core.Record{
		expense("1", "Food", 8550),
		expense("2", "Transportation", 4500),
	})

	assert.Equal(t, int64(13050), s.Total.Cents)
	assert.Equal(t, 2, s.Count)
	require.Len(t, s.Categories, 2)

	assert.Equal(t, "Food", s.Categories[0].Category)
	assert.Equal(t, int64(8550), s.Categories[0].Total.Cents)
	assert.Equal(t, "65.52", fmt.Sprintf("%.2f", s.Categories[0].Percentage))

	assert.Equal(t, "Transportation", s.Categories[1].Category)
	assert.Equal(t, "34.48", fmt.Sprintf("%.2f", s.Categories[1].Percentage))
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, int64(0), s.Total.Cents)
	assert.Equal(t, 0, s.Count)
	assert.NotNil(t, s.Categories)
	assert.Empty(t, s.Categories)
}

func TestSummarizeTiesOrderedByName(t *testing.T) {
	s := Summarize([]core.Record{
		expense("1", "Travel", 1000),
		expense("2", "Bills", 1000),
		expense("3", "Food", 500),
		expense("4", "Food", 500),
	})
	var names []string
	for _, c := range s.Categories {
		names = append(names, c.Category)
	}
	assert.Equal(t, []string{"Bills", "Food", "Travel"}, names)
	assert.Equal(t, 2, s.Categories[1].Count)
}

func TestSummarizeProperties(t *testing.T) {
	cats := core.Categories(core.KindExpense)
	rng := rand.New(rand.NewSource(42))
	for n := 1; n <= 50; n++ {
		var rs []core.Record
		for i := 0; i < n; i++ {
			rs = append(rs, expense(fmt.Sprint(i), cats[rng.Intn(len(cats))], rng.Int63n(100000)+1))
		}
		s := Summarize(rs)

		var sum int64
		var pct float64
		count := 0
		for i, c := range s.Categories {
			sum += c.Total.Cents
			pct += c.Percentage
			count += c.Count
			if i > 0 {
				assert.GreaterOrEqual(t, s.Categories[i-1].Total.Cents, c.Total.Cents)
			}
		}
		assert.Equal(t, s.Total.Cents, sum, "subtotals must add up exactly")
		assert.Equal(t, n, count)
		assert.LessOrEqual(t, math.Abs(pct-100), 0.01)
	}
}

func TestSummarizePanicsOnCorruptRecords(t *testing.T) {
	assert.Panics(t, func() { Summarize([]core.Record{expense("1", "", 100)}) })
	assert.Panics(t, func() { Summarize([]core.Record{expense("1", "Food", 0)}) })
	assert.Panics(t, func() { Summarize([]core.Record{expense("1", "Food", -10)}) })
}

func TestPercentageZeroTotal(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(core.Money{Cents: 10}, core.Money{}))
}

func TestComputeBalance(t *testing.T) {
	income := Summary{Total: core.Money{Cents: 300000}}
	expenses := Summary{Total: core.Money{Cents: 13050}}

	b := ComputeBalance(income, expenses)
	assert.Equal(t, int64(286950), b.Net.Cents)
	assert.Equal(t, StatusNonNegative, b.Status)

	b = ComputeBalance(expenses, income)
	assert.Equal(t, int64(-286950), b.Net.Cents)
	assert.Equal(t, StatusNegative, b.Status)

	b = ComputeBalance(Summary{}, Summary{})
	assert.Equal(t, StatusNonNegative, b.Status)
}
