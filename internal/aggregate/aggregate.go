// Package aggregate derives totals, per-category breakdowns and the balance
// from record lists.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/BurairCodes/Expense-tracker/internal/core"
)

const (
	StatusNonNegative = "non_negative"
	StatusNegative    = "negative"
)

// CategoryTotal is one row of a breakdown.
type CategoryTotal struct {
	Category   string
	Total      core.Money
	Count      int
	Percentage float64
}

// Summary is the aggregate view of a record list. Categories are ordered
// by total descending, then by name.
type Summary struct {
	Total      core.Money
	Count      int
	Categories []CategoryTotal
}

// Balance compares income against expenses.
type Balance struct {
	Income   core.Money
	Expenses core.Money
	Net      core.Money
	Status   string
}

// Summarize computes total, count and the category breakdown in one pass.
// It panics on records violating the amount or category invariants: those
// can only come from a corrupt store.
func Summarize(records []core.Record) Summary {
	s := Summary{Categories: []CategoryTotal{}}
	idx := make(map[string]int)
	for _, r := range records {
		if r.Category == "" {
			panic(fmt.Sprintf("aggregate: record %q has no category", r.ID))
		}
		if r.Amount.Cents <= 0 {
			panic(fmt.Sprintf("aggregate: record %q has non-positive amount %d", r.ID, r.Amount.Cents))
		}
		s.Total = s.Total.Add(r.Amount)
		s.Count++
		i, ok := idx[r.Category]
		if !ok {
			i = len(s.Categories)
			idx[r.Category] = i
			s.Categories = append(s.Categories, CategoryTotal{Category: r.Category})
		}
		s.Categories[i].Total = s.Categories[i].Total.Add(r.Amount)
		s.Categories[i].Count++
	}

	for i := range s.Categories {
		s.Categories[i].Percentage = Percentage(s.Categories[i].Total, s.Total)
	}
	sort.SliceStable(s.Categories, func(i, j int) bool {
		a, b := s.Categories[i], s.Categories[j]
		if a.Total.Cents != b.Total.Cents {
			return a.Total.Cents > b.Total.Cents
		}
		return a.Category < b.Category
	})
	return s
}

// Percentage returns part/total*100, or 0 when total is zero.
func Percentage(part, total core.Money) float64 {
	if total.Cents == 0 {
		return 0
	}
	return float64(part.Cents) / float64(total.Cents) * 100
}

// ComputeBalance nets income against expenses.
func ComputeBalance(income, expenses Summary) Balance {
	b := Balance{
		Income:   income.Total,
		Expenses: expenses.Total,
		Net:      income.Total.Sub(expenses.Total),
	}
	b.Status = StatusNonNegative
	if b.Net.Cents < 0 {
		b.Status = StatusNegative
	}
	return b
}
