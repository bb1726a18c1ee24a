// Package filter selects and orders records for listing.
package filter

import (
	"sort"
	"strings"

	"github.com/BurairCodes/Expense-tracker/internal/core"
)

// Predicate narrows a record list. Every set field must match; the zero
// value matches everything.
type Predicate struct {
	Category   string
	DateFrom   core.Date
	DateTo     core.Date
	OnlyActive bool
	Frequency  core.Frequency
	Search     string
}

// Matches reports whether r passes every condition of p.
func (p Predicate) Matches(r core.Record) bool {
	if !IsAll(p.Category) && r.Category != p.Category {
		return false
	}
	if !r.Date.InRange(p.DateFrom, p.DateTo) {
		return false
	}
	if r.Kind == core.KindScheduled {
		if p.OnlyActive && !r.IsActive {
			return false
		}
		if p.Frequency != "" && r.Frequency != p.Frequency {
			return false
		}
	}
	if q := strings.TrimSpace(p.Search); q != "" {
		q = strings.ToLower(q)
		if !strings.Contains(strings.ToLower(r.Title), q) &&
			!strings.Contains(strings.ToLower(r.Description), q) {
			return false
		}
	}
	return true
}

// Key renders the predicate as a stable string usable as a cache key.
func (p Predicate) Key() string {
	var b strings.Builder
	cat := p.Category
	if IsAll(cat) {
		cat = ""
	}
	b.WriteString(cat)
	b.WriteByte('|')
	b.WriteString(p.DateFrom.String())
	b.WriteByte('|')
	b.WriteString(p.DateTo.String())
	b.WriteByte('|')
	if p.OnlyActive {
		b.WriteByte('a')
	}
	b.WriteByte('|')
	b.WriteString(string(p.Frequency))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(strings.TrimSpace(p.Search)))
	return b.String()
}

// IsAll reports whether category disables category filtering.
func IsAll(category string) bool {
	return category == "" || strings.EqualFold(category, core.AllCategories)
}

// Apply returns the records matching p, newest date first. Records sharing
// a date keep creation order, then input order. The input is not modified.
func Apply(records []core.Record, p Predicate) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if p.Matches(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
