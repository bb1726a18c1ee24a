// Package schedule computes when a scheduled charge next falls due and
// what it costs per month. Nothing here creates records; scheduled
// charges stay descriptive.
//
// Each frequency has its own Stepper, looked up through a registry.
package schedule

import (
	"fmt"
	"time"

	"github.com/BurairCodes/Expense-tracker/internal/core"
)

// Stepper advances an occurrence by one period. anchor is the charge's
// own date, used to keep month-end and leap-day charges on their day.
type Stepper interface {
	Step(current, anchor core.Date) core.Date
	// PerYear is the number of occurrences in a year.
	PerYear() int64
}

type dailyStepper struct{}

func (dailyStepper) Step(current, _ core.Date) core.Date { return addDays(current, 1) }
func (dailyStepper) PerYear() int64                      { return 365 }

type weeklyStepper struct{}

func (weeklyStepper) Step(current, _ core.Date) core.Date { return addDays(current, 7) }
func (weeklyStepper) PerYear() int64                      { return 52 }

// monthlyStepper clamps to the last day of short months and returns to
// the anchor day afterwards (Jan 31, Feb 29, Mar 31).
type monthlyStepper struct{}

func (monthlyStepper) Step(current, anchor core.Date) core.Date {
	y, m := current.Year(), current.Month()+1
	if m > 12 {
		y, m = y+1, 1
	}
	return clampedDate(y, m, anchor.Day())
}
func (monthlyStepper) PerYear() int64 { return 12 }

type yearlyStepper struct{}

func (yearlyStepper) Step(current, anchor core.Date) core.Date {
	return clampedDate(current.Year()+1, anchor.Month(), anchor.Day())
}
func (yearlyStepper) PerYear() int64 { return 1 }

var steppers = map[core.Frequency]Stepper{
	core.Daily:   dailyStepper{},
	core.Weekly:  weeklyStepper{},
	core.Monthly: monthlyStepper{},
	core.Yearly:  yearlyStepper{},
}

// For returns the stepper of a frequency.
func For(f core.Frequency) (Stepper, error) {
	s, ok := steppers[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidFrequency, f)
	}
	return s, nil
}

// NextDue returns the first occurrence of the charge on or after today.
// A charge dated in the future is next due on its own date. ok is false
// for inactive charges and records that are not scheduled charges.
func NextDue(r core.Record, today core.Date) (core.Date, bool) {
	if r.Kind != core.KindScheduled || !r.IsActive || r.Date.IsZero() {
		return core.Date{}, false
	}
	s, err := For(r.Frequency)
	if err != nil {
		return core.Date{}, false
	}

	next := r.Date
	// Daily and weekly jump close to today instead of stepping through
	// every period since the anchor.
	switch r.Frequency {
	case core.Daily, core.Weekly:
		period := 1
		if r.Frequency == core.Weekly {
			period = 7
		}
		if days := daysBetween(next, today); days > 0 {
			next = addDays(next, (days/period)*period)
		}
	}
	for next.Before(today.Time) {
		next = s.Step(next, r.Date)
	}
	return next, true
}

// MonthlyCost is the charge's average cost per month, rounded half up to
// the cent. Inactive charges cost nothing.
func MonthlyCost(r core.Record) core.Money {
	if r.Kind != core.KindScheduled || !r.IsActive {
		return core.Money{}
	}
	s, err := For(r.Frequency)
	if err != nil {
		return core.Money{}
	}
	yearly := r.Amount.Cents * s.PerYear()
	return core.Money{Cents: (yearly + 6) / 12}
}

// Commitment sums MonthlyCost over records.
func Commitment(records []core.Record) core.Money {
	var total core.Money
	for _, r := range records {
		total = total.Add(MonthlyCost(r))
	}
	return total
}

func addDays(d core.Date, n int) core.Date {
	return core.DateOf(d.Time.AddDate(0, 0, n))
}

func daysBetween(from, to core.Date) int {
	return int(to.Time.Sub(from.Time).Hours() / 24)
}

func clampedDate(year, month, day int) core.Date {
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	return core.NewDate(year, month, day)
}
