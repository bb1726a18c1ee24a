package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/BurairCodes/Expense-tracker/internal/core"
)

// SeedRecord is the YAML form of a fixture record.
type SeedRecord struct {
	Title       string `yaml:"title"`
	Amount      string `yaml:"amount"`
	Category    string `yaml:"category"`
	Date        string `yaml:"date"`
	Description string `yaml:"description,omitempty"`
	Frequency   string `yaml:"frequency,omitempty"`
	IsActive    *bool  `yaml:"isActive,omitempty"`
}

// Seed holds fixture records per collection.
type Seed struct {
	Expenses  []SeedRecord `yaml:"expenses"`
	Income    []SeedRecord `yaml:"income"`
	Scheduled []SeedRecord `yaml:"scheduled"`
}

// DefaultSeed is used when no seed file is available.
func DefaultSeed() Seed {
	return Seed{
		Expenses: []SeedRecord{
			{Title: "Grocery Shopping", Amount: "85.50", Category: "Food", Date: "2024-01-15", Description: "Weekly groceries"},
			{Title: "Gas", Amount: "45.00", Category: "Transportation", Date: "2024-01-14", Description: "Car fuel"},
		},
		Income: []SeedRecord{
			{Title: "Salary", Amount: "3000", Category: "Salary", Date: "2024-01-01", Description: "Monthly salary"},
		},
	}
}

// LoadSeed reads a YAML seed file. A missing file yields DefaultSeed.
func LoadSeed(path string) (Seed, error) {
	if path == "" {
		return DefaultSeed(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSeed(), nil
	}
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return s, nil
}

// Inputs converts the seed into validated-ready inputs per collection.
func (s Seed) Inputs() (map[core.Kind][]core.Input, error) {
	out := make(map[core.Kind][]core.Input, 3)
	groups := map[core.Kind][]SeedRecord{
		core.KindExpense:   s.Expenses,
		core.KindIncome:    s.Income,
		core.KindScheduled: s.Scheduled,
	}
	for _, kind := range core.Kinds() {
		for i, sr := range groups[kind] {
			in, err := sr.input()
			if err != nil {
				return nil, fmt.Errorf("seed %s[%d]: %w", kind, i, err)
			}
			out[kind] = append(out[kind], in)
		}
	}
	return out, nil
}

func (sr SeedRecord) input() (core.Input, error) {
	amount, err := core.ParseMoney(sr.Amount)
	if err != nil {
		return core.Input{}, &core.ValidationError{Field: "amount", Err: err}
	}
	in := core.Input{
		Title:       sr.Title,
		Amount:      amount,
		Category:    sr.Category,
		Description: sr.Description,
		Frequency:   core.Frequency(sr.Frequency),
		IsActive:    sr.IsActive,
	}
	if sr.Date != "" {
		d, err := core.ParseDate(sr.Date)
		if err != nil {
			return core.Input{}, &core.ValidationError{Field: "date", Err: err}
		}
		in.Date = d
	}
	return in, nil
}

// Apply inserts every seed record into st and returns how many were written.
func (s Seed) Apply(ctx context.Context, st Store) (int, error) {
	inputs, err := s.Inputs()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, kind := range core.Kinds() {
		for _, in := range inputs[kind] {
			if _, err := st.Insert(ctx, kind, in); err != nil {
				return n, fmt.Errorf("seed %s: %w", kind, err)
			}
			n++
		}
	}
	return n, nil
}
