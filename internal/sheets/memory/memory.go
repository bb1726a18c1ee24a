// Package memory is an in-process sheets.Exporter for tests and for
// running the worker without Google credentials.
package memory

import (
	"context"
	"sync"

	"github.com/BurairCodes/Expense-tracker/internal/core"
	"github.com/BurairCodes/Expense-tracker/internal/sheets"
)

type Exporter struct {
	mu      sync.Mutex
	sheets  map[string][][]string
	exports map[core.Kind]int
	err     error
}

var _ sheets.Exporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{
		sheets:  make(map[string][][]string),
		exports: make(map[core.Kind]int),
	}
}

// FailWith makes every following Export return err. Nil clears it.
func (e *Exporter) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

func (e *Exporter) Export(_ context.Context, kind core.Kind, records []core.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.sheets[sheets.SheetName(kind)] = sheets.Rows(records)
	e.exports[kind]++
	return nil
}

// Sheet returns a copy of the rows last written to name.
func (e *Exporter) Sheet(name string) [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	rows := e.sheets[name]
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Exports counts successful exports of kind.
func (e *Exporter) Exports(kind core.Kind) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports[kind]
}
