// Package sheets mirrors record collections to a spreadsheet.
package sheets

import (
	"context"
	"strconv"
	"time"

	"github.com/BurairCodes/Expense-tracker/internal/core"
)

// Exporter replaces the mirrored content of one collection.
type Exporter interface {
	Export(ctx context.Context, kind core.Kind, records []core.Record) error
}

// Header is the first row of every mirrored sheet.
var Header = []string{"ID", "Date", "Title", "Category", "Amount", "Description", "Frequency", "Active", "Created At"}

// SheetName is the tab a collection is written to.
func SheetName(kind core.Kind) string {
	switch kind {
	case core.KindExpense:
		return "Expenses"
	case core.KindIncome:
		return "Income"
	case core.KindScheduled:
		return "Scheduled"
	}
	return string(kind)
}

// Rows renders records as sheet rows, header first. Amounts are plain
// decimals so the sheet can sum them.
func Rows(records []core.Record) [][]string {
	out := make([][]string, 0, len(records)+1)
	out = append(out, Header)
	for _, r := range records {
		freq, active := "", ""
		if r.Kind == core.KindScheduled {
			freq = string(r.Frequency)
			active = strconv.FormatBool(r.IsActive)
		}
		out = append(out, []string{
			r.ID,
			r.Date.String(),
			r.Title,
			r.Category,
			r.Amount.String(),
			r.Description,
			freq,
			active,
			r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
