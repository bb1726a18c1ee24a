package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BurairCodes/Expense-tracker/internal/core"
)

func TestRows(t *testing.T) {
	created := time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)
	rows := Rows([]core.Record{
		{ID: "1", Kind: core.KindExpense, Title: "Lunch", Amount: core.Money{Cents: 1250}, Category: "Food",
			Date: core.NewDate(2024, 1, 15), CreatedAt: created},
		{ID: "2", Kind: core.KindScheduled, Title: "Gym", Amount: core.Money{Cents: 3000}, Category: "Healthcare",
			Date: core.NewDate(2024, 1, 1), Frequency: core.Weekly, IsActive: false, CreatedAt: created},
	})

	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"1", "2024-01-15", "Lunch", "Food", "12.50", "", "", "", "2024-01-20T10:00:00Z"}, rows[1])
	assert.Equal(t, "weekly", rows[2][6])
	assert.Equal(t, "false", rows[2][7])
}

func TestRowsEmpty(t *testing.T) {
	assert.Equal(t, [][]string{Header}, Rows(nil))
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Expenses", SheetName(core.KindExpense))
	assert.Equal(t, "Income", SheetName(core.KindIncome))
	assert.Equal(t, "Scheduled", SheetName(core.KindScheduled))
}
