package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BurairCodes/Expense-tracker/internal/core"
)

func TestExporter(t *testing.T) {
	e := New()
	ctx := context.Background()

	require.NoError(t, e.Export(ctx, core.KindIncome, []core.Record{
		{ID: "1", Kind: core.KindIncome, Title: "Salary", Amount: core.Money{Cents: 300000}, Category: "Salary", Date: core.NewDate(2024, 1, 1)},
	}))
	rows := e.Sheet("Income")
	require.Len(t, rows, 2)
	assert.Equal(t, "Salary", rows[1][2])
	assert.Equal(t, 1, e.Exports(core.KindIncome))

	require.NoError(t, e.Export(ctx, core.KindIncome, nil))
	assert.Len(t, e.Sheet("Income"), 1, "export replaces the sheet")

	boom := errors.New("quota exceeded")
	e.FailWith(boom)
	assert.ErrorIs(t, e.Export(ctx, core.KindIncome, nil), boom)
	assert.Equal(t, 2, e.Exports(core.KindIncome))
}
