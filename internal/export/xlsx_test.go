package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffmeal/validation-service/internal/catalog"
	"github.com/staffmeal/validation-service/internal/compare"
	"github.com/staffmeal/validation-service/internal/order"
	"github.com/staffmeal/validation-service/internal/record"
	"github.com/staffmeal/validation-service/internal/stats"
)

func exportFixture(t *testing.T) ([]record.ValidationRecord, stats.Statistics) {
	t.Helper()

	expected, err := order.New("UE-1", order.SourceUberEats, []order.Line{
		{Item: catalog.Ramen, Quantity: 1},
		{Item: catalog.Sauce, Quantity: 1},
	})
	require.NoError(t, err)
	detected, err := order.New("UE-1", order.SourceUberEats, []order.Line{
		{Item: catalog.Ramen, Quantity: 1},
	})
	require.NoError(t, err)

	ts := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	rec, err := record.Assembler{Now: func() time.Time { return ts }}.
		Assemble(expected, detected, compare.Compare(expected, detected), "marie")
	require.NoError(t, err)
	rec.ID = 1

	records := []record.ValidationRecord{*rec}
	period := stats.Period{Start: ts.AddDate(0, 0, -7), End: ts.Add(time.Hour)}
	return records, stats.Aggregate(records, period, nil)
}

func TestWorkbook(t *testing.T) {
	records, s := exportFixture(t)

	f, err := Workbook(records, s)
	require.NoError(t, err)
	defer f.Close()

	t.Run("sheets", func(t *testing.T) {
		sheets := f.GetSheetList()
		assert.Contains(t, sheets, "Validations")
		assert.Contains(t, sheets, "Statistics")
		assert.NotContains(t, sheets, "Sheet1")
	})

	t.Run("validation rows", func(t *testing.T) {
		rows, err := f.GetRows("Validations")
		require.NoError(t, err)
		require.Len(t, rows, 2, "header plus one record")

		assert.Equal(t, "ID", rows[0][0])
		assert.Equal(t, "1", rows[1][0])
		assert.Equal(t, "UE-1", rows[1][1])
		assert.Equal(t, "marie", rows[1][3])
	})

	t.Run("statistics rows", func(t *testing.T) {
		rows, err := f.GetRows("Statistics")
		require.NoError(t, err)
		require.NotEmpty(t, rows)
		assert.Equal(t, "Total validations", rows[0][0])
		assert.Equal(t, "1", rows[0][1])
	})
}

func TestSortedItems(t *testing.T) {
	s := stats.Statistics{
		MissingByItem: map[catalog.Item]int{
			catalog.Mochi: 2,
			catalog.Sauce: 2,
			catalog.Ramen: 5,
		},
	}

	// Count descending, catalog order for ties.
	assert.Equal(t, []catalog.Item{catalog.Ramen, catalog.Sauce, catalog.Mochi}, sortedItems(s))
}
