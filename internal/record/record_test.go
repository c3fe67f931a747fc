package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffmeal/validation-service/internal/catalog"
	"github.com/staffmeal/validation-service/internal/compare"
	"github.com/staffmeal/validation-service/internal/order"
)

func TestAssemble(t *testing.T) {
	expected, err := order.New("UE-1", order.SourceUberEats, []order.Line{
		{Item: catalog.Ramen, Quantity: 2},
	})
	require.NoError(t, err)
	detected, err := order.New("UE-1", order.SourceUberEats, []order.Line{
		{Item: catalog.Ramen, Quantity: 1},
	})
	require.NoError(t, err)

	result := compare.Compare(expected, detected)
	fixed := time.Date(2026, 8, 29, 12, 30, 0, 0, time.UTC)
	assembler := Assembler{Now: func() time.Time { return fixed }}

	rec, err := assembler.Assemble(expected, detected, result, "marie")
	require.NoError(t, err)

	assert.Equal(t, "UE-1", rec.OrderID)
	assert.Equal(t, fixed, rec.Timestamp)
	assert.Equal(t, "marie", rec.Operator)
	assert.False(t, rec.IsComplete)
	assert.Equal(t, *expected, rec.ExpectedOrder)
	assert.Equal(t, *detected, rec.DetectedOrder)
	assert.Equal(t, result, rec.ComparisonResult)
	assert.Zero(t, rec.ID, "id is assigned by the store, not the assembler")
}

func TestAssembleMismatchedOrderID(t *testing.T) {
	expected, err := order.New("UE-1", order.SourceUberEats, []order.Line{
		{Item: catalog.Ramen, Quantity: 1},
	})
	require.NoError(t, err)
	detected, err := order.New("UE-2", order.SourceUberEats, []order.Line{
		{Item: catalog.Ramen, Quantity: 1},
	})
	require.NoError(t, err)

	_, err = Assembler{}.Assemble(expected, detected, compare.Compare(expected, detected), "marie")
	require.Error(t, err)

	var mismatch *MismatchedOrderIDError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "UE-1", mismatch.ExpectedID)
	assert.Equal(t, "UE-2", mismatch.DetectedID)
}

func TestAssembleDefaultsToWallClockUTC(t *testing.T) {
	o, err := order.New("UE-1", order.SourceDeliveroo, []order.Line{
		{Item: catalog.Sauce, Quantity: 1},
	})
	require.NoError(t, err)

	before := time.Now().UTC()
	rec, err := Assembler{}.Assemble(o, o, compare.Compare(o, o), "")
	require.NoError(t, err)
	after := time.Now().UTC()

	assert.Equal(t, time.UTC, rec.Timestamp.Location())
	assert.False(t, rec.Timestamp.Before(before))
	assert.False(t, rec.Timestamp.After(after))
	assert.Empty(t, rec.Operator)
}
