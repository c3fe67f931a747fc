package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffmeal/validation-service/internal/catalog"
	"github.com/staffmeal/validation-service/internal/order"
)

func mustOrder(t *testing.T, id string, lines ...order.Line) *order.Order {
	t.Helper()
	o, err := order.New(id, order.SourceUberEats, lines)
	require.NoError(t, err)
	return o
}

func TestCompareIdenticalOrders(t *testing.T) {
	expected := mustOrder(t, "UE-1",
		order.Line{Item: catalog.Ramen, Quantity: 2},
		order.Line{Item: catalog.Sauce, Quantity: 1},
	)
	detected := mustOrder(t, "UE-1",
		order.Line{Item: catalog.Sauce, Quantity: 1},
		order.Line{Item: catalog.Ramen, Quantity: 2},
	)

	result := Compare(expected, detected)

	assert.True(t, result.IsComplete)
	assert.Empty(t, result.MissingItems)
	assert.Empty(t, result.ExtraItems)
	assert.Equal(t, []catalog.Item{catalog.Ramen, catalog.Sauce}, result.MatchedItems)
}

func TestComparePartition(t *testing.T) {
	// Gyoza short, Mochi absent, Sauce extra, Ramen exact.
	expected := mustOrder(t, "UE-1",
		order.Line{Item: catalog.Gyoza, Quantity: 2},
		order.Line{Item: catalog.Mochi, Quantity: 1},
		order.Line{Item: catalog.Ramen, Quantity: 1},
	)
	detected := mustOrder(t, "UE-1",
		order.Line{Item: catalog.Gyoza, Quantity: 1},
		order.Line{Item: catalog.Ramen, Quantity: 1},
		order.Line{Item: catalog.Sauce, Quantity: 2},
	)

	result := Compare(expected, detected)

	assert.False(t, result.IsComplete)

	require.Len(t, result.MissingItems, 2)
	assert.Equal(t, ItemDelta{Item: catalog.Gyoza, ExpectedQuantity: 2, DetectedQuantity: 1}, result.MissingItems[0])
	assert.Equal(t, ItemDelta{Item: catalog.Mochi, ExpectedQuantity: 1, DetectedQuantity: 0}, result.MissingItems[1])

	require.Len(t, result.ExtraItems, 1)
	assert.Equal(t, ItemDelta{Item: catalog.Sauce, ExpectedQuantity: 0, DetectedQuantity: 2}, result.ExtraItems[0])

	assert.Equal(t, []catalog.Item{catalog.Ramen}, result.MatchedItems)
}

func TestCompareExtrasDoNotAffectCompleteness(t *testing.T) {
	expected := mustOrder(t, "UE-1", order.Line{Item: catalog.Ramen, Quantity: 1})
	detected := mustOrder(t, "UE-1",
		order.Line{Item: catalog.Ramen, Quantity: 1},
		order.Line{Item: catalog.Mochi, Quantity: 3},
	)

	result := Compare(expected, detected)

	assert.True(t, result.IsComplete, "surplus alone must not flag the bag incomplete")
	assert.Len(t, result.ExtraItems, 1)
}

func TestCompareOverDeliveredItemIsExtraNotMatched(t *testing.T) {
	expected := mustOrder(t, "UE-1", order.Line{Item: catalog.Gyoza, Quantity: 1})
	detected := mustOrder(t, "UE-1", order.Line{Item: catalog.Gyoza, Quantity: 3})

	result := Compare(expected, detected)

	assert.True(t, result.IsComplete)
	assert.Empty(t, result.MissingItems)
	assert.Empty(t, result.MatchedItems)
	require.Len(t, result.ExtraItems, 1)
	assert.Equal(t, ItemDelta{Item: catalog.Gyoza, ExpectedQuantity: 1, DetectedQuantity: 3}, result.ExtraItems[0])
}

func TestCompareCatalogOrdering(t *testing.T) {
	// Input lines shuffled; output must follow catalog enumeration.
	expected := mustOrder(t, "UE-1",
		order.Line{Item: catalog.Mochi, Quantity: 1},
		order.Line{Item: catalog.MakiCalifornia, Quantity: 1},
		order.Line{Item: catalog.SoupeMiso, Quantity: 1},
	)
	detected := mustOrder(t, "UE-1", order.Line{Item: catalog.Sauce, Quantity: 1})

	result := Compare(expected, detected)

	require.Len(t, result.MissingItems, 3)
	assert.Equal(t, catalog.MakiCalifornia, result.MissingItems[0].Item)
	assert.Equal(t, catalog.SoupeMiso, result.MissingItems[1].Item)
	assert.Equal(t, catalog.Mochi, result.MissingItems[2].Item)
}

func TestCompareDeterministic(t *testing.T) {
	expected := mustOrder(t, "UE-1",
		order.Line{Item: catalog.Ramen, Quantity: 2},
		order.Line{Item: catalog.Gyoza, Quantity: 1},
	)
	detected := mustOrder(t, "UE-1",
		order.Line{Item: catalog.Gyoza, Quantity: 2},
		order.Line{Item: catalog.SaladeWakame, Quantity: 1},
	)

	first := Compare(expected, detected)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Compare(expected, detected))
	}
}

func TestCompareSumsDuplicateLines(t *testing.T) {
	// Two expected lines of the same item behave as their sum.
	expected := mustOrder(t, "UE-1",
		order.Line{Item: catalog.Sauce, Quantity: 1},
		order.Line{Item: catalog.Sauce, Quantity: 2},
	)
	detected := mustOrder(t, "UE-1", order.Line{Item: catalog.Sauce, Quantity: 3})

	result := Compare(expected, detected)

	assert.True(t, result.IsComplete)
	assert.Equal(t, []catalog.Item{catalog.Sauce}, result.MatchedItems)
}

func TestCompareDisjointOrders(t *testing.T) {
	expected := mustOrder(t, "UE-1", order.Line{Item: catalog.Ramen, Quantity: 1})
	detected := mustOrder(t, "UE-1", order.Line{Item: catalog.Mochi, Quantity: 1})

	result := Compare(expected, detected)

	assert.False(t, result.IsComplete)
	require.Len(t, result.MissingItems, 1)
	assert.Equal(t, 0, result.MissingItems[0].DetectedQuantity)
	require.Len(t, result.ExtraItems, 1)
	assert.Equal(t, 0, result.ExtraItems[0].ExpectedQuantity)
	assert.Empty(t, result.MatchedItems)
}

func TestCompareEmptySlicesNotNil(t *testing.T) {
	expected := mustOrder(t, "UE-1", order.Line{Item: catalog.Ramen, Quantity: 1})
	result := Compare(expected, expected)

	// JSON encoding must produce [] rather than null.
	assert.NotNil(t, result.MissingItems)
	assert.NotNil(t, result.ExtraItems)
	assert.NotNil(t, result.MatchedItems)
}
