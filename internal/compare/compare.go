// Package compare reconciles an expected order against the order
// detected on the bag image. Compare is pure and deterministic: no
// I/O, no clock, and output ordering follows the catalog enumeration
// rather than input order.
package compare

import (
	"sort"

	"github.com/staffmeal/validation-service/internal/catalog"
	"github.com/staffmeal/validation-service/internal/order"
)

// ItemDelta records the expected vs. detected quantity for one item.
type ItemDelta struct {
	Item             catalog.Item `json:"item"`
	ExpectedQuantity int          `json:"expected_quantity"`
	DetectedQuantity int          `json:"detected_quantity"`
}

// Result partitions every item present in either order into exactly
// one of missing, extra or matched.
type Result struct {
	// IsComplete is true iff nothing is missing or short. Extra items
	// never flip completeness: the business rule is "nothing missing",
	// not "exact match" — over-delivery is not a preparation error.
	IsComplete bool `json:"is_complete"`

	// MissingItems holds items with detected < expected, including
	// wholly absent items (detected 0).
	MissingItems []ItemDelta `json:"missing_items"`

	// ExtraItems holds items with detected > expected, including items
	// not in the expected order at all (expected 0).
	ExtraItems []ItemDelta `json:"extra_items"`

	// MatchedItems holds items whose quantities agree exactly.
	MatchedItems []catalog.Item `json:"matched_items"`
}

// Compare reconciles expected vs. detected. Both inputs are assumed
// well-formed (construction validates them); duplicate lines for the
// same item are summed rather than rejected, to stay tolerant of
// malformed payloads.
func Compare(expected, detected *order.Order) Result {
	expectedQty := expected.Quantities()
	detectedQty := detected.Quantities()

	union := make(map[catalog.Item]struct{}, len(expectedQty)+len(detectedQty))
	for item := range expectedQty {
		union[item] = struct{}{}
	}
	for item := range detectedQty {
		union[item] = struct{}{}
	}

	items := make([]catalog.Item, 0, len(union))
	for item := range union {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Index() < items[j].Index()
	})

	result := Result{
		MissingItems: make([]ItemDelta, 0),
		ExtraItems:   make([]ItemDelta, 0),
		MatchedItems: make([]catalog.Item, 0),
	}

	for _, item := range items {
		exp := expectedQty[item]
		det := detectedQty[item]
		delta := ItemDelta{Item: item, ExpectedQuantity: exp, DetectedQuantity: det}

		switch {
		case det < exp:
			result.MissingItems = append(result.MissingItems, delta)
		case det > exp:
			result.ExtraItems = append(result.ExtraItems, delta)
		case exp > 0:
			result.MatchedItems = append(result.MatchedItems, item)
		}
	}

	result.IsComplete = len(result.MissingItems) == 0
	return result
}
