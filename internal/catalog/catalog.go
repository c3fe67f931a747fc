// Package catalog defines the closed set of menu items the restaurant
// packs into delivery bags. Item values are the packaging-level names
// printed on the boxes, which is what both the QR payload and the
// image inference work with.
package catalog

import "fmt"

// Item is a menu item identifier. The value is the packaging unit name
// (boxes, containers, skewers), not individual pieces.
type Item string

// Values reflect actual packaging units. Visually similar variants are
// collapsed into generic entries (MAKI, SAUCE) so inference does not
// have to distinguish them.
const (
	MakiCalifornia       Item = "Boite de 6 California Rolls"
	Maki                 Item = "Boite de 6 Maki"
	SashimiSaumon        Item = "Boite de 6 Sashimi Saumon"
	SashimiThon          Item = "Boite de 6 Sashimi Thon"
	Gyoza                Item = "Boite de 4 Gyoza"
	YakitoriBoeufFromage Item = "Yakitori Boeuf Fromage x2"
	YakitoriBoulette     Item = "Yakitori Boulette"
	SoupeMiso            Item = "Soupe Miso"
	Ramen                Item = "Ramen"
	SaladeWakame         Item = "Salade Wakame"
	BowlSaumon           Item = "Bowl Saumon Teriyaki"
	Sauce                Item = "Sauce"
	Mochi                Item = "Boite de 2 Mochi"
)

// items is the canonical enumeration order. Comparison results are
// sorted by this order so repeated runs with shuffled input lines
// produce identical output.
var items = []Item{
	MakiCalifornia,
	Maki,
	SashimiSaumon,
	SashimiThon,
	Gyoza,
	YakitoriBoeufFromage,
	YakitoriBoulette,
	SoupeMiso,
	Ramen,
	SaladeWakame,
	BowlSaumon,
	Sauce,
	Mochi,
}

var indexByItem = func() map[Item]int {
	m := make(map[Item]int, len(items))
	for i, item := range items {
		m[item] = i
	}
	return m
}()

// Items returns the catalog in canonical enumeration order.
// The returned slice is a copy.
func Items() []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// IsValid reports whether the value belongs to the catalog.
func (i Item) IsValid() bool {
	_, ok := indexByItem[i]
	return ok
}

// Index returns the canonical position of the item, or -1 when the
// value is not part of the catalog.
func (i Item) Index() int {
	idx, ok := indexByItem[i]
	if !ok {
		return -1
	}
	return idx
}

// Parse converts a raw string into a catalog Item.
func Parse(value string) (Item, error) {
	item := Item(value)
	if !item.IsValid() {
		return "", fmt.Errorf("unknown catalog item %q", value)
	}
	return item, nil
}
