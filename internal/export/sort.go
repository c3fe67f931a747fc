package export

import (
	"sort"

	"github.com/staffmeal/validation-service/internal/catalog"
	"github.com/staffmeal/validation-service/internal/stats"
)

func sortedItems(s stats.Statistics) []catalog.Item {
	items := make([]catalog.Item, 0, len(s.MissingByItem))
	for item := range s.MissingByItem {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if s.MissingByItem[items[i]] != s.MissingByItem[items[j]] {
			return s.MissingByItem[items[i]] > s.MissingByItem[items[j]]
		}
		return items[i].Index() < items[j].Index()
	})
	return items
}

func sortedOperators(s stats.Statistics) []string {
	ops := make([]string, 0, len(s.ByOperator))
	for op := range s.ByOperator {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}
