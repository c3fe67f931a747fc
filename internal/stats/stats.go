// Package stats computes aggregate metrics over validation records and
// derives threshold alerts from them. Statistics are ephemeral:
// recomputed on demand from a filtered record set, never persisted.
package stats

import (
	"time"

	"github.com/staffmeal/validation-service/internal/catalog"
	"github.com/staffmeal/validation-service/internal/order"
	"github.com/staffmeal/validation-service/internal/record"
)

// Period is a half-open time window [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Previous returns the adjacent window of equal length ending at
// p.Start. Useful as the default comparison period for trends.
func (p Period) Previous() Period {
	length := p.End.Sub(p.Start)
	return Period{Start: p.Start.Add(-length), End: p.Start}
}

// Breakdown holds per-group counts and rates.
type Breakdown struct {
	Count          int     `json:"count"`
	Complete       int     `json:"complete"`
	CompletionRate float64 `json:"completion_rate"`
}

// Errors returns the number of incomplete validations in the group.
func (b Breakdown) Errors() int {
	return b.Count - b.Complete
}

// Statistics aggregates validation outcomes for one window, with
// optional trend deltas against a comparison window.
type Statistics struct {
	Period Period `json:"-"`

	Total          int     `json:"total"`
	Complete       int     `json:"complete"`
	CompletionRate float64 `json:"completion_rate"`
	ErrorRate      float64 `json:"error_rate"`

	// Trend deltas are current-window rate minus comparison-window
	// rate; nil when no comparison period was supplied or the prior
	// window holds no records.
	CompletionRateDelta *float64 `json:"completion_rate_delta,omitempty"`
	ErrorRateDelta      *float64 `json:"error_rate_delta,omitempty"`

	ByOperator map[string]Breakdown       `json:"by_operator"`
	BySource   map[order.Source]Breakdown `json:"by_source"`

	// ByHour and ByWeekday bucket records by timestamp. Weekday
	// indices follow time.Weekday (Sunday = 0).
	ByHour    [24]Breakdown `json:"by_hour"`
	ByWeekday [7]Breakdown  `json:"by_weekday"`

	// MissingByItem tallies one entry per missing_items element,
	// keyed by item identity.
	MissingByItem map[catalog.Item]int `json:"missing_by_item"`

	// MissingCount and ExtraCount classify discrepancies by type.
	// A record contributes one tally per missing entry and one per
	// extra entry, so the counts are not mutually exclusive.
	MissingCount int `json:"missing_count"`
	ExtraCount   int `json:"extra_count"`
}

// Aggregate computes Statistics for records falling inside period.
// When comparison is non-nil, records inside it feed the trend deltas.
// An empty window yields zero rates, never NaN.
func Aggregate(records []record.ValidationRecord, period Period, comparison *Period) Statistics {
	stats := Statistics{
		Period:        period,
		ByOperator:    make(map[string]Breakdown),
		BySource:      make(map[order.Source]Breakdown),
		MissingByItem: make(map[catalog.Item]int),
	}

	priorTotal := 0
	priorComplete := 0

	for i := range records {
		rec := &records[i]

		if comparison != nil && comparison.Contains(rec.Timestamp) {
			priorTotal++
			if rec.IsComplete {
				priorComplete++
			}
		}

		if !period.Contains(rec.Timestamp) {
			continue
		}

		stats.Total++
		if rec.IsComplete {
			stats.Complete++
		}

		addTo(stats.ByOperator, rec.Operator, rec.IsComplete)
		addTo(stats.BySource, rec.ExpectedOrder.Source, rec.IsComplete)
		tally(&stats.ByHour[rec.Timestamp.Hour()], rec.IsComplete)
		tally(&stats.ByWeekday[int(rec.Timestamp.Weekday())], rec.IsComplete)

		for _, miss := range rec.ComparisonResult.MissingItems {
			stats.MissingByItem[miss.Item]++
			stats.MissingCount++
		}
		stats.ExtraCount += len(rec.ComparisonResult.ExtraItems)
	}

	stats.CompletionRate = rate(stats.Complete, stats.Total)
	stats.ErrorRate = 0
	if stats.Total > 0 {
		stats.ErrorRate = 1 - stats.CompletionRate
	}

	for key, b := range stats.ByOperator {
		b.CompletionRate = rate(b.Complete, b.Count)
		stats.ByOperator[key] = b
	}
	for key, b := range stats.BySource {
		b.CompletionRate = rate(b.Complete, b.Count)
		stats.BySource[key] = b
	}
	for i := range stats.ByHour {
		stats.ByHour[i].CompletionRate = rate(stats.ByHour[i].Complete, stats.ByHour[i].Count)
	}
	for i := range stats.ByWeekday {
		stats.ByWeekday[i].CompletionRate = rate(stats.ByWeekday[i].Complete, stats.ByWeekday[i].Count)
	}

	if comparison != nil && priorTotal > 0 {
		priorCompletion := rate(priorComplete, priorTotal)
		priorError := 1 - priorCompletion

		completionDelta := stats.CompletionRate - priorCompletion
		errorDelta := stats.ErrorRate - priorError
		stats.CompletionRateDelta = &completionDelta
		stats.ErrorRateDelta = &errorDelta
	}

	return stats
}

func addTo[K comparable](m map[K]Breakdown, key K, complete bool) {
	b := m[key]
	tally(&b, complete)
	m[key] = b
}

func tally(b *Breakdown, complete bool) {
	b.Count++
	if complete {
		b.Complete++
	}
}

func rate(complete, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(complete) / float64(total)
}
