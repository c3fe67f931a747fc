package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffmeal/validation-service/internal/catalog"
	"github.com/staffmeal/validation-service/internal/order"
	"github.com/staffmeal/validation-service/internal/record"
)

func storedRecord(orderID, operator string, source order.Source, ts time.Time) *record.ValidationRecord {
	return &record.ValidationRecord{
		OrderID:    orderID,
		Timestamp:  ts,
		Operator:   operator,
		IsComplete: true,
		ExpectedOrder: order.Order{
			OrderID: orderID,
			Source:  source,
			Lines:   []order.Line{{Item: catalog.Ramen, Quantity: 1}},
		},
	}
}

func TestMemoryStoreAppendAssignsIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	ts := time.Now().UTC()

	id1, err := s.Append(ctx, storedRecord("UE-1", "marie", order.SourceUberEats, ts))
	require.NoError(t, err)
	id2, err := s.Append(ctx, storedRecord("UE-2", "marie", order.SourceUberEats, ts))
	require.NoError(t, err)

	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)
	assert.Equal(t, 2, s.Len())
}

func TestMemoryStoreAppendCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	rec := storedRecord("UE-1", "marie", order.SourceUberEats, time.Now().UTC())
	_, err := s.Append(ctx, rec)
	require.NoError(t, err)

	rec.Operator = "tampered"

	got, err := s.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "marie", got[0].Operator)
}

func TestMemoryStoreQueryFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	_, err := s.Append(ctx, storedRecord("UE-1", "marie", order.SourceUberEats, base))
	require.NoError(t, err)
	_, err = s.Append(ctx, storedRecord("DLV-1", "lucas", order.SourceDeliveroo, base.Add(time.Hour)))
	require.NoError(t, err)
	_, err = s.Append(ctx, storedRecord("UE-2", "marie", order.SourceUberEats, base.Add(2*time.Hour)))
	require.NoError(t, err)

	t.Run("by order id", func(t *testing.T) {
		got, err := s.Query(ctx, Filter{OrderID: "DLV-1"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "DLV-1", got[0].OrderID)
	})

	t.Run("by operator", func(t *testing.T) {
		got, err := s.Query(ctx, Filter{Operator: "marie"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("by source", func(t *testing.T) {
		got, err := s.Query(ctx, Filter{Source: order.SourceDeliveroo})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("time window is half-open", func(t *testing.T) {
		got, err := s.Query(ctx, Filter{From: base, Until: base.Add(2 * time.Hour)})
		require.NoError(t, err)
		assert.Len(t, got, 2, "From inclusive, Until exclusive")
	})

	t.Run("limit", func(t *testing.T) {
		got, err := s.Query(ctx, Filter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("zero filter returns everything", func(t *testing.T) {
		got, err := s.Query(ctx, Filter{})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})
}

func TestMemoryStoreConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Append(ctx, storedRecord("UE-1", "marie", order.SourceUberEats, time.Now().UTC()))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())

	// All ids distinct.
	got, err := s.Query(ctx, Filter{})
	require.NoError(t, err)
	seen := make(map[int64]bool, len(got))
	for _, rec := range got {
		assert.False(t, seen[rec.ID], "duplicate id %d", rec.ID)
		seen[rec.ID] = true
	}
}
