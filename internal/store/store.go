// Package store persists validation records. The core treats the
// store as a black box with two operations, append and query, both
// atomic and individually consistent.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/staffmeal/validation-service/internal/order"
	"github.com/staffmeal/validation-service/internal/record"
)

// Filter narrows a query. Zero-valued fields are ignored.
type Filter struct {
	OrderID  string
	Operator string
	Source   order.Source
	// From/Until bound the record timestamp as [From, Until).
	From  time.Time
	Until time.Time
	// Limit caps the number of returned records; 0 means no limit.
	Limit int
}

// Store is the record store contract. Records are append-only; query
// results come back in arbitrary order and callers sort when needed.
type Store interface {
	// Append persists a record and returns the assigned id. A failed
	// append must surface as an error; losing a validation record is
	// worse than a user-visible failure.
	Append(ctx context.Context, rec *record.ValidationRecord) (int64, error)

	// Query returns the records matching the filter.
	Query(ctx context.Context, filter Filter) ([]record.ValidationRecord, error)
}

// UnavailableError wraps a store transport failure. It propagates
// unchanged through assembly and aggregation; there is no caching
// fallback.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("record store unavailable during %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
