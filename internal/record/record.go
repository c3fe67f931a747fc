// Package record assembles comparison outcomes into persistable
// validation records. Records are append-only: once assembled and
// stored they are never mutated.
package record

import (
	"fmt"
	"time"

	"github.com/staffmeal/validation-service/internal/compare"
	"github.com/staffmeal/validation-service/internal/order"
)

// ValidationRecord is one logged validation outcome with metadata.
// The expected and detected orders and the comparison result are
// embedded as snapshots so a record stays self-describing after menu
// or policy changes.
type ValidationRecord struct {
	ID               int64          `json:"id,omitempty"`
	OrderID          string         `json:"order_id"`
	Timestamp        time.Time      `json:"timestamp"`
	Operator         string         `json:"operator,omitempty"`
	IsComplete       bool           `json:"is_complete"`
	ExpectedOrder    order.Order    `json:"expected_order"`
	DetectedOrder    order.Order    `json:"detected_order"`
	ComparisonResult compare.Result `json:"comparison_result"`
}

// MismatchedOrderIDError reports a detected order that does not echo
// the identifier of the expected order it was matched against.
type MismatchedOrderIDError struct {
	ExpectedID string
	DetectedID string
}

func (e *MismatchedOrderIDError) Error() string {
	return fmt.Sprintf("mismatched order id: expected %q, detected %q", e.ExpectedID, e.DetectedID)
}

// Assembler builds validation records. The zero value uses the wall
// clock; Now is injectable for tests.
type Assembler struct {
	Now func() time.Time
}

// Assemble wraps a comparison result with metadata. The record's
// order id comes from the expected order; a detected order carrying a
// different id fails with *MismatchedOrderIDError. The timestamp
// defaults to the current time.
func (a Assembler) Assemble(
	expected, detected *order.Order,
	result compare.Result,
	operator string,
) (*ValidationRecord, error) {
	if detected.OrderID != expected.OrderID {
		return nil, &MismatchedOrderIDError{
			ExpectedID: expected.OrderID,
			DetectedID: detected.OrderID,
		}
	}

	now := a.Now
	if now == nil {
		now = time.Now
	}

	return &ValidationRecord{
		OrderID:          expected.OrderID,
		Timestamp:        now().UTC(),
		Operator:         operator,
		IsComplete:       result.IsComplete,
		ExpectedOrder:    *expected,
		DetectedOrder:    *detected,
		ComparisonResult: result,
	}, nil
}
