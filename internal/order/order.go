// Package order models an order tied to one delivery: the expected
// order decoded from a QR payload, or the order detected on a bag
// image by inference. Orders are validated at construction and
// immutable afterwards.
package order

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/staffmeal/validation-service/internal/catalog"
)

// Source identifies the delivery platform an order came from.
type Source string

const (
	SourceUberEats  Source = "ubereats"
	SourceDeliveroo Source = "deliveroo"
)

// Sources returns all known order sources.
func Sources() []Source {
	return []Source{SourceUberEats, SourceDeliveroo}
}

// IsValid reports whether the value is a known source platform.
func (s Source) IsValid() bool {
	switch s {
	case SourceUberEats, SourceDeliveroo:
		return true
	}
	return false
}

// ParseSource converts a raw string into a Source.
func ParseSource(value string) (Source, error) {
	s := Source(value)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown order source %q", value)
	}
	return s, nil
}

// InvalidOrderError reports a structurally invalid order. Orders are
// never silently corrected; construction fails fast instead.
type InvalidOrderError struct {
	Field  string
	Reason string
}

func (e *InvalidOrderError) Error() string {
	return fmt.Sprintf("invalid order: %s %s", e.Field, e.Reason)
}

// Line is one (item, quantity) entry in an order.
type Line struct {
	Item     catalog.Item `json:"item"`
	Quantity int          `json:"quantity"`
}

func (l Line) String() string {
	return fmt.Sprintf("%dx %s", l.Quantity, l.Item)
}

// Order is a validated order: a non-empty identifier, a known source
// and at least one line. An item appearing in more than one line is a
// caller error; the comparator tolerates it additively but New does
// not merge lines.
type Order struct {
	OrderID string `json:"order_id"`
	Source  Source `json:"source"`
	Lines   []Line `json:"items"`
}

// New builds a validated Order. It returns *InvalidOrderError when the
// id is blank, the source is unknown, the order has no lines, a line
// references an unknown item, or a quantity is below 1.
func New(orderID string, source Source, lines []Line) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, &InvalidOrderError{Field: "order_id", Reason: "must not be empty"}
	}
	if !source.IsValid() {
		return nil, &InvalidOrderError{Field: "source", Reason: fmt.Sprintf("unknown value %q", source)}
	}
	if len(lines) == 0 {
		return nil, &InvalidOrderError{Field: "items", Reason: "must contain at least one line"}
	}
	for i, line := range lines {
		if !line.Item.IsValid() {
			return nil, &InvalidOrderError{
				Field:  fmt.Sprintf("items[%d].item", i),
				Reason: fmt.Sprintf("unknown value %q", line.Item),
			}
		}
		if line.Quantity < 1 {
			return nil, &InvalidOrderError{
				Field:  fmt.Sprintf("items[%d].quantity", i),
				Reason: "must be at least 1",
			}
		}
	}

	copied := make([]Line, len(lines))
	copy(copied, lines)

	return &Order{
		OrderID: orderID,
		Source:  source,
		Lines:   copied,
	}, nil
}

// TotalItems returns the summed quantity of all lines.
func (o *Order) TotalItems() int {
	total := 0
	for _, line := range o.Lines {
		total += line.Quantity
	}
	return total
}

// Quantities returns the item -> quantity mapping for the order.
// Duplicate lines for the same item are summed.
func (o *Order) Quantities() map[catalog.Item]int {
	m := make(map[catalog.Item]int, len(o.Lines))
	for _, line := range o.Lines {
		m[line.Item] += line.Quantity
	}
	return m
}

// EncodePayload serializes the order into the JSON payload carried by
// order QR codes: {"order_id": ..., "source": ..., "items": [...]}.
func EncodePayload(o *Order) ([]byte, error) {
	return json.Marshal(o)
}

// DecodePayload parses a QR payload into a validated Order.
func DecodePayload(data []byte) (*Order, error) {
	var raw struct {
		OrderID string `json:"order_id"`
		Source  string `json:"source"`
		Items   []struct {
			Item     string `json:"item"`
			Quantity int    `json:"quantity"`
		} `json:"items"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode order payload: %w", err)
	}

	lines := make([]Line, 0, len(raw.Items))
	for _, it := range raw.Items {
		lines = append(lines, Line{Item: catalog.Item(it.Item), Quantity: it.Quantity})
	}
	return New(raw.OrderID, Source(raw.Source), lines)
}
