// Package inference detects the order packed in a bag from a photo of
// its contents. Detection is delegated to a vendor vision model behind
// the Provider interface; the validation flow never branches on the
// vendor.
package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/staffmeal/validation-service/internal/catalog"
	"github.com/staffmeal/validation-service/internal/httpx"
	"github.com/staffmeal/validation-service/internal/order"
)

// Provider is the image-to-order capability. Implementations exist per
// vendor and are selected by configuration.
type Provider interface {
	// DetectOrder analyzes the bag image and returns the detected
	// order. The detected order echoes the expected order's id and
	// source. Fails with *UnavailableError on transport/quota errors
	// and *AmbiguousError when no confident detection is possible.
	DetectOrder(ctx context.Context, image []byte, expected *order.Order) (*order.Order, error)

	// ModelVersion returns the vendor model identifier.
	ModelVersion() string
}

// UnavailableError reports a vendor transport or quota failure. The
// caller decides whether to re-prompt for a new photo; the service
// never retries beyond the HTTP client's own backoff.
type UnavailableError struct {
	Provider string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("inference provider %s unavailable: %v", e.Provider, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// AmbiguousError reports a low-confidence or empty detection.
type AmbiguousError struct {
	Reason string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous detection: %s", e.Reason)
}

// Config selects and configures a provider.
type Config struct {
	Provider string       `mapstructure:"provider"`
	Model    string       `mapstructure:"model"`
	APIKey   string       `mapstructure:"api_key"`
	BaseURL  string       `mapstructure:"base_url"`
	HTTP     httpx.Config `mapstructure:"http"`
}

// NewProvider builds the provider named by the configuration.
// Vendor selection happens here and nowhere else.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		return NewGeminiProvider(cfg), nil
	case "openai":
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown inference provider %q", cfg.Provider)
	}
}

// buildPrompt assembles the detection prompt: the closed menu, strict
// box-counting rules and the expected order as context. Counting
// boxes instead of pieces is the single most common failure mode of
// vision models on packaged food.
func buildPrompt(expected *order.Order) string {
	var b strings.Builder

	b.WriteString("You are analyzing a restaurant order bag image to verify that all items are present.\n")
	b.WriteString("Detect all order items visible in the image and identify each item with its exact quantity.\n\n")
	b.WriteString("Available menu items:\n")
	for _, item := range catalog.Items() {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	b.WriteString("\nCRITICAL COUNTING INSTRUCTIONS:\n")
	b.WriteString("- Count BOXES, CONTAINERS, or PACKAGES, NOT individual pieces inside containers\n")
	b.WriteString("- If you see a box containing multiple items, count it as 1 box, not multiple individual items\n")
	b.WriteString("- The item names already indicate the packaging format (e.g., 'Boite de 6 Maki' means boxes of 6)\n")
	b.WriteString("\nImportant instructions:\n")
	b.WriteString("- Use only the exact item names from the list above\n")
	b.WriteString("- Count precisely the quantities of boxes/containers visible in the image\n")
	b.WriteString("- Ignore items that are not in the available items list\n")

	if expected != nil {
		fmt.Fprintf(&b, "\nExpected order (ID: %s, Source: %s):\n", expected.OrderID, expected.Source)
		for _, line := range expected.Lines {
			fmt.Fprintf(&b, "- %dx %s\n", line.Quantity, line.Item)
		}
		b.WriteString("\nVerify that the detected items match this order.\n")
	}

	b.WriteString("\nRespond with JSON only, in the shape ")
	b.WriteString(`{"items":[{"item":"<menu item name>","quantity":<integer>}]}.`)

	return b.String()
}

// detectedLine is the raw model output for one line.
type detectedLine struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// buildDetectedOrder turns raw model output into a validated Order:
// unknown items and non-positive quantities are dropped, duplicate
// lines summed, and the expected order's id and source echoed. An
// empty result after filtering means the detection was too weak to
// compare against and fails as ambiguous.
func buildDetectedOrder(raw []detectedLine, expected *order.Order) (*order.Order, error) {
	merged := make(map[catalog.Item]int)
	var ordering []catalog.Item

	for _, line := range raw {
		item, err := catalog.Parse(strings.TrimSpace(line.Item))
		if err != nil || line.Quantity <= 0 {
			continue
		}
		if _, seen := merged[item]; !seen {
			ordering = append(ordering, item)
		}
		merged[item] += line.Quantity
	}

	if len(merged) == 0 {
		return nil, &AmbiguousError{Reason: "no valid items detected"}
	}

	lines := make([]order.Line, 0, len(merged))
	for _, item := range ordering {
		lines = append(lines, order.Line{Item: item, Quantity: merged[item]})
	}

	detected, err := order.New(expected.OrderID, expected.Source, lines)
	if err != nil {
		return nil, &AmbiguousError{Reason: err.Error()}
	}
	return detected, nil
}
