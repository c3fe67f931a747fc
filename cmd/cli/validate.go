package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/staffmeal/validation-service/internal/compare"
	"github.com/staffmeal/validation-service/internal/order"
)

var validateJSON bool

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <expected.json> <detected.json>",
	Short: "Compare a detected bag against an expected order",
	Long: `Compare two order files offline, without touching the database or any
AI provider. Both files hold an order as JSON ({"order_id", "source",
"items": [{"item", "quantity"}]}). Prints the discrepancy report and
exits non-zero when the bag is incomplete.`,
	Example: `  validation-service validate expected.json detected.json
  validation-service validate expected.json detected.json --json`,
	Args: cobra.ExactArgs(2),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print the raw comparison result as JSON")
}

func runValidate(cmd *cobra.Command, args []string) error {
	expected, err := loadOrderFile(args[0])
	if err != nil {
		return fmt.Errorf("expected order: %w", err)
	}
	detected, err := loadOrderFile(args[1])
	if err != nil {
		return fmt.Errorf("detected order: %w", err)
	}

	if expected.OrderID != detected.OrderID {
		logger.Warn().
			Str("expected_id", expected.OrderID).
			Str("detected_id", detected.OrderID).
			Msg("Order IDs differ; comparing anyway")
	}

	result := compare.Compare(expected, detected)

	if validateJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		displayComparison(expected, result)
	}

	if !result.IsComplete {
		return fmt.Errorf("bag is incomplete: %d item(s) missing", len(result.MissingItems))
	}
	return nil
}

func loadOrderFile(path string) (*order.Order, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw order.Order
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid order JSON: %w", err)
	}

	// Re-run the constructor so file input gets the same validation as
	// API input.
	return order.New(raw.OrderID, raw.Source, raw.Lines)
}

func displayComparison(expected *order.Order, result compare.Result) {
	status := "COMPLETE"
	if !result.IsComplete {
		status = "INCOMPLETE"
	}
	fmt.Printf("Order %s (%s): %s\n\n", expected.OrderID, expected.Source, status)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KIND\tITEM\tEXPECTED\tDETECTED")
	fmt.Fprintln(w, "----\t----\t--------\t--------")

	for _, d := range result.MissingItems {
		fmt.Fprintf(w, "missing\t%s\t%d\t%d\n", d.Item, d.ExpectedQuantity, d.DetectedQuantity)
	}
	for _, d := range result.ExtraItems {
		fmt.Fprintf(w, "extra\t%s\t%d\t%d\n", d.Item, d.ExpectedQuantity, d.DetectedQuantity)
	}
	for _, item := range result.MatchedItems {
		fmt.Fprintf(w, "matched\t%s\t-\t-\n", item)
	}

	w.Flush()
}
