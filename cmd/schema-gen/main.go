// Schema Generator
//
// Generates JSON Schema files from Go types for use in the kitchen
// tablet frontend's Zod schema generation. Go is the source of truth
// for shared API types between services.
//
// Usage:
//
//	go run cmd/schema-gen/main.go
//
// Output:
//
//	../../shared/schemas/orders.json
//	../../shared/schemas/validations.json
//	../../shared/schemas/stats.json
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/staffmeal/validation-service/internal/compare"
	"github.com/staffmeal/validation-service/internal/handlers"
	"github.com/staffmeal/validation-service/internal/order"
	"github.com/staffmeal/validation-service/internal/record"
	"github.com/staffmeal/validation-service/internal/stats"
)

// SchemaGroup represents a group of related schemas
type SchemaGroup struct {
	Name   string
	Types  []any
	Output string
}

func main() {
	// Output directory (relative to services/validation-service)
	outputDir := "../../shared/schemas"

	// Ensure output directory exists
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	// Define schema groups
	groups := []SchemaGroup{
		{
			Name: "orders",
			Types: []any{
				// Core order model
				order.Line{},
				order.Order{},
				// QR payload round-trip
				handlers.PayloadLine{},
				handlers.EncodePayloadRequest{},
				handlers.EncodePayloadResponse{},
				handlers.DecodePayloadRequest{},
			},
			Output: "orders.json",
		},
		{
			Name: "validations",
			Types: []any{
				// Comparison result
				compare.ItemDelta{},
				compare.Result{},
				// Persisted record
				record.ValidationRecord{},
				// Request/response types
				handlers.ListRecordsRequest{},
				handlers.ListRecordsResponse{},
				handlers.ExplanationRequest{},
				handlers.ExplanationResponse{},
			},
			Output: "validations.json",
		},
		{
			Name: "stats",
			Types: []any{
				// Request types
				handlers.StatsRequest{},
				// Response types
				stats.Breakdown{},
				stats.Statistics{},
				stats.Alert{},
				handlers.StatsResponse{},
				handlers.AlertsResponse{},
			},
			Output: "stats.json",
		},
	}

	// Generate schemas for each group
	for _, group := range groups {
		schema := generateGroupSchema(group)
		outputPath := filepath.Join(outputDir, group.Output)

		if err := writeSchema(schema, outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", group.Output, err)
			os.Exit(1)
		}

		fmt.Printf("Generated %s\n", outputPath)
	}

	fmt.Println("Schema generation complete!")
}

// generateGroupSchema creates a combined schema with all types in a group
func generateGroupSchema(group SchemaGroup) map[string]any {
	reflector := &jsonschema.Reflector{
		DoNotReference: false,
		ExpandedStruct: false,
	}

	// Create combined definitions
	definitions := make(map[string]any)

	for _, t := range group.Types {
		schema := reflector.Reflect(t)

		// Get the type name from the schema
		typeName := ""
		if schema.Ref != "" {
			// Extract type name from $ref like "#/$defs/ItemDelta"
			typeName = filepath.Base(schema.Ref)
		}

		// Add all definitions from this type's schema
		for name, def := range schema.Definitions {
			definitions[name] = def
		}

		// If there's a main type, add it to definitions too
		if typeName != "" && schema.Definitions[typeName] != nil {
			definitions[typeName] = schema.Definitions[typeName]
		}
	}

	return map[string]any{
		"$schema":     "https://json-schema.org/draft/2020-12/schema",
		"$id":         fmt.Sprintf("https://staffmeal.app/schemas/%s.json", group.Name),
		"title":       fmt.Sprintf("%s API Types", capitalize(group.Name)),
		"description": fmt.Sprintf("JSON Schema for %s API types generated from Go structs", group.Name),
		"$defs":       definitions,
	}
}

// writeSchema writes a schema to a JSON file
func writeSchema(schema map[string]any, path string) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
