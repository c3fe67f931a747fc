// Package explain turns a comparison result into a short staff-facing
// explanation via a text-generation model. The core never depends on
// this package; it only promises stable, language-neutral result
// fields for it to consume.
package explain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/staffmeal/validation-service/internal/compare"
	"github.com/staffmeal/validation-service/internal/httpx"
	"github.com/staffmeal/validation-service/internal/order"
)

// Explainer generates a natural-language explanation of a validation
// outcome in the requested language.
type Explainer interface {
	Explain(ctx context.Context, expected, detected *order.Order, result compare.Result, lang language.Tag) (string, error)
}

// DefaultLanguage is the language used when the caller passes the
// undetermined tag. Staff instructions default to French.
var DefaultLanguage = language.French

// Config configures the text-generation backend.
type Config struct {
	Model   string       `mapstructure:"model"`
	APIKey  string       `mapstructure:"api_key"`
	BaseURL string       `mapstructure:"base_url"`
	HTTP    httpx.Config `mapstructure:"http"`
}

// GeminiExplainer generates explanations via the Gemini text API.
type GeminiExplainer struct {
	client  *httpx.Client
	model   string
	apiKey  string
	baseURL string
}

// NewGeminiExplainer creates a Gemini-backed explainer.
func NewGeminiExplainer(cfg Config) *GeminiExplainer {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash-lite"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &GeminiExplainer{
		client:  httpx.NewClient(cfg.HTTP),
		model:   model,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Explain builds the prompt, calls the model and returns the trimmed
// answer. An empty answer is an error, never silently returned.
func (e *GeminiExplainer) Explain(ctx context.Context, expected, detected *order.Order, result compare.Result, lang language.Tag) (string, error) {
	prompt, err := BuildPrompt(expected, detected, result, lang)
	if err != nil {
		return "", err
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{{
			"parts": []map[string]string{{"text": prompt}},
		}},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal explanation request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", e.baseURL, e.model)
	respBody, err := e.client.PostJSON(ctx, url, body, map[string]string{
		"x-goog-api-key": e.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("generate explanation: %w", err)
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("decode explanation response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("explanation model returned no candidates")
	}

	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("explanation model returned an empty answer")
	}
	return text, nil
}

// BuildPrompt renders the explanation prompt for the given comparison.
func BuildPrompt(expected, detected *order.Order, result compare.Result, lang language.Tag) (string, error) {
	if lang == language.Und {
		lang = DefaultLanguage
	}
	langName := display.English.Languages().Name(lang)
	if langName == "" {
		return "", fmt.Errorf("unsupported explanation language %q", lang)
	}

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		return "", fmt.Errorf("marshal expected order: %w", err)
	}
	detectedJSON, err := json.Marshal(detected)
	if err != nil {
		return "", fmt.Errorf("marshal detected order: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal comparison result: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are helping restaurant staff verify delivery orders. ")
	b.WriteString("Compare these two orders and explain (2-3 sentences maximum) what's missing, ")
	b.WriteString("what's wrong, or confirm that the order is complete.\n\n")
	fmt.Fprintf(&b, "Expected order:\n%s\n\n", expectedJSON)
	fmt.Fprintf(&b, "Detected order:\n%s\n\n", detectedJSON)
	fmt.Fprintf(&b, "Comparison result:\n%s\n\n", resultJSON)
	fmt.Fprintf(&b, "Generate the answer in %s. ", langName)
	b.WriteString("Do not use quotes around item names - write them naturally in the text.")

	return b.String(), nil
}
