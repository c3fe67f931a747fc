package inference

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/staffmeal/validation-service/internal/httpx"
	"github.com/staffmeal/validation-service/internal/order"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.5-flash-lite"
)

// GeminiProvider detects orders via the Gemini generateContent API.
type GeminiProvider struct {
	client  *httpx.Client
	model   string
	apiKey  string
	baseURL string
}

// NewGeminiProvider creates a Gemini-backed provider.
func NewGeminiProvider(cfg Config) *GeminiProvider {
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiProvider{
		client:  httpx.NewClient(cfg.HTTP),
		model:   model,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ModelVersion returns the configured Gemini model identifier.
func (p *GeminiProvider) ModelVersion() string {
	return p.model
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"response_mime_type"`
	Temperature      int    `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// DetectOrder sends the bag image and prompt to Gemini and parses the
// JSON item list from the first candidate.
func (p *GeminiProvider) DetectOrder(ctx context.Context, image []byte, expected *order.Order) (*order.Order, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: buildPrompt(expected)},
				{InlineData: &geminiInlineData{
					MimeType: "image/png",
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			Temperature:      0,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)
	respBody, err := p.client.PostJSON(ctx, url, body, map[string]string{
		"x-goog-api-key": p.apiKey,
	})
	if err != nil {
		return nil, &UnavailableError{Provider: "gemini", Err: err}
	}

	var resp geminiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, &UnavailableError{Provider: "gemini", Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &AmbiguousError{Reason: "model returned no candidates"}
	}

	return parseDetection(resp.Candidates[0].Content.Parts[0].Text, expected)
}

// parseDetection parses the model's JSON answer into a detected order.
// Both a bare array and an {"items": [...]} wrapper are accepted.
func parseDetection(text string, expected *order.Order) (*order.Order, error) {
	text = strings.TrimSpace(text)

	var wrapper struct {
		Items []detectedLine `json:"items"`
	}
	if err := json.Unmarshal([]byte(text), &wrapper); err == nil && len(wrapper.Items) > 0 {
		return buildDetectedOrder(wrapper.Items, expected)
	}

	var bare []detectedLine
	if err := json.Unmarshal([]byte(text), &bare); err == nil {
		return buildDetectedOrder(bare, expected)
	}

	return nil, &AmbiguousError{Reason: "model answer is not a JSON item list"}
}
