// Package httpx provides the retrying HTTP client used for calls to
// AI vendor APIs. Retries cover 429 and 5xx responses with exponential
// backoff and jitter; everything else fails immediately.
package httpx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// Config controls retry behavior.
type Config struct {
	MaxRetries       int           `mapstructure:"max_retries"`
	InitialBackoffMs int           `mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int           `mapstructure:"max_backoff_ms"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:       3,
		InitialBackoffMs: 250,
		MaxBackoffMs:     15000,
		Timeout:          60 * time.Second,
	}
}

// RetryError reports that all retry attempts were exhausted.
type RetryError struct {
	URL        string
	Attempts   int
	LastStatus int
	LastErr    error
}

func (e *RetryError) Error() string {
	msg := "request to " + e.URL + " failed after " + strconv.Itoa(e.Attempts) + " attempts"
	if e.LastStatus != 0 {
		msg += " (HTTP " + strconv.Itoa(e.LastStatus) + ")"
	}
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

func (e *RetryError) Unwrap() error {
	return e.LastErr
}

// Client wraps http.Client with retries.
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a client with the given retry configuration.
func NewClient(config Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
}

// PostJSON sends a JSON body and returns the response body on 2xx.
// Headers are applied to every attempt.
func (c *Client) PostJSON(ctx context.Context, url string, body []byte, headers map[string]string) ([]byte, error) {
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff(attempt-1, c.config)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastStatus = resp.StatusCode

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if readErr != nil {
				return nil, fmt.Errorf("read response body: %w", readErr)
			}
			return respBody, nil
		}

		lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(respBody, 200))
		if !retryable(resp.StatusCode) {
			return nil, lastErr
		}
	}

	return nil, &RetryError{
		URL:        url,
		Attempts:   c.config.MaxRetries + 1,
		LastStatus: lastStatus,
		LastErr:    lastErr,
	}
}

// retryable: 429 and 5xx.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// backoff computes the delay before retry attempt n, exponential with
// 0-25% jitter to avoid thundering herd on a throttled vendor.
func backoff(attempt int, cfg Config) time.Duration {
	delay := float64(cfg.InitialBackoffMs) * math.Pow(2, float64(attempt))
	delay = math.Min(delay, float64(cfg.MaxBackoffMs))
	delay += rand.Float64() * 0.25 * delay
	return time.Duration(delay) * time.Millisecond
}

func truncate(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
