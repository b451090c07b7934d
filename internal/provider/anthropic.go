package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIBase   = "https://api.anthropic.com"
	apiVersion       = "2023-06-01"
	retryBaseBackoff = 500 * time.Millisecond
)

// Client calls the messages API directly over HTTP.
type Client struct {
	apiKey     string
	apiBase    string
	maxRetries int
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient builds a gateway client. maxRetries counts retries after the
// first attempt; 429 and 5xx responses are retried with exponential backoff.
func NewClient(apiKey, apiBase string, timeout time.Duration, maxRetries int, log *slog.Logger) *Client {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 3
	}
	return &Client{
		apiKey:     apiKey,
		apiBase:    strings.TrimSuffix(apiBase, "/"),
		maxRetries: maxRetries,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Complete sends one completion request, retrying rate limits and upstream
// failures.
func (c *Client) Complete(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := retryBaseBackoff << (attempt - 1)
			c.log.Warn("retrying completion", "attempt", attempt, "backoff", backoff, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, retryable, err := c.once(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("completion failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) once(ctx context.Context, body []byte) (*Response, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, true, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, false, fmt.Errorf("parse response: %w", err)
	}
	return &out, false, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
