package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPDispatcher executes tools by POSTing to the backend's tool endpoint.
type HTTPDispatcher struct {
	baseURL string
	token   string
	client  *http.Client
	log     *slog.Logger
}

// NewHTTP builds a dispatcher against the backend API.
func NewHTTP(baseURL, token string, timeout time.Duration, log *slog.Logger) *HTTPDispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPDispatcher{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type executeRequest struct {
	UserID string         `json:"user_id"`
	Params map[string]any `json:"params"`
}

type executeResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Execute runs one tool call. Transport and backend failures come back as a
// failed Result rather than an error so the agent loop can feed them to the
// model as a tool result.
func (d *HTTPDispatcher) Execute(ctx context.Context, toolName string, params map[string]any, userID string) Result {
	start := time.Now()
	body, err := json.Marshal(executeRequest{UserID: userID, Params: params})
	if err != nil {
		return Failed(fmt.Sprintf("encode params: %v", err))
	}

	url := fmt.Sprintf("%s/tools/%s", d.baseURL, toolName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Failed(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.log.Warn("tool dispatch failed", "tool", toolName, "error", err)
		return Result{Success: false, Error: fmt.Sprintf("dispatch %s: %v", toolName, err), DurationMs: time.Since(start).Milliseconds()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("read response: %v", err), DurationMs: time.Since(start).Milliseconds()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.log.Warn("tool dispatch rejected", "tool", toolName, "status", resp.StatusCode)
		return Result{Success: false, Error: fmt.Sprintf("%s returned HTTP %d", toolName, resp.StatusCode), DurationMs: time.Since(start).Milliseconds()}
	}

	var out executeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{Success: false, Error: fmt.Sprintf("decode response: %v", err), DurationMs: time.Since(start).Milliseconds()}
	}
	return Result{Success: out.Success, Data: out.Data, Error: out.Error, DurationMs: time.Since(start).Milliseconds()}
}
