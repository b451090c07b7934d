// Package dispatch executes catalog tools against the property-management
// backend. The agent never touches the backend directly; everything flows
// through a Dispatcher so governance and audit wrap every side effect.
package dispatch

import (
	"context"
	"encoding/json"
	"time"
)

// Result is the outcome of one tool execution.
type Result struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMs int64           `json:"duration_ms"`
}

// Dispatcher executes a named tool with JSON parameters on behalf of a user.
type Dispatcher interface {
	Execute(ctx context.Context, toolName string, params map[string]any, userID string) Result
}

// Failed builds a failed result without touching the backend. Used for
// unknown tool names and gate rejections.
func Failed(msg string) Result {
	return Result{Success: false, Error: msg}
}

// Succeeded builds a successful result from an already encoded payload.
func Succeeded(data json.RawMessage, took time.Duration) Result {
	return Result{Success: true, Data: data, DurationMs: took.Milliseconds()}
}
