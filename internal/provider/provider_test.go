package provider

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func messagesResponse(t *testing.T, w http.ResponseWriter, resp Response) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestCompleteParsesToolUse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "key-1" || r.Header.Get("anthropic-version") == "" {
			t.Error("missing auth headers")
		}
		messagesResponse(t, w, Response{
			StopReason: StopToolUse,
			Content: []ContentBlock{
				{Type: BlockText, Text: "Checking the tenancy."},
				{Type: BlockToolUse, ID: "tu_1", Name: "get_tenancy_details", Input: map[string]any{"tenancy_id": "t-1"}},
			},
			Usage: Usage{InputTokens: 120, OutputTokens: 40},
		})
	}))
	defer srv.Close()

	c := NewClient("key-1", srv.URL, 5*time.Second, 3, slog.Default())
	resp, err := c.Complete(context.Background(), &Request{
		Model:     "claude-3-5-haiku-20241022",
		Messages:  []Message{TextMessage(RoleUser, "how much rent is owed on t-1?")},
		MaxTokens: 1024,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StopReason != StopToolUse {
		t.Fatalf("expected tool_use stop, got %s", resp.StopReason)
	}
	uses := resp.ToolUses()
	if len(uses) != 1 || uses[0].Name != "get_tenancy_details" {
		t.Fatalf("unexpected tool uses %+v", uses)
	}
	if resp.Text() != "Checking the tenancy." {
		t.Fatalf("unexpected text %q", resp.Text())
	}
}

func TestCompleteRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		messagesResponse(t, w, Response{
			StopReason: StopEndTurn,
			Content:    []ContentBlock{{Type: BlockText, Text: "done"}},
		})
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL, 5*time.Second, 3, slog.Default())
	resp, err := c.Complete(context.Background(), &Request{Model: "m", MaxTokens: 64})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text() != "done" {
		t.Fatalf("unexpected text %q", resp.Text())
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestCompleteDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL, 5*time.Second, 3, slog.Default())
	if _, err := c.Complete(context.Background(), &Request{Model: "m", MaxTokens: 64}); err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("4xx must not retry, got %d attempts", got)
	}
}

func TestRouterPick(t *testing.T) {
	r := Router{Strong: "strong", Fast: "fast"}

	cases := []struct {
		message string
		turn    int
		want    string
	}{
		{"what's the rent on 12 Oak St?", 0, "fast"},
		{"who is the tenant at unit 4?", 1, "fast"},
		{"send the tenant a rent reminder", 0, "strong"},
		{"approve the plumbing quote", 1, "strong"},
		{"what's the rent?", 5, "strong"},
	}
	for _, tc := range cases {
		if got := r.Pick(tc.message, tc.turn); got != tc.want {
			t.Errorf("Pick(%q, %d) = %s, want %s", tc.message, tc.turn, got, tc.want)
		}
	}

	if got := r.PickForEvent("maintenance_emergency"); got != "strong" {
		t.Errorf("emergency events need the strong model, got %s", got)
	}
	if got := r.PickForEvent("payment_received"); got != "fast" {
		t.Errorf("routine events use the fast model, got %s", got)
	}
}
