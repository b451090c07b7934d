package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestApprovalNeededPostsWebhook(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL, slog.Default())
	n.ApprovalNeeded(context.Background(), "u1", "create_work_order", "cost above threshold", "pa-1")

	var msg struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		t.Fatalf("decode webhook payload: %v (%s)", err, body)
	}
	if !strings.Contains(msg.Text, "create_work_order") || !strings.Contains(msg.Text, "pa-1") {
		t.Fatalf("unexpected text %q", msg.Text)
	}
}

func TestNilNotifierIsSafe(t *testing.T) {
	n := New("", slog.Default())
	if n != nil {
		t.Fatal("empty webhook should disable the notifier")
	}
	n.RunSummary(context.Background(), 1, 2, 3, 0)
	n.Emergency(context.Background(), "u1", "p1", "flood")
}
