package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stewardhq/steward/internal/agent"
	"github.com/stewardhq/steward/internal/autonomy"
	"github.com/stewardhq/steward/internal/dispatch"
	"github.com/stewardhq/steward/internal/events"
	"github.com/stewardhq/steward/internal/genome"
	"github.com/stewardhq/steward/internal/provider"
	"github.com/stewardhq/steward/internal/registry"
	"github.com/stewardhq/steward/internal/review"
	"github.com/stewardhq/steward/internal/store"
	"github.com/stewardhq/steward/internal/trajectory"
	"github.com/stewardhq/steward/internal/workflow"
)

// chatGateway asks for a work order once, then answers with text.
type chatGateway struct{}

func (chatGateway) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	last := req.Messages[len(req.Messages)-1]
	if last.Role == provider.RoleUser && last.Content[0].Type == provider.BlockText &&
		last.Content[0].Text == "get the roof fixed, budget 3000" {
		return &provider.Response{
			StopReason: provider.StopToolUse,
			Content: []provider.ContentBlock{{
				Type: provider.BlockToolUse, ID: "tu_1", Name: "create_work_order",
				Input: map[string]any{"property_id": "p1", "summary": "roof repair", "cost": 3000.0},
			}},
		}, nil
	}
	return &provider.Response{
		StopReason: provider.StopEndTurn,
		Content:    []provider.ContentBlock{{Type: provider.BlockText, Text: "done"}},
	}, nil
}

type alwaysOKDispatcher struct{}

func (alwaysOKDispatcher) Execute(ctx context.Context, toolName string, params map[string]any, userID string) dispatch.Result {
	return dispatch.Result{Success: true, Data: json.RawMessage(`{"ok":true}`)}
}

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "steward.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	log := slog.Default()
	reg := registry.New()
	gate := autonomy.New(reg, st, genome.New(st.DB(), log), alwaysOKDispatcher{}, log)
	loop := agent.New(chatGateway{}, gate, reg, log, agent.Options{})
	router := provider.Router{Strong: "strong", Fast: "fast"}
	rec := trajectory.NewRecorder(st, log)
	processor := events.NewProcessor(st, loop, router, rec, nil, log, 3, time.Minute)
	reviews := review.NewScheduler(st, loop, router, rec, log)
	advancer := workflow.NewAdvancer(st, loop, router, log)

	srv := New(st, loop, gate, router, processor, reviews, advancer, rec, nil, log,
		Config{TokenUsers: map[string]string{"token-1": "u1"}, CronSecret: "cron-1"})
	return srv, st
}

func postJSON(t *testing.T, handler http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestChatRequiresBearerToken(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := postJSON(t, srv.Handler(), "/api/v1/chat", map[string]string{"message": "hi"}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestChatReturnsResponseObject(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := postJSON(t, srv.Handler(), "/api/v1/chat",
		map[string]string{"message": "what's happening with my properties?"},
		map[string]string{"Authorization": "Bearer token-1"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp chatResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Response != "done" || resp.ConversationID == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestChatSurfacesApprovalAndResolveExecutes(t *testing.T) {
	srv, st := newTestServer(t)
	h := srv.Handler()

	// The body names another user; identity still comes from the token.
	rr := postJSON(t, h, "/api/v1/chat",
		map[string]string{"user_id": "intruder", "message": "get the roof fixed, budget 3000"},
		map[string]string{"Authorization": "Bearer token-1"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp chatResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.NeedsApproval {
		t.Fatalf("3000 exceeds the balanced threshold, expected approval hold: %+v", resp)
	}

	actions, err := st.ListPendingActions("u1")
	if err != nil || len(actions) != 1 {
		t.Fatalf("expected one pending action, got %v (err=%v)", actions, err)
	}
	if intruder, _ := st.ListPendingActions("intruder"); len(intruder) != 0 {
		t.Fatalf("body-supplied user must not own the action: %+v", intruder)
	}

	rr = postJSON(t, h, "/api/v1/actions/"+actions[0].ID+"/resolve",
		resolveRequest{Approve: true, ResolvedBy: "landlord"},
		map[string]string{"Authorization": "Bearer token-1"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var rres resolveResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &rres); err != nil {
		t.Fatal(err)
	}
	if rres.Status != store.ActionApproved || !rres.Executed {
		t.Fatalf("unexpected resolve response %+v", rres)
	}

	// Resolution is terminal.
	rr = postJSON(t, h, "/api/v1/actions/"+actions[0].ID+"/resolve",
		resolveRequest{Approve: false, ResolvedBy: "landlord"},
		map[string]string{"Authorization": "Bearer token-1"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("re-resolution should conflict, got %d", rr.Code)
	}
}

func TestOrchestrateRequiresCronSecret(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := postJSON(t, srv.Handler(), "/api/v1/orchestrate", map[string]string{"mode": "instant"}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestOrchestrateInstantDrainsQueue(t *testing.T) {
	srv, st := newTestServer(t)
	if err := st.InsertEvent(&store.Event{Type: "payment_received", UserID: "u1"}); err != nil {
		t.Fatal(err)
	}

	rr := postJSON(t, srv.Handler(), "/api/v1/orchestrate",
		map[string]string{"mode": "instant"},
		map[string]string{"X-Cron-Secret": "cron-1"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp orchestrateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Processed || resp.EventsProcessed != 1 {
		t.Fatalf("unexpected summary %+v", resp)
	}
}

func TestOrchestrateRejectsUnknownMode(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := postJSON(t, srv.Handler(), "/api/v1/orchestrate",
		map[string]string{"mode": "hourly"},
		map[string]string{"X-Cron-Secret": "cron-1"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
