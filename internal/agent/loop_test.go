package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stewardhq/steward/internal/autonomy"
	"github.com/stewardhq/steward/internal/dispatch"
	"github.com/stewardhq/steward/internal/genome"
	"github.com/stewardhq/steward/internal/provider"
	"github.com/stewardhq/steward/internal/registry"
	"github.com/stewardhq/steward/internal/store"
)

// scriptedGateway returns canned responses in order, then end_turn.
type scriptedGateway struct {
	mu        sync.Mutex
	responses []*provider.Response
	requests  []*provider.Request
}

func (s *scriptedGateway) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return &provider.Response{
			StopReason: provider.StopEndTurn,
			Content:    []provider.ContentBlock{{Type: provider.BlockText, Text: "all done"}},
		}, nil
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

type countingDispatcher struct {
	mu    sync.Mutex
	calls []string
}

func (c *countingDispatcher) Execute(ctx context.Context, toolName string, params map[string]any, userID string) dispatch.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, toolName)
	return dispatch.Result{Success: true, Data: json.RawMessage(`{"ok":true}`), DurationMs: 2}
}

func toolUseResponse(uses ...provider.ContentBlock) *provider.Response {
	return &provider.Response{StopReason: provider.StopToolUse, Content: uses}
}

func newLoop(t *testing.T, gw provider.Gateway, opts Options) (*Loop, *countingDispatcher, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "steward.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cd := &countingDispatcher{}
	reg := registry.New()
	gate := autonomy.New(reg, st, genome.New(st.DB(), slog.Default()), cd, slog.Default())
	return New(gw, gate, reg, slog.Default(), opts), cd, st
}

func TestLoopStopsWhenModelStopsRequestingTools(t *testing.T) {
	gw := &scriptedGateway{responses: []*provider.Response{
		toolUseResponse(provider.ContentBlock{
			Type: provider.BlockToolUse, ID: "tu_1", Name: "get_property_details",
			Input: map[string]any{"property_id": "p1"},
		}),
	}}
	loop, cd, _ := newLoop(t, gw, Options{})

	res, err := loop.Run(context.Background(), Input{UserID: "u1", Goal: "tell me about p1"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Response != "all done" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Iterations != 2 {
		t.Fatalf("expected 2 iterations, got %d", res.Iterations)
	}
	if len(cd.calls) != 1 || cd.calls[0] != "get_property_details" {
		t.Fatalf("unexpected dispatches %v", cd.calls)
	}
	if len(res.ToolCalls) != 1 || !res.ToolCalls[0].Success {
		t.Fatalf("unexpected tool records %+v", res.ToolCalls)
	}
}

func TestLoopDispatchesBatchConcurrently(t *testing.T) {
	uses := []provider.ContentBlock{
		{Type: provider.BlockToolUse, ID: "tu_1", Name: "get_property_details", Input: map[string]any{"property_id": "p1"}},
		{Type: provider.BlockToolUse, ID: "tu_2", Name: "get_arrears_summary", Input: map[string]any{"property_id": "p1"}},
		{Type: provider.BlockToolUse, ID: "tu_3", Name: "get_compliance_status", Input: map[string]any{"property_id": "p1"}},
	}
	gw := &scriptedGateway{responses: []*provider.Response{toolUseResponse(uses...)}}
	loop, cd, _ := newLoop(t, gw, Options{})

	res, err := loop.Run(context.Background(), Input{UserID: "u1", Goal: "full status for p1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(cd.calls) != 3 {
		t.Fatalf("expected 3 dispatches, got %v", cd.calls)
	}

	// The transcript turn following the assistant message must carry all
	// three results in request order.
	last := gw.requests[len(gw.requests)-1]
	results := last.Messages[len(last.Messages)-1]
	if len(results.Content) != 3 {
		t.Fatalf("expected 3 tool results in one turn, got %d", len(results.Content))
	}
	for i, id := range []string{"tu_1", "tu_2", "tu_3"} {
		if results.Content[i].ToolUseID != id {
			t.Fatalf("result %d out of order: %+v", i, results.Content[i])
		}
	}
	_ = res
}

func TestLoopExhaustionReturnsFallback(t *testing.T) {
	// The model asks for the same tool forever.
	var responses []*provider.Response
	for i := 0; i < 20; i++ {
		responses = append(responses, toolUseResponse(provider.ContentBlock{
			Type: provider.BlockToolUse, ID: "tu", Name: "get_property_details",
			Input: map[string]any{"property_id": "p1"},
		}))
	}
	gw := &scriptedGateway{responses: responses}
	loop, _, _ := newLoop(t, gw, Options{MaxIterations: 4})

	res, err := loop.Run(context.Background(), Input{UserID: "u1", Goal: "loop forever"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("exhaustion is reported as non-success")
	}
	if res.Iterations != 4 {
		t.Fatalf("expected 4 iterations, got %d", res.Iterations)
	}
	if !strings.Contains(res.Response, "complexity") {
		t.Fatalf("expected apologetic fallback, got %q", res.Response)
	}
}

func TestLoopSurfacesDeferralToModel(t *testing.T) {
	gw := &scriptedGateway{responses: []*provider.Response{
		toolUseResponse(provider.ContentBlock{
			Type: provider.BlockToolUse, ID: "tu_1", Name: "create_work_order",
			Input: map[string]any{"property_id": "p1", "summary": "new roof", "cost": 9000.0},
		}),
	}}
	loop, cd, st := newLoop(t, gw, Options{})

	res, err := loop.Run(context.Background(), Input{UserID: "u1", Goal: "get the roof replaced"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.NeedsApproval {
		t.Fatalf("deferral should surface on the result, got %+v", res)
	}
	if len(cd.calls) != 0 {
		t.Fatal("deferred call must not reach the dispatcher")
	}
	pending, _ := st.ListPendingActions("u1")
	if len(pending) != 1 {
		t.Fatalf("expected one pending action, got %+v", pending)
	}

	// The model saw a needs_approval tool result, not an exception.
	last := gw.requests[len(gw.requests)-1]
	block := last.Messages[len(last.Messages)-1].Content[0]
	if !block.IsError || !strings.Contains(block.Content, "needs_approval") {
		t.Fatalf("unexpected tool result %+v", block)
	}
}

func TestCompactKeepsTranscriptUnderBudget(t *testing.T) {
	loop, _, _ := newLoop(t, &scriptedGateway{}, Options{ContextBudget: 100})

	long := strings.Repeat("arrears history detail ", 40)
	messages := []provider.Message{
		provider.TextMessage(provider.RoleUser, long),
		provider.TextMessage(provider.RoleAssistant, long),
		provider.TextMessage(provider.RoleUser, long),
		provider.TextMessage(provider.RoleAssistant, long),
		provider.TextMessage(provider.RoleUser, "latest question"),
	}
	got := loop.compact("system prompt", messages)
	if estimateTokens(got) > 100 {
		t.Fatalf("still over budget: %d tokens", estimateTokens(got))
	}
	lastMsg := got[len(got)-1]
	if lastMsg.Content[0].Text != "latest question" {
		t.Fatal("newest turn must survive compaction")
	}
	if !strings.Contains(got[0].Content[0].Text, "compacted") {
		t.Fatalf("expected a compaction stub first, got %+v", got[0])
	}
}

func TestCompactNeverOrphansToolResults(t *testing.T) {
	loop, _, _ := newLoop(t, &scriptedGateway{}, Options{ContextBudget: 100})

	long := strings.Repeat("inspection report detail ", 40)
	messages := []provider.Message{
		provider.TextMessage(provider.RoleUser, long),
		{Role: provider.RoleAssistant, Content: []provider.ContentBlock{
			{Type: provider.BlockToolUse, ID: "tu_1", Name: "get_property_details", Input: map[string]any{"property_id": "p1"}},
		}},
		{Role: provider.RoleUser, Content: []provider.ContentBlock{
			{Type: provider.BlockToolResult, ToolUseID: "tu_1", Content: long},
		}},
		provider.TextMessage(provider.RoleAssistant, long),
		provider.TextMessage(provider.RoleUser, "latest question"),
	}
	got := loop.compact("system prompt", messages)
	if estimateTokens(got) > 100 {
		t.Fatalf("still over budget: %d tokens", estimateTokens(got))
	}

	// Every surviving tool_result must be preceded by its tool_use; a cut
	// between the two produces a transcript the messages API rejects.
	seen := map[string]bool{}
	for _, m := range got {
		for _, b := range m.Content {
			switch b.Type {
			case provider.BlockToolUse:
				seen[b.ID] = true
			case provider.BlockToolResult:
				if !seen[b.ToolUseID] {
					t.Fatalf("tool_result %q survived without its tool_use", b.ToolUseID)
				}
			}
		}
	}
	if got[len(got)-1].Content[0].Text != "latest question" {
		t.Fatal("newest turn must survive compaction")
	}
}
