package workflow

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stewardhq/steward/internal/agent"
	"github.com/stewardhq/steward/internal/autonomy"
	"github.com/stewardhq/steward/internal/dispatch"
	"github.com/stewardhq/steward/internal/genome"
	"github.com/stewardhq/steward/internal/provider"
	"github.com/stewardhq/steward/internal/registry"
	"github.com/stewardhq/steward/internal/store"
)

type textGateway struct {
	mu    sync.Mutex
	goals []string
	fail  bool
}

func (g *textGateway) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	g.mu.Lock()
	if len(req.Messages) > 0 {
		g.goals = append(g.goals, req.Messages[len(req.Messages)-1].Content[0].Text)
	}
	fail := g.fail
	g.mu.Unlock()
	if fail {
		return nil, errors.New("model unavailable")
	}
	return &provider.Response{
		StopReason: provider.StopEndTurn,
		Content:    []provider.ContentBlock{{Type: provider.BlockText, Text: "step handled: " + strings.Repeat("detail ", 100)}},
	}, nil
}

type okDispatcher struct{}

func (okDispatcher) Execute(ctx context.Context, toolName string, params map[string]any, userID string) dispatch.Result {
	return dispatch.Result{Success: true}
}

func newAdvancer(t *testing.T, gw provider.Gateway) (*Advancer, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "steward.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	reg := registry.New()
	gate := autonomy.New(reg, st, genome.New(st.DB(), slog.Default()), okDispatcher{}, slog.Default())
	loop := agent.New(gw, gate, reg, slog.Default(), agent.Options{})
	return NewAdvancer(st, loop, provider.Router{Strong: "strong", Fast: "fast"}, slog.Default()), st
}

func TestAdvanceCompletesStepAndSchedulesNext(t *testing.T) {
	gw := &textGateway{}
	a, st := newAdvancer(t, gw)

	now := time.Now()
	w := NewLeaseRenewal("u1", "p1", "t1", now.Add(-time.Minute))
	if err := st.CreateWorkflow(w); err != nil {
		t.Fatal(err)
	}

	advanced, errs := a.Advance(context.Background(), now, 10)
	if advanced != 1 || len(errs) != 0 {
		t.Fatalf("advanced=%d errs=%v", advanced, errs)
	}

	got, err := st.GetWorkflow(w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentStep != 1 || got.Status != store.WorkflowActive {
		t.Fatalf("unexpected state %+v", got)
	}
	if got.Steps[0].Status != store.StepCompleted {
		t.Fatalf("step 0 should be completed, got %+v", got.Steps[0])
	}
	if len(got.Steps[0].Result) > resultLimit+3 {
		t.Fatalf("step result should be truncated, got %d chars", len(got.Steps[0].Result))
	}
	if got.NextActionAt == nil || got.NextActionAt.Before(now.Add(30*time.Minute)) {
		t.Fatalf("next step should wait a cooldown, got %v", got.NextActionAt)
	}
}

func TestAdvanceCompletesWorkflowOnLastStep(t *testing.T) {
	gw := &textGateway{}
	a, st := newAdvancer(t, gw)

	now := time.Now()
	w := NewComplianceRemediation("u1", "p1", now.Add(-time.Minute))
	if err := st.CreateWorkflow(w); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		fresh, _ := st.GetWorkflow(w.ID)
		if err := a.advanceOne(context.Background(), fresh, now); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	got, _ := st.GetWorkflow(w.ID)
	if got.Status != store.WorkflowCompleted {
		t.Fatalf("expected completed, got %+v", got)
	}
	if got.CurrentStep != got.TotalSteps {
		t.Fatalf("cursor should equal total steps, got %d/%d", got.CurrentStep, got.TotalSteps)
	}
	if got.NextActionAt != nil {
		t.Fatal("completed workflows must not be due again")
	}
}

func TestFailedStepStaysActiveWithLastError(t *testing.T) {
	gw := &textGateway{fail: true}
	a, st := newAdvancer(t, gw)

	now := time.Now()
	w := NewArrearsEscalation("u1", "p1", "t1", now.Add(-time.Minute))
	if err := st.CreateWorkflow(w); err != nil {
		t.Fatal(err)
	}

	advanced, errs := a.Advance(context.Background(), now, 10)
	if advanced != 0 || len(errs) != 1 {
		t.Fatalf("advanced=%d errs=%v", advanced, errs)
	}

	got, _ := st.GetWorkflow(w.ID)
	if got.Status != store.WorkflowActive || got.CurrentStep != 0 {
		t.Fatalf("failed step must not advance, got %+v", got)
	}
	if got.Metadata["last_error"] == nil {
		t.Fatal("expected last_error in metadata")
	}
	if got.NextActionAt == nil || !got.NextActionAt.After(now) {
		t.Fatal("failed step should retry after a cooldown")
	}
}

func TestStepDirectiveCarriesContext(t *testing.T) {
	gw := &textGateway{}
	a, st := newAdvancer(t, gw)

	now := time.Now()
	w := NewLeaseRenewal("u1", "p1", "t1", now.Add(-time.Minute))
	if err := st.CreateWorkflow(w); err != nil {
		t.Fatal(err)
	}
	if _, errs := a.Advance(context.Background(), now, 10); len(errs) != 0 {
		t.Fatal(errs)
	}

	gw.mu.Lock()
	defer gw.mu.Unlock()
	goal := gw.goals[0]
	for _, want := range []string{"lease_renewal", "step 1 of 5", "analyze_market_rent_and_renewal_options", "Property: p1", "Tenancy: t1"} {
		if !strings.Contains(goal, want) {
			t.Fatalf("directive missing %q: %q", want, goal)
		}
	}
}
