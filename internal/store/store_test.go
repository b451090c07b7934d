package store

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "steward.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEventPriorityOrdering(t *testing.T) {
	s := newTestStore(t)

	base := time.Now().Add(-time.Hour)
	insert := func(id, priority string, offset time.Duration) {
		err := s.InsertEvent(&Event{
			ID:        id,
			Type:      "payment_received",
			Priority:  priority,
			UserID:    "u1",
			CreatedAt: base.Add(offset),
		})
		if err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	insert("e-low", PriorityLow, 0)
	insert("e-normal", PriorityNormal, time.Minute)
	insert("e-instant", PriorityInstant, 2*time.Minute)
	insert("e-high", PriorityHigh, 3*time.Minute)
	insert("e-instant-2", PriorityInstant, 4*time.Minute)

	events, err := s.UnprocessedEvents("u1", 10)
	if err != nil {
		t.Fatalf("unprocessed: %v", err)
	}
	got := make([]string, len(events))
	for i, e := range events {
		got[i] = e.ID
	}
	want := []string{"e-instant", "e-instant-2", "e-high", "e-normal", "e-low"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %s want %s (full order: %v)", i, got[i], want[i], got)
		}
	}
}

func TestMarkEventProcessedIsSingleShot(t *testing.T) {
	s := newTestStore(t)
	e := &Event{Type: "lease_expiring", UserID: "u1"}
	if err := s.InsertEvent(e); err != nil {
		t.Fatal(err)
	}

	if err := s.MarkEventProcessed(e.ID, ""); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if err := s.MarkEventProcessed(e.ID, ""); err == nil {
		t.Fatal("second mark should fail: events are processed exactly once")
	}

	got, err := s.GetEvent(e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Processed {
		t.Fatal("event should be processed")
	}
}

func TestMarkEventProcessedStoresError(t *testing.T) {
	s := newTestStore(t)
	e := &Event{Type: "payment_failed", UserID: "u1"}
	if err := s.InsertEvent(e); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkEventProcessed(e.ID, "upstream timeout"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetEvent(e.ID)
	if got.ErrorText != "upstream timeout" {
		t.Fatalf("expected error text preserved, got %q", got.ErrorText)
	}
}

func TestPendingActionLifecycle(t *testing.T) {
	s := newTestStore(t)
	a := &PendingAction{
		UserID:         "u1",
		ToolName:       "create_work_order",
		ToolParams:     `{"cost":1200}`,
		RequiredLevel:  3,
		Recommendation: "Approve to schedule the plumber.",
	}
	if err := s.CreatePendingAction(a); err != nil {
		t.Fatal(err)
	}

	pending, err := s.ListPendingActions("u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Status != ActionPending {
		t.Fatalf("expected one pending action, got %+v", pending)
	}

	if err := s.ResolvePendingAction(a.ID, ActionApproved, "landlord-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := s.ResolvePendingAction(a.ID, ActionRejected, "landlord-1"); err == nil {
		t.Fatal("resolution must be terminal")
	}

	got, _ := s.GetPendingAction(a.ID)
	if got.Status != ActionApproved || got.ResolvedBy != "landlord-1" || got.ResolvedAt == nil {
		t.Fatalf("unexpected resolved state: %+v", got)
	}
}

func TestGoldenTrajectorySingleton(t *testing.T) {
	s := newTestStore(t)
	mk := func(id string, score float64, golden bool) {
		err := s.InsertTrajectory(&Trajectory{
			ID:              id,
			UserID:          "u1",
			IntentHash:      "abc123",
			Success:         true,
			EfficiencyScore: score,
			ToolCount:       2,
			IsGolden:        golden,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	mk("t1", 0.7, true)
	mk("t2", 0.9, false)

	if err := s.PromoteGolden("u1", "abc123", "t2"); err != nil {
		t.Fatalf("promote: %v", err)
	}

	n, err := s.CountGolden("u1", "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("exactly one golden trajectory expected, got %d", n)
	}
	golden, _ := s.GoldenTrajectory("u1", "abc123")
	if golden == nil || golden.ID != "t2" {
		t.Fatalf("expected t2 golden, got %+v", golden)
	}
}

func TestWorkflowStepCursorNeverRegresses(t *testing.T) {
	s := newTestStore(t)
	w := &Workflow{
		UserID:       "u1",
		PropertyID:   "p1",
		WorkflowType: "lease_renewal",
		Steps: []WorkflowStep{
			{Name: "analyze_market_rent", Status: StepPending},
			{Name: "draft_renewal_offer", Status: StepPending},
		},
	}
	if err := s.CreateWorkflow(w); err != nil {
		t.Fatal(err)
	}
	if w.Status != WorkflowActive || w.CurrentStep != 0 || w.TotalSteps != 2 {
		t.Fatalf("unexpected initial state: %+v", w)
	}

	w.CurrentStep = 1
	w.Steps[0].Status = StepCompleted
	if err := s.SaveWorkflowProgress(w); err != nil {
		t.Fatalf("advance: %v", err)
	}

	// A stale writer holding an older cursor must not regress the workflow.
	stale := *w
	stale.CurrentStep = 0
	if err := s.SaveWorkflowProgress(&stale); err == nil {
		t.Fatal("expected regression to be rejected")
	}

	got, _ := s.GetWorkflow(w.ID)
	if got.CurrentStep != 1 {
		t.Fatalf("cursor should remain 1, got %d", got.CurrentStep)
	}
}

func TestDueWorkflowsSelection(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	due := &Workflow{UserID: "u1", WorkflowType: "arrears_escalation",
		Steps: []WorkflowStep{{Name: "send_reminder", Status: StepPending}}, NextActionAt: &past}
	notDue := &Workflow{UserID: "u1", WorkflowType: "lease_renewal",
		Steps: []WorkflowStep{{Name: "analyze", Status: StepPending}}, NextActionAt: &future}
	if err := s.CreateWorkflow(due); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateWorkflow(notDue); err != nil {
		t.Fatal(err)
	}

	got, err := s.DueWorkflows(now, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != due.ID {
		t.Fatalf("expected only the due workflow, got %+v", got)
	}
}

func TestAutonomySettingsDefaultsToBalanced(t *testing.T) {
	s := newTestStore(t)
	a, err := s.GetAutonomySettings("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if a.Preset != "balanced" || len(a.CategoryOverrides) != 0 {
		t.Fatalf("expected balanced default, got %+v", a)
	}

	a.Preset = "hands_off"
	a.CategoryOverrides = map[string]int{"financial": 1}
	if err := s.UpsertAutonomySettings(a); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetAutonomySettings("nobody")
	if got.Preset != "hands_off" || got.CategoryOverrides["financial"] != 1 {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
}

func TestDecisionLogIsAppendOnly(t *testing.T) {
	s := newTestStore(t)
	d := &Decision{
		UserID:          "u1",
		DecisionType:    DecisionToolExecution,
		ToolName:        "send_rent_reminder",
		AutonomyLevel:   2,
		WasAutoExecuted: true,
		DurationMs:      42,
		Reasoning:       "within granted level",
	}
	if err := s.LogDecision(d); err != nil {
		t.Fatal(err)
	}
	n, err := s.CountDecisions("u1", DecisionToolExecution, "send_rent_reminder")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 decision, got %d", n)
	}
}
