package trajectory

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stewardhq/steward/internal/agent"
	"github.com/stewardhq/steward/internal/store"
)

func newRecorder(t *testing.T) (*Recorder, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "steward.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewRecorder(st, slog.Default()), st
}

func TestIntentHashNormalizes(t *testing.T) {
	a := IntentHash("Chase the  ARREARS on unit 4", []string{"get_arrears_summary", "send_rent_reminder"})
	b := IntentHash("chase the arrears on unit 4", []string{"send_rent_reminder", "get_arrears_summary", "send_rent_reminder"})
	if a != b {
		t.Fatal("case, spacing and tool order must not change the hash")
	}
	c := IntentHash("chase the arrears on unit 4", []string{"get_arrears_summary"})
	if a == c {
		t.Fatal("a different tool set is a different intent")
	}
}

func TestEfficiencyBuckets(t *testing.T) {
	cases := map[int]float64{1: 1.0, 2: 1.0, 3: 0.85, 4: 0.85, 5: 0.7, 6: 0.7, 7: 0.5, 12: 0.5}
	for iters, want := range cases {
		if got := EfficiencyScore(iters); got != want {
			t.Errorf("EfficiencyScore(%d) = %v, want %v", iters, got, want)
		}
	}
}

func result(iterations int, success bool, tools ...string) *agent.Result {
	res := &agent.Result{Iterations: iterations, Success: success, DurationMs: 100}
	for _, name := range tools {
		res.ToolCalls = append(res.ToolCalls, agent.ToolCallRecord{Name: name, Success: true})
	}
	return res
}

func TestFirstSuccessBecomesGolden(t *testing.T) {
	r, st := newRecorder(t)
	goal := "chase arrears on unit 4"
	tools := []string{"get_arrears_summary", "send_rent_reminder"}

	r.Record("u1", "c1", 0, goal, "arrears_chase", result(5, true, tools...))

	golden, err := st.GoldenTrajectory("u1", IntentHash(goal, tools))
	if err != nil {
		t.Fatal(err)
	}
	if golden == nil || golden.EfficiencyScore != 0.7 {
		t.Fatalf("first success should be golden, got %+v", golden)
	}
}

func TestBetterRunDisplacesGolden(t *testing.T) {
	r, st := newRecorder(t)
	goal := "chase arrears on unit 4"
	tools := []string{"get_arrears_summary", "send_rent_reminder"}
	hash := IntentHash(goal, tools)

	r.Record("u1", "c1", 0, goal, "", result(6, true, tools...))
	r.Record("u1", "c2", 0, goal, "", result(2, true, tools...))

	golden, _ := st.GoldenTrajectory("u1", hash)
	if golden == nil || golden.EfficiencyScore != 1.0 {
		t.Fatalf("the 2-iteration run should displace the 6-iteration golden, got %+v", golden)
	}
	if n, _ := st.CountGolden("u1", hash); n != 1 {
		t.Fatalf("golden must stay a singleton, got %d", n)
	}
}

func TestWorseOrFailedRunsNeverPromote(t *testing.T) {
	r, st := newRecorder(t)
	goal := "renew the lease at 12 oak st"
	tools := []string{"analyze_renewal_options", "draft_lease_renewal"}
	hash := IntentHash(goal, tools)

	r.Record("u1", "c1", 0, goal, "", result(2, true, tools...))
	first, _ := st.GoldenTrajectory("u1", hash)

	r.Record("u1", "c2", 0, goal, "", result(6, true, tools...))
	r.Record("u1", "c3", 0, goal, "", result(1, false, tools...))

	golden, _ := st.GoldenTrajectory("u1", hash)
	if golden == nil || golden.ID != first.ID {
		t.Fatalf("golden should be unchanged, got %+v", golden)
	}
}

func TestGoldenHint(t *testing.T) {
	r, _ := newRecorder(t)
	goal := "chase arrears on unit 4"
	tools := []string{"get_arrears_summary", "send_rent_reminder"}

	if hint := r.GoldenHint("u1", goal, tools); hint != "" {
		t.Fatalf("no golden yet, expected empty hint, got %q", hint)
	}

	r.Record("u1", "c1", 0, goal, "", result(2, true, tools...))
	hint := r.GoldenHint("u1", goal, tools)
	if !strings.Contains(hint, "get_arrears_summary, send_rent_reminder") {
		t.Fatalf("hint should list the golden tool path, got %q", hint)
	}
}
