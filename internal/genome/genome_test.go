package genome

import (
	"log/slog"
	"math"
	"path/filepath"
	"testing"

	"github.com/stewardhq/steward/internal/store"
)

func newTracker(t *testing.T) *Tracker {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "steward.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s.DB(), slog.Default())
}

func TestConfidenceNeutralWithoutHistory(t *testing.T) {
	tr := newTracker(t)
	if got := tr.Confidence("u1", "create_work_order"); got != 0.6 {
		t.Fatalf("expected neutral 0.6, got %v", got)
	}
}

func TestRecordRunAggregates(t *testing.T) {
	tr := newTracker(t)
	for i := 0; i < 4; i++ {
		if err := tr.RecordRun("u1", "send_rent_reminder", 120, true); err != nil {
			t.Fatal(err)
		}
	}
	if err := tr.RecordRun("u1", "send_rent_reminder", 300, false); err != nil {
		t.Fatal(err)
	}

	stat, err := tr.Stat("u1", "send_rent_reminder")
	if err != nil {
		t.Fatal(err)
	}
	if stat == nil || stat.Runs != 5 || stat.Successes != 4 {
		t.Fatalf("unexpected stat %+v", stat)
	}
	if stat.EMASuccess >= 1.0 {
		t.Fatalf("EMA should reflect the failure, got %v", stat.EMASuccess)
	}
}

func TestConfidenceRewardsReliableTools(t *testing.T) {
	tr := newTracker(t)
	for i := 0; i < 10; i++ {
		if err := tr.RecordRun("u1", "get_property_details", 50, true); err != nil {
			t.Fatal(err)
		}
		if err := tr.RecordRun("u1", "process_refund", 50, i%2 == 0); err != nil {
			t.Fatal(err)
		}
	}

	reliable := tr.Confidence("u1", "get_property_details")
	flaky := tr.Confidence("u1", "process_refund")
	if reliable <= flaky {
		t.Fatalf("reliable tool should outscore flaky one: %v vs %v", reliable, flaky)
	}
	// All-success recent history gives full marks on every component.
	if math.Abs(reliable-1.0) > 0.01 {
		t.Fatalf("expected near 1.0 for a fresh all-success tool, got %v", reliable)
	}
}

func TestConfidenceFailingToolDropsBelowEscalationFloor(t *testing.T) {
	tr := newTracker(t)
	for i := 0; i < 5; i++ {
		if err := tr.RecordRun("u1", "publish_listing", 200, false); err != nil {
			t.Fatal(err)
		}
	}
	if got := tr.Confidence("u1", "publish_listing"); got >= 0.5 {
		t.Fatalf("all-failing tool must score below 0.5, got %v", got)
	}
}

func TestConfidenceIsolatedPerUser(t *testing.T) {
	tr := newTracker(t)
	for i := 0; i < 5; i++ {
		if err := tr.RecordRun("u1", "adjust_rent", 80, false); err != nil {
			t.Fatal(err)
		}
	}
	if got := tr.Confidence("u2", "adjust_rent"); got != 0.6 {
		t.Fatalf("another user's failures must not leak: got %v", got)
	}
}

func TestNilTrackerIsSafe(t *testing.T) {
	var tr *Tracker
	if err := tr.RecordRun("u1", "x", 1, true); err != nil {
		t.Fatal(err)
	}
	if got := tr.Confidence("u1", "x"); got != 0.6 {
		t.Fatalf("nil tracker should score neutral, got %v", got)
	}
}
