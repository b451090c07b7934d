// Package trajectory records how each agentic turn went and promotes the
// best path per intent as the "golden" trajectory. Future turns with the same
// intent can be primed with the known-good tool sequence.
package trajectory

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"github.com/stewardhq/steward/internal/agent"
	"github.com/stewardhq/steward/internal/store"
)

// Recorder persists trajectories and maintains the golden flag.
type Recorder struct {
	st  *store.Store
	log *slog.Logger
}

// NewRecorder builds a recorder over the shared store.
func NewRecorder(st *store.Store, log *slog.Logger) *Recorder {
	return &Recorder{st: st, log: log}
}

// IntentHash fingerprints what a turn tried to do: the normalized goal plus
// the sorted set of tools it touched. Two turns with the same hash solved
// the same problem.
func IntentHash(goal string, toolNames []string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(goal)), " ")

	unique := map[string]bool{}
	for _, n := range toolNames {
		unique[n] = true
	}
	names := make([]string, 0, len(unique))
	for n := range unique {
		names = append(names, n)
	}
	sort.Strings(names)

	h := sha1.Sum([]byte(normalized + "|" + strings.Join(names, ",")))
	return hex.EncodeToString(h[:])
}

// EfficiencyScore buckets a turn by how many model iterations it needed.
// Fewer round trips means a cheaper, more direct path.
func EfficiencyScore(iterations int) float64 {
	switch {
	case iterations <= 2:
		return 1.0
	case iterations <= 4:
		return 0.85
	case iterations <= 6:
		return 0.7
	default:
		return 0.5
	}
}

// Record persists the turn and promotes it to golden when it beats every
// prior successful trajectory for the same intent. Recording failures are
// logged, never propagated: learning must not break the user-visible turn.
func (r *Recorder) Record(userID, conversationID string, turn int, goal, intentLabel string, res *agent.Result) {
	if r == nil || r.st == nil || len(res.ToolCalls) == 0 {
		return
	}

	names := make([]string, len(res.ToolCalls))
	for i, tc := range res.ToolCalls {
		names[i] = tc.Name
	}
	hash := IntentHash(goal, names)
	score := EfficiencyScore(res.Iterations)

	seq, err := json.Marshal(res.ToolCalls)
	if err != nil {
		seq = []byte("[]")
	}
	traj := &store.Trajectory{
		UserID:          userID,
		ConversationID:  conversationID,
		Turn:            turn,
		ToolSequence:    string(seq),
		TotalDurationMs: res.DurationMs,
		Success:         res.Success,
		EfficiencyScore: score,
		IntentHash:      hash,
		IntentLabel:     intentLabel,
		ToolCount:       len(res.ToolCalls),
	}

	best, priorCount, err := r.st.BestEfficiency(userID, hash)
	if err != nil {
		r.log.Debug("trajectory lookup failed", "error", err)
		best, priorCount = 0, 0
	}
	avgTools, err := r.st.AvgToolCount(userID, hash)
	if err != nil {
		avgTools = 0
	}

	if err := r.st.InsertTrajectory(traj); err != nil {
		r.log.Debug("trajectory insert failed", "error", err)
		return
	}

	// Promotion: a successful turn becomes golden when it is the first for
	// its intent, or matches the best prior efficiency without using more
	// tools than the historical average.
	promote := priorCount == 0 || (score >= best && float64(traj.ToolCount) <= avgTools)
	if res.Success && promote {
		if err := r.st.PromoteGolden(userID, hash, traj.ID); err != nil {
			r.log.Debug("golden promotion failed", "error", err)
		}
	}
}

// GoldenHint returns a prompt fragment describing the known-good tool path
// for an intent, or empty when none exists.
func (r *Recorder) GoldenHint(userID, goal string, candidateTools []string) string {
	if r == nil || r.st == nil {
		return ""
	}
	golden, err := r.st.GoldenTrajectory(userID, IntentHash(goal, candidateTools))
	if err != nil || golden == nil {
		return ""
	}

	var calls []agent.ToolCallRecord
	if err := json.Unmarshal([]byte(golden.ToolSequence), &calls); err != nil || len(calls) == 0 {
		return ""
	}
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Name
	}
	return "A previous successful approach to this kind of request used these tools in order: " +
		strings.Join(names, ", ") + ". Prefer this path unless the situation differs."
}
