package autonomy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stewardhq/steward/internal/dispatch"
	"github.com/stewardhq/steward/internal/genome"
	"github.com/stewardhq/steward/internal/notify"
	"github.com/stewardhq/steward/internal/registry"
	"github.com/stewardhq/steward/internal/store"
)

// escalationFloor is the confidence below which a tool's required level is
// raised by one.
const escalationFloor = 0.5

// Request is one tool call entering the gate.
type Request struct {
	ToolName       string
	Params         map[string]any
	UserID         string
	ConversationID string
	// EventSource is the event type that triggered this call, empty for
	// interactive chat. Drives the emergency override.
	EventSource string
}

// Outcome is the gate's verdict plus the (possibly synthetic) tool result.
type Outcome struct {
	Result          dispatch.Result
	NeedsApproval   bool
	PendingActionID string
	Escalated       bool
}

// Gate evaluates every tool call against the user's autonomy settings before
// any side effect happens.
type Gate struct {
	reg        *registry.Registry
	st         *store.Store
	genome     *genome.Tracker
	dispatcher dispatch.Dispatcher
	notifier   *notify.Notifier
	log        *slog.Logger

	wg sync.WaitGroup
}

// New builds a gate over the shared store and dispatcher.
func New(reg *registry.Registry, st *store.Store, tracker *genome.Tracker, d dispatch.Dispatcher, log *slog.Logger) *Gate {
	return &Gate{reg: reg, st: st, genome: tracker, dispatcher: d, log: log}
}

// SetNotifier attaches the rejection-note channel. A nil notifier stays a
// no-op.
func (g *Gate) SetNotifier(n *notify.Notifier) {
	g.notifier = n
}

// Wait blocks until all fire-and-forget audit writes have drained. Called on
// shutdown and by tests.
func (g *Gate) Wait() {
	g.wg.Wait()
}

// Execute runs the full gate algorithm for one tool call. Deferral is not an
// error: the returned Outcome carries a synthetic needs_approval result the
// model can relay to the user. Only PendingAction persistence failures
// surface as errors.
func (g *Gate) Execute(ctx context.Context, req Request) (Outcome, error) {
	meta, ok := g.reg.Lookup(req.ToolName)
	if !ok {
		return Outcome{Result: dispatch.Failed(fmt.Sprintf("unknown tool %q", req.ToolName))}, nil
	}

	settings, err := g.st.GetAutonomySettings(req.UserID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load autonomy settings: %w", err)
	}
	granted := resolveLevel(settings, meta.Category)
	urgentOverride := emergencyOverrideTools[req.ToolName] && urgentEventSources[req.EventSource]

	// Financial threshold: large spends always wait for a human, whatever
	// level the category grants. The emergency override still applies.
	if cost := costValue(req.Params); cost > FinancialThreshold(settings.Preset) && !urgentOverride {
		reason := fmt.Sprintf("%s carries a cost of %.2f, above the %s preset threshold of %.0f",
			req.ToolName, cost, settings.Preset, FinancialThreshold(settings.Preset))
		return g.hold(req, meta, granted, store.DecisionAutonomyGate, 0, reason)
	}

	if urgentOverride {
		g.log.Info("emergency override", "tool", req.ToolName, "event_source", req.EventSource, "user", req.UserID)
		return g.run(ctx, req, granted, 0, "emergency override: "+req.EventSource)
	}

	if granted < meta.RequiredLevel {
		reason := fmt.Sprintf("%s requires level %d; your %s setting grants level %d",
			req.ToolName, meta.RequiredLevel, meta.Category, granted)
		return g.hold(req, meta, granted, store.DecisionAutonomyGate, 0, reason)
	}

	// Confidence escalation: a tool with a poor or drifting track record for
	// this user needs one level more trust than the catalog says.
	confidence := 0.0
	if meta.Category != registry.CategoryQuery && meta.Category != registry.CategoryMemory {
		confidence = g.genome.Confidence(req.UserID, req.ToolName)
		if confidence < escalationFloor {
			escalated := meta.RequiredLevel + 1
			if escalated > registry.MaxLevel {
				escalated = registry.MaxLevel
			}
			if granted < escalated {
				reason := fmt.Sprintf("%s has low recent confidence (%.2f); holding for approval",
					req.ToolName, confidence)
				out, err := g.hold(req, meta, granted, store.DecisionConfidenceGate, confidence, reason)
				out.Escalated = true
				return out, err
			}
		}
	}

	return g.run(ctx, req, granted, confidence, "within granted level")
}

// run dispatches the tool and records the outcome asynchronously.
func (g *Gate) run(ctx context.Context, req Request, granted int, confidence float64, reasoning string) (Outcome, error) {
	start := time.Now()
	res := g.dispatcher.Execute(ctx, req.ToolName, req.Params, req.UserID)
	took := time.Since(start)
	if res.DurationMs == 0 {
		res.DurationMs = took.Milliseconds()
	}

	g.async(func() {
		if err := g.genome.RecordRun(req.UserID, req.ToolName, res.DurationMs, res.Success); err != nil {
			g.log.Debug("genome record failed", "tool", req.ToolName, "error", err)
		}
		g.logDecision(&store.Decision{
			UserID:          req.UserID,
			DecisionType:    store.DecisionToolExecution,
			ToolName:        req.ToolName,
			Input:           encodeParams(req.Params),
			Output:          string(res.Data),
			AutonomyLevel:   granted,
			Confidence:      confidence,
			WasAutoExecuted: true,
			DurationMs:      res.DurationMs,
			Reasoning:       reasoning,
		})
	})
	return Outcome{Result: res}, nil
}

// hold creates the PendingAction synchronously, logs the gate decision
// asynchronously, and returns the needs_approval synthetic result.
func (g *Gate) hold(req Request, meta registry.ToolMeta, granted int, decisionType string, confidence float64, reason string) (Outcome, error) {
	action := &store.PendingAction{
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		ToolName:       req.ToolName,
		ToolParams:     encodeParams(req.Params),
		RequiredLevel:  meta.RequiredLevel,
		Recommendation: reason,
	}
	if err := g.st.CreatePendingAction(action); err != nil {
		return Outcome{}, fmt.Errorf("create pending action: %w", err)
	}

	g.async(func() {
		g.logDecision(&store.Decision{
			UserID:        req.UserID,
			DecisionType:  decisionType,
			ToolName:      req.ToolName,
			Input:         action.ToolParams,
			AutonomyLevel: granted,
			Confidence:    confidence,
			Reasoning:     reason,
		})
	})

	synthetic, _ := json.Marshal(map[string]any{
		"needs_approval": true,
		"action_id":      action.ID,
		"reason":         reason,
	})
	return Outcome{
		Result:          dispatch.Result{Success: false, Data: synthetic, Error: "needs_approval: " + reason},
		NeedsApproval:   true,
		PendingActionID: action.ID,
	}, nil
}

// Resolve settles a pending action. Approval executes the held tool call
// immediately, bypassing re-gating: the human is the authority now.
func (g *Gate) Resolve(ctx context.Context, actionID string, approve bool, resolvedBy string) (dispatch.Result, error) {
	action, err := g.st.GetPendingAction(actionID)
	if err != nil {
		return dispatch.Result{}, fmt.Errorf("load pending action: %w", err)
	}

	status := store.ActionRejected
	if approve {
		status = store.ActionApproved
	}
	if err := g.st.ResolvePendingAction(actionID, status, resolvedBy); err != nil {
		return dispatch.Result{}, err
	}

	if !approve {
		// A rejection is a learning signal: record it as a failed run so
		// confidence drops and similar calls escalate to approval sooner.
		g.async(func() {
			if err := g.genome.RecordRun(action.UserID, action.ToolName, 0, false); err != nil {
				g.log.Debug("genome record failed", "tool", action.ToolName, "error", err)
			}
			g.logDecision(&store.Decision{
				UserID:       action.UserID,
				DecisionType: store.DecisionActionRejected,
				ToolName:     action.ToolName,
				Input:        action.ToolParams,
				Reasoning:    "rejected by " + resolvedBy,
			})
		})
		g.notifier.ActionRejected(ctx, action.UserID, action.ToolName, action.Recommendation)
		return dispatch.Failed("action rejected by " + resolvedBy), nil
	}

	var params map[string]any
	if err := json.Unmarshal([]byte(action.ToolParams), &params); err != nil {
		return dispatch.Result{}, fmt.Errorf("decode held params: %w", err)
	}
	res := g.dispatcher.Execute(ctx, action.ToolName, params, action.UserID)

	g.async(func() {
		if err := g.genome.RecordRun(action.UserID, action.ToolName, res.DurationMs, res.Success); err != nil {
			g.log.Debug("genome record failed", "tool", action.ToolName, "error", err)
		}
		g.logDecision(&store.Decision{
			UserID:          action.UserID,
			DecisionType:    store.DecisionToolApproved,
			ToolName:        action.ToolName,
			Input:           action.ToolParams,
			Output:          string(res.Data),
			AutonomyLevel:   action.RequiredLevel,
			WasAutoExecuted: false,
			DurationMs:      res.DurationMs,
			Reasoning:       "approved by " + resolvedBy,
		})
	})
	return res, nil
}

func (g *Gate) async(fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn()
	}()
}

func (g *Gate) logDecision(d *store.Decision) {
	if err := g.st.LogDecision(d); err != nil {
		g.log.Debug("decision log failed", "tool", d.ToolName, "error", err)
	}
}

func encodeParams(params map[string]any) string {
	if len(params) == 0 {
		return "{}"
	}
	b, err := json.Marshal(params)
	if err != nil {
		return "{}"
	}
	return string(b)
}
