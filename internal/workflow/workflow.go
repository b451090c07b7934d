// Package workflow advances persisted multi-step plans. Each advance call
// picks up every due workflow, drives its current step through the agent
// loop once, and schedules the next check. Workflows survive restarts: all
// state lives in the store.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stewardhq/steward/internal/agent"
	"github.com/stewardhq/steward/internal/provider"
	"github.com/stewardhq/steward/internal/store"
)

const systemPrompt = "You are Steward, an autonomous property-management assistant " +
	"executing one step of a longer plan for a landlord. Complete only the step you are " +
	"given, using your tools. Do not skip ahead to later steps."

// stepCooldown is how long a workflow waits between steps, and after a
// failed step before the retry.
const stepCooldown = time.Hour

// resultLimit caps the stored per-step result text.
const resultLimit = 500

// Advancer drives due workflows forward.
type Advancer struct {
	st     *store.Store
	loop   *agent.Loop
	router provider.Router
	log    *slog.Logger
}

// NewAdvancer builds an advancer over the shared store and loop.
func NewAdvancer(st *store.Store, loop *agent.Loop, router provider.Router, log *slog.Logger) *Advancer {
	return &Advancer{st: st, loop: loop, router: router, log: log}
}

// Advance processes every workflow due at now. Returns how many advanced and
// the per-workflow errors; one failing workflow never blocks the rest.
func (a *Advancer) Advance(ctx context.Context, now time.Time, limit int) (advanced int, errs []string) {
	due, err := a.st.DueWorkflows(now, limit)
	if err != nil {
		return 0, []string{fmt.Sprintf("fetch due workflows: %v", err)}
	}

	for i := range due {
		w := &due[i]
		if err := a.advanceOne(ctx, w, now); err != nil {
			errs = append(errs, fmt.Sprintf("workflow %s (%s): %v", w.ID, w.WorkflowType, err))
			continue
		}
		advanced++
	}
	return advanced, errs
}

// advanceOne runs the current step. Step failure keeps the workflow active
// with the error in metadata; the next due time backs off one cooldown.
func (a *Advancer) advanceOne(ctx context.Context, w *store.Workflow, now time.Time) error {
	if w.CurrentStep >= len(w.Steps) {
		return a.complete(w)
	}
	step := &w.Steps[w.CurrentStep]
	a.log.Info("advancing workflow", "id", w.ID, "type", w.WorkflowType,
		"step", w.CurrentStep, "step_name", step.Name)

	res, err := a.loop.Run(ctx, agent.Input{
		UserID:      w.UserID,
		System:      systemPrompt,
		Goal:        stepDirective(w, step),
		Model:       a.router.Strong,
		EventSource: w.WorkflowType,
	})
	if err != nil {
		if w.Metadata == nil {
			w.Metadata = map[string]any{}
		}
		w.Metadata["last_error"] = err.Error()
		retry := now.Add(stepCooldown)
		w.NextActionAt = &retry
		if saveErr := a.st.SaveWorkflowProgress(w); saveErr != nil {
			return fmt.Errorf("save failed step: %w", saveErr)
		}
		return fmt.Errorf("step %q: %w", step.Name, err)
	}

	step.Status = store.StepCompleted
	step.Result = truncate(res.Response, resultLimit)
	completedAt := now
	step.CompletedAt = &completedAt
	delete(w.Metadata, "last_error")
	w.CurrentStep++

	if w.CurrentStep >= w.TotalSteps {
		return a.complete(w)
	}
	next := now.Add(stepCooldown)
	w.NextActionAt = &next
	return a.st.SaveWorkflowProgress(w)
}

func (a *Advancer) complete(w *store.Workflow) error {
	w.Status = store.WorkflowCompleted
	w.NextActionAt = nil
	a.log.Info("workflow completed", "id", w.ID, "type", w.WorkflowType)
	return a.st.SaveWorkflowProgress(w)
}

// stepDirective renders the instruction for one step.
func stepDirective(w *store.Workflow, step *store.WorkflowStep) string {
	msg := fmt.Sprintf("Workflow: %s (step %d of %d)\nCurrent step: %s",
		w.WorkflowType, w.CurrentStep+1, w.TotalSteps, step.Name)
	if step.ToolName != "" {
		msg += fmt.Sprintf("\nSuggested tool: %s", step.ToolName)
	}
	if len(step.ToolParams) > 0 {
		msg += fmt.Sprintf("\nSuggested parameters: %v", step.ToolParams)
	}
	if w.PropertyID != "" {
		msg += fmt.Sprintf("\nProperty: %s", w.PropertyID)
	}
	if w.TenancyID != "" {
		msg += fmt.Sprintf("\nTenancy: %s", w.TenancyID)
	}
	if prior := completedSummary(w); prior != "" {
		msg += "\nCompleted so far:\n" + prior
	}
	return msg
}

func completedSummary(w *store.Workflow) string {
	var out string
	for _, s := range w.Steps {
		if s.Status != store.StepCompleted {
			continue
		}
		out += fmt.Sprintf("- %s: %s\n", s.Name, truncate(s.Result, 120))
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
