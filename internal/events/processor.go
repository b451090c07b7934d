// Package events drains the durable event queue: each unprocessed event is
// turned into a directive and driven through the agent loop, highest priority
// first.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stewardhq/steward/internal/agent"
	"github.com/stewardhq/steward/internal/notify"
	"github.com/stewardhq/steward/internal/provider"
	"github.com/stewardhq/steward/internal/store"
	"github.com/stewardhq/steward/internal/trajectory"
)

const systemPrompt = "You are Steward, an autonomous property-management assistant acting " +
	"for a landlord. You respond to property events by taking concrete action with your " +
	"tools. Act decisively within your autonomy limits; anything beyond them will be held " +
	"for the landlord's approval automatically."

// Summary is the structured result of one processing run.
type Summary struct {
	EventsProcessed int      `json:"events_processed"`
	ActionsTaken    int      `json:"actions_taken"`
	TotalTokens     int      `json:"total_tokens"`
	Errors          []string `json:"errors,omitempty"`
}

// Processor drains the queue within a wall-clock budget.
type Processor struct {
	st       *store.Store
	loop     *agent.Loop
	router   provider.Router
	recorder *trajectory.Recorder
	notifier *notify.Notifier
	log      *slog.Logger

	batchSize     int
	runtimeBudget time.Duration
}

// NewProcessor builds a processor. batchSize bounds both the events fetched
// per round and their processing concurrency.
func NewProcessor(st *store.Store, loop *agent.Loop, router provider.Router, rec *trajectory.Recorder, notifier *notify.Notifier, log *slog.Logger, batchSize int, runtimeBudget time.Duration) *Processor {
	if batchSize <= 0 {
		batchSize = 3
	}
	if runtimeBudget <= 0 {
		runtimeBudget = 110 * time.Second
	}
	return &Processor{
		st: st, loop: loop, router: router, recorder: rec, notifier: notifier, log: log,
		batchSize: batchSize, runtimeBudget: runtimeBudget,
	}
}

// ProcessAll drains the queue until it is empty or the runtime budget is
// spent. Batches are fetched globally in priority order so an instant event
// is never stuck behind another user's backlog; each event carries its own
// owner. The budget check is cooperative: it runs between batches, never
// mid-event.
func (p *Processor) ProcessAll(ctx context.Context) *Summary {
	deadline := time.Now().Add(p.runtimeBudget)
	summary := &Summary{}

	for {
		if time.Now().After(deadline) {
			p.log.Info("runtime budget spent, leaving remaining events for next run")
			return summary
		}
		batch, err := p.st.UnprocessedEvents("", p.batchSize)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("fetch events: %v", err))
			return summary
		}
		if len(batch) == 0 {
			return summary
		}
		p.processBatch(ctx, batch, summary)
	}
}

// processBatch handles up to batchSize events concurrently. Each event is
// isolated: one failure neither aborts the batch nor blocks the queue.
func (p *Processor) processBatch(ctx context.Context, batch []store.Event, summary *Summary) {
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := range batch {
		wg.Add(1)
		go func(e *store.Event) {
			defer wg.Done()
			actions, tokens, err := p.processOne(ctx, e)

			mu.Lock()
			defer mu.Unlock()
			summary.EventsProcessed++
			summary.ActionsTaken += actions
			summary.TotalTokens += tokens
			if err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("event %s (%s): %v", e.ID, e.Type, err))
			}
		}(&batch[i])
	}
	wg.Wait()
}

// processOne drives one event through the agent loop and marks it processed
// regardless of outcome. A permanently failing event must not wedge the
// queue; its error text is preserved on the row.
func (p *Processor) processOne(ctx context.Context, e *store.Event) (actions, tokens int, err error) {
	p.log.Info("processing event", "id", e.ID, "type", e.Type, "priority", e.Priority, "user", e.UserID)

	if e.Type == "maintenance_emergency" {
		p.notifier.Emergency(ctx, e.UserID, e.PropertyID, e.Payload)
	}

	res, runErr := p.loop.Run(ctx, agent.Input{
		UserID:      e.UserID,
		System:      systemPrompt,
		Goal:        directive(e),
		Model:       p.router.PickForEvent(e.Type),
		EventSource: e.Type,
	})

	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	} else {
		for _, tc := range res.ToolCalls {
			if tc.Success {
				actions++
			}
		}
		tokens = res.TokensUsed
		p.recorder.Record(e.UserID, "", 0, directive(e), e.Type, res)
	}

	if markErr := p.st.MarkEventProcessed(e.ID, errText); markErr != nil {
		p.log.Error("mark processed failed", "event", e.ID, "error", markErr)
		if runErr == nil {
			runErr = markErr
		}
	}
	return actions, tokens, runErr
}
