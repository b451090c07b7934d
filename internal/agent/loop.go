// Package agent runs the bounded tool-use loop: call the model, execute any
// requested tools through the autonomy gate, feed the results back, repeat
// until the model stops asking or the iteration cap is hit.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stewardhq/steward/internal/autonomy"
	"github.com/stewardhq/steward/internal/provider"
	"github.com/stewardhq/steward/internal/registry"
)

// fallbackResponse is returned when the iteration cap is exhausted. Not an
// error: the caller always gets something to show the user.
const fallbackResponse = "I ran into more complexity than expected while working on this. " +
	"Could you rephrase or break the request into smaller steps?"

// charsPerToken is the rough transcript size estimate used by the budget
// guard.
const charsPerToken = 4

// ToolCallRecord is one executed (or deferred) tool call, kept for the
// trajectory recorder.
type ToolCallRecord struct {
	Name          string `json:"name"`
	InputSummary  string `json:"input_summary,omitempty"`
	Success       bool   `json:"success"`
	NeedsApproval bool   `json:"needs_approval,omitempty"`
	DurationMs    int64  `json:"duration_ms"`
}

// Input is one agentic turn request.
type Input struct {
	UserID         string
	ConversationID string
	System         string
	Goal           string
	History        []provider.Message
	Model          string
	// EventSource tags gate requests for the emergency override; empty for
	// interactive chat.
	EventSource string
}

// Result is the outcome of one agentic turn.
type Result struct {
	Response      string
	Iterations    int
	ToolCalls     []ToolCallRecord
	TokensUsed    int
	DurationMs    int64
	Success       bool
	NeedsApproval bool
}

// Loop drives the bounded tool-use state machine.
type Loop struct {
	gateway       provider.Gateway
	gate          *autonomy.Gate
	reg           *registry.Registry
	log           *slog.Logger
	maxIterations int
	maxTokens     int
	contextBudget int
	temperature   float64
	sem           *Semaphore
}

// Options tune the loop. Zero values fall back to the defaults used in
// production.
type Options struct {
	MaxIterations int
	MaxTokens     int
	ContextBudget int
	Temperature   float64
	Concurrency   int
}

// New builds a loop. The semaphore is shared across all turns served by this
// loop so concurrent callers cannot multiply tool-dispatch parallelism.
func New(gateway provider.Gateway, gate *autonomy.Gate, reg *registry.Registry, log *slog.Logger, opts Options) *Loop {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 12
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	if opts.ContextBudget <= 0 {
		opts.ContextBudget = 150_000
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	return &Loop{
		gateway:       gateway,
		gate:          gate,
		reg:           reg,
		log:           log,
		maxIterations: opts.MaxIterations,
		maxTokens:     opts.MaxTokens,
		contextBudget: opts.ContextBudget,
		temperature:   opts.Temperature,
		sem:           NewSemaphore(opts.Concurrency),
	}
}

// Run executes one full agentic turn.
func (l *Loop) Run(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	messages := append([]provider.Message{}, in.History...)
	messages = append(messages, provider.TextMessage(provider.RoleUser, in.Goal))

	tools := l.toolDefs()
	res := &Result{}

	for iter := 0; iter < l.maxIterations; iter++ {
		res.Iterations = iter + 1
		messages = l.compact(in.System, messages)

		resp, err := l.gateway.Complete(ctx, &provider.Request{
			Model:       in.Model,
			System:      in.System,
			Messages:    messages,
			Tools:       tools,
			MaxTokens:   l.maxTokens,
			Temperature: l.temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("completion (iteration %d): %w", iter, err)
		}
		res.TokensUsed += resp.Usage.InputTokens + resp.Usage.OutputTokens

		uses := resp.ToolUses()
		if resp.StopReason != provider.StopToolUse || len(uses) == 0 {
			res.Response = resp.Text()
			res.Success = true
			res.DurationMs = time.Since(start).Milliseconds()
			return res, nil
		}

		results := l.dispatchAll(ctx, in, uses)
		for _, r := range results {
			res.ToolCalls = append(res.ToolCalls, r.record)
			if r.record.NeedsApproval {
				res.NeedsApproval = true
			}
		}

		// One atomic transcript append: the assistant turn plus every tool
		// result, so a partial batch never leaks into the next iteration.
		messages = append(messages, provider.Message{Role: provider.RoleAssistant, Content: resp.Content})
		resultBlocks := make([]provider.ContentBlock, len(results))
		for i, r := range results {
			resultBlocks[i] = r.block
		}
		messages = append(messages, provider.Message{Role: provider.RoleUser, Content: resultBlocks})
	}

	l.log.Warn("iteration cap exhausted", "user", in.UserID, "iterations", l.maxIterations)
	res.Response = fallbackResponse
	res.Success = false
	res.DurationMs = time.Since(start).Milliseconds()
	return res, nil
}

type dispatched struct {
	block  provider.ContentBlock
	record ToolCallRecord
}

// dispatchAll runs every requested tool call concurrently, bounded by the
// shared semaphore. Result order matches request order.
func (l *Loop) dispatchAll(ctx context.Context, in Input, uses []provider.ContentBlock) []dispatched {
	out := make([]dispatched, len(uses))
	var wg sync.WaitGroup
	for i, use := range uses {
		wg.Add(1)
		go func(i int, use provider.ContentBlock) {
			defer wg.Done()
			l.sem.Acquire()
			defer l.sem.Release()
			out[i] = l.dispatchOne(ctx, in, use)
		}(i, use)
	}
	wg.Wait()
	return out
}

func (l *Loop) dispatchOne(ctx context.Context, in Input, use provider.ContentBlock) dispatched {
	outcome, err := l.gate.Execute(ctx, autonomy.Request{
		ToolName:       use.Name,
		Params:         use.Input,
		UserID:         in.UserID,
		ConversationID: in.ConversationID,
		EventSource:    in.EventSource,
	})
	if err != nil {
		// Gate persistence failure: surfaced to the model as a failed tool
		// result so the turn still completes.
		l.log.Error("gate error", "tool", use.Name, "error", err)
		return dispatched{
			block: provider.ContentBlock{
				Type: provider.BlockToolResult, ToolUseID: use.ID,
				Content: "internal error: " + err.Error(), IsError: true,
			},
			record: ToolCallRecord{Name: use.Name, InputSummary: summarizeInput(use.Input)},
		}
	}

	content := string(outcome.Result.Data)
	if content == "" {
		content = outcome.Result.Error
	}
	return dispatched{
		block: provider.ContentBlock{
			Type: provider.BlockToolResult, ToolUseID: use.ID,
			Content: content, IsError: !outcome.Result.Success,
		},
		record: ToolCallRecord{
			Name:          use.Name,
			InputSummary:  summarizeInput(use.Input),
			Success:       outcome.Result.Success,
			NeedsApproval: outcome.NeedsApproval,
			DurationMs:    outcome.Result.DurationMs,
		},
	}
}

// compact drops the oldest turns when the estimated transcript size exceeds
// the context budget, replacing them with a stub. The cut never lands on a
// tool_result turn: a surviving tool_result whose tool_use was dropped is an
// invalid transcript the messages API rejects, so the whole round goes.
func (l *Loop) compact(system string, messages []provider.Message) []provider.Message {
	budget := l.contextBudget - len(system)/charsPerToken
	for estimateTokens(messages) > budget && len(messages) > 2 {
		dropped := 2
		for dropped < len(messages)-1 && startsWithToolResult(messages[dropped]) {
			dropped++
		}
		if dropped > len(messages)-1 {
			dropped = len(messages) - 1
		}
		stub := provider.TextMessage(provider.RoleUser,
			fmt.Sprintf("[earlier conversation compacted: %d turns omitted]", dropped))
		messages = append([]provider.Message{stub}, messages[dropped:]...)
	}
	return messages
}

func startsWithToolResult(m provider.Message) bool {
	return len(m.Content) > 0 && m.Content[0].Type == provider.BlockToolResult
}

func estimateTokens(messages []provider.Message) int {
	chars := 0
	for _, m := range messages {
		for _, b := range m.Content {
			chars += len(b.Text) + len(b.Content)
			for k, v := range b.Input {
				chars += len(k) + len(fmt.Sprint(v))
			}
		}
	}
	return chars / charsPerToken
}

func (l *Loop) toolDefs() []provider.ToolDef {
	metas := l.reg.Definitions()
	defs := make([]provider.ToolDef, len(metas))
	for i, m := range metas {
		defs[i] = provider.ToolDef{Name: m.Name, Description: m.Description, InputSchema: m.Parameters}
	}
	return defs
}

func summarizeInput(input map[string]any) string {
	if len(input) == 0 {
		return ""
	}
	s := fmt.Sprintf("%v", input)
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}
