// Package review runs the scheduled portfolio reviews: a proactive scanner
// phase that queues work, then model-driven review prompts built from live
// aggregates. Daily reviews run per property; weekly and monthly reviews
// cover the whole portfolio in one turn.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stewardhq/steward/internal/agent"
	"github.com/stewardhq/steward/internal/autonomy"
	"github.com/stewardhq/steward/internal/provider"
	"github.com/stewardhq/steward/internal/store"
	"github.com/stewardhq/steward/internal/trajectory"
)

// Review modes.
const (
	ModeDaily   = "daily"
	ModeWeekly  = "weekly"
	ModeMonthly = "monthly"
)

const systemPrompt = "You are Steward, an autonomous property-management assistant " +
	"performing a scheduled portfolio review for a landlord. Work through the findings " +
	"methodically with your tools."

// actionNeededWindow marks lease expiries demanding immediate attention.
const actionNeededWindow = 60 * 24 * time.Hour

// expiryLookahead is how far ahead the daily review reports lease expiries.
const expiryLookahead = 90 * 24 * time.Hour

// inspectionStaleAfter flags properties overdue a routine inspection.
const inspectionStaleAfter = 180 * 24 * time.Hour

// Stats is the structured result of one review run.
type Stats struct {
	ReviewsRun       int      `json:"reviews_run"`
	WorkflowsSpawned int      `json:"workflows_spawned"`
	EventsQueued     int      `json:"events_queued"`
	ActionsTaken     int      `json:"actions_taken"`
	TotalTokens      int      `json:"total_tokens"`
	Errors           []string `json:"errors,omitempty"`
}

// Scheduler runs reviews for one or all users.
type Scheduler struct {
	st       *store.Store
	loop     *agent.Loop
	router   provider.Router
	recorder *trajectory.Recorder
	log      *slog.Logger
}

// NewScheduler builds a review scheduler.
func NewScheduler(st *store.Store, loop *agent.Loop, router provider.Router, rec *trajectory.Recorder, log *slog.Logger) *Scheduler {
	return &Scheduler{st: st, loop: loop, router: router, recorder: rec, log: log}
}

// Run executes one review pass. userID and propertyID narrow the scope when
// non-empty. Individual review failures are isolated into Errors.
func (s *Scheduler) Run(ctx context.Context, mode, userID, propertyID string) *Stats {
	now := time.Now()
	stats := &Stats{}

	users := []string{userID}
	if userID == "" {
		var err error
		users, err = s.st.ReviewUserIDs()
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("list users: %v", err))
			return stats
		}
	}

	for _, uid := range users {
		settings, err := s.st.GetAutonomySettings(uid)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("settings for %s: %v", uid, err))
			continue
		}

		switch mode {
		case ModeDaily:
			s.scan(uid, now, stats)
			s.runDaily(ctx, uid, propertyID, settings, now, stats)
		case ModeWeekly, ModeMonthly:
			s.runPortfolio(ctx, mode, uid, settings, now, stats)
		default:
			stats.Errors = append(stats.Errors, fmt.Sprintf("unknown review mode %q", mode))
			return stats
		}
	}
	return stats
}

func (s *Scheduler) runDaily(ctx context.Context, userID, propertyID string, settings *store.AutonomySettings, now time.Time, stats *Stats) {
	properties, err := s.st.Properties(userID)
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("properties for %s: %v", userID, err))
		return
	}
	for _, p := range properties {
		if propertyID != "" && p.ID != propertyID {
			continue
		}
		prompt, err := s.dailyPrompt(userID, p, settings, now)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("prompt for %s: %v", p.ID, err))
			continue
		}
		s.runReview(ctx, userID, prompt, "daily_review", stats)
	}
}

func (s *Scheduler) runPortfolio(ctx context.Context, mode, userID string, settings *store.AutonomySettings, now time.Time, stats *Stats) {
	prompt, err := s.portfolioPrompt(mode, userID, settings, now)
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("portfolio prompt for %s: %v", userID, err))
		return
	}
	s.runReview(ctx, userID, prompt, mode+"_review", stats)
}

func (s *Scheduler) runReview(ctx context.Context, userID, prompt, label string, stats *Stats) {
	res, err := s.loop.Run(ctx, agent.Input{
		UserID: userID,
		System: systemPrompt,
		Goal:   prompt,
		Model:  s.router.Strong,
	})
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("%s for %s: %v", label, userID, err))
		return
	}
	stats.ReviewsRun++
	stats.TotalTokens += res.TokensUsed
	for _, tc := range res.ToolCalls {
		if tc.Success {
			stats.ActionsTaken++
		}
	}
	s.recorder.Record(userID, "", 0, prompt, label, res)
}

// presetInstructions tells the model how assertively to act during a review.
func presetInstructions(preset string) string {
	if preset == autonomy.PresetCautious {
		return "The owner prefers to approve everything: identify issues and propose " +
			"actions, but do not execute state-changing tools."
	}
	return "Act immediately on anything within your autonomy limits; only flag items " +
		"that genuinely need the owner's judgment."
}
