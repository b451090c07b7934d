// Package notify pushes operational notifications (approvals needed, batch
// summaries) to the landlord's Slack. Delivery is best effort: a notification
// failure never fails the work that triggered it.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"
)

// Notifier posts to an incoming-webhook URL. A nil or disabled notifier is a
// safe no-op.
type Notifier struct {
	webhookURL string
	log        *slog.Logger
}

// New builds a notifier. An empty webhook URL disables it.
func New(webhookURL string, log *slog.Logger) *Notifier {
	if webhookURL == "" {
		return nil
	}
	return &Notifier{webhookURL: webhookURL, log: log}
}

func (n *Notifier) post(ctx context.Context, text string) {
	if n == nil {
		return
	}
	if err := slack.PostWebhookContext(ctx, n.webhookURL, &slack.WebhookMessage{Text: text}); err != nil {
		n.log.Warn("notification failed", "error", err)
	}
}

// ApprovalNeeded announces a newly created pending action.
func (n *Notifier) ApprovalNeeded(ctx context.Context, userID, toolName, reason, actionID string) {
	n.post(ctx, fmt.Sprintf("Approval needed for %s (user %s): %s\nAction ID: %s",
		toolName, userID, reason, actionID))
}

// ActionRejected confirms a rejection and the avoidance rule inferred from it.
func (n *Notifier) ActionRejected(ctx context.Context, userID, toolName, reason string) {
	n.post(ctx, fmt.Sprintf("Rejected %s (user %s): %s\nNoted: similar %s calls will need approval until confidence recovers.",
		toolName, userID, reason, toolName))
}

// RunSummary announces the outcome of an orchestration run.
func (n *Notifier) RunSummary(ctx context.Context, eventsProcessed, workflowsAdvanced, actionsTaken, errors int) {
	n.post(ctx, fmt.Sprintf("Orchestration run: %d events, %d workflows advanced, %d actions, %d errors",
		eventsProcessed, workflowsAdvanced, actionsTaken, errors))
}

// Emergency announces an emergency-class event immediately.
func (n *Notifier) Emergency(ctx context.Context, userID, propertyID, detail string) {
	n.post(ctx, fmt.Sprintf(":rotating_light: Emergency at property %s (user %s): %s",
		propertyID, userID, detail))
}
