package provider

import "strings"

// Router picks the model tier for a turn. Cheap model for early, short,
// read-only messages; strong model for anything that might mutate state.
type Router struct {
	Strong string
	Fast   string
}

// mutatingVerbs force the strong model: a wrong tool choice here has real
// consequences.
var mutatingVerbs = []string{
	"create", "send", "pay", "refund", "approve", "reject", "cancel",
	"terminate", "evict", "adjust", "schedule", "publish", "sign",
	"release", "waive", "dispatch", "book",
}

// complexEventTypes always route to the strong model.
var complexEventTypes = map[string]bool{
	"maintenance_emergency": true,
	"arrears_escalation":    true,
	"lease_termination":     true,
	"compliance_overdue":    true,
}

// Pick selects a model for an interactive message.
func (r Router) Pick(message string, turn int) string {
	if turn > 2 || len(message) > 280 {
		return r.Strong
	}
	lower := strings.ToLower(message)
	for _, v := range mutatingVerbs {
		if strings.Contains(lower, v) {
			return r.Strong
		}
	}
	return r.Fast
}

// PickForEvent selects a model for a queued event.
func (r Router) PickForEvent(eventType string) string {
	if complexEventTypes[eventType] {
		return r.Strong
	}
	return r.Fast
}
