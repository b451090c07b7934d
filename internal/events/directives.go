package events

import (
	"fmt"

	"github.com/stewardhq/steward/internal/store"
)

// directiveTemplates map event types to the instruction given to the model.
// Unlisted types fall through to a generic directive.
var directiveTemplates = map[string]string{
	"payment_received": "A rent payment was received. Verify it against the tenancy, " +
		"send a receipt if appropriate, and update arrears standing.",
	"payment_failed": "A rent payment failed. Check the tenancy's arrears position, " +
		"notify the tenant, and consider a payment reminder or arrears follow-up.",
	"maintenance_submitted": "A tenant submitted a maintenance request. Triage its urgency, " +
		"and either schedule a contractor or escalate as needed.",
	"maintenance_emergency": "An EMERGENCY maintenance issue was reported. Act immediately: " +
		"dispatch emergency repairs, notify affected parties, and document the incident.",
	"lease_expiring": "A lease is approaching expiry. Analyze renewal options and start " +
		"the renewal process or prepare for re-letting.",
	"inspection_finalized": "An inspection report was finalized. Review its findings and " +
		"raise maintenance for any issues flagged.",
	"compliance_overdue": "A compliance obligation is overdue. Notify the owner, schedule " +
		"the required check, and record the breach if applicable.",
	"arrears_detected": "A tenancy has fallen into arrears. Review the payment history and " +
		"begin the appropriate arrears follow-up.",
	"application_received": "A rental application was received for a vacancy. Screen the " +
		"applicant and rank them against any others.",
	"vacate_notice": "A tenant gave notice to vacate. Process the notice and start the " +
		"end-of-lease preparations.",
}

const genericDirective = "A property event occurred. Review it and take whatever routine " +
	"follow-up is appropriate within your autonomy limits."

// directive renders the full prompt for one event.
func directive(e *store.Event) string {
	tmpl, ok := directiveTemplates[e.Type]
	if !ok {
		tmpl = genericDirective
	}
	msg := fmt.Sprintf("Event: %s\n%s", e.Type, tmpl)
	if e.PropertyID != "" {
		msg += fmt.Sprintf("\nProperty: %s", e.PropertyID)
	}
	if e.Payload != "" && e.Payload != "{}" {
		msg += fmt.Sprintf("\nDetails: %s", e.Payload)
	}
	return msg
}
