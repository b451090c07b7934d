package workflow

import (
	"time"

	"github.com/stewardhq/steward/internal/store"
)

// Workflow type names.
const (
	TypeLeaseRenewal      = "lease_renewal"
	TypeArrearsEscalation = "arrears_escalation"
	TypeVacancy           = "vacancy_fill"
	TypeCompliance        = "compliance_remediation"
)

func steps(names ...string) []store.WorkflowStep {
	out := make([]store.WorkflowStep, len(names))
	for i, n := range names {
		out[i] = store.WorkflowStep{Name: n, Status: store.StepPending}
	}
	return out
}

// NewLeaseRenewal builds the renewal plan spawned when a lease nears expiry.
func NewLeaseRenewal(userID, propertyID, tenancyID string, startAt time.Time) *store.Workflow {
	return &store.Workflow{
		UserID:       userID,
		PropertyID:   propertyID,
		TenancyID:    tenancyID,
		WorkflowType: TypeLeaseRenewal,
		Steps: steps(
			"analyze_market_rent_and_renewal_options",
			"draft_renewal_offer",
			"send_renewal_offer_to_tenant",
			"follow_up_on_offer",
			"finalize_renewal_or_prepare_relisting",
		),
		NextActionAt: &startAt,
	}
}

// NewArrearsEscalation builds the staged arrears follow-up plan.
func NewArrearsEscalation(userID, propertyID, tenancyID string, startAt time.Time) *store.Workflow {
	return &store.Workflow{
		UserID:       userID,
		PropertyID:   propertyID,
		TenancyID:    tenancyID,
		WorkflowType: TypeArrearsEscalation,
		Steps: steps(
			"send_friendly_payment_reminder",
			"send_formal_arrears_notice",
			"propose_payment_plan",
			"escalate_to_owner_for_decision",
		),
		NextActionAt: &startAt,
	}
}

// NewVacancyFill builds the relist-and-fill plan for a vacant property.
func NewVacancyFill(userID, propertyID string, startAt time.Time) *store.Workflow {
	return &store.Workflow{
		UserID:       userID,
		PropertyID:   propertyID,
		WorkflowType: TypeVacancy,
		Steps: steps(
			"assess_market_rent",
			"draft_and_publish_listing",
			"screen_and_rank_applicants",
			"approve_application_and_draft_lease",
		),
		NextActionAt: &startAt,
	}
}

// NewComplianceRemediation builds the plan for an overdue compliance item.
func NewComplianceRemediation(userID, propertyID string, startAt time.Time) *store.Workflow {
	return &store.Workflow{
		UserID:       userID,
		PropertyID:   propertyID,
		WorkflowType: TypeCompliance,
		Steps: steps(
			"schedule_required_check",
			"record_certificate_and_notify_owner",
		),
		NextActionAt: &startAt,
	}
}
