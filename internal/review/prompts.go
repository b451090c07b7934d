package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/stewardhq/steward/internal/store"
)

// dailyPrompt assembles the per-property review from live aggregates. Lease
// expiries inside 60 days carry an ACTION NEEDED marker the model is told to
// treat as mandatory.
func (s *Scheduler) dailyPrompt(userID string, p store.Property, settings *store.AutonomySettings, now time.Time) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily review for property %s (%s), status: %s.\n", p.ID, p.Address, p.Status)
	b.WriteString(presetInstructions(settings.Preset) + "\n\n")

	arrears, err := s.st.ArrearsTenancies(userID, p.ID)
	if err != nil {
		return "", fmt.Errorf("arrears: %w", err)
	}
	if len(arrears) > 0 {
		b.WriteString("Arrears:\n")
		for _, t := range arrears {
			fmt.Fprintf(&b, "- %s owes %.2f (rent %.2f, tenancy %s)\n",
				t.TenantName, t.ArrearsAmount, t.RentAmount, t.ID)
		}
	}

	expiring, err := s.st.ExpiringLeases(userID, p.ID, expiryLookahead, now)
	if err != nil {
		return "", fmt.Errorf("expiries: %w", err)
	}
	for _, t := range expiring {
		days := int(t.LeaseEnd.Sub(now).Hours() / 24)
		if t.LeaseEnd.Sub(now) <= actionNeededWindow {
			fmt.Fprintf(&b, "ACTION NEEDED: lease for %s (tenancy %s) expires in %d days. "+
				"Analyze renewal options now.\n", t.TenantName, t.ID, days)
		} else {
			fmt.Fprintf(&b, "Upcoming: lease for %s expires in %d days.\n", t.TenantName, days)
		}
	}

	open, err := s.st.OpenMaintenance(userID, p.ID)
	if err != nil {
		return "", fmt.Errorf("maintenance: %w", err)
	}
	if len(open) > 0 {
		b.WriteString("Open maintenance:\n")
		for _, m := range open {
			fmt.Fprintf(&b, "- [%s] %s (opened %s)\n", m.Urgency, m.Summary, m.CreatedAt.Format("2006-01-02"))
		}
	}

	overdue, err := s.st.OverdueCompliance(userID, p.ID, now)
	if err != nil {
		return "", fmt.Errorf("compliance: %w", err)
	}
	if len(overdue) > 0 {
		b.WriteString("Overdue compliance:\n")
		for _, c := range overdue {
			fmt.Fprintf(&b, "- %s was due %s\n", c.ItemType, c.DueAt.Format("2006-01-02"))
		}
	}

	payments, err := s.st.RecentPayments(userID, now.Add(-7*24*time.Hour))
	if err != nil {
		return "", fmt.Errorf("payments: %w", err)
	}
	if len(payments) > 0 {
		fmt.Fprintf(&b, "Payments received this week: %d\n", len(payments))
	}

	if p.LastInspectionAt == nil {
		b.WriteString("No routine inspection on record; consider scheduling one.\n")
	} else if now.Sub(*p.LastInspectionAt) > inspectionStaleAfter {
		fmt.Fprintf(&b, "Last inspection was %s; a routine inspection is overdue.\n",
			p.LastInspectionAt.Format("2006-01-02"))
	}

	return b.String(), nil
}

// portfolioPrompt assembles the weekly or monthly whole-portfolio review.
func (s *Scheduler) portfolioPrompt(mode, userID string, settings *store.AutonomySettings, now time.Time) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s portfolio review.\n", strings.ToUpper(mode[:1])+mode[1:])
	b.WriteString(presetInstructions(settings.Preset) + "\n\n")

	properties, err := s.st.Properties(userID)
	if err != nil {
		return "", fmt.Errorf("properties: %w", err)
	}
	vacant := 0
	for _, p := range properties {
		if p.Status == "vacant" {
			vacant++
		}
	}
	fmt.Fprintf(&b, "Portfolio: %d properties, %d vacant.\n", len(properties), vacant)

	arrears, err := s.st.ArrearsTenancies(userID, "")
	if err != nil {
		return "", fmt.Errorf("arrears: %w", err)
	}
	var totalArrears float64
	for _, t := range arrears {
		totalArrears += t.ArrearsAmount
	}
	fmt.Fprintf(&b, "Tenancies in arrears: %d, total %.2f.\n", len(arrears), totalArrears)

	open, err := s.st.OpenMaintenance(userID, "")
	if err != nil {
		return "", fmt.Errorf("maintenance: %w", err)
	}
	fmt.Fprintf(&b, "Open maintenance requests: %d.\n", len(open))

	overdue, err := s.st.OverdueCompliance(userID, "", now)
	if err != nil {
		return "", fmt.Errorf("compliance: %w", err)
	}
	fmt.Fprintf(&b, "Overdue compliance items: %d.\n", len(overdue))

	if mode == ModeMonthly {
		b.WriteString("Include rent-review opportunities and a cashflow summary in your assessment.\n")
	}
	b.WriteString("\nReview the portfolio's standing, address the worst problems first, " +
		"and summarize what you did and what needs the owner's attention.")
	return b.String(), nil
}
