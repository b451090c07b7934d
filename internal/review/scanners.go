package review

import (
	"fmt"
	"time"

	"github.com/stewardhq/steward/internal/store"
	"github.com/stewardhq/steward/internal/workflow"
)

// Scanner look-ahead windows.
const (
	renewalWindow   = 60 * 24 * time.Hour
	stalledAfter    = 7 * 24 * time.Hour
	rentReviewAfter = 365 * 24 * time.Hour
)

// scan runs the proactive scanners for one user: qualifying conditions spawn
// workflows or queue events before the daily review prompts run. Everything
// is deduplicated against already-queued events and active workflows so a
// daily cadence never doubles up work.
func (s *Scheduler) scan(userID string, now time.Time, stats *Stats) {
	s.scanExpiringLeases(userID, now, stats)
	s.scanVacancies(userID, now, stats)
	s.scanOverdueCompliance(userID, now, stats)
	s.scanStalledMaintenance(userID, now, stats)
	s.scanRentReviews(userID, now, stats)
}

func (s *Scheduler) scanExpiringLeases(userID string, now time.Time, stats *Stats) {
	leases, err := s.st.ExpiringLeases(userID, "", renewalWindow, now)
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("lease scan: %v", err))
		return
	}
	for _, t := range leases {
		active, err := s.st.HasActiveWorkflow(userID, t.PropertyID, workflow.TypeLeaseRenewal)
		if err != nil || active {
			continue
		}
		w := workflow.NewLeaseRenewal(userID, t.PropertyID, t.ID, now)
		if err := s.st.CreateWorkflow(w); err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("spawn renewal for %s: %v", t.PropertyID, err))
			continue
		}
		s.log.Info("renewal workflow spawned", "property", t.PropertyID, "lease_end", t.LeaseEnd)
		stats.WorkflowsSpawned++
	}
}

func (s *Scheduler) scanVacancies(userID string, now time.Time, stats *Stats) {
	vacant, err := s.st.VacantProperties(userID)
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("vacancy scan: %v", err))
		return
	}
	for _, p := range vacant {
		active, err := s.st.HasActiveWorkflow(userID, p.ID, workflow.TypeVacancy)
		if err != nil || active {
			continue
		}
		if err := s.st.CreateWorkflow(workflow.NewVacancyFill(userID, p.ID, now)); err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("spawn vacancy fill for %s: %v", p.ID, err))
			continue
		}
		stats.WorkflowsSpawned++
	}
}

func (s *Scheduler) scanOverdueCompliance(userID string, now time.Time, stats *Stats) {
	items, err := s.st.OverdueCompliance(userID, "", now)
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("compliance scan: %v", err))
		return
	}
	for _, c := range items {
		s.queueOnce(userID, c.PropertyID, "compliance_overdue", store.PriorityHigh,
			fmt.Sprintf(`{"item_type":%q,"compliance_id":%q}`, c.ItemType, c.ID), stats)
	}
}

func (s *Scheduler) scanStalledMaintenance(userID string, now time.Time, stats *Stats) {
	stalled, err := s.st.StalledMaintenance(userID, now.Add(-stalledAfter))
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("maintenance scan: %v", err))
		return
	}
	for _, m := range stalled {
		s.queueOnce(userID, m.PropertyID, "maintenance_stalled", store.PriorityNormal,
			fmt.Sprintf(`{"request_id":%q,"summary":%q}`, m.ID, m.Summary), stats)
	}
}

func (s *Scheduler) scanRentReviews(userID string, now time.Time, stats *Stats) {
	due, err := s.st.RentReviewDue(userID, rentReviewAfter, now)
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("rent review scan: %v", err))
		return
	}
	for _, t := range due {
		s.queueOnce(userID, t.PropertyID, "rent_review_due", store.PriorityLow,
			fmt.Sprintf(`{"tenancy_id":%q,"current_rent":%.2f}`, t.ID, t.RentAmount), stats)
	}
}

// queueOnce inserts an event unless one of the same type is already waiting
// for the property.
func (s *Scheduler) queueOnce(userID, propertyID, eventType, priority, payload string, stats *Stats) {
	queued, err := s.st.HasQueuedEvent(userID, propertyID, eventType)
	if err != nil || queued {
		return
	}
	err = s.st.InsertEvent(&store.Event{
		Type:       eventType,
		Priority:   priority,
		Payload:    payload,
		UserID:     userID,
		PropertyID: propertyID,
	})
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("queue %s for %s: %v", eventType, propertyID, err))
		return
	}
	stats.EventsQueued++
}
