package store

import (
	"database/sql"
	"time"
)

// Property is a managed property row, read-only to steward.
type Property struct {
	ID               string
	UserID           string
	Address          string
	Status           string
	LastInspectionAt *time.Time
}

// Tenancy is an active lease, read-only to steward.
type Tenancy struct {
	ID             string
	UserID         string
	PropertyID     string
	TenantName     string
	RentAmount     float64
	ArrearsAmount  float64
	LeaseEnd       *time.Time
	LastRentReview *time.Time
	Status         string
}

// MaintenanceRequest is an open maintenance ticket, read-only to steward.
type MaintenanceRequest struct {
	ID         string
	UserID     string
	PropertyID string
	Summary    string
	Urgency    string
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ComplianceItem is a compliance obligation, read-only to steward.
type ComplianceItem struct {
	ID         string
	UserID     string
	PropertyID string
	ItemType   string
	DueAt      *time.Time
	Status     string
}

// Payment is a rent payment record, read-only to steward.
type Payment struct {
	ID         string
	UserID     string
	TenancyID  string
	Amount     float64
	Status     string
	ReceivedAt time.Time
}

// Properties returns all properties for a user.
func (s *Store) Properties(userID string) ([]Property, error) {
	rows, err := s.db.Query(`SELECT id, user_id, address, status, last_inspection_at
		FROM properties WHERE user_id = ? ORDER BY address`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Property
	for rows.Next() {
		var p Property
		var inspected sql.NullTime
		if err := rows.Scan(&p.ID, &p.UserID, &p.Address, &p.Status, &inspected); err != nil {
			return nil, err
		}
		if inspected.Valid {
			p.LastInspectionAt = &inspected.Time
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ReviewUserIDs returns the distinct owners with at least one property.
func (s *Store) ReviewUserIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT user_id FROM properties`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ArrearsTenancies returns active tenancies with a positive arrears balance.
// propertyID narrows the query when non-empty.
func (s *Store) ArrearsTenancies(userID, propertyID string) ([]Tenancy, error) {
	query := `SELECT id, user_id, property_id, tenant_name, rent_amount, arrears_amount,
		lease_end, last_rent_review, status
		FROM tenancies WHERE user_id = ? AND status = 'active' AND arrears_amount > 0`
	args := []any{userID}
	if propertyID != "" {
		query += ` AND property_id = ?`
		args = append(args, propertyID)
	}
	query += ` ORDER BY arrears_amount DESC`
	return s.queryTenancies(query, args...)
}

// ExpiringLeases returns active tenancies ending within the window.
func (s *Store) ExpiringLeases(userID, propertyID string, within time.Duration, now time.Time) ([]Tenancy, error) {
	query := `SELECT id, user_id, property_id, tenant_name, rent_amount, arrears_amount,
		lease_end, last_rent_review, status
		FROM tenancies
		WHERE user_id = ? AND status = 'active' AND lease_end IS NOT NULL AND lease_end <= ? AND lease_end >= ?`
	args := []any{userID, now.Add(within), now}
	if propertyID != "" {
		query += ` AND property_id = ?`
		args = append(args, propertyID)
	}
	query += ` ORDER BY lease_end ASC`
	return s.queryTenancies(query, args...)
}

// RentReviewDue returns active tenancies whose last rent review is older than
// the given age (or never reviewed).
func (s *Store) RentReviewDue(userID string, olderThan time.Duration, now time.Time) ([]Tenancy, error) {
	cutoff := now.Add(-olderThan)
	return s.queryTenancies(`SELECT id, user_id, property_id, tenant_name, rent_amount, arrears_amount,
		lease_end, last_rent_review, status
		FROM tenancies
		WHERE user_id = ? AND status = 'active'
		AND (last_rent_review IS NULL OR last_rent_review <= ?)
		ORDER BY last_rent_review ASC`, userID, cutoff)
}

func (s *Store) queryTenancies(query string, args ...any) ([]Tenancy, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tenancy
	for rows.Next() {
		var t Tenancy
		var leaseEnd, lastReview sql.NullTime
		if err := rows.Scan(&t.ID, &t.UserID, &t.PropertyID, &t.TenantName, &t.RentAmount,
			&t.ArrearsAmount, &leaseEnd, &lastReview, &t.Status); err != nil {
			return nil, err
		}
		if leaseEnd.Valid {
			t.LeaseEnd = &leaseEnd.Time
		}
		if lastReview.Valid {
			t.LastRentReview = &lastReview.Time
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// OpenMaintenance returns open maintenance requests, most urgent first.
func (s *Store) OpenMaintenance(userID, propertyID string) ([]MaintenanceRequest, error) {
	query := `SELECT id, user_id, property_id, summary, urgency, status, created_at, updated_at
		FROM maintenance_requests WHERE user_id = ? AND status = 'open'`
	args := []any{userID}
	if propertyID != "" {
		query += ` AND property_id = ?`
		args = append(args, propertyID)
	}
	query += ` ORDER BY CASE urgency WHEN 'emergency' THEN 0 WHEN 'urgent' THEN 1 ELSE 2 END, created_at ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MaintenanceRequest
	for rows.Next() {
		var m MaintenanceRequest
		if err := rows.Scan(&m.ID, &m.UserID, &m.PropertyID, &m.Summary, &m.Urgency,
			&m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// OverdueCompliance returns compliance items past due and not resolved.
func (s *Store) OverdueCompliance(userID, propertyID string, now time.Time) ([]ComplianceItem, error) {
	query := `SELECT id, user_id, property_id, item_type, due_at, status
		FROM compliance_items
		WHERE user_id = ? AND status != 'resolved' AND due_at IS NOT NULL AND due_at <= ?`
	args := []any{userID, now}
	if propertyID != "" {
		query += ` AND property_id = ?`
		args = append(args, propertyID)
	}
	query += ` ORDER BY due_at ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ComplianceItem
	for rows.Next() {
		var c ComplianceItem
		var due sql.NullTime
		if err := rows.Scan(&c.ID, &c.UserID, &c.PropertyID, &c.ItemType, &due, &c.Status); err != nil {
			return nil, err
		}
		if due.Valid {
			c.DueAt = &due.Time
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecentPayments returns payments received since the cutoff.
func (s *Store) RecentPayments(userID string, since time.Time) ([]Payment, error) {
	rows, err := s.db.Query(`SELECT id, user_id, tenancy_id, amount, status, received_at
		FROM payments WHERE user_id = ? AND received_at >= ? ORDER BY received_at DESC`,
		userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.TenancyID, &p.Amount, &p.Status, &p.ReceivedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// VacantProperties returns properties marked vacant.
func (s *Store) VacantProperties(userID string) ([]Property, error) {
	rows, err := s.db.Query(`SELECT id, user_id, address, status, last_inspection_at
		FROM properties WHERE user_id = ? AND status = 'vacant'`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Property
	for rows.Next() {
		var p Property
		var inspected sql.NullTime
		if err := rows.Scan(&p.ID, &p.UserID, &p.Address, &p.Status, &inspected); err != nil {
			return nil, err
		}
		if inspected.Valid {
			p.LastInspectionAt = &inspected.Time
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// StalledMaintenance returns open maintenance requests not touched since the
// cutoff.
func (s *Store) StalledMaintenance(userID string, updatedBefore time.Time) ([]MaintenanceRequest, error) {
	rows, err := s.db.Query(`SELECT id, user_id, property_id, summary, urgency, status, created_at, updated_at
		FROM maintenance_requests
		WHERE user_id = ? AND status = 'open' AND updated_at <= ?
		ORDER BY updated_at ASC`, userID, updatedBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MaintenanceRequest
	for rows.Next() {
		var m MaintenanceRequest
		if err := rows.Scan(&m.ID, &m.UserID, &m.PropertyID, &m.Summary, &m.Urgency,
			&m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
