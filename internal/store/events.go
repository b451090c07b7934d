package store

import (
	"database/sql"
	"fmt"
	"time"
)

// InsertEvent queues a new domain event. A zero ID gets a fresh one.
func (s *Store) InsertEvent(e *Event) error {
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.Priority == "" {
		e.Priority = PriorityNormal
	}
	if e.Payload == "" {
		e.Payload = "{}"
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO events (id, type, priority, payload, user_id, property_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Type, e.Priority, e.Payload, e.UserID, e.PropertyID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// UnprocessedEvents returns queued events ordered by priority tier
// (instant > high > normal > low), ties broken by arrival time.
func (s *Store) UnprocessedEvents(userID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, type, priority, payload, user_id, property_id, processed, error_text, created_at
		FROM events WHERE processed = 0`
	args := []any{}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY CASE priority
			WHEN 'instant' THEN 0
			WHEN 'high' THEN 1
			WHEN 'normal' THEN 2
			ELSE 3
		END, created_at ASC
		LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Type, &e.Priority, &e.Payload, &e.UserID,
			&e.PropertyID, &e.Processed, &e.ErrorText, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkEventProcessed flips processed exactly once, storing the error text on
// failure. Returns sql.ErrNoRows semantics as a plain error when the event is
// already processed so callers never double-mark.
func (s *Store) MarkEventProcessed(eventID, errorText string) error {
	now := time.Now()
	res, err := s.db.Exec(`UPDATE events SET processed = 1, error_text = ?, processed_at = ?
		WHERE id = ? AND processed = 0`,
		errorText, now, eventID)
	if err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("event %s already processed or missing", eventID)
	}
	return nil
}

// HasQueuedEvent reports whether an unprocessed event of the given type
// already exists for the property. Used by scanners to deduplicate.
func (s *Store) HasQueuedEvent(userID, propertyID, eventType string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM events
		WHERE user_id = ? AND property_id = ? AND type = ? AND processed = 0 LIMIT 1`,
		userID, propertyID, eventType).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetEvent returns a single event by id.
func (s *Store) GetEvent(id string) (*Event, error) {
	var e Event
	var processedAt sql.NullTime
	err := s.db.QueryRow(`SELECT id, type, priority, payload, user_id, property_id, processed, error_text, created_at, processed_at
		FROM events WHERE id = ?`, id).Scan(
		&e.ID, &e.Type, &e.Priority, &e.Payload, &e.UserID, &e.PropertyID,
		&e.Processed, &e.ErrorText, &e.CreatedAt, &processedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if processedAt.Valid {
		e.ProcessedAt = &processedAt.Time
	}
	return &e, nil
}
