package store

import (
	"fmt"
	"time"
)

// LogDecision appends one immutable audit row. Rows are never updated.
func (s *Store) LogDecision(d *Decision) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	if d.Input == "" {
		d.Input = "{}"
	}
	_, err := s.db.Exec(`INSERT INTO decisions
		(user_id, decision_type, tool_name, input, output, autonomy_level, confidence, was_auto_executed, duration_ms, reasoning, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.UserID, d.DecisionType, d.ToolName, d.Input, d.Output,
		d.AutonomyLevel, d.Confidence, d.WasAutoExecuted, d.DurationMs, d.Reasoning, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// ListDecisions returns recent decisions for a user, newest first.
func (s *Store) ListDecisions(userID string, limit int) ([]Decision, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT id, user_id, decision_type, tool_name, input, output,
		autonomy_level, confidence, was_auto_executed, duration_ms, reasoning, created_at
		FROM decisions WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(&d.ID, &d.UserID, &d.DecisionType, &d.ToolName, &d.Input, &d.Output,
			&d.AutonomyLevel, &d.Confidence, &d.WasAutoExecuted, &d.DurationMs, &d.Reasoning, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountDecisions returns the number of decisions of a given type for a tool.
// Used by tests and the review summary.
func (s *Store) CountDecisions(userID, decisionType, toolName string) (int, error) {
	query := `SELECT COUNT(*) FROM decisions WHERE user_id = ?`
	args := []any{userID}
	if decisionType != "" {
		query += ` AND decision_type = ?`
		args = append(args, decisionType)
	}
	if toolName != "" {
		query += ` AND tool_name = ?`
		args = append(args, toolName)
	}
	var n int
	err := s.db.QueryRow(query, args...).Scan(&n)
	return n, err
}
