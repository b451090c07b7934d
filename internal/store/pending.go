package store

import (
	"database/sql"
	"fmt"
	"time"
)

// CreatePendingAction persists a deferred tool invocation. This write is
// synchronous by design: the gate's needs_approval result depends on it.
func (s *Store) CreatePendingAction(a *PendingAction) error {
	if a.ID == "" {
		a.ID = NewID()
	}
	if a.Status == "" {
		a.Status = ActionPending
	}
	if a.ToolParams == "" {
		a.ToolParams = "{}"
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO pending_actions
		(id, user_id, conversation_id, tool_name, tool_params, required_level, status, recommendation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.ConversationID, a.ToolName, a.ToolParams,
		a.RequiredLevel, a.Status, a.Recommendation, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create pending action: %w", err)
	}
	return nil
}

// GetPendingAction returns an action by id, or nil when absent.
func (s *Store) GetPendingAction(id string) (*PendingAction, error) {
	var a PendingAction
	var resolvedAt sql.NullTime
	err := s.db.QueryRow(`SELECT id, user_id, conversation_id, tool_name, tool_params,
		required_level, status, recommendation, resolved_by, resolved_at, created_at
		FROM pending_actions WHERE id = ?`, id).Scan(
		&a.ID, &a.UserID, &a.ConversationID, &a.ToolName, &a.ToolParams,
		&a.RequiredLevel, &a.Status, &a.Recommendation, &a.ResolvedBy, &resolvedAt, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		a.ResolvedAt = &resolvedAt.Time
	}
	return &a, nil
}

// ListPendingActions returns unresolved actions for a user, oldest first.
func (s *Store) ListPendingActions(userID string) ([]PendingAction, error) {
	rows, err := s.db.Query(`SELECT id, user_id, conversation_id, tool_name, tool_params,
		required_level, status, recommendation, resolved_by, created_at
		FROM pending_actions WHERE user_id = ? AND status = ? ORDER BY created_at ASC`,
		userID, ActionPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingAction
	for rows.Next() {
		var a PendingAction
		if err := rows.Scan(&a.ID, &a.UserID, &a.ConversationID, &a.ToolName, &a.ToolParams,
			&a.RequiredLevel, &a.Status, &a.Recommendation, &a.ResolvedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ResolvePendingAction transitions a pending action to approved or rejected.
// Resolution is terminal: resolving an already-resolved action errors.
func (s *Store) ResolvePendingAction(id, status, resolvedBy string) error {
	if status != ActionApproved && status != ActionRejected {
		return fmt.Errorf("invalid resolution status: %s", status)
	}
	res, err := s.db.Exec(`UPDATE pending_actions SET status = ?, resolved_by = ?, resolved_at = ?
		WHERE id = ? AND status = ?`,
		status, resolvedBy, time.Now(), id, ActionPending)
	if err != nil {
		return fmt.Errorf("resolve pending action: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("pending action %s not found or already resolved", id)
	}
	return nil
}
