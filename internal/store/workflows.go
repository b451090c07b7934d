package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// CreateWorkflow persists a new multi-step plan. Workflows always start
// active at step 0.
func (s *Store) CreateWorkflow(w *Workflow) error {
	if w.ID == "" {
		w.ID = NewID()
	}
	w.Status = WorkflowActive
	w.CurrentStep = 0
	w.TotalSteps = len(w.Steps)
	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now
	if w.NextActionAt == nil {
		w.NextActionAt = &now
	}
	if w.Metadata == nil {
		w.Metadata = map[string]any{}
	}

	stepsJSON, err := json.Marshal(w.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	metaJSON, err := json.Marshal(w.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO workflows
		(id, user_id, property_id, tenancy_id, workflow_type, steps, current_step, total_steps, status, next_action_at, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.PropertyID, w.TenancyID, w.WorkflowType, string(stepsJSON),
		w.CurrentStep, w.TotalSteps, w.Status, w.NextActionAt, string(metaJSON), w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create workflow: %w", err)
	}
	return nil
}

// GetWorkflow returns a workflow by id, or nil when absent.
func (s *Store) GetWorkflow(id string) (*Workflow, error) {
	row := s.db.QueryRow(`SELECT id, user_id, property_id, tenancy_id, workflow_type, steps,
		current_step, total_steps, status, next_action_at, metadata, created_at, updated_at
		FROM workflows WHERE id = ?`, id)
	return scanWorkflow(row)
}

// DueWorkflows returns active workflows whose next_action_at has passed.
func (s *Store) DueWorkflows(now time.Time, limit int) ([]Workflow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT id, user_id, property_id, tenancy_id, workflow_type, steps,
		current_step, total_steps, status, next_action_at, metadata, created_at, updated_at
		FROM workflows
		WHERE status = ? AND next_action_at IS NOT NULL AND next_action_at <= ?
		ORDER BY next_action_at ASC LIMIT ?`,
		WorkflowActive, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Workflow
	for rows.Next() {
		w, err := scanWorkflowRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// HasActiveWorkflow reports whether an active workflow of the given type
// exists for the property. Used by scanners to deduplicate.
func (s *Store) HasActiveWorkflow(userID, propertyID, workflowType string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM workflows
		WHERE user_id = ? AND property_id = ? AND workflow_type = ? AND status = ? LIMIT 1`,
		userID, propertyID, workflowType, WorkflowActive).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SaveWorkflowProgress persists step results, the step cursor, status, and
// the next scheduled check. current_step never decreases.
func (s *Store) SaveWorkflowProgress(w *Workflow) error {
	stepsJSON, err := json.Marshal(w.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	metaJSON, err := json.Marshal(w.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	w.UpdatedAt = time.Now()

	res, err := s.db.Exec(`UPDATE workflows
		SET steps = ?, current_step = ?, status = ?, next_action_at = ?, metadata = ?, updated_at = ?
		WHERE id = ? AND current_step <= ?`,
		string(stepsJSON), w.CurrentStep, w.Status, w.NextActionAt, string(metaJSON), w.UpdatedAt,
		w.ID, w.CurrentStep)
	if err != nil {
		return fmt.Errorf("save workflow progress: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("workflow %s not found or step cursor would regress", w.ID)
	}
	return nil
}

func scanWorkflow(row *sql.Row) (*Workflow, error) {
	var w Workflow
	var stepsJSON, metaJSON string
	var nextAt sql.NullTime
	err := row.Scan(&w.ID, &w.UserID, &w.PropertyID, &w.TenancyID, &w.WorkflowType, &stepsJSON,
		&w.CurrentStep, &w.TotalSteps, &w.Status, &nextAt, &metaJSON, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeWorkflow(&w, stepsJSON, metaJSON, nextAt)
}

func scanWorkflowRows(rows *sql.Rows) (*Workflow, error) {
	var w Workflow
	var stepsJSON, metaJSON string
	var nextAt sql.NullTime
	err := rows.Scan(&w.ID, &w.UserID, &w.PropertyID, &w.TenancyID, &w.WorkflowType, &stepsJSON,
		&w.CurrentStep, &w.TotalSteps, &w.Status, &nextAt, &metaJSON, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return decodeWorkflow(&w, stepsJSON, metaJSON, nextAt)
}

func decodeWorkflow(w *Workflow, stepsJSON, metaJSON string, nextAt sql.NullTime) (*Workflow, error) {
	if err := json.Unmarshal([]byte(stepsJSON), &w.Steps); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	if err := json.Unmarshal([]byte(metaJSON), &w.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if nextAt.Valid {
		w.NextActionAt = &nextAt.Time
	}
	return w, nil
}
