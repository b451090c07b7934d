package store

import (
	"database/sql"
	"fmt"
	"time"
)

// InsertTrajectory records one completed agentic turn.
func (s *Store) InsertTrajectory(t *Trajectory) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.ToolSequence == "" {
		t.ToolSequence = "[]"
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO trajectories
		(id, user_id, conversation_id, turn, tool_sequence, total_duration_ms, success,
		 efficiency_score, intent_hash, intent_label, tool_count, is_golden, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.ConversationID, t.Turn, t.ToolSequence, t.TotalDurationMs, t.Success,
		t.EfficiencyScore, t.IntentHash, t.IntentLabel, t.ToolCount, t.IsGolden, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert trajectory: %w", err)
	}
	return nil
}

// BestEfficiency returns the highest efficiency score among successful prior
// trajectories sharing the intent, and how many there are.
func (s *Store) BestEfficiency(userID, intentHash string) (float64, int, error) {
	var best sql.NullFloat64
	var count int
	err := s.db.QueryRow(`SELECT MAX(efficiency_score), COUNT(*) FROM trajectories
		WHERE user_id = ? AND intent_hash = ? AND success = 1`,
		userID, intentHash).Scan(&best, &count)
	if err != nil {
		return 0, 0, err
	}
	return best.Float64, count, nil
}

// AvgToolCount returns the historical average tool count for an intent.
func (s *Store) AvgToolCount(userID, intentHash string) (float64, error) {
	var avg sql.NullFloat64
	err := s.db.QueryRow(`SELECT AVG(tool_count) FROM trajectories
		WHERE user_id = ? AND intent_hash = ?`,
		userID, intentHash).Scan(&avg)
	if err != nil {
		return 0, err
	}
	return avg.Float64, nil
}

// PromoteGolden makes trajectoryID the single golden path for
// (user, intent_hash): the prior golden is unset first, in one transaction.
func (s *Store) PromoteGolden(userID, intentHash, trajectoryID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE trajectories SET is_golden = 0
		WHERE user_id = ? AND intent_hash = ? AND is_golden = 1`,
		userID, intentHash); err != nil {
		return fmt.Errorf("unset prior golden: %w", err)
	}
	if _, err := tx.Exec(`UPDATE trajectories SET is_golden = 1 WHERE id = ?`,
		trajectoryID); err != nil {
		return fmt.Errorf("set golden: %w", err)
	}
	return tx.Commit()
}

// GoldenTrajectory returns the golden trajectory for an intent, or nil.
func (s *Store) GoldenTrajectory(userID, intentHash string) (*Trajectory, error) {
	var t Trajectory
	err := s.db.QueryRow(`SELECT id, user_id, conversation_id, turn, tool_sequence,
		total_duration_ms, success, efficiency_score, intent_hash, intent_label, tool_count, is_golden, created_at
		FROM trajectories WHERE user_id = ? AND intent_hash = ? AND is_golden = 1`,
		userID, intentHash).Scan(
		&t.ID, &t.UserID, &t.ConversationID, &t.Turn, &t.ToolSequence,
		&t.TotalDurationMs, &t.Success, &t.EfficiencyScore, &t.IntentHash, &t.IntentLabel,
		&t.ToolCount, &t.IsGolden, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CountGolden returns how many trajectories carry the golden flag for an
// intent. The invariant is that this never exceeds 1.
func (s *Store) CountGolden(userID, intentHash string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM trajectories
		WHERE user_id = ? AND intent_hash = ? AND is_golden = 1`,
		userID, intentHash).Scan(&n)
	return n, err
}
