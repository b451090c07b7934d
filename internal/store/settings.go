package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// GetAutonomySettings returns a user's settings. Users without a row get the
// balanced preset with no overrides.
func (s *Store) GetAutonomySettings(userID string) (*AutonomySettings, error) {
	var a AutonomySettings
	var overridesJSON string
	err := s.db.QueryRow(`SELECT user_id, preset, category_overrides, updated_at
		FROM autonomy_settings WHERE user_id = ?`, userID).Scan(
		&a.UserID, &a.Preset, &overridesJSON, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return &AutonomySettings{
			UserID:            userID,
			Preset:            "balanced",
			CategoryOverrides: map[string]int{},
		}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(overridesJSON), &a.CategoryOverrides); err != nil {
		return nil, fmt.Errorf("decode overrides: %w", err)
	}
	if a.CategoryOverrides == nil {
		a.CategoryOverrides = map[string]int{}
	}
	return &a, nil
}

// UpsertAutonomySettings writes a user's preset and overrides.
func (s *Store) UpsertAutonomySettings(a *AutonomySettings) error {
	overridesJSON, err := json.Marshal(a.CategoryOverrides)
	if err != nil {
		return fmt.Errorf("marshal overrides: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO autonomy_settings (user_id, preset, category_overrides, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET preset = excluded.preset,
			category_overrides = excluded.category_overrides,
			updated_at = excluded.updated_at`,
		a.UserID, a.Preset, string(overridesJSON), time.Now())
	if err != nil {
		return fmt.Errorf("upsert autonomy settings: %w", err)
	}
	return nil
}
