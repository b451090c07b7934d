// Package genome tracks per-user, per-tool execution statistics. The autonomy
// gate reads a confidence score from here before letting a tool run without
// approval.
package genome

import (
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/stewardhq/steward/internal/store"
)

// emaAlpha weights the newest run at 20 percent.
const emaAlpha = 0.2

// neutralConfidence applies when a tool has no execution history yet.
const neutralConfidence = 0.6

// recencyHorizon is the age at which the recency component reaches zero.
const recencyHorizon = 30 * 24 * time.Hour

// Tracker records and scores tool executions.
type Tracker struct {
	db  *sql.DB
	log *slog.Logger
}

// New creates a tracker on the shared database.
func New(db *sql.DB, log *slog.Logger) *Tracker {
	return &Tracker{db: db, log: log}
}

// RecordRun upserts the aggregate row for one tool execution. Nil trackers
// are safe no-ops so call sites can fire and forget.
func (t *Tracker) RecordRun(userID, toolName string, durationMs int64, success bool) error {
	if t == nil || t.db == nil || toolName == "" {
		return nil
	}
	successInc := 0
	outcome := 0.0
	if success {
		successInc = 1
		outcome = 1.0
	}
	_, err := t.db.Exec(`INSERT INTO tool_genome (user_id, tool_name, runs, successes, ema_success, ema_duration_ms, last_used)
		VALUES (?, ?, 1, ?, ?, ?, ?)
		ON CONFLICT(user_id, tool_name) DO UPDATE SET
			runs = runs + 1,
			successes = successes + ?,
			ema_success = (1.0 - ?) * ema_success + ? * ?,
			ema_duration_ms = (1.0 - ?) * ema_duration_ms + ? * ?,
			last_used = ?`,
		userID, toolName, successInc, outcome, float64(durationMs), time.Now(),
		successInc,
		emaAlpha, emaAlpha, outcome,
		emaAlpha, emaAlpha, float64(durationMs),
		time.Now())
	if err != nil {
		return fmt.Errorf("record run %s: %w", toolName, err)
	}
	return nil
}

// Stat returns the aggregate row for a tool, or nil when the tool has never
// run for this user.
func (t *Tracker) Stat(userID, toolName string) (*store.GenomeStat, error) {
	if t == nil || t.db == nil {
		return nil, nil
	}
	var g store.GenomeStat
	var lastUsed sql.NullTime
	err := t.db.QueryRow(`SELECT user_id, tool_name, runs, successes, ema_success, ema_duration_ms, last_used
		FROM tool_genome WHERE user_id = ? AND tool_name = ?`, userID, toolName).Scan(
		&g.UserID, &g.ToolName, &g.Runs, &g.Successes, &g.EMASuccess, &g.EMADurationMs, &lastUsed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		g.LastUsed = lastUsed.Time
	}
	return &g, nil
}

// Confidence scores how safely a tool can run unattended for this user.
// composite = 0.5*successRate + 0.3*recency + 0.2*consistency, where recency
// is the EMA of recent outcomes decayed by staleness and consistency
// penalizes drift between the EMA and the lifetime rate. A tool with no
// history scores the neutral 0.6 so new tools are neither trusted nor
// punished.
func (t *Tracker) Confidence(userID, toolName string) float64 {
	stat, err := t.Stat(userID, toolName)
	if err != nil {
		if t != nil && t.log != nil {
			t.log.Debug("confidence lookup failed", "tool", toolName, "error", err)
		}
		return neutralConfidence
	}
	if stat == nil || stat.Runs == 0 {
		return neutralConfidence
	}

	successRate := float64(stat.Successes) / float64(stat.Runs)

	age := time.Since(stat.LastUsed)
	freshness := 1.0 - age.Seconds()/recencyHorizon.Seconds()
	freshness = math.Max(0, math.Min(1, freshness))
	recency := stat.EMASuccess * freshness

	consistency := 1.0 - math.Abs(stat.EMASuccess-successRate)

	return 0.5*successRate + 0.3*recency + 0.2*consistency
}

// TopTools returns the user's most exercised tools, most runs first.
func (t *Tracker) TopTools(userID string, limit int) ([]store.GenomeStat, error) {
	if t == nil || t.db == nil {
		return nil, nil
	}
	rows, err := t.db.Query(`SELECT user_id, tool_name, runs, successes, ema_success, ema_duration_ms, last_used
		FROM tool_genome WHERE user_id = ? ORDER BY runs DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.GenomeStat
	for rows.Next() {
		var g store.GenomeStat
		var lastUsed sql.NullTime
		if err := rows.Scan(&g.UserID, &g.ToolName, &g.Runs, &g.Successes, &g.EMASuccess, &g.EMADurationMs, &lastUsed); err != nil {
			return nil, err
		}
		if lastUsed.Valid {
			g.LastUsed = lastUsed.Time
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
