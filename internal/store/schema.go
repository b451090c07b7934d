package store

import (
	"time"
)

// Event is a queued domain trigger awaiting orchestration. Events are never
// deleted; processed is flipped exactly once by the queue processor.
type Event struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Priority   string     `json:"priority"`
	Payload    string     `json:"payload"` // opaque JSON
	UserID     string     `json:"user_id"`
	PropertyID string     `json:"property_id,omitempty"`
	Processed  bool       `json:"processed"`
	ErrorText  string     `json:"error_text,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// Event priorities, highest first.
const (
	PriorityInstant = "instant"
	PriorityHigh    = "high"
	PriorityNormal  = "normal"
	PriorityLow     = "low"
)

// PendingAction is a deferred tool invocation awaiting human approval.
type PendingAction struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	ConversationID string     `json:"conversation_id,omitempty"`
	ToolName       string     `json:"tool_name"`
	ToolParams     string     `json:"tool_params"` // JSON
	RequiredLevel  int        `json:"required_level"`
	Status         string     `json:"status"`
	Recommendation string     `json:"recommendation"`
	ResolvedBy     string     `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

const (
	ActionPending  = "pending"
	ActionApproved = "approved"
	ActionRejected = "rejected"
)

// Decision is an immutable audit row for one gate evaluation or execution.
type Decision struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"user_id"`
	DecisionType    string    `json:"decision_type"`
	ToolName        string    `json:"tool_name"`
	Input           string    `json:"input"`  // JSON
	Output          string    `json:"output"` // JSON, empty if never executed
	AutonomyLevel   int       `json:"autonomy_level"`
	Confidence      float64   `json:"confidence"`
	WasAutoExecuted bool      `json:"was_auto_executed"`
	DurationMs      int64     `json:"duration_ms"`
	Reasoning       string    `json:"reasoning"`
	CreatedAt       time.Time `json:"created_at"`
}

const (
	DecisionToolExecution  = "tool_execution"
	DecisionAutonomyGate   = "autonomy_gate"
	DecisionConfidenceGate = "confidence_gate"
	DecisionToolApproved   = "tool_execution_approved"
	DecisionActionRejected = "action_rejected"
)

// Trajectory records the tool-call sequence and outcome of one agentic turn.
type Trajectory struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	ConversationID  string    `json:"conversation_id,omitempty"`
	Turn            int       `json:"turn"`
	ToolSequence    string    `json:"tool_sequence"` // JSON array of {name, input_summary}
	TotalDurationMs int64     `json:"total_duration_ms"`
	Success         bool      `json:"success"`
	EfficiencyScore float64   `json:"efficiency_score"`
	IntentHash      string    `json:"intent_hash"`
	IntentLabel     string    `json:"intent_label"`
	ToolCount       int       `json:"tool_count"`
	IsGolden        bool      `json:"is_golden"`
	CreatedAt       time.Time `json:"created_at"`
}

// WorkflowStep is one step of a persisted multi-step plan.
type WorkflowStep struct {
	Name        string         `json:"name"`
	Status      string         `json:"status"`
	ToolName    string         `json:"tool_name,omitempty"`
	ToolParams  map[string]any `json:"tool_params,omitempty"`
	Result      string         `json:"result,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// Workflow is a persisted, resumable multi-step plan.
type Workflow struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	PropertyID   string         `json:"property_id,omitempty"`
	TenancyID    string         `json:"tenancy_id,omitempty"`
	WorkflowType string         `json:"workflow_type"`
	Steps        []WorkflowStep `json:"steps"`
	CurrentStep  int            `json:"current_step"`
	TotalSteps   int            `json:"total_steps"`
	Status       string         `json:"status"`
	NextActionAt *time.Time     `json:"next_action_at,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

const (
	WorkflowActive    = "active"
	WorkflowCompleted = "completed"
	WorkflowFailed    = "failed"

	StepPending   = "pending"
	StepCompleted = "completed"
)

// AutonomySettings holds a user's preset and per-category level overrides.
type AutonomySettings struct {
	UserID            string         `json:"user_id"`
	Preset            string         `json:"preset"`
	CategoryOverrides map[string]int `json:"category_overrides"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// GenomeStat holds rolling per-tool, per-user execution statistics.
type GenomeStat struct {
	UserID        string    `json:"user_id"`
	ToolName      string    `json:"tool_name"`
	Runs          int       `json:"runs"`
	Successes     int       `json:"successes"`
	EMASuccess    float64   `json:"ema_success"`
	EMADurationMs float64   `json:"ema_duration_ms"`
	LastUsed      time.Time `json:"last_used"`
}

const Schema = `
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	priority TEXT NOT NULL DEFAULT 'normal',
	payload TEXT NOT NULL DEFAULT '{}',
	user_id TEXT NOT NULL,
	property_id TEXT DEFAULT '',
	processed BOOLEAN NOT NULL DEFAULT 0,
	error_text TEXT DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	processed_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_events_pending ON events(processed, priority, created_at);
CREATE INDEX IF NOT EXISTS idx_events_user ON events(user_id);

CREATE TABLE IF NOT EXISTS pending_actions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	conversation_id TEXT DEFAULT '',
	tool_name TEXT NOT NULL,
	tool_params TEXT NOT NULL DEFAULT '{}',
	required_level INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending',
	recommendation TEXT DEFAULT '',
	resolved_by TEXT DEFAULT '',
	resolved_at DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_pending_actions_status ON pending_actions(user_id, status);

CREATE TABLE IF NOT EXISTS decisions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	decision_type TEXT NOT NULL,
	tool_name TEXT NOT NULL,
	input TEXT DEFAULT '{}',
	output TEXT DEFAULT '',
	autonomy_level INTEGER NOT NULL DEFAULT 0,
	confidence REAL NOT NULL DEFAULT 0,
	was_auto_executed BOOLEAN NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	reasoning TEXT DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_decisions_user ON decisions(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_decisions_tool ON decisions(tool_name);

CREATE TABLE IF NOT EXISTS trajectories (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	conversation_id TEXT DEFAULT '',
	turn INTEGER NOT NULL DEFAULT 0,
	tool_sequence TEXT NOT NULL DEFAULT '[]',
	total_duration_ms INTEGER NOT NULL DEFAULT 0,
	success BOOLEAN NOT NULL DEFAULT 0,
	efficiency_score REAL NOT NULL DEFAULT 0,
	intent_hash TEXT NOT NULL,
	intent_label TEXT DEFAULT '',
	tool_count INTEGER NOT NULL DEFAULT 0,
	is_golden BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_trajectories_intent ON trajectories(user_id, intent_hash);
CREATE INDEX IF NOT EXISTS idx_trajectories_golden ON trajectories(user_id, intent_hash, is_golden);

CREATE TABLE IF NOT EXISTS workflows (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	property_id TEXT DEFAULT '',
	tenancy_id TEXT DEFAULT '',
	workflow_type TEXT NOT NULL,
	steps TEXT NOT NULL DEFAULT '[]',
	current_step INTEGER NOT NULL DEFAULT 0,
	total_steps INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'active',
	next_action_at DATETIME,
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_workflows_due ON workflows(status, next_action_at);
CREATE INDEX IF NOT EXISTS idx_workflows_user ON workflows(user_id);

CREATE TABLE IF NOT EXISTS autonomy_settings (
	user_id TEXT PRIMARY KEY,
	preset TEXT NOT NULL DEFAULT 'balanced',
	category_overrides TEXT NOT NULL DEFAULT '{}',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tool_genome (
	user_id TEXT NOT NULL,
	tool_name TEXT NOT NULL,
	runs INTEGER NOT NULL DEFAULT 0,
	successes INTEGER NOT NULL DEFAULT 0,
	ema_success REAL NOT NULL DEFAULT 0,
	ema_duration_ms REAL NOT NULL DEFAULT 0,
	last_used DATETIME,
	PRIMARY KEY (user_id, tool_name)
);

-- Domain tables read by the batch review scheduler and proactive scanners.
-- Written by the surrounding product; steward treats them as read-only.
CREATE TABLE IF NOT EXISTS properties (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	address TEXT DEFAULT '',
	status TEXT NOT NULL DEFAULT 'occupied',
	last_inspection_at DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_properties_user ON properties(user_id);

CREATE TABLE IF NOT EXISTS tenancies (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	property_id TEXT NOT NULL,
	tenant_name TEXT DEFAULT '',
	rent_amount REAL NOT NULL DEFAULT 0,
	arrears_amount REAL NOT NULL DEFAULT 0,
	lease_end DATETIME,
	last_rent_review DATETIME,
	status TEXT NOT NULL DEFAULT 'active',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tenancies_user ON tenancies(user_id, status);

CREATE TABLE IF NOT EXISTS maintenance_requests (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	property_id TEXT NOT NULL,
	summary TEXT DEFAULT '',
	urgency TEXT NOT NULL DEFAULT 'routine',
	status TEXT NOT NULL DEFAULT 'open',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_maintenance_open ON maintenance_requests(user_id, status);

CREATE TABLE IF NOT EXISTS compliance_items (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	property_id TEXT NOT NULL,
	item_type TEXT NOT NULL,
	due_at DATETIME,
	status TEXT NOT NULL DEFAULT 'ok',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_compliance_due ON compliance_items(user_id, status, due_at);

CREATE TABLE IF NOT EXISTS payments (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	tenancy_id TEXT NOT NULL,
	amount REAL NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'received',
	received_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_payments_user ON payments(user_id, received_at);
`
