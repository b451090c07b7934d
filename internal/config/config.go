// Package config provides configuration types and loading for steward.
package config

import "time"

// Config is the root configuration struct.
// Top-level groups: Paths, Model, Provider, Server, Orchestrator, Dispatch,
// Notify, Ingest.
type Config struct {
	Paths        PathsConfig        `json:"paths"`
	Model        ModelConfig        `json:"model"`
	Provider     ProviderConfig     `json:"provider"`
	Server       ServerConfig       `json:"server"`
	Orchestrator OrchestratorConfig `json:"orchestrator"`
	Dispatch     DispatchConfig     `json:"dispatch"`
	Notify       NotifyConfig       `json:"notify"`
	Ingest       IngestConfig       `json:"ingest"`
}

// PathsConfig groups filesystem path settings.
type PathsConfig struct {
	DataDir string `json:"dataDir" envconfig:"DATA_DIR"`
	DBPath  string `json:"dbPath" envconfig:"DB_PATH"`
}

// ModelConfig groups LLM model and agent-loop settings.
type ModelConfig struct {
	Strong            string  `json:"strong" envconfig:"MODEL_STRONG"`
	Fast              string  `json:"fast" envconfig:"MODEL_FAST"`
	MaxTokens         int     `json:"maxTokens" envconfig:"MAX_TOKENS"`
	Temperature       float64 `json:"temperature" envconfig:"TEMPERATURE"`
	MaxToolIterations int     `json:"maxToolIterations" envconfig:"MAX_TOOL_ITERATIONS"`
	ContextBudgetTok  int     `json:"contextBudgetTokens" envconfig:"CONTEXT_BUDGET_TOKENS"`
}

// ProviderConfig contains upstream LLM API settings.
type ProviderConfig struct {
	APIKey     string        `json:"apiKey" envconfig:"ANTHROPIC_API_KEY"`
	APIBase    string        `json:"apiBase,omitempty" envconfig:"ANTHROPIC_API_BASE"`
	Timeout    time.Duration `json:"timeout" envconfig:"PROVIDER_TIMEOUT"`
	MaxRetries int           `json:"maxRetries" envconfig:"PROVIDER_MAX_RETRIES"`
}

// ServerConfig contains HTTP entry-point settings. TokenUsers maps bearer
// tokens to the user each one acts for (env form: "tok1:alice,tok2:bob");
// BearerToken is a single-user fallback resolving to "owner".
type ServerConfig struct {
	Addr        string            `json:"addr" envconfig:"SERVER_ADDR"`
	BearerToken string            `json:"bearerToken" envconfig:"SERVER_BEARER_TOKEN"`
	TokenUsers  map[string]string `json:"tokenUsers" envconfig:"SERVER_TOKEN_USERS"`
	CronSecret  string            `json:"cronSecret" envconfig:"SERVER_CRON_SECRET"`
}

// OrchestratorConfig bounds batch processing.
type OrchestratorConfig struct {
	RuntimeBudget  time.Duration `json:"runtimeBudget" envconfig:"RUNTIME_BUDGET"`
	EventBatchSize int           `json:"eventBatchSize" envconfig:"EVENT_BATCH_SIZE"`
	MaxConcurrency int           `json:"maxConcurrency" envconfig:"MAX_CONCURRENCY"`
}

// DispatchConfig configures the external tool dispatcher.
type DispatchConfig struct {
	BaseURL string        `json:"baseUrl" envconfig:"DISPATCH_BASE_URL"`
	Token   string        `json:"token" envconfig:"DISPATCH_TOKEN"`
	Timeout time.Duration `json:"timeout" envconfig:"DISPATCH_TIMEOUT"`
}

// NotifyConfig configures the one-way notification channel.
type NotifyConfig struct {
	Enabled         bool   `json:"enabled" envconfig:"NOTIFY_ENABLED"`
	SlackWebhookURL string `json:"slackWebhookUrl" envconfig:"SLACK_WEBHOOK_URL"`
}

// IngestConfig configures the Kafka event intake bridge.
type IngestConfig struct {
	Enabled bool     `json:"enabled" envconfig:"INGEST_ENABLED"`
	Brokers []string `json:"brokers" envconfig:"INGEST_BROKERS"`
	Topic   string   `json:"topic" envconfig:"INGEST_TOPIC"`
	GroupID string   `json:"groupId" envconfig:"INGEST_GROUP_ID"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir: "~/.steward",
			DBPath:  "~/.steward/steward.db",
		},
		Model: ModelConfig{
			Strong:            "claude-sonnet-4-20250514",
			Fast:              "claude-3-5-haiku-20241022",
			MaxTokens:         4096,
			Temperature:       0.7,
			MaxToolIterations: 12,
			ContextBudgetTok:  160000,
		},
		Provider: ProviderConfig{
			Timeout:    120 * time.Second,
			MaxRetries: 3,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8170",
		},
		Orchestrator: OrchestratorConfig{
			RuntimeBudget:  110 * time.Second,
			EventBatchSize: 3,
			MaxConcurrency: 3,
		},
		Dispatch: DispatchConfig{
			Timeout: 30 * time.Second,
		},
		Ingest: IngestConfig{
			Topic:   "steward.events",
			GroupID: "steward-orchestrator",
		},
	}
}
