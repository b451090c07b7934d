package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stewardhq/steward/internal/agent"
	"github.com/stewardhq/steward/internal/autonomy"
	"github.com/stewardhq/steward/internal/config"
	"github.com/stewardhq/steward/internal/dispatch"
	"github.com/stewardhq/steward/internal/events"
	"github.com/stewardhq/steward/internal/genome"
	"github.com/stewardhq/steward/internal/ingest"
	"github.com/stewardhq/steward/internal/notify"
	"github.com/stewardhq/steward/internal/provider"
	"github.com/stewardhq/steward/internal/registry"
	"github.com/stewardhq/steward/internal/review"
	"github.com/stewardhq/steward/internal/server"
	"github.com/stewardhq/steward/internal/store"
	"github.com/stewardhq/steward/internal/trajectory"
	"github.com/stewardhq/steward/internal/workflow"
)

// engine holds every wired component. Commands build one, use the parts
// they need, and Close it on the way out.
type engine struct {
	cfg       *config.Config
	log       *slog.Logger
	st        *store.Store
	reg       *registry.Registry
	gate      *autonomy.Gate
	router    provider.Router
	loop      *agent.Loop
	recorder  *trajectory.Recorder
	notifier  *notify.Notifier
	processor *events.Processor
	reviews   *review.Scheduler
	advancer  *workflow.Advancer
	ingest    *ingest.Reader
	srv       *server.Server
}

// buildEngine wires the full component graph from config. Validate must have
// been called already; a bad API key fails at the first provider call, not here.
func buildEngine(cfg *config.Config) (*engine, error) {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if cfg.Paths.DataDir != "" {
		if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	dbPath := cfg.Paths.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(cfg.Paths.DataDir, "steward.db")
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	reg := registry.New()
	tracker := genome.New(st.DB(), log)
	dispatcher := dispatch.NewHTTP(cfg.Dispatch.BaseURL, cfg.Dispatch.Token, cfg.Dispatch.Timeout, log)
	gate := autonomy.New(reg, st, tracker, dispatcher, log)

	gateway := provider.NewClient(cfg.Provider.APIKey, cfg.Provider.APIBase,
		cfg.Provider.Timeout, cfg.Provider.MaxRetries, log)
	router := provider.Router{Strong: cfg.Model.Strong, Fast: cfg.Model.Fast}

	loop := agent.New(gateway, gate, reg, log, agent.Options{
		MaxIterations: cfg.Model.MaxToolIterations,
		MaxTokens:     cfg.Model.MaxTokens,
		ContextBudget: cfg.Model.ContextBudgetTok,
		Temperature:   cfg.Model.Temperature,
		Concurrency:   cfg.Orchestrator.MaxConcurrency,
	})

	recorder := trajectory.NewRecorder(st, log)

	var notifier *notify.Notifier
	if cfg.Notify.Enabled {
		notifier = notify.New(cfg.Notify.SlackWebhookURL, log)
	}
	gate.SetNotifier(notifier)

	processor := events.NewProcessor(st, loop, router, recorder, notifier, log,
		cfg.Orchestrator.EventBatchSize, cfg.Orchestrator.RuntimeBudget)
	reviews := review.NewScheduler(st, loop, router, recorder, log)
	advancer := workflow.NewAdvancer(st, loop, router, log)

	var intake *ingest.Reader
	if cfg.Ingest.Enabled {
		intake = ingest.New(cfg.Ingest.Brokers, cfg.Ingest.Topic, cfg.Ingest.GroupID, st, log)
	}

	srv := server.New(st, loop, gate, router, processor, reviews, advancer,
		recorder, notifier, log, server.Config{
			BearerToken: cfg.Server.BearerToken,
			TokenUsers:  cfg.Server.TokenUsers,
			CronSecret:  cfg.Server.CronSecret,
		})

	return &engine{
		cfg: cfg, log: log, st: st, reg: reg, gate: gate, router: router,
		loop: loop, recorder: recorder, notifier: notifier,
		processor: processor, reviews: reviews, advancer: advancer,
		ingest: intake, srv: srv,
	}, nil
}

// Close drains async audit writes and closes the store.
func (e *engine) Close() {
	e.gate.Wait()
	_ = e.st.Close()
}
