package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Model.MaxToolIterations != 12 {
		t.Fatalf("expected default max iterations 12, got %d", cfg.Model.MaxToolIterations)
	}
	if cfg.Orchestrator.RuntimeBudget != 110*time.Second {
		t.Fatalf("expected 110s runtime budget, got %s", cfg.Orchestrator.RuntimeBudget)
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"model":{"strong":"test-model","maxToolIterations":5},"server":{"addr":"0.0.0.0:9999"}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model.Strong != "test-model" {
		t.Fatalf("expected file override for model, got %s", cfg.Model.Strong)
	}
	if cfg.Model.MaxToolIterations != 5 {
		t.Fatalf("expected 5 iterations, got %d", cfg.Model.MaxToolIterations)
	}
	if cfg.Server.Addr != "0.0.0.0:9999" {
		t.Fatalf("expected addr override, got %s", cfg.Server.Addr)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("STEWARD_MAX_TOOL_ITERATIONS", "7")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model.MaxToolIterations != 7 {
		t.Fatalf("expected env override 7, got %d", cfg.Model.MaxToolIterations)
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error without API key")
	}
	cfg.Provider.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}
