package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stewardhq/steward/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server (and the Kafka intake, when enabled)",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	printHeader("🏠 Steward Server")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		fmt.Printf("Startup error: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if eng.ingest != nil {
		go func() {
			if err := eng.ingest.Run(ctx); err != nil {
				eng.log.Error("event intake stopped", "error", err)
			}
		}()
		fmt.Println("📡 Kafka event intake started")
	}

	fmt.Printf("🤖 Models: %s / %s\n", cfg.Model.Strong, cfg.Model.Fast)
	if err := eng.srv.Serve(ctx, cfg.Server.Addr); err != nil {
		fmt.Printf("Server error: %v\n", err)
		os.Exit(1)
	}
}
