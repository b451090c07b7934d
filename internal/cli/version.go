package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stewardhq/steward/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🏷️ Steward Version")
		fmt.Printf("Version: %s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("📊 Steward Status")
		fmt.Printf("Version: %s\n", version)

		path, err := config.ConfigPath()
		if err == nil {
			if _, statErr := os.Stat(path); statErr == nil {
				fmt.Println("Config:   ✓ Found (" + path + ")")
			} else {
				fmt.Println("Config:   ✗ Not found (defaults plus environment apply)")
			}
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Println("API Key:  ? Unable to load config")
			return
		}
		if cfg.Provider.APIKey != "" {
			fmt.Println("API Key:  ✓ Found")
		} else {
			fmt.Println("API Key:  ✗ Not found (set STEWARD_ANTHROPIC_API_KEY)")
		}
		if _, err := os.Stat(cfg.Paths.DBPath); err == nil {
			fmt.Println("Database: ✓ Found (" + cfg.Paths.DBPath + ")")
		} else {
			fmt.Println("Database: ✗ Not created yet")
		}
		if cfg.Dispatch.BaseURL != "" {
			fmt.Println("Dispatch: ✓ Configured (" + cfg.Dispatch.BaseURL + ")")
		} else {
			fmt.Println("Dispatch: ✗ No tool backend configured")
		}
		if cfg.Ingest.Enabled {
			fmt.Println("Ingest:   ✓ Kafka enabled (" + cfg.Ingest.Topic + ")")
		} else {
			fmt.Println("Ingest:   ✗ Disabled")
		}
		fmt.Println("Status:   Ready")
	},
}
