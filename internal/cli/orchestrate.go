package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stewardhq/steward/internal/config"
	"github.com/stewardhq/steward/internal/review"
)

var (
	orchestrateMode     string
	orchestrateUser     string
	orchestrateProperty string
)

var orchestrateCmd = &cobra.Command{
	Use:   "orchestrate",
	Short: "Run one orchestration pass: reviews, event queue, due workflows",
	Run:   runOrchestrate,
}

func init() {
	orchestrateCmd.Flags().StringVarP(&orchestrateMode, "mode", "m", "instant", "instant, daily, weekly or monthly")
	orchestrateCmd.Flags().StringVarP(&orchestrateUser, "user", "u", "", "Limit the pass to one user")
	orchestrateCmd.Flags().StringVarP(&orchestrateProperty, "property", "p", "", "Limit daily reviews to one property")
}

func runOrchestrate(cmd *cobra.Command, args []string) {
	printHeader("🗓️ Steward Orchestrator")

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

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Orchestrator.RuntimeBudget+30*time.Second)
	defer cancel()

	start := time.Now()
	var errs []string

	switch orchestrateMode {
	case "instant":
	case review.ModeDaily, review.ModeWeekly, review.ModeMonthly:
		stats := eng.reviews.Run(ctx, orchestrateMode, orchestrateUser, orchestrateProperty)
		fmt.Printf("Reviews:    %d run, %d workflows spawned, %d events queued\n",
			stats.ReviewsRun, stats.WorkflowsSpawned, stats.EventsQueued)
		errs = append(errs, stats.Errors...)
	default:
		fmt.Printf("Unknown mode %q\n", orchestrateMode)
		os.Exit(1)
	}

	summary := eng.processor.ProcessAll(ctx)
	errs = append(errs, summary.Errors...)
	fmt.Printf("Events:     %d processed, %d actions taken\n",
		summary.EventsProcessed, summary.ActionsTaken)

	advanced, wfErrs := eng.advancer.Advance(ctx, time.Now(), 50)
	errs = append(errs, wfErrs...)
	fmt.Printf("Workflows:  %d advanced\n", advanced)
	fmt.Printf("Duration:   %s\n", time.Since(start).Round(time.Millisecond))

	if len(errs) > 0 {
		fmt.Println(color.YellowString("Completed with %d error(s):", len(errs)))
		for _, e := range errs {
			fmt.Println("  - " + e)
		}
		return
	}
	fmt.Println(color.GreenString("Done."))
}
