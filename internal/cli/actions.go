package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stewardhq/steward/internal/config"
)

var (
	actionsUser    string
	actionsApprove bool
	actionsReject  bool
)

var actionsCmd = &cobra.Command{
	Use:   "actions [action-id]",
	Short: "List pending approvals, or resolve one with --approve / --reject",
	Args:  cobra.MaximumNArgs(1),
	Run:   runActions,
}

func init() {
	actionsCmd.Flags().StringVarP(&actionsUser, "user", "u", "owner", "User whose actions to list")
	actionsCmd.Flags().BoolVar(&actionsApprove, "approve", false, "Approve the given action and execute it")
	actionsCmd.Flags().BoolVar(&actionsReject, "reject", false, "Reject the given action")
}

func runActions(cmd *cobra.Command, args []string) {
	printHeader("⏳ Pending Actions")

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

	if len(args) == 1 {
		resolveAction(eng, args[0])
		return
	}

	actions, err := eng.st.ListPendingActions(actionsUser)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if len(actions) == 0 {
		fmt.Println("Nothing waiting for approval.")
		return
	}
	for _, a := range actions {
		fmt.Printf("%s  %s  %s\n", color.CyanString(a.ID), a.ToolName, a.CreatedAt.Format("2006-01-02 15:04"))
		if a.Recommendation != "" {
			fmt.Println("    " + a.Recommendation)
		}
		fmt.Println("    params: " + a.ToolParams)
	}
	fmt.Printf("\n%d action(s). Resolve with: steward actions <id> --approve | --reject\n", len(actions))
}

func resolveAction(eng *engine, actionID string) {
	if actionsApprove == actionsReject {
		fmt.Println("Error: pass exactly one of --approve or --reject")
		os.Exit(1)
	}

	res, err := eng.gate.Resolve(context.Background(), actionID, actionsApprove, actionsUser)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if !actionsApprove {
		fmt.Println(color.YellowString("Rejected."))
		return
	}
	if res.Success {
		fmt.Println(color.GreenString("Approved and executed."))
		if len(res.Data) > 0 {
			fmt.Println(string(res.Data))
		}
		return
	}
	fmt.Println(color.RedString("Approved, but execution failed: " + res.Error))
}
