package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stewardhq/steward/internal/agent"
	"github.com/stewardhq/steward/internal/config"
	"github.com/stewardhq/steward/internal/store"
)

const cliSystemPrompt = "You are Steward, a property-management assistant chatting with " +
	"the landlord from their terminal. Use your tools to answer questions and carry out " +
	"requests. Actions beyond the landlord's autonomy settings are held for their " +
	"explicit approval; when that happens, explain what is waiting and why."

var (
	chatMessage string
	chatUser    string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Send one message to the agent from the terminal",
	Run:   runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Message to send to the agent")
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "owner", "User the agent acts for")
}

func runChat(cmd *cobra.Command, args []string) {
	if chatMessage == "" {
		fmt.Println("Error: --message is required")
		os.Exit(1)
	}

	printHeader("🤖 Steward Chat")

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

	conversationID := store.NewID()
	system := cliSystemPrompt
	if hint := eng.recorder.GoldenHint(chatUser, chatMessage, nil); hint != "" {
		system += "\n\n" + hint
	}

	fmt.Println("Thinking...")
	res, err := eng.loop.Run(context.Background(), agent.Input{
		UserID:         chatUser,
		ConversationID: conversationID,
		System:         system,
		Goal:           chatMessage,
		Model:          eng.router.Pick(chatMessage, 0),
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	eng.recorder.Record(chatUser, conversationID, 0, chatMessage, "chat", res)

	fmt.Println("\n" + res.Response)
	if res.NeedsApproval {
		fmt.Println(color.YellowString("\nOne or more actions are waiting for your approval. Run 'steward actions' to review them."))
	}
}
