package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui"
)

var (
	chatSession string
	chatModel   string
)

// runApp starts the TUI program. Replaced in tests.
var runApp = func(app *tui.App) error {
	return app.Run()
}

var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"tui"},
	Short:   "Chat with your documents in the terminal UI",
	Long: `Launch the interactive chat interface.

Controls:
  Enter    - Send question
  Ctrl+N   - New session
  Ctrl+S   - Show or hide sources
  Ctrl+D   - Documents
  PgUp/Dn  - Scroll transcript
  F1       - Help
  Ctrl+C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "session id to resume")
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "generation model (default from settings)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) (err error) {
	// Recover so the terminal state is reported rather than lost.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = errors.New("TUI crashed")
		}
	}()

	if chatService == nil {
		return errors.New("chat service not configured")
	}

	app, err := tui.New(cmd.Context(), tui.Options{
		Chat:      chatService,
		Documents: documentService,
		SessionID: chatSession,
		Model:     chatModel,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := runApp(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	if id := app.SessionID(); id != "" {
		cmd.Printf("Session: %s\n", id)
	}
	return nil
}
