package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

var (
	askSession  string
	askModel    string
	askSources  bool
	askJSON     bool
	historyJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Answers a question using the most relevant passages of the uploaded
documents. Pass --session to continue a conversation; follow-up questions
are rewritten to stand alone before retrieval.

The session id is printed after each answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Show the turns of a chat session",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session id to continue")
	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "generation model (default from settings)")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "show the retrieved chunks")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the response as JSON")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output turns as JSON")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)
}

// sourceJSON is the JSON shape of one retrieved chunk.
type sourceJSON struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename,omitempty"`
	Position   int     `json:"position"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// answerJSON is the JSON shape of an ask response.
type answerJSON struct {
	Answer             string       `json:"answer"`
	SessionID          string       `json:"session_id"`
	Model              string       `json:"model"`
	StandaloneQuestion string       `json:"standalone_question"`
	Sources            []sourceJSON `json:"sources"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	resp, err := chatService.Ask(cmd.Context(), domain.ChatRequest{
		SessionID: askSession,
		Question:  strings.Join(args, " "),
		Model:     askModel,
	})
	if err != nil {
		return fmt.Errorf("failed to answer: %w", describe(err))
	}

	if askJSON {
		out := answerJSON{
			Answer:             resp.Answer,
			SessionID:          resp.SessionID,
			Model:              resp.Model,
			StandaloneQuestion: resp.StandaloneQuestion,
			Sources:            make([]sourceJSON, len(resp.Sources)),
		}
		for i, src := range resp.Sources {
			out.Sources[i] = toSourceJSON(src)
		}
		return printJSON(cmd, out)
	}

	cmd.Println(resp.Answer)
	cmd.Println()
	if askSources && len(resp.Sources) > 0 {
		cmd.Println("Sources:")
		for i, src := range resp.Sources {
			s := toSourceJSON(src)
			name := s.Filename
			if name == "" {
				name = s.DocumentID
			}
			cmd.Printf("  [%d] %s #%d (score %.3f)\n", i+1, name, s.Position, s.Score)
			cmd.Printf("      %s\n", truncate(s.Content, 120))
		}
		cmd.Println()
	}
	cmd.Printf("Session: %s (model %s)\n", resp.SessionID, resp.Model)
	return nil
}

func toSourceJSON(src domain.RetrievedChunk) sourceJSON {
	filename, _ := src.Chunk.Metadata[driven.MetaFilename].(string)
	return sourceJSON{
		DocumentID: src.Chunk.DocumentID,
		Filename:   filename,
		Position:   src.Chunk.Position,
		Score:      src.Score,
		Content:    src.Chunk.Content,
	}
}

// turnJSON is the JSON shape of a stored turn.
type turnJSON struct {
	ID        int64  `json:"id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	turns, err := chatService.History(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load history: %w", describe(err))
	}

	if historyJSON {
		out := make([]turnJSON, len(turns))
		for i, t := range turns {
			out[i] = turnJSON{
				ID:        t.ID,
				Question:  t.Question,
				Answer:    t.Answer,
				Model:     t.Model,
				CreatedAt: t.CreatedAt.UTC().Format(timeFormatJSON),
			}
		}
		return printJSON(cmd, out)
	}

	if len(turns) == 0 {
		cmd.Printf("No turns found for session: %s\n", args[0])
		return nil
	}

	cmd.Printf("Session %s:\n\n", args[0])
	for i, t := range turns {
		cmd.Printf("[%d] %s  %s\n", i+1, t.CreatedAt.Local().Format(timeFormatText), t.Model)
		cmd.Printf("  Q: %s\n", t.Question)
		cmd.Printf("  A: %s\n\n", t.Answer)
	}
	return nil
}

// truncate shortens s to n runes on one line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
