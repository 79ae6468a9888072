package cli

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var (
	serveAddr      string
	serveMaxUpload int64
)

// serveHTTP runs the API server. Replaced in tests.
var serveHTTP = httpapi.Serve

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API server.

Endpoints:
  POST /upload-doc                    multipart file upload
  GET  /list-docs                     list uploaded documents
  POST /delete-doc                    {"file_id": "..."}
  POST /chat                          {"question": "...", "session_id": "...", "model": "..."}
  GET  /sessions/:session_id/history  turns of a session
  GET  /ping                          health check

Every response is an envelope {"code", "message", "data"}.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from settings, "+domain.DefaultServerAddr+")")
	serveCmd.Flags().Int64Var(&serveMaxUpload, "max-upload", httpapi.DefaultMaxUploadBytes, "maximum upload size in bytes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if ingestService == nil || documentService == nil || chatService == nil {
		return errors.New("services not configured")
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	engine, err := httpapi.NewRouter(&httpapi.Ports{
		Ingest:   ingestService,
		Document: documentService,
		Chat:     chatService,
	}, httpapi.Options{MaxUploadBytes: serveMaxUpload})
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}

	addr := serveAddr
	if addr == "" {
		addr = serverAddr
	}
	if addr == "" {
		addr = domain.DefaultServerAddr
	}

	defer onHangup(cmd.Context(), reloadPrompts)()

	cmd.Printf("ragchat API listening on http://%s\n", addr)
	return serveHTTP(cmd.Context(), addr, engine)
}
