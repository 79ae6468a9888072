package cli

import (
	"errors"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/mcp"
)

var (
	mcpPort int
	mcpHost string
)

// Transports for mcp serve. Replaced in tests.
var (
	runMCPStdio = (*mcp.Server).Run
	runMCPHTTP  = (*mcp.Server).RunHTTP
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Expose ragchat to AI assistants over the Model Context Protocol.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server.

Tools: ask, list_documents, delete_document.
Resources: ragchat://documents, ragchat://sessions/{sessionId}.

The server speaks JSON-RPC over stdio unless --port is given, in which case
it serves streamable HTTP on --host:--port.

Examples:
  # Stdio, for desktop assistants
  ragchat mcp serve

  # HTTP, for MCP Inspector or remote clients
  ragchat mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "ragchat": {
        "command": "/path/to/ragchat",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "127.0.0.1", "HTTP bind address, used with --port")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}
	if mcpPort < 0 || mcpPort > 65535 {
		return errors.New("--port must be between 0 and 65535")
	}

	opts := []mcp.Option{mcp.WithVersion(version)}
	if documentService != nil {
		opts = append(opts, mcp.WithDocuments(documentService))
	}
	server, err := mcp.NewServer(chatService, opts...)
	if err != nil {
		return err
	}

	defer onHangup(cmd.Context(), reloadPrompts)()

	if mcpPort == 0 {
		return runMCPStdio(server, cmd.Context())
	}

	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	cmd.Printf("MCP server listening on http://%s\n", addr)
	return runMCPHTTP(server, cmd.Context(), addr)
}
