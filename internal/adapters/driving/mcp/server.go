package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Version is reported to clients when no WithVersion option is given.
const Version = "0.1.0"

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// instructions is sent to clients on initialise so assistants know when
// to reach for the tools.
const instructions = `ragchat answers questions from the user's uploaded documents.
Use "ask" for any question the documents may cover, passing the returned session_id back on follow-ups so earlier turns are taken into account.
Use "list_documents" to see what has been uploaded and "delete_document" to remove a document and its chunks.`

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the server version reported to clients.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// WithDocuments enables the document tools and the documents resource.
// Without it they report that no document service is configured.
func WithDocuments(docs driving.DocumentService) Option {
	return func(s *Server) {
		s.docs = docs
	}
}

// Server exposes ragchat as MCP tools and resources.
type Server struct {
	chat    driving.ChatService
	docs    driving.DocumentService
	version string
	server  *mcp.Server
}

// NewServer creates a server answering through chat.
func NewServer(chat driving.ChatService, opts ...Option) (*Server, error) {
	if chat == nil {
		return nil, ErrMissingChatService
	}

	s := &Server{chat: chat, version: Version}
	for _, opt := range opts {
		opt(s)
	}
	s.server = mcp.NewServer(
		&mcp.Implementation{Name: "ragchat", Version: s.version},
		&mcp.ServerOptions{Instructions: instructions},
	)
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves one client over stdin and stdout until ctx is cancelled or
// the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("MCP server running on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler. Every client session shares
// the same server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves streamable HTTP on addr until ctx is cancelled, then
// waits up to shutdownTimeout for open requests.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp shutdown: %v", err)
		}
	}()

	logger.Info("MCP server listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving mcp: %w", err)
	}
	return nil
}
