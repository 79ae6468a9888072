package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// DefaultMaxUploadBytes caps the size of an uploaded document.
const DefaultMaxUploadBytes = 32 << 20

// ErrMissingPorts is returned when a required service is not provided.
var ErrMissingPorts = errors.New("httpapi: ingest, document and chat services are required")

// Ports aggregates the driving ports the API serves.
type Ports struct {
	Ingest   driving.IngestService
	Document driving.DocumentService
	Chat     driving.ChatService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Ingest == nil || p.Document == nil || p.Chat == nil {
		return ErrMissingPorts
	}
	return nil
}

// Options tunes the router.
type Options struct {
	// MaxUploadBytes limits multipart uploads. Zero means DefaultMaxUploadBytes.
	MaxUploadBytes int64

	// TempDir receives uploads while they are ingested. Empty means os.TempDir.
	TempDir string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(ports *Ports, opts Options) (*gin.Engine, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.LoggerWithWriter(logger.Writer("http")))
	r.Use(gin.Recovery())

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, CodeRouteNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		fail(c, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})

	h := &handler{ports: ports, opts: opts}

	r.GET("/ping", h.ping)

	r.POST("/upload-doc", h.uploadDoc)
	r.GET("/list-docs", h.listDocs)
	r.POST("/delete-doc", h.deleteDoc)

	r.POST("/chat", h.chat)
	r.GET("/sessions/:session_id/history", h.sessionHistory)

	return r, nil
}

// Serve runs the API on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, engine http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown: %v", err)
		}
	}()

	logger.Info("HTTP API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}
