package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// ChatService answers questions within a session using retrieved context.
type ChatService interface {
	// Ask runs one turn: load history, rewrite the question, retrieve,
	// synthesise an answer and persist the turn. Failed turns persist nothing.
	Ask(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)

	// History returns a session's turns in insertion order.
	History(ctx context.Context, sessionID string) ([]domain.Turn, error)
}

// WatchService keeps a directory in sync with the index.
type WatchService interface {
	// Sync ingests every matching file not yet catalogued.
	Sync(ctx context.Context) (int, error)

	// Run applies file changes until ctx is cancelled.
	Run(ctx context.Context) error
}
