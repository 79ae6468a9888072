package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// CatalogStore persists document records.
type CatalogStore interface {
	// CreateDocument inserts a new document record.
	// Returns domain.ErrAlreadyExists if the ID is taken.
	CreateDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if absent.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteDocument removes a document record. Deleting an absent ID succeeds.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all documents, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}

// HistoryStore persists session turns. It is append-only.
type HistoryStore interface {
	// AppendTurn adds a turn to the end of its session.
	AppendTurn(ctx context.Context, turn *domain.Turn) error

	// ListTurns returns a session's turns in insertion order.
	// An unknown session returns an empty slice.
	ListTurns(ctx context.Context, sessionID string) ([]domain.Turn, error)
}
