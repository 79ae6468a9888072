package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// IngestService turns uploaded files into indexed documents.
type IngestService interface {
	// Ingest dispatches the file by extension, chunks and indexes it, and
	// returns the catalogue record. On any failure the record is rolled back.
	Ingest(ctx context.Context, filename string, content []byte) (*domain.Document, error)
}

// DocumentService manages catalogued documents.
type DocumentService interface {
	// List returns all documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Delete removes a document's chunks from the index and then its
	// catalogue record. Deleting an unknown ID succeeds with zero removed.
	Delete(ctx context.Context, documentID string) (*DeleteResult, error)
}

// DeleteResult reports the outcome of a document deletion.
type DeleteResult struct {
	// DocumentID is the requested document.
	DocumentID string

	// ChunksRemoved is the number of index entries removed.
	ChunksRemoved int
}
