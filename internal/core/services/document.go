package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService lists and deletes catalogued documents.
type DocumentService struct {
	catalog driven.CatalogStore
	deleter *Deleter
	locks   *KeyLocks
}

// NewDocumentService creates a document service. locks should be the set
// given to NewIngestService; nil gives the service locks of its own.
func NewDocumentService(catalog driven.CatalogStore, deleter *Deleter, locks *KeyLocks) *DocumentService {
	if locks == nil {
		locks = NewKeyLocks()
	}
	return &DocumentService{catalog: catalog, deleter: deleter, locks: locks}
}

// List returns every catalogued document, newest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	if s.catalog == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.catalog.ListDocuments(ctx)
}

// Get returns one document or domain.ErrNotFound.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	switch {
	case s.catalog == nil:
		return nil, domain.ErrNotImplemented
	case documentID == "":
		return nil, domain.ErrInvalidInput
	}
	return s.catalog.GetDocument(ctx, documentID)
}

// Delete clears the index first and the catalogue second, so a failed
// index delete leaves the record in place for a retry. Deleting an
// unknown or already deleted ID succeeds with zero chunks removed. A
// document still being ingested is deleted once its chunks are indexed.
func (s *DocumentService) Delete(ctx context.Context, documentID string) (*driving.DeleteResult, error) {
	logger.Section("Delete")
	if documentID == "" {
		return nil, domain.ErrInvalidInput
	}

	unlock, err := s.locks.lock(ctx, documentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	removed, err := s.deleter.Delete(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.DeleteDocument(ctx, documentID); err != nil {
		return nil, fmt.Errorf("deleting catalogue record %s: %w", documentID, err)
	}

	logger.Info("Deleted document %s (%d chunks)", documentID, removed)
	return &driving.DeleteResult{DocumentID: documentID, ChunksRemoved: removed}, nil
}
