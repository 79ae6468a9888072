package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs uploaded files through extraction, chunking and
// indexing, keeping the catalogue in step with the index.
type IngestService struct {
	catalog     driven.CatalogStore
	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	indexer     *Indexer
	locks       *KeyLocks

	now   func() time.Time
	newID func() string
}

// NewIngestService creates an ingest service. Pass the same locks to
// NewDocumentService so a delete waits for an ingest of the same document
// to finish; nil gives the service locks of its own.
func NewIngestService(
	catalog driven.CatalogStore,
	normalisers driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	indexer *Indexer,
	locks *KeyLocks,
) *IngestService {
	if locks == nil {
		locks = NewKeyLocks()
	}
	return &IngestService{
		catalog:     catalog,
		normalisers: normalisers,
		pipeline:    pipeline,
		indexer:     indexer,
		locks:       locks,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Ingest indexes content under filename and returns the catalogue record.
func (s *IngestService) Ingest(ctx context.Context, filename string, content []byte) (*domain.Document, error) {
	return s.IngestWithMetadata(ctx, filename, content, nil)
}

// IngestWithMetadata is Ingest with extra catalogue metadata, such as the
// source path of a watched file.
//
// The format is checked before anything else. Once the catalogue record
// exists, any failure deletes it again; if that delete also fails the
// error includes domain.ErrCatalogInconsistency.
func (s *IngestService) IngestWithMetadata(
	ctx context.Context, filename string, content []byte, metadata map[string]any,
) (*domain.Document, error) {
	logger.Section("Ingest")
	name := filepath.Base(filename)
	if filename == "" || name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}

	format, err := domain.ParseFormat(name)
	if err != nil {
		logger.Debug("Rejected %q: %v", name, err)
		return nil, err
	}

	raw := &domain.RawDocument{
		Filename: name,
		Format:   format,
		Content:  content,
		Metadata: metadata,
	}
	result, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", name, err)
	}

	doc := result.Document
	doc.ID = s.newID()
	doc.Filename = name
	doc.Format = format
	doc.CreatedAt = s.now().UTC()
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	maps.Copy(doc.Metadata, metadata)
	logger.Debug("Extracted %d segments from %s", len(doc.Segments), name)

	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		return nil, fmt.Errorf("chunking %s: %w", name, err)
	}
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	doc.Metadata["chunks"] = len(chunks)
	logger.Debug("Split %s into %d chunks", name, len(chunks))

	// The record is listed as soon as it is created. Holding its lock until
	// the chunks are indexed keeps a concurrent Delete from running in
	// between.
	unlock, err := s.locks.lock(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.catalog.CreateDocument(ctx, &doc); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	if err := s.indexer.Index(ctx, &doc, chunks); err != nil {
		return nil, s.rollback(doc.ID, err)
	}

	logger.Info("Ingested %s as %s (%d chunks)", name, doc.ID, len(chunks))
	doc.Segments = nil
	return &doc, nil
}

// rollback removes the catalogue record after a failed index write. It
// runs detached from the request context so a cancelled request still
// cleans up.
func (s *IngestService) rollback(documentID string, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.catalog.DeleteDocument(ctx, documentID); err != nil {
		logger.Warn("Rollback of document %s failed: %v", documentID, err)
		return errors.Join(cause, fmt.Errorf("%w: document %s: %w", domain.ErrCatalogInconsistency, documentID, err))
	}
	logger.Debug("Rolled back catalogue record %s", documentID)
	return cause
}
