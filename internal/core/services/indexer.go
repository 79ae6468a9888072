package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Indexer embeds chunks and writes them to the vector index.
type Indexer struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
}

// NewIndexer creates an indexer. A nil embedder fails every call with
// domain.ErrEmbeddingUnavailable.
func NewIndexer(embedder driven.EmbeddingService, index driven.VectorIndex) *Indexer {
	return &Indexer{embedder: embedder, index: index}
}

// Index tags every chunk with its owning document, embeds all chunk texts
// in one batch and writes them to the index as one atomic batch.
// It does not retry.
func (i *Indexer) Index(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	if len(chunks) == 0 {
		return domain.ErrEmptyDocument
	}
	if i.index == nil {
		return domain.ErrVectorIndexUnavailable
	}
	if i.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}

	texts := make([]string, len(chunks))
	for n := range chunks {
		tagChunk(&chunks[n], doc)
		texts[n] = chunks[n].Content
	}

	logger.Debug("Embedding %d chunks for document %s", len(chunks), doc.ID)
	vectors, err := i.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrEmbeddingUnavailable, len(vectors), len(chunks))
	}
	if err := i.checkDimensions(vectors); err != nil {
		return err
	}

	entries := make([]driven.VectorEntry, len(chunks))
	for n := range chunks {
		chunks[n].Embedding = vectors[n]
		entries[n] = driven.VectorEntry{
			ID:       chunks[n].ID,
			Vector:   vectors[n],
			Content:  chunks[n].Content,
			Metadata: entryMetadata(&chunks[n], doc),
		}
	}

	if err := i.index.Add(ctx, entries); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexWriteFailure, err)
	}
	logger.Debug("Indexed %d entries for document %s", len(entries), doc.ID)
	return nil
}

// checkDimensions rejects vectors whose length differs from what the model
// advertises. A model that advertises zero is unknown and not checked.
func (i *Indexer) checkDimensions(vectors [][]float32) error {
	want := i.embedder.Dimensions()
	if want <= 0 {
		return nil
	}
	for _, v := range vectors {
		if len(v) != want {
			return fmt.Errorf("%w: %s returned %d dimensions, expected %d",
				domain.ErrEmbeddingUnavailable, i.embedder.ModelName(), len(v), want)
		}
	}
	return nil
}

func tagChunk(chunk *domain.Chunk, doc *domain.Document) {
	chunk.DocumentID = doc.ID
	if chunk.Metadata == nil {
		chunk.Metadata = make(map[string]any, 3)
	}
	chunk.Metadata[driven.MetaDocumentID] = doc.ID
	chunk.Metadata[driven.MetaPosition] = chunk.Position
	chunk.Metadata[driven.MetaFilename] = doc.Filename
}

func entryMetadata(chunk *domain.Chunk, doc *domain.Document) map[string]string {
	return map[string]string{
		driven.MetaDocumentID: doc.ID,
		driven.MetaPosition:   strconv.Itoa(chunk.Position),
		driven.MetaFilename:   doc.Filename,
	}
}
