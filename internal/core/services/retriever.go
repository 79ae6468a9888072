package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Retriever finds the chunks closest to a query across all documents.
type Retriever struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
}

// NewRetriever creates a retriever.
func NewRetriever(embedder driven.EmbeddingService, index driven.VectorIndex) *Retriever {
	return &Retriever{embedder: embedder, index: index}
}

// Retrieve embeds the query and returns at most k chunks, best first.
// Ordering and tie-breaking are those of the index: descending cosine
// similarity, then entry ID ascending.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1", domain.ErrInvalidInput)
	}
	if r.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	hits, err := r.index.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	results := make([]domain.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		results = append(results, domain.RetrievedChunk{
			Chunk: chunkFromEntry(hit.VectorEntry),
			Score: hit.Similarity,
		})
		logger.Debug("  hit %s doc=%s score=%.4f", hit.ID, hit.Metadata[driven.MetaDocumentID], hit.Similarity)
	}
	return results, nil
}

func chunkFromEntry(entry driven.VectorEntry) domain.Chunk {
	position, _ := strconv.Atoi(entry.Metadata[driven.MetaPosition])
	metadata := make(map[string]any, len(entry.Metadata))
	for k, v := range entry.Metadata {
		metadata[k] = v
	}
	return domain.Chunk{
		ID:         entry.ID,
		DocumentID: entry.Metadata[driven.MetaDocumentID],
		Content:    entry.Content,
		Position:   position,
		Metadata:   metadata,
	}
}
