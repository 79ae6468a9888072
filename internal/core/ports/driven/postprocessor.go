package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// PostProcessor is one stage of chunk production. The first stage
// receives nil chunks and creates them from doc.Segments; later stages
// rewrite the chunks they are given.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline turns a normalised document into positioned,
// non-blank chunks owned by that document.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
