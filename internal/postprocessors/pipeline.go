// Package postprocessors turns normalised document segments into indexable
// chunks.
package postprocessors

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

var errNoProcessors = errors.New("pipeline has no processors")

// Pipeline chains PostProcessors. The first stage gets nil chunks and
// creates them from the document; later stages rewrite that list.
type Pipeline struct {
	stages []driven.PostProcessor
}

// NewPipeline creates a pipeline running stages in order.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process runs every stage, then drops blank chunks and renumbers the
// rest from zero under doc.ID. A document that yields nothing returns
// nil, nil.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	switch {
	case doc == nil:
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	case len(p.stages) == 0:
		return nil, errNoProcessors
	}

	var chunks []domain.Chunk
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := stage.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", stage.Name(), err)
		}
		chunks = out
	}

	chunks = slices.DeleteFunc(chunks, func(c domain.Chunk) bool {
		return strings.TrimSpace(c.Content) == ""
	})
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
		chunks[i].Position = i
	}
	logger.Debug("Pipeline produced %d chunks for %s", len(chunks), doc.ID)

	if len(chunks) == 0 {
		return nil, nil
	}
	return chunks, nil
}

// Add appends a stage.
func (p *Pipeline) Add(stage driven.PostProcessor) {
	p.stages = append(p.stages, stage)
}

// Len is the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}
