package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Deleter removes every index entry owned by a document.
type Deleter struct {
	index driven.VectorIndex
}

// NewDeleter creates a deleter over the given index.
func NewDeleter(index driven.VectorIndex) *Deleter {
	return &Deleter{index: index}
}

// Delete looks up the document's entries, then removes them in one
// filtered delete. An unknown document removes nothing and succeeds.
func (d *Deleter) Delete(ctx context.Context, documentID string) (int, error) {
	if documentID == "" {
		return 0, domain.ErrInvalidInput
	}
	if d.index == nil {
		return 0, domain.ErrVectorIndexUnavailable
	}

	filter := driven.Filter{driven.MetaDocumentID: documentID}

	ids, err := d.index.Find(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("%w: lookup: %w", domain.ErrIndexDeleteFailure, err)
	}
	logger.Debug("Found %d index entries for document %s", len(ids), documentID)

	removed, err := d.index.DeleteWhere(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrIndexDeleteFailure, err)
	}
	if removed != len(ids) {
		logger.Warn("Document %s: found %d entries but removed %d", documentID, len(ids), removed)
	}
	logger.Debug("Removed %d index entries for document %s", removed, documentID)
	return removed, nil
}
