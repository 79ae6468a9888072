package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// Normaliser extracts ordered text segments from the formats it supports.
type Normaliser interface {
	SupportedFormats() []domain.Format
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult wraps the extracted document. Document.ID is left
// empty for the ingest service to assign.
type NormaliseResult struct {
	Document domain.Document
}

// NormaliserRegistry dispatches on format. The set is closed: a format
// with no normaliser fails with *domain.UnsupportedFormatError.
type NormaliserRegistry interface {
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
	Register(normaliser Normaliser)
	SupportedFormats() []domain.Format
}
