package normalisers

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/normalisers/docx"
	"github.com/custodia-labs/ragchat/internal/normalisers/html"
	"github.com/custodia-labs/ragchat/internal/normalisers/markdown"
	"github.com/custodia-labs/ragchat/internal/normalisers/pdf"
	"github.com/custodia-labs/ragchat/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches raw documents to the normaliser for their format.
type Registry struct {
	mu     sync.RWMutex
	byType map[domain.Format]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[domain.Format]driven.Normaliser)}
}

// NewDefaultRegistry creates a registry with every built-in normaliser.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(html.New())
	r.Register(markdown.New())
	r.Register(plaintext.New())
	return r
}

// Register adds a normaliser for each format it supports, replacing any
// earlier registration for the same format.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range n.SupportedFormats() {
		r.byType[f] = n
	}
}

// SupportedFormats returns registered formats in canonical order.
func (r *Registry) SupportedFormats() []domain.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var formats []domain.Format
	for _, f := range domain.SupportedFormats() {
		if _, ok := r.byType[f]; ok {
			formats = append(formats, f)
		}
	}
	return formats
}

// Normalise resolves the format from raw.Format, or from the filename when
// unset, and runs the matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	format := raw.Format
	if format == "" {
		var err error
		format, err = domain.ParseFormat(raw.Filename)
		if err != nil {
			return nil, err
		}
		raw.Format = format
	}

	r.mu.RLock()
	n, ok := r.byType[format]
	r.mu.RUnlock()
	if !ok {
		return nil, &domain.UnsupportedFormatError{Extension: string(format), Supported: r.SupportedFormats()}
	}

	result, err := n.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalising %s: %w", raw.Filename, err)
	}
	return result, nil
}
