// Package plaintext extracts text files as a single segment.
package plaintext

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/normalisers/docutil"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MetaTitle lets a caller name a text file, which has no title of its own.
const MetaTitle = "title"

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Normaliser decodes plain text files into one segment.
type Normaliser struct{}

// New creates a plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedFormats returns the formats this normaliser handles.
func (n *Normaliser) SupportedFormats() []domain.Format {
	return []domain.Format{domain.FormatText}
}

// Normalise returns the file content as one segment. A byte order mark
// selects UTF-16 decoding; without one the content is read as UTF-8 with
// invalid bytes replaced. Line endings become "\n".
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text, err := decode(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, raw.Filename, err)
	}

	title, _ := raw.Metadata[MetaTitle].(string)
	if title == "" {
		title = docutil.TitleFromFilename(raw.Filename)
	}

	doc := docutil.NewDocument(raw, domain.FormatText, title, []string{text})
	return &driven.NormaliseResult{Document: doc}, nil
}

func decode(content []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, content)
	if err != nil {
		return "", err
	}
	return lineEndings.Replace(string(out)), nil
}
