// Package chunker splits document text into fixed-size overlapping
// windows, measured in characters (runes).
package chunker

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// Name is the key the chunker is registered under.
const Name = domain.ChunkerName

// chunkNamespace seeds the name-based chunk IDs.
var chunkNamespace = uuid.MustParse("8f0e2c1a-6b5d-4c1e-9a7f-3d2b1c0e9f8a")

// Processor windows each segment on its own; a window never spans two
// segments.
type Processor struct {
	size    int
	overlap int
}

// New returns a chunker with the given window. It requires
// 0 <= overlap < size so every window advances.
func New(size, overlap int) (*Processor, error) {
	if err := (domain.ChunkingSettings{Size: size, Overlap: overlap}).Validate(); err != nil {
		return nil, fmt.Errorf("%w: chunk size %d with overlap %d", err, size, overlap)
	}
	return &Processor{size: size, overlap: overlap}, nil
}

// Default uses a 1000 character window with 200 characters of overlap.
func Default() *Processor {
	return &Processor{size: domain.DefaultChunkSize, overlap: domain.DefaultChunkOverlap}
}

// Name returns the registry name of the chunker.
func (p *Processor) Name() string { return Name }

// ChunkSize returns the window width in characters.
func (p *Processor) ChunkSize() int { return p.size }

// Overlap returns how many characters consecutive chunks share.
func (p *Processor) Overlap() int { return p.overlap }

// Process ignores incoming chunks and builds new ones from doc.Segments.
// Blank segments are skipped and positions count on across segments.
// Chunk IDs are derived from the document ID and position, so chunking
// the same document twice gives the same IDs.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	var chunks []domain.Chunk

	for _, segment := range doc.Segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(segment) == "" {
			continue
		}
		for window := range p.windows(segment) {
			position := len(chunks)
			chunks = append(chunks, domain.Chunk{
				ID:         chunkID(doc.ID, position),
				DocumentID: doc.ID,
				Content:    window,
				Position:   position,
				Metadata:   map[string]any{},
			})
		}
	}
	return chunks, nil
}

// Split returns the windows of one text, see Count.
func (p *Processor) Split(text string) []string {
	var out []string
	for w := range p.windows(text) {
		out = append(out, w)
	}
	return out
}

// windows starts a window every size-overlap characters and stops after
// the first one that reaches the end of the text.
func (p *Processor) windows(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		runes := []rune(text)
		step := p.size - p.overlap
		for start := 0; start < len(runes); start += step {
			end := min(start+p.size, len(runes))
			if !yield(string(runes[start:end])) || end == len(runes) {
				return
			}
		}
	}
}

// Count is the number of windows for a text of length characters:
// one when length <= size, else ceil((length-overlap)/(size-overlap)).
func Count(length, size, overlap int) int {
	switch {
	case length <= 0:
		return 0
	case length <= size:
		return 1
	}
	step := size - overlap
	return (length - overlap + step - 1) / step
}

func chunkID(documentID string, position int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(documentID+"#"+strconv.Itoa(position))).String()
}
