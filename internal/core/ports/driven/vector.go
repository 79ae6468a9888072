package driven

import "context"

// VectorIndex stores chunks with their embeddings and answers
// nearest-neighbour queries. Chunks exist only as index entries.
type VectorIndex interface {
	// Add writes a batch of entries. The batch is atomic: either every
	// entry is stored or none is.
	Add(ctx context.Context, entries []VectorEntry) error

	// Query returns up to k entries ordered by descending cosine similarity.
	// Ties are broken by entry ID ascending.
	Query(ctx context.Context, vector []float32, k int) ([]VectorHit, error)

	// Find returns the IDs of entries whose metadata matches the filter,
	// ordered by document then position. An empty filter is rejected
	// with domain.ErrInvalidInput.
	Find(ctx context.Context, filter Filter) ([]string, error)

	// DeleteWhere atomically removes every entry matching the filter and
	// returns how many were removed. No match is not an error. An empty
	// filter is rejected with domain.ErrInvalidInput.
	DeleteWhere(ctx context.Context, filter Filter) (int, error)

	// Count returns the total number of entries.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// Filter is an equality match over entry metadata. All pairs must match.
type Filter map[string]string

// Matches reports whether metadata satisfies every pair in the filter.
// An empty filter matches nothing.
func (f Filter) Matches(metadata map[string]string) bool {
	if len(f) == 0 {
		return false
	}
	for k, v := range f {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

// Metadata keys attached to every indexed chunk.
const (
	MetaDocumentID = "document_id"
	MetaPosition   = "position"
	MetaFilename   = "filename"
)

// VectorEntry is one chunk as stored in the index.
type VectorEntry struct {
	// ID is the chunk ID.
	ID string

	// Vector is the chunk embedding.
	Vector []float32

	// Content is the chunk text.
	Content string

	// Metadata carries document_id, position and filename.
	Metadata map[string]string
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	VectorEntry

	// Similarity is the cosine similarity score.
	Similarity float64
}
