package domain

import "time"

// Document is the catalogue record of one ingested file. Its text is held
// by the vector index as chunks; the catalogue keeps identity and
// provenance only.
type Document struct {
	ID       string
	Filename string
	Format   Format

	// Title comes from the file itself when the extractor finds one,
	// otherwise from the filename.
	Title string

	// Segments is the extracted text in source order. It exists only
	// while a document is being ingested and is never stored.
	Segments []string

	Metadata  map[string]any
	CreatedAt time.Time
}

// Chunk is one overlapping window of a document's text. Position counts
// from zero across the whole document, not per segment.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string
	Position   int
	Embedding  []float32
	Metadata   map[string]any
}

// RetrievedChunk pairs a chunk with its cosine similarity to the query.
type RetrievedChunk struct {
	Chunk Chunk
	Score float64
}
