package domain

import "errors"

// General.
var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotImplemented = errors.New("not implemented")
)

// Ingestion. ErrUnsupportedFormat arrives wrapped in *UnsupportedFormatError.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEmptyDocument     = errors.New("document has no extractable text")
	ErrExtractionFailed  = errors.New("extraction failed")
)

// Providers and the index.
var (
	ErrEmbeddingUnavailable   = errors.New("embedding service unavailable")
	ErrGenerationUnavailable  = errors.New("generation service unavailable")
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
	ErrRateLimited            = errors.New("rate limited")
	ErrIndexWriteFailure      = errors.New("index write failed")
	ErrIndexDeleteFailure     = errors.New("index delete failed")
)

// ErrCatalogInconsistency means a rollback failed after a partial write,
// so the catalogue and the index may disagree until cleaned up by hand.
var ErrCatalogInconsistency = errors.New("catalog and index are inconsistent")
