package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/postprocessors/chunker"
)

// Option keys understood by the chunker builder.
const (
	keyChunkSize = "chunk_size"
	keyOverlap   = "overlap"
)

// RegisterDefaults adds the built-in processors to r.
func RegisterDefaults(r *Registry) {
	r.Register(chunker.Name, buildChunker)
}

// buildChunker reads chunk_size and overlap, in characters. A missing
// key takes the default, with the default overlap cut to a quarter of
// a smaller window. An explicit overlap that would stall the window is an
// error rather than being clamped.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	size, hasSize, err := intOption(cfg, keyChunkSize)
	if err != nil {
		return nil, err
	}
	overlap, hasOverlap, err := intOption(cfg, keyOverlap)
	if err != nil {
		return nil, err
	}

	if !hasSize {
		size = domain.DefaultChunkSize
	}
	if !hasOverlap {
		overlap = domain.DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 4
		}
	}
	return chunker.New(size, overlap)
}

// intOption reads key from cfg. Decoded TOML and JSON hand back int64 and
// float64 respectively, so both are accepted alongside int.
func intOption(cfg map[string]any, key string) (int, bool, error) {
	val, ok := cfg[key]
	if !ok {
		return 0, false, nil
	}

	switch v := val.(type) {
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case float64:
		if v != float64(int(v)) {
			return 0, false, fmt.Errorf("%w: %s must be a whole number, got %v", domain.ErrInvalidInput, key, v)
		}
		return int(v), true, nil
	default:
		return 0, false, fmt.Errorf("%w: %s must be a number, got %T", domain.ErrInvalidInput, key, val)
	}
}
