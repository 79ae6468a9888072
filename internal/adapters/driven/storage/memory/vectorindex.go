package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex
// using exhaustive cosine search.
type VectorIndex struct {
	mu      sync.RWMutex
	entries map[string]driven.VectorEntry
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		entries: make(map[string]driven.VectorEntry),
	}
}

// Add stores a batch of entries. A duplicate ID rejects the whole batch.
func (v *VectorIndex) Add(_ context.Context, entries []driven.VectorEntry) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := v.entries[e.ID]; ok {
			return fmt.Errorf("entry %s: %w", e.ID, domain.ErrAlreadyExists)
		}
		if _, ok := seen[e.ID]; ok {
			return fmt.Errorf("entry %s: %w", e.ID, domain.ErrAlreadyExists)
		}
		seen[e.ID] = struct{}{}
	}

	for _, e := range entries {
		v.entries[e.ID] = copyEntry(e)
	}
	return nil
}

// Query returns the k entries most similar to vector.
func (v *VectorIndex) Query(_ context.Context, vector []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, domain.ErrInvalidInput
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	scored := make([]vecmath.Scored, 0, len(v.entries))
	for id, e := range v.entries {
		scored = append(scored, vecmath.Scored{ID: id, Score: vecmath.Cosine(vector, e.Vector)})
	}

	top := vecmath.TopK(scored, k)
	hits := make([]driven.VectorHit, len(top))
	for i, s := range top {
		hits[i] = driven.VectorHit{VectorEntry: copyEntry(v.entries[s.ID]), Similarity: s.Score}
	}
	return hits, nil
}

// Find returns IDs of matching entries ordered by document and position.
func (v *VectorIndex) Find(_ context.Context, filter driven.Filter) ([]string, error) {
	if len(filter) == 0 {
		return nil, fmt.Errorf("%w: empty filter", domain.ErrInvalidInput)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	matched := make([]driven.VectorEntry, 0)
	for _, e := range v.entries {
		if filter.Matches(e.Metadata) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Metadata[driven.MetaDocumentID] != b.Metadata[driven.MetaDocumentID] {
			return a.Metadata[driven.MetaDocumentID] < b.Metadata[driven.MetaDocumentID]
		}
		pa, _ := strconv.Atoi(a.Metadata[driven.MetaPosition])
		pb, _ := strconv.Atoi(b.Metadata[driven.MetaPosition])
		if pa != pb {
			return pa < pb
		}
		return a.ID < b.ID
	})

	ids := make([]string, len(matched))
	for i, e := range matched {
		ids[i] = e.ID
	}
	return ids, nil
}

// DeleteWhere removes every matching entry under one lock.
func (v *VectorIndex) DeleteWhere(_ context.Context, filter driven.Filter) (int, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: empty filter", domain.ErrInvalidInput)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	removed := 0
	for id, e := range v.entries {
		if filter.Matches(e.Metadata) {
			delete(v.entries, id)
			removed++
		}
	}
	return removed, nil
}

// Count returns the number of stored entries.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries), nil
}

// Close is a no-op for the in-memory index.
func (v *VectorIndex) Close() error {
	return nil
}

// copyEntry detaches an entry from caller-owned slices and maps.
func copyEntry(e driven.VectorEntry) driven.VectorEntry {
	out := driven.VectorEntry{ID: e.ID, Content: e.Content}
	if e.Vector != nil {
		out.Vector = append([]float32(nil), e.Vector...)
	}
	if e.Metadata != nil {
		out.Metadata = make(map[string]string, len(e.Metadata))
		for k, val := range e.Metadata {
			out.Metadata[k] = val
		}
	}
	return out
}
