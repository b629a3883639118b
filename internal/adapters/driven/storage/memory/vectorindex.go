package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/taskman/internal/core/domain"
	"github.com/custodia-labs/taskman/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a brute-force in-memory implementation of driven.VectorIndex.
type VectorIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[int64][]float32
}

// NewVectorIndex creates an in-memory vector index for vectors of the given length.
func NewVectorIndex(dimension int) *VectorIndex {
	return &VectorIndex{
		dimension: dimension,
		vectors:   make(map[int64][]float32),
	}
}

// EnsureSchema is a no-op for the memory index.
func (v *VectorIndex) EnsureSchema(_ context.Context) error {
	return nil
}

// Upsert replaces the entry for taskID.
func (v *VectorIndex) Upsert(_ context.Context, taskID int64, embedding []float32) error {
	if len(embedding) != v.dimension {
		return fmt.Errorf("embedding has %d components, want %d: %w",
			len(embedding), v.dimension, domain.ErrDimensionMismatch)
	}
	stored := make([]float32, len(embedding))
	copy(stored, embedding)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.vectors[taskID] = stored
	return nil
}

// Delete removes the entry for taskID.
func (v *VectorIndex) Delete(_ context.Context, taskID int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.vectors, taskID)
	return nil
}

// Nearest returns up to k entries ordered by ascending L2 distance,
// ties broken by ascending task ID.
func (v *VectorIndex) Nearest(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != v.dimension {
		return nil, fmt.Errorf("query has %d components, want %d: %w",
			len(query), v.dimension, domain.ErrDimensionMismatch)
	}
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	v.mu.RLock()
	hits := make([]driven.VectorHit, 0, len(v.vectors))
	for id, vec := range v.vectors {
		hits = append(hits, driven.VectorHit{TaskID: id, Distance: l2(query, vec)})
	}
	v.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].TaskID < hits[j].TaskID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Reset drops every entry.
func (v *VectorIndex) Reset(_ context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vectors = make(map[int64][]float32)
	return nil
}

// Count returns the number of indexed entries.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.vectors), nil
}

// Dimension returns the configured vector length.
func (v *VectorIndex) Dimension() int {
	return v.dimension
}

// Close is a no-op for the memory index.
func (v *VectorIndex) Close() error {
	return nil
}

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
