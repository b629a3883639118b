package driven

import "context"

// VectorIndex is the episodic-memory sidecar: a nearest-neighbour index of
// task embeddings keyed by task ID. It is derived data and never the source
// of truth. Absent entries are never an error.
type VectorIndex interface {
	// EnsureSchema creates the underlying index structure if absent.
	// Repeated calls are no-ops.
	EnsureSchema(ctx context.Context) error

	// Upsert replaces the entry for taskID with the given embedding.
	// The embedding length must equal Dimension().
	Upsert(ctx context.Context, taskID int64, embedding []float32) error

	// Delete removes the entry for taskID. Removing an absent entry is a no-op.
	Delete(ctx context.Context, taskID int64) error

	// Nearest returns up to k entries ordered by ascending L2 distance.
	Nearest(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Reset drops every entry and the recorded dimension, so the index can
	// be rebuilt after the configured dimension changes.
	Reset(ctx context.Context) error

	// Count returns the number of indexed entries.
	Count(ctx context.Context) (int, error)

	// Dimension returns the configured vector length.
	Dimension() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a nearest-neighbour result.
type VectorHit struct {
	// TaskID is the matched task.
	TaskID int64

	// Distance is the L2 distance from the query vector.
	Distance float64
}
