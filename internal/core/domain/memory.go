package domain

// EmbeddingMode selects the direction of an embedding. Documents and queries
// are embedded with different textual prefixes.
type EmbeddingMode string

// Embedding modes.
const (
	// EmbeddingModeStorage is used when indexing task text.
	EmbeddingModeStorage EmbeddingMode = "storage"

	// EmbeddingModeQuery is used when embedding a search query.
	EmbeddingModeQuery EmbeddingMode = "query"
)

// IsValid returns true if the mode is recognised.
func (m EmbeddingMode) IsValid() bool {
	return m == EmbeddingModeStorage || m == EmbeddingModeQuery
}

// String returns the string representation.
func (m EmbeddingMode) String() string {
	return string(m)
}

// TaskMatch is one hit of a semantic search.
type TaskMatch struct {
	// TaskID identifies the matched task.
	TaskID int64 `json:"task_id"`

	// Similarity is 1/(1+Distance), in (0, 1].
	Similarity float64 `json:"similarity"`

	// Distance is the raw L2 distance reported by the vector index.
	Distance float64 `json:"distance"`

	// Task is the hydrated record. Nil until the task service fills it in.
	Task *Task `json:"task,omitempty"`
}

// SimilarityFromDistance converts an L2 distance into a similarity score.
// The result is monotonically decreasing in distance and bounded in (0, 1].
func SimilarityFromDistance(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1.0 / (1.0 + distance)
}

// NoThreshold disables similarity filtering when used as a threshold.
const NoThreshold = -1.0

// SemanticSearchOptions configures a semantic search.
// Zero values select the configured defaults.
type SemanticSearchOptions struct {
	// Limit is the maximum number of nearest neighbours to consider.
	Limit int

	// Threshold is the minimum similarity a hit must reach. Zero selects
	// the configured default; a negative value keeps every hit.
	Threshold float64
}

// ReindexStats summarises a bulk reindex.
type ReindexStats struct {
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

// Total returns the number of tasks processed.
func (s ReindexStats) Total() int {
	return s.Indexed + s.Failed
}
