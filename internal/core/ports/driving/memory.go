package driving

import (
	"context"

	"github.com/custodia-labs/taskman/internal/core/domain"
)

// MemoryService exposes the episodic-memory index to callers.
//
// Search and FindSimilar are advisory: they never return an error, and an
// unavailable index is indistinguishable from "no matches". Status reports
// the reason separately so a caller may print a non-blocking notice.
type MemoryService interface {
	// Search returns tasks semantically close to query, best first.
	Search(ctx context.Context, query string, opts domain.SemanticSearchOptions) []domain.TaskMatch

	// FindSimilar returns likely duplicates of text using stricter defaults.
	FindSimilar(ctx context.Context, text string, opts domain.SemanticSearchOptions) []domain.TaskMatch

	// Reindex rebuilds the index entry of every task.
	Reindex(ctx context.Context) (domain.ReindexStats, error)

	// Reset empties the index so it can be rebuilt with Reindex.
	Reset(ctx context.Context) error

	// Indexed returns the number of entries currently in the index.
	Indexed(ctx context.Context) (int, error)

	// Status returns nil when semantic search is usable, or the reason it is not.
	Status(ctx context.Context) error
}
