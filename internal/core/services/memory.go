package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/taskman/internal/core/domain"
	"github.com/custodia-labs/taskman/internal/core/ports/driven"
	"github.com/custodia-labs/taskman/internal/core/ports/driving"
	"github.com/custodia-labs/taskman/internal/logger"
)

// Ensure MemoryService implements the interface.
var _ driving.MemoryService = (*MemoryService)(nil)

// errSemanticDisabled is reported by Status when no index is configured.
var errSemanticDisabled = fmt.Errorf("semantic search disabled: %w", domain.ErrEmbeddingUnavailable)

// MemoryService exposes the episodic-memory index with matches hydrated
// from the task store. The indexer and similarity services are optional;
// when nil, searches return nothing and Status explains why.
type MemoryService struct {
	tasks      driven.TaskStore
	indexer    *IndexService
	similarity *SimilarityService
}

// NewMemoryService creates a memory service.
func NewMemoryService(
	tasks driven.TaskStore, indexer *IndexService, similarity *SimilarityService,
) *MemoryService {
	return &MemoryService{
		tasks:      tasks,
		indexer:    indexer,
		similarity: similarity,
	}
}

// Search returns tasks semantically close to query, best first.
func (s *MemoryService) Search(
	ctx context.Context, query string, opts domain.SemanticSearchOptions,
) []domain.TaskMatch {
	if s.similarity == nil {
		return []domain.TaskMatch{}
	}
	return s.hydrate(ctx, s.similarity.Search(ctx, query, opts))
}

// FindSimilar returns likely duplicates of text.
func (s *MemoryService) FindSimilar(
	ctx context.Context, text string, opts domain.SemanticSearchOptions,
) []domain.TaskMatch {
	if s.similarity == nil {
		return []domain.TaskMatch{}
	}
	return s.hydrate(ctx, s.similarity.FindSimilar(ctx, text, opts))
}

// Reindex rebuilds the sidecar entry of every stored task.
func (s *MemoryService) Reindex(ctx context.Context) (domain.ReindexStats, error) {
	if s.indexer == nil {
		return domain.ReindexStats{}, errSemanticDisabled
	}
	tasks, err := s.tasks.List(ctx, domain.TaskFilter{})
	if err != nil {
		return domain.ReindexStats{}, fmt.Errorf("list tasks: %w", err)
	}
	return s.indexer.ReindexAll(ctx, tasks), nil
}

// Reset empties the sidecar. Call Reindex afterwards to rebuild it.
func (s *MemoryService) Reset(ctx context.Context) error {
	if s.indexer == nil {
		return errSemanticDisabled
	}
	return s.indexer.Reset(ctx)
}

// Indexed returns the number of sidecar entries.
func (s *MemoryService) Indexed(ctx context.Context) (int, error) {
	if s.indexer == nil {
		return 0, errSemanticDisabled
	}
	return s.indexer.Count(ctx)
}

// Status returns nil when semantic search is usable.
func (s *MemoryService) Status(ctx context.Context) error {
	if s.similarity == nil {
		return errSemanticDisabled
	}
	return s.similarity.Status(ctx)
}

// hydrate attaches task records to matches. Entries whose task no longer
// exists are dropped and pruned from the sidecar.
func (s *MemoryService) hydrate(ctx context.Context, matches []domain.TaskMatch) []domain.TaskMatch {
	out := make([]domain.TaskMatch, 0, len(matches))
	for _, m := range matches {
		task, err := s.tasks.Get(ctx, m.TaskID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Debug("Pruning stale index entry for task %d", m.TaskID)
				if s.indexer != nil {
					s.indexer.OnTaskDeleted(ctx, m.TaskID)
				}
				continue
			}
			logger.Warn("Failed to load task %d: %v", m.TaskID, err)
			continue
		}
		m.Task = task
		out = append(out, m)
	}
	return out
}
