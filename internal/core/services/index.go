package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/taskman/internal/core/domain"
	"github.com/custodia-labs/taskman/internal/core/ports/driven"
	"github.com/custodia-labs/taskman/internal/logger"
)

// IndexService keeps the vector sidecar consistent with the task store.
//
// IndexTask and RemoveTask report failures explicitly. OnTaskUpserted and
// OnTaskDeleted are the best-effort hooks run after a successful mutation:
// they absorb failures, log them, and report the outcome as a bool.
type IndexService struct {
	embedder *Embedder
	index    driven.VectorIndex
}

// NewIndexService creates an index maintenance service.
func NewIndexService(embedder *Embedder, index driven.VectorIndex) *IndexService {
	return &IndexService{
		embedder: embedder,
		index:    index,
	}
}

// IndexTask embeds the task's searchable text and upserts it into the sidecar.
func (s *IndexService) IndexTask(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == 0 {
		return fmt.Errorf("index task without id: %w", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	if s.index == nil {
		return domain.ErrVectorIndexUnavailable
	}

	vec, err := s.embedder.Embed(ctx, task.SearchableText(), domain.EmbeddingModeStorage)
	if err != nil {
		return fmt.Errorf("embed task %d: %w", task.ID, err)
	}

	if err := s.index.Upsert(ctx, task.ID, vec); err != nil {
		return fmt.Errorf("upsert task %d: %w", task.ID, err)
	}
	return nil
}

// RemoveTask deletes the task's sidecar entry. An absent entry is not an error.
func (s *IndexService) RemoveTask(ctx context.Context, id int64) error {
	if s.index == nil {
		return domain.ErrVectorIndexUnavailable
	}
	if err := s.index.Delete(ctx, id); err != nil {
		return fmt.Errorf("remove task %d: %w", id, err)
	}
	return nil
}

// OnTaskUpserted indexes the task, absorbing any failure.
func (s *IndexService) OnTaskUpserted(ctx context.Context, task *domain.Task) bool {
	if err := s.IndexTask(ctx, task); err != nil {
		logger.Warn("Failed to index task: %v", err)
		return false
	}
	logger.Debug("Indexed task %d", task.ID)
	return true
}

// OnTaskDeleted removes the task from the sidecar, absorbing any failure.
func (s *IndexService) OnTaskDeleted(ctx context.Context, id int64) bool {
	if err := s.RemoveTask(ctx, id); err != nil {
		logger.Warn("Failed to remove task %d from index: %v", id, err)
		return false
	}
	logger.Debug("Removed task %d from index", id)
	return true
}

// ReindexAll indexes every given task, continuing past failures.
func (s *IndexService) ReindexAll(ctx context.Context, tasks []domain.Task) domain.ReindexStats {
	logger.Section("Reindex")
	var stats domain.ReindexStats
	for i := range tasks {
		if s.OnTaskUpserted(ctx, &tasks[i]) {
			stats.Indexed++
		} else {
			stats.Failed++
		}
	}
	logger.Info("Reindexed %d tasks (%d failed)", stats.Indexed, stats.Failed)
	return stats
}

// Reset empties the sidecar so it can be rebuilt, e.g. after the
// configured dimension changes.
func (s *IndexService) Reset(ctx context.Context) error {
	if s.index == nil {
		return domain.ErrVectorIndexUnavailable
	}
	if err := s.index.Reset(ctx); err != nil {
		return fmt.Errorf("reset index: %w", err)
	}
	return nil
}

// Count returns the number of sidecar entries.
func (s *IndexService) Count(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, domain.ErrVectorIndexUnavailable
	}
	n, err := s.index.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count index entries: %w", err)
	}
	return n, nil
}
