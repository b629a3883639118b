package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/taskman/internal/core/domain"
	"github.com/custodia-labs/taskman/internal/core/ports/driven"
	"github.com/custodia-labs/taskman/internal/logger"
)

// SimilarityService turns free text into task IDs ranked by semantic
// similarity. Distances reported by the vector index are converted with
// similarity = 1/(1+d).
type SimilarityService struct {
	embedder         *Embedder
	index            driven.VectorIndex
	searchThreshold  float64
	similarThreshold float64
}

// NewSimilarityService creates a similarity search service.
func NewSimilarityService(
	embedder *Embedder, index driven.VectorIndex, settings domain.SemanticSettings,
) *SimilarityService {
	searchThreshold := settings.SearchThreshold
	if searchThreshold <= 0 {
		searchThreshold = domain.DefaultSearchThreshold
	}
	similarThreshold := settings.SimilarThreshold
	if similarThreshold <= 0 {
		similarThreshold = domain.DefaultSimilarThreshold
	}
	return &SimilarityService{
		embedder:         embedder,
		index:            index,
		searchThreshold:  searchThreshold,
		similarThreshold: similarThreshold,
	}
}

// Search returns up to opts.Limit matches whose similarity reaches
// opts.Threshold, best first. Zero options select the search defaults.
// Any failure yields an empty result.
func (s *SimilarityService) Search(
	ctx context.Context, query string, opts domain.SemanticSearchOptions,
) []domain.TaskMatch {
	opts = withDefaults(opts, domain.DefaultSearchLimit, s.searchThreshold)
	matches, err := s.Query(ctx, query, opts)
	if err != nil {
		logger.Warn("Semantic search failed: %v", err)
		return []domain.TaskMatch{}
	}
	return matches
}

// FindSimilar is Search with duplicate-detection defaults.
func (s *SimilarityService) FindSimilar(
	ctx context.Context, text string, opts domain.SemanticSearchOptions,
) []domain.TaskMatch {
	opts = withDefaults(opts, domain.DefaultSimilarLimit, s.similarThreshold)
	return s.Search(ctx, text, opts)
}

// Query runs the search pipeline and reports failures explicitly.
// Options are used as given; callers wanting defaults use Search.
func (s *SimilarityService) Query(
	ctx context.Context, query string, opts domain.SemanticSearchOptions,
) ([]domain.TaskMatch, error) {
	logger.Section("Semantic Search")
	logger.Debug("Query: %q, limit=%d, threshold=%.3f", query, opts.Limit, opts.Threshold)

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}
	if opts.Limit <= 0 {
		return nil, fmt.Errorf("limit %d: %w", opts.Limit, domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	vec, err := s.embedder.Embed(ctx, query, domain.EmbeddingModeQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.index.Nearest(ctx, vec, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbours: %w", err)
	}
	logger.Debug("Vector index returned %d hits", len(hits))

	matches := make([]domain.TaskMatch, 0, len(hits))
	for _, hit := range hits {
		sim := domain.SimilarityFromDistance(hit.Distance)
		if sim < opts.Threshold {
			logger.Debug("Dropping task %d: similarity %.3f below threshold", hit.TaskID, sim)
			continue
		}
		matches = append(matches, domain.TaskMatch{
			TaskID:     hit.TaskID,
			Similarity: sim,
			Distance:   hit.Distance,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	logger.Info("Semantic search: %d matches", len(matches))
	return matches, nil
}

// Status returns nil if the embedding backend loads and the sidecar schema
// is in place, or the reason semantic search is unavailable.
func (s *SimilarityService) Status(ctx context.Context) error {
	if s.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	if s.index == nil {
		return domain.ErrVectorIndexUnavailable
	}
	if err := s.index.EnsureSchema(ctx); err != nil {
		return err
	}
	return s.embedder.Ping(ctx)
}

func withDefaults(opts domain.SemanticSearchOptions, limit int, threshold float64) domain.SemanticSearchOptions {
	if opts.Limit <= 0 {
		opts.Limit = limit
	}
	if opts.Threshold == 0 {
		opts.Threshold = threshold
	}
	return opts
}
