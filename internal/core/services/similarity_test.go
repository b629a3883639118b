package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taskman/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/taskman/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/taskman/internal/core/domain"
	"github.com/custodia-labs/taskman/internal/core/ports/driven"
)

type semanticFixture struct {
	index      driven.VectorIndex
	indexer    *IndexService
	similarity *SimilarityService
}

func newSemanticFixture() *semanticFixture {
	settings := testSemanticSettings()
	return newSemanticFixtureWith(memory.NewVectorIndex(settings.Dimension))
}

func newSemanticFixtureWith(index driven.VectorIndex) *semanticFixture {
	settings := testSemanticSettings()
	embedder := NewEmbedder(&conceptEmbedder{}, settings)
	return &semanticFixture{
		index:      index,
		indexer:    NewIndexService(embedder, index),
		similarity: NewSimilarityService(embedder, index, settings),
	}
}

// vectorIndexes lists every sidecar implementation the scenarios run against.
func vectorIndexes() map[string]func(t *testing.T) driven.VectorIndex {
	return map[string]func(t *testing.T) driven.VectorIndex{
		"memory": func(*testing.T) driven.VectorIndex {
			return memory.NewVectorIndex(testSemanticSettings().Dimension)
		},
		"sqlite": func(t *testing.T) driven.VectorIndex {
			index := sqlite.NewVectorIndex(filepath.Join(t.TempDir(), "tasks.db"), testSemanticSettings().Dimension)
			t.Cleanup(func() { assert.NoError(t, index.Close()) })
			return index
		},
	}
}

func (f *semanticFixture) indexTasks(t *testing.T, tasks ...domain.Task) {
	t.Helper()
	for i := range tasks {
		require.NoError(t, f.indexer.IndexTask(context.Background(), &tasks[i]))
	}
}

func matchIDs(matches []domain.TaskMatch) []int64 {
	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.TaskID)
	}
	return ids
}

func TestSimilarity_ScenarioGroceries(t *testing.T) {
	for name, newIndex := range vectorIndexes() {
		t.Run(name, func(t *testing.T) {
			f := newSemanticFixtureWith(newIndex(t))
			f.indexTasks(t,
				domain.Task{ID: 1, Title: "Buy milk"},
				domain.Task{ID: 2, Title: "Buy bread"},
				domain.Task{ID: 3, Title: "Write quarterly report"},
			)

			matches := f.similarity.Search(context.Background(), "groceries",
				domain.SemanticSearchOptions{Limit: 5, Threshold: 0.1})

			require.Len(t, matches, 3)
			assert.ElementsMatch(t, []int64{1, 2}, matchIDs(matches[:2]))
			assert.Equal(t, int64(3), matches[2].TaskID)
			assert.Greater(t, matches[1].Similarity, matches[2].Similarity)
		})
	}
}

func TestSimilarity_ScenarioDuplicate(t *testing.T) {
	for name, newIndex := range vectorIndexes() {
		t.Run(name, func(t *testing.T) {
			f := newSemanticFixtureWith(newIndex(t))
			f.indexTasks(t, domain.Task{
				ID:          9,
				Title:       "Fix login bug",
				Description: "OAuth token refresh fails after 1 hour",
			})

			matches := f.similarity.FindSimilar(context.Background(), "OAuth token expiring too soon",
				domain.SemanticSearchOptions{Threshold: 0.2})

			assert.Equal(t, []int64{9}, matchIDs(matches))
		})
	}
}

func TestSimilarity_ScenarioDeletedTask(t *testing.T) {
	for name, newIndex := range vectorIndexes() {
		t.Run(name, func(t *testing.T) {
			f := newSemanticFixtureWith(newIndex(t))
			ctx := context.Background()
			f.indexTasks(t,
				domain.Task{ID: 5, Title: "Buy milk"},
				domain.Task{ID: 6, Title: "Buy bread"},
			)

			require.NoError(t, f.indexer.RemoveTask(ctx, 5))
			n, err := f.indexer.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			matches := f.similarity.Search(ctx, "buy milk groceries", domain.SemanticSearchOptions{Threshold: domain.NoThreshold})
			assert.NotContains(t, matchIDs(matches), int64(5))
			assert.Contains(t, matchIDs(matches), int64(6))
		})
	}
}

func TestSimilarity_ThresholdFiltering(t *testing.T) {
	index := &failingVectorIndex{hits: []driven.VectorHit{
		{TaskID: 1, Distance: 0.5}, // 0.667
		{TaskID: 2, Distance: 1.0}, // 0.5
		{TaskID: 3, Distance: 3.0}, // 0.25
	}}
	svc := NewSimilarityService(NewEmbedder(&conceptEmbedder{}, testSemanticSettings()), index, testSemanticSettings())

	matches := svc.Search(context.Background(), "anything", domain.SemanticSearchOptions{Limit: 10, Threshold: 0.5})

	assert.Equal(t, []int64{1, 2}, matchIDs(matches))
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Similarity, 0.5)
	}
}

func TestSimilarity_ThresholdZeroUsesDefaultNegativeKeepsAll(t *testing.T) {
	index := &failingVectorIndex{hits: []driven.VectorHit{
		{TaskID: 1, Distance: 0.5}, // 0.667
		{TaskID: 2, Distance: 4.0}, // 0.2, below the 0.25 default
	}}
	settings := testSemanticSettings()
	svc := NewSimilarityService(NewEmbedder(&conceptEmbedder{}, settings), index, settings)
	ctx := context.Background()

	assert.Equal(t, []int64{1}, matchIDs(svc.Search(ctx, "q", domain.SemanticSearchOptions{Threshold: 0})))
	assert.Equal(t, []int64{1, 2}, matchIDs(svc.Search(ctx, "q", domain.SemanticSearchOptions{Threshold: domain.NoThreshold})))
	assert.Equal(t, []int64{1, 2}, matchIDs(svc.Search(ctx, "q", domain.SemanticSearchOptions{Threshold: -0.5})))
}

func TestSimilarity_Monotonic(t *testing.T) {
	index := &failingVectorIndex{hits: []driven.VectorHit{
		{TaskID: 7, Distance: 0.9},
		{TaskID: 8, Distance: 0.1},
	}}
	svc := NewSimilarityService(NewEmbedder(&conceptEmbedder{}, testSemanticSettings()), index, testSemanticSettings())

	matches := svc.Search(context.Background(), "anything", domain.SemanticSearchOptions{})

	require.Len(t, matches, 2)
	assert.Equal(t, int64(8), matches[0].TaskID)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)
	assert.InDelta(t, 1/1.1, matches[0].Similarity, 1e-9)
}

func TestSimilarity_DefaultsApplied(t *testing.T) {
	hits := make([]driven.VectorHit, 0, 10)
	for i := int64(1); i <= 10; i++ {
		hits = append(hits, driven.VectorHit{TaskID: i, Distance: 0})
	}
	index := &failingVectorIndex{hits: hits}
	svc := NewSimilarityService(NewEmbedder(&conceptEmbedder{}, testSemanticSettings()), index, domain.SemanticSettings{})

	assert.Len(t, svc.Search(context.Background(), "q", domain.SemanticSearchOptions{}), domain.DefaultSearchLimit)
	assert.Len(t, svc.FindSimilar(context.Background(), "q", domain.SemanticSearchOptions{}), domain.DefaultSimilarLimit)
}

func TestSimilarity_FailuresYieldEmpty(t *testing.T) {
	ctx := context.Background()
	settings := testSemanticSettings()

	tests := []struct {
		name string
		svc  *SimilarityService
	}{
		{"backend down", NewSimilarityService(NewEmbedder(&conceptEmbedder{err: errors.New("x")}, settings), memory.NewVectorIndex(384), settings)},
		{"index down", NewSimilarityService(NewEmbedder(&conceptEmbedder{}, settings), &failingVectorIndex{nearestErr: domain.ErrVectorIndexUnavailable, schemaErr: domain.ErrVectorIndexUnavailable}, settings)},
		{"no embedder", NewSimilarityService(nil, memory.NewVectorIndex(384), settings)},
		{"no index", NewSimilarityService(NewEmbedder(&conceptEmbedder{}, settings), nil, settings)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := tt.svc.Search(ctx, "buy milk", domain.SemanticSearchOptions{})
			assert.NotNil(t, matches)
			assert.Empty(t, matches)
			assert.Error(t, tt.svc.Status(ctx))
		})
	}
}

func TestSimilarity_QueryReportsErrors(t *testing.T) {
	f := newSemanticFixture()
	ctx := context.Background()

	_, err := f.similarity.Query(ctx, " ", domain.SemanticSearchOptions{Limit: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.similarity.Query(ctx, "milk", domain.SemanticSearchOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	matches, err := f.similarity.Query(ctx, "milk", domain.SemanticSearchOptions{Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSimilarity_Status(t *testing.T) {
	f := newSemanticFixture()
	assert.NoError(t, f.similarity.Status(context.Background()))

	schemaErr := errors.New("dimension differs")
	svc := NewSimilarityService(NewEmbedder(&conceptEmbedder{}, testSemanticSettings()),
		&failingVectorIndex{schemaErr: schemaErr}, testSemanticSettings())
	assert.ErrorIs(t, svc.Status(context.Background()), schemaErr)
}
