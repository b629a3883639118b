package services

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/taskman/internal/core/domain"
	"github.com/custodia-labs/taskman/internal/core/ports/driven"
)

// nativeDim mimics nomic-embed-text-v1.5, whose output is truncated to 384.
const nativeDim = 768

// testConcepts maps words to concept axes. The concept embedder is a
// deterministic bag-of-concepts model: related words share an axis, so
// "groceries" lands next to "buy milk" without any real model.
var testConcepts = map[string]int{
	"buy": 0, "milk": 0, "bread": 0, "groceries": 0, "shopping": 0,
	"write": 1, "quarterly": 1, "report": 1, "draft": 1,
	"login": 2, "oauth": 2, "token": 2, "refresh": 2, "expiring": 2, "session": 2,
	"fix": 3, "bug": 3, "fails": 3, "broken": 3,
}

// conceptEmbedder implements driven.EmbeddingService for testing.
// Words containing ':' (the mode prefixes) and unknown words are ignored.
type conceptEmbedder struct {
	err    error
	inputs []string
	closed bool
}

func (c *conceptEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.inputs = append(c.inputs, text)

	vec := make([]float32, nativeDim)
	for _, word := range strings.FieldsFunc(strings.ToLower(text), unicode.IsSpace) {
		if strings.Contains(word, ":") {
			continue
		}
		word = strings.TrimFunc(word, func(r rune) bool { return !unicode.IsLetter(r) })
		if axis, ok := testConcepts[word]; ok {
			vec[axis]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	// A component past the stored dimension proves truncation happens.
	vec[nativeDim-1] = 9
	return vec, nil
}

func (c *conceptEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := c.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func (c *conceptEmbedder) Dimensions() int   { return nativeDim }
func (c *conceptEmbedder) ModelName() string { return "concept-test" }

func (c *conceptEmbedder) Ping(_ context.Context) error {
	return c.err
}

func (c *conceptEmbedder) Close() error {
	c.closed = true
	return nil
}

// shortEmbedder returns fewer components than the stored dimension.
type shortEmbedder struct {
	conceptEmbedder
}

func (s *shortEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return make([]float32, 16), nil
}

// failingVectorIndex implements driven.VectorIndex with injectable errors.
type failingVectorIndex struct {
	schemaErr  error
	upsertErr  error
	deleteErr  error
	nearestErr error
	hits       []driven.VectorHit
	deleted    []int64
}

func (f *failingVectorIndex) EnsureSchema(_ context.Context) error { return f.schemaErr }

func (f *failingVectorIndex) Upsert(_ context.Context, _ int64, _ []float32) error {
	return f.upsertErr
}

func (f *failingVectorIndex) Delete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *failingVectorIndex) Nearest(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if f.nearestErr != nil {
		return nil, f.nearestErr
	}
	if k < len(f.hits) {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

func (f *failingVectorIndex) Reset(_ context.Context) error { return f.deleteErr }
func (f *failingVectorIndex) Count(_ context.Context) (int, error) { return len(f.hits), nil }
func (f *failingVectorIndex) Dimension() int                       { return domain.DefaultEmbeddingDim }
func (f *failingVectorIndex) Close() error                         { return nil }

// testSemanticSettings returns default semantic settings.
func testSemanticSettings() domain.SemanticSettings {
	return domain.DefaultAppSettings().Semantic
}
