package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/taskman/internal/core/domain"
	"github.com/custodia-labs/taskman/internal/core/ports/driven"
)

// Embedder turns text into fixed-length vectors for the episodic-memory
// index. It prepends a direction-specific prefix and keeps only the first
// Dimension() components of the backend output. The truncated vector is
// not re-normalised.
type Embedder struct {
	backend        driven.EmbeddingService
	dimension      int
	documentPrefix string
	queryPrefix    string
}

// NewEmbedder creates an embedder over the given backend.
// The backend may be nil, in which case every call reports
// domain.ErrEmbeddingUnavailable.
func NewEmbedder(backend driven.EmbeddingService, settings domain.SemanticSettings) *Embedder {
	dim := settings.Dimension
	if dim <= 0 {
		dim = domain.DefaultEmbeddingDim
	}
	return &Embedder{
		backend:        backend,
		dimension:      dim,
		documentPrefix: settings.DocumentPrefix,
		queryPrefix:    settings.QueryPrefix,
	}
}

// Dimension returns the length of every vector Embed produces.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Prefix returns the text prepended for the given mode.
func (e *Embedder) Prefix(mode domain.EmbeddingMode) string {
	if mode == domain.EmbeddingModeQuery {
		return e.queryPrefix
	}
	return e.documentPrefix
}

// Embed returns the embedding of text for the given direction.
func (e *Embedder) Embed(ctx context.Context, text string, mode domain.EmbeddingMode) ([]float32, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("embedding mode %q: %w", mode, domain.ErrInvalidInput)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text: %w", domain.ErrInvalidInput)
	}
	if e.backend == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	full, err := e.backend.Embed(ctx, e.Prefix(mode)+text)
	if err != nil {
		return nil, asUnavailable(err)
	}
	if len(full) < e.dimension {
		return nil, fmt.Errorf("model %s returned %d components, need %d: %w",
			e.backend.ModelName(), len(full), e.dimension, domain.ErrDimensionMismatch)
	}

	// Copy so the result never aliases a backend buffer.
	out := make([]float32, e.dimension)
	copy(out, full[:e.dimension])
	return out, nil
}

// Ping checks that the backend can be loaded and used.
func (e *Embedder) Ping(ctx context.Context) error {
	if e.backend == nil {
		return domain.ErrEmbeddingUnavailable
	}
	if err := e.backend.Ping(ctx); err != nil {
		return asUnavailable(err)
	}
	return nil
}

// ModelName returns the backend model name, or "" when no backend is set.
func (e *Embedder) ModelName() string {
	if e.backend == nil {
		return ""
	}
	return e.backend.ModelName()
}

// asUnavailable classifies a backend failure as unavailability, keeping the
// underlying cause in the chain.
func asUnavailable(err error) error {
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
}
