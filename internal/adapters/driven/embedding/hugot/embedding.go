package hugot

import (
	"context"
	"fmt"

	"github.com/custodia-labs/taskman/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "nomic-ai/nomic-embed-text-v1.5"
	DefaultDimensions = 768
	maxBatch          = 16
)

// Config holds configuration for the in-process embedding service.
type Config struct {
	// Model is a Hugging Face repository ID or a local model directory.
	Model string

	// CacheDir is where downloaded models are kept.
	CacheDir string

	// Dimensions is the native embedding size of the model.
	Dimensions int
}

// EmbeddingService generates embeddings in-process through a shared Runtime.
type EmbeddingService struct {
	runtime    *Runtime
	model      Model
	dimensions int
}

// NewEmbeddingService creates an embedding service on the given runtime.
// Nothing is loaded until the first call.
func NewEmbeddingService(runtime *Runtime, cfg Config) *EmbeddingService {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return &EmbeddingService{
		runtime:    runtime,
		model:      Model{Name: cfg.Model, CacheDir: cfg.CacheDir},
		dimensions: cfg.Dimensions,
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.runtime.Embed(ctx, s.model, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch generates embeddings for multiple texts, in chunks the
// pipeline handles comfortably.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))
		out, err := s.runtime.Embed(ctx, s.model, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		embeddings = append(embeddings, out...)
	}
	return embeddings, nil
}

// Dimensions returns the native embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model.Name
}

// Ping forces the lazy model load.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return s.runtime.Load(s.model)
}

// Close is a no-op. The runtime is shared and closed by its owner.
func (s *EmbeddingService) Close() error {
	return nil
}
