package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, semantic search is disabled.
//
// Note: This is separate from VectorIndex which stores and searches vectors.
// EmbeddingService generates vectors; VectorIndex stores them. Adapters
// return the model's native output; prefixing and truncation to the
// configured dimension happen in the core Embedder.
//
// Implementations may include:
//   - Hugot (in-process ONNX/Go runtime, nomic-embed-text-v1.5)
//   - Ollama (nomic-embed-text)
//   - OpenAI (text-embedding-3-small)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the native embedding vector size (e.g., 768).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the backend is usable without embedding real data.
	// For local backends this forces the lazy model load.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
