// Package ai provides factory functions for creating embedding backends.
package ai

import (
	"context"
	"fmt"
	"time"

	hugotembed "github.com/custodia-labs/taskman/internal/adapters/driven/embedding/hugot"
	ollamaembed "github.com/custodia-labs/taskman/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/taskman/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/taskman/internal/core/domain"
	"github.com/custodia-labs/taskman/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the embedding backend selected by settings.
// Returns nil if semantic search is disabled. The hugot backend needs the
// process-wide runtime; it is ignored by the HTTP backends.
func CreateEmbeddingService(
	settings *domain.SemanticSettings, runtime *hugotembed.Runtime,
) (driven.EmbeddingService, error) {
	if settings == nil || !settings.Enabled {
		return nil, nil
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s backend is not configured",
			domain.ErrEmbeddingUnavailable, settings.Backend)
	}

	switch settings.Backend {
	case domain.EmbeddingBackendHugot:
		if runtime == nil {
			return nil, fmt.Errorf("%w: hugot runtime not initialised", domain.ErrEmbeddingUnavailable)
		}
		return hugotembed.NewEmbeddingService(runtime, hugotembed.Config{
			Model:    settings.Model,
			CacheDir: settings.CacheDir,
		}), nil

	case domain.EmbeddingBackendOllama:
		return createOllamaEmbedding(settings), nil

	case domain.EmbeddingBackendOpenAI:
		return createOpenAIEmbedding(settings)

	default:
		return nil, fmt.Errorf("unsupported embedding backend: %s", settings.Backend)
	}
}

// ValidateEmbeddingService creates the configured backend and pings it.
// For the hugot backend this forces the model download and load.
func ValidateEmbeddingService(
	ctx context.Context, settings *domain.SemanticSettings, runtime *hugotembed.Runtime,
) error {
	svc, err := CreateEmbeddingService(settings, runtime)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	// Local model loads can take far longer than a network round trip
	if settings.Backend != domain.EmbeddingBackendHugot {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pingTimeout)
		defer cancel()
	}

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable (%w)", domain.ErrEmbeddingUnavailable, settings.Backend, err)
	}
	return nil
}

// createOllamaEmbedding creates an Ollama embedding service.
// The hugot default model name is not an Ollama tag, so it maps to the
// Ollama adapter's default.
func createOllamaEmbedding(settings *domain.SemanticSettings) driven.EmbeddingService {
	model := settings.Model
	if model == domain.DefaultEmbeddingModel {
		model = ""
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL: settings.BaseURL,
		Model:   model,
		Timeout: settings.Timeout,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.SemanticSettings) (driven.EmbeddingService, error) {
	model := settings.Model
	if model == domain.DefaultEmbeddingModel {
		model = ""
	}

	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   model,
		Timeout: settings.Timeout,
	})
}
