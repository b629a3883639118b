// Package hugot provides an in-process embedding service backed by
// knights-analytics/hugot running on its pure Go backend.
package hugot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	khugot "github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/custodia-labs/taskman/internal/core/domain"
	"github.com/custodia-labs/taskman/internal/logger"
)

// pipeline is the part of a hugot feature-extraction pipeline the runtime uses.
type pipeline interface {
	RunPipeline(inputs []string) (*pipelines.FeatureExtractionOutput, error)
}

// Model identifies a model and where its files are cached.
type Model struct {
	// Name is a Hugging Face repository ID or a local directory.
	Name string

	// CacheDir holds downloaded models.
	CacheDir string
}

func (m Model) key() string {
	return m.Name + "@" + m.CacheDir
}

// opener loads a model and returns a ready pipeline.
type opener func(model Model) (pipeline, error)

// loadFailure remembers a failed model load.
type loadFailure struct {
	err error
	at  time.Time
}

// Runtime owns the process-wide hugot session and the pipelines loaded
// into it. Models load lazily on first use, at most once; a failed load is
// remembered for RetryAfter before it is attempted again. Load and
// inference are serialised by a single mutex.
//
// Create one Runtime in main, pass it to every hugot EmbeddingService, and
// Close it on exit.
type Runtime struct {
	mu         sync.Mutex
	open       opener
	download   downloader
	session    *khugot.Session
	loads      int
	pipelines  map[string]pipeline
	failures   map[string]loadFailure
	retryAfter time.Duration
	now        func() time.Time
	closed     bool
}

// NewRuntime creates an unloaded runtime. Nothing is allocated until the
// first embedding request.
func NewRuntime(retryAfter time.Duration) *Runtime {
	if retryAfter <= 0 {
		retryAfter = domain.DefaultModelRetryBackoff
	}
	r := &Runtime{
		pipelines:  make(map[string]pipeline),
		failures:   make(map[string]loadFailure),
		retryAfter: retryAfter,
		now:        time.Now,
	}
	r.open = r.openPipeline
	r.download = downloadModel
	return r
}

// Embed runs texts through the model, loading it if needed.
func (r *Runtime) Embed(ctx context.Context, model Model, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.pipelineLocked(model)
	if err != nil {
		return nil, err
	}

	result, err := p.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("%w: run embedding pipeline: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: pipeline returned %d embeddings for %d texts",
			domain.ErrEmbeddingUnavailable, len(result.Embeddings), len(texts))
	}
	return result.Embeddings, nil
}

// Load forces the model to load without embedding anything.
func (r *Runtime) Load(model Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.pipelineLocked(model)
	return err
}

// Close destroys the session. The runtime cannot be used afterwards.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.pipelines = make(map[string]pipeline)
	if r.session == nil {
		return nil
	}
	err := r.session.Destroy()
	r.session = nil
	return err
}

// pipelineLocked returns the loaded pipeline or loads it (caller must hold lock).
func (r *Runtime) pipelineLocked(model Model) (pipeline, error) {
	if r.closed {
		return nil, fmt.Errorf("%w: runtime closed", domain.ErrEmbeddingUnavailable)
	}
	key := model.key()
	if p, ok := r.pipelines[key]; ok {
		return p, nil
	}

	if f, ok := r.failures[key]; ok {
		if r.now().Sub(f.at) < r.retryAfter {
			return nil, f.err
		}
		delete(r.failures, key)
	}

	logger.Debug("Loading embedding model %s", model.Name)
	p, err := r.open(model)
	if err != nil {
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			err = fmt.Errorf("%w: load model: %w", domain.ErrEmbeddingUnavailable, err)
		}
		r.failures[key] = loadFailure{err: err, at: r.now()}
		logger.Warn("Embedding model unavailable, retrying after %s: %v", r.retryAfter, err)
		return nil, err
	}

	r.pipelines[key] = p
	return p, nil
}

// openPipeline resolves the model files, creates the shared Go session on
// first use and loads a feature-extraction pipeline into it.
func (r *Runtime) openPipeline(model Model) (pipeline, error) {
	modelPath, err := resolveModelPath(model, r.download)
	if err != nil {
		return nil, err
	}

	if r.session == nil {
		session, err := khugot.NewGoSession()
		if err != nil {
			return nil, fmt.Errorf("create hugot session: %w", err)
		}
		r.session = session
	}

	config := khugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      fmt.Sprintf("taskman-embeddings-%d", r.loads),
		Options: []khugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	}
	r.loads++
	p, err := khugot.NewPipeline(r.session, config)
	if err != nil {
		return nil, fmt.Errorf("create feature extraction pipeline: %w", err)
	}
	return p, nil
}
