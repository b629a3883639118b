// Command taskman is a personal task tracker with semantic recall.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/taskman/internal/adapters/driven/ai"
	"github.com/custodia-labs/taskman/internal/adapters/driven/config/env"
	"github.com/custodia-labs/taskman/internal/adapters/driven/config/file"
	"github.com/custodia-labs/taskman/internal/adapters/driven/embedding/hugot"
	"github.com/custodia-labs/taskman/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/taskman/internal/adapters/driving/cli"
	"github.com/custodia-labs/taskman/internal/core/domain"
	"github.com/custodia-labs/taskman/internal/core/services"
	"github.com/custodia-labs/taskman/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetInitialiser(initialise)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// initialise resolves settings and wires the stores and services for one
// command invocation.
func initialise(opts cli.Options) (*cli.Services, func(), error) {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, nil, fmt.Errorf("open config: %w", err)
	}

	envCfg, err := env.Load("")
	if err != nil {
		return nil, nil, err
	}

	settingsService := services.NewSettingsService(configStore, os.UserHomeDir,
		envCfg.Apply, flagOverrides(opts))
	if opts.SettingsOnly {
		return &cli.Services{Settings: settingsService}, nil, nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid settings (see 'taskman config show'): %w", err)
	}
	logger.SetFormat(logger.Format(settings.LogFormat))
	logger.Debug("profile %s, database %s", settings.Profile, settings.DatabasePath())

	store, err := sqlite.NewStore(settings.DatabasePath())
	if err != nil {
		return nil, nil, fmt.Errorf("open task database: %w", err)
	}
	taskStore := store.TaskStore()

	closers := []func() error{store.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("close: %v", err)
			}
		}
	}

	indexer, similarity := wireSemantic(settings, &closers)

	return &cli.Services{
		Tasks:    services.NewTaskService(taskStore, indexer),
		Memory:   services.NewMemoryService(taskStore, indexer, similarity),
		Settings: settingsService,
	}, cleanup, nil
}

// wireSemantic builds the episodic-memory index. It returns nils when
// semantic search is disabled or the backend cannot be constructed; task
// commands keep working either way.
func wireSemantic(
	settings *domain.AppSettings, closers *[]func() error,
) (*services.IndexService, *services.SimilarityService) {
	sem := settings.Semantic
	if !sem.Enabled {
		logger.Debug("semantic search disabled")
		return nil, nil
	}

	runtime := hugot.NewRuntime(sem.RetryAfter)
	*closers = append(*closers, runtime.Close)

	backend, err := ai.CreateEmbeddingService(&sem, runtime)
	if err != nil {
		logger.Warn("semantic search disabled: %v", err)
		return nil, nil
	}
	*closers = append(*closers, backend.Close)

	index := sqlite.NewVectorIndex(settings.DatabasePath(), sem.Dimension)
	*closers = append(*closers, index.Close)

	logger.Debug("semantic backend %s, model %s, dimension %d", sem.Backend, backend.ModelName(), sem.Dimension)

	embedder := services.NewEmbedder(backend, sem)
	return services.NewIndexService(embedder, index), services.NewSimilarityService(embedder, index, sem)
}

// flagOverrides applies the global command line flags, which take
// precedence over the environment and the config file.
func flagOverrides(opts cli.Options) services.SettingsOption {
	return func(s *domain.AppSettings) {
		if opts.Profile != "" {
			s.Profile = domain.Profile(opts.Profile)
		}
		if opts.DataDir != "" {
			s.DataDir = opts.DataDir
		}
	}
}
