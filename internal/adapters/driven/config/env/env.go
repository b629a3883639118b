// Package env reads settings overrides from the process environment.
//
// Variables use the TASKMAN_ prefix, with nested semantic settings under
// TASKMAN_SEMANTIC_ (for example TASKMAN_SEMANTIC_BACKEND=ollama). A .env
// file in the working directory is loaded first if present; variables
// already set in the environment take precedence over it.
package env

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/custodia-labs/taskman/internal/core/domain"
)

// Prefix is the environment variable prefix.
const Prefix = "TASKMAN"

// Config holds environment overrides. Unset variables leave the
// corresponding setting untouched.
type Config struct {
	// Env: TASKMAN_PROFILE
	Profile string `envconfig:"PROFILE"`

	// Env: TASKMAN_DATA_DIR
	DataDir string `envconfig:"DATA_DIR"`

	// Env: TASKMAN_LOG_FORMAT (console or json)
	LogFormat string `envconfig:"LOG_FORMAT"`

	Semantic SemanticEnv `envconfig:"SEMANTIC"`
}

// SemanticEnv holds TASKMAN_SEMANTIC_* overrides.
type SemanticEnv struct {
	Enabled          *bool          `envconfig:"ENABLED"`
	Backend          string         `envconfig:"BACKEND"`
	Model            string         `envconfig:"MODEL"`
	CacheDir         string         `envconfig:"CACHE_DIR"`
	Dimension        *int           `envconfig:"DIMENSION"`
	DocumentPrefix   *string        `envconfig:"DOCUMENT_PREFIX"`
	QueryPrefix      *string        `envconfig:"QUERY_PREFIX"`
	SearchThreshold  *float64       `envconfig:"SEARCH_THRESHOLD"`
	SimilarThreshold *float64       `envconfig:"SIMILAR_THRESHOLD"`
	RetryAfter       *time.Duration `envconfig:"RETRY_AFTER"`
	BaseURL          string         `envconfig:"BASE_URL"`
	APIKey           string         `envconfig:"API_KEY"`
	Timeout          *time.Duration `envconfig:"TIMEOUT"`
}

// LoadDotEnv loads variables from a .env file.
// If path is empty, it loads ".env" in the current directory.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// FromEnv reads TASKMAN_* variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read %s_* environment: %w", Prefix, err)
	}
	return cfg, nil
}

// Load loads the .env file at dotenvPath and then reads the environment.
func Load(dotenvPath string) (Config, error) {
	if err := LoadDotEnv(dotenvPath); err != nil {
		return Config{}, fmt.Errorf("load %s: %w", dotenvPath, err)
	}
	return FromEnv()
}

// Apply copies every set variable onto settings.
func (c Config) Apply(settings *domain.AppSettings) {
	if c.Profile != "" {
		settings.Profile = domain.Profile(c.Profile)
	}
	if c.DataDir != "" {
		settings.DataDir = c.DataDir
	}
	if c.LogFormat != "" {
		settings.LogFormat = c.LogFormat
	}

	s, sem := c.Semantic, &settings.Semantic
	if s.Enabled != nil {
		sem.Enabled = *s.Enabled
	}
	if s.Backend != "" {
		sem.Backend = domain.EmbeddingBackend(s.Backend)
	}
	if s.Model != "" {
		sem.Model = s.Model
	}
	if s.CacheDir != "" {
		sem.CacheDir = s.CacheDir
	}
	if s.Dimension != nil {
		sem.Dimension = *s.Dimension
	}
	if s.DocumentPrefix != nil {
		sem.DocumentPrefix = *s.DocumentPrefix
	}
	if s.QueryPrefix != nil {
		sem.QueryPrefix = *s.QueryPrefix
	}
	if s.SearchThreshold != nil {
		sem.SearchThreshold = *s.SearchThreshold
	}
	if s.SimilarThreshold != nil {
		sem.SimilarThreshold = *s.SimilarThreshold
	}
	if s.RetryAfter != nil {
		sem.RetryAfter = *s.RetryAfter
	}
	if s.BaseURL != "" {
		sem.BaseURL = s.BaseURL
	}
	if s.APIKey != "" {
		sem.APIKey = s.APIKey
	}
	if s.Timeout != nil {
		sem.Timeout = *s.Timeout
	}
}
