package domain

import (
	"path/filepath"
	"time"
)

const unknownDescription = "Unknown"

// EmbeddingBackend identifies where embeddings are computed.
type EmbeddingBackend string

// Available embedding backends.
const (
	// EmbeddingBackendHugot runs the model in-process.
	EmbeddingBackendHugot EmbeddingBackend = "hugot"

	// EmbeddingBackendOllama calls a local Ollama instance.
	EmbeddingBackendOllama EmbeddingBackend = "ollama"

	// EmbeddingBackendOpenAI calls an OpenAI-compatible API.
	EmbeddingBackendOpenAI EmbeddingBackend = "openai"
)

// IsValid returns true if the backend is recognised.
func (b EmbeddingBackend) IsValid() bool {
	switch b {
	case EmbeddingBackendHugot, EmbeddingBackendOllama, EmbeddingBackendOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this backend needs an API key.
func (b EmbeddingBackend) RequiresAPIKey() bool {
	return b == EmbeddingBackendOpenAI
}

// IsLocal returns true if this backend runs on the user's machine.
func (b EmbeddingBackend) IsLocal() bool {
	return b == EmbeddingBackendHugot || b == EmbeddingBackendOllama
}

// String returns the string representation.
func (b EmbeddingBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b EmbeddingBackend) Description() string {
	switch b {
	case EmbeddingBackendHugot:
		return "Hugot (in-process)"
	case EmbeddingBackendOllama:
		return "Ollama (local)"
	case EmbeddingBackendOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// Profile selects one of the isolated task databases.
type Profile string

// Known profiles.
const (
	ProfileDefault Profile = "default"
	ProfileDev     Profile = "dev"
	ProfileTest    Profile = "test"
)

// IsValid returns true if the profile is recognised.
func (p Profile) IsValid() bool {
	switch p {
	case ProfileDefault, ProfileDev, ProfileTest:
		return true
	default:
		return false
	}
}

// DatabaseFile returns the task database file name for the profile.
func (p Profile) DatabaseFile() string {
	if p == "" || p == ProfileDefault {
		return "tasks.db"
	}
	return "tasks-" + string(p) + ".db"
}

// SemanticSettings configures the episodic-memory index.
type SemanticSettings struct {
	// Enabled turns indexing and semantic search on or off.
	Enabled bool

	// Backend selects the embedding backend.
	Backend EmbeddingBackend

	// Model is the embedding model identifier.
	Model string

	// CacheDir is where local model files live.
	CacheDir string

	// Dimension is the stored vector length. Backend output is truncated to it.
	Dimension int

	// DocumentPrefix is prepended to text embedded for storage.
	DocumentPrefix string

	// QueryPrefix is prepended to text embedded for search.
	QueryPrefix string

	// SearchThreshold is the default minimum similarity for search.
	SearchThreshold float64

	// SimilarThreshold is the default minimum similarity for duplicate detection.
	SimilarThreshold float64

	// RetryAfter is how long a failed model load is remembered before retrying.
	RetryAfter time.Duration

	// BaseURL is the API endpoint for HTTP backends.
	BaseURL string

	// APIKey is the API key for the OpenAI backend.
	APIKey string

	// Timeout bounds a single embedding request.
	Timeout time.Duration
}

// IsConfigured returns true if the backend can be constructed.
func (s SemanticSettings) IsConfigured() bool {
	if !s.Backend.IsValid() || s.Dimension <= 0 {
		return false
	}
	if s.Backend.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return true
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Profile selects the task database.
	Profile Profile

	// DataDir is the directory holding task databases.
	DataDir string

	// LogFormat is "console" or "json".
	LogFormat string

	// Semantic holds episodic-memory index settings.
	Semantic SemanticSettings
}

// DatabasePath returns the full path of the active task database.
func (s AppSettings) DatabasePath() string {
	return filepath.Join(s.DataDir, s.Profile.DatabaseFile())
}

// Default semantic search values.
const (
	DefaultEmbeddingModel    = "nomic-ai/nomic-embed-text-v1.5"
	DefaultEmbeddingDim      = 384
	DefaultDocumentPrefix    = "search_document: "
	DefaultQueryPrefix       = "search_query: "
	DefaultSearchThreshold   = 0.25
	DefaultSimilarThreshold  = 0.2
	DefaultSearchLimit       = 5
	DefaultSimilarLimit      = 3
	DefaultEmbeddingTimeout  = 30 * time.Second
	DefaultModelRetryBackoff = 30 * time.Second
)

// DefaultAppSettings returns settings with sensible defaults.
// Directory fields are left empty; callers resolve them against the
// user's home directory.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Profile:   ProfileDefault,
		LogFormat: "console",
		Semantic: SemanticSettings{
			Enabled:          true,
			Backend:          EmbeddingBackendHugot,
			Model:            DefaultEmbeddingModel,
			Dimension:        DefaultEmbeddingDim,
			DocumentPrefix:   DefaultDocumentPrefix,
			QueryPrefix:      DefaultQueryPrefix,
			SearchThreshold:  DefaultSearchThreshold,
			SimilarThreshold: DefaultSimilarThreshold,
			RetryAfter:       DefaultModelRetryBackoff,
			Timeout:          DefaultEmbeddingTimeout,
		},
	}
}

// AllEmbeddingBackends returns all available embedding backends.
func AllEmbeddingBackends() []EmbeddingBackend {
	return []EmbeddingBackend{EmbeddingBackendHugot, EmbeddingBackendOllama, EmbeddingBackendOpenAI}
}
