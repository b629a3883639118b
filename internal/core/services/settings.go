package services

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/taskman/internal/core/domain"
	"github.com/custodia-labs/taskman/internal/core/ports/driven"
	"github.com/custodia-labs/taskman/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyProfile          = "profile"
	keyDataDir          = "data_dir"
	keyLogFormat        = "log_format"
	keySemanticEnabled  = "semantic.enabled"
	keySemanticBackend  = "semantic.backend"
	keySemanticModel    = "semantic.model"
	keySemanticCacheDir = "semantic.cache_dir"
	keySemanticDim      = "semantic.dimension"
	keyDocumentPrefix   = "semantic.document_prefix"
	keyQueryPrefix      = "semantic.query_prefix"
	keySearchThreshold  = "semantic.search_threshold"
	keySimilarThreshold = "semantic.similar_threshold"
	keyRetryAfter       = "semantic.retry_after"
	keySemanticBaseURL  = "semantic.base_url"
	keySemanticAPIKey   = "semantic.api_key"
	keySemanticTimeout  = "semantic.timeout"
)

// SettingsOption overrides resolved settings. Options are applied in order
// after the config file, so later layers win.
type SettingsOption func(*domain.AppSettings)

// SettingsService resolves application settings from the config store,
// defaults and caller overrides.
type SettingsService struct {
	configStore driven.ConfigStore
	homeDir     func() (string, error)
	overrides   []SettingsOption
}

// NewSettingsService creates a new settings service.
func NewSettingsService(
	configStore driven.ConfigStore, homeDir func() (string, error), overrides ...SettingsOption,
) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		homeDir:     homeDir,
		overrides:   overrides,
	}
}

// WithOverrides returns a copy of the service with extra overrides appended.
func (s *SettingsService) WithOverrides(opts ...SettingsOption) *SettingsService {
	overrides := make([]SettingsOption, 0, len(s.overrides)+len(opts))
	overrides = append(overrides, s.overrides...)
	overrides = append(overrides, opts...)
	return &SettingsService{
		configStore: s.configStore,
		homeDir:     s.homeDir,
		overrides:   overrides,
	}
}

// Get retrieves the resolved application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.GetDefaults()

	if v := s.configStore.GetString(keyProfile); v != "" {
		settings.Profile = domain.Profile(v)
	}
	if v := s.configStore.GetString(keyDataDir); v != "" {
		settings.DataDir = v
	}
	if v := s.configStore.GetString(keyLogFormat); v != "" {
		settings.LogFormat = v
	}

	sem := &settings.Semantic
	if v, ok := s.configStore.Get(keySemanticEnabled); ok {
		if b, isBool := v.(bool); isBool {
			sem.Enabled = b
		}
	}
	if v := s.configStore.GetString(keySemanticBackend); v != "" {
		sem.Backend = domain.EmbeddingBackend(v)
	}
	sem.Model = s.getString(keySemanticModel, sem.Model)
	sem.CacheDir = s.getString(keySemanticCacheDir, sem.CacheDir)
	if v := s.configStore.GetInt(keySemanticDim); v > 0 {
		sem.Dimension = v
	}
	if _, ok := s.configStore.Get(keyDocumentPrefix); ok {
		sem.DocumentPrefix = s.configStore.GetString(keyDocumentPrefix)
	}
	if _, ok := s.configStore.Get(keyQueryPrefix); ok {
		sem.QueryPrefix = s.configStore.GetString(keyQueryPrefix)
	}
	if v := s.configStore.GetFloat(keySearchThreshold); v > 0 {
		sem.SearchThreshold = v
	}
	if v := s.configStore.GetFloat(keySimilarThreshold); v > 0 {
		sem.SimilarThreshold = v
	}
	var err error
	if sem.RetryAfter, err = s.getDuration(keyRetryAfter, sem.RetryAfter); err != nil {
		return nil, err
	}
	if sem.Timeout, err = s.getDuration(keySemanticTimeout, sem.Timeout); err != nil {
		return nil, err
	}
	sem.BaseURL = s.configStore.GetString(keySemanticBaseURL)
	sem.APIKey = s.configStore.GetString(keySemanticAPIKey)

	for _, opt := range s.overrides {
		opt(&settings)
	}

	if err := validateSettings(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Set parses value according to key and persists it.
func (s *SettingsService) Set(key, value string) error {
	parsed, err := parseSetting(key, value)
	if err != nil {
		return err
	}
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns the settable keys, sorted.
func (s *SettingsService) Keys() []string {
	keys := []string{
		keyProfile, keyDataDir, keyLogFormat,
		keySemanticEnabled, keySemanticBackend, keySemanticModel, keySemanticCacheDir,
		keySemanticDim, keyDocumentPrefix, keyQueryPrefix, keySearchThreshold,
		keySimilarThreshold, keyRetryAfter, keySemanticBaseURL, keySemanticAPIKey,
		keySemanticTimeout,
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns default settings with directories resolved against
// the user's home directory.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	settings := domain.DefaultAppSettings()
	if s.homeDir == nil {
		return settings
	}
	home, err := s.homeDir()
	if err != nil || home == "" {
		return settings
	}
	settings.DataDir = filepath.Join(home, ".taskman", "data")
	settings.Semantic.CacheDir = filepath.Join(home, ".cache", "taskman", "models")
	return settings
}

// ConfigPath returns the configuration file path.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// getString returns the string value for key or the default if not set.
func (s *SettingsService) getString(key, defaultVal string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return defaultVal
}

// getDuration accepts either a Go duration string or a number of seconds.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal, nil
	}
	switch d := v.(type) {
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, domain.ErrInvalidInput)
		}
		return parsed, nil
	case int64:
		return time.Duration(d) * time.Second, nil
	case int:
		return time.Duration(d) * time.Second, nil
	default:
		return defaultVal, nil
	}
}

func validateSettings(settings *domain.AppSettings) error {
	if !settings.Profile.IsValid() {
		return fmt.Errorf("profile %q: %w", settings.Profile, domain.ErrInvalidInput)
	}
	if !settings.Semantic.Backend.IsValid() {
		return fmt.Errorf("semantic backend %q: %w", settings.Semantic.Backend, domain.ErrInvalidInput)
	}
	if settings.Semantic.Dimension <= 0 {
		return fmt.Errorf("semantic dimension %d: %w", settings.Semantic.Dimension, domain.ErrInvalidInput)
	}
	return nil
}

// parseSetting converts a command-line value into the type stored for key.
func parseSetting(key, value string) (any, error) {
	switch key {
	case keyProfile:
		if !domain.Profile(value).IsValid() {
			return nil, fmt.Errorf("profile %q: %w", value, domain.ErrInvalidInput)
		}
		return value, nil
	case keySemanticBackend:
		if !domain.EmbeddingBackend(value).IsValid() {
			return nil, fmt.Errorf("backend %q: %w", value, domain.ErrInvalidInput)
		}
		return value, nil
	case keyLogFormat:
		if value != "console" && value != "json" {
			return nil, fmt.Errorf("log format %q: %w", value, domain.ErrInvalidInput)
		}
		return value, nil
	case keySemanticEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, domain.ErrInvalidInput)
		}
		return b, nil
	case keySemanticDim:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer: %w", key, domain.ErrInvalidInput)
		}
		return int64(n), nil
	case keySearchThreshold, keySimilarThreshold:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 || f > 1 {
			return nil, fmt.Errorf("%s must be in (0, 1]: %w", key, domain.ErrInvalidInput)
		}
		return f, nil
	case keyRetryAfter, keySemanticTimeout:
		if _, err := time.ParseDuration(value); err != nil {
			return nil, fmt.Errorf("%s: %w", key, domain.ErrInvalidInput)
		}
		return value, nil
	case keyDataDir, keySemanticModel, keySemanticCacheDir, keyDocumentPrefix,
		keyQueryPrefix, keySemanticBaseURL, keySemanticAPIKey:
		return value, nil
	default:
		return nil, fmt.Errorf("unknown setting %q: %w", strings.TrimSpace(key), domain.ErrInvalidInput)
	}
}
