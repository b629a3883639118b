package driving

import "github.com/custodia-labs/taskman/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves the resolved application settings.
	Get() (*domain.AppSettings, error)

	// Set parses and persists a single dot-notation key.
	Set(key, value string) error

	// Keys returns the settable keys, sorted.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ConfigPath returns the configuration file path.
	ConfigPath() string
}
