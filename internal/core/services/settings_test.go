package services

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taskman/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/taskman/internal/core/domain"
)

func testHome() (string, error) {
	return "/home/tester", nil
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), testHome)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.ProfileDefault, settings.Profile)
	assert.Equal(t, filepath.Join("/home/tester", ".taskman", "data"), settings.DataDir)
	assert.Equal(t, filepath.Join("/home/tester", ".cache", "taskman", "models"), settings.Semantic.CacheDir)
	assert.Equal(t, domain.EmbeddingBackendHugot, settings.Semantic.Backend)
	assert.Equal(t, 384, settings.Semantic.Dimension)
	assert.Equal(t, 0.25, settings.Semantic.SearchThreshold)
	assert.Equal(t, 0.2, settings.Semantic.SimilarThreshold)
	assert.True(t, settings.Semantic.Enabled)
	assert.Equal(t, filepath.Join("/home/tester", ".taskman", "data", "tasks.db"), settings.DatabasePath())
}

func TestSettingsService_Get_HomeUnavailable(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), func() (string, error) {
		return "", errors.New("no home")
	})

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Empty(t, settings.DataDir)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("profile", "dev")
	_ = store.Set("semantic.enabled", false)
	_ = store.Set("semantic.backend", "ollama")
	_ = store.Set("semantic.dimension", int64(256))
	_ = store.Set("semantic.search_threshold", 0.4)
	_ = store.Set("semantic.retry_after", "1m")
	_ = store.Set("semantic.timeout", int64(5))
	_ = store.Set("semantic.query_prefix", "")

	settings, err := NewSettingsService(store, testHome).Get()

	require.NoError(t, err)
	assert.Equal(t, domain.ProfileDev, settings.Profile)
	assert.False(t, settings.Semantic.Enabled)
	assert.Equal(t, domain.EmbeddingBackendOllama, settings.Semantic.Backend)
	assert.Equal(t, 256, settings.Semantic.Dimension)
	assert.Equal(t, 0.4, settings.Semantic.SearchThreshold)
	assert.Equal(t, time.Minute, settings.Semantic.RetryAfter)
	assert.Equal(t, 5*time.Second, settings.Semantic.Timeout)
	assert.Empty(t, settings.Semantic.QueryPrefix)
	assert.Equal(t, "tasks-dev.db", filepath.Base(settings.DatabasePath()))
}

func TestSettingsService_Get_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value any
	}{
		{"profile", "prod"},
		{"semantic.backend", "anthropic"},
		{"semantic.retry_after", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			store := memory.NewConfigStore()
			_ = store.Set(tt.key, tt.value)

			_, err := NewSettingsService(store, testHome).Get()
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_OverridesWin(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("profile", "dev")
	_ = store.Set("data_dir", "/from/file")

	service := NewSettingsService(store, testHome, func(s *domain.AppSettings) {
		s.Profile = domain.ProfileTest
	})
	service = service.WithOverrides(func(s *domain.AppSettings) {
		s.DataDir = "/from/flag"
	})

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.ProfileTest, settings.Profile)
	assert.Equal(t, "/from/flag", settings.DataDir)
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, testHome)

	require.NoError(t, service.Set("semantic.dimension", "128"))
	require.NoError(t, service.Set("semantic.enabled", "false"))
	require.NoError(t, service.Set("semantic.similar_threshold", "0.3"))
	require.NoError(t, service.Set("semantic.timeout", "10s"))
	require.NoError(t, service.Set("semantic.model", "all-MiniLM-L6-v2"))

	assert.Equal(t, 128, store.GetInt("semantic.dimension"))
	assert.False(t, store.GetBool("semantic.enabled"))
	assert.Equal(t, 0.3, store.GetFloat("semantic.similar_threshold"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, settings.Semantic.Timeout)
	assert.Equal(t, "all-MiniLM-L6-v2", settings.Semantic.Model)
}

func TestSettingsService_Set_Invalid(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), testHome)

	tests := []struct{ key, value string }{
		{"unknown.key", "x"},
		{"profile", "prod"},
		{"semantic.backend", "anthropic"},
		{"semantic.dimension", "-1"},
		{"semantic.dimension", "abc"},
		{"semantic.search_threshold", "1.5"},
		{"semantic.enabled", "maybe"},
		{"semantic.retry_after", "later"},
		{"log_format", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			assert.ErrorIs(t, service.Set(tt.key, tt.value), domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_KeysAndPath(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), testHome)

	keys := service.Keys()
	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, "semantic.dimension")
	assert.Contains(t, keys, "profile")
	assert.Equal(t, ":memory:", service.ConfigPath())
}
