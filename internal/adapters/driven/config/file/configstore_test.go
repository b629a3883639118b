package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".taskman", "config.toml"), store.Path())
}

func TestNewConfigStore_CreatesNestedDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "a", "b")

	_, err := NewConfigStore(nested)
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not toml {{[["), 0600))

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("profile", "dev"))
	require.NoError(t, store.Set("semantic.dimension", int64(384)))
	require.NoError(t, store.Set("semantic.search_threshold", 0.3))
	require.NoError(t, store.Set("semantic.enabled", true))

	assert.Equal(t, "dev", store.GetString("profile"))
	assert.Equal(t, 384, store.GetInt("semantic.dimension"))
	assert.InDelta(t, 0.3, store.GetFloat("semantic.search_threshold"), 1e-9)
	assert.InDelta(t, 384.0, store.GetFloat("semantic.dimension"), 1e-9)
	assert.True(t, store.GetBool("semantic.enabled"))
}

func TestConfigStore_TypedGetters_WrongTypeOrMissing(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("profile", "dev"))

	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("profile"))
	assert.Zero(t, store.GetFloat("profile"))
	assert.False(t, store.GetBool("profile"))

	val, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_Keys_Sorted(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("semantic.model", "m"))
	require.NoError(t, store.Set("profile", "dev"))
	require.NoError(t, store.Set("data_dir", "/tmp/x"))

	assert.Equal(t, []string{"data_dir", "profile", "semantic.model"}, store.Keys())
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("profile", "test"))
	require.NoError(t, store.Set("semantic.backend", "ollama"))
	require.NoError(t, store.Set("semantic.dimension", int64(256)))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, toml.Unmarshal(raw, &doc))
	assert.Equal(t, "test", doc["profile"])
	semantic, ok := doc["semantic"].(map[string]any)
	require.True(t, ok, "semantic should be written as a table")
	assert.Equal(t, "ollama", semantic["backend"])
	assert.Equal(t, int64(256), semantic["dimension"])
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := []byte(`profile = "dev"

[semantic]
enabled = false
search_threshold = 0.4
retry_after = "1m"
`)
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), content, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "dev", store.GetString("profile"))
	enabled, ok := store.Get("semantic.enabled")
	require.True(t, ok)
	assert.Equal(t, false, enabled)
	assert.InDelta(t, 0.4, store.GetFloat("semantic.search_threshold"), 1e-9)
	assert.Equal(t, "1m", store.GetString("semantic.retry_after"))
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()
	store1, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store1.Set("semantic.model", "nomic-ai/nomic-embed-text-v1.5"))
	require.NoError(t, store1.Set("semantic.dimension", 384))
	require.NoError(t, store1.Set("semantic.enabled", true))

	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "nomic-ai/nomic-embed-text-v1.5", store2.GetString("semantic.model"))
	assert.Equal(t, 384, store2.GetInt("semantic.dimension"))
	assert.True(t, store2.GetBool("semantic.enabled"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("profile", "dev"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Save_WriteFileError(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("profile", "dev"))

	// Replace the file with a directory so the write fails
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set("profile", "test"))
}

func TestConfigStore_Load_InvalidTOML(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("profile", "dev"))
	require.NoError(t, os.WriteFile(store.Path(), []byte("invalid ][}{"), 0600))

	assert.Error(t, store.Load())
}

func TestConfigStore_Load_CommentOnlyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("# nothing here\n"), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, store.Keys())
}

func TestConfigStore_SetUnmarshallableValue(t *testing.T) {
	store := newTestStore(t)

	assert.Error(t, store.Set("channel", make(chan int)))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := "semantic.key" + string(rune('0'+id))
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			_ = store.GetFloat(key)
			_ = store.Keys()
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.Keys(), 10)
}

func TestUnflattenMap(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want map[string]any
	}{
		{
			name: "flat keys",
			in:   map[string]any{"profile": "dev"},
			want: map[string]any{"profile": "dev"},
		},
		{
			name: "nested keys",
			in:   map[string]any{"semantic.model": "m", "semantic.dimension": 384},
			want: map[string]any{"semantic": map[string]any{"model": "m", "dimension": 384}},
		},
		{
			name: "table wins over scalar",
			in:   map[string]any{"semantic": "x", "semantic.model": "m"},
			want: map[string]any{"semantic": map[string]any{"model": "m"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := unflattenMap(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in["semantic.model"], flattenMap(got, "")["semantic.model"])
		})
	}
}
