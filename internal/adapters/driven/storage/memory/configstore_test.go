package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.values)
	assert.Empty(t, store.Keys())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("semantic.model", "nomic"))
	require.NoError(t, store.Set("semantic.model", "minilm"))

	val, ok := store.Get("semantic.model")
	assert.True(t, ok)
	assert.Equal(t, "minilm", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("semantic.backend", "hugot")
	_ = store.Set("semantic.dimension", int64(384))
	_ = store.Set("semantic.search_threshold", 0.25)
	_ = store.Set("semantic.enabled", true)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("semantic.backend"), "hugot"},
		{"string wrong type", store.GetString("semantic.dimension"), ""},
		{"int from int64", store.GetInt("semantic.dimension"), 384},
		{"int from float", store.GetInt("semantic.search_threshold"), 0},
		{"int missing", store.GetInt("missing"), 0},
		{"float", store.GetFloat("semantic.search_threshold"), 0.25},
		{"float from int64", store.GetFloat("semantic.dimension"), 384.0},
		{"float wrong type", store.GetFloat("semantic.backend"), 0.0},
		{"bool", store.GetBool("semantic.enabled"), true},
		{"bool wrong type", store.GetBool("semantic.backend"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_Keys_Sorted(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("semantic.timeout", "30s")
	_ = store.Set("data_dir", "/tmp")
	_ = store.Set("profile", "dev")

	assert.Equal(t, []string{"data_dir", "profile", "semantic.timeout"}, store.Keys())
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("profile", "test")

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, "test", store.GetString("profile"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", id)
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			_ = store.Keys()
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.Keys(), 50)
}
