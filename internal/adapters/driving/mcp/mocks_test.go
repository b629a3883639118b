package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taskman/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/taskman/internal/core/domain"
	"github.com/custodia-labs/taskman/internal/core/services"
)

// mockMemoryService is a mock implementation of driving.MemoryService.
type mockMemoryService struct {
	matches   []domain.TaskMatch
	status    error
	lastQuery string
	lastOpts  domain.SemanticSearchOptions
	similar   int
	indexed   int
}

func (m *mockMemoryService) Search(
	_ context.Context, query string, opts domain.SemanticSearchOptions,
) []domain.TaskMatch {
	m.lastQuery, m.lastOpts = query, opts
	return m.matches
}

func (m *mockMemoryService) FindSimilar(
	_ context.Context, text string, opts domain.SemanticSearchOptions,
) []domain.TaskMatch {
	m.similar++
	m.lastQuery, m.lastOpts = text, opts
	return m.matches
}

func (m *mockMemoryService) Reindex(_ context.Context) (domain.ReindexStats, error) {
	return domain.ReindexStats{}, nil
}

func (m *mockMemoryService) Reset(_ context.Context) error {
	return nil
}

func (m *mockMemoryService) Indexed(_ context.Context) (int, error) {
	if m.status != nil {
		return 0, m.status
	}
	return m.indexed, nil
}

func (m *mockMemoryService) Status(_ context.Context) error {
	return m.status
}

// newTestServer builds a server over an in-memory task store.
func newTestServer(t *testing.T, mem *mockMemoryService) (*Server, *services.TaskService) {
	t.Helper()
	tasks := services.NewTaskService(memory.NewTaskStore(), nil)
	ports := &Ports{Tasks: tasks}
	if mem != nil {
		ports.Memory = mem
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server, tasks
}
