package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taskman/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/taskman/internal/core/domain"
	"github.com/custodia-labs/taskman/internal/core/services"
)

// mockMemoryService is a mock implementation of driving.MemoryService.
type mockMemoryService struct {
	matches  []domain.TaskMatch
	status   error
	stats    domain.ReindexStats
	err      error
	resets   int
	indexed  int
	countErr error
	lastOpts domain.SemanticSearchOptions
	lastText string
}

func (m *mockMemoryService) Search(
	_ context.Context, query string, opts domain.SemanticSearchOptions,
) []domain.TaskMatch {
	m.lastText, m.lastOpts = query, opts
	return m.matches
}

func (m *mockMemoryService) FindSimilar(
	_ context.Context, text string, opts domain.SemanticSearchOptions,
) []domain.TaskMatch {
	m.lastText, m.lastOpts = text, opts
	return m.matches
}

func (m *mockMemoryService) Reindex(_ context.Context) (domain.ReindexStats, error) {
	return m.stats, m.err
}

func (m *mockMemoryService) Reset(_ context.Context) error {
	m.resets++
	return m.err
}

func (m *mockMemoryService) Indexed(_ context.Context) (int, error) {
	return m.indexed, m.countErr
}

func (m *mockMemoryService) Status(_ context.Context) error {
	return m.status
}

// testServices exposes the services installed by setupTestServices.
type testServices struct {
	tasks    *services.TaskService
	memory   *mockMemoryService
	settings *services.SettingsService
}

// setupTestServices installs in-memory services and returns a cleanup.
func setupTestServices(t *testing.T) (*testServices, func()) {
	t.Helper()
	ts := &testServices{
		tasks:  services.NewTaskService(memory.NewTaskStore(), nil),
		memory: &mockMemoryService{},
		settings: services.NewSettingsService(memory.NewConfigStore(), func() (string, error) {
			return "/home/tester", nil
		}),
	}
	SetServices(&Services{Tasks: ts.tasks, Memory: ts.memory, Settings: ts.settings})
	return ts, func() { SetServices(nil) }
}

// resetFlags restores every flag in the tree to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCommand runs the root command with args and captures output.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "profile", "data-dir"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRootCmd_Initialiser(t *testing.T) {
	defer SetInitialiser(nil)
	defer SetServices(nil)

	var got Options
	cleaned := false
	SetInitialiser(func(opts Options) (*Services, func(), error) {
		got = opts
		return &Services{
			Tasks: services.NewTaskService(memory.NewTaskStore(), nil),
		}, func() { cleaned = true }, nil
	})

	_, _, err := executeCommand(t, "--profile", "dev", "--data-dir", "/tmp/x", "task", "list")
	require.NoError(t, err)

	assert.Equal(t, "dev", got.Profile)
	assert.Equal(t, "/tmp/x", got.DataDir)
	assert.False(t, got.SettingsOnly)
	assert.True(t, cleaned)
}

func TestRootCmd_Initialiser_SettingsOnlyForConfig(t *testing.T) {
	defer SetInitialiser(nil)
	defer SetServices(nil)

	var got Options
	SetInitialiser(func(opts Options) (*Services, func(), error) {
		got = opts
		return &Services{
			Settings: services.NewSettingsService(memory.NewConfigStore(), func() (string, error) {
				return "/home/tester", nil
			}),
		}, nil, nil
	})

	_, _, err := executeCommand(t, "config", "path")
	require.NoError(t, err)
	assert.True(t, got.SettingsOnly)
}

func TestRootCmd_Initialiser_SkippedForVersion(t *testing.T) {
	defer SetInitialiser(nil)

	called := false
	SetInitialiser(func(Options) (*Services, func(), error) {
		called = true
		return &Services{}, nil, nil
	})

	_, _, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.False(t, called)
}

func TestRootCmd_Initialiser_Error(t *testing.T) {
	defer SetInitialiser(nil)

	SetInitialiser(func(Options) (*Services, func(), error) {
		return nil, nil, assert.AnError
	})

	_, _, err := executeCommand(t, "task", "list")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestPrintUnavailable(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()

	ts.memory.status = domain.ErrEmbeddingUnavailable
	_, stderr, err := executeCommand(t, "search", "anything")
	require.NoError(t, err)
	assert.Contains(t, stderr, "semantic search unavailable")

	SetServices(&Services{Tasks: ts.tasks})
	_, stderr, err = executeCommand(t, "search", "anything")
	require.NoError(t, err)
	assert.Contains(t, stderr, "semantic search is disabled")
}
