package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var reindexReset bool

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the semantic index from the task table",
	Long: `Re-embeds every task and rewrites its index entry. Failures are
counted and skipped.

Use --reset after changing semantic.dimension or the embedding model: it
drops the index first so it is recreated with the new dimension.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	reindexCmd.Flags().BoolVar(&reindexReset, "reset", false, "drop the index before rebuilding")
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	if memoryService == nil {
		return errors.New("semantic search is disabled; enable it with 'taskman config set semantic.enabled true'")
	}

	if reindexReset {
		if err := memoryService.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("failed to reset index: %w", err)
		}
		cmd.Println("Index cleared.")
	}

	stats, err := memoryService.Reindex(cmd.Context())
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	out := cmd.OutOrStdout()
	cmd.Println(styled(out, successStyle, fmt.Sprintf("Indexed %d of %d tasks", stats.Indexed, stats.Total())))
	if stats.Failed > 0 {
		cmd.Println(styled(out, warningStyle, fmt.Sprintf("%d tasks failed; run with --verbose for details", stats.Failed)))
	}
	if n, err := memoryService.Indexed(cmd.Context()); err == nil {
		cmd.Println(styled(out, mutedStyle, fmt.Sprintf("Index holds %d entries", n)))
	}
	return nil
}
