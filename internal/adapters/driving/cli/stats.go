package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/taskman/internal/core/domain"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task counts by status and priority",
	Long: `Show how many tasks exist in each status and priority, how many open
tasks are overdue, and how many tasks the semantic index holds.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
}

// statsReport is the --json form of the stats command.
type statsReport struct {
	*domain.TaskStats

	// Indexed is nil when semantic search is unavailable.
	Indexed *int `json:"indexed,omitempty"`
}

func runStats(cmd *cobra.Command, _ []string) error {
	if taskService == nil {
		return errTaskServiceMissing
	}

	stats, err := taskService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to compute stats: %w", err)
	}

	report := statsReport{TaskStats: stats}
	if memoryService != nil {
		if n, err := memoryService.Indexed(cmd.Context()); err == nil {
			report.Indexed = &n
		}
	}

	if statsJSON {
		return printJSON(cmd, report)
	}

	out := cmd.OutOrStdout()
	cmd.Println(styled(out, titleStyle, fmt.Sprintf("Tasks: %d", stats.Total)))
	cmd.Println()
	cmd.Println("By status:")
	for _, status := range domain.AllTaskStatuses() {
		cmd.Printf("  %-12s %d\n", status, stats.ByStatus[status])
	}
	cmd.Println()
	cmd.Println("By priority:")
	for _, priority := range domain.AllPriorities() {
		cmd.Printf("  %-12s %s\n", priority,
			styled(out, priorityStyle(priority), fmt.Sprint(stats.ByPriority[priority])))
	}
	cmd.Println()
	if stats.Overdue > 0 {
		cmd.Println(styled(out, errorStyle, fmt.Sprintf("Overdue: %d", stats.Overdue)))
	} else {
		cmd.Println("Overdue: 0")
	}

	if report.Indexed != nil {
		cmd.Println(styled(out, mutedStyle, fmt.Sprintf("Indexed: %d", *report.Indexed)))
	} else {
		printUnavailable(cmd)
	}
	return nil
}
