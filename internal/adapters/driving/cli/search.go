package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/taskman/internal/core/domain"
)

var (
	searchLimit     int
	searchThreshold float64
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find tasks by meaning",
	Long: `Embeds the query and returns the tasks whose text is closest to it,
best match first. Matching is semantic: "login broken" finds
"Fix OAuth token refresh" even though no words are shared.

If the embedding model is unavailable the search returns no results and
a note is printed to stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var similarCmd = &cobra.Command{
	Use:   "similar [text]",
	Short: "Find tasks that may duplicate the given text",
	Long: `Like search, but with the stricter defaults used for duplicate
detection when adding a task.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, similarCmd} {
		c.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 = default)")
		c.Flags().Float64Var(&searchThreshold, "threshold", 0, "minimum similarity in (0,1] (0 = configured default, negative = no cutoff)")
		c.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	}
	rootCmd.AddCommand(searchCmd, similarCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	var matches []domain.TaskMatch
	if memoryService != nil {
		matches = memoryService.Search(cmd.Context(), args[0], searchOptions())
	}
	return outputMatches(cmd, matches)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	var matches []domain.TaskMatch
	if memoryService != nil {
		matches = memoryService.FindSimilar(cmd.Context(), args[0], searchOptions())
	}
	return outputMatches(cmd, matches)
}

func searchOptions() domain.SemanticSearchOptions {
	return domain.SemanticSearchOptions{Limit: searchLimit, Threshold: searchThreshold}
}

func outputMatches(cmd *cobra.Command, matches []domain.TaskMatch) error {
	if len(matches) == 0 {
		printUnavailable(cmd)
	}

	if searchJSON {
		if matches == nil {
			matches = []domain.TaskMatch{}
		}
		return printJSON(cmd, struct {
			Results []domain.TaskMatch `json:"results"`
			Count   int                `json:"count"`
		}{matches, len(matches)})
	}

	if len(matches) == 0 {
		cmd.Println("No matching tasks.")
		return nil
	}
	printMatches(cmd, matches)
	return nil
}

// printMatches prints one line per match: (0.62) [ ] #3 Title
func printMatches(cmd *cobra.Command, matches []domain.TaskMatch) {
	out := cmd.OutOrStdout()
	for i := range matches {
		score := styled(out, mutedStyle, fmt.Sprintf("(%.2f)", matches[i].Similarity))
		if matches[i].Task == nil {
			cmd.Printf("  %s #%d\n", score, matches[i].TaskID)
			continue
		}
		cmd.Print("  " + score + " ")
		printTaskLine(cmd, matches[i].Task)
	}
}
