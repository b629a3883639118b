package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/taskman/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change settings",
	Long: `Settings are read from ~/.taskman/config.toml, then TASKMAN_* environment
variables (a .env file is loaded first), then command line flags.`,
	Annotations: map[string]string{annotationSettingsOnly: "true"},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a setting in the config file",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd, configSetCmd, configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	out := cmd.OutOrStdout()
	cmd.Println(styled(out, titleStyle, "Current Settings"))
	cmd.Println()
	cmd.Printf("  Profile:   %s\n", settings.Profile)
	cmd.Printf("  Database:  %s\n", settings.DatabasePath())
	cmd.Printf("  Log:       %s\n", settings.LogFormat)
	cmd.Println()

	sem := settings.Semantic
	cmd.Println(styled(out, titleStyle, "[Semantic]"))
	if !sem.Enabled {
		cmd.Println("  Enabled: no")
		return nil
	}
	cmd.Println("  Enabled:    yes")
	cmd.Printf("  Backend:    %s\n", sem.Backend.Description())
	cmd.Printf("  Model:      %s\n", sem.Model)
	if sem.Backend == domain.EmbeddingBackendHugot {
		cmd.Printf("  Cache dir:  %s\n", sem.CacheDir)
	}
	if sem.BaseURL != "" {
		cmd.Printf("  Base URL:   %s\n", sem.BaseURL)
	}
	if sem.Backend.RequiresAPIKey() {
		if sem.APIKey != "" {
			cmd.Printf("  API Key:    %s\n", maskAPIKey(sem.APIKey))
		} else {
			cmd.Printf("  API Key:    %s\n", styled(out, warningStyle, "(not set)"))
		}
	}
	cmd.Printf("  Dimension:  %d\n", sem.Dimension)
	cmd.Printf("  Thresholds: search %.2f, similar %.2f\n", sem.SearchThreshold, sem.SimilarThreshold)
	cmd.Printf("  Timeout:    %s (model retry after %s)\n", sem.Timeout, sem.RetryAfter)

	status := styled(out, successStyle, "configured")
	if !sem.IsConfigured() {
		status = styled(out, warningStyle, "not configured")
	}
	cmd.Printf("  Status:     %s\n", status)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}
	cmd.Println(settingsService.ConfigPath())
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("%s = %s\n", args[0], args[1])
	if args[0] == "semantic.dimension" || args[0] == "semantic.model" || args[0] == "semantic.backend" {
		cmd.Println(styled(cmd.OutOrStdout(), mutedStyle, "Run 'taskman reindex --reset' to rebuild the index."))
	}
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
