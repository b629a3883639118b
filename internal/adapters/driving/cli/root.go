// Package cli provides the cobra command tree for taskman.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/taskman/internal/core/ports/driving"
	"github.com/custodia-labs/taskman/internal/logger"
)

// version is set at build time.
var version = "dev"

// annotationSettingsOnly marks commands that must work even when the
// task database or embedding backend cannot be opened.
const annotationSettingsOnly = "taskman/settings-only"

// Global flag values.
var (
	verboseFlag bool
	profileFlag string
	dataDirFlag string
)

var (
	taskService     driving.TaskService
	memoryService   driving.MemoryService
	settingsService driving.SettingsService
)

// Options carries global flag values into service construction.
type Options struct {
	Verbose bool
	Profile string
	DataDir string

	// SettingsOnly is set for commands that only need the settings service.
	SettingsOnly bool
}

// Services holds the driving ports the commands use.
type Services struct {
	Tasks    driving.TaskService
	Memory   driving.MemoryService
	Settings driving.SettingsService
}

// Initialiser builds services once flags are parsed. The returned cleanup
// runs after the command finishes.
type Initialiser func(opts Options) (*Services, func(), error)

var (
	initialiser Initialiser
	cleanup     func()
)

var rootCmd = &cobra.Command{
	Use:   "taskman",
	Short: "Personal task tracker with semantic recall",
	Long: `taskman tracks tasks in a local SQLite database and remembers them.

Every task is embedded with a local model so you can find it again by
meaning ("that oauth thing") and get warned about duplicates before you
add them.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print debug logs to stderr")
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "database profile (default, dev, test)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "directory holding task databases")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetInitialiser registers the function that builds services after flag parsing.
func SetInitialiser(fn Initialiser) {
	initialiser = fn
}

// SetServices installs services directly.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	taskService = s.Tasks
	memoryService = s.Memory
	settingsService = s.Settings
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.Execute()
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)
	if initialiser == nil || cmd.Name() == versionCmd.Name() {
		return nil
	}

	opts := Options{
		Verbose:      verboseFlag,
		Profile:      profileFlag,
		DataDir:      dataDirFlag,
		SettingsOnly: isSettingsOnly(cmd),
	}
	services, done, err := initialiser(opts)
	if err != nil {
		return err
	}
	SetServices(services)
	cleanup = done
	return nil
}

func isSettingsOnly(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[annotationSettingsOnly]; ok {
			return true
		}
	}
	return false
}

var (
	errTaskServiceMissing     = errors.New("task service not configured")
	errSettingsServiceMissing = errors.New("settings service not configured")
)

// printUnavailable writes a non-blocking notice when semantic search
// returned nothing because it is not working.
func printUnavailable(cmd *cobra.Command) {
	if memoryService == nil {
		fmt.Fprintln(cmd.ErrOrStderr(), styled(cmd.ErrOrStderr(), warningStyle, "note: semantic search is disabled"))
		return
	}
	if err := memoryService.Status(cmd.Context()); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), styled(cmd.ErrOrStderr(), warningStyle, "note: semantic search unavailable: "+err.Error()))
	}
}
