// Package cmd provides the CLI commands for vaultindex.
package cmd

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaultindex/vaultindex/internal/logging"
	"github.com/vaultindex/vaultindex/internal/profiling"
	"github.com/vaultindex/vaultindex/pkg/version"
)

// Debug and profiling flags
var (
	debugMode      bool
	profileCPU     string
	profileMem     string
	profileTrace   string
	profiler       *profiling.Profiler
	loggingCleanup func()
)

// NewRootCmd creates the root command for the vaultindex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vaultindex",
		Short: "Import Obsidian-style markdown vaults into a vector store",
		Long: `Vaultindex chunks the markdown notes of an Obsidian-style vault and
upserts them into a Qdrant collection for semantic search.

Notes are split along their headings, short sections are folded into
their neighbors, and oversized sections become overlapping chunks with
stable identifiers, so re-importing a vault replaces instead of
duplicating.

Run 'vaultindex scan' for a dry run and 'vaultindex import' to index.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	cmd.SetVersionTemplate("vaultindex version {{.Version}}\n")

	// Debug logging flag
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging mirrored to stderr")

	// Profiling flags
	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")

	// Profiling and logging hooks
	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	// Add subcommands
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging starts the requested profiles and routes
// slog to the rotating log file before any command runs. Stdout stays
// reserved for command output.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	p, err := profiling.Start(profiling.Options{
		CPUPath:   profileCPU,
		HeapPath:  profileMem,
		TracePath: profileTrace,
	})
	if err != nil {
		return err
	}
	profiler = p

	cfg := logging.DefaultConfig()
	if debugMode {
		cfg = logging.DebugConfig()
	}

	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		profiler.Stop()
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)

	if debugMode {
		slog.Debug("debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}
	return nil
}

// stopProfilingAndLogging flushes the profiles and the log file.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	profiler.Stop()
	profiler = nil

	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command, reporting any failure on stderr.
// Errors a command has already printed itself are not repeated.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil && !stderrors.Is(err, errReported) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}
