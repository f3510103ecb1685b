package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vaultindex/vaultindex/internal/chunk"
	"github.com/vaultindex/vaultindex/internal/output"
	"github.com/vaultindex/vaultindex/internal/pipeline"
	"github.com/vaultindex/vaultindex/internal/vault"
)

func newScanCmd() *cobra.Command {
	var (
		folder string
		tag    string
		glob   string
	)

	cmd := &cobra.Command{
		Use:   "scan [vault]",
		Short: "Preview what an import would produce",
		Long: `Parse and chunk every matching note and report per-file section and
chunk counts. Nothing is written to the store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runScan(ctx, cmd, vaultArg(args), pipeline.RunOptions{
				Folder: folder,
				Tag:    tag,
				Glob:   glob,
			})
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Only scan notes under this vault subdirectory")
	cmd.Flags().StringVar(&tag, "tag", "", "Only scan notes carrying this tag")
	cmd.Flags().StringVar(&glob, "glob", "", "Only scan notes whose relative path matches this pattern")
	cmd.Flags().Int("chunk-size", chunk.DefaultMaxSize, "Maximum chunk size in characters")
	cmd.Flags().Int("chunk-overlap", chunk.DefaultOverlap, "Overlap between chunks in characters")

	return cmd
}

func runScan(ctx context.Context, cmd *cobra.Command, path string, opts pipeline.RunOptions) error {
	abs, err := resolveVault(path)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, abs)
	if err != nil {
		return err
	}

	console := newConsole(cmd)
	driver, scanner, err := newPipeline(abs, cfg, output.NewReporter(console))
	if err != nil {
		return err
	}

	// Discover once up front so the header can name the file count
	// before the per-file lines start. The shared document cache keeps
	// the driver's own discovery from re-parsing anything.
	files, err := scanner.Discover(ctx, vault.ScanOptions{Folder: opts.Folder, Tag: opts.Tag, Glob: opts.Glob})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		console.Plainf("No .md files found matching filters.")
		return nil
	}

	console.Headerf("=== Vault Scan: %s ===", abs)
	console.Plainf("Files found: %d", len(files))
	console.Newline()

	summary, err := driver.Scan(ctx, opts)
	if err != nil {
		return err
	}

	console.Newline()
	console.Plainf("Total: %d files, %d sections, %d chunks, %s chars",
		summary.FilesDiscovered, summary.Sections, summary.Chunks, output.Thousands(summary.Chars))
	return nil
}
