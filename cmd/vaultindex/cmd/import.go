package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vaultindex/vaultindex/internal/chunk"
	"github.com/vaultindex/vaultindex/internal/output"
	"github.com/vaultindex/vaultindex/internal/pipeline"
	"github.com/vaultindex/vaultindex/internal/store"
)

func newImportCmd() *cobra.Command {
	var (
		folder      string
		tag         string
		glob        string
		incremental bool
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "import [vault]",
		Short: "Import a vault into the vector store",
		Long: `Chunk every matching note and upsert the chunks into the collection.

Chunk identifiers are derived from file path, heading and position, so
re-importing replaces existing entries instead of duplicating them.
With --incremental, files whose modification time matches the state
recorded at the vault root are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runImport(ctx, cmd, vaultArg(args), pipeline.RunOptions{
				Folder:      folder,
				Tag:         tag,
				Glob:        glob,
				Incremental: incremental,
				DryRun:      dryRun,
			})
		},
	}

	cmd.Flags().String("collection", "vault", "Collection to import into")
	cmd.Flags().StringVar(&folder, "folder", "", "Only import notes under this vault subdirectory")
	cmd.Flags().StringVar(&tag, "tag", "", "Only import notes carrying this tag")
	cmd.Flags().StringVar(&glob, "glob", "", "Only import notes whose relative path matches this pattern")
	cmd.Flags().BoolVar(&incremental, "incremental", false, "Skip files unchanged since the last import")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the full pipeline without writing anything")
	cmd.Flags().Int("chunk-size", chunk.DefaultMaxSize, "Maximum chunk size in characters")
	cmd.Flags().Int("chunk-overlap", chunk.DefaultOverlap, "Overlap between chunks in characters")
	cmd.Flags().Int("batch-size", store.DefaultUpsertBatchSize, "Points per upsert request")
	cmd.Flags().Int("workers", pipeline.DefaultWorkers, "Concurrent import workers")

	return cmd
}

func runImport(ctx context.Context, cmd *cobra.Command, path string, opts pipeline.RunOptions) error {
	abs, err := resolveVault(path)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, abs)
	if err != nil {
		return err
	}
	opts.Workers = cfg.Import.Workers

	console := newConsole(cmd)
	reporter := output.NewImportReporter(console, abs)
	driver, _, err := newPipeline(abs, cfg, reporter)
	if err != nil {
		return err
	}

	// Dry runs never touch the store; the driver skips every upsert.
	var coll store.Collection
	if !opts.DryRun {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		coll, err = connectCollection(ctx, console, st, cfg.Qdrant.Collection)
		if err != nil {
			return err
		}
		console.Plainf("Qdrant collection: %s", coll.Name())
	}

	summary, err := driver.Import(ctx, coll, opts)
	if err != nil {
		return err
	}
	if summary.FilesDiscovered == 0 || reporter.UpToDate() {
		return nil
	}

	printImportSummary(ctx, console, coll, summary)
	return nil
}

// connectCollection checks reachability and returns the collection
// handle, creating the collection when absent.
func connectCollection(ctx context.Context, console *output.Console, st *store.QdrantStore, name string) (store.Collection, error) {
	if err := st.Ping(ctx); err != nil {
		console.Errorf("Error connecting to Qdrant: %s", userMessage(err))
		return nil, errReported
	}
	coll, err := st.Collection(ctx, name)
	if err != nil {
		console.Errorf("Error connecting to Qdrant: %s", userMessage(err))
		return nil, errReported
	}
	return coll, nil
}

// printImportSummary prints the run totals. A nil collection (dry run)
// leaves out the stored total.
func printImportSummary(ctx context.Context, console *output.Console, coll store.Collection, summary *pipeline.Summary) {
	console.Newline()
	console.Headerf("=== Import Summary ===")
	console.Plainf("Files imported: %d", summary.FilesImported)
	if summary.FilesSkipped > 0 {
		console.Plainf("Files skipped: %d", summary.FilesSkipped)
	}
	console.Plainf("Chunks upserted: %d", summary.Chunks)
	if coll != nil {
		if total, err := coll.Count(ctx); err == nil {
			console.Plainf("Collection total: %d items", total)
		} else {
			slog.Warn("failed to read collection total", "collection", coll.Name(), "error", err)
		}
	}
	if n := len(summary.Errors); n > 0 {
		console.Plainf("Errors: %d", n)
	}
}
