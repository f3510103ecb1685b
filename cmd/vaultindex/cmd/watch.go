package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vaultindex/vaultindex/internal/output"
	"github.com/vaultindex/vaultindex/internal/pipeline"
	"github.com/vaultindex/vaultindex/internal/store"
	"github.com/vaultindex/vaultindex/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var (
		folder string
		tag    string
		glob   string
	)

	cmd := &cobra.Command{
		Use:   "watch [vault]",
		Short: "Watch a vault and re-import notes as they change",
		Long: `Keep the collection in sync with the vault: watch for markdown
changes and re-run an incremental import once each burst of edits
settles. Stop with Ctrl-C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, cmd, vaultArg(args), pipeline.RunOptions{
				Folder: folder,
				Tag:    tag,
				Glob:   glob,
			})
		},
	}

	cmd.Flags().String("collection", "vault", "Collection to import into")
	cmd.Flags().StringVar(&folder, "folder", "", "Only watch notes under this vault subdirectory")
	cmd.Flags().StringVar(&tag, "tag", "", "Only import notes carrying this tag")
	cmd.Flags().StringVar(&glob, "glob", "", "Only import notes whose relative path matches this pattern")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, path string, opts pipeline.RunOptions) error {
	abs, err := resolveVault(path)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, abs)
	if err != nil {
		return err
	}
	opts.Incremental = true
	opts.Workers = cfg.Import.Workers

	console := newConsole(cmd)
	reporter := output.NewImportReporter(console, abs)
	driver, _, err := newPipeline(abs, cfg, reporter)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	coll, err := connectCollection(ctx, console, st, cfg.Qdrant.Collection)
	if err != nil {
		return err
	}
	console.Plainf("Qdrant collection: %s", coll.Name())

	w := watcher.New(watcher.Options{
		DebounceWindow: cfg.Watch.DebounceDuration(),
		PollInterval:   cfg.Watch.PollIntervalDuration(),
	})
	if err := w.Start(ctx, abs); err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	console.Plainf("Watching %s (%s). Press Ctrl-C to stop.", abs, w.Mode())
	console.Newline()

	// Catch up on anything edited while not watching.
	watchImport(ctx, console, driver, coll, opts)

	for {
		select {
		case <-ctx.Done():
			console.Newline()
			console.Plainf("Stopped.")
			return nil
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			console.Warningf("watch error: %s", userMessage(err))
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			console.Newline()
			console.Plainf("%d change(s) detected", len(batch))
			watchImport(ctx, console, driver, coll, opts)
		}
	}
}

// watchImport runs one incremental pass. A failed pass is reported and
// the watch keeps going; the next change retries.
func watchImport(ctx context.Context, console *output.Console, driver *pipeline.Driver, coll store.Collection, opts pipeline.RunOptions) {
	if _, err := driver.Import(ctx, coll, opts); err != nil && ctx.Err() == nil {
		console.Warningf("import failed: %s", userMessage(err))
	}
}
