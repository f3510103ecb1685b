package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vaultindex/vaultindex/internal/chunk"
	"github.com/vaultindex/vaultindex/internal/output"
	"github.com/vaultindex/vaultindex/internal/store"
)

// statsSampleSize bounds the number of records peeked for the sample
// summary.
const statsSampleSize = 10

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show collection statistics",
		Long: `Show the collection's point count plus a sample-based summary of the
source files and tags it contains.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runStats(ctx, cmd, jsonOutput)
		},
	}

	cmd.Flags().String("collection", "vault", "Collection to inspect")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// statsOutput is the JSON output format for collection stats.
type statsOutput struct {
	Collection  string   `json:"collection"`
	Exists      bool     `json:"exists"`
	TotalItems  uint64   `json:"total_items"`
	SampleSize  int      `json:"sample_size,omitempty"`
	SourceFiles []string `json:"source_files,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func runStats(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig(cmd, ".")
	if err != nil {
		return err
	}
	name := cfg.Qdrant.Collection
	console := newConsole(cmd)

	st, err := openQueryStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.Ping(ctx); err != nil {
		console.Errorf("Error connecting to Qdrant: %s", userMessage(err))
		return errReported
	}

	exists, err := st.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	out := statsOutput{Collection: name, Exists: exists}

	if !exists {
		if jsonOutput {
			return printStatsJSON(cmd, out)
		}
		console.Plainf("Collection not found: %s", name)
		return nil
	}

	coll, err := st.OpenCollection(ctx, name)
	if err != nil {
		return err
	}

	out.TotalItems, err = coll.Count(ctx)
	if err != nil {
		return err
	}

	if out.TotalItems > 0 {
		n := statsSampleSize
		if out.TotalItems < uint64(n) {
			n = int(out.TotalItems)
		}
		records, err := coll.Peek(ctx, n)
		if err != nil {
			return err
		}
		out.SampleSize = len(records)
		out.SourceFiles, out.Tags = aggregateSample(records)
	}

	if jsonOutput {
		return printStatsJSON(cmd, out)
	}
	printStatsFormatted(console, out)
	return nil
}

// aggregateSample collects the distinct source files and tags across
// peeked records, sorted. Tags are stored comma-joined, the way the
// assembler writes them.
func aggregateSample(records []*store.Record) (sources, tags []string) {
	sourceSet := make(map[string]struct{})
	tagSet := make(map[string]struct{})
	for _, rec := range records {
		if src, ok := rec.Metadata[chunk.MetaSourceFile].(string); ok && src != "" {
			sourceSet[src] = struct{}{}
		}
		joined, ok := rec.Metadata[chunk.MetaTags].(string)
		if !ok {
			continue
		}
		for _, t := range strings.Split(joined, ", ") {
			if t != "" {
				tagSet[t] = struct{}{}
			}
		}
	}

	for src := range sourceSet {
		sources = append(sources, src)
	}
	for t := range tagSet {
		tags = append(tags, t)
	}
	sort.Strings(sources)
	sort.Strings(tags)
	return sources, tags
}

func printStatsJSON(cmd *cobra.Command, out statsOutput) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printStatsFormatted(console *output.Console, out statsOutput) {
	console.Headerf("=== Collection: %s ===", out.Collection)
	console.Plainf("Total items: %d", out.TotalItems)

	if len(out.SourceFiles) > 0 {
		console.Plainf("Source files (sample): %d", len(out.SourceFiles))
		files := out.SourceFiles
		if len(files) > statsSampleSize {
			files = files[:statsSampleSize]
		}
		for _, src := range files {
			console.Dimf("  %s", src)
		}
	}
	if len(out.Tags) > 0 {
		tags := out.Tags
		if len(tags) > 20 {
			tags = tags[:20]
		}
		console.Plainf("Tags (sample): %s", strings.Join(tags, ", "))
	}
}
