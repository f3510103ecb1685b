package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultindex/vaultindex/internal/chunk"
	"github.com/vaultindex/vaultindex/internal/output"
	"github.com/vaultindex/vaultindex/internal/store"
)

func TestAggregateSample(t *testing.T) {
	// Given: peeked records with duplicate sources and comma-joined tags
	records := []*store.Record{
		{Metadata: map[string]any{
			chunk.MetaSourceFile: "notes/beta.md",
			chunk.MetaTags:       "project, work",
		}},
		{Metadata: map[string]any{
			chunk.MetaSourceFile: "notes/alpha.md",
			chunk.MetaTags:       "work",
		}},
		{Metadata: map[string]any{
			chunk.MetaSourceFile: "notes/alpha.md",
		}},
	}

	// When: aggregating the sample
	sources, tags := aggregateSample(records)

	// Then: both lists are distinct and sorted
	assert.Equal(t, []string{"notes/alpha.md", "notes/beta.md"}, sources)
	assert.Equal(t, []string{"project", "work"}, tags)
}

func TestAggregateSample_IgnoresMalformedMetadata(t *testing.T) {
	// Given: records with missing, empty and wrongly typed fields
	records := []*store.Record{
		{Metadata: map[string]any{}},
		{Metadata: map[string]any{
			chunk.MetaSourceFile: 7,
			chunk.MetaTags:       "",
		}},
		{Metadata: map[string]any{
			chunk.MetaSourceFile: "",
			chunk.MetaTags:       "solo",
		}},
	}

	// When: aggregating the sample
	sources, tags := aggregateSample(records)

	// Then: only the usable tag survives
	assert.Empty(t, sources)
	assert.Equal(t, []string{"solo"}, tags)
}

func TestPrintStatsFormatted_CapsSamples(t *testing.T) {
	// Given: stats with more sources and tags than the display caps
	out := statsOutput{Collection: "vault", Exists: true, TotalItems: 40, SampleSize: 10}
	for i := 0; i < 12; i++ {
		out.SourceFiles = append(out.SourceFiles, fmt.Sprintf("notes/file-%02d.md", i))
	}
	for i := 1; i <= 25; i++ {
		out.Tags = append(out.Tags, fmt.Sprintf("tag%02d", i))
	}

	// When: printing the formatted stats
	buf := &bytes.Buffer{}
	printStatsFormatted(output.NewPlainConsole(buf, buf), out)
	rendered := buf.String()

	// Then: the counts are full but the listed samples are capped
	assert.Contains(t, rendered, "=== Collection: vault ===")
	assert.Contains(t, rendered, "Total items: 40")
	assert.Contains(t, rendered, "Source files (sample): 12")
	assert.Equal(t, 10, strings.Count(rendered, "  notes/file-"), "Only ten files should be listed")
	assert.NotContains(t, rendered, "file-10.md")
	assert.Contains(t, rendered, "tag20")
	assert.NotContains(t, rendered, "tag21", "Only twenty tags should be listed")
}

func TestPrintStatsFormatted_OmitsEmptySections(t *testing.T) {
	// Given: an empty collection
	out := statsOutput{Collection: "vault", Exists: true, TotalItems: 0}

	// When: printing the formatted stats
	buf := &bytes.Buffer{}
	printStatsFormatted(output.NewPlainConsole(buf, buf), out)
	rendered := buf.String()

	// Then: only the header and count appear
	assert.Contains(t, rendered, "Total items: 0")
	assert.NotContains(t, rendered, "Source files")
	assert.NotContains(t, rendered, "Tags")
}

func TestPrintStatsJSON(t *testing.T) {
	// Given: stats for a small collection
	in := statsOutput{
		Collection:  "vault",
		Exists:      true,
		TotalItems:  3,
		SampleSize:  3,
		SourceFiles: []string{"a.md"},
		Tags:        []string{"work"},
	}

	cmd := &cobra.Command{}
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)

	// When: printing as JSON
	require.NoError(t, printStatsJSON(cmd, in))

	// Then: the document round-trips with the expected field names
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "vault", decoded["collection"])
	assert.Equal(t, true, decoded["exists"])
	assert.Equal(t, float64(3), decoded["total_items"])
	assert.Equal(t, []any{"a.md"}, decoded["source_files"])
}

func TestPrintStatsJSON_OmitsEmptySample(t *testing.T) {
	// Given: stats for a missing collection
	in := statsOutput{Collection: "vault", Exists: false}

	cmd := &cobra.Command{}
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)

	// When: printing as JSON
	require.NoError(t, printStatsJSON(cmd, in))

	// Then: empty sample fields are left out entirely
	rendered := buf.String()
	assert.Contains(t, rendered, `"exists": false`)
	assert.NotContains(t, rendered, "source_files")
	assert.NotContains(t, rendered, "sample_size")
}
