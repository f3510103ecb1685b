package chunk

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vaultindex/vaultindex/internal/markdown"
)

// Assembler converts parsed documents into finished chunks.
type Assembler struct {
	opts Options
}

// NewAssembler creates an assembler, filling zero options with the
// package defaults.
func NewAssembler(opts Options) *Assembler {
	if opts.MaxSize == 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.Overlap == 0 {
		opts.Overlap = DefaultOverlap
	}
	if opts.MinSection == 0 {
		opts.MinSection = DefaultMinSection
	}
	return &Assembler{opts: opts}
}

// Options returns the effective assembler options.
func (a *Assembler) Options() Options { return a.opts }

// Assemble merges the document's sections, chunks each one, and
// attaches metadata and deterministic IDs. relPath is the file's
// vault-relative slash-separated path; importedAt stamps every chunk
// of the run so two runs over identical input differ only by
// timestamp. Tags are the sorted union of file-level tags and the
// section's own inline tags; links are section-local, capped at
// MaxLinks. Flattened front matter merges in last under its fm_
// prefix.
func (a *Assembler) Assemble(relPath string, doc *markdown.Document, importedAt time.Time) []*Chunk {
	ts := importedAt.UTC().Format(time.RFC3339)
	fm := doc.FrontMatter.Flatten()
	merged := MergeSections(doc.Sections, a.opts.MinSection)

	var chunks []*Chunk
	for _, sec := range merged {
		if strings.TrimSpace(sec.Text) == "" {
			continue
		}

		tags := sortedUnion(doc.FileTags, markdown.ExtractTags(sec.Text))
		links := markdown.ExtractLinks(sec.Text)
		if len(links) > MaxLinks {
			links = links[:MaxLinks]
		}
		hasTable := sec.HasTable()
		hasCode := sec.HasCode()

		pieces := SplitText(sec.Text, a.opts.MaxSize, a.opts.Overlap)
		total := len(pieces)

		for idx, piece := range pieces {
			meta := map[string]any{
				MetaSourceFile:   relPath,
				MetaHeadingPath:  sec.HeadingPath,
				MetaHeadingLevel: sec.Level,
				MetaChunkIndex:   idx,
				MetaTotalChunks:  total,
				MetaCharCount:    utf8.RuneCountInString(piece),
				MetaHasTable:     hasTable,
				MetaHasCode:      hasCode,
				MetaImportedAt:   ts,
			}
			if len(tags) > 0 {
				meta[MetaTags] = strings.Join(tags, ", ")
			}
			if len(links) > 0 {
				meta[MetaLinks] = strings.Join(links, ", ")
			}
			for k, v := range fm {
				meta[k] = v
			}

			chunks = append(chunks, &Chunk{
				ID:       ChunkID(relPath, sec.HeadingPath, idx, total),
				Text:     piece,
				Metadata: meta,
			})
		}
	}
	return chunks
}

func sortedUnion(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
