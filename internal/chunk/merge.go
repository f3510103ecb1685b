package chunk

import (
	"strings"
	"unicode/utf8"

	"github.com/vaultindex/vaultindex/internal/markdown"
)

// MergedSection is a section after short-section folding: the heading
// identity of the absorbing section plus the final chunkable text,
// heading line included exactly once.
type MergedSection struct {
	Heading     string
	Level       int
	HeadingPath string
	Text        string
}

// HasTable reports whether the merged text contains a markdown table.
func (m MergedSection) HasTable() bool { return markdown.HasTable(m.Text) }

// HasCode reports whether the merged text contains a fenced code block.
func (m MergedSection) HasCode() bool { return markdown.HasCode(m.Text) }

// MergeSections folds sections whose rendered length falls below
// minLength into the beginning of the next qualifying section, so a
// bare heading with a line of content never becomes a standalone
// retrieval unit. Sections containing a table stand alone regardless
// of length. A trailing run of short sections is appended to the last
// merged section, or becomes a single headingless section when
// nothing else was produced.
func MergeSections(sections []markdown.Section, minLength int) []MergedSection {
	var merged []MergedSection
	pending := ""

	for _, sec := range sections {
		rendered := strings.TrimSpace(sec.Rendered())
		if utf8.RuneCountInString(rendered) < minLength && !sec.HasTable() {
			pending += rendered + "\n\n"
			continue
		}
		text := rendered
		if pending != "" {
			text = pending + rendered
			pending = ""
		}
		merged = append(merged, MergedSection{
			Heading:     sec.Heading,
			Level:       sec.Level,
			HeadingPath: sec.HeadingPath,
			Text:        text,
		})
	}

	if pending != "" {
		trimmed := strings.TrimSpace(pending)
		if len(merged) > 0 {
			merged[len(merged)-1].Text += "\n\n" + trimmed
		} else {
			merged = append(merged, MergedSection{Text: trimmed})
		}
	}
	return merged
}
