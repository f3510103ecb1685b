package markdown

import "strings"

// Document is a fully parsed vault file: front matter, body, file-level
// tags, and the ordered section list.
type Document struct {
	FrontMatter FrontMatter
	Body        string
	// FileTags is the union of front-matter tags and body-wide inline
	// tags, normalized, in first-seen order.
	FileTags []string
	Sections []Section
}

// ParseDocument runs the full text-model parse over raw file content.
func ParseDocument(content string, parser FrontMatterParser) *Document {
	fm, body := ParseFrontMatter(content, parser)

	return &Document{
		FrontMatter: fm,
		Body:        body,
		FileTags:    unionTags(fm.Tags(), ExtractTags(body)),
		Sections:    SplitSections(body),
	}
}

// HasTag reports whether the document carries the tag, in front matter
// or inline. The query is normalized the same way tags are.
func (d *Document) HasTag(tag string) bool {
	want := normalizeTag(tag)
	for _, t := range d.FileTags {
		if t == want {
			return true
		}
	}
	return false
}

func normalizeTag(tag string) string {
	return strings.TrimLeft(strings.ToLower(strings.TrimSpace(tag)), "#")
}

// unionTags concatenates tag lists, de-duplicating in first-seen order.
func unionTags(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, t := range list {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}
