package markdown

import (
	"regexp"
	"strings"
)

var (
	headingPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	tablePattern   = regexp.MustCompile(`(?m)^\|.*\|.*\|`)
)

// Section is one heading-delimited region of a document body.
type Section struct {
	// Heading is the heading text, empty for pre-heading content.
	Heading string
	// Level is the heading depth 1-6, or 0 for pre-heading content.
	Level int
	// Content is the text between this heading and the next.
	Content string
	// HeadingPath joins the open ancestor headings and this heading
	// with " > ".
	HeadingPath string
}

// Rendered returns the section text with its heading line restored.
func (s Section) Rendered() string {
	if s.Heading == "" {
		return s.Content
	}
	return strings.Repeat("#", s.Level) + " " + s.Heading + "\n\n" + s.Content
}

// HasTable reports whether the section content contains a table row.
func (s Section) HasTable() bool { return HasTable(s.Content) }

// HasCode reports whether the section content contains a code fence.
func (s Section) HasCode() bool { return HasCode(s.Content) }

// HasTable reports whether text contains a markdown table row (a line
// with at least three pipes).
func HasTable(text string) bool { return tablePattern.MatchString(text) }

// HasCode reports whether text contains a code fence marker.
func HasCode(text string) bool { return strings.Contains(text, "```") }

// headingEntry is one open heading on the stack.
type headingEntry struct {
	level int
	text  string
}

// headingStack tracks the currently-open headings. It is a value type:
// descend returns a fresh stack rather than mutating in place, so each
// section's path is computed from an independent snapshot.
type headingStack []headingEntry

// descend closes every open heading at the new level or deeper, then
// opens the new heading, returning the resulting stack.
func (s headingStack) descend(level int, text string) headingStack {
	keep := len(s)
	for keep > 0 && s[keep-1].level >= level {
		keep--
	}
	next := make(headingStack, keep, keep+1)
	copy(next, s[:keep])
	return append(next, headingEntry{level: level, text: text})
}

// path joins the open heading texts with " > ".
func (s headingStack) path() string {
	parts := make([]string, len(s))
	for i, e := range s {
		parts[i] = e.text
	}
	return strings.Join(parts, " > ")
}

// SplitSections divides body text into orderly Sections by heading
// hierarchy. Content before the first heading becomes a level-0 Section;
// a body with no headings yields at most one Section.
func SplitSections(body string) []Section {
	headings := headingPattern.FindAllStringSubmatchIndex(body, -1)

	if len(headings) == 0 {
		text := strings.TrimSpace(body)
		if text == "" {
			return nil
		}
		return []Section{{Content: text}}
	}

	var sections []Section

	if pre := strings.TrimSpace(body[:headings[0][0]]); pre != "" {
		sections = append(sections, Section{Content: pre})
	}

	var stack headingStack
	for i, h := range headings {
		level := h[3] - h[2]
		heading := strings.TrimSpace(body[h[4]:h[5]])

		contentStart := h[1]
		contentEnd := len(body)
		if i+1 < len(headings) {
			contentEnd = headings[i+1][0]
		}
		content := strings.TrimSpace(body[contentStart:contentEnd])

		stack = stack.descend(level, heading)

		sections = append(sections, Section{
			Heading:     heading,
			Level:       level,
			Content:     content,
			HeadingPath: stack.path(),
		})
	}

	return sections
}
