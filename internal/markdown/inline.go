package markdown

import (
	"regexp"
	"strings"
)

var (
	// tagPattern matches #tags: alphabetic first character, then
	// alphanumerics, underscores, hyphens, or slashes. The leading
	// whitespace-or-line-start guard keeps mid-word fragments (like URL
	// anchors) out.
	tagPattern = regexp.MustCompile(`(?m)(?:^|\s)#([a-zA-Z][a-zA-Z0-9_/-]*)`)

	// linkPattern matches [[target]] and [[target|alias]] wiki links,
	// capturing the target segment.
	linkPattern = regexp.MustCompile(`\[\[([^\]|]+)(?:\|[^\]]+)?\]\]`)
)

// ExtractTags returns the inline tags of body text, lower-cased and
// de-duplicated in first-seen order. Fenced code blocks are excluded.
func ExtractTags(text string) []string {
	matches := tagPattern.FindAllStringSubmatch(stripFencedBlocks(text), -1)

	seen := make(map[string]bool, len(matches))
	var tags []string
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// ExtractLinks returns wiki-link targets, de-duplicated in first-seen
// order with original case preserved. For aliased links only the target
// before the pipe is kept. Fenced code blocks are excluded.
func ExtractLinks(text string) []string {
	matches := linkPattern.FindAllStringSubmatch(stripFencedBlocks(text), -1)

	seen := make(map[string]bool, len(matches))
	var links []string
	for _, m := range matches {
		link := strings.TrimSpace(m[1])
		if link != "" && !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	}
	return links
}

// stripFencedBlocks removes fenced code regions, fence markers included,
// so their contents are invisible to tag and link scanning. An unclosed
// fence swallows the rest of the text.
func stripFencedBlocks(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0:0]
	inFence := false
	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if !inFence {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
