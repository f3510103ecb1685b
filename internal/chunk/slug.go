package chunk

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	slugStripPattern  = regexp.MustCompile(`[^a-z0-9\s\-/]`)
	slugSpacePattern  = regexp.MustCompile(`\s+`)
	slugHyphenPattern = regexp.MustCompile(`-+`)
)

// Slugify converts text to a lowercase identifier-safe form. Slashes
// survive so vault-relative paths keep their shape in chunk IDs.
func Slugify(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = slugStripPattern.ReplaceAllString(s, "")
	s = slugSpacePattern.ReplaceAllString(s, "-")
	s = slugHyphenPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ChunkID derives the deterministic identifier for one chunk:
// slugified file path (without the .md suffix), "::", slugified heading
// path, and a "::chunk-N" suffix only when the section split into more
// than one chunk. The ID is a pure function of its inputs.
func ChunkID(relPath, headingPath string, index, total int) string {
	id := Slugify(strings.TrimSuffix(relPath, ".md")) + "::" + Slugify(headingPath)
	if total > 1 {
		id += fmt.Sprintf("::chunk-%d", index)
	}
	return id
}
