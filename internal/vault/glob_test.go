package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"exact match", "notes.md", "notes.md", true},
		{"exact mismatch", "notes.md", "other.md", false},
		{"star matches within a name", "*.md", "notes.md", true},
		{"star crosses separators", "*.md", "daily/2024/notes.md", true},
		{"star at both ends", "*meeting*", "work/meeting-notes.md", true},
		{"folder prefix", "daily/*", "daily/today.md", true},
		{"folder prefix excludes others", "daily/*", "weekly/today.md", false},
		{"question mark matches one rune", "note?.md", "note1.md", true},
		{"question mark needs a rune", "note?.md", "note.md", false},
		{"character class", "note[12].md", "note2.md", true},
		{"character class mismatch", "note[12].md", "note3.md", false},
		{"character range", "note[0-9].md", "note7.md", true},
		{"negated class", "note[!0-9].md", "notex.md", true},
		{"negated class mismatch", "note[!0-9].md", "note5.md", false},
		{"class containing close bracket", "note[]x].md", "note].md", true},
		{"unterminated class is literal", "note[.md", "note[.md", true},
		{"unterminated class does not match class-wise", "note[ab.md", "notea.md", false},
		{"dot is literal", "a.md", "axmd", false},
		{"empty pattern matches only empty", "", "", true},
		{"empty pattern rejects content", "", "a.md", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchGlob(tt.pattern, tt.path))
		})
	}
}

func TestGlobRegexp_InvalidClassRange(t *testing.T) {
	// A backwards range is invalid in the compiled expression. The
	// scanner surfaces this to the caller instead of matching nothing.
	_, err := globRegexp("note[9-0].md")
	assert.Error(t, err)
}
