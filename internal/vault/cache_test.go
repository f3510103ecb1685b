package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultindex/vaultindex/internal/errors"
	"github.com/vaultindex/vaultindex/internal/markdown"
)

func newTestCache(t *testing.T) *DocCache {
	t.Helper()
	docs, err := NewDocCache(0, markdown.YAMLFrontMatter{})
	require.NoError(t, err)
	return docs
}

func TestDocCache_Load_ParsesOnceAndCaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.md")
	require.NoError(t, os.WriteFile(path, []byte("---\ntitle: Note\n---\n\n# Heading\n\nBody.\n"), 0o644))

	docs := newTestCache(t)
	first, err := docs.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Note", first.FrontMatter["title"].Str)
	assert.Equal(t, 1, docs.Len())

	second, err := docs.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, docs.Len())
}

func TestDocCache_Load_IgnoresDiskChangeUntilForget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.md")
	require.NoError(t, os.WriteFile(path, []byte("# Old\n"), 0o644))

	docs := newTestCache(t)
	old, err := docs.Load(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("# New\n"), 0o644))

	stale, err := docs.Load(path)
	require.NoError(t, err)
	assert.Same(t, old, stale)

	docs.Forget(path)
	fresh, err := docs.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
	assert.Contains(t, fresh.Body, "# New")
}

func TestDocCache_Load_ReplacesInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.md")
	// "caf\xe9" is latin-1, not valid UTF-8.
	require.NoError(t, os.WriteFile(path, []byte("# caf\xe9\n"), 0o644))

	docs := newTestCache(t)
	doc, err := docs.Load(path)
	require.NoError(t, err)
	assert.Contains(t, doc.Body, "caf�")
}

func TestDocCache_Load_MissingFile(t *testing.T) {
	docs := newTestCache(t)
	_, err := docs.Load(filepath.Join(t.TempDir(), "absent.md"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFileRead, errors.GetCode(err))
}

func TestDocCache_Forget_UnknownPathIsHarmless(t *testing.T) {
	docs := newTestCache(t)
	docs.Forget("/never/loaded.md")
	assert.Equal(t, 0, docs.Len())
}
