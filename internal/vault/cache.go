package vault

import (
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vaultindex/vaultindex/internal/errors"
	"github.com/vaultindex/vaultindex/internal/markdown"
)

// defaultDocCacheSize bounds the parsed-document cache. Tag filtering
// parses every candidate file; the cache lets the import stage reuse
// those parses instead of reading everything twice.
const defaultDocCacheSize = 4096

// DocCache reads and parses markdown files, caching results by
// absolute path for the duration of one run.
type DocCache struct {
	docs   *lru.Cache[string, *markdown.Document]
	parser markdown.FrontMatterParser
}

// NewDocCache creates a cache holding up to size parsed documents.
// Size <= 0 uses the default.
func NewDocCache(size int, parser markdown.FrontMatterParser) (*DocCache, error) {
	if size <= 0 {
		size = defaultDocCacheSize
	}
	docs, err := lru.New[string, *markdown.Document](size)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err)
	}
	return &DocCache{docs: docs, parser: parser}, nil
}

// Load returns the parsed document for path, reading the file on a
// cache miss. Invalid UTF-8 byte sequences are replaced rather than
// failing the file.
func (c *DocCache) Load(path string) (*markdown.Document, error) {
	if doc, ok := c.docs.Get(path); ok {
		return doc, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeFileRead, "reading file", err).WithPath(path)
	}
	content := strings.ToValidUTF8(string(raw), "�")
	doc := markdown.ParseDocument(content, c.parser)
	c.docs.Add(path, doc)
	return doc, nil
}

// Forget drops one path from the cache. The watcher calls this when a
// file changes on disk.
func (c *DocCache) Forget(path string) {
	c.docs.Remove(path)
}

// Len reports how many parsed documents are cached.
func (c *DocCache) Len() int {
	return c.docs.Len()
}
