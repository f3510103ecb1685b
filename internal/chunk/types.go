// Package chunk turns parsed documents into size-bounded, overlapping
// text chunks with flat metadata and deterministic identifiers, the
// unit handed to the vector store.
package chunk

// Sizing defaults, measured in characters.
const (
	DefaultMaxSize    = 1500
	DefaultOverlap    = 150
	DefaultMinSection = 50

	// MaxLinks caps the link list recorded in chunk metadata.
	MaxLinks = 20
)

// Metadata keys present on assembled chunks. Front-matter keys are
// merged in under an "fm_" prefix and cannot collide with these.
const (
	MetaSourceFile   = "source_file"
	MetaHeadingPath  = "heading_path"
	MetaHeadingLevel = "heading_level"
	MetaChunkIndex   = "chunk_index"
	MetaTotalChunks  = "total_chunks"
	MetaCharCount    = "char_count"
	MetaHasTable     = "has_table"
	MetaHasCode      = "has_code"
	MetaImportedAt   = "imported_at"
	MetaTags         = "tags"
	MetaLinks        = "links"
)

// Chunk is a bounded piece of a section's text plus metadata.
// Re-assembling byte-identical input yields byte-identical chunks,
// including IDs, which is what makes re-import idempotent.
type Chunk struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Options configures section merging and chunk sizing.
type Options struct {
	MaxSize    int // maximum chunk length
	Overlap    int // tail carried between consecutive chunks of one section
	MinSection int // sections rendered shorter than this fold forward
}
