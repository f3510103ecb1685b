// Package pipeline drives an indexing run: discover vault files,
// parse and chunk each one, upsert the chunks, and record per-file
// state for incremental reimports.
package pipeline

import "time"

// DefaultWorkers bounds the import worker pool when the caller does
// not choose a size.
const DefaultWorkers = 4

// Stages a file can fail in. Parsing and chunking never fail on their
// own; malformed input degrades to an empty document instead.
const (
	StageRead   = "read"
	StageUpsert = "upsert"
)

// RunOptions selects and narrows the files one run touches.
type RunOptions struct {
	// Folder restricts discovery to a vault subdirectory.
	Folder string

	// Tag keeps only files carrying the tag.
	Tag string

	// Glob keeps only files whose relative path matches.
	Glob string

	// Incremental skips files unchanged since the last recorded run
	// and persists the new state afterwards.
	Incremental bool

	// DryRun walks the full pipeline but neither upserts nor writes
	// state.
	DryRun bool

	// Workers bounds the import pool. Zero or less runs sequentially.
	Workers int
}

// FileError records one file's failure without stopping the run.
type FileError struct {
	Path  string
	Stage string
	Err   error
}

// Summary aggregates one run. Sections and Chars are only filled by
// scans; Chunks counts produced chunks for scans and upserted chunks
// for imports.
type Summary struct {
	FilesDiscovered int
	FilesImported   int
	FilesSkipped    int
	Sections        int
	Chunks          int
	Chars           int
	Errors          []FileError
	Duration        time.Duration
}

// Progress receives per-file events as the run proceeds. Import
// callbacks may arrive from multiple workers concurrently and out of
// path order.
type Progress interface {
	// Discovered reports the filtered file count and, for incremental
	// runs, how many of those were dropped as unchanged. It fires once
	// before any file is processed.
	Discovered(total, unchanged int)

	// FileScanned reports a scanned file's distinct section count and
	// chunk count.
	FileScanned(rel string, sections, chunks int)

	// FileImported reports a successfully upserted file.
	FileImported(rel string, chunks int)

	// FileSkipped reports a file that produced no chunks.
	FileSkipped(rel string)

	// FileFailed reports a soft failure; the run continues.
	FileFailed(rel, stage string, err error)
}

// NopProgress discards all events.
type NopProgress struct{}

func (NopProgress) Discovered(int, int)              {}
func (NopProgress) FileScanned(string, int, int)     {}
func (NopProgress) FileImported(string, int)         {}
func (NopProgress) FileSkipped(string)               {}
func (NopProgress) FileFailed(string, string, error) {}
