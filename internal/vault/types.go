// Package vault discovers markdown files in an Obsidian-style vault and
// tracks per-file import state. Discovery applies folder, glob and tag
// filters and always skips vault housekeeping directories.
package vault

import (
	"time"
)

// StateFileName is the incremental-import state file kept at the vault root.
const StateFileName = ".vaultindex-state.json"

// LockFileName guards the vault against concurrent import runs.
const LockFileName = ".vaultindex.lock"

// skipDirs are never descended into, in addition to any dot-prefixed
// path component.
var skipDirs = map[string]struct{}{
	".obsidian":    {},
	".trash":       {},
	".git":         {},
	"__pycache__":  {},
	"node_modules": {},
}

// File is a discovered markdown file. RelPath is vault-relative and
// slash-separated regardless of platform; it is the identity used for
// chunk IDs and state tracking.
type File struct {
	RelPath string
	AbsPath string
	Size    int64
	ModTime time.Time
}

// Mtime returns the file's modification time as fractional seconds
// since the epoch, the representation persisted in the state file.
func (f *File) Mtime() float64 {
	return Mtime(f.ModTime)
}

// Mtime converts a timestamp to fractional epoch seconds.
func Mtime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// ScanOptions narrows discovery.
type ScanOptions struct {
	// Folder restricts the walk to one vault subdirectory.
	Folder string

	// Tag keeps only files carrying the tag, in front matter or inline.
	Tag string

	// Glob keeps only files whose vault-relative path matches the
	// pattern. Unlike filepath.Match, '*' crosses path separators.
	Glob string
}
