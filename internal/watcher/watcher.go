// Package watcher provides debounced file watching for a vault.
//
// The primary mechanism is fsnotify; when it cannot initialize (some
// network mounts and container volumes), the watcher falls back to
// periodic polling. Raw events are filtered to markdown files, with
// the vault's housekeeping directories excluded, and debounced so the
// save bursts editors produce coalesce into one batch per quiet
// period.
package watcher

import (
	"strings"
	"time"

	"github.com/vaultindex/vaultindex/internal/vault"
)

// Operation is the kind of change a FileEvent reports.
type Operation int

const (
	// OpCreate indicates a new file appeared.
	OpCreate Operation = iota
	// OpModify indicates an existing file changed.
	OpModify
	// OpDelete indicates a file was removed.
	OpDelete
	// OpRename indicates a file was renamed away.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one observed change to a markdown file.
type FileEvent struct {
	// Path is the vault-relative, slash-separated file path.
	Path string

	// Operation is the kind of change.
	Operation Operation

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Options configures the watcher.
type Options struct {
	// DebounceWindow is the quiet period before a batch is emitted.
	// Default: 500ms.
	DebounceWindow time.Duration

	// PollInterval is the scan interval for the polling fallback.
	// Default: 5s.
	PollInterval time.Duration

	// BatchBufferSize is the batch channel capacity. Default: 64.
	BatchBufferSize int
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  500 * time.Millisecond,
		PollInterval:    5 * time.Second,
		BatchBufferSize: 64,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow == 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval == 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.BatchBufferSize == 0 {
		o.BatchBufferSize = defaults.BatchBufferSize
	}
	return o
}

// ignorePath reports whether a vault-relative slash path is outside
// the watcher's interest: anything under a skipped directory, or a
// skipped name itself. The vault state and lock files are dot-prefixed
// and fall out here, which keeps the watcher from reacting to its own
// import runs.
func ignorePath(rel string) bool {
	if rel == "" || rel == "." {
		return true
	}
	for _, part := range strings.Split(rel, "/") {
		if vault.SkippedComponent(part) {
			return true
		}
	}
	return false
}

// isMarkdown matches the same rule discovery uses.
func isMarkdown(name string) bool {
	return strings.HasSuffix(name, ".md")
}
