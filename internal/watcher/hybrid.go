package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vaultindex/vaultindex/internal/errors"
)

// VaultWatcher watches a vault for markdown changes, preferring
// fsnotify and falling back to polling when fsnotify cannot start.
type VaultWatcher struct {
	fsWatcher      *fsnotify.Watcher
	poller         *pollingWatcher
	useFsnotify    bool
	debouncer      *Debouncer
	events         chan []FileEvent
	errs           chan error
	stopCh         chan struct{}
	root           string
	opts           Options
	mu             sync.RWMutex
	stopped        bool
	droppedBatches atomic.Uint64
}

// New creates a watcher. fsnotify failures at construction select the
// polling fallback rather than failing.
func New(opts Options) *VaultWatcher {
	opts = opts.WithDefaults()

	w := &VaultWatcher{
		debouncer: NewDebouncer(opts.DebounceWindow),
		events:    make(chan []FileEvent, opts.BatchBufferSize),
		errs:      make(chan error, 10),
		stopCh:    make(chan struct{}),
		opts:      opts,
	}

	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		w.fsWatcher = fsw
		w.useFsnotify = true
	} else {
		slog.Warn("fsnotify unavailable, falling back to polling", "error", err.Error())
		w.poller = newPollingWatcher(opts.PollInterval)
	}

	return w
}

// Start watches the vault rooted at root until the context is
// cancelled or Stop is called. It blocks; run it in its own goroutine
// and consume Events.
func (w *VaultWatcher) Start(ctx context.Context, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return errors.New(errors.ErrCodeVaultNotFound, "resolving vault path", err).WithPath(root)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return errors.New(errors.ErrCodeVaultNotFound, "vault root is not a directory", err).WithPath(abs)
	}
	w.root = abs

	go w.forwardBatches(ctx)

	if w.useFsnotify {
		return w.runFsnotify(ctx)
	}
	return w.runPolling(ctx)
}

// runFsnotify drives the fsnotify event loop.
func (w *VaultWatcher) runFsnotify(ctx context.Context) error {
	if err := w.watchTree(w.root); err != nil {
		return errors.New(errors.ErrCodeInternal, "registering vault directories", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

// runPolling forwards poller events through the debouncer.
func (w *VaultWatcher) runPolling(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case event, ok := <-w.poller.Events():
				if !ok {
					return
				}
				w.debouncer.Add(event)
			case err, ok := <-w.poller.Errors():
				if !ok {
					return
				}
				w.emitError(err)
			}
		}
	}()

	return w.poller.Start(ctx, w.root)
}

// handleFsnotifyEvent filters one raw event and feeds the debouncer.
// New directories are watched as they appear; deletions of markdown
// files pass through so a rerun can notice, even though stored chunks
// outlive their source until the collection is cleared.
func (w *VaultWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if ignorePath(rel) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// Watch the whole subtree: a mkdir -p burst may only
			// surface the topmost directory.
			if err := w.watchTree(event.Name); err != nil {
				w.emitError(err)
			}
			return
		}
	}

	if !isMarkdown(filepath.Base(event.Name)) {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		// Chmod and anything else.
		return
	}

	w.debouncer.Add(FileEvent{
		Path:      rel,
		Operation: op,
		Timestamp: time.Now(),
	})
}

// watchTree registers root and every non-skipped directory below it.
func (w *VaultWatcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && ignorePath(filepath.ToSlash(mustRel(w.root, path))) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func mustRel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

// forwardBatches moves debounced batches to the public channel.
func (w *VaultWatcher) forwardBatches(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			if len(batch) == 0 {
				continue
			}
			w.emitBatch(batch)
		}
	}
}

// emitBatch holds the read lock across the non-blocking send so Stop
// cannot close the channel mid-send.
func (w *VaultWatcher) emitBatch(batch []FileEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}

	select {
	case w.events <- batch:
	default:
		count := w.droppedBatches.Add(1)
		slog.Warn("event buffer full, dropping batch",
			"batch_size", len(batch), "total_dropped", count)
	}
}

func (w *VaultWatcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}

	select {
	case w.errs <- err:
	default:
	}
}

// Stop stops the watcher and closes its channels. Safe to call
// multiple times.
func (w *VaultWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)

	w.debouncer.Stop()
	if w.fsWatcher != nil {
		_ = w.fsWatcher.Close()
	}
	if w.poller != nil {
		_ = w.poller.Stop()
	}

	close(w.events)
	close(w.errs)
	return nil
}

// Events returns the channel of debounced event batches. It is closed
// when the watcher stops.
func (w *VaultWatcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns the channel of non-fatal watcher errors.
func (w *VaultWatcher) Errors() <-chan error {
	return w.errs
}

// Mode reports which mechanism is active: "fsnotify" or "polling".
func (w *VaultWatcher) Mode() string {
	if w.useFsnotify {
		return "fsnotify"
	}
	return "polling"
}
