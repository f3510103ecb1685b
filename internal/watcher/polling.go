package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// pollingWatcher detects changes by periodically rescanning the vault.
// It is the fallback for filesystems where fsnotify cannot start, such
// as some network mounts.
type pollingWatcher struct {
	interval time.Duration
	snapshot map[string]fileSnapshot
	events   chan FileEvent
	errs     chan error
	stopCh   chan struct{}
	mu       sync.Mutex
	stopped  bool
	root     string
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

func newPollingWatcher(interval time.Duration) *pollingWatcher {
	return &pollingWatcher{
		interval: interval,
		snapshot: make(map[string]fileSnapshot),
		events:   make(chan FileEvent, 100),
		errs:     make(chan error, 10),
		stopCh:   make(chan struct{}),
	}
}

// Start polls root until the context is cancelled or Stop is called.
// The first scan establishes a baseline and emits nothing.
func (p *pollingWatcher) Start(ctx context.Context, root string) error {
	p.root = root
	p.snapshot = p.scan()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			p.detectChanges()
		}
	}
}

// Stop stops the poller. Safe to call multiple times.
func (p *pollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}
	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errs)
	return nil
}

func (p *pollingWatcher) Events() <-chan FileEvent {
	return p.events
}

func (p *pollingWatcher) Errors() <-chan error {
	return p.errs
}

// scan walks the vault and snapshots every watchable markdown file.
func (p *pollingWatcher) scan() map[string]fileSnapshot {
	current := make(map[string]fileSnapshot, len(p.snapshot))

	err := filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel := filepath.ToSlash(mustRel(p.root, path))
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if ignorePath(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if ignorePath(rel) || !isMarkdown(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		current[rel] = fileSnapshot{modTime: info.ModTime(), size: info.Size()}
		return nil
	})
	if err != nil {
		slog.Warn("vault poll scan failed", "vault", p.root, "error", err.Error())
	}
	return current
}

// detectChanges diffs a fresh scan against the previous snapshot.
func (p *pollingWatcher) detectChanges() {
	current := p.scan()
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}

	for rel, snap := range current {
		prev, existed := p.snapshot[rel]
		switch {
		case !existed:
			p.emit(FileEvent{Path: rel, Operation: OpCreate, Timestamp: now})
		case prev.modTime != snap.modTime || prev.size != snap.size:
			p.emit(FileEvent{Path: rel, Operation: OpModify, Timestamp: now})
		}
	}
	for rel := range p.snapshot {
		if _, exists := current[rel]; !exists {
			p.emit(FileEvent{Path: rel, Operation: OpDelete, Timestamp: now})
		}
	}

	p.snapshot = current
}

// emit sends without blocking; the caller holds the lock.
func (p *pollingWatcher) emit(event FileEvent) {
	select {
	case p.events <- event:
	default:
		slog.Warn("polling buffer full, dropping event",
			"path", event.Path, "op", event.Operation.String())
	}
}
