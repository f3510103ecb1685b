package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/vaultindex/vaultindex/internal/chunk"
	"github.com/vaultindex/vaultindex/internal/errors"
	"github.com/vaultindex/vaultindex/internal/store"
	"github.com/vaultindex/vaultindex/internal/vault"
)

// Dependencies are the collaborators a Driver needs.
type Dependencies struct {
	// Scanner discovers vault files (required).
	Scanner *vault.Scanner

	// Cache loads and caches parsed documents (required).
	Cache *vault.DocCache

	// Assembler turns documents into chunks (required).
	Assembler *chunk.Assembler

	// Progress receives per-file events (optional).
	Progress Progress
}

// Driver executes scan and import runs over one vault.
type Driver struct {
	scanner   *vault.Scanner
	cache     *vault.DocCache
	assembler *chunk.Assembler
	progress  Progress
}

// New validates the dependencies and builds a Driver.
func New(deps Dependencies) (*Driver, error) {
	if deps.Scanner == nil {
		return nil, errors.New(errors.ErrCodeInternal, "scanner is required", nil)
	}
	if deps.Cache == nil {
		return nil, errors.New(errors.ErrCodeInternal, "document cache is required", nil)
	}
	if deps.Assembler == nil {
		return nil, errors.New(errors.ErrCodeInternal, "assembler is required", nil)
	}
	progress := deps.Progress
	if progress == nil {
		progress = NopProgress{}
	}
	return &Driver{
		scanner:   deps.Scanner,
		cache:     deps.Cache,
		assembler: deps.Assembler,
		progress:  progress,
	}, nil
}

// fileResult is one worker's outcome, merged by the driver after the
// pool drains.
type fileResult struct {
	rel      string
	mtime    float64
	sections int
	chunks   int
	chars    int
	imported bool
	skipped  bool
	err      *FileError
}

// Scan parses and chunks every matching file without touching the
// store. Files run sequentially; there is no blocking store call to
// overlap. Section counts are the distinct heading paths among a
// file's chunks.
func (d *Driver) Scan(ctx context.Context, opts RunOptions) (*Summary, error) {
	start := time.Now()
	importedAt := start.UTC()

	files, err := d.scanner.Discover(ctx, vault.ScanOptions{Folder: opts.Folder, Tag: opts.Tag, Glob: opts.Glob})
	if err != nil {
		return nil, err
	}
	d.progress.Discovered(len(files), 0)

	summary := &Summary{FilesDiscovered: len(files)}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
		res := d.scanFile(f, importedAt)
		if res.err != nil {
			summary.Errors = append(summary.Errors, *res.err)
			continue
		}
		summary.Sections += res.sections
		summary.Chunks += res.chunks
		summary.Chars += res.chars
	}
	summary.Duration = time.Since(start)
	return summary, nil
}

func (d *Driver) scanFile(f *vault.File, importedAt time.Time) fileResult {
	res := fileResult{rel: f.RelPath}

	doc, err := d.cache.Load(f.AbsPath)
	if err != nil {
		res.err = &FileError{Path: f.RelPath, Stage: StageRead, Err: err}
		d.progress.FileFailed(f.RelPath, StageRead, err)
		return res
	}

	chunks := d.assembler.Assemble(f.RelPath, doc, importedAt)
	paths := make(map[string]struct{}, len(chunks))
	for _, ch := range chunks {
		if hp, ok := ch.Metadata[chunk.MetaHeadingPath].(string); ok {
			paths[hp] = struct{}{}
		}
		res.chars += utf8.RuneCountInString(ch.Text)
	}
	res.sections = len(paths)
	res.chunks = len(chunks)
	d.progress.FileScanned(f.RelPath, res.sections, res.chunks)
	return res
}

// Import discovers, chunks and upserts matching files. One file's
// failure is recorded and the run continues; its state entry is left
// alone so the next incremental run retries it. State is loaded and
// saved only for incremental runs, so plain imports stay stateless.
func (d *Driver) Import(ctx context.Context, coll store.Collection, opts RunOptions) (*Summary, error) {
	start := time.Now()
	importedAt := start.UTC()

	files, err := d.scanner.Discover(ctx, vault.ScanOptions{Folder: opts.Folder, Tag: opts.Tag, Glob: opts.Glob})
	if err != nil {
		return nil, err
	}

	summary := &Summary{FilesDiscovered: len(files)}
	if len(files) == 0 {
		d.progress.Discovered(0, 0)
		summary.Duration = time.Since(start)
		return summary, nil
	}

	root, err := d.scanner.Root()
	if err != nil {
		return nil, err
	}

	lock := vault.NewLock(root)
	if err := lock.TryLock(); err != nil {
		return nil, err
	}
	defer lock.Unlock()

	var state vault.State
	if opts.Incremental {
		state = vault.LoadState(root)
		changed := make([]*vault.File, 0, len(files))
		for _, f := range files {
			if state.Changed(f) {
				changed = append(changed, f)
			}
		}
		summary.FilesSkipped = len(files) - len(changed)
		files = changed
	}
	d.progress.Discovered(summary.FilesDiscovered, summary.FilesSkipped)

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	results := make(chan fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, f := range files {
		g.Go(func() error {
			// Cancellation is honored at file boundaries; chunks
			// already upserted are replaced idempotently on retry.
			if err := gctx.Err(); err != nil {
				return err
			}
			results <- d.importFile(gctx, coll, f, importedAt, opts.DryRun)
			return nil
		})
	}
	runErr := g.Wait()
	close(results)

	newState := make(vault.State, len(state)+len(files))
	for rel, mtime := range state {
		newState[rel] = mtime
	}
	for res := range results {
		switch {
		case res.err != nil:
			summary.Errors = append(summary.Errors, *res.err)
		case res.skipped:
			summary.FilesSkipped++
		case res.imported:
			summary.FilesImported++
			summary.Chunks += res.chunks
			newState[res.rel] = res.mtime
		}
	}
	sort.Slice(summary.Errors, func(i, j int) bool {
		return summary.Errors[i].Path < summary.Errors[j].Path
	})

	if opts.Incremental && !opts.DryRun {
		if err := vault.SaveState(root, newState); err != nil {
			// Losing the state only costs a redundant reimport.
			slog.Warn("failed to save import state", "vault", root, "error", err)
		}
	}

	summary.Duration = time.Since(start)
	return summary, runErr
}

// importFile moves one file through read, chunk and upsert. The
// returned result carries either counts or a staged error, never both.
func (d *Driver) importFile(ctx context.Context, coll store.Collection, f *vault.File, importedAt time.Time, dryRun bool) fileResult {
	res := fileResult{rel: f.RelPath, mtime: f.Mtime()}

	doc, err := d.cache.Load(f.AbsPath)
	if err != nil {
		res.err = &FileError{Path: f.RelPath, Stage: StageRead, Err: err}
		d.progress.FileFailed(f.RelPath, StageRead, err)
		return res
	}

	chunks := d.assembler.Assemble(f.RelPath, doc, importedAt)
	if len(chunks) == 0 {
		res.skipped = true
		d.progress.FileSkipped(f.RelPath)
		return res
	}

	if !dryRun {
		if err := coll.Upsert(ctx, chunks); err != nil {
			res.err = &FileError{Path: f.RelPath, Stage: StageUpsert, Err: err}
			d.progress.FileFailed(f.RelPath, StageUpsert, err)
			return res
		}
	}

	res.imported = true
	res.chunks = len(chunks)
	d.progress.FileImported(f.RelPath, len(chunks))
	return res
}
