package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultindex/vaultindex/internal/chunk"
	"github.com/vaultindex/vaultindex/internal/errors"
	"github.com/vaultindex/vaultindex/internal/markdown"
	"github.com/vaultindex/vaultindex/internal/store"
	"github.com/vaultindex/vaultindex/internal/vault"
)

const paragraph = "This paragraph carries enough prose to clear the short section threshold without any effort at all."

func twoSectionNote() string {
	return "# Intro\n\n" + paragraph + "\n\n# Details\n\n" + paragraph + "\n"
}

func plainNote(n int) string {
	return fmt.Sprintf("Note %d. %s\n", n, paragraph)
}

// writeVault materializes a fixture vault in a temp directory.
func writeVault(t *testing.T, files map[string]string) string {
	t.Helper()
	tmpDir := t.TempDir()
	for path, content := range files {
		fullPath := filepath.Join(tmpDir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}
	return tmpDir
}

func newTestDriver(t *testing.T, root string, progress Progress) *Driver {
	t.Helper()
	cache, err := vault.NewDocCache(0, markdown.YAMLFrontMatter{})
	require.NoError(t, err)
	d, err := New(Dependencies{
		Scanner:   vault.NewScanner(root, cache),
		Cache:     cache,
		Assembler: chunk.NewAssembler(chunk.Options{}),
		Progress:  progress,
	})
	require.NoError(t, err)
	return d
}

// fakeCollection records upserted batches and can fail per source file.
type fakeCollection struct {
	mu       sync.Mutex
	batches  [][]*chunk.Chunk
	failFor  map[string]error
	onUpsert func()
}

var _ store.Collection = (*fakeCollection)(nil)

func (c *fakeCollection) Name() string { return "fake" }

func (c *fakeCollection) Upsert(_ context.Context, chunks []*chunk.Chunk) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(chunks) > 0 {
		if src, ok := chunks[0].Metadata[chunk.MetaSourceFile].(string); ok {
			if err := c.failFor[src]; err != nil {
				return err
			}
		}
	}
	c.batches = append(c.batches, chunks)
	if c.onUpsert != nil {
		c.onUpsert()
	}
	return nil
}

func (c *fakeCollection) Count(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make(map[string]struct{})
	for _, batch := range c.batches {
		for _, ch := range batch {
			ids[ch.ID] = struct{}{}
		}
	}
	return uint64(len(ids)), nil
}

func (c *fakeCollection) Peek(context.Context, int) ([]*store.Record, error) { return nil, nil }

func (c *fakeCollection) chunkCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, batch := range c.batches {
		n += len(batch)
	}
	return n
}

func (c *fakeCollection) sourceFiles() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[string]struct{})
	var files []string
	for _, batch := range c.batches {
		for _, ch := range batch {
			if src, ok := ch.Metadata[chunk.MetaSourceFile].(string); ok {
				if _, dup := seen[src]; !dup {
					seen[src] = struct{}{}
					files = append(files, src)
				}
			}
		}
	}
	return files
}

// progressRecorder captures callbacks as comparable strings.
type progressRecorder struct {
	mu         sync.Mutex
	discovered []string
	scanned    []string
	imported   []string
	skipped    []string
	failed     []string
}

var _ Progress = (*progressRecorder)(nil)

func (p *progressRecorder) Discovered(total, unchanged int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discovered = append(p.discovered, fmt.Sprintf("%d/%d", total, unchanged))
}

func (p *progressRecorder) FileScanned(rel string, sections, chunks int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scanned = append(p.scanned, fmt.Sprintf("%s:%d:%d", rel, sections, chunks))
}

func (p *progressRecorder) FileImported(rel string, chunks int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.imported = append(p.imported, fmt.Sprintf("%s:%d", rel, chunks))
}

func (p *progressRecorder) FileSkipped(rel string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.skipped = append(p.skipped, rel)
}

func (p *progressRecorder) FileFailed(rel, stage string, _ error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = append(p.failed, rel+":"+stage)
}

func TestNew_RequiresDependencies(t *testing.T) {
	cache, err := vault.NewDocCache(0, markdown.YAMLFrontMatter{})
	require.NoError(t, err)
	scanner := vault.NewScanner(t.TempDir(), cache)
	assembler := chunk.NewAssembler(chunk.Options{})

	_, err = New(Dependencies{Cache: cache, Assembler: assembler})
	assert.Error(t, err)
	_, err = New(Dependencies{Scanner: scanner, Assembler: assembler})
	assert.Error(t, err)
	_, err = New(Dependencies{Scanner: scanner, Cache: cache})
	assert.Error(t, err)

	d, err := New(Dependencies{Scanner: scanner, Cache: cache, Assembler: assembler})
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestScan_CountsSectionsAndChunks(t *testing.T) {
	root := writeVault(t, map[string]string{
		"a.md": twoSectionNote(),
		"b.md": plainNote(1),
	})
	progress := &progressRecorder{}
	d := newTestDriver(t, root, progress)

	summary, err := d.Scan(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.FilesDiscovered)
	assert.Equal(t, 3, summary.Sections)
	assert.Equal(t, 3, summary.Chunks)
	assert.Positive(t, summary.Chars)
	assert.Empty(t, summary.Errors)

	assert.Equal(t, []string{"2/0"}, progress.discovered)
	assert.Equal(t, []string{"a.md:2:2", "b.md:1:1"}, progress.scanned)
}

func TestScan_EmptyFileReportsZeroCounts(t *testing.T) {
	root := writeVault(t, map[string]string{
		"blank.md": "\n \n\n",
	})
	progress := &progressRecorder{}
	d := newTestDriver(t, root, progress)

	summary, err := d.Scan(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FilesDiscovered)
	assert.Zero(t, summary.Chunks)
	assert.Equal(t, []string{"blank.md:0:0"}, progress.scanned)
}

func TestScan_MissingVault(t *testing.T) {
	d := newTestDriver(t, filepath.Join(t.TempDir(), "missing"), nil)

	summary, err := d.Scan(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Equal(t, errors.ErrCodeVaultNotFound, errors.GetCode(err))
}

func TestImport_UpsertsAllChunks(t *testing.T) {
	root := writeVault(t, map[string]string{
		"a.md": twoSectionNote(),
		"b.md": plainNote(1),
	})
	progress := &progressRecorder{}
	d := newTestDriver(t, root, progress)
	coll := &fakeCollection{}

	summary, err := d.Import(context.Background(), coll, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.FilesImported)
	assert.Equal(t, 3, summary.Chunks)
	assert.Zero(t, summary.FilesSkipped)
	assert.Empty(t, summary.Errors)
	assert.Equal(t, 3, coll.chunkCount())
	assert.ElementsMatch(t, []string{"a.md:2", "b.md:1"}, progress.imported)

	// A plain import leaves no state behind.
	assert.NoFileExists(t, filepath.Join(root, vault.StateFileName))
}

func TestImport_IncrementalSkipsUnchanged(t *testing.T) {
	root := writeVault(t, map[string]string{
		"a.md": plainNote(1),
		"b.md": plainNote(2),
		"c.md": plainNote(3),
	})
	d := newTestDriver(t, root, nil)
	coll := &fakeCollection{}
	opts := RunOptions{Incremental: true}

	first, err := d.Import(context.Background(), coll, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, first.FilesImported)
	assert.FileExists(t, filepath.Join(root, vault.StateFileName))

	second, err := d.Import(context.Background(), coll, opts)
	require.NoError(t, err)
	assert.Zero(t, second.FilesImported)
	assert.Equal(t, 3, second.FilesSkipped)
	assert.Zero(t, second.Chunks)
	assert.Equal(t, 3, coll.chunkCount())

	// Touching one file narrows the third run to exactly that file.
	later := time.Now().Add(2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "b.md"), later, later))

	progress := &progressRecorder{}
	d2 := newTestDriver(t, root, progress)
	third, err := d2.Import(context.Background(), coll, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, third.FilesImported)
	assert.Equal(t, 2, third.FilesSkipped)
	assert.Equal(t, []string{"b.md:1"}, progress.imported)
	assert.Equal(t, []string{"3/2"}, progress.discovered)
}

func TestImport_EmptyFileSkippedAndUnrecorded(t *testing.T) {
	root := writeVault(t, map[string]string{
		"a.md":     plainNote(1),
		"blank.md": "\n\n",
	})
	progress := &progressRecorder{}
	d := newTestDriver(t, root, progress)
	coll := &fakeCollection{}

	summary, err := d.Import(context.Background(), coll, RunOptions{Incremental: true})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FilesImported)
	assert.Equal(t, 1, summary.FilesSkipped)
	assert.Equal(t, []string{"blank.md"}, progress.skipped)

	// Unproduced files stay out of the state so they are revisited.
	state := vault.LoadState(root)
	assert.Contains(t, state, "a.md")
	assert.NotContains(t, state, "blank.md")
}

func TestImport_FailedFileDoesNotStopRun(t *testing.T) {
	root := writeVault(t, map[string]string{
		"a.md": plainNote(1),
		"b.md": plainNote(2),
		"c.md": plainNote(3),
	})
	progress := &progressRecorder{}
	d := newTestDriver(t, root, progress)
	coll := &fakeCollection{
		failFor: map[string]error{"b.md": fmt.Errorf("backend rejected batch")},
	}

	summary, err := d.Import(context.Background(), coll, RunOptions{Incremental: true})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.FilesImported)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "b.md", summary.Errors[0].Path)
	assert.Equal(t, StageUpsert, summary.Errors[0].Stage)
	assert.ElementsMatch(t, []string{"a.md", "c.md"}, coll.sourceFiles())
	assert.Equal(t, []string{"b.md:upsert"}, progress.failed)

	// The failed file has no state entry, so the next run retries it.
	state := vault.LoadState(root)
	assert.Contains(t, state, "a.md")
	assert.Contains(t, state, "c.md")
	assert.NotContains(t, state, "b.md")
}

func TestImport_DryRunWritesNothing(t *testing.T) {
	root := writeVault(t, map[string]string{
		"a.md": plainNote(1),
		"b.md": twoSectionNote(),
	})
	d := newTestDriver(t, root, nil)
	coll := &fakeCollection{}

	summary, err := d.Import(context.Background(), coll, RunOptions{Incremental: true, DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.FilesImported)
	assert.Equal(t, 3, summary.Chunks)
	assert.Zero(t, coll.chunkCount())
	assert.NoFileExists(t, filepath.Join(root, vault.StateFileName))
}

func TestImport_WorkerPoolImportsAll(t *testing.T) {
	files := make(map[string]string, 6)
	for i := 0; i < 6; i++ {
		files[fmt.Sprintf("note-%d.md", i)] = plainNote(i)
	}
	root := writeVault(t, files)
	d := newTestDriver(t, root, nil)
	coll := &fakeCollection{}

	summary, err := d.Import(context.Background(), coll, RunOptions{Incremental: true, Workers: 4})
	require.NoError(t, err)

	assert.Equal(t, 6, summary.FilesImported)
	assert.Equal(t, 6, coll.chunkCount())
	assert.Len(t, vault.LoadState(root), 6)
}

func TestImport_NoFilesFound(t *testing.T) {
	root := writeVault(t, map[string]string{"readme.txt": "not markdown\n"})
	progress := &progressRecorder{}
	d := newTestDriver(t, root, progress)
	coll := &fakeCollection{}

	summary, err := d.Import(context.Background(), coll, RunOptions{})
	require.NoError(t, err)

	assert.Zero(t, summary.FilesDiscovered)
	assert.Zero(t, coll.chunkCount())
	assert.Equal(t, []string{"0/0"}, progress.discovered)
}

func TestImport_MissingVault(t *testing.T) {
	d := newTestDriver(t, filepath.Join(t.TempDir(), "missing"), nil)

	summary, err := d.Import(context.Background(), &fakeCollection{}, RunOptions{})
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Equal(t, errors.ErrCodeVaultNotFound, errors.GetCode(err))
}

func TestImport_LockHeldByAnotherRun(t *testing.T) {
	root := writeVault(t, map[string]string{"a.md": plainNote(1)})
	lock := vault.NewLock(root)
	require.NoError(t, lock.TryLock())
	defer lock.Unlock()

	d := newTestDriver(t, root, nil)
	_, err := d.Import(context.Background(), &fakeCollection{}, RunOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeVaultLocked, errors.GetCode(err))
}

func TestImport_CancelledAtFileBoundary(t *testing.T) {
	root := writeVault(t, map[string]string{
		"a.md": plainNote(1),
		"b.md": plainNote(2),
		"c.md": plainNote(3),
	})
	d := newTestDriver(t, root, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coll := &fakeCollection{onUpsert: func() { cancel() }}

	summary, err := d.Import(ctx, coll, RunOptions{Incremental: true})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)

	// The in-flight file completed; the rest never started. Its state
	// entry survives so only pending files are retried.
	assert.Equal(t, 1, summary.FilesImported)
	assert.Len(t, vault.LoadState(root), 1)
}
