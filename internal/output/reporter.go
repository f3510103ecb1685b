package output

import (
	"sync"

	"github.com/vaultindex/vaultindex/internal/pipeline"
)

// Reporter prints a progress line per file as the pipeline works
// through a vault. Import callbacks arrive from worker goroutines, so
// every method locks to keep lines whole.
type Reporter struct {
	mu        sync.Mutex
	console   *Console
	vault     string
	importing bool
	upToDate  bool
}

var _ pipeline.Progress = (*Reporter)(nil)

// NewReporter wraps a console as a scan progress sink. The scan
// command prints its own preamble before the run starts.
func NewReporter(console *Console) *Reporter {
	return &Reporter{console: console}
}

// NewImportReporter wraps a console as an import progress sink. The
// named vault appears in the preamble printed once discovery settles.
func NewImportReporter(console *Console, vault string) *Reporter {
	return &Reporter{console: console, vault: vault, importing: true}
}

// Discovered announces the incremental skip count and, for imports,
// the run preamble. An incremental import where nothing changed says
// so instead.
func (r *Reporter) Discovered(total, unchanged int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if unchanged > 0 {
		r.console.Plainf("Incremental: skipping %d unchanged files", unchanged)
	}
	if !r.importing {
		return
	}

	// Watch mode reuses one reporter across passes, so the flag resets
	// on every discovery.
	r.upToDate = false

	switch remaining := total - unchanged; {
	case total == 0:
		r.console.Plainf("No .md files found matching filters.")
	case remaining == 0:
		r.upToDate = true
		r.console.Plainf("All files up to date. Nothing to import.")
	default:
		r.console.Plainf("Importing %d files from %s", remaining, r.vault)
		r.console.Newline()
	}
}

// UpToDate reports whether the run found every file unchanged, in
// which case the command skips its summary.
func (r *Reporter) UpToDate() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upToDate
}

// FileScanned prints one preview line.
func (r *Reporter) FileScanned(rel string, sections, chunks int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.console.Plainf("  %s: %d sections, %d chunks", rel, sections, chunks)
}

// FileImported prints one upserted-file line.
func (r *Reporter) FileImported(rel string, chunks int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.console.Successf("  + %s: %d chunks", rel, chunks)
}

// FileSkipped prints one empty-file line.
func (r *Reporter) FileSkipped(rel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.console.Plainf("  %s: (empty, skipped)", rel)
}

// FileFailed prints one failure line to the error stream.
func (r *Reporter) FileFailed(rel, stage string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.console.Errorf("  ! %s: %v", rel, err)
}
