// Package profiling captures CPU, heap and trace profiles for one
// vaultindex run. Large imports are chunking and embedding bound;
// profiles name which.
package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Options names the profile files to write. Empty paths are skipped.
type Options struct {
	// CPUPath receives a CPU profile covering Start to Stop.
	CPUPath string

	// HeapPath receives a heap snapshot taken at Stop.
	HeapPath string

	// TracePath receives an execution trace covering Start to Stop.
	TracePath string
}

// Enabled reports whether any profile was requested.
func (o Options) Enabled() bool {
	return o.CPUPath != "" || o.HeapPath != "" || o.TracePath != ""
}

// Profiler owns the profile files of a run. Stop must be called to
// flush them; profiles cut off mid-write are unreadable.
type Profiler struct {
	opts    Options
	cpuFile *os.File
	trcFile *os.File
}

// Start begins the requested profiles. A nil Profiler is returned
// when nothing was requested, and is safe to Stop.
func Start(opts Options) (*Profiler, error) {
	if !opts.Enabled() {
		return nil, nil
	}
	p := &Profiler{opts: opts}

	if opts.CPUPath != "" {
		f, err := os.Create(opts.CPUPath)
		if err != nil {
			return nil, fmt.Errorf("creating CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("starting CPU profile: %w", err)
		}
		p.cpuFile = f
	}

	if opts.TracePath != "" {
		f, err := os.Create(opts.TracePath)
		if err != nil {
			p.abort()
			return nil, fmt.Errorf("creating trace file: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			p.abort()
			return nil, fmt.Errorf("starting trace: %w", err)
		}
		p.trcFile = f
	}

	return p, nil
}

// Stop ends the running profiles and writes the heap snapshot.
func (p *Profiler) Stop() {
	if p == nil {
		return
	}
	p.abort()
	if p.opts.HeapPath != "" {
		if err := writeHeap(p.opts.HeapPath); err != nil {
			fmt.Fprintf(os.Stderr, "heap profile: %v\n", err)
		}
	}
}

// abort ends the running profiles without snapshotting the heap.
func (p *Profiler) abort() {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		_ = p.cpuFile.Close()
		p.cpuFile = nil
	}
	if p.trcFile != nil {
		trace.Stop()
		_ = p.trcFile.Close()
		p.trcFile = nil
	}
}

// writeHeap snapshots live allocations. A GC pass first keeps dead
// objects out of the profile.
func writeHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating heap profile: %w", err)
	}
	defer func() { _ = f.Close() }()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("writing heap profile: %w", err)
	}
	return nil
}
