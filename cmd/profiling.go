package cmd

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// profiler writes the CPU profile, execution trace and heap profile requested
// on the command line. Empty paths disable the corresponding output.
type profiler struct {
	cpuFile   *os.File
	traceFile *os.File
	memPath   string
}

// startProfiling begins CPU profiling and tracing per opts.
func startProfiling(opts *Options) (*profiler, error) {
	p := &profiler{memPath: opts.MemProfile}

	if opts.CPUProfile != "" {
		f, err := os.Create(opts.CPUProfile)
		if err != nil {
			return nil, fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("could not start CPU profile: %w", err)
		}
		p.cpuFile = f
	}

	if opts.Trace != "" {
		f, err := os.Create(opts.Trace)
		if err != nil {
			p.Stop()
			return nil, fmt.Errorf("could not create trace: %w", err)
		}
		if err := trace.Start(f); err != nil {
			f.Close()
			p.Stop()
			return nil, fmt.Errorf("could not start trace: %w", err)
		}
		p.traceFile = f
	}

	return p, nil
}

// Stop ends profiling and writes the heap profile. Safe to call more than once.
func (p *profiler) Stop() {
	if p == nil {
		return
	}
	if p.traceFile != nil {
		trace.Stop()
		closeOrWarn(p.traceFile, "trace")
		p.traceFile = nil
	}
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		closeOrWarn(p.cpuFile, "CPU profile")
		p.cpuFile = nil
	}
	if p.memPath != "" {
		p.writeHeap()
		p.memPath = ""
	}
}

func (p *profiler) writeHeap() {
	f, err := os.Create(p.memPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
		return
	}
	defer closeOrWarn(f, "memory profile")
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
	}
}

func closeOrWarn(f *os.File, what string) {
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "could not close %s file: %v\n", what, err)
	}
}
