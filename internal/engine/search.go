package engine

import (
	"context"
	"io"
	"sync"

	"github.com/TFMV/fdgo/internal/engine/exec"
)

// Search runs a complete fdgo search: walking every root in cfg.SearchPaths,
// applying the filter chain, and either printing matches to stdout or
// running cfg.Command against them, returning the aggregate ExitCode
// (spec.md §4, grounded in walk.rs's top-level scan() orchestration).
func Search(ctx context.Context, cfg *Config, stdout io.Writer) ExitCode {
	sig := NewSignalState()
	if cfg.IsPrinting() {
		stop := sig.WatchInterrupts()
		defer stop()
	}

	if cfg.Logger != nil {
		cfg.Logger.Debugf("starting search over %d root(s)", len(cfg.SearchPaths))
	}

	results := Walk(ctx, cfg, sig)

	if cfg.IsPrinting() {
		return NewReceiver(cfg, sig, stdout).Run(results)
	}

	if cfg.Command.Mode == exec.ModeBatch {
		paths := make(chan string, 4096)
		go func() {
			defer close(paths)
			for res := range results {
				if res.Err != nil {
					continue
				}
				paths <- res.Entry.Path
			}
		}()
		return cfg.Command.ExecuteBatch(paths, cfg.BatchSize, cfg.PathSeparator)
	}

	return runExecOneByOne(cfg, results)
}

// runExecOneByOne fans each matched entry out to cfg.Command.Execute,
// bounding concurrency by cfg.Threads and serializing interleaved
// stdout/stderr writes with a shared mutex, mirroring exec/job.rs's job()
// loop with buffer_output enabled whenever more than one thread runs.
func runExecOneByOne(cfg *Config, results <-chan WorkerResult) ExitCode {
	workers := cfg.Threads
	if workers < 1 {
		workers = 1
	}
	buffer := workers > 1

	var outMu sync.Mutex
	var codesMu sync.Mutex
	var codes []ExitCode

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for res := range results {
				if res.Err != nil {
					continue
				}
				code := cfg.Command.Execute(res.Entry.Path, &outMu, buffer)
				codesMu.Lock()
				codes = append(codes, code)
				codesMu.Unlock()
			}
		}()
	}
	wg.Wait()

	return MergeExitCodes(codes)
}
