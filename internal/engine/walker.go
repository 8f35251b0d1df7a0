package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"golang.org/x/sync/errgroup"
)

// WorkerResult is the tagged union flowing out of the walker: either a
// matched Entry or a filesystem error encountered along the way (spec.md
// §4.1, grounded in the teacher's walkArgs/task plumbing in stride.go,
// generalized from a filepath.WalkFunc callback into channel values since
// the receiver needs to interleave results from many directories).
type WorkerResult struct {
	Entry *Entry
	Err   error
}

// walkJob is one file-level unit of work handed from a directory walk to
// the worker pool for metadata/filter/style processing.
type walkJob struct {
	path   string
	typ    FileType
	root   string
	broken bool // true for a symlink whose target does not exist
}

// Walk runs the parallel directory search described by cfg and streams
// results on the returned channel, which is closed once every root has
// been fully traversed or ctx is canceled. File-level work (metadata
// fetch, filter chain, style resolution) is farmed out to a bounded
// worker pool so a slow stat() on one file never stalls directory
// traversal of a sibling (spec.md §4.1).
func Walk(ctx context.Context, cfg *Config, sig *SignalState) <-chan WorkerResult {
	out := make(chan WorkerResult, 4096)
	chain := BuildFilterChain(cfg)
	styles := newStyleResolver(cfg)

	jobs := make(chan walkJob, 4096)

	workers := cfg.Threads
	if workers < 1 {
		workers = 1
	}

	var workerWg errgroup.Group
	for i := 0; i < workers; i++ {
		workerWg.Go(func() error {
			for j := range jobs {
				if sig.ShouldQuit() {
					continue
				}
				var e *Entry
				if j.broken {
					e = NewBrokenSymlinkEntry(j.path)
				} else {
					e = NewEntry(j.path, depthOf(j.root, j.path), j.typ, cfg.FollowSymlinks)
				}
				if styles != nil {
					e.Style = styles.Resolve(e.Type, filepath.Base(e.Path), e.IsExecutable())
				}
				if chain.ShouldSkip(e) {
					continue
				}
				out <- WorkerResult{Entry: e}
			}
			return nil
		})
	}

	var walkWg errgroup.Group
	for _, root := range cfg.SearchPaths {
		root := root
		walkWg.Go(func() error {
			return walkRoot(ctx, cfg, root, sig, chain, styles, jobs, out)
		})
	}

	go func() {
		walkWg.Wait()
		close(jobs)
		workerWg.Wait()
		close(out)
	}()

	return out
}

func depthOf(root, p string) int {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/") + 1
}

// walkRoot traverses a single search root with godirwalk, maintaining a
// stack of IgnoreMatcher layers that PostChildrenCallback pops exactly
// when godirwalk finishes a directory's children — the push/pop pairing
// the hierarchical ignore matcher needs (spec.md §4.3).
func walkRoot(ctx context.Context, cfg *Config, root string, sig *SignalState, chain *FilterChain, styles *StyleSheet, jobs chan<- walkJob, out chan<- WorkerResult) error {
	stack := []*IgnoreMatcher{NewIgnoreMatcher(cfg, root)}

	var rootDev uint64
	if cfg.OneFileSystem {
		rootDev, _ = deviceID(root)
	}

	options := &godirwalk.Options{
		Unsorted:            true,
		FollowSymbolicLinks: cfg.FollowSymlinks,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if ctx.Err() != nil || sig.ShouldQuit() {
				return filepath.SkipDir
			}

			rel, _ := filepath.Rel(root, path)
			isDir := de.IsDir()

			if !cfg.IncludeHidden && isHidden(path, root) {
				if isDir {
					return filepath.SkipDir
				}
				return nil
			}

			top := stack[len(stack)-1]
			if top.Classify(rel, isDir) == Excluded {
				if isDir {
					return filepath.SkipDir
				}
				return nil
			}

			if isDir {
				// Directories are entries too (they can match a name
				// pattern, --type d, or be pruned): evaluate them against
				// the filter chain inline, since the prune decision below
				// needs the answer before deciding whether to descend
				// (spec.md §4.1 point 7, §4.2). The root itself is never
				// emitted (spec.md §3).
				matched := false
				if path != root {
					e := NewEntry(path, depthOf(root, path), TypeDir, cfg.FollowSymlinks)
					if styles != nil {
						e.Style = styles.Resolve(e.Type, filepath.Base(e.Path), e.IsExecutable())
					}
					if !chain.ShouldSkip(e) {
						matched = true
						out <- WorkerResult{Entry: e}
					}
				}

				if cfg.OneFileSystem && path != root {
					if dev, err := deviceID(path); err == nil && dev != rootDev {
						return filepath.SkipDir
					}
				}
				if cfg.MaxDepth > 0 && depthOf(root, path) >= cfg.MaxDepth {
					return filepath.SkipDir
				}
				if cfg.Prune && matched {
					return filepath.SkipDir
				}
				stack = append(stack, top.WithDirectory(path))
				return nil
			}

			jobs <- walkJob{path: path, typ: fileTypeFromDirent(de), root: root}
			return nil
		},
		PostChildrenCallback: func(path string, de *godirwalk.Dirent) error {
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			if cfg.FollowSymlinks && isBrokenSymlink(path) {
				jobs <- walkJob{path: path, typ: TypeSymlink, root: root, broken: true}
				return godirwalk.SkipNode
			}
			if cfg.Logger != nil {
				cfg.Logger.Debugf("walk error at %s: %v", path, err)
			}
			if cfg.ShowFSErrors {
				out <- WorkerResult{Err: err}
			}
			return godirwalk.SkipNode
		},
	}

	if err := godirwalk.Walk(root, options); err != nil {
		if cfg.ShowFSErrors {
			out <- WorkerResult{Err: err}
		}
	}
	return nil
}

func fileTypeFromDirent(de *godirwalk.Dirent) FileType {
	switch {
	case de.IsSymlink():
		return TypeSymlink
	case de.IsDir():
		return TypeDir
	case de.IsRegular():
		return TypeFile
	default:
		return TypeUnknown
	}
}

// isBrokenSymlink reports whether path is a symlink whose target cannot
// be stat-ed, the condition godirwalk surfaces as a walk error when
// FollowSymbolicLinks is enabled (spec.md §3 EntryKind.BrokenSymlink).
func isBrokenSymlink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return false
	}
	_, statErr := os.Stat(path)
	return statErr != nil
}

func isHidden(path, root string) bool {
	if path == root {
		return false
	}
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// newStyleResolver builds the StyleSheet for cfg, or nil when colorized
// output is disabled so the walker skips style resolution entirely.
func newStyleResolver(cfg *Config) *StyleSheet {
	if !cfg.Colorize {
		return nil
	}
	return NewStyleSheet()
}
