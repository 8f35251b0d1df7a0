package engine

import (
	"regexp"
	"time"

	"github.com/TFMV/fdgo/internal/engine/exec"
)

// OwnerFilter restrains matches to entries owned by a given uid/gid,
// with optional negation on either side (`!user`, `!:group`), mirroring
// the original `fd`'s `OwnerFilter::from_string` (spec.md §6, §4.2).
type OwnerFilter struct {
	UID       *uint32
	UIDNegate bool
	GID       *uint32
	GIDNegate bool
}

// Matches reports whether md's ownership satisfies the filter.
func (o *OwnerFilter) Matches(md Metadata) bool {
	if o == nil {
		return true
	}
	if o.UID != nil {
		eq := md.Uid == *o.UID
		if eq == o.UIDNegate {
			return false
		}
	}
	if o.GID != nil {
		eq := md.Gid == *o.GID
		if eq == o.GIDNegate {
			return false
		}
	}
	return true
}

// SizeRange is one `-S/--size` constraint; fdgo keeps a slice of these on
// Config since multiple --size flags are conjunctive (spec.md §8 S9).
type SizeRange struct {
	Op    SizeOp
	Bytes int64
}

// SizeOp is the comparison a SizeRange applies.
type SizeOp int

const (
	SizeEqual SizeOp = iota
	SizeMin          // value must be >= Bytes ("+NUM")
	SizeMax          // value must be <= Bytes ("-NUM")
)

// Matches reports whether n satisfies the range.
func (r SizeRange) Matches(n int64) bool {
	switch r.Op {
	case SizeMin:
		return n >= r.Bytes
	case SizeMax:
		return n <= r.Bytes
	default:
		return n == r.Bytes
	}
}

// TimeRange is one `--changed-within`/`--changed-before` constraint.
type TimeRange struct {
	After      bool // true: mtime must be after AfterTime
	Before     bool // true: mtime must be before BeforeTime
	AfterTime  time.Time
	BeforeTime time.Time
}

// Matches reports whether t satisfies the range.
func (r TimeRange) Matches(t time.Time) bool {
	if r.After && t.Before(r.AfterTime) {
		return false
	}
	if r.Before && t.After(r.BeforeTime) {
		return false
	}
	return true
}

// Config is the immutable bundle consumed by every worker, the walker,
// the receiver, and the executor (spec.md §3). It is built once by the
// CLI layer and never mutated after construction.
type Config struct {
	// Pattern matching
	Pattern        *regexp.Regexp
	GlobPattern    string // non-empty selects doublestar glob matching instead of Pattern
	SearchFullPath bool

	// Ignore-file policy
	ReadFdIgnore       bool
	ReadGitIgnore      bool
	ReadParentIgnore   bool
	ReadGlobalIgnore   bool
	RequireGitToIgnore bool
	IgnoreFiles        []string // extra --ignore-file paths
	ExcludeGlobs       []string // -E/--exclude override globs

	// Visibility
	IncludeHidden  bool
	FollowSymlinks bool
	OneFileSystem  bool

	// Depth / pruning
	MinDepth int
	MaxDepth int // 0 means unbounded
	Prune    bool

	// Filters
	FileTypes      map[FileType]bool // nil/empty means "all types"
	ExecutableOnly bool
	EmptyOnly      bool
	Extensions     *regexp.Regexp // matches any of the requested extensions
	SizeRanges     []SizeRange
	TimeRanges     []TimeRange
	Owner          *OwnerFilter

	// Output
	NullSeparator  bool
	AbsolutePath   bool
	Colorize       bool
	PathSeparator  string // empty means platform default
	StripCwdPrefix bool
	MaxResults     int // 0 means unbounded
	Quiet          bool
	ShowFSErrors   bool

	// Execution
	Command   *exec.CommandSet
	BatchSize int

	// Performance
	Threads       int
	MaxBufferTime time.Duration

	// Root search paths, resolved by the CLI layer.
	SearchPaths []string

	// BaseDirectory records the --base-directory value (spec.md §6). The
	// CLI layer changes the working directory to it before building
	// Config; the engine itself does not read this field.
	BaseDirectory string

	Logger Logger
}

// IsPrinting reports whether results are printed rather than executed,
// mirroring the original Config::is_printing.
func (c *Config) IsPrinting() bool {
	return c.Command == nil
}
