// Package engine implements the parallel search engine behind fdgo: a
// concurrent directory walker, a composable filter chain, an adaptive
// buffer-then-stream output pipeline, and a command-execution subsystem.
package engine

import (
	"os"
	"strings"
	"sync"
	"time"
)

// FileType tags the kind of filesystem object an Entry refers to.
type FileType int

const (
	// TypeUnknown is used when the type could not be determined.
	TypeUnknown FileType = iota
	TypeFile
	TypeDir
	TypeSymlink
	TypeSocket
	TypePipe
	TypeBlockDev
	TypeCharDev
)

func fileTypeFromMode(mode os.FileMode) FileType {
	switch {
	case mode&os.ModeSymlink != 0:
		return TypeSymlink
	case mode.IsDir():
		return TypeDir
	case mode&os.ModeSocket != 0:
		return TypeSocket
	case mode&os.ModeNamedPipe != 0:
		return TypePipe
	case mode&os.ModeDevice != 0 && mode&os.ModeCharDevice != 0:
		return TypeCharDev
	case mode&os.ModeDevice != 0:
		return TypeBlockDev
	case mode.IsRegular():
		return TypeFile
	default:
		return TypeUnknown
	}
}

// EntryKind distinguishes an ordinary traversal result from a synthesized
// broken-symlink placeholder (spec.md §3).
type EntryKind int

const (
	KindNormal EntryKind = iota
	KindBrokenSymlink
)

// Metadata is the lazily-fetched, at-most-once-populated data attached to
// an Entry. A failed stat yields a zero Metadata with Err set, never a
// panic (spec.md §3 invariants).
type Metadata struct {
	Len   int64
	Mtime time.Time
	Mode  os.FileMode
	Uid   uint32
	Gid   uint32
	Err   error
}

// metadataCell is a write-once cache: the first caller to need metadata
// pays the stat() cost, everyone after reads the cached result.
type metadataCell struct {
	once sync.Once
	data Metadata
}

func (c *metadataCell) get(path string, followSymlink bool) Metadata {
	c.once.Do(func() {
		c.data = statMetadata(path, followSymlink)
	})
	return c.data
}

// Entry is one filesystem item produced by the walker and carried through
// the filter chain to the receiver. Equality and ordering are defined by
// Path alone (spec.md §3).
type Entry struct {
	Path  string
	Depth int
	Type  FileType
	Kind  EntryKind

	// Style is precomputed by the walker thread when colorized output is
	// enabled, so the printer never blocks on a style-table lookup
	// (spec.md §4.1 point 5, §9 "Style precomputation").
	Style *EntryStyle

	meta          metadataCell
	followSymlink bool
}

// NewEntry constructs a Normal entry.
func NewEntry(path string, depth int, typ FileType, followSymlink bool) *Entry {
	return &Entry{Path: path, Depth: depth, Type: typ, followSymlink: followSymlink}
}

// NewBrokenSymlinkEntry synthesizes a placeholder for a symlink whose
// target does not exist. Its depth is derived from the path's component
// count minus one (spec.md §3), and its file type is always Symlink,
// derived from symlink_metadata so the dangling link is never followed.
func NewBrokenSymlinkEntry(path string) *Entry {
	depth := strings.Count(cleanSlashes(path), "/")
	if depth < 0 {
		depth = 0
	}
	return &Entry{
		Path:  path,
		Depth: depth,
		Type:  TypeSymlink,
		Kind:  KindBrokenSymlink,
	}
}

func cleanSlashes(path string) string {
	return strings.ReplaceAll(path, string(os.PathSeparator), "/")
}

// Metadata fetches (and memoizes) this entry's metadata. Broken-symlink
// entries always fetch via symlink_metadata (lstat) regardless of
// followSymlink, since following would simply fail again.
func (e *Entry) Metadata() Metadata {
	follow := e.followSymlink && e.Kind == KindNormal
	return e.meta.get(e.Path, follow)
}

// IsEmpty reports whether a directory has no children or a file has zero
// length (spec.md §4.2, "Empty" definition).
func (e *Entry) IsEmpty() bool {
	if e.Type == TypeDir {
		f, err := os.Open(e.Path)
		if err != nil {
			return false
		}
		defer f.Close()
		names, err := f.Readdirnames(1)
		return len(names) == 0 && err != nil
	}
	return e.Metadata().Len == 0
}

// IsExecutable reports whether the entry's mode has any execute bit set.
// Always false on platforms without a mode concept (spec.md §4.2).
func (e *Entry) IsExecutable() bool {
	return e.Metadata().Mode&0o111 != 0
}
