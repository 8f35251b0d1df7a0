package engine

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"
)

// ignoreLayer is one directory's worth of compiled ignore patterns,
// rooted at dir. Layers accumulate as the walker descends, generalizing
// the single whole-tree GitignoreMatcher from the gitignore.go/
// harvxignore.go pair into an incremental, per-directory stack a
// concurrent walker can push and pop cheaply (spec.md §4.3).
type ignoreLayer struct {
	dir     string
	matcher *gitignore.GitIgnore
	// negated holds this file's "!pattern" lines as doublestar globs,
	// kept separately from matcher because go-gitignore only reports
	// whether a path is ignored, not whether a negation is what produced
	// that answer — Classify needs to know negation to implement
	// cross-file whitelisting (spec.md §8 invariant 10).
	negated []string
}

// IgnoreMatcher evaluates a path against every ignore-file layer
// collected from the search root down to the current directory, plus a
// fixed set of CLI-level override globs (-E/--exclude). --ignore-file
// paths are loaded as ordinary layers, not as override globs.
// IgnoreMatcher values are immutable; WithDirectory returns a new,
// extended matcher so sibling subtrees never see each other's layers.
type IgnoreMatcher struct {
	root      string
	layers    []ignoreLayer
	overrides []string // doublestar glob patterns, always excluding
	basenames []string // ignore-file names to look for in each directory, e.g. ".gitignore"
}

// NewIgnoreMatcher builds the root matcher for a search, loading any
// global ignore file and --ignore-file paths cfg names, plus seeding the
// basenames that get looked up again in every descended directory.
func NewIgnoreMatcher(cfg *Config, root string) *IgnoreMatcher {
	m := &IgnoreMatcher{
		root:      root,
		overrides: append([]string(nil), cfg.ExcludeGlobs...),
	}
	// .gitignore is appended before .fdignore so that, within a single
	// directory, the .fdignore layer lands later in the per-directory
	// layer slice and Classify (which walks layers back-to-front) checks
	// it first — giving an .fdignore "!pattern" priority to whitelist a
	// .gitignore exclusion in the same directory (spec.md §8 invariant 10).
	if cfg.ReadGitIgnore {
		m.basenames = append(m.basenames, ".gitignore")
	}
	if cfg.ReadFdIgnore {
		m.basenames = append(m.basenames, ".fdignore")
	}

	for _, path := range cfg.IgnoreFiles {
		if layer, ok := loadIgnoreLayer(root, path); ok {
			m.layers = append(m.layers, layer)
		}
	}
	if cfg.ReadGlobalIgnore {
		if gp := globalIgnoreFilePath(); gp != "" {
			if layer, ok := loadIgnoreLayer(root, gp); ok {
				m.layers = append(m.layers, layer)
			}
		}
	}
	if cfg.ReadParentIgnore {
		m.layers = append(m.layers, ancestorLayers(root, m.basenames)...)
	}
	return m.WithDirectory(root)
}

// ancestorLayers walks upward from the search root's parent to the
// filesystem root, loading any ignore-file basenames found along the way
// (spec.md §6 --no-ignore-parent). Returned farthest-ancestor-first so
// that, once appended to IgnoreMatcher.layers ahead of the root's own
// layer, Classify's nearest-first (back-to-front) scan checks the
// directory closest to root before one further up the tree.
func ancestorLayers(root string, basenames []string) []ignoreLayer {
	var perDir [][]ignoreLayer

	dir := filepath.Dir(root)
	for {
		var group []ignoreLayer
		for _, base := range basenames {
			if layer, ok := loadIgnoreLayer(dir, filepath.Join(dir, base)); ok {
				group = append(group, layer)
			}
		}
		if len(group) > 0 {
			perDir = append(perDir, group)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	var layers []ignoreLayer
	for i := len(perDir) - 1; i >= 0; i-- {
		layers = append(layers, perDir[i]...)
	}
	return layers
}

// globalIgnoreFilePath returns fdgo's global exclude file, at
// <config_dir>/fd/ignore (spec.md §6), honoring XDG_CONFIG_HOME first.
func globalIgnoreFilePath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fd", "ignore")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "fd", "ignore")
	}
	return ""
}

// WithDirectory returns a matcher extended with any ignore files found
// directly inside dir, to be used for dir's own children. Calling this on
// every directory the walker enters is what makes ignore rules properly
// hierarchical without re-scanning the whole tree up front.
func (m *IgnoreMatcher) WithDirectory(dir string) *IgnoreMatcher {
	child := &IgnoreMatcher{
		root:      m.root,
		overrides: m.overrides,
		basenames: m.basenames,
		layers:    m.layers,
	}
	for _, base := range m.basenames {
		full := filepath.Join(dir, base)
		if layer, ok := loadIgnoreLayer(dir, full); ok {
			child.layers = append(child.layers, layer)
		}
	}
	return child
}

// loadIgnoreLayer compiles the ignore file at path (if it exists) into a
// layer rooted at dir, additionally extracting its "!pattern" lines as
// doublestar globs for whitelist detection.
func loadIgnoreLayer(dir, path string) (ignoreLayer, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ignoreLayer{}, false
	}
	compiled, err := gitignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
	if err != nil {
		return ignoreLayer{}, false
	}
	return ignoreLayer{dir: dir, matcher: compiled, negated: negatedPatterns(string(data))}, true
}

// negatedPatterns extracts gitignore "!pattern" lines from raw file
// content and converts each into a doublestar glob: a pattern with no
// slash matches at any depth ("**/pattern"), mirroring gitignore's own
// anchoring rule for unslashed patterns.
func negatedPatterns(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "!") {
			continue
		}
		pattern := strings.TrimPrefix(trimmed, "!")
		pattern = strings.TrimSuffix(pattern, "/")
		if pattern == "" {
			continue
		}
		if !strings.Contains(pattern, "/") {
			pattern = "**/" + pattern
		}
		out = append(out, pattern)
	}
	return out
}

// PushOverride returns a matcher with an extra always-excluding glob
// pattern appended. The matcher it is called on is left unchanged.
func (m *IgnoreMatcher) PushOverride(pattern string) *IgnoreMatcher {
	child := *m
	child.overrides = append(append([]string(nil), m.overrides...), pattern)
	return &child
}

// IgnoreStatus is the three-way verdict an IgnoreMatcher reaches for a
// path: Excluded paths are pruned from traversal; Whitelisted paths are
// explicitly re-included by a negated ("!pattern") rule that overrides an
// ancestor's exclusion, matching gitignore's own negation semantics
// applied across, not just within, a single file.
type IgnoreStatus int

const (
	Included IgnoreStatus = iota
	Excluded
	Whitelisted
)

// Classify evaluates path (relative to the search root, forward-slash
// separated) against every layer, nearest-ancestor-first so a child
// directory's negation can override a parent's exclusion, then against
// the override globs, which always win regardless of ignore-file
// negation (spec.md §4.3, grounded in gitignore.go's IsIgnored).
func (m *IgnoreMatcher) Classify(relPath string, isDir bool) IgnoreStatus {
	normalized := filepath.ToSlash(relPath)
	normalized = strings.TrimPrefix(normalized, "./")

	matchPath := normalized
	if isDir && !strings.HasSuffix(matchPath, "/") {
		matchPath += "/"
	}

	absPath := filepath.Join(m.root, filepath.FromSlash(normalized))

	status := Included
	for i := len(m.layers) - 1; i >= 0; i-- {
		layer := m.layers[i]
		// layer.dir may be m.root itself, a descendant of it (a directory
		// the walker has since entered), or an ancestor of it (a
		// --no-ignore-parent-eligible .gitignore above the search root):
		// computing rel from the absolute candidate path against the
		// layer's own directory handles all three uniformly, unlike
		// assuming every layer is rooted at or under m.root.
		rel, err := filepath.Rel(layer.dir, absPath)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		rel = filepath.ToSlash(rel)
		if isDir && !strings.HasSuffix(rel, "/") {
			rel += "/"
		}
		if matchesAny(layer.negated, rel, normalized) {
			status = Whitelisted
			break
		}
		if layer.matcher.MatchesPath(rel) {
			status = Excluded
			break
		}
	}

	// Override globs (-E/--exclude) always win, even over
	// a whitelisting negation found above.
	for _, pattern := range m.overrides {
		if ok, _ := doublestar.Match(pattern, normalized); ok {
			return Excluded
		}
		if ok, _ := doublestar.Match(pattern, filepath.Base(normalized)); ok {
			return Excluded
		}
	}

	return status
}

func matchesAny(patterns []string, candidates ...string) bool {
	for _, pattern := range patterns {
		for _, c := range candidates {
			if ok, _ := doublestar.Match(pattern, c); ok {
				return true
			}
		}
	}
	return false
}
