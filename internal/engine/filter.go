package engine

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"golang.org/x/text/unicode/norm"
)

// Filter is one predicate in the filter chain applied to every candidate
// entry before it reaches the receiver (spec.md §4.2). Filters compose by
// conjunction: an entry survives only if every filter's ShouldSkip
// returns false, grounded in the teacher's filePassesFilter checks in
// stride.go generalized into first-class values.
type Filter interface {
	ShouldSkip(e *Entry) bool
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(e *Entry) bool

// ShouldSkip calls f.
func (f FilterFunc) ShouldSkip(e *Entry) bool { return f(e) }

// FilterChain runs a fixed ordered list of filters, short-circuiting on
// the first one that rejects an entry.
type FilterChain struct {
	filters []Filter
}

// ShouldSkip reports whether any filter in the chain rejects e.
func (c *FilterChain) ShouldSkip(e *Entry) bool {
	for _, f := range c.filters {
		if f.ShouldSkip(e) {
			return true
		}
	}
	return false
}

// BuildFilterChain assembles the filter chain described by cfg, in the
// order the original applies them (depth, then pattern, then type/size/
// time/owner) so cheap checks reject entries before expensive stat-based
// ones run.
func BuildFilterChain(cfg *Config) *FilterChain {
	c := &FilterChain{}

	if cfg.MinDepth > 0 {
		minDepth := cfg.MinDepth
		c.filters = append(c.filters, FilterFunc(func(e *Entry) bool {
			return e.Depth < minDepth
		}))
	}

	if cfg.GlobPattern != "" {
		glob := norm.NFC.String(cfg.GlobPattern)
		searchFullPath := cfg.SearchFullPath
		c.filters = append(c.filters, FilterFunc(func(e *Entry) bool {
			subject := path.Base(e.Path)
			if searchFullPath {
				subject = e.Path
			}
			ok, _ := doublestar.Match(glob, norm.NFC.String(subject))
			return !ok
		}))
	} else if cfg.Pattern != nil {
		pattern := cfg.Pattern
		searchFullPath := cfg.SearchFullPath
		c.filters = append(c.filters, FilterFunc(func(e *Entry) bool {
			subject := path.Base(e.Path)
			if searchFullPath {
				subject = e.Path
			}
			return !pattern.MatchString(norm.NFC.String(subject))
		}))
	}

	if len(cfg.FileTypes) > 0 {
		types := cfg.FileTypes
		c.filters = append(c.filters, FilterFunc(func(e *Entry) bool {
			return !types[e.Type]
		}))
	}

	if cfg.ExecutableOnly {
		c.filters = append(c.filters, FilterFunc(func(e *Entry) bool {
			return !e.IsExecutable()
		}))
	}

	if cfg.EmptyOnly {
		c.filters = append(c.filters, FilterFunc(func(e *Entry) bool {
			return !e.IsEmpty()
		}))
	}

	if cfg.Extensions != nil {
		ext := cfg.Extensions
		c.filters = append(c.filters, FilterFunc(func(e *Entry) bool {
			return !ext.MatchString(strings.TrimPrefix(path.Ext(e.Path), "."))
		}))
	}

	if len(cfg.SizeRanges) > 0 {
		ranges := cfg.SizeRanges
		c.filters = append(c.filters, FilterFunc(func(e *Entry) bool {
			if e.Type != TypeFile {
				return true
			}
			size := e.Metadata().Len
			for _, r := range ranges {
				if !r.Matches(size) {
					return true
				}
			}
			return false
		}))
	}

	if len(cfg.TimeRanges) > 0 {
		ranges := cfg.TimeRanges
		c.filters = append(c.filters, FilterFunc(func(e *Entry) bool {
			mtime := e.Metadata().Mtime
			for _, r := range ranges {
				if !r.Matches(mtime) {
					return true
				}
			}
			return false
		}))
	}

	if cfg.Owner != nil {
		owner := cfg.Owner
		c.filters = append(c.filters, FilterFunc(func(e *Entry) bool {
			return !owner.Matches(e.Metadata())
		}))
	}

	return c
}

// ParseSize parses an fd-style size specifier such as "+10M", "-1ki", or
// "500b" into a SizeRange, delegating unit-to-byte conversion to
// go-humanize's ParseBytes (binary and SI units both) rather than
// hand-rolling the multiplier table (spec.md §6 -S/--size, grounded in
// the original's SizeFilter::from_string, filter/size.rs).
func ParseSize(s string) (SizeRange, error) {
	if s == "" {
		return SizeRange{}, fmt.Errorf("empty size specifier")
	}
	op := SizeEqual
	rest := s
	switch s[0] {
	case '+':
		op = SizeMin
		rest = s[1:]
	case '-':
		op = SizeMax
		rest = s[1:]
	}
	rest = normalizeSizeUnit(rest)
	bytes, err := humanize.ParseBytes(rest)
	if err != nil {
		return SizeRange{}, fmt.Errorf("invalid size specifier %q: %w", s, err)
	}
	return SizeRange{Op: op, Bytes: int64(bytes)}, nil
}

// normalizeSizeUnit rewrites a bare "b" suffix (fd's plain-byte unit) into
// a form go-humanize parses to 1 byte per unit, and fixes single-letter SI
// suffixes ("k", "m", "g", "t") into the "kb"/"mb"/... forms ParseBytes
// expects.
func normalizeSizeUnit(s string) string {
	lower := strings.ToLower(s)
	i := 0
	for i < len(lower) && (lower[i] >= '0' && lower[i] <= '9' || lower[i] == '.') {
		i++
	}
	num, unit := s[:i], lower[i:]
	switch unit {
	case "", "b":
		return num + "B"
	case "k", "m", "g", "t":
		return num + unit + "b"
	default:
		return num + unit
	}
}

// ParseTime parses an fd-style --changed-within/--changed-before argument:
// either a Go duration-like relative spec ("2h", "10min") measured back
// from now, or an absolute "2006-01-02" / "2006-01-02 15:04:05" timestamp
// (spec.md §6, grounded in the original's TimeFilter::from_str).
func ParseTime(s string, now time.Time) (time.Time, error) {
	if d, err := parseHumanDuration(s); err == nil {
		return now.Add(-d), nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time specifier %q", s)
}

// parseHumanDuration extends time.ParseDuration with fd's day/week/min units.
func parseHumanDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	trimmed := strings.TrimSpace(s)
	for _, suffix := range []struct {
		unit string
		per  time.Duration
	}{
		{"days", 24 * time.Hour},
		{"day", 24 * time.Hour},
		{"d", 24 * time.Hour},
		{"weeks", 7 * 24 * time.Hour},
		{"week", 7 * 24 * time.Hour},
		{"w", 7 * 24 * time.Hour},
		{"min", time.Minute},
	} {
		if strings.HasSuffix(trimmed, suffix.unit) {
			n, err := strconv.ParseFloat(strings.TrimSuffix(trimmed, suffix.unit), 64)
			if err == nil {
				return time.Duration(n * float64(suffix.per)), nil
			}
		}
	}
	return 0, fmt.Errorf("not a duration: %q", s)
}

// ParseOwner parses fd's "-o/--owner" specifier, "[user][:group]", with
// an optional leading "!" on either half negating that half's match
// (grounded in the uid/gid split and negation handling of the original's
// filter/owner.rs).
func ParseOwner(s string, lookupUID func(string) (uint32, bool), lookupGID func(string) (uint32, bool)) (*OwnerFilter, error) {
	parts := strings.SplitN(s, ":", 2)
	f := &OwnerFilter{}
	if parts[0] != "" {
		spec := parts[0]
		negate := strings.HasPrefix(spec, "!")
		spec = strings.TrimPrefix(spec, "!")
		uid, err := resolveID(spec, lookupUID)
		if err != nil {
			return nil, fmt.Errorf("%q is not a recognized user name", spec)
		}
		f.UID = &uid
		f.UIDNegate = negate
	}
	if len(parts) == 2 && parts[1] != "" {
		spec := parts[1]
		negate := strings.HasPrefix(spec, "!")
		spec = strings.TrimPrefix(spec, "!")
		gid, err := resolveID(spec, lookupGID)
		if err != nil {
			return nil, fmt.Errorf("%q is not a recognized group name", spec)
		}
		f.GID = &gid
		f.GIDNegate = negate
	}
	if f.UID == nil && f.GID == nil {
		return nil, fmt.Errorf("%q is not a valid user/group specifier", s)
	}
	return f, nil
}

func resolveID(spec string, lookup func(string) (uint32, bool)) (uint32, error) {
	if n, err := strconv.ParseUint(spec, 10, 32); err == nil {
		return uint32(n), nil
	}
	if lookup != nil {
		if id, ok := lookup(spec); ok {
			return id, nil
		}
	}
	return 0, fmt.Errorf("no such id: %s", spec)
}

// CompileSmartCase compiles pattern, forcing case-insensitivity unless
// the pattern itself contains an uppercase letter, matching smart-case
// semantics from the original's regex_helper.rs (spec.md §4.2).
func CompileSmartCase(pattern string, forceCaseSensitive, forceIgnoreCase bool) (*regexp.Regexp, error) {
	caseSensitive := forceCaseSensitive
	if !forceCaseSensitive && !forceIgnoreCase {
		caseSensitive = hasUppercase(pattern)
	}
	if forceIgnoreCase {
		caseSensitive = false
	}
	if caseSensitive {
		return regexp.Compile(pattern)
	}
	return regexp.Compile("(?i)" + pattern)
}

func hasUppercase(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}
