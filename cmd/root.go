// Package cmd implements fdgo's command-line interface: a single root
// command (no subcommands) that parses fd's flag surface, builds an
// engine.Config, and runs the search engine (spec.md §6).
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/TFMV/fdgo/internal/engine"
	"github.com/TFMV/fdgo/internal/engine/exec"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// flags holds every CLI flag's destination, bound directly with
// cobra's Flags().*VarP, in the style of the dupedog CLI (no viper
// layering — fd itself has no config-file concept, see DESIGN.md).
type flags struct {
	hidden            bool
	noIgnore          bool
	noIgnoreVCS       bool
	noIgnoreParent    bool
	noGlobalIgnore    bool
	unrestrictedCount int
	caseSensitive     bool
	ignoreCase        bool
	glob              bool
	fixedStrings      bool
	fullPath          bool
	maxDepth          int
	minDepth          int
	exactDepth        int
	exclude           []string
	prune             bool
	types             []string
	extensions        []string
	sizes             []string
	changedWithin     string
	changedBefore     string
	owner             string
	oneFileSystem     bool
	ignoreFiles       []string
	follow            bool
	absolutePath      bool
	listDetails       bool
	print0            bool
	color             string
	pathSeparator     string
	maxResults        int
	onlyOne           bool
	quiet             bool
	showErrors        bool
	baseDirectory     string
	stripCwdPrefix    bool
	execCmd           []string
	execBatchCmd      []string
	batchSize         int
	threads           int
	maxBufferTimeMS   int
	searchPaths       []string
	debug             bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:     "fdgo [FLAGS/OPTIONS] [<pattern>] [<path>...]",
		Short:   "A fast, parallel alternative to find",
		Version: version,
		Args:    cobra.ArbitraryArgs,
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := buildConfig(f, args)
			if err != nil {
				return err
			}
			code := engine.Search(context.Background(), cfg, os.Stdout)
			os.Exit(int(code))
			return nil
		},
		SilenceUsage: true,
	}

	flagset := cmd.Flags()
	flagset.BoolVarP(&f.hidden, "hidden", "H", false, "Search hidden files and directories")
	flagset.BoolVarP(&f.noIgnore, "no-ignore", "I", false, "Do not respect .(git|fd)ignore files")
	flagset.BoolVar(&f.noIgnoreVCS, "no-ignore-vcs", false, "Do not respect .gitignore files")
	flagset.BoolVar(&f.noIgnoreParent, "no-ignore-parent", false, "Do not respect .gitignore files in parent directories")
	flagset.BoolVar(&f.noGlobalIgnore, "no-global-ignore-file", false, "Do not respect the global ignore file")
	flagset.CountVarP(&f.unrestrictedCount, "unrestricted", "u", "Alias for --no-ignore (-u) or --no-ignore --hidden (-uu)")
	flagset.BoolVarP(&f.caseSensitive, "case-sensitive", "s", false, "Case-sensitive search")
	flagset.BoolVarP(&f.ignoreCase, "ignore-case", "i", false, "Case-insensitive search")
	flagset.BoolVarP(&f.glob, "glob", "g", false, "Pattern is a glob instead of a regex")
	flagset.Bool("regex", true, "Pattern is a regular expression (default)")
	flagset.BoolVarP(&f.fixedStrings, "fixed-strings", "F", false, "Treat pattern as a literal string")
	flagset.BoolVarP(&f.fullPath, "full-path", "p", false, "Match the pattern against the full path")
	flagset.IntVarP(&f.maxDepth, "max-depth", "d", 0, "Limit traversal to N levels deep")
	flagset.IntVar(&f.minDepth, "min-depth", 0, "Skip entries shallower than N levels")
	flagset.IntVar(&f.exactDepth, "exact-depth", 0, "Only match entries exactly N levels deep")
	flagset.StringArrayVarP(&f.exclude, "exclude", "E", nil, "Exclude entries matching this glob (repeatable)")
	flagset.BoolVar(&f.prune, "prune", false, "Do not descend into directories matched by filters")
	flagset.StringArrayVarP(&f.types, "type", "t", nil, "Filter by entry type: f,d,l,x,e,s,p (repeatable)")
	flagset.StringArrayVarP(&f.extensions, "extension", "e", nil, "Filter by file extension (repeatable)")
	flagset.StringArrayVarP(&f.sizes, "size", "S", nil, "Filter by size, e.g. +100M, -1k (repeatable)")
	flagset.StringVar(&f.changedWithin, "changed-within", "", "Only entries changed within this duration/date (alias --newer)")
	flagset.StringVar(&f.changedWithin, "newer", "", "Alias for --changed-within")
	flagset.StringVar(&f.changedBefore, "changed-before", "", "Only entries changed before this duration/date (alias --older)")
	flagset.StringVar(&f.changedBefore, "older", "", "Alias for --changed-before")
	flagset.StringVarP(&f.owner, "owner", "o", "", "Filter by owner, USER[:GROUP], ! negates either half")
	flagset.BoolVar(&f.oneFileSystem, "one-file-system", false, "Do not descend into other file systems")
	flagset.StringArrayVar(&f.ignoreFiles, "ignore-file", nil, "Add an additional ignore-file (repeatable)")
	flagset.BoolVarP(&f.follow, "follow", "L", false, "Follow symbolic links")
	flagset.BoolVarP(&f.absolutePath, "absolute-path", "a", false, "Print absolute paths")
	flagset.BoolVarP(&f.listDetails, "list-details", "l", false, "Use a long listing format (like ls -l)")
	flagset.BoolVarP(&f.print0, "print0", "0", false, "Separate results by the NUL byte")
	flagset.StringVarP(&f.color, "color", "c", "auto", "When to colorize output: auto, always, never")
	flagset.StringVar(&f.pathSeparator, "path-separator", "", "Set the path separator to use in output")
	flagset.IntVar(&f.maxResults, "max-results", 0, "Limit the number of results")
	flagset.BoolVarP(&f.onlyOne, "one", "1", false, "Limit to a single result (alias for --max-results=1)")
	flagset.BoolVarP(&f.quiet, "quiet", "q", false, "Do not print results, only report whether any were found")
	flagset.BoolVar(&f.showErrors, "show-errors", false, "Show filesystem errors")
	flagset.StringVar(&f.baseDirectory, "base-directory", "", "Change the current working directory for the search")
	flagset.BoolVar(&f.stripCwdPrefix, "strip-cwd-prefix", false, "Strip the './' prefix from results under the cwd")
	flagset.StringArrayVarP(&f.execCmd, "exec", "x", nil, "Execute a command for each result")
	flagset.StringArrayVarP(&f.execBatchCmd, "exec-batch", "X", nil, "Execute a command once, batching results")
	flagset.IntVar(&f.batchSize, "batch-size", 0, "Maximum number of results per exec-batch invocation")
	flagset.IntVarP(&f.threads, "threads", "j", 0, "Number of worker threads (default: number of CPUs)")
	flagset.IntVar(&f.maxBufferTimeMS, "max-buffer-time", 0, "Milliseconds to buffer before streaming output")
	_ = flagset.MarkHidden("max-buffer-time")
	flagset.StringArrayVar(&f.searchPaths, "search-path", nil, "A search root (repeatable, conflicts with positional paths)")
	flagset.BoolVar(&f.debug, "debug", false, "Enable debug logging")

	return cmd
}

// Execute runs the fdgo root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[fd error]: %v\n", err)
		os.Exit(1)
	}
}

func buildConfig(f *flags, args []string) (*engine.Config, error) {
	if f.baseDirectory != "" {
		if err := os.Chdir(f.baseDirectory); err != nil {
			return nil, fmt.Errorf("--base-directory: %w", err)
		}
	}

	pattern, paths, err := splitArgs(f, args)
	if err != nil {
		return nil, err
	}

	cfg := &engine.Config{
		SearchFullPath:   f.fullPath,
		ReadFdIgnore:     true,
		ReadGitIgnore:    true,
		ReadGlobalIgnore: !f.noGlobalIgnore,
		ReadParentIgnore: !f.noIgnoreParent,
		IncludeHidden:    f.hidden,
		FollowSymlinks:   f.follow,
		OneFileSystem:    f.oneFileSystem,
		MinDepth:         f.minDepth,
		MaxDepth:         f.maxDepth,
		Prune:            f.prune,
		ExcludeGlobs:     f.exclude,
		IgnoreFiles:      f.ignoreFiles,
		NullSeparator:    f.print0,
		AbsolutePath:     f.absolutePath,
		PathSeparator:    f.pathSeparator,
		MaxResults:       f.maxResults,
		Quiet:            f.quiet,
		ShowFSErrors:     f.showErrors,
		StripCwdPrefix:   f.stripCwdPrefix,
		BatchSize:        f.batchSize,
		Threads:          f.threads,
		SearchPaths:      paths,
		BaseDirectory:    f.baseDirectory,
		Logger:           engine.NewLogger(f.debug),
	}

	if f.onlyOne {
		cfg.MaxResults = 1
	}
	if f.exactDepth > 0 {
		cfg.MinDepth = f.exactDepth
		cfg.MaxDepth = f.exactDepth
	}

	switch f.unrestrictedCount {
	case 1:
		f.noIgnore = true
	case 2:
		f.noIgnore = true
		cfg.IncludeHidden = true
	}
	if f.noIgnore || f.noIgnoreVCS {
		cfg.ReadGitIgnore = false
	}
	if f.noIgnore {
		cfg.ReadFdIgnore = false
		cfg.ReadGlobalIgnore = false
		cfg.ReadParentIgnore = false
	}

	cfg.MaxBufferTime = time.Duration(f.maxBufferTimeMS) * time.Millisecond
	cfg.Colorize = shouldColorize(f.color)

	if pattern != "" {
		if f.fixedStrings {
			pattern = regexp.QuoteMeta(pattern)
		}
		if f.glob {
			cfg.GlobPattern = pattern
		} else {
			re, err := engine.CompileSmartCase(pattern, f.caseSensitive, f.ignoreCase)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern: %w", err)
			}
			cfg.Pattern = re
		}
	}

	if len(f.types) > 0 {
		cfg.FileTypes = map[engine.FileType]bool{}
		for _, t := range f.types {
			switch t {
			case "f":
				cfg.FileTypes[engine.TypeFile] = true
			case "d":
				cfg.FileTypes[engine.TypeDir] = true
			case "l":
				cfg.FileTypes[engine.TypeSymlink] = true
			case "s":
				cfg.FileTypes[engine.TypeSocket] = true
			case "p":
				cfg.FileTypes[engine.TypePipe] = true
			case "x":
				cfg.ExecutableOnly = true
				cfg.FileTypes[engine.TypeFile] = true
			case "e":
				cfg.EmptyOnly = true
				cfg.FileTypes[engine.TypeFile] = true
				cfg.FileTypes[engine.TypeDir] = true
			default:
				return nil, fmt.Errorf("unrecognized type %q", t)
			}
		}
	}

	if len(f.extensions) > 0 {
		parts := make([]string, len(f.extensions))
		for i, e := range f.extensions {
			parts[i] = regexp.QuoteMeta(strings.TrimPrefix(e, "."))
		}
		re, err := regexp.Compile("(?i)^(" + strings.Join(parts, "|") + ")$")
		if err != nil {
			return nil, err
		}
		cfg.Extensions = re
	}

	for _, s := range f.sizes {
		r, err := engine.ParseSize(s)
		if err != nil {
			return nil, err
		}
		cfg.SizeRanges = append(cfg.SizeRanges, r)
	}

	now := time.Now()
	if f.changedWithin != "" {
		t, err := engine.ParseTime(f.changedWithin, now)
		if err != nil {
			return nil, err
		}
		cfg.TimeRanges = append(cfg.TimeRanges, engine.TimeRange{After: true, AfterTime: t})
	}
	if f.changedBefore != "" {
		t, err := engine.ParseTime(f.changedBefore, now)
		if err != nil {
			return nil, err
		}
		cfg.TimeRanges = append(cfg.TimeRanges, engine.TimeRange{Before: true, BeforeTime: t})
	}

	if f.owner != "" {
		owner, err := engine.ParseOwner(f.owner, lookupUID, lookupGID)
		if err != nil {
			return nil, err
		}
		cfg.Owner = owner
	}

	if len(f.execCmd) > 0 {
		cs, err := exec.NewCommandSet(exec.ModeOneByOne, [][]string{f.execCmd})
		if err != nil {
			return nil, err
		}
		cfg.Command = cs
	} else if len(f.execBatchCmd) > 0 {
		cs, err := exec.NewCommandSet(exec.ModeBatch, [][]string{f.execBatchCmd})
		if err != nil {
			return nil, err
		}
		cfg.Command = cs
	}

	return cfg, nil
}

// splitArgs separates the optional leading pattern from the trailing
// search paths, honoring --search-path as an alternative to positionals
// (spec.md §6).
func splitArgs(f *flags, args []string) (pattern string, paths []string, err error) {
	if len(f.searchPaths) > 0 {
		if len(args) > 1 {
			return "", nil, fmt.Errorf("--search-path conflicts with positional paths")
		}
		if len(args) == 1 {
			pattern = args[0]
		}
		return pattern, f.searchPaths, nil
	}

	switch len(args) {
	case 0:
		return "", []string{"."}, nil
	default:
		first := args[0]
		if info, statErr := os.Stat(first); statErr == nil && info.IsDir() {
			return "", args, nil
		}
		if len(args) == 1 {
			return first, []string{"."}, nil
		}
		return first, args[1:], nil
	}
}

func shouldColorize(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		if os.Getenv("NO_COLOR") != "" {
			return false
		}
		return isatty.IsTerminal(os.Stdout.Fd())
	}
}

func lookupUID(name string) (uint32, bool) {
	if u, err := user.Lookup(name); err == nil {
		if n, err := strconv.ParseUint(u.Uid, 10, 32); err == nil {
			return uint32(n), true
		}
	}
	if n, err := strconv.ParseUint(name, 10, 32); err == nil {
		return uint32(n), true
	}
	return 0, false
}

func lookupGID(name string) (uint32, bool) {
	if g, err := user.LookupGroup(name); err == nil {
		if n, err := strconv.ParseUint(g.Gid, 10, 32); err == nil {
			return uint32(n), true
		}
	}
	if n, err := strconv.ParseUint(name, 10, 32); err == nil {
		return uint32(n), true
	}
	return 0, false
}
