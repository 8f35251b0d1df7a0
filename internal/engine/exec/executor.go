package exec

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// ExecutionMode selects between per-entry and batched execution.
type ExecutionMode int

const (
	ModeOneByOne ExecutionMode = iota
	ModeBatch
)

// CommandSet is the fully-parsed -x/-X specification: one or more command
// templates run either once per matched entry or batched across many
// (spec.md §5, grounded in exec/mod.rs CommandSet).
type CommandSet struct {
	Mode     ExecutionMode
	Commands []CommandTemplate
}

// NewCommandSet parses a list of -x/-X argument vectors.
func NewCommandSet(mode ExecutionMode, raw [][]string) (*CommandSet, error) {
	cs := &CommandSet{Mode: mode}
	for _, words := range raw {
		tmpl, err := ParseCommandTemplate(words)
		if err != nil {
			return nil, err
		}
		if mode == ModeBatch {
			if err := tmpl.ValidateBatch(); err != nil {
				return nil, err
			}
		}
		cs.Commands = append(cs.Commands, tmpl)
	}
	return cs, nil
}

// Execute runs every command template once against path, serializing
// stdout/stderr across concurrent workers via outMu when buffer is true
// (buffering only matters with more than one walker thread, mirroring
// job::job's buffer_output flag).
func (cs *CommandSet) Execute(matchedPath string, outMu *sync.Mutex, buffer bool) ExitCode {
	var codes []ExitCode
	for _, tmpl := range cs.Commands {
		argv := tmpl.Generate(matchedPath)
		codes = append(codes, runOne(argv, outMu, buffer))
	}
	return Merge(codes)
}

func runOne(argv []string, outMu *sync.Mutex, buffer bool) ExitCode {
	if len(argv) == 0 {
		return GeneralError
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin

	if buffer {
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		err := cmd.Run()
		outMu.Lock()
		io.Copy(os.Stdout, &stdout)
		io.Copy(os.Stderr, &stderr)
		outMu.Unlock()
		return exitCodeFor(err)
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return exitCodeFor(cmd.Run())
}

func exitCodeFor(err error) ExitCode {
	if err == nil {
		return Success
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if exitErr.ExitCode() >= 0 {
			return GeneralError
		}
		return KilledBySignal
	}
	return GeneralError
}

// argMax returns the maximum combined argv size fdgo allows itself to
// accumulate before a batch command must be flushed and restarted
// (spec.md §5, grounded in the original's use of the `argmax` crate,
// which itself sizes batches conservatively below the kernel's real
// ARG_MAX rather than probing it exactly). 128KiB keeps batches well
// clear of any platform's actual ceiling without a sysconf dependency.
func argMax() int {
	return 128 * 1024
}

// batchBuilder accumulates matched paths into one growing argv for a
// batch command template, flushing (spawning) whenever the configured
// entry limit or the platform's argv-length ceiling would be exceeded.
// Grounded in mod.rs CommandBuilder.
type batchBuilder struct {
	exe       string
	preArgs   []string
	postArgs  []string
	pathArg   TemplateArg
	separator string

	limit   int
	argMax  int
	pending []string
	count   int
	size    int
	code    ExitCode
}

func newBatchBuilder(tmpl CommandTemplate, limit int, separator string) *batchBuilder {
	b := &batchBuilder{limit: limit, argMax: argMax(), separator: separator}
	seenPath := false
	for i, a := range tmpl.Args {
		if a.HasPlaceholder() {
			b.pathArg = a
			seenPath = true
			continue
		}
		rendered := a.Render("")
		if i == 0 {
			b.exe = rendered
			continue
		}
		if !seenPath {
			b.preArgs = append(b.preArgs, rendered)
		} else {
			b.postArgs = append(b.postArgs, rendered)
		}
	}
	return b
}

func (b *batchBuilder) push(matchedPath string) error {
	if b.limit > 0 && b.count >= b.limit {
		if err := b.flush(); err != nil {
			return err
		}
	}
	rendered := b.pathArg.Render(applySeparator(matchedPath, b.separator))
	argLen := len(rendered) + 1
	if b.count > 0 && b.size+argLen > b.argMax {
		if err := b.flush(); err != nil {
			return err
		}
	}
	b.pending = append(b.pending, rendered)
	b.size += argLen
	b.count++
	return nil
}

func (b *batchBuilder) flush() error {
	if b.count == 0 {
		return nil
	}
	argv := append(append(append([]string{}, b.preArgs...), b.pending...), b.postArgs...)
	cmd := exec.Command(b.exe, argv...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if exitCodeFor(cmd.Run()) != Success {
		b.code = GeneralError
	}
	b.pending = b.pending[:0]
	b.count = 0
	b.size = 0
	return nil
}

func applySeparator(p, sep string) string {
	if sep == "" || sep == "/" {
		return p
	}
	return strings.ReplaceAll(p, "/", sep)
}

// ExecuteBatch runs every batch command template against the full set of
// matched paths delivered via the paths channel, flushing whenever limit
// entries have accumulated or the platform argv ceiling is reached
// (spec.md §5, grounded in exec/job.rs batch + mod.rs execute_batch).
func (cs *CommandSet) ExecuteBatch(paths <-chan string, limit int, pathSeparator string) ExitCode {
	builders := make([]*batchBuilder, len(cs.Commands))
	for i, tmpl := range cs.Commands {
		builders[i] = newBatchBuilder(tmpl, limit, pathSeparator)
	}

	for p := range paths {
		for _, b := range builders {
			if err := b.push(p); err != nil {
				return GeneralError
			}
		}
	}

	codes := make([]ExitCode, len(builders))
	for i, b := range builders {
		b.flush()
		codes[i] = b.code
	}
	return Merge(codes)
}
