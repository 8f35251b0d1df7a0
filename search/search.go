package search

import (
	"context"
	"io"
	"regexp"

	"github.com/TFMV/fdgo/internal/engine"
	"github.com/TFMV/fdgo/internal/engine/exec"
)

// Config is an alias for the engine's search configuration, so library
// callers build one value and never need to import internal/engine.
type Config = engine.Config

// Entry, FileType, Metadata, and the exit-code model are re-exported the
// same way.
type (
	Entry    = engine.Entry
	FileType = engine.FileType
	Metadata = engine.Metadata
	ExitCode = engine.ExitCode
)

const (
	TypeUnknown  = engine.TypeUnknown
	TypeFile     = engine.TypeFile
	TypeDir      = engine.TypeDir
	TypeSymlink  = engine.TypeSymlink
	TypeSocket   = engine.TypeSocket
	TypePipe     = engine.TypePipe
	TypeBlockDev = engine.TypeBlockDev
	TypeCharDev  = engine.TypeCharDev
)

const (
	Success        = engine.Success
	GeneralError   = engine.GeneralError
	KilledBySignal = engine.KilledBySignal
)

// CommandSet and ExecMode let callers build an -x/-X execution
// configuration without reaching into internal/engine/exec.
type (
	CommandSet = exec.CommandSet
	ExecMode   = exec.ExecutionMode
)

const (
	ExecOneByOne = exec.ModeOneByOne
	ExecBatch    = exec.ModeBatch
)

// NewCommandSet parses -x/-X argument vectors into a CommandSet.
func NewCommandSet(mode ExecMode, raw [][]string) (*CommandSet, error) {
	return exec.NewCommandSet(mode, raw)
}

// Run executes a search described by cfg, writing matches (or running
// cfg.Command) and returning the process's aggregate exit code.
func Run(ctx context.Context, cfg *Config, stdout io.Writer) ExitCode {
	return engine.Search(ctx, cfg, stdout)
}

// NewLogger builds a structured logger suitable for Config.Logger.
func NewLogger(debug bool) engine.Logger {
	return engine.NewLogger(debug)
}

// CompileSmartCase compiles pattern with fd's smart-case rule.
func CompileSmartCase(pattern string, caseSensitive, ignoreCase bool) (*regexp.Regexp, error) {
	return engine.CompileSmartCase(pattern, caseSensitive, ignoreCase)
}
