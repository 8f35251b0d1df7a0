package engine

import "github.com/TFMV/fdgo/internal/engine/exec"

// ExitCode re-exports the executor's exit-code model so callers of this
// package never need to import internal/engine/exec directly just to
// interpret a Search result (spec.md §7).
type ExitCode = exec.ExitCode

const (
	Success        = exec.Success
	GeneralError   = exec.GeneralError
	KilledBySignal = exec.KilledBySignal
)

// HasResultsCode returns Success if found is true, GeneralError otherwise.
func HasResultsCode(found bool) ExitCode { return exec.HasResultsCode(found) }

// MergeExitCodes combines a batch of exit codes into one aggregate code.
func MergeExitCodes(codes []ExitCode) ExitCode { return exec.Merge(codes) }
