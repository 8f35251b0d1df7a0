package engine

import "sync/atomic"

// SignalState tracks cooperative shutdown across the walker, filter
// workers, and the receiver: quit requests a clean stop once in-flight
// work drains, interrupt additionally records that an interrupt signal
// arrived, so output stops with KilledBySignal (spec.md §4.4, grounded in
// walk.rs's quit_flag/interrupt_flag pair).
type SignalState struct {
	quit      atomic.Bool
	interrupt atomic.Bool
}

// NewSignalState returns a zero SignalState.
func NewSignalState() *SignalState { return &SignalState{} }

// ShouldQuit reports whether a shutdown has been requested.
func (s *SignalState) ShouldQuit() bool { return s.quit.Load() }

// Interrupted reports whether at least one interrupt signal was received.
func (s *SignalState) Interrupted() bool { return s.interrupt.Load() }

// RequestQuit marks the state for a clean shutdown; callers already
// inside ShouldQuit-polling loops notice on their next check.
func (s *SignalState) RequestQuit() { s.quit.Store(true) }
