package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultMaxBufferTime is how long the receiver waits for results to
// arrive quickly before giving up on sorted output and switching to
// unsorted streaming (spec.md §4.5, grounded in walk.rs's
// DEFAULT_MAX_BUFFER_TIME).
const DefaultMaxBufferTime = 100 * time.Millisecond

// MaxBufferLength caps how many entries the receiver accumulates before
// it streams regardless of the deadline, so a single very fast, very
// large search still bounds memory (spec.md §4.5).
const MaxBufferLength = 1000

type receiverMode int

const (
	modeBuffering receiverMode = iota
	modeStreaming
)

// Receiver implements the adaptive buffer-then-stream output state
// machine: results are held and sorted for up to MaxBufferTime so a fast
// search prints in a stable order, but a slow search streams results as
// they arrive rather than making the user wait (spec.md §4.5, grounded
// in walk.rs's ReceiverBuffer).
type Receiver struct {
	cfg *Config
	sig *SignalState
	w   *bufio.Writer

	mode       receiverMode
	deadline   time.Time
	buffer     []*Entry
	numResults int
}

// NewReceiver constructs a Receiver writing to w.
func NewReceiver(cfg *Config, sig *SignalState, w io.Writer) *Receiver {
	maxBufferTime := cfg.MaxBufferTime
	if maxBufferTime <= 0 {
		maxBufferTime = DefaultMaxBufferTime
	}
	return &Receiver{
		cfg:      cfg,
		sig:      sig,
		w:        bufio.NewWriter(w),
		mode:     modeBuffering,
		deadline: timeNow().Add(maxBufferTime),
		buffer:   make([]*Entry, 0, MaxBufferLength),
	}
}

// timeNow is a seam so tests can control the buffering deadline.
var timeNow = time.Now

// Run drains results until the channel closes, a max-results cap is hit,
// or the signal state reports an interrupt, returning the aggregate
// ExitCode for the search (spec.md §4.5, grounded in ReceiverBuffer::process).
func (r *Receiver) Run(results <-chan WorkerResult) ExitCode {
	for {
		select {
		case res, ok := <-results:
			if !ok {
				return r.stop()
			}
			if code, done := r.handle(res); done {
				r.sig.RequestQuit()
				return code
			}
		case <-timeAfter(r.timeUntilDeadline()):
			if r.mode == modeBuffering {
				if code, done := r.streamBuffered(); done {
					return code
				}
			}
		}
	}
}

func (r *Receiver) timeUntilDeadline() time.Duration {
	if r.mode == modeStreaming {
		return time.Hour // effectively "no deadline"; recv blocks on the channel
	}
	d := r.deadline.Sub(timeNow())
	if d < 0 {
		d = 0
	}
	return d
}

// timeAfter is a seam over time.After so tests can substitute a fake
// deadline channel.
var timeAfter = time.After

func (r *Receiver) handle(res WorkerResult) (ExitCode, bool) {
	if res.Err != nil {
		if r.cfg.ShowFSErrors {
			fmt.Fprintf(os.Stderr, "[fd error]: %v\n", res.Err)
		}
		return Success, false
	}

	if r.cfg.Quiet {
		return HasResultsCode(true), true
	}

	switch r.mode {
	case modeBuffering:
		r.buffer = append(r.buffer, res.Entry)
		if len(r.buffer) > MaxBufferLength {
			if code, done := r.streamBuffered(); done {
				return code, true
			}
		}
	case modeStreaming:
		if code, done := r.print(res.Entry); done {
			return code, true
		}
	}

	r.numResults++
	if r.cfg.MaxResults > 0 && r.numResults >= r.cfg.MaxResults {
		return r.stop(), true
	}
	return Success, false
}

// streamBuffered flushes the accumulated buffer (unsorted; sorting only
// happens at final stop, matching ReceiverBuffer::stop) and switches to
// streaming mode.
func (r *Receiver) streamBuffered() (ExitCode, bool) {
	r.mode = modeStreaming
	buf := r.buffer
	r.buffer = nil
	for _, e := range buf {
		if code, done := r.print(e); done {
			return code, true
		}
	}
	return Success, false
}

func (r *Receiver) print(e *Entry) (ExitCode, bool) {
	PrintEntry(r.w, e, r.cfg)
	if r.mode == modeStreaming {
		r.w.Flush()
	}
	if r.sig.Interrupted() {
		r.w.Flush()
		return KilledBySignal, true
	}
	return Success, false
}

func (r *Receiver) stop() ExitCode {
	if r.mode == modeBuffering {
		sort.Slice(r.buffer, func(i, j int) bool {
			return r.buffer[i].Path < r.buffer[j].Path
		})
		if code, done := r.streamBuffered(); done {
			return code
		}
	}
	r.w.Flush()
	if r.cfg.Quiet {
		return HasResultsCode(r.numResults > 0)
	}
	return Success
}

// PrintEntry writes one entry's path to w according to cfg's output
// flags (null-separated, absolute, cwd-stripped, colorized), grounded in
// output::print_entry.
func PrintEntry(w io.Writer, e *Entry, cfg *Config) {
	p := e.Path
	if cfg.StripCwdPrefix {
		if rel, err := filepath.Rel(".", p); err == nil {
			p = rel
		}
	}
	if cfg.AbsolutePath {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
	}
	if cfg.PathSeparator != "" {
		p = strings.ReplaceAll(p, string(filepath.Separator), cfg.PathSeparator)
	}

	rendered := p
	if e.Style != nil {
		rendered = e.Style.Render(p)
	}

	sep := "\n"
	if cfg.NullSeparator {
		sep = "\x00"
	}
	fmt.Fprint(w, rendered, sep)
}
