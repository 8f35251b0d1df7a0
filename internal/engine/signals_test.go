package engine

import "testing"

func TestSignalStateRequestQuit(t *testing.T) {
	s := NewSignalState()
	if s.ShouldQuit() {
		t.Fatal("new SignalState should not be in a quit state")
	}
	s.RequestQuit()
	if !s.ShouldQuit() {
		t.Error("expected ShouldQuit() to be true after RequestQuit()")
	}
	if s.Interrupted() {
		t.Error("RequestQuit() should not itself mark the state as interrupted")
	}
}

func TestSignalStateWatchInterruptsStop(t *testing.T) {
	s := NewSignalState()
	stop := s.WatchInterrupts()
	defer stop()
	if s.ShouldQuit() || s.Interrupted() {
		t.Error("installing the handler should not itself change the state")
	}
}
