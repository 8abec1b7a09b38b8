package main

import (
	"fmt"
	"io"
	"sync"

	"tunespot/internal/domain"
)

// cliSink prints session events and reports the first return to idle.
type cliSink struct {
	mu   sync.Mutex
	out  io.Writer
	done chan domain.SessionStateReason
}

func newCLISink(out io.Writer) *cliSink {
	return &cliSink{out: out, done: make(chan domain.SessionStateReason, 1)}
}

func (s *cliSink) SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason) {
	s.mu.Lock()
	fmt.Fprintf(s.out, "[%s] %s\n", state, reason)
	s.mu.Unlock()

	if state != domain.SessionStateIdle {
		return
	}
	select {
	case s.done <- reason:
	default:
	}
}

func (s *cliSink) SessionError(code domain.ErrorCode, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "error %s: %s\n", code, detail)
}

// PresentationChanged is a no-op; the listen command prints the record once
// the session is over.
func (s *cliSink) PresentationChanged(_ domain.PresentationState) {}
