package usecase

import (
	"context"
	"time"

	"tunespot/internal/domain"
)

// captureSession is one recording attempt. The hardware handle is not stored
// here; it lives in the controller's single slot.
type captureSession struct {
	id        string
	state     domain.SessionState
	startTime time.Time

	ctx    context.Context
	cancel context.CancelFunc

	stopDeadline func() bool
}

// disarm stops the deadline timer and cancels in-flight work.
func (s *captureSession) disarm() {
	if s.stopDeadline != nil {
		s.stopDeadline()
		s.stopDeadline = nil
	}
	if s.cancel != nil {
		s.cancel()
	}
}
