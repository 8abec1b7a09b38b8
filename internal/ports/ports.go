package ports

import (
	"context"

	"tunespot/internal/domain"
)

// AudioConfig describes how the microphone should be captured. Container,
// InputFormat and InputDevice are passed straight through to the backend.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	BitRate     int
	Container   string
	InputFormat string
	InputDevice string
}

// AudioSession is a live hardware capture handle.
type AudioSession interface {
	// Finish stops capture and finalizes the recorded bytes into an asset.
	Finish() (domain.AudioAsset, error)
	// Release stops capture and discards anything recorded.
	Release() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// PermissionGate asks the platform for microphone access.
type PermissionGate interface {
	RequestMicrophone(ctx context.Context) (bool, error)
}

// Recognizer submits an asset to the remote recognition service.
type Recognizer interface {
	Recognize(ctx context.Context, asset domain.AudioAsset) domain.RecognitionOutcome
}

// URLOpener hands a URI to the system. An error means no handler accepted it.
type URLOpener interface {
	Open(ctx context.Context, uri string) error
}

// PresentationRenderer renders the result sheet.
type PresentationRenderer interface {
	PresentationChanged(state domain.PresentationState)
}

// Presenter holds the displayed recognition outcome.
type Presenter interface {
	Show(record *domain.MatchRecord)
	Dismiss()
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	PresentationRenderer
	SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason)
	SessionError(code domain.ErrorCode, detail string)
}
