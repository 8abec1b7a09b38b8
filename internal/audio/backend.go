package audio

import (
	"fmt"
	"strings"

	"tunespot/internal/ports"
)

const (
	BackendFFMPEG    = "ffmpeg"
	BackendPortAudio = "portaudio"
)

// newPortAudioCapture is set by builds with the portaudio tag.
var newPortAudioCapture func() ports.AudioCapture

// NewCapture returns the capture backend by name.
func NewCapture(backend string, recorderCommand string) (ports.AudioCapture, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFFMPEG:
		return NewFFMPEGCapture(recorderCommand), nil
	case BackendPortAudio:
		if newPortAudioCapture == nil {
			return nil, fmt.Errorf("audio backend %q requires a build with -tags portaudio", backend)
		}
		return newPortAudioCapture(), nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", backend)
	}
}
