//go:build portaudio

package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	"tunespot/internal/domain"
	"tunespot/internal/ports"
)

func init() {
	newPortAudioCapture = func() ports.AudioCapture { return &PortAudioCapture{} }
}

// PortAudioCapture records from a PortAudio input device.
type PortAudioCapture struct {
	tempDir string
}

func (c *PortAudioCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	cfg = withCaptureDefaults(cfg)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	framesPerBuffer := cfg.SampleRate / 50
	buf := make([]int16, framesPerBuffer*cfg.Channels)

	stream, err := openInputStream(cfg, framesPerBuffer, &buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("start stream: %w", err)
	}

	session := &portAudioSession{
		cfg:     cfg,
		tempDir: c.tempDir,
		stream:  stream,
		buf:     buf,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go session.readLoop()
	return session, nil
}

func openInputStream(cfg ports.AudioConfig, framesPerBuffer int, buf *[]int16) (*portaudio.Stream, error) {
	device := strings.TrimSpace(cfg.InputDevice)
	if device == "" || device == "default" {
		stream, err := portaudio.OpenDefaultStream(cfg.Channels, 0, float64(cfg.SampleRate), framesPerBuffer, buf)
		if err != nil {
			return nil, fmt.Errorf("open stream: %w", err)
		}
		return stream, nil
	}

	devs, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, d := range devs {
		if d.MaxInputChannels < 1 || !strings.Contains(strings.ToLower(d.Name), strings.ToLower(device)) {
			continue
		}
		stream, err := portaudio.OpenStream(portaudio.StreamParameters{
			Input: portaudio.StreamDeviceParameters{
				Device:   d,
				Channels: cfg.Channels,
				Latency:  d.DefaultLowInputLatency,
			},
			SampleRate:      float64(cfg.SampleRate),
			FramesPerBuffer: framesPerBuffer,
		}, buf)
		if err != nil {
			return nil, fmt.Errorf("open stream: %w", err)
		}
		return stream, nil
	}
	return nil, fmt.Errorf("input device %q not found", device)
}

type portAudioSession struct {
	cfg     ports.AudioConfig
	tempDir string
	stream  *portaudio.Stream
	buf     []int16

	mu      sync.Mutex
	samples []int
	readErr error

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	stopErr  error
	released bool
}

func (s *portAudioSession) readLoop() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		default:
		}
		if err := s.stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				continue
			}
			s.mu.Lock()
			s.readErr = err
			s.mu.Unlock()
			return
		}
		s.mu.Lock()
		for _, v := range s.buf {
			s.samples = append(s.samples, int(v))
		}
		s.mu.Unlock()
	}
}

func (s *portAudioSession) Finish() (domain.AudioAsset, error) {
	if err := s.stop(); err != nil {
		return domain.AudioAsset{}, err
	}
	if s.released {
		return domain.AudioAsset{}, errSessionReleased
	}
	s.released = true

	s.mu.Lock()
	samples, readErr := s.samples, s.readErr
	s.mu.Unlock()
	if readErr != nil {
		return domain.AudioAsset{}, fmt.Errorf("stream read: %w", readErr)
	}
	return writeWAV(s.tempDir, samples, s.cfg.SampleRate, s.cfg.Channels)
}

func (s *portAudioSession) Release() error {
	s.released = true
	return s.stop()
}

func (s *portAudioSession) stop() error {
	s.stopOnce.Do(func() {
		close(s.quit)
		<-s.done
		if err := s.stream.Stop(); err != nil {
			s.stopErr = err
		}
		if err := s.stream.Close(); err != nil && s.stopErr == nil {
			s.stopErr = err
		}
		_ = portaudio.Terminate()
	})
	return s.stopErr
}
