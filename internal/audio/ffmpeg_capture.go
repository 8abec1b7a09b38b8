package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"tunespot/internal/domain"
	"tunespot/internal/ports"
)

var errSessionReleased = errors.New("capture session already released")

const (
	startupGrace = 250 * time.Millisecond
	stopGrace    = 1200 * time.Millisecond
)

// FFMPEGCapture records microphone PCM audio using ffmpeg.
type FFMPEGCapture struct {
	command string
	tempDir string
}

func NewFFMPEGCapture(command string) *FFMPEGCapture {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFMPEGCapture{command: command}
}

// Start launches ffmpeg and keeps its PCM output in memory until the session
// is finished or released. ctx only bounds startup.
func (c *FFMPEGCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	cfg = withCaptureDefaults(cfg)

	cmd := exec.Command(c.command, ffmpegArgs(cfg)...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", c.command, err)
	}

	session := &ffmpegSession{
		cfg:     cfg,
		tempDir: c.tempDir,
		pcm:     newPCMBuffer(),
		stderr:  stderr,
		process: cmd.Process,
	}
	exited := make(chan error, 1)
	session.exited = exited
	go session.pcm.drain(stdout, 4096)
	go func() {
		// Wait closes stdout, so the drain has to finish first.
		<-session.pcm.done
		exited <- cmd.Wait()
		close(exited)
	}()

	select {
	case err := <-exited:
		if err != nil {
			return nil, fmt.Errorf("ffmpeg exited before capture started: %w: %s", err, trimStderr(stderr))
		}
		return nil, errors.New("ffmpeg exited before capture started")
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-exited
		return nil, ctx.Err()
	case <-time.After(startupGrace):
	}
	return session, nil
}

func ffmpegArgs(cfg ports.AudioConfig) []string {
	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}
}

type ffmpegSession struct {
	cfg     ports.AudioConfig
	tempDir string
	pcm     *pcmBuffer
	stderr  *bytes.Buffer

	process *os.Process
	exited  <-chan error

	stopOnce sync.Once
	stopErr  error
	released bool
}

// Finish stops ffmpeg and writes what it captured to a temporary WAV file.
func (s *ffmpegSession) Finish() (domain.AudioAsset, error) {
	if err := s.stop(); err != nil {
		return domain.AudioAsset{}, err
	}
	if s.released {
		return domain.AudioAsset{}, errSessionReleased
	}
	s.released = true

	data, err := s.pcm.Bytes()
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return domain.AudioAsset{}, fmt.Errorf("read captured audio: %w", err)
	}
	return writeWAV(s.tempDir, samplesFromS16LE(data), s.cfg.SampleRate, s.cfg.Channels)
}

// Release stops ffmpeg and drops the captured audio.
func (s *ffmpegSession) Release() error {
	s.released = true
	return s.stop()
}

// stop interrupts ffmpeg so it flushes, and kills it if it does not exit
// within stopGrace.
func (s *ffmpegSession) stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		var err error
		select {
		case err = <-s.exited:
		case <-time.After(stopGrace):
			if s.process != nil {
				_ = s.process.Kill()
			}
			err = <-s.exited
		}

		s.stopErr = normalizeStopErr(err)
		if s.stopErr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, trimStderr(s.stderr))
		}
	})
	return s.stopErr
}

func withCaptureDefaults(cfg ports.AudioConfig) ports.AudioConfig {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 2
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}
	return cfg
}

// normalizeStopErr treats a non-zero exit as a normal stop; ffmpeg exits 255
// on SIGINT.
func normalizeStopErr(err error) error {
	var exitErr *exec.ExitError
	if err == nil || errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func trimStderr(stderr *bytes.Buffer) string {
	if stderr == nil {
		return ""
	}
	return strings.TrimSpace(stderr.String())
}
