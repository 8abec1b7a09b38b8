package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tunespot/internal/domain"
	"tunespot/internal/logging"
	"tunespot/internal/ports"
)

var (
	ErrNoActiveSession    = errors.New("no active capture session")
	ErrInvalidTransition  = errors.New("operation not valid in the current state")
	ErrPermissionDenied   = errors.New("microphone permission denied")
	ErrCaptureUnavailable = errors.New("capture resource unavailable")

	errAssetMissing = errors.New("recording location not available")
)

// CaptureWindow is the fixed length of every capture.
const CaptureWindow = 10 * time.Second

// Fixed encoding handed to the capture backend.
const (
	captureSampleRate = 44100
	captureChannels   = 2
	captureBitRate    = 128000
)

// Config controls capture behavior. Sample rate, channel count and bit rate
// in Audio are ignored in favor of the fixed encoding.
type Config struct {
	Audio  ports.AudioConfig
	Logger logrus.FieldLogger
}

// PermissionFunc adapts a function to ports.PermissionGate.
type PermissionFunc func(ctx context.Context) (bool, error)

func (f PermissionFunc) RequestMicrophone(ctx context.Context) (bool, error) {
	return f(ctx)
}

// SessionController orchestrates capture, recognition and presentation.
type SessionController struct {
	audio      ports.AudioCapture
	permission ports.PermissionGate
	recognizer ports.Recognizer
	presenter  ports.Presenter
	events     ports.EventSink
	router     outcomeRouter
	cfg        Config
	logger     logrus.FieldLogger

	afterFunc func(d time.Duration, f func()) (stop func() bool)
	newID     func() string
	now       func() time.Time

	mu      sync.Mutex
	current *captureSession
	// handle is the single live hardware capture resource, if any.
	handle ports.AudioSession
}

func NewSessionController(
	audio ports.AudioCapture,
	permission ports.PermissionGate,
	recognizer ports.Recognizer,
	presenter ports.Presenter,
	events ports.EventSink,
	cfg Config,
) *SessionController {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &SessionController{
		audio:      audio,
		permission: permission,
		recognizer: recognizer,
		presenter:  presenter,
		events:     events,
		router:     newOutcomeRouter(presenter, events),
		cfg:        cfg,
		logger:     logger,
		afterFunc: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// Start begins a capture attempt. It is a no-op unless the controller is
// idle. ctx bounds the whole attempt, recognition included.
func (c *SessionController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.current != nil {
		state := c.current.state
		c.mu.Unlock()
		c.logger.WithField("state", state).Debug("start ignored; capture already in progress")
		return nil
	}
	sessionCtx, cancel := context.WithCancel(ctx)
	session := &captureSession{
		id:        c.newID(),
		state:     domain.SessionStateRequestingPermission,
		startTime: c.now(),
		ctx:       sessionCtx,
		cancel:    cancel,
	}
	c.current = session
	c.mu.Unlock()

	log := c.logger.WithField("session", session.id)
	c.events.SessionStateChanged(domain.SessionStateRequestingPermission, domain.SessionReasonAwaitingPermission)

	granted, err := c.permission.RequestMicrophone(sessionCtx)
	if err != nil || !granted {
		detail := "microphone permission is required"
		if err != nil {
			log.WithError(err).Warn("permission request failed")
			detail = err.Error()
		}
		if c.abandon(session, domain.SessionReasonPermissionDenied) {
			c.events.SessionError(domain.ErrorCodePermissionDenied, detail)
		}
		return ErrPermissionDenied
	}

	c.mu.Lock()
	stale := c.takeHandleLocked()
	c.mu.Unlock()
	if stale != nil {
		log.Warn("releasing stale capture handle")
		c.releaseHandle(log, stale)
	}

	handle, err := c.audio.Start(sessionCtx, c.audioConfig())
	if err != nil {
		log.WithError(err).Error("capture start failed")
		if c.abandon(session, domain.SessionReasonCaptureUnavailable) {
			c.events.SessionError(domain.ErrorCodeCaptureUnavailable, err.Error())
		}
		return fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}

	c.mu.Lock()
	if c.current != session {
		// Closed while the hardware was starting.
		c.mu.Unlock()
		c.releaseHandle(log, handle)
		return ErrNoActiveSession
	}
	c.handle = handle
	session.state = domain.SessionStateRecording
	session.stopDeadline = c.afterFunc(CaptureWindow, func() {
		c.deadlineElapsed(session.id)
	})
	c.mu.Unlock()

	log.Info("recording started")
	c.events.SessionStateChanged(domain.SessionStateRecording, domain.SessionReasonRecordingStarted)
	return nil
}

// Cancel discards the current attempt. It is valid while recording or
// waiting on recognition.
func (c *SessionController) Cancel() error {
	c.mu.Lock()
	session := c.current
	if session == nil {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	switch session.state {
	case domain.SessionStateRecording, domain.SessionStateProcessing:
	default:
		state := session.state
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot cancel while %s", ErrInvalidTransition, state)
	}
	c.current = nil
	session.disarm()
	handle := c.takeHandleLocked()
	c.mu.Unlock()

	log := c.logger.WithField("session", session.id)
	c.releaseHandle(log, handle)
	c.presenter.Dismiss()
	log.Info("capture cancelled")
	c.events.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonCancelled)
	return nil
}

// Close tears down any attempt regardless of state.
func (c *SessionController) Close() {
	c.mu.Lock()
	session := c.current
	c.current = nil
	if session != nil {
		session.disarm()
	}
	handle := c.takeHandleLocked()
	c.mu.Unlock()

	if handle != nil {
		c.releaseHandle(c.logger, handle)
	}
}

// Status returns the current backend status.
func (c *SessionController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return domain.Status{State: domain.SessionStateIdle, Active: false}
	}
	return domain.Status{State: c.current.state, Active: true, SessionID: c.current.id}
}

// deadlineElapsed runs when a capture window closes. It must tolerate firing
// after the session it was armed for is gone.
func (c *SessionController) deadlineElapsed(sessionID string) {
	c.mu.Lock()
	session := c.current
	if session == nil || session.id != sessionID || session.state != domain.SessionStateRecording {
		c.mu.Unlock()
		c.logger.WithField("session", sessionID).Debug("stale capture deadline ignored")
		return
	}
	session.state = domain.SessionStateStopping
	session.stopDeadline = nil
	handle := c.takeHandleLocked()
	c.mu.Unlock()

	c.events.SessionStateChanged(domain.SessionStateStopping, domain.SessionReasonWindowElapsed)
	c.finalizeAndRecognize(session, handle)
}

func (c *SessionController) finalizeAndRecognize(session *captureSession, handle ports.AudioSession) {
	log := c.logger.WithField("session", session.id)

	asset, err := finishHandle(handle)
	if err != nil {
		log.WithError(err).Error("recording could not be finalized")
		if c.abandon(session, domain.SessionReasonAssetUnavailable) {
			c.events.SessionError(domain.ErrorCodeAssetUnavailable, err.Error())
		}
		return
	}

	c.mu.Lock()
	if c.current != session {
		c.mu.Unlock()
		discardAsset(log, asset)
		return
	}
	session.state = domain.SessionStateProcessing
	ctx := session.ctx
	c.mu.Unlock()

	log.WithField("elapsed", c.now().Sub(session.startTime).Round(time.Millisecond)).Info("recording finalized; recognizing")
	c.events.SessionStateChanged(domain.SessionStateProcessing, domain.SessionReasonRecognizing)

	outcome := c.recognizer.Recognize(ctx, asset)

	c.mu.Lock()
	if c.current != session || session.state != domain.SessionStateProcessing {
		c.mu.Unlock()
		log.WithField("outcome", outcome.Kind).Debug("recognition outcome dropped; attempt was cancelled")
		return
	}
	c.current = nil
	session.disarm()
	c.mu.Unlock()

	log.WithField("outcome", outcome.Kind).Info("recognition finished")
	reason := c.router.Deliver(outcome)
	c.events.SessionStateChanged(domain.SessionStateIdle, reason)
}

// abandon returns session to idle if it is still current.
func (c *SessionController) abandon(session *captureSession, reason domain.SessionStateReason) bool {
	c.mu.Lock()
	if c.current != session {
		c.mu.Unlock()
		return false
	}
	c.current = nil
	session.disarm()
	c.mu.Unlock()

	c.events.SessionStateChanged(domain.SessionStateIdle, reason)
	return true
}

func (c *SessionController) takeHandleLocked() ports.AudioSession {
	handle := c.handle
	c.handle = nil
	return handle
}

func (c *SessionController) releaseHandle(log logrus.FieldLogger, handle ports.AudioSession) {
	if handle == nil {
		return
	}
	if err := handle.Release(); err != nil {
		log.WithError(err).Debug("capture release failed")
	}
}

func (c *SessionController) audioConfig() ports.AudioConfig {
	cfg := c.cfg.Audio
	cfg.SampleRate = captureSampleRate
	cfg.Channels = captureChannels
	cfg.BitRate = captureBitRate
	return cfg
}

func finishHandle(handle ports.AudioSession) (domain.AudioAsset, error) {
	if handle == nil {
		return domain.AudioAsset{}, errAssetMissing
	}
	asset, err := handle.Finish()
	if err != nil {
		return domain.AudioAsset{}, err
	}
	if strings.TrimSpace(asset.Location) == "" {
		return domain.AudioAsset{}, errAssetMissing
	}
	return asset, nil
}

func discardAsset(log logrus.FieldLogger, asset domain.AudioAsset) {
	if !asset.Temporary {
		return
	}
	if err := os.Remove(asset.Location); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Debug("failed to remove recording")
	}
}
