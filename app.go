package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"tunespot/internal/bootstrap"
	"tunespot/internal/config"
	"tunespot/internal/deeplink"
	"tunespot/internal/domain"
	"tunespot/internal/presentation"
	"tunespot/internal/usecase"
)

const (
	eventSession = "tunespot:session"
	eventResult  = "tunespot:result"
	eventError   = "tunespot:error"

	unknownLabel = "Unknown"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	controller   *usecase.SessionController
	presentation *presentation.Model
	resolver     *deeplink.Resolver
	cfg          config.Config
	bootErr      error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a, &dialogPermission{app: a}, &wailsWebOpener{app: a}, "")
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.controller = services.Controller
	a.presentation = services.Presentation
	a.resolver = services.Resolver
	a.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonReady)
}

func (a *App) shutdown(_ context.Context) {
	if a.controller != nil {
		a.controller.Close()
	}
}

// StartCapture begins a recognition attempt. Calls while one is running are
// ignored.
func (a *App) StartCapture() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	// Failures are already reported through SessionError.
	if err := a.controller.Start(a.ctx); err != nil {
		return a.controller.Status(), err
	}
	return a.controller.Status(), nil
}

// Undo cancels the running attempt, or clears the shown result when idle.
func (a *App) Undo() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	err := a.controller.Cancel()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, usecase.ErrNoActiveSession):
		a.presentation.Dismiss()
		return nil
	default:
		return err
	}
}

// DismissResult hides the result sheet.
func (a *App) DismissResult() {
	if a.presentation != nil {
		a.presentation.Dismiss()
	}
}

// OpenPlatform opens the shown track on a platform. Platforms the track is
// not available on are ignored.
func (a *App) OpenPlatform(name string) {
	if a.presentation == nil || a.resolver == nil {
		return
	}
	platform, ok := domain.ParsePlatform(name)
	if !ok {
		return
	}
	id, ok := a.presentation.ExternalID(platform)
	if !ok {
		return
	}
	go a.resolver.Open(a.ctx, platform, id)
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.controller == nil {
		if a.bootErr != nil {
			return domain.Status{State: domain.SessionStateIdle, Active: false, Message: a.bootErr.Error()}
		}
		return domain.Status{State: domain.SessionStateIdle, Active: false}
	}
	return a.controller.Status()
}

// GetResult returns the result sheet as the frontend renders it.
func (a *App) GetResult() ResultView {
	if a.presentation == nil {
		return ResultView{}
	}
	return newResultView(a.presentation.State())
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	return map[string]string{
		"recognizer":       a.cfg.Recognition.BaseURL,
		"timeout":          a.cfg.Recognition.Timeout().String(),
		"audioBackend":     a.cfg.Audio.Backend,
		"audioInput":       a.cfg.Audio.InputDevice,
		"audioInputFormat": a.cfg.Audio.InputFormat,
		"logFile":          a.cfg.Paths.LogPath,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// SessionStateChanged emits session lifecycle updates to the frontend.
func (a *App) SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSession, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": sessionReasonMessage(reason),
	})
}

// PresentationChanged emits the result sheet.
func (a *App) PresentationChanged(state domain.PresentationState) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventResult, newResultView(state))
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

// ResultView is the result sheet payload. Missing title or artist shows as
// "Unknown"; Platforms lists where the track can be opened.
type ResultView struct {
	Visible   bool     `json:"visible"`
	Title     string   `json:"title"`
	Artist    string   `json:"artist"`
	Platforms []string `json:"platforms"`
}

func newResultView(state domain.PresentationState) ResultView {
	if !state.Visible || state.Current == nil {
		return ResultView{Platforms: []string{}}
	}
	view := ResultView{
		Visible:   true,
		Title:     displayOrUnknown(state.Current.Title),
		Artist:    displayOrUnknown(state.Current.Artist),
		Platforms: []string{},
	}
	for _, platform := range domain.Platforms {
		if _, ok := state.Current.ExternalID(platform); ok {
			view.Platforms = append(view.Platforms, string(platform))
		}
	}
	return view
}

func displayOrUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return unknownLabel
	}
	return value
}

func sessionReasonMessage(reason domain.SessionStateReason) string {
	switch reason {
	case domain.SessionReasonReady:
		return "Tap to listen"
	case domain.SessionReasonAwaitingPermission:
		return "Waiting for microphone access"
	case domain.SessionReasonPermissionDenied:
		return "Microphone access denied"
	case domain.SessionReasonRecordingStarted:
		return "Listening..."
	case domain.SessionReasonCaptureUnavailable:
		return "Microphone unavailable"
	case domain.SessionReasonWindowElapsed:
		return "Recording stopped"
	case domain.SessionReasonRecognizing:
		return "Recognizing..."
	case domain.SessionReasonAssetUnavailable:
		return "Recording could not be saved"
	case domain.SessionReasonMatchFound:
		return "Match found"
	case domain.SessionReasonNoMatch:
		return "No result found"
	case domain.SessionReasonRecognitionFailed:
		return "Recognition failed"
	case domain.SessionReasonCancelled:
		return "Cancelled"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodePermissionDenied:
		return "Microphone permission is required to listen"
	case domain.ErrorCodeCaptureUnavailable:
		return "Could not start the microphone"
	case domain.ErrorCodeAssetUnavailable:
		return "Recording could not be saved"
	case domain.ErrorCodeTransport:
		return "Could not reach the recognition service"
	case domain.ErrorCodeNoMatch:
		return "No result found, please try again"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}

const (
	grantButton = "Allow"
	denyButton  = "Don't Allow"
)

// dialogPermission asks once per process; a grant is remembered, a denial is
// asked again next time.
type dialogPermission struct {
	app *App

	mu      sync.Mutex
	granted bool
	ask     func(ctx context.Context) (string, error)
}

func (p *dialogPermission) RequestMicrophone(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.granted {
		return true, nil
	}

	ask := p.ask
	if ask == nil {
		ask = p.showDialog
	}
	answer, err := ask(ctx)
	if err != nil {
		return false, err
	}
	p.granted = answer == grantButton || strings.EqualFold(answer, "yes") || strings.EqualFold(answer, "ok")
	return p.granted, nil
}

func (p *dialogPermission) showDialog(_ context.Context) (string, error) {
	if p.app == nil || p.app.ctx == nil {
		return "", fmt.Errorf("application is not initialized")
	}
	return runtime.MessageDialog(p.app.ctx, runtime.MessageDialogOptions{
		Type:          runtime.QuestionDialog,
		Title:         "Microphone access",
		Message:       "Tunespot needs the microphone to listen to the song playing around you.",
		Buttons:       []string{grantButton, denyButton},
		DefaultButton: grantButton,
		CancelButton:  denyButton,
	})
}

// wailsWebOpener routes web fallbacks through the webview's browser handler.
type wailsWebOpener struct {
	app *App
}

func (o *wailsWebOpener) Open(ctx context.Context, uri string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.app == nil || o.app.ctx == nil {
		return fmt.Errorf("application is not initialized")
	}
	runtime.BrowserOpenURL(o.app.ctx, uri)
	return nil
}
