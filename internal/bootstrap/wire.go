package bootstrap

import (
	"github.com/sirupsen/logrus"

	"tunespot/internal/audio"
	"tunespot/internal/config"
	"tunespot/internal/deeplink"
	"tunespot/internal/logging"
	"tunespot/internal/ports"
	"tunespot/internal/presentation"
	"tunespot/internal/recognition"
	"tunespot/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller   *usecase.SessionController
	Presentation *presentation.Model
	Resolver     *deeplink.Resolver
	Recognizer   *recognition.Client
	Config       config.Config
	Logger       *logrus.Logger
}

// Build wires all backend dependencies for the current runtime. web may be nil,
// in which case web fallbacks go through the system opener too. An empty
// cfgPath loads the default config file.
func Build(events ports.EventSink, permission ports.PermissionGate, web ports.URLOpener, cfgPath string) (Services, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return Services{}, err
	}

	logger, err := logging.Configure(cfg)
	if err != nil {
		return Services{}, err
	}

	capture, err := audio.NewCapture(cfg.Audio.Backend, cfg.Audio.RecorderCommand)
	if err != nil {
		return Services{}, err
	}

	recognizer := recognition.NewClient(recognition.Config{
		BaseURL: cfg.Recognition.BaseURL,
		Timeout: cfg.Recognition.Timeout(),
	}, logger.WithField("component", "recognition"))

	model := presentation.NewModel(events)

	controller := usecase.NewSessionController(
		capture,
		permission,
		recognizer,
		model,
		events,
		usecase.Config{
			Audio: ports.AudioConfig{
				Container:   "wav",
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			Logger: logger.WithField("component", "session"),
		},
	)

	resolver := deeplink.NewResolver(deeplink.NewSystemOpener(), web, logger.WithField("component", "deeplink"))

	logger.WithFields(logrus.Fields{
		"backend":  cfg.Audio.Backend,
		"endpoint": cfg.Recognition.BaseURL,
		"config":   cfg.Paths.ConfigPath,
	}).Info("services ready")

	return Services{
		Controller:   controller,
		Presentation: model,
		Resolver:     resolver,
		Recognizer:   recognizer,
		Config:       cfg,
		Logger:       logger,
	}, nil
}
