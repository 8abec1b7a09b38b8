package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultRecognitionBaseURL = "https://pathfinder-um68.onrender.com"
	defaultRecognitionTimeout = 30 * time.Second
	defaultConfigDir          = ".config/tunespot"
	defaultStateDirLinux      = ".local/state/tunespot"
)

// Config stores runtime configuration.
type Config struct {
	Recognition RecognitionConfig `toml:"recognition"`
	Audio       AudioConfig       `toml:"audio"`
	Logging     LoggingConfig     `toml:"logging"`
	Paths       PathsConfig       `toml:"paths"`
}

type RecognitionConfig struct {
	BaseURL   string `toml:"base_url"`
	TimeoutMS int    `toml:"timeout_ms"`
}

// Timeout returns the request timeout as a duration.
func (c RecognitionConfig) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return defaultRecognitionTimeout
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

type AudioConfig struct {
	Backend         string `toml:"backend"` // ffmpeg, portaudio
	RecorderCommand string `toml:"recorder_command"`
	InputFormat     string `toml:"input_format"`
	InputDevice     string `toml:"input_device"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text, json
	Stdout bool   `toml:"stdout"`
}

type PathsConfig struct {
	StateDir   string `toml:"state_dir"`
	LogPath    string `toml:"log_path"`
	ConfigPath string `toml:"-"`
}

// Default returns Config populated with defaults for the current OS.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	stateDir := filepath.Join(home, defaultStateDirLinux)
	if runtime.GOOS == "darwin" {
		stateDir = filepath.Join(home, "Library", "Application Support", "tunespot")
	}

	inputFormat, inputDevice := platformInput(runtime.GOOS)
	return Config{
		Recognition: RecognitionConfig{
			BaseURL:   DefaultRecognitionBaseURL,
			TimeoutMS: int(defaultRecognitionTimeout / time.Millisecond),
		},
		Audio: AudioConfig{
			Backend:         "ffmpeg",
			RecorderCommand: "ffmpeg",
			InputFormat:     inputFormat,
			InputDevice:     inputDevice,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Paths: PathsConfig{
			StateDir: stateDir,
			LogPath:  filepath.Join(stateDir, "tunespot.log"),
		},
	}, nil
}

// Load resolves configuration from defaults, an optional TOML file and
// environment variables, in that order. An empty path means
// ~/.config/tunespot/config.toml, which may be absent.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}

	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, defaultConfigDir, "config.toml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %q: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}
	cfg.Paths.ConfigPath = path

	applyEnvOverrides(&cfg)
	normalize(&cfg)
	return cfg, nil
}

// Save writes cfg to path as TOML.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

// MustStatePaths ensures state dirs exist.
func MustStatePaths(cfg Config) error {
	for _, p := range []string{cfg.Paths.StateDir, filepath.Dir(cfg.Paths.LogPath)} {
		if p == "" || p == "." {
			continue
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func platformInput(goos string) (format string, device string) {
	switch goos {
	case "darwin":
		return "avfoundation", ":0"
	case "windows":
		return "dshow", "audio=default"
	default:
		return "pulse", "default"
	}
}

func applyEnvOverrides(cfg *Config) {
	cfg.Recognition.BaseURL = envOrDefault("TUNESPOT_RECOGNIZE_BASE_URL", cfg.Recognition.BaseURL)
	cfg.Recognition.TimeoutMS = envOrDefaultInt("TUNESPOT_RECOGNIZE_TIMEOUT_MS", cfg.Recognition.TimeoutMS)
	cfg.Audio.Backend = envOrDefault("TUNESPOT_AUDIO_BACKEND", cfg.Audio.Backend)
	cfg.Audio.RecorderCommand = envOrDefault("TUNESPOT_FFMPEG_COMMAND", cfg.Audio.RecorderCommand)
	cfg.Audio.InputFormat = envOrDefault("TUNESPOT_AUDIO_INPUT_FORMAT", cfg.Audio.InputFormat)
	cfg.Audio.InputDevice = envOrDefault("TUNESPOT_AUDIO_INPUT_DEVICE", cfg.Audio.InputDevice)
	cfg.Logging.Level = envOrDefault("TUNESPOT_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = envOrDefault("TUNESPOT_LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Stdout = envOrDefaultBool("TUNESPOT_LOG_STDOUT", cfg.Logging.Stdout)
}

func normalize(cfg *Config) {
	cfg.Recognition.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Recognition.BaseURL), "/")
	if cfg.Recognition.BaseURL == "" {
		cfg.Recognition.BaseURL = DefaultRecognitionBaseURL
	}
	if cfg.Recognition.TimeoutMS <= 0 {
		cfg.Recognition.TimeoutMS = int(defaultRecognitionTimeout / time.Millisecond)
	}
	cfg.Audio.Backend = strings.ToLower(strings.TrimSpace(cfg.Audio.Backend))
	if cfg.Audio.Backend == "" {
		cfg.Audio.Backend = "ffmpeg"
	}
	if cfg.Audio.RecorderCommand == "" {
		cfg.Audio.RecorderCommand = "ffmpeg"
	}
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
