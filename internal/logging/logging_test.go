package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"tunespot/internal/config"
)

func TestConfigureWritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{}
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"
	cfg.Paths.StateDir = filepath.Join(dir, "state")
	cfg.Paths.LogPath = filepath.Join(dir, "state", "logs", "tunespot.log")

	logger, err := Configure(cfg)
	if err != nil {
		t.Fatalf("configure failed: %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("unexpected level: %s", logger.GetLevel())
	}

	logger.WithField("session", "abc").Debug("hello")

	data, err := os.ReadFile(cfg.Paths.LogPath)
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	if !strings.Contains(string(data), `"session":"abc"`) {
		t.Fatalf("expected json log line, got %q", string(data))
	}
}

func TestConfigureIgnoresUnknownLevel(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{}
	cfg.Logging.Level = "loud"
	cfg.Paths.StateDir = dir
	cfg.Paths.LogPath = filepath.Join(dir, "tunespot.log")

	logger, err := Configure(cfg)
	if err != nil {
		t.Fatalf("configure failed: %v", err)
	}
	if logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected default info level, got %s", logger.GetLevel())
	}
}
