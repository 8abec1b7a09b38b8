package audio

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/wav"

	"tunespot/internal/ports"
)

func TestFFMPEGCaptureFinishWritesWAV(t *testing.T) {
	t.Parallel()

	// Four stereo frames of s16le PCM, then stay alive until interrupted.
	script := writeScript(t, "capture.sh", "#!/usr/bin/env bash\nprintf '\\001\\000\\002\\000\\003\\000\\004\\000\\005\\000\\006\\000\\007\\000\\010\\000'\nexec sleep 5\n")
	capture := NewFFMPEGCapture(script)
	capture.tempDir = t.TempDir()

	session, err := capture.Start(context.Background(), ports.AudioConfig{SampleRate: 44100, Channels: 2})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	asset, err := session.Finish()
	if err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if asset.MimeType != "audio/wav" || !asset.Temporary {
		t.Fatalf("unexpected asset: %+v", asset)
	}
	if filepath.Dir(asset.Location) != capture.tempDir {
		t.Fatalf("expected asset under temp dir, got %q", asset.Location)
	}

	data, err := os.ReadFile(asset.Location)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		t.Fatalf("expected a valid wav file")
	}
	if dec.SampleRate != 44100 || dec.NumChans != 2 || dec.BitDepth != 16 {
		t.Fatalf("unexpected wav format: rate=%d chans=%d depth=%d", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}

	if _, err := session.Finish(); !errors.Is(err, errSessionReleased) {
		t.Fatalf("expected second finish to fail, got %v", err)
	}
}

func TestFFMPEGCaptureFinishWithoutAudio(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "silent.sh", "#!/usr/bin/env bash\nexec sleep 5\n")
	capture := NewFFMPEGCapture(script)

	session, err := capture.Start(context.Background(), ports.AudioConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := session.Finish(); !errors.Is(err, errEmptyRecording) {
		t.Fatalf("expected empty recording error, got %v", err)
	}
}

func TestFFMPEGCaptureRelease(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "capture.sh", "#!/usr/bin/env bash\nprintf 'abcd'\nexec sleep 5\n")
	capture := NewFFMPEGCapture(script)

	session, err := capture.Start(context.Background(), ports.AudioConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	started := time.Now()
	if err := session.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if time.Since(started) > time.Second {
		t.Fatalf("release should interrupt promptly")
	}
	if _, err := session.Finish(); !errors.Is(err, errSessionReleased) {
		t.Fatalf("expected finish after release to fail, got %v", err)
	}
}

func TestFFMPEGCaptureStartEarlyExit(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "fail.sh", "#!/usr/bin/env bash\necho 'boom' 1>&2\nexit 1\n")
	capture := NewFFMPEGCapture(script)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := capture.Start(ctx, ports.AudioConfig{})
	if err == nil {
		t.Fatalf("expected early exit error")
	}
	if !strings.Contains(err.Error(), "exited before capture started") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWithCaptureDefaults(t *testing.T) {
	t.Parallel()

	cfg := withCaptureDefaults(ports.AudioConfig{})
	if cfg.SampleRate != 44100 || cfg.Channels != 2 || cfg.InputFormat != "pulse" || cfg.InputDevice != "default" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestSamplesFromS16LE(t *testing.T) {
	t.Parallel()

	got := samplesFromS16LE([]byte{0x01, 0x00, 0xff, 0xff, 0x7f})
	if len(got) != 2 || got[0] != 1 || got[1] != -1 {
		t.Fatalf("unexpected samples: %v", got)
	}
}

func TestNormalizeStopErrExitErrorIsIgnored(t *testing.T) {
	t.Parallel()

	err := exec.Command("bash", "-lc", "exit 1").Run()
	if err == nil {
		t.Fatalf("expected command to fail")
	}
	if got := normalizeStopErr(err); got != nil {
		t.Fatalf("expected nil for exit error, got %v", got)
	}
}

func TestTrimStderr(t *testing.T) {
	t.Parallel()

	if got := trimStderr(bytes.NewBufferString("  device busy\n")); got != "device busy" {
		t.Fatalf("unexpected trim result: %q", got)
	}
	if got := trimStderr(nil); got != "" {
		t.Fatalf("expected empty result for nil buffer, got %q", got)
	}
}

func TestFFMPEGArgs(t *testing.T) {
	t.Parallel()

	args := strings.Join(ffmpegArgs(ports.AudioConfig{SampleRate: 44100, Channels: 2, InputFormat: "avfoundation", InputDevice: ":0"}), " ")
	if !strings.Contains(args, "-f avfoundation -i :0 -ac 2 -ar 44100 -f s16le -") {
		t.Fatalf("unexpected args: %s", args)
	}
}

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}
