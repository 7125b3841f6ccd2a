package camera

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrUnavailable is returned by CaptureStill when no capture binary was found
// at startup. Callers skip capture-dependent steps on it.
var ErrUnavailable = errors.New("capture capability unavailable")

// Newer Pi OS images ship rpicam-still, older ones libcamera-still. Same CLI.
var captureBinaries = []string{"rpicam-still", "libcamera-still"}

const (
	captureWidth     = 1920
	captureHeight    = 1080
	captureTimeoutMS = 1500
)

var lookPath = exec.LookPath

var runCapture = func(bin string, args ...string) ([]byte, error) {
	return exec.Command(bin, args...).CombinedOutput()
}

var now = time.Now

// Service wraps the camera as "take one still image, return a path or an
// error". A service without a capture binary is permanently degraded; it
// never errors the caller beyond ErrUnavailable and has no side effects.
type Service struct {
	bin       string
	outputDir string
	ready     bool
}

// Acquire probes for a capture binary. A missing camera stack is a
// recoverable condition: the returned service reports not-ready and the
// system runs without capture capability.
func Acquire(outputDir string) *Service {
	for _, bin := range captureBinaries {
		path, err := lookPath(bin)
		if err != nil {
			continue
		}
		log.Info().Str("binary", path).Msg("Camera initialized")
		return &Service{bin: bin, outputDir: outputDir, ready: true}
	}
	log.Warn().Strs("tried", captureBinaries).Msg("No capture binary found - running without camera")
	return &Service{outputDir: outputDir}
}

func (s *Service) Ready() bool {
	return s != nil && s.ready
}

// Filename names an artifact from its capture time with second resolution.
func Filename(t time.Time) string {
	return "motion_" + t.Format("20060102_150405") + ".jpg"
}

// CaptureStill writes exactly one new image into the output directory and
// returns its path. Any driver or I/O failure is logged here and returned as
// an error; it never escalates past the caller's cycle.
func (s *Service) CaptureStill() (string, error) {
	if !s.Ready() {
		return "", ErrUnavailable
	}

	path := filepath.Join(s.outputDir, Filename(now()))
	out, err := runCapture(s.bin,
		"--nopreview",
		"--timeout", fmt.Sprint(captureTimeoutMS),
		"--width", fmt.Sprint(captureWidth),
		"--height", fmt.Sprint(captureHeight),
		"--output", path,
	)
	if err != nil {
		log.Error().Err(err).Str("output", string(out)).Msg("Image capture failed")
		return "", fmt.Errorf("capture failed: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Capture reported success but produced no file")
		return "", fmt.Errorf("capture produced no file: %w", err)
	}

	log.Info().Str("path", path).Msg("Image captured")
	return path, nil
}

// Stop releases the capture capability. Best-effort and idempotent.
func (s *Service) Stop() {
	if s == nil || !s.ready {
		return
	}
	s.ready = false
	log.Info().Msg("Camera stopped")
}
