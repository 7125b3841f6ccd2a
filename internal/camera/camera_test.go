package camera

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func stubLookPath(t *testing.T, fn func(string) (string, error)) {
	t.Helper()
	orig := lookPath
	lookPath = fn
	t.Cleanup(func() { lookPath = orig })
}

func stubRunCapture(t *testing.T, fn func(string, ...string) ([]byte, error)) {
	t.Helper()
	orig := runCapture
	runCapture = fn
	t.Cleanup(func() { runCapture = orig })
}

func stubNow(t *testing.T, at time.Time) {
	t.Helper()
	orig := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = orig })
}

func TestFilename(t *testing.T) {
	at := time.Date(2025, 6, 1, 14, 30, 17, 999_000_000, time.UTC)
	assert.Equal(t, "motion_20250601_143017.jpg", Filename(at))

	// Second resolution: sub-second components never change the name.
	assert.Equal(t, Filename(at), Filename(at.Add(500*time.Millisecond)))
}

func TestAcquire_NoBinaryDegrades(t *testing.T) {
	stubLookPath(t, func(string) (string, error) { return "", errors.New("not found") })

	s := Acquire(t.TempDir())
	assert.False(t, s.Ready())

	path, err := s.CaptureStill()
	assert.Empty(t, path)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAcquire_PrefersFirstAvailableBinary(t *testing.T) {
	stubLookPath(t, func(bin string) (string, error) {
		if bin == "libcamera-still" {
			return "/usr/bin/libcamera-still", nil
		}
		return "", errors.New("not found")
	})

	s := Acquire(t.TempDir())
	assert.True(t, s.Ready())
	assert.Equal(t, "libcamera-still", s.bin)
}

func TestCaptureStill_WritesOneFile(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2025, 6, 1, 14, 30, 17, 0, time.UTC)
	stubNow(t, at)
	stubLookPath(t, func(string) (string, error) { return "/usr/bin/rpicam-still", nil })

	var gotBin string
	var gotArgs []string
	stubRunCapture(t, func(bin string, args ...string) ([]byte, error) {
		gotBin = bin
		gotArgs = args
		// The real binary writes the file named by --output.
		return nil, os.WriteFile(args[len(args)-1], []byte("jpegdata"), 0o644)
	})

	s := Acquire(dir)
	path, err := s.CaptureStill()
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "motion_20250601_143017.jpg"), path)
	assert.Equal(t, "rpicam-still", gotBin)
	assert.Contains(t, gotArgs, "--nopreview")

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCaptureStill_ExecFailure(t *testing.T) {
	stubLookPath(t, func(string) (string, error) { return "/usr/bin/rpicam-still", nil })
	stubRunCapture(t, func(string, ...string) ([]byte, error) {
		return []byte("no cameras available"), errors.New("exit status 1")
	})

	s := Acquire(t.TempDir())
	path, err := s.CaptureStill()
	assert.Empty(t, path)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestCaptureStill_NoFileProduced(t *testing.T) {
	stubLookPath(t, func(string) (string, error) { return "/usr/bin/rpicam-still", nil })
	stubRunCapture(t, func(string, ...string) ([]byte, error) { return nil, nil })

	s := Acquire(t.TempDir())
	path, err := s.CaptureStill()
	assert.Empty(t, path)
	assert.Error(t, err)
}

func TestStop_Idempotent(t *testing.T) {
	stubLookPath(t, func(string) (string, error) { return "/usr/bin/rpicam-still", nil })

	s := Acquire(t.TempDir())
	assert.True(t, s.Ready())

	s.Stop()
	assert.False(t, s.Ready())
	s.Stop() // second stop is a no-op

	_, err := s.CaptureStill()
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestStop_NilSafe(t *testing.T) {
	var s *Service
	assert.False(t, s.Ready())
	s.Stop() // must not panic
}
