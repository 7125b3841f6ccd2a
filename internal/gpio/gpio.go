package gpio

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/warthog618/go-gpiocdev"
	"golang.org/x/sys/unix"
)

// State tracks a handle through its lifetime. A handle that reaches Failed
// stays unavailable for the rest of the process; there is no re-acquire.
type State int

const (
	Uninitialized State = iota
	Ready
	Failed
	Released
)

const (
	consumer       = "smart-alert"
	acquireRetries = 5
	acquireBackoff = time.Second
)

// line is the slice of *gpiocdev.Line the handle needs. Kept narrow so tests
// can substitute fakes through requestLine.
type line interface {
	SetValue(value int) error
	Value() (int, error)
	Close() error
}

var requestLine = func(chip string, offset int, opts ...gpiocdev.LineReqOption) (line, error) {
	return gpiocdev.RequestLine(chip, offset, opts...)
}

var retrySleep = time.Sleep

// Handle owns the claimed sensor and LED lines. Methods on a handle that is
// not Ready are safe no-ops: writes do nothing, reads return false.
type Handle struct {
	state  State
	sensor line
	led    line
}

// Acquire claims the sensor and LED lines, retrying on busy lines after a
// best-effort reclaim of claims left by a previous instance. The sensor line
// is mandatory; a failed acquisition means the system must not start.
func Acquire(chip string, sensorPin, ledPin int) (*Handle, error) {
	Reclaim()

	sensor, err := requestWithRetry(chip, sensorPin,
		gpiocdev.AsInput, gpiocdev.WithPullDown, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("claiming sensor line %d: %w", sensorPin, err)
	}

	led, err := requestWithRetry(chip, ledPin,
		gpiocdev.AsOutput(0), gpiocdev.WithConsumer(consumer))
	if err != nil {
		if cerr := sensor.Close(); cerr != nil {
			log.Warn().Err(cerr).Int("line", sensorPin).Msg("Could not release sensor line after failed LED claim")
		}
		return nil, fmt.Errorf("claiming LED line %d: %w", ledPin, err)
	}

	// A previous run may have died mid-hold; the LED must be off before
	// anything else touches the lines.
	if err := led.SetValue(0); err != nil {
		log.Warn().Err(err).Int("line", ledPin).Msg("Could not drive LED inactive after claim")
	}

	log.Info().
		Str("chip", chip).
		Int("sensor_pin", sensorPin).
		Int("led_pin", ledPin).
		Msg("GPIO initialized")

	return &Handle{state: Ready, sensor: sensor, led: led}, nil
}

// AcquireSensor claims only the sensor line. Used by the diagnostic binaries.
func AcquireSensor(chip string, sensorPin int) (*Handle, error) {
	Reclaim()

	sensor, err := requestWithRetry(chip, sensorPin,
		gpiocdev.AsInput, gpiocdev.WithPullDown, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("claiming sensor line %d: %w", sensorPin, err)
	}
	return &Handle{state: Ready, sensor: sensor}, nil
}

// AcquireLED claims only the LED line, driven inactive. Used by the
// diagnostic binaries.
func AcquireLED(chip string, ledPin int) (*Handle, error) {
	Reclaim()

	led, err := requestWithRetry(chip, ledPin,
		gpiocdev.AsOutput(0), gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("claiming LED line %d: %w", ledPin, err)
	}
	return &Handle{state: Ready, led: led}, nil
}

func requestWithRetry(chip string, offset int, opts ...gpiocdev.LineReqOption) (line, error) {
	var lastErr error
	for attempt := 1; attempt <= acquireRetries; attempt++ {
		l, err := requestLine(chip, offset, opts...)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, unix.EBUSY) {
			return nil, err
		}
		lastErr = err
		log.Warn().
			Err(err).
			Int("line", offset).
			Int("attempt", attempt).
			Int("max_attempts", acquireRetries).
			Msg("GPIO line busy, retrying")
		if attempt < acquireRetries {
			retrySleep(acquireBackoff)
		}
	}
	return nil, fmt.Errorf("line %d still busy after %d attempts: %w", offset, acquireRetries, lastErr)
}

func (h *Handle) State() State {
	if h == nil {
		return Uninitialized
	}
	return h.state
}

func (h *Handle) Ready() bool {
	return h != nil && h.state == Ready
}

func (h *Handle) SetLED(on bool) {
	if !h.Ready() || h.led == nil {
		return
	}
	value := 0
	if on {
		value = 1
	}
	if err := h.led.SetValue(value); err != nil {
		log.Error().Err(err).Bool("on", on).Msg("Failed to drive LED line")
	}
}

func (h *Handle) ReadSensor() bool {
	if !h.Ready() || h.sensor == nil {
		return false
	}
	value, err := h.sensor.Value()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read sensor line")
		return false
	}
	return value == 1
}

// Release drives the LED inactive and frees both lines. Idempotent.
func (h *Handle) Release() {
	if !h.Ready() {
		return
	}
	h.state = Released

	if h.led != nil {
		if err := h.led.SetValue(0); err != nil {
			log.Warn().Err(err).Msg("Could not drive LED inactive during release")
		}
		if err := h.led.Close(); err != nil {
			log.Warn().Err(err).Msg("Could not release LED line")
		}
	}
	if h.sensor != nil {
		if err := h.sensor.Close(); err != nil {
			log.Warn().Err(err).Msg("Could not release sensor line")
		}
	}
	log.Info().Msg("GPIO released")
}
