package detector

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"smartalert/internal/metrics"
)

const (
	pollInterval = 100 * time.Millisecond
	cyclePause   = time.Second
)

type State string

const (
	StateIdle       State = "idle"
	StateTriggered  State = "triggered"
	StateResponding State = "responding"
)

type Pins interface {
	ReadSensor() bool
	SetLED(on bool)
}

type Capturer interface {
	Ready() bool
	CaptureStill() (string, error)
}

type Notifier interface {
	Enabled() bool
	Send(artifactPath string) error
}

// Detector runs the detection-and-response loop: poll the sensor, accept a
// trigger when the cooldown has elapsed, then LED on, capture, notify, hold,
// LED off, in that order. Single goroutine; the hold blocks the loop and no
// new samples are taken during it.
type Detector struct {
	pins     Pins
	camera   Capturer
	notifier Notifier

	hold     time.Duration
	cooldown time.Duration

	state        State
	lastAccepted time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

func New(pins Pins, camera Capturer, notifier Notifier, hold, cooldown time.Duration) *Detector {
	return &Detector{
		pins:     pins,
		camera:   camera,
		notifier: notifier,
		hold:     hold,
		cooldown: cooldown,
		state:    StateIdle,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Run polls until stop is closed. A failed cycle pauses the loop briefly and
// never terminates it; termination belongs to the process lifecycle.
func (d *Detector) Run(stop <-chan struct{}) {
	log.Info().
		Dur("hold", d.hold).
		Dur("cooldown", d.cooldown).
		Bool("camera", d.camera.Ready()).
		Bool("email", d.notifier.Enabled()).
		Msg("Monitoring for motion")

	for {
		select {
		case <-stop:
			log.Info().Msg("Detection loop stopped")
			return
		default:
		}

		if err := d.cycle(); err != nil {
			log.Error().Err(err).Msg("Error in detection cycle")
			metrics.Incr("cycle.errors")
			d.sleep(cyclePause)
			continue
		}
		d.sleep(pollInterval)
	}
}

// cycle runs one poll step: at most one full detection response. Panics from
// collaborators are converted to an error at this boundary so a single bad
// cycle cannot take the process down.
func (d *Detector) cycle() (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.pins.SetLED(false)
			d.state = StateIdle
			err = fmt.Errorf("panic in detection cycle: %v", r)
		}
	}()

	active := d.pins.ReadSensor()
	metrics.Gauge("sensor.active", boolToFloat(active))
	if !active {
		return nil
	}

	triggered := d.now()
	if !d.lastAccepted.IsZero() && triggered.Sub(d.lastAccepted) <= d.cooldown {
		log.Debug().
			Time("last_accepted", d.lastAccepted).
			Dur("cooldown", d.cooldown).
			Msg("Motion within cooldown window, ignoring")
		metrics.Incr("detections.ignored_cooldown")
		return nil
	}

	d.state = StateTriggered
	log.Info().Time("at", triggered).Msg("Motion detected")
	metrics.Incr("detections.accepted")

	d.respond(triggered)
	return nil
}

// respond runs the ordered response sequence for one accepted trigger. The
// ordering is fixed: LED on, capture, notify, hold, LED off, record time.
func (d *Detector) respond(triggered time.Time) {
	d.state = StateResponding
	d.pins.SetLED(true)

	path, err := d.camera.CaptureStill()
	if err != nil {
		log.Warn().Err(err).Msg("No image for this detection")
		metrics.Incr("capture.failed")
	} else {
		metrics.Incr("capture.ok")
		if d.notifier.Enabled() {
			if serr := d.notifier.Send(path); serr != nil {
				metrics.Incr("email.failed")
			} else {
				metrics.Incr("email.sent")
			}
		}
	}

	log.Info().Dur("hold", d.hold).Msg("Holding LED active")
	d.sleep(d.hold)
	d.pins.SetLED(false)

	d.lastAccepted = triggered
	d.state = StateIdle
	log.Info().Msg("Ready for next detection")
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
