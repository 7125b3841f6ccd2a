package startup

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"smartalert/internal/camera"
	"smartalert/internal/config"
	"smartalert/internal/gpio"
	"smartalert/internal/mailer"
)

// System holds every peripheral acquired at startup. It is constructed once
// here, handed to the detection loop, and torn down through system/shutdown.
type System struct {
	Pins   *gpio.Handle
	Camera *camera.Service
	Mailer *mailer.Mailer
}

var mkdirAll = os.MkdirAll

// Run acquires peripherals in startup order. The pin handle and the output
// directory are mandatory and abort startup; camera and email degrade to
// disabled. On error the returned System still carries whatever was acquired
// so the caller can release it.
func Run(cfg *config.Config) (*System, error) {
	pins, err := gpio.Acquire(cfg.Chip, cfg.SensorPin, cfg.LEDPin)
	if err != nil {
		return nil, fmt.Errorf("acquiring GPIO lines: %w", err)
	}
	sys := &System{Pins: pins}

	sys.Camera = camera.Acquire(cfg.OutputDir)

	notifCfg, err := config.LoadNotificationConfig(cfg.EnvFile)
	if err != nil {
		log.Warn().Err(err).Str("env_file", cfg.EnvFile).Msg("Email alerts disabled")
		notifCfg = nil
	}
	sys.Mailer = mailer.Configure(notifCfg)

	if err := ensureOutputDir(cfg.OutputDir); err != nil {
		return sys, fmt.Errorf("preparing output directory %s: %w", cfg.OutputDir, err)
	}

	log.Info().
		Str("output_dir", cfg.OutputDir).
		Bool("camera", sys.Camera.Ready()).
		Bool("email", sys.Mailer.Enabled()).
		Msg("System ready")

	return sys, nil
}

// ensureOutputDir creates the artifact directory and proves it is writable
// before the loop starts.
func ensureOutputDir(dir string) error {
	if err := mkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe, err := os.CreateTemp(dir, ".writecheck")
	if err != nil {
		return err
	}
	probe.Close()
	return os.Remove(probe.Name())
}
