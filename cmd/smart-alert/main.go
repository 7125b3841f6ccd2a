package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"smartalert/internal/config"
	"smartalert/internal/detector"
	"smartalert/internal/logging"
	"smartalert/internal/metrics"
	"smartalert/system/shutdown"
	"smartalert/system/startup"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	cfg := config.Load()
	logging.Init(cfg.LogLevel)

	log.Info().
		Int("sensor_pin", cfg.SensorPin).
		Int("led_pin", cfg.LEDPin).
		Int("hold_seconds", cfg.HoldSeconds).
		Int("cooldown_seconds", cfg.CooldownSeconds).
		Msg("Starting smart alert system")

	metrics.Init(cfg.DDAgentAddr, cfg.DDNamespace, cfg.DDTags)

	var guard *shutdown.Guard
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Fatal error")
			code = 1
		}
		if guard != nil {
			guard.Teardown()
		}
	}()

	sys, err := startup.Run(cfg)
	guard = shutdown.NewGuard(sys)
	if err != nil {
		log.Error().Err(err).Msg("Startup failed")
		return 1
	}

	// SIGINT and SIGTERM share the graceful path: teardown, exit 0. The
	// handler exits the process directly so a signal during the hold period
	// is not made to wait out the hold.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		guard.Teardown()
		os.Exit(0)
	}()

	d := detector.New(sys.Pins, sys.Camera, sys.Mailer,
		time.Duration(cfg.HoldSeconds)*time.Second,
		time.Duration(cfg.CooldownSeconds)*time.Second)

	stop := make(chan struct{})
	d.Run(stop)

	return 0
}
