package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"smartalert/internal/gpio"
	"smartalert/internal/logging"
)

// Smoke test for the PIR sensor: print the sensor state five times a second
// until interrupted. Shares the line-acquisition contract with the main
// binary but runs no detection logic.
func main() {
	var chip string
	var pin int
	flag.StringVar(&chip, "chip", "gpiochip0", "GPIO chip device name")
	flag.IntVar(&pin, "pin", 17, "PIR sensor GPIO line number")
	flag.Parse()

	logging.Init(zerolog.InfoLevel)

	handle, err := gpio.AcquireSensor(chip, pin)
	if err != nil {
		log.Error().Err(err).Int("pin", pin).Msg("Failed to acquire sensor line")
		os.Exit(1)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		handle.Release()
		log.Info().Msg("Sensor test finished")
		os.Exit(0)
	}()

	log.Info().Int("pin", pin).Msg("Starting PIR sensor test, press CTRL+C to exit")
	for {
		if handle.ReadSensor() {
			log.Info().Msg("Motion detected!")
		} else {
			log.Info().Msg("No motion detected")
		}
		time.Sleep(200 * time.Millisecond)
	}
}
