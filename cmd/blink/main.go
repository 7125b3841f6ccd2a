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

// Smoke test for the indicator LED: blink on a 2 second cycle until
// interrupted. Shares the line-acquisition contract with the main binary but
// runs no detection logic.
func main() {
	var chip string
	var pin int
	flag.StringVar(&chip, "chip", "gpiochip0", "GPIO chip device name")
	flag.IntVar(&pin, "pin", 18, "LED GPIO line number")
	flag.Parse()

	logging.Init(zerolog.InfoLevel)

	handle, err := gpio.AcquireLED(chip, pin)
	if err != nil {
		log.Error().Err(err).Int("pin", pin).Msg("Failed to acquire LED line")
		os.Exit(1)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		handle.SetLED(false)
		handle.Release()
		log.Info().Msg("LED test finished")
		os.Exit(0)
	}()

	log.Info().Int("pin", pin).Msg("LED will blink every 2 seconds, press CTRL+C to exit")
	for {
		handle.SetLED(true)
		log.Info().Msg("LED ON")
		time.Sleep(2 * time.Second)

		handle.SetLED(false)
		log.Info().Msg("LED OFF")
		time.Sleep(2 * time.Second)
	}
}
