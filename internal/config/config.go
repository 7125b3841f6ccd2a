package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Values still carrying the placeholder prefix from the sample env file are
// treated as not set.
const placeholderPrefix = "your_"

const defaultSubject = "Motion Detected Alert"

type Config struct {
	ConfigFile string
	EnvFile    string
	LogLevel   zerolog.Level

	Chip            string `json:"gpio_chip"`
	SensorPin       int    `json:"sensor_pin"`
	LEDPin          int    `json:"led_pin"`
	HoldSeconds     int    `json:"hold_seconds"`
	CooldownSeconds int    `json:"cooldown_seconds"`
	OutputDir       string `json:"output_dir"`

	DDAgentAddr string   `json:"dd_agent_addr"`
	DDNamespace string   `json:"dd_namespace"`
	DDTags      []string `json:"dd_tags"`
}

// NotificationConfig is loaded from the dotenv file. It is either fully valid
// or notifications are disabled outright; there is no half-configured state.
type NotificationConfig struct {
	SenderEmail    string `validate:"required,email"`
	Password       string `validate:"required"`
	RecipientEmail string `validate:"required,email"`
	Subject        string
}

func Load() *Config {
	cfg := &Config{
		Chip:            "gpiochip0",
		SensorPin:       17,
		LEDPin:          18,
		HoldSeconds:     10,
		CooldownSeconds: 2,
		OutputDir:       "captured_images",
	}
	var logLevel string

	flag.StringVar(&cfg.ConfigFile, "config-file", "config.json", "Path to device config file")
	flag.StringVar(&cfg.EnvFile, "env-file", "config/.env", "Path to email notification env file")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	cfg.LogLevel = parseLogLevel(logLevel)

	file, err := os.Open(cfg.ConfigFile)
	if err == nil {
		defer file.Close()
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			panic("Failed to parse config file: " + err.Error())
		}
	} else if !os.IsNotExist(err) {
		panic("Failed to load config file: " + err.Error())
	}

	cfg.validate()
	return cfg
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) validate() {
	var problems []string

	if cfg.Chip == "" {
		problems = append(problems, "gpio_chip must not be empty")
	}
	if cfg.SensorPin < 0 {
		problems = append(problems, fmt.Sprintf("sensor_pin %d is negative", cfg.SensorPin))
	}
	if cfg.LEDPin < 0 {
		problems = append(problems, fmt.Sprintf("led_pin %d is negative", cfg.LEDPin))
	}
	if cfg.SensorPin == cfg.LEDPin {
		problems = append(problems, fmt.Sprintf("sensor_pin and led_pin both use line %d", cfg.SensorPin))
	}
	if cfg.HoldSeconds < 0 {
		problems = append(problems, "hold_seconds must be non-negative")
	}
	if cfg.CooldownSeconds < 0 {
		problems = append(problems, "cooldown_seconds must be non-negative")
	}
	if cfg.OutputDir == "" {
		problems = append(problems, "output_dir must not be empty")
	}

	if len(problems) > 0 {
		panic("Invalid device config: " + strings.Join(problems, ", "))
	}
}

var validate = validator.New()

// LoadNotificationConfig reads the dotenv file and validates the identity
// fields. Any error means the system runs with notifications disabled; the
// caller decides, this function only reports.
func LoadNotificationConfig(path string) (*NotificationConfig, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	get := func(key string) string {
		v := strings.TrimSpace(values[key])
		if strings.HasPrefix(v, placeholderPrefix) {
			return ""
		}
		return v
	}

	nc := &NotificationConfig{
		SenderEmail:    get("SENDER_EMAIL"),
		Password:       get("EMAIL_PASSWORD"),
		RecipientEmail: get("RECIPIENT_EMAIL"),
		Subject:        get("EMAIL_SUBJECT"),
	}
	if nc.Subject == "" {
		nc.Subject = defaultSubject
	}

	if err := validate.Struct(nc); err != nil {
		return nil, fmt.Errorf("notification config invalid: %w", err)
	}
	return nc, nil
}
