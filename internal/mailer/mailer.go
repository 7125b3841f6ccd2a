package mailer

import (
	"errors"
	"fmt"
	"net/textproto"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"smartalert/internal/config"
)

const (
	smtpHost = "smtp.gmail.com"
	smtpPort = 587
)

// Transport failures are split so an operator can tell a bad app password
// from a network problem. Neither is retried.
var (
	ErrAuth      = errors.New("smtp authentication rejected")
	ErrTransport = errors.New("smtp transport failure")
)

var dialAndSend = func(host string, port int, username, password string, m *gomail.Message) error {
	return gomail.NewDialer(host, port, username, password).DialAndSend(m)
}

var now = time.Now

// Mailer sends one alert message with one image attachment per accepted
// trigger. A disabled mailer suppresses every send without dialing.
type Mailer struct {
	cfg     *config.NotificationConfig
	enabled bool
}

// Configure validates nothing beyond what the config loader already did and
// never makes a network call. A nil config means notifications are disabled.
func Configure(cfg *config.NotificationConfig) *Mailer {
	if cfg == nil {
		log.Warn().Msg("Email alerts disabled")
		return &Mailer{}
	}
	log.Info().
		Str("from", cfg.SenderEmail).
		Str("to", cfg.RecipientEmail).
		Msg("Email alerts enabled")
	return &Mailer{cfg: cfg, enabled: true}
}

func (m *Mailer) Enabled() bool {
	return m != nil && m.enabled
}

// Send composes and submits one message for the given artifact. Disabled
// mailer or missing artifact is a suppressed no-op.
func (m *Mailer) Send(artifactPath string) error {
	if !m.Enabled() {
		log.Debug().Msg("Email not configured, skipping send")
		return nil
	}
	if artifactPath == "" {
		log.Warn().Msg("No artifact path, skipping email")
		return nil
	}
	if _, err := os.Stat(artifactPath); err != nil {
		log.Warn().Str("path", artifactPath).Msg("Image file not found, cannot send email")
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.SenderEmail)
	msg.SetHeader("To", m.cfg.RecipientEmail)
	msg.SetHeader("Subject", m.cfg.Subject)
	msg.SetBody("text/plain", body(now(), artifactPath))
	msg.Attach(artifactPath)

	log.Info().Str("to", m.cfg.RecipientEmail).Msg("Sending email alert")

	if err := dialAndSend(smtpHost, smtpPort, m.cfg.SenderEmail, m.cfg.Password, msg); err != nil {
		if isAuthError(err) {
			log.Error().Err(err).Msg("Email authentication failed - check sender address and app password")
			return fmt.Errorf("%w: %v", ErrAuth, err)
		}
		log.Error().Err(err).Msg("Failed to send email alert")
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	log.Info().Str("to", m.cfg.RecipientEmail).Msg("Email alert sent")
	return nil
}

func body(t time.Time, artifactPath string) string {
	return fmt.Sprintf(`Motion Detected!

Time: %s
Location: Smart Alert System
Image: %s

This is an automated alert from your motion detection system.
`, t.Format("2006-01-02 15:04:05"), filepath.Base(artifactPath))
}

// isAuthError reports whether the SMTP server rejected our credentials, as
// opposed to a network or protocol failure.
func isAuthError(err error) bool {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535:
			return true
		}
	}
	return false
}
