package transport

import (
	"fmt"
	"github.com/modfin/brevq/internal/config"
	"github.com/sirupsen/logrus"
)

// FromConfig builds the configured transport, bounded by cfg.SendTimeout.
func FromConfig(cfg *config.Config, log *logrus.Logger) (Transport, error) {
	var t Transport
	switch cfg.Transport {
	case "", "noop":
		t = NewNoop(log)
	case "smtp":
		s, err := NewSMTP(SMTPConfig{
			Host:               cfg.SMTPHost,
			Port:               cfg.SMTPPort,
			User:               cfg.SMTPUser,
			Pass:               cfg.SMTPPass,
			Connections:        cfg.SMTPConnections,
			InsecureSkipVerify: cfg.SMTPInsecureSkipVerify,
			Timeout:            cfg.SendTimeout,
		})
		if err != nil {
			return nil, err
		}
		t = s
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("resend transport requires BREVQ_RESEND_API_KEY")
		}
		t = NewResend(cfg.ResendAPIKey)
	default:
		return nil, fmt.Errorf("unknown transport %q, expected noop, smtp or resend", cfg.Transport)
	}
	return WithTimeout(t, cfg.SendTimeout), nil
}
