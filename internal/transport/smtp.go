package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"github.com/jordan-wright/email"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

type SMTPConfig struct {
	Host               string
	Port               int
	User               string
	Pass               string
	Connections        int
	InsecureSkipVerify bool
	// Timeout is used when the context carries no deadline.
	Timeout time.Duration
}

// SMTP delivers through a pool of connections to a single relay.
type SMTP struct {
	pool    *email.Pool
	timeout time.Duration
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	var auth smtp.Auth
	if cfg.User != "" || cfg.Pass != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		ServerName:         cfg.Host,
	}
	if cfg.Connections < 1 {
		cfg.Connections = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	pool, err := email.NewPool(addr, cfg.Connections, auth, tlsConfig)
	if err != nil {
		return nil, fmt.Errorf("could not create smtp pool for %s: %w", addr, err)
	}
	return &SMTP{pool: pool, timeout: cfg.Timeout}, nil
}

func (s *SMTP) Name() string { return "smtp" }

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	err := s.pool.Send(toEmail(msg), timeout)
	if err != nil {
		return fmt.Errorf("smtp could not send email %s: %w", msg.ID, err)
	}
	return nil
}

func (s *SMTP) Close() error {
	s.pool.Close()
	return nil
}

func toEmail(msg Message) *email.Email {
	e := email.NewEmail()
	e.From = msg.From
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.HTML = []byte(msg.HTML)
	e.Headers.Set("X-Brevq-Id", msg.ID)
	return e
}
