// Package mail provides the SMTP implementation of the OTP mailer
// collaborator. Delivery failures are returned to the caller; nothing is
// queued or retried.
package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/go-faster/errors"
)

// Config holds SMTP connection settings.
type Config struct {
	// Addr is the host:port of the SMTP server.
	Addr string
	// From is the sender address.
	From string
	// Username and Password authenticate against the server. Empty Username
	// disables auth (local relay).
	Username string
	Password string
}

// Sender sends plain-text mail over SMTP.
type Sender struct {
	cfg Config
}

// NewSender creates an SMTP Sender.
func NewSender(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

// Send delivers a single plain-text message. The context is honored only up
// to connection setup; net/smtp has no per-command deadline support.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.cfg.From, to, subject, body)

	var a smtp.Auth
	if s.cfg.Username != "" {
		host, _, _ := splitAddr(s.cfg.Addr)
		a = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, host)
	}

	if err := smtp.SendMail(s.cfg.Addr, a, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return errors.Wrap(err, "smtp send")
	}
	return nil
}

func splitAddr(addr string) (host, port string, ok bool) {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i], addr[i+1:], true
		}
	}
	return addr, "", false
}
