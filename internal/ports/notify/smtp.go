package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// SMTPConfig holds the relay address and login.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPNotifier sends through an SMTP relay with STARTTLS and PLAIN auth.
type SMTPNotifier struct {
	cfg      SMTPConfig
	env      Envelope
	now      func() time.Time
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(cfg SMTPConfig, env Envelope) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, env: env, now: time.Now, sendMail: smtp.SendMail}
}

// Send upgrades to TLS when the relay offers STARTTLS, which smtp.SendMail
// does before authenticating.
func (n *SMTPNotifier) Send(ctx context.Context, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := Compose(n.env, htmlBody, n.now())
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))

	if err := n.sendMail(addr, auth, n.env.From, []string{n.env.Recipient()}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", addr, err)
	}
	return nil
}
