// Package notify delivers approval-request notifications to authorizers
// over SMTP.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Config wires the mail relay and the sender identity.
type Config struct {
	// Addr is the relay host:port.
	Addr string
	// From is the envelope and header sender.
	From string
	// Username and Password enable PLAIN auth when set.
	Username string
	Password string
}

// SMTPNotifier sends one message per recipient. Delivery is best effort;
// callers decide whether a failure matters.
type SMTPNotifier struct {
	cfg Config
	// send is swappable for tests.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(cfg Config) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
}

// Send composes and delivers a plain-text message.
func (n *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		host := n.cfg.Addr
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, host)
	}

	msg := buildMessage(n.cfg.From, to, subject, body)
	if err := n.send(n.cfg.Addr, auth, n.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("notify: send to %s: %w", to, err)
	}
	return nil
}

// buildMessage renders an RFC 5322 message with CRLF line endings.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
