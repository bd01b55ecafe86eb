package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/sahana/eden/internal/config"
	"github.com/sahana/eden/internal/monitors"
)

var ErrNotConfigured = errors.New("mail server not configured")

// defaultSendTimeout bounds a delivery whose context carries no deadline.
const defaultSendTimeout = 60 * time.Second

type sendFunc func(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTP delivers monitor email through the configured relay.
type SMTP struct {
	cfg    config.Mail
	send   sendFunc
	dialer net.Dialer
	now    func() time.Time
}

func NewSMTP(cfg config.Mail) *SMTP {
	m := &SMTP{cfg: cfg, now: time.Now}
	m.send = m.deliver
	return m
}

func (m *SMTP) Send(ctx context.Context, email monitors.Email) error {
	if m.cfg.Host == "" || m.cfg.Port == 0 || m.cfg.Sender == "" {
		return ErrNotConfigured
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	if err := m.send(ctx, addr, auth, m.cfg.Sender, []string{email.To}, m.message(email)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", email.To, err)
	}

	return nil
}

// deliver runs one SMTP conversation. Every read and write on the
// connection is bound by the context deadline.
func (m *SMTP) deliver(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultSendTimeout)
		defer cancel()
	}
	deadline, _ := ctx.Deadline()

	conn, err := m.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return err
	}

	// unblock pending I/O as soon as the caller gives up
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	host, _, _ := net.SplitHostPort(addr)

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}

	if auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(auth); err != nil {
				return err
			}
		}
	}

	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return c.Quit()
}

func (m *SMTP) message(email monitors.Email) []byte {
	var b strings.Builder

	header := func(key, value string) {
		// header values must not carry line breaks
		value = strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
		fmt.Fprintf(&b, "%s: %s\r\n", key, value)
	}

	header("From", m.cfg.Sender)
	header("To", email.To)
	if email.ReplyTo != "" {
		header("Reply-To", email.ReplyTo)
	}
	header("Subject", email.Subject)
	header("Date", m.now().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(email.Body, "\n", "\r\n"))

	return []byte(b.String())
}
