package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

type SMTPMailer struct {
	host   string
	port   int
	from   string
	user   string
	pass   string
	useTLS bool
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	port := cfg.Port
	if port == 0 {
		port = 1025
	}
	return &SMTPMailer{
		host:   strings.TrimSpace(cfg.Host),
		port:   port,
		from:   strings.TrimSpace(cfg.From),
		user:   strings.TrimSpace(cfg.User),
		pass:   strings.TrimSpace(cfg.Pass),
		useTLS: cfg.UseTLS,
	}
}

// compose renders msg as multipart/alternative.
func (s *SMTPMailer) compose(msg Message) []byte {
	const boundary = "mixed-boundary"
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", headerSafe(s.from))
	fmt.Fprintf(&buf, "To: %s\r\n", headerSafe(msg.To))
	fmt.Fprintf(&buf, "Subject: %s\r\n", headerSafe(msg.Subject))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", msg.Text)

	if msg.HTML != "" {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: text/html; charset=utf-8\r\n\r\n")
		fmt.Fprintf(&buf, "%s\r\n\r\n", msg.HTML)
	}

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}

func (s *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	body := s.compose(msg)

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}

	// Mailpit and similar dev relays: no auth, no TLS.
	if !s.useTLS {
		return smtp.SendMail(addr, auth, s.from, []string{msg.To}, body)
	}
	return s.sendImplicitTLS(ctx, addr, auth, msg.To, body)
}

func (s *SMTPMailer) sendImplicitTLS(ctx context.Context, addr string, auth smtp.Auth, to string, body []byte) error {
	dialer := &tls.Dialer{Config: &tls.Config{ServerName: s.host}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer c.Quit()

	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(s.from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	return w.Close()
}
