// Package mailer delivers notification emails through MailerSend or an SMTP
// relay. Without either it falls back to a dev mailer that writes each
// message to the log.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/razzbabu4/diagnostic-center-server/pkg/logger"
)

type Message struct {
	To      string
	Name    string
	Subject string
	Text    string
	HTML    string
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("mailer: empty recipient")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("mailer: empty subject")
	}
	return nil
}

type Service interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	APIKey   string
	FromName string
	From     string
	Host     string
	Port     int
	User     string
	Pass     string
	UseTLS   bool
}

// New prefers MailerSend when an API key is set, then an SMTP relay, then
// the dev mailer.
func New(cfg Config) Service {
	switch {
	case strings.TrimSpace(cfg.APIKey) != "" && strings.TrimSpace(cfg.From) != "":
		return NewMailerSend(cfg.APIKey, cfg.FromName, cfg.From)
	case strings.TrimSpace(cfg.Host) != "":
		return NewSMTPMailer(cfg)
	default:
		return LogMailer{}
	}
}

// headerSafe drops line breaks so a value cannot start a new header.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", "", "\n", " ").Replace(s)
}

// LogMailer is the dev mailer.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	logger.InfoContext(ctx, "Notification",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Text,
	)
	return nil
}
