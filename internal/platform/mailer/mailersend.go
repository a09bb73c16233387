package mailer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

const sendTimeout = 10 * time.Second

// MailerSend delivers through the MailerSend HTTP API.
type MailerSend struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSend {
	return &MailerSend{
		client: mailersend.NewMailersend(apiKey),
		from:   mailersend.From{Name: fromName, Email: fromEmail},
	}
}

// withHTTPClient swaps the transport, used to point the client at a stub.
func (m *MailerSend) withHTTPClient(c *http.Client) *MailerSend {
	m.client.SetClient(c)
	return m
}

func (m *MailerSend) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	em := m.client.Email.NewMessage()
	em.SetFrom(m.from)
	em.SetRecipients([]mailersend.Recipient{{Name: msg.Name, Email: msg.To}})
	em.SetSubject(headerSafe(msg.Subject))
	if strings.TrimSpace(msg.Text) != "" {
		em.SetText(msg.Text)
	}
	if strings.TrimSpace(msg.HTML) != "" {
		em.SetHTML(msg.HTML)
	}

	res, err := m.client.Email.Send(ctx, em)
	if err != nil {
		return fmt.Errorf("mailersend: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("mailersend: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
