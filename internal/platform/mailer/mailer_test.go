package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razzbabu4/diagnostic-center-server/pkg/logger"
)

func TestNewPicksProvider(t *testing.T) {
	assert.IsType(t, LogMailer{}, New(Config{}))
	assert.IsType(t, &SMTPMailer{}, New(Config{Host: "localhost"}))
	assert.IsType(t, &MailerSend{}, New(Config{APIKey: "mlsn.key", From: "lab@example.com", Host: "localhost"}))
	assert.IsType(t, &SMTPMailer{}, New(Config{APIKey: "mlsn.key", Host: "localhost"}))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func stubAPI(status int, got *map[string]any, auth *string) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		*auth = r.Header.Get("Authorization")
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"X-Message-Id": []string{"msg-1"}},
			Body:       io.NopCloser(strings.NewReader(`{}`)),
			Request:    r,
		}, nil
	})}
}

func TestMailerSendPostsMessage(t *testing.T) {
	var body map[string]any
	var auth string
	m := NewMailerSend("mlsn.key", "Lab", "lab@example.com").withHTTPClient(stubAPI(http.StatusAccepted, &body, &auth))

	err := m.Send(context.Background(), Message{
		To:      "pat@example.com",
		Name:    "Pat",
		Subject: "Report\r\nBcc: eve@example.com",
		Text:    "ready",
		HTML:    "<p>ready</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer mlsn.key", auth)
	assert.Equal(t, "Report Bcc: eve@example.com", body["subject"])
	assert.Equal(t, "ready", body["text"])
	assert.Equal(t, "<p>ready</p>", body["html"])

	from, _ := body["from"].(map[string]any)
	assert.Equal(t, "lab@example.com", from["email"])
	to, _ := body["to"].([]any)
	require.Len(t, to, 1)
	assert.Equal(t, "pat@example.com", to[0].(map[string]any)["email"])
}

func TestMailerSendReportsFailure(t *testing.T) {
	var body map[string]any
	var auth string
	m := NewMailerSend("mlsn.key", "Lab", "lab@example.com").withHTTPClient(stubAPI(http.StatusUnprocessableEntity, &body, &auth))

	err := m.Send(context.Background(), Message{To: "pat@example.com", Subject: "x", Text: "y"})
	assert.Error(t, err)
}

func TestHeaderValuesCannotInjectHeaders(t *testing.T) {
	m := NewSMTPMailer(Config{Host: "localhost", From: "lab@example.com"})
	raw := string(m.compose(Message{To: "pat@example.com", Subject: "CBC\r\nBcc: eve@example.com", Text: "x"}))
	assert.Contains(t, raw, "Subject: CBC Bcc: eve@example.com\r\n")
	assert.NotContains(t, raw, "\r\nBcc:")
}

func TestLogMailerWritesNotification(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.SetDefault(logger.New(&buf, "info"))
	defer logger.SetDefault(prev)

	err := LogMailer{}.Send(context.Background(), Message{To: "pat@example.com", Subject: "Report ready", Text: "see link"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"to":"pat@example.com"`)
	assert.Contains(t, buf.String(), `"subject":"Report ready"`)
}

func TestSendRejectsEmptyRecipient(t *testing.T) {
	err := LogMailer{}.Send(context.Background(), Message{Subject: "x"})
	assert.Error(t, err)

	err = NewSMTPMailer(Config{Host: "localhost"}).Send(context.Background(), Message{To: " ", Subject: "x"})
	assert.Error(t, err)
}

func TestComposeMultipart(t *testing.T) {
	m := NewSMTPMailer(Config{Host: "localhost", From: "lab@example.com"})
	assert.Equal(t, 1025, m.port)

	raw := string(m.compose(Message{To: "pat@example.com", Subject: "Hi", Text: "plain", HTML: "<p>html</p>"}))
	assert.Contains(t, raw, "From: lab@example.com\r\n")
	assert.Contains(t, raw, "Subject: Hi\r\n")
	assert.Contains(t, raw, "text/plain; charset=utf-8\r\n\r\nplain")
	assert.Contains(t, raw, "<p>html</p>")

	raw = string(m.compose(Message{To: "pat@example.com", Subject: "Hi", Text: "plain"}))
	assert.NotContains(t, raw, "text/html")
}
