// Package notify turns reservation events into user notifications.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/razzbabu4/diagnostic-center-server/internal/platform/mailer"
	"github.com/razzbabu4/diagnostic-center-server/pkg/events"
	"github.com/razzbabu4/diagnostic-center-server/pkg/logger"
)

// QueueGroup spreads deliveries across notify replicas so each event is
// handled once.
const QueueGroup = "notify"

var Subjects = []string{
	events.ReservationCreated,
	events.ReservationUpdated,
	events.ReservationCanceled,
}

type Notifier struct {
	mailer mailer.Service
}

func New(m mailer.Service) *Notifier {
	if m == nil {
		m = mailer.LogMailer{}
	}
	return &Notifier{mailer: m}
}

// Subscribe registers the notifier on every reservation subject.
func (n *Notifier) Subscribe(sub events.Subscriber) error {
	for _, subject := range Subjects {
		if err := sub.QueueSubscribe(subject, QueueGroup, n.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}
	return nil
}

// Handle renders and sends one event. Failures are logged; the broker does
// not redeliver.
func (n *Notifier) Handle(msg *events.Message) {
	ctx := context.Background()
	out, ok, err := Render(msg)
	if err != nil {
		logger.Warn("Dropping malformed event", "subject", msg.Subject, "error", err)
		return
	}
	if !ok {
		logger.Debug("No notification for event", "subject", msg.Subject)
		return
	}
	if err := n.mailer.Send(ctx, out); err != nil {
		logger.Error("Failed to send notification", "subject", msg.Subject, "to", out.To, "error", err)
	}
}

// Render builds the message for an event. ok is false when the event needs
// no notification.
func Render(msg *events.Message) (out mailer.Message, ok bool, err error) {
	switch msg.Subject {
	case events.ReservationCreated:
		var e events.ReservationCreatedEvent
		if err := msg.Decode(&e); err != nil {
			return out, false, err
		}
		return reservationCreated(e), true, nil
	case events.ReservationUpdated:
		var e events.ReservationUpdatedEvent
		if err := msg.Decode(&e); err != nil {
			return out, false, err
		}
		return reservationUpdated(e)
	case events.ReservationCanceled:
		var e events.ReservationCanceledEvent
		if err := msg.Decode(&e); err != nil {
			return out, false, err
		}
		return reservationCanceled(e), true, nil
	}
	return out, false, nil
}

func reservationCreated(e events.ReservationCreatedEvent) mailer.Message {
	name := e.Name
	if name == "" {
		name = e.Email
	}
	when := ""
	if e.Date != "" {
		when = " on " + e.Date
	}
	return mailer.Message{
		To:      e.Email,
		Name:    name,
		Subject: fmt.Sprintf("Reservation confirmed: %s", e.TestName),
		Text: fmt.Sprintf("Hi %s, your reservation for %s%s is confirmed. Amount: %.2f. Reference: %s.",
			name, e.TestName, when, e.Price, e.ReservationID),
	}
}

func reservationUpdated(e events.ReservationUpdatedEvent) (mailer.Message, bool, error) {
	if strings.TrimSpace(e.Report) != "" {
		body := fmt.Sprintf(`<p>The report for reservation %s is ready.</p><p><a href="%s">View report</a></p>`,
			html.EscapeString(e.ReservationID), html.EscapeString(e.Report))
		return mailer.Message{
			To:      e.Email,
			Subject: "Your test report is ready",
			Text:    fmt.Sprintf("The report for reservation %s is ready: %s", e.ReservationID, e.Report),
			HTML:    body,
		}, true, nil
	}
	if e.Status == "" {
		return mailer.Message{}, false, nil
	}
	return mailer.Message{
		To:      e.Email,
		Subject: "Reservation status updated",
		Text:    fmt.Sprintf("Reservation %s is now %s.", e.ReservationID, e.Status),
	}, true, nil
}

func reservationCanceled(e events.ReservationCanceledEvent) mailer.Message {
	text := fmt.Sprintf("Reservation %s has been canceled.", e.ReservationID)
	if e.CanceledBy != "" && !strings.EqualFold(e.CanceledBy, e.Email) {
		text = fmt.Sprintf("Reservation %s has been canceled by the lab.", e.ReservationID)
	}
	return mailer.Message{
		To:      e.Email,
		Subject: "Reservation canceled",
		Text:    text,
	}
}
