package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/razzbabu4/diagnostic-center-server/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

// Decode unmarshals the message payload into v.
func (m *Message) Decode(v interface{}) error {
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", m.Subject, err)
	}
	return nil
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url, name string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject)

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{Subject: msg.Subject, Data: msg.Data, Timestamp: time.Now()})
	})
	return err
}

func (n *NATSEventBus) Ping(ctx context.Context) error {
	if !n.conn.IsConnected() {
		return fmt.Errorf("nats: %s", n.conn.Status())
	}
	return nil
}

func (n *NATSEventBus) Close() error {
	return n.conn.Drain()
}

// NopBus drops every event. It stands in when no broker is reachable so
// request handling never depends on event delivery.
type NopBus struct{}

func (NopBus) Publish(ctx context.Context, subject string, data interface{}) error {
	logger.DebugContext(ctx, "Event dropped, no broker", "subject", subject)
	return nil
}

func (NopBus) QueueSubscribe(string, string, func(*Message)) error { return nil }
func (NopBus) Close() error                                        { return nil }

const (
	ReservationCreated  = "reservation.created"
	ReservationUpdated  = "reservation.updated"
	ReservationCanceled = "reservation.canceled"

	BannerActivated = "banner.activated"

	UserPromoted = "user.promoted"
	UserBlocked  = "user.blocked"

	PaymentIntentCreated = "payment.intent.created"
)

type ReservationCreatedEvent struct {
	ReservationID string    `json:"reservation_id"`
	TestID        string    `json:"test_id"`
	TestName      string    `json:"test_name"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Date          string    `json:"date"`
	Price         float64   `json:"price"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReservationUpdatedEvent carries Report only when the update set it.
type ReservationUpdatedEvent struct {
	ReservationID string    `json:"reservation_id"`
	Email         string    `json:"email"`
	Status        string    `json:"status"`
	Report        string    `json:"report,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ReservationCanceledEvent struct {
	ReservationID string    `json:"reservation_id"`
	TestID        string    `json:"test_id"`
	Email         string    `json:"email"`
	CanceledBy    string    `json:"canceled_by"`
	CanceledAt    time.Time `json:"canceled_at"`
}

type BannerActivatedEvent struct {
	BannerID    string    `json:"banner_id"`
	ActivatedAt time.Time `json:"activated_at"`
}

type UserRoleChangedEvent struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
}

type PaymentIntentCreatedEvent struct {
	IntentID string `json:"intent_id"`
	Email    string `json:"email"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}
