package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ EventBus = (*NATSEventBus)(nil)
	_ EventBus = NopBus{}
)

func TestNopBusAcceptsEverything(t *testing.T) {
	var bus EventBus = NopBus{}
	require.NoError(t, bus.Publish(context.Background(), ReservationCreated, map[string]string{"id": "1"}))
	require.NoError(t, bus.QueueSubscribe(ReservationCreated, "notify", func(*Message) {}))
	require.NoError(t, bus.Close())
}

func TestMessageDecode(t *testing.T) {
	msg := &Message{Subject: ReservationCanceled, Data: []byte(`{"reservationId":"r1"}`)}
	var v struct {
		ReservationID string `json:"reservationId"`
	}
	require.NoError(t, msg.Decode(&v))
	assert.Equal(t, "r1", v.ReservationID)

	bad := &Message{Subject: ReservationCanceled, Data: []byte(`{`)}
	err := bad.Decode(&v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ReservationCanceled)
}
