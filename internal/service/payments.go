package service

import (
	"context"

	"github.com/razzbabu4/diagnostic-center-server/internal/platform/payments"
	"github.com/razzbabu4/diagnostic-center-server/pkg/events"
	"github.com/razzbabu4/diagnostic-center-server/pkg/logger"
)

type PaymentService interface {
	CreateIntent(ctx context.Context, email string, price float64) (*payments.Intent, error)
}

type paymentService struct {
	gateway  payments.Gateway
	eventBus events.Publisher
}

func NewPaymentService(gateway payments.Gateway, eventBus events.Publisher) PaymentService {
	if gateway == nil {
		gateway = payments.Disabled{}
	}
	if eventBus == nil {
		eventBus = events.NopBus{}
	}
	return &paymentService{gateway: gateway, eventBus: eventBus}
}

func (s *paymentService) CreateIntent(ctx context.Context, email string, price float64) (*payments.Intent, error) {
	if _, err := payments.MinorUnits(price); err != nil {
		return nil, err
	}
	intent, err := s.gateway.CreateIntent(ctx, payments.IntentRequest{Price: price, ReceiptEmail: email})
	if err != nil {
		return nil, err
	}

	event := events.PaymentIntentCreatedEvent{
		IntentID: intent.ID,
		Email:    email,
		Amount:   intent.Amount,
		Currency: intent.Currency,
	}
	if err := s.eventBus.Publish(ctx, events.PaymentIntentCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish payment intent event", "error", err, "intent_id", intent.ID)
	}
	return intent, nil
}
