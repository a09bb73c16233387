package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
)

// ErrUnavailable is returned when no gateway key is configured or the
// breaker in front of the gateway is open.
var ErrUnavailable = errors.New("payment gateway unavailable")

// MaxPrice is the largest amount the gateway accepts in one charge.
const MaxPrice = 999_999.99

type IntentRequest struct {
	Price        float64
	ReceiptEmail string
}

type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
}

type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
}

// MinorUnits converts a price in major currency units to the gateway's
// integer minor units.
func MinorUnits(price float64) (int64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, fmt.Errorf("%w: price must be positive", domain.ErrValidation)
	}
	if price > MaxPrice {
		return 0, fmt.Errorf("%w: price must not exceed %.2f", domain.ErrValidation, MaxPrice)
	}
	return int64(math.Round(price * 100)), nil
}

type createFunc func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)

type stripeGateway struct {
	create   createFunc
	currency string
	cb       *gobreaker.CircuitBreaker
}

// NewStripeGateway returns a gateway backed by the Stripe API. An empty key
// yields a gateway that always reports ErrUnavailable.
func NewStripeGateway(key, currency string) Gateway {
	if strings.TrimSpace(key) == "" {
		return Disabled{}
	}
	api := &client.API{}
	api.Init(key, nil)
	return newStripeGateway(api.PaymentIntents.New, currency)
}

func newStripeGateway(create createFunc, currency string) *stripeGateway {
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &stripeGateway{
		create:   create,
		currency: strings.ToLower(currency),
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "stripe",
			MaxRequests: 100,
			Interval:    5 * time.Second,
			Timeout:     3 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			IsSuccessful: func(err error) bool {
				return err == nil || isClientError(err)
			},
		}),
	}
}

func (g *stripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	amount, err := MinorUnits(req.Price)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(g.currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	params.Context = ctx

	out, err := g.cb.Execute(func() (interface{}, error) {
		return g.create(params)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	pi := out.(*stripe.PaymentIntent)
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Amount: amount, Currency: g.currency}, nil
}

// isClientError reports request errors the gateway rejected on their merits;
// they say nothing about gateway health.
func isClientError(err error) bool {
	var se *stripe.Error
	if errors.As(err, &se) {
		return se.HTTPStatusCode >= 400 && se.HTTPStatusCode < 500 && se.HTTPStatusCode != 429
	}
	return false
}

type Disabled struct{}

func (Disabled) CreateIntent(context.Context, IntentRequest) (*Intent, error) {
	return nil, ErrUnavailable
}
