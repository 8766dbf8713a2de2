package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/joshua-takyi/festora/internal/units"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/client"
)

// paymentIntents is the part of the Stripe client the gateway uses.
type paymentIntents interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Stripe uses a PaymentIntent as both the order and the payment: the intent id
// is the order id, and a succeeded intent is a captured payment.
type Stripe struct {
	intents  paymentIntents
	currency string
}

func NewStripe(secretKey, currency string) *Stripe {
	sc := client.New(secretKey, nil)
	return &Stripe{intents: sc.PaymentIntents, currency: strings.ToLower(currency)}
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) CreateOrder(ctx context.Context, amount decimal.Decimal) (*Order, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(units.MinorUnits(amount)),
		Currency: stripe.String(s.currency),
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.New().String())
	params.AddMetadata("purpose", orderPurpose)

	pi, err := s.intents.New(params)
	if err != nil {
		return nil, &GatewayError{Provider: s.Name(), Op: "create order", Err: err}
	}
	currency := string(pi.Currency)
	if currency == "" {
		currency = s.currency
	}
	return &Order{
		ID:           pi.ID,
		Amount:       decimal.NewFromInt(pi.Amount).Shift(-2),
		Currency:     strings.ToUpper(currency),
		ClientSecret: pi.ClientSecret,
	}, nil
}

func (s *Stripe) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, fmt.Errorf("%w: missing payment id", ErrPaymentNotVerified)
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.intents.Get(paymentID, params)
	if err != nil {
		return nil, &GatewayError{Provider: s.Name(), Op: "fetch payment", Err: err}
	}
	return intentToPayment(pi), nil
}

func intentToPayment(pi *stripe.PaymentIntent) *Payment {
	status := string(pi.Status)
	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		status = StatusCaptured
	}
	return &Payment{
		ID:       pi.ID,
		OrderID:  pi.ID,
		Status:   status,
		Amount:   decimal.NewFromInt(pi.Amount).Shift(-2),
		Currency: strings.ToUpper(string(pi.Currency)),
	}
}
