package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joshua-takyi/festora/internal/clock"
	"github.com/joshua-takyi/festora/internal/units"
	"github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
)

const orderPurpose = "Event creation fee"

// Razorpay creates orders and fetches payments through the Razorpay REST API.
type Razorpay struct {
	client   *razorpay.Client
	currency string
	clock    clock.Clock
}

func NewRazorpay(keyID, keySecret, currency string, clk clock.Clock) *Razorpay {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Razorpay{
		client:   razorpay.NewClient(keyID, keySecret),
		currency: strings.ToUpper(currency),
		clock:    clk,
	}
}

func (r *Razorpay) Name() string { return "razorpay" }

func (r *Razorpay) CreateOrder(ctx context.Context, amount decimal.Decimal) (*Order, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	receipt := fmt.Sprintf("receipt_%d", r.clock.Now().UnixMilli())
	data := map[string]interface{}{
		"amount":   units.MinorUnits(amount),
		"currency": r.currency,
		"receipt":  receipt,
		"notes": map[string]interface{}{
			"purpose": orderPurpose,
		},
	}
	body, err := r.client.Order.Create(data, nil)
	if err != nil {
		return nil, &GatewayError{Provider: r.Name(), Op: "create order", Err: err}
	}

	id := stringField(body, "id")
	if id == "" {
		return nil, &GatewayError{Provider: r.Name(), Op: "create order", Err: errors.New("response has no order id")}
	}
	return &Order{
		ID:       id,
		Amount:   minorToDecimal(body["amount"], amount),
		Currency: stringFieldOr(body, "currency", r.currency),
		Receipt:  stringFieldOr(body, "receipt", receipt),
	}, nil
}

func (r *Razorpay) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, fmt.Errorf("%w: missing payment id", ErrPaymentNotVerified)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := r.client.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, &GatewayError{Provider: r.Name(), Op: "fetch payment", Err: err}
	}
	return &Payment{
		ID:       stringFieldOr(body, "id", paymentID),
		OrderID:  stringField(body, "order_id"),
		Status:   strings.ToLower(stringField(body, "status")),
		Amount:   minorToDecimal(body["amount"], decimal.Zero),
		Currency: stringField(body, "currency"),
	}, nil
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func stringFieldOr(m map[string]interface{}, key, fallback string) string {
	if s := stringField(m, key); s != "" {
		return s
	}
	return fallback
}

// minorToDecimal converts a JSON number in minor units back to a major amount.
func minorToDecimal(v interface{}, fallback decimal.Decimal) decimal.Decimal {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n).Shift(-2)
	case int64:
		return decimal.NewFromInt(n).Shift(-2)
	case int:
		return decimal.NewFromInt(int64(n)).Shift(-2)
	}
	return fallback
}
