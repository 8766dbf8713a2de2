package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// StatusCaptured is the normalized status of a payment whose funds were taken.
const StatusCaptured = "captured"

var (
	ErrPaymentNotVerified = errors.New("payment not verified")
	ErrGateway            = errors.New("payment gateway error")
	ErrInvalidAmount      = errors.New("amount must be greater than 0")
)

// Order is a gateway order the client completes with the gateway widget.
type Order struct {
	ID           string          `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Receipt      string          `json:"receipt,omitempty"`
	ClientSecret string          `json:"clientSecret,omitempty"`
}

// Payment is the gateway's record of a client-side capture.
type Payment struct {
	ID       string          `json:"id"`
	OrderID  string          `json:"orderId"`
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Gateway is the fiat payment provider.
type Gateway interface {
	Name() string
	CreateOrder(ctx context.Context, amount decimal.Decimal) (*Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
}

// GatewayError wraps a provider failure. It matches ErrGateway.
type GatewayError struct {
	Provider string
	Op       string
	Err      error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *GatewayError) Is(target error) bool {
	return target == ErrGateway
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Verify checks that p was captured against orderID.
func Verify(p *Payment, orderID string) error {
	if p == nil {
		return fmt.Errorf("%w: payment not found", ErrPaymentNotVerified)
	}
	if p.Status != StatusCaptured {
		return fmt.Errorf("%w: payment %s has status %q", ErrPaymentNotVerified, p.ID, p.Status)
	}
	if orderID == "" || p.OrderID != orderID {
		return fmt.Errorf("%w: payment %s belongs to order %q", ErrPaymentNotVerified, p.ID, p.OrderID)
	}
	return nil
}
