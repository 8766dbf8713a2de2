package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joshua-takyi/festora/internal/broker"
	"github.com/joshua-takyi/festora/internal/clock"
	"github.com/joshua-takyi/festora/internal/models"
	"github.com/joshua-takyi/festora/internal/payment"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckoutState tracks how far a paid event creation has progressed.
type CheckoutState int

const (
	CheckoutIdle CheckoutState = iota
	CheckoutOrderCreated
	CheckoutPaymentCaptured
	CheckoutPersisted
)

// MarshalText renders the state by name in JSON bodies and log attributes.
func (s CheckoutState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s CheckoutState) String() string {
	switch s {
	case CheckoutOrderCreated:
		return "order_created"
	case CheckoutPaymentCaptured:
		return "payment_captured"
	case CheckoutPersisted:
		return "persisted"
	}
	return "idle"
}

// ConfirmInput is what the client posts back after the gateway widget
// captured the payment. Owner comes from the caller's wallet session.
type ConfirmInput struct {
	OrderID   string
	PaymentID string
	Owner     string
	EventData map[string]interface{}
}

type ConfirmResult struct {
	ID      string        `json:"eventId"`
	Created bool          `json:"created"`
	State   CheckoutState `json:"state"`
}

type CheckoutService struct {
	gateway   payment.Gateway
	repo      models.EventDocsRepo
	publisher broker.Publisher
	clock     clock.Clock
	logger    *slog.Logger
}

func NewCheckoutService(gateway payment.Gateway, repo models.EventDocsRepo, publisher broker.Publisher, clk clock.Clock, logger *slog.Logger) *CheckoutService {
	if publisher == nil {
		publisher = broker.NopPublisher{}
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutService{
		gateway:   gateway,
		repo:      repo,
		publisher: publisher,
		clock:     clk,
		logger:    logger,
	}
}

// CreateOrder opens a gateway order for the event creation fee.
func (cs *CheckoutService) CreateOrder(ctx context.Context, amount decimal.Decimal) (*payment.Order, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, payment.ErrInvalidAmount)
	}
	order, err := cs.gateway.CreateOrder(ctx, amount)
	if err != nil {
		return nil, err
	}
	cs.logger.Info("Payment order created",
		"state", CheckoutOrderCreated,
		"provider", cs.gateway.Name(),
		"order_id", order.ID,
		"amount", order.Amount.String(),
		"currency", order.Currency,
	)
	return order, nil
}

// ConfirmAndPersist stores the event only after the gateway reports the
// payment captured against the same order. Replaying the same order and
// payment returns the stored document with Created=false.
func (cs *CheckoutService) ConfirmAndPersist(ctx context.Context, in ConfirmInput) (*ConfirmResult, error) {
	orderID := strings.TrimSpace(in.OrderID)
	paymentID := strings.TrimSpace(in.PaymentID)
	state := CheckoutOrderCreated
	fail := func(err error) (*ConfirmResult, error) {
		cs.logger.Warn("Checkout stopped",
			"state", state,
			"provider", cs.gateway.Name(),
			"order_id", orderID,
			"payment_id", paymentID,
			"error", err,
		)
		return nil, err
	}

	if orderID == "" || paymentID == "" {
		return fail(fmt.Errorf("%w: orderId and paymentId are required", ErrInvalidInput))
	}

	doc := models.NewEventDocument(in.EventData)
	doc.Owner = models.NormalizeAddress(in.Owner)
	doc.OrderID = orderID
	doc.PaymentID = paymentID
	doc.CreatedAt = cs.clock.Now()
	if err := models.Validate.Struct(doc); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}

	p, err := cs.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		return fail(err)
	}
	if err := payment.Verify(p, orderID); err != nil {
		return fail(err)
	}
	state = CheckoutPaymentCaptured

	saved, created, err := cs.repo.InsertEvent(ctx, &doc)
	if err != nil {
		return fail(err)
	}
	state = CheckoutPersisted
	res := &ConfirmResult{ID: saved.ID.Hex(), Created: created, State: state}
	if !created {
		cs.logger.Info("Duplicate checkout confirmation", "state", state, "event_id", res.ID, "order_id", orderID)
		return res, nil
	}

	cs.logger.Info("Event persisted", "state", state, "event_id", res.ID, "owner", saved.Owner, "order_id", orderID)
	msg := broker.EventPersistedMessage{
		MessageID: broker.NewMessageID(),
		EventID:   res.ID,
		Owner:     saved.Owner,
		Title:     saved.Title,
		OrderID:   orderID,
		PaymentID: paymentID,
		CreatedAt: saved.CreatedAt,
	}
	if err := cs.publisher.Publish(ctx, broker.TopicEventPersisted, msg); err != nil {
		cs.logger.Warn("Failed to publish event notice", "event_id", res.ID, "error", err)
	}
	return res, nil
}

// ListEvents returns the persisted events of owner, newest first.
func (cs *CheckoutService) ListEvents(ctx context.Context, owner string) ([]*models.EventDocument, error) {
	return cs.repo.ListEventsByOwner(ctx, models.NormalizeAddress(owner))
}

func (cs *CheckoutService) DeleteEvent(ctx context.Context, id, owner string) error {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%w: event id %q", ErrInvalidInput, id)
	}
	deleted, err := cs.repo.DeleteEvent(ctx, oid, owner)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return nil
}
