package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joshua-takyi/festora/internal/broker"
	"github.com/joshua-takyi/festora/internal/clock"
	"github.com/joshua-takyi/festora/internal/ledger"
	"github.com/joshua-takyi/festora/internal/models"
	"github.com/shopspring/decimal"
)

type LedgerReader interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListEventsByOwner(ctx context.Context, account string) ([]models.Event, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	ListTickets(ctx context.Context, eventID int64) ([]models.Ticket, error)
}

type LedgerWriter interface {
	CreateEvent(ctx context.Context, signer ledger.Signer, p models.EventParams) (*ledger.Confirmation, error)
	UpdateEvent(ctx context.Context, signer ledger.Signer, p models.EventParams) (*ledger.Confirmation, error)
	DeleteEvent(ctx context.Context, signer ledger.Signer, id int64) (*ledger.Confirmation, error)
	Payout(ctx context.Context, signer ledger.Signer, id int64) (*ledger.Confirmation, error)
	BuyTickets(ctx context.Context, signer ledger.Signer, id, quantity int64, ticketCost decimal.Decimal) (*ledger.Confirmation, error)
}

// SignerSource resolves the connected wallet for an account, or nil.
type SignerSource interface {
	Signer(address string) ledger.Signer
}

type EventService struct {
	reader    LedgerReader
	writer    LedgerWriter
	signers   SignerSource
	publisher broker.Publisher
	clock     clock.Clock
	logger    *slog.Logger
}

func NewEventService(reader LedgerReader, writer LedgerWriter, signers SignerSource, publisher broker.Publisher, clk clock.Clock, logger *slog.Logger) *EventService {
	if publisher == nil {
		publisher = broker.NopPublisher{}
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		reader:    reader,
		writer:    writer,
		signers:   signers,
		publisher: publisher,
		clock:     clk,
		logger:    logger,
	}
}

// ListEvents returns every live event, with display state for viewer.
func (es *EventService) ListEvents(ctx context.Context, viewer string) ([]models.EventView, error) {
	events, err := es.reader.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	return models.NewEventViews(events, viewer, es.clock.Now()), nil
}

func (es *EventService) ListMyEvents(ctx context.Context, account string) ([]models.EventView, error) {
	events, err := es.reader.ListEventsByOwner(ctx, account)
	if err != nil {
		return nil, err
	}
	return models.NewEventViews(events, account, es.clock.Now()), nil
}

func (es *EventService) GetEvent(ctx context.Context, id int64, viewer string) (*models.EventView, error) {
	e, err := es.reader.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w: %d", ErrEventNotFound, id)
	}
	view := models.NewEventView(*e, viewer, es.clock.Now())
	return &view, nil
}

// ListTickets returns the tickets of an event, narrowed to owner when set.
func (es *EventService) ListTickets(ctx context.Context, eventID int64, owner string) ([]models.Ticket, error) {
	if eventID <= 0 {
		return nil, fmt.Errorf("%w: event id %d", ErrInvalidInput, eventID)
	}
	tickets, err := es.reader.ListTickets(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if owner == "" {
		return tickets, nil
	}
	mine := make([]models.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if models.SameAddress(t.Owner, owner) {
			mine = append(mine, t)
		}
	}
	return mine, nil
}

func (es *EventService) CreateEvent(ctx context.Context, account string, p models.EventParams) (*ledger.Confirmation, error) {
	if err := validateEventParams(p); err != nil {
		return nil, err
	}
	conf, err := es.writer.CreateEvent(ctx, es.signers.Signer(account), p)
	if err != nil {
		return nil, err
	}
	es.announce(ctx, account, 0, conf)
	return conf, nil
}

func (es *EventService) UpdateEvent(ctx context.Context, account string, p models.EventParams) (*ledger.Confirmation, error) {
	if p.ID <= 0 {
		return nil, fmt.Errorf("%w: event id %d", ErrInvalidInput, p.ID)
	}
	if err := validateEventParams(p); err != nil {
		return nil, err
	}
	conf, err := es.writer.UpdateEvent(ctx, es.signers.Signer(account), p)
	if err != nil {
		return nil, err
	}
	es.announce(ctx, account, p.ID, conf)
	return conf, nil
}

func (es *EventService) DeleteEvent(ctx context.Context, account string, id int64) (*ledger.Confirmation, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: event id %d", ErrInvalidInput, id)
	}
	conf, err := es.writer.DeleteEvent(ctx, es.signers.Signer(account), id)
	if err != nil {
		return nil, err
	}
	es.announce(ctx, account, id, conf)
	return conf, nil
}

func (es *EventService) Payout(ctx context.Context, account string, id int64) (*ledger.Confirmation, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: event id %d", ErrInvalidInput, id)
	}
	conf, err := es.writer.Payout(ctx, es.signers.Signer(account), id)
	if err != nil {
		return nil, err
	}
	es.announce(ctx, account, id, conf)
	return conf, nil
}

// BuyTickets prices the purchase at the event's current ticket cost.
func (es *EventService) BuyTickets(ctx context.Context, account string, id, quantity int64) (*ledger.Confirmation, error) {
	if id <= 0 || quantity <= 0 {
		return nil, fmt.Errorf("%w: event id %d, quantity %d", ErrInvalidInput, id, quantity)
	}
	signer := es.signers.Signer(account)
	if signer == nil {
		return nil, ledger.ErrNotConnected
	}

	e, err := es.reader.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil || e.Deleted {
		return nil, fmt.Errorf("%w: %d", ErrEventNotFound, id)
	}
	if quantity > e.RemainingSeats() {
		return nil, fmt.Errorf("%w: %d seats requested, %d remaining", ErrInvalidInput, quantity, e.RemainingSeats())
	}

	conf, err := es.writer.BuyTickets(ctx, signer, id, quantity, e.TicketCost)
	if err != nil {
		return nil, err
	}
	es.announce(ctx, account, id, conf)
	return conf, nil
}

func (es *EventService) announce(ctx context.Context, account string, eventID int64, conf *ledger.Confirmation) {
	if conf == nil {
		return
	}
	es.logger.Info("Ledger transaction confirmed",
		"method", conf.Method,
		"tx_hash", conf.TxHash,
		"block", conf.BlockNumber,
		"event_id", eventID,
	)
	msg := broker.TxConfirmedMessage{
		MessageID:   broker.NewMessageID(),
		Method:      conf.Method,
		EventID:     eventID,
		From:        models.NormalizeAddress(account),
		TxHash:      conf.TxHash,
		BlockNumber: conf.BlockNumber,
		OccurredAt:  es.clock.Now(),
	}
	if err := es.publisher.Publish(ctx, broker.TopicTxConfirmed, msg); err != nil {
		es.logger.Warn("Failed to publish transaction notice", "tx_hash", conf.TxHash, "error", err)
	}
}

func validateEventParams(p models.EventParams) error {
	if err := models.Validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if p.TicketCost.IsNegative() {
		return fmt.Errorf("%w: ticket cost must not be negative", ErrInvalidInput)
	}
	if p.EndsAt < p.StartsAt {
		return fmt.Errorf("%w: event must not end before it starts", ErrInvalidInput)
	}
	return nil
}
