package services

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joshua-takyi/festora/internal/ledger"
	"github.com/joshua-takyi/festora/internal/models"
	"github.com/joshua-takyi/festora/internal/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockGateway struct{ mock.Mock }

func (m *mockGateway) Name() string { return "mock" }

func (m *mockGateway) CreateOrder(ctx context.Context, amount decimal.Decimal) (*payment.Order, error) {
	args := m.Called(ctx, amount)
	order, _ := args.Get(0).(*payment.Order)
	return order, args.Error(1)
}

func (m *mockGateway) FetchPayment(ctx context.Context, paymentID string) (*payment.Payment, error) {
	args := m.Called(ctx, paymentID)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

type mockRepo struct{ mock.Mock }

func (m *mockRepo) InsertEvent(ctx context.Context, doc *models.EventDocument) (*models.EventDocument, bool, error) {
	args := m.Called(ctx, doc)
	saved, _ := args.Get(0).(*models.EventDocument)
	return saved, args.Bool(1), args.Error(2)
}

func (m *mockRepo) ListEventsByOwner(ctx context.Context, owner string) ([]*models.EventDocument, error) {
	args := m.Called(ctx, owner)
	docs, _ := args.Get(0).([]*models.EventDocument)
	return docs, args.Error(1)
}

func (m *mockRepo) DeleteEvent(ctx context.Context, id primitive.ObjectID, owner string) (bool, error) {
	args := m.Called(ctx, id, owner)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, topic string, message interface{}) error {
	return m.Called(ctx, topic, message).Error(0)
}

func (m *mockPublisher) Close() error { return nil }

type mockReader struct{ mock.Mock }

func (m *mockReader) ListEvents(ctx context.Context) ([]models.Event, error) {
	args := m.Called(ctx)
	events, _ := args.Get(0).([]models.Event)
	return events, args.Error(1)
}

func (m *mockReader) ListEventsByOwner(ctx context.Context, account string) ([]models.Event, error) {
	args := m.Called(ctx, account)
	events, _ := args.Get(0).([]models.Event)
	return events, args.Error(1)
}

func (m *mockReader) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*models.Event)
	return e, args.Error(1)
}

func (m *mockReader) ListTickets(ctx context.Context, eventID int64) ([]models.Ticket, error) {
	args := m.Called(ctx, eventID)
	tickets, _ := args.Get(0).([]models.Ticket)
	return tickets, args.Error(1)
}

type mockWriter struct{ mock.Mock }

func (m *mockWriter) result(args mock.Arguments) (*ledger.Confirmation, error) {
	conf, _ := args.Get(0).(*ledger.Confirmation)
	return conf, args.Error(1)
}

func (m *mockWriter) CreateEvent(ctx context.Context, signer ledger.Signer, p models.EventParams) (*ledger.Confirmation, error) {
	return m.result(m.Called(ctx, signer, p))
}

func (m *mockWriter) UpdateEvent(ctx context.Context, signer ledger.Signer, p models.EventParams) (*ledger.Confirmation, error) {
	return m.result(m.Called(ctx, signer, p))
}

func (m *mockWriter) DeleteEvent(ctx context.Context, signer ledger.Signer, id int64) (*ledger.Confirmation, error) {
	return m.result(m.Called(ctx, signer, id))
}

func (m *mockWriter) Payout(ctx context.Context, signer ledger.Signer, id int64) (*ledger.Confirmation, error) {
	return m.result(m.Called(ctx, signer, id))
}

func (m *mockWriter) BuyTickets(ctx context.Context, signer ledger.Signer, id, quantity int64, ticketCost decimal.Decimal) (*ledger.Confirmation, error) {
	return m.result(m.Called(ctx, signer, id, quantity, ticketCost))
}

type stubSigner struct{ addr common.Address }

func (s stubSigner) Address() common.Address { return s.addr }

func (s stubSigner) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	return &bind.TransactOpts{From: s.addr, Value: new(big.Int)}, nil
}

// signerMap connects the accounts it holds.
type signerMap map[string]ledger.Signer

func (s signerMap) Signer(address string) ledger.Signer {
	if signer, ok := s[models.NormalizeAddress(address)]; ok {
		return signer
	}
	return nil
}
