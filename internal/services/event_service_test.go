package services

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joshua-takyi/festora/internal/broker"
	"github.com/joshua-takyi/festora/internal/clock"
	"github.com/joshua-takyi/festora/internal/ledger"
	"github.com/joshua-takyi/festora/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const otherAddr = "0x000000000000000000000000000000000000B0b2"

func newEventService() (*EventService, *mockReader, *mockWriter, *mockPublisher, ledger.Signer) {
	reader := &mockReader{}
	writer := &mockWriter{}
	pub := &mockPublisher{}
	signer := stubSigner{addr: common.HexToAddress(ownerAddr)}
	signers := signerMap{models.NormalizeAddress(ownerAddr): signer}
	es := NewEventService(reader, writer, signers, pub, clock.NewFixed(fixedNow), nil)
	return es, reader, writer, pub, signer
}

func validParams() models.EventParams {
	return models.EventParams{
		Title:       "Harbour Lights",
		Description: "Lantern walk",
		ImageURL:    "https://example.com/lights.png",
		Capacity:    20,
		TicketCost:  decimal.RequireFromString("0.01"),
		StartsAt:    fixedNow.Add(24 * 3600e9).UnixMilli(),
		EndsAt:      fixedNow.Add(26 * 3600e9).UnixMilli(),
	}
}

func TestListEventsBuildsViews(t *testing.T) {
	es, reader, _, _, _ := newEventService()
	ctx := context.Background()
	ended := fixedNow.Add(-3600e9).UnixMilli()

	reader.On("ListEvents", ctx).Return([]models.Event{
		{ID: 1, Owner: models.NormalizeAddress(ownerAddr), Capacity: 2, Seats: 2, EndsAt: ended},
		{ID: 2, Owner: models.NormalizeAddress(otherAddr), Capacity: 5, Seats: 1, EndsAt: fixedNow.Add(3600e9).UnixMilli()},
	}, nil)

	views, err := es.ListEvents(ctx, ownerAddr)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.True(t, views[0].SoldOut)
	assert.True(t, views[0].IsOwner)
	assert.True(t, views[0].CanPayout)
	assert.False(t, views[1].IsOwner)
	assert.Equal(t, int64(4), views[1].RemainingSeats)
	assert.False(t, views[1].Ended)
}

func TestGetEventNotFound(t *testing.T) {
	es, reader, _, _, _ := newEventService()
	ctx := context.Background()
	reader.On("GetEvent", ctx, int64(9)).Return(nil, nil)

	_, err := es.GetEvent(ctx, 9, "")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestListTicketsForOwner(t *testing.T) {
	es, reader, _, _, _ := newEventService()
	ctx := context.Background()
	reader.On("ListTickets", ctx, int64(3)).Return([]models.Ticket{
		{ID: 1, EventID: 3, Owner: models.NormalizeAddress(ownerAddr)},
		{ID: 2, EventID: 3, Owner: models.NormalizeAddress(otherAddr)},
		{ID: 3, EventID: 3, Owner: models.NormalizeAddress(ownerAddr)},
	}, nil)

	all, err := es.ListTickets(ctx, 3, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := es.ListTickets(ctx, 3, ownerAddr)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, int64(3), mine[1].ID)
}

func TestCreateEventPublishesConfirmation(t *testing.T) {
	es, _, writer, pub, signer := newEventService()
	ctx := context.Background()
	p := validParams()

	conf := &ledger.Confirmation{Method: "createEvent", TxHash: "0xfeed", BlockNumber: 10, Status: 1}
	writer.On("CreateEvent", ctx, signer, p).Return(conf, nil)
	pub.On("Publish", ctx, broker.TopicTxConfirmed, mock.MatchedBy(func(m broker.TxConfirmedMessage) bool {
		return m.TxHash == "0xfeed" && m.Method == "createEvent" && m.From == models.NormalizeAddress(ownerAddr)
	})).Return(nil)

	got, err := es.CreateEvent(ctx, ownerAddr, p)
	require.NoError(t, err)
	assert.Equal(t, conf, got)
	writer.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreateEventValidation(t *testing.T) {
	es, _, writer, _, _ := newEventService()
	ctx := context.Background()

	bad := []func(*models.EventParams){
		func(p *models.EventParams) { p.Title = "" },
		func(p *models.EventParams) { p.Capacity = 0 },
		func(p *models.EventParams) { p.ImageURL = "not a url" },
		func(p *models.EventParams) { p.TicketCost = decimal.NewFromInt(-1) },
		func(p *models.EventParams) { p.EndsAt = p.StartsAt - 1 },
	}
	for i, mutate := range bad {
		p := validParams()
		mutate(&p)
		_, err := es.CreateEvent(ctx, ownerAddr, p)
		assert.ErrorIs(t, err, ErrInvalidInput, "case %d", i)
	}
	writer.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateEventAllowsZeroLengthWindow(t *testing.T) {
	es, _, writer, pub, signer := newEventService()
	ctx := context.Background()

	p := validParams()
	p.EndsAt = p.StartsAt
	writer.On("CreateEvent", ctx, signer, p).Return(&ledger.Confirmation{Method: "createEvent", TxHash: "0x02"}, nil)
	pub.On("Publish", ctx, broker.TopicTxConfirmed, mock.Anything).Return(nil)

	_, err := es.CreateEvent(ctx, ownerAddr, p)
	require.NoError(t, err)
	writer.AssertExpectations(t)
}

func TestWritesWithoutConnectedWallet(t *testing.T) {
	es, _, writer, pub, _ := newEventService()
	ctx := context.Background()

	writer.On("Payout", ctx, nil, int64(4)).Return(nil, ledger.ErrNotConnected)
	_, err := es.Payout(ctx, otherAddr, 4)
	assert.ErrorIs(t, err, ledger.ErrNotConnected)

	_, err = es.BuyTickets(ctx, otherAddr, 4, 1)
	assert.ErrorIs(t, err, ledger.ErrNotConnected)

	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestBuyTicketsUsesCurrentCost(t *testing.T) {
	es, reader, writer, pub, signer := newEventService()
	ctx := context.Background()
	cost := decimal.RequireFromString("0.01")

	reader.On("GetEvent", ctx, int64(7)).Return(&models.Event{ID: 7, Capacity: 10, Seats: 8, TicketCost: cost}, nil)
	writer.On("BuyTickets", ctx, signer, int64(7), int64(2), cost).
		Return(&ledger.Confirmation{Method: "buyTickets", TxHash: "0xb0"}, nil)
	pub.On("Publish", ctx, broker.TopicTxConfirmed, mock.Anything).Return(nil)

	_, err := es.BuyTickets(ctx, ownerAddr, 7, 2)
	require.NoError(t, err)

	_, err = es.BuyTickets(ctx, ownerAddr, 7, 3)
	assert.ErrorIs(t, err, ErrInvalidInput)

	reader.On("GetEvent", ctx, int64(8)).Return(nil, nil)
	_, err = es.BuyTickets(ctx, ownerAddr, 8, 1)
	assert.ErrorIs(t, err, ErrEventNotFound)

	writer.AssertNumberOfCalls(t, "BuyTickets", 1)
}

func TestExecutionFailurePropagates(t *testing.T) {
	es, _, writer, _, signer := newEventService()
	ctx := context.Background()
	execErr := &ledger.ExecutionError{Reason: "Event has not ended"}

	writer.On("DeleteEvent", ctx, signer, int64(2)).Return(nil, execErr)
	_, err := es.DeleteEvent(ctx, ownerAddr, 2)
	assert.ErrorIs(t, err, ledger.ErrExecutionFailed)
}
