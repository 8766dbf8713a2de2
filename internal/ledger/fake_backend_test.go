package ledger

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// eventTuple mirrors the struct go-ethereum builds for an EventStruct output.
type eventTuple struct {
	Id          *big.Int       `json:"id"`
	Title       string         `json:"title"`
	ImageUrl    string         `json:"imageUrl"`
	Description string         `json:"description"`
	Owner       common.Address `json:"owner"`
	Sales       *big.Int       `json:"sales"`
	TicketCost  *big.Int       `json:"ticketCost"`
	Capacity    *big.Int       `json:"capacity"`
	Seats       *big.Int       `json:"seats"`
	StartsAt    *big.Int       `json:"startsAt"`
	EndsAt      *big.Int       `json:"endsAt"`
	Timestamp   *big.Int       `json:"timestamp"`
	Deleted     bool           `json:"deleted"`
	PaidOut     bool           `json:"paidOut"`
	Refunded    bool           `json:"refunded"`
	Minted      bool           `json:"minted"`
}

type ticketTuple struct {
	Id         *big.Int       `json:"id"`
	EventId    *big.Int       `json:"eventId"`
	Owner      common.Address `json:"owner"`
	TicketCost *big.Int       `json:"ticketCost"`
	Timestamp  *big.Int       `json:"timestamp"`
	Refunded   bool           `json:"refunded"`
	Minted     bool           `json:"minted"`
}

type transactCall struct {
	method string
	from   common.Address
	value  *big.Int
	args   []interface{}
}

// fakeBackend is an in-memory event contract.
type fakeBackend struct {
	mu      sync.Mutex
	events  []eventTuple
	tickets map[int64][]ticketTuple
	nonce   uint64
	calls   int
	sent    []transactCall
	pending map[common.Hash]transactCall
	now     int64

	callErr     error
	transactErr error
	nilTx       bool
	waitErr     error
	revert      string // when set, receipts fail with this reason
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		tickets: make(map[int64][]ticketTuple),
		pending: make(map[common.Hash]transactCall),
		now:     1_700_000_000_000,
	}
}

func (f *fakeBackend) Call(ctx context.Context, from common.Address, method string, args ...interface{}) ([]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.callErr != nil {
		return nil, f.callErr
	}
	switch method {
	case "getEvents":
		out := make([]eventTuple, 0, len(f.events))
		for _, e := range f.events {
			if !e.Deleted {
				out = append(out, e)
			}
		}
		return []interface{}{out}, nil
	case "getMyEvents":
		out := make([]eventTuple, 0)
		for _, e := range f.events {
			if !e.Deleted && e.Owner == from {
				out = append(out, e)
			}
		}
		return []interface{}{out}, nil
	case "getSingleEvent":
		id := args[0].(*big.Int).Int64()
		for _, e := range f.events {
			if e.Id.Int64() == id {
				return []interface{}{e}, nil
			}
		}
		return []interface{}{eventTuple{}}, nil
	case "getTickets":
		id := args[0].(*big.Int).Int64()
		return []interface{}{append([]ticketTuple{}, f.tickets[id]...)}, nil
	}
	return nil, errors.New("unknown method " + method)
}

func (f *fakeBackend) Transact(ctx context.Context, opts *bind.TransactOpts, method string, args ...interface{}) (*types.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.transactErr != nil {
		return nil, f.transactErr
	}
	if f.nilTx {
		return nil, nil
	}
	call := transactCall{method: method, from: opts.From, value: opts.Value, args: args}
	f.sent = append(f.sent, call)
	f.nonce++
	tx := types.NewTx(&types.LegacyTx{Nonce: f.nonce, Value: opts.Value})
	f.pending[tx.Hash()] = call
	return tx, nil
}

func (f *fakeBackend) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	receipt := &types.Receipt{
		TxHash:      tx.Hash(),
		BlockNumber: big.NewInt(int64(100 + f.nonce)),
		GasUsed:     21000,
		Status:      types.ReceiptStatusSuccessful,
	}
	if f.revert != "" {
		receipt.Status = types.ReceiptStatusFailed
		return receipt, nil
	}
	f.apply(f.pending[tx.Hash()])
	return receipt, nil
}

func (f *fakeBackend) RevertReason(ctx context.Context, tx *types.Transaction, receipt *types.Receipt) string {
	return f.revert
}

func (f *fakeBackend) apply(c transactCall) {
	f.now++
	switch c.method {
	case "createEvent":
		f.events = append(f.events, eventTuple{
			Id:          big.NewInt(int64(len(f.events) + 1)),
			Title:       c.args[0].(string),
			Description: c.args[1].(string),
			ImageUrl:    c.args[2].(string),
			Owner:       c.from,
			Sales:       new(big.Int),
			Capacity:    c.args[3].(*big.Int),
			TicketCost:  c.args[4].(*big.Int),
			Seats:       new(big.Int),
			StartsAt:    c.args[5].(*big.Int),
			EndsAt:      c.args[6].(*big.Int),
			Timestamp:   big.NewInt(f.now),
		})
	case "updateEvent":
		if e := f.find(c.args[0].(*big.Int)); e != nil {
			e.Title = c.args[1].(string)
			e.Description = c.args[2].(string)
			e.ImageUrl = c.args[3].(string)
			e.Capacity = c.args[4].(*big.Int)
			e.TicketCost = c.args[5].(*big.Int)
			e.StartsAt = c.args[6].(*big.Int)
			e.EndsAt = c.args[7].(*big.Int)
		}
	case "deleteEvent":
		if e := f.find(c.args[0].(*big.Int)); e != nil {
			e.Deleted = true
		}
	case "payout":
		if e := f.find(c.args[0].(*big.Int)); e != nil {
			e.PaidOut = true
		}
	case "buyTickets":
		id := c.args[0].(*big.Int)
		qty := c.args[1].(*big.Int).Int64()
		e := f.find(id)
		if e == nil {
			return
		}
		for i := int64(0); i < qty; i++ {
			f.tickets[id.Int64()] = append(f.tickets[id.Int64()], ticketTuple{
				Id:         big.NewInt(int64(len(f.tickets[id.Int64()]) + 1)),
				EventId:    new(big.Int).Set(id),
				Owner:      c.from,
				TicketCost: new(big.Int).Set(e.TicketCost),
				Timestamp:  big.NewInt(f.now),
			})
		}
		e.Seats = new(big.Int).Add(e.Seats, big.NewInt(qty))
		e.Sales = new(big.Int).Add(e.Sales, big.NewInt(qty))
	}
}

func (f *fakeBackend) find(id *big.Int) *eventTuple {
	for i := range f.events {
		if f.events[i].Id.Cmp(id) == 0 {
			return &f.events[i]
		}
	}
	return nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSigner struct {
	addr common.Address
	err  error
}

func (s fakeSigner) Address() common.Address { return s.addr }

func (s fakeSigner) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &bind.TransactOpts{From: s.addr}, nil
}
