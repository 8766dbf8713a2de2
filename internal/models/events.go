package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Event is the read model of a ledger event.
type Event struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	ImageURL    string          `json:"imageUrl"`
	Description string          `json:"description"`
	Owner       string          `json:"owner"` // lower-cased 0x address
	Sales       int64           `json:"sales"`
	TicketCost  decimal.Decimal `json:"ticketCost"`
	Capacity    int64           `json:"capacity"`
	Seats       int64           `json:"seats"`
	StartsAt    int64           `json:"startsAt"` // ms since epoch
	EndsAt      int64           `json:"endsAt"`
	Timestamp   int64           `json:"timestamp"`
	Deleted     bool            `json:"deleted"`
	PaidOut     bool            `json:"paidOut"`
	Refunded    bool            `json:"refunded"`
	Minted      bool            `json:"minted"`
}

// Ticket is the read model of a ticket sold on the ledger.
type Ticket struct {
	ID         int64           `json:"id"`
	EventID    int64           `json:"eventId"`
	Owner      string          `json:"owner"`
	TicketCost decimal.Decimal `json:"ticketCost"`
	Timestamp  int64           `json:"timestamp"`
	Refunded   bool            `json:"refunded"`
	Minted     bool            `json:"minted"`
}

// EventParams carries the writable fields of a ledger event. ID is ignored on create.
type EventParams struct {
	ID          int64           `json:"id,omitempty"`
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"required"`
	ImageURL    string          `json:"imageUrl" validate:"required,url"`
	Capacity    int64           `json:"capacity" validate:"required,min=1"`
	TicketCost  decimal.Decimal `json:"ticketCost"`
	StartsAt    int64           `json:"startsAt" validate:"required,min=1"`
	EndsAt      int64           `json:"endsAt" validate:"required,min=1"`
}

// NormalizeAddress returns the canonical lower-case form of an account address.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// SameAddress compares two account addresses ignoring case.
func SameAddress(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func (e *Event) HasAvailableSeats() bool {
	return e.Seats < e.Capacity
}

func (e *Event) RemainingSeats() int64 {
	if e.Seats >= e.Capacity {
		return 0
	}
	return e.Capacity - e.Seats
}

// Ended reports whether now is past the event's end time.
func (e *Event) Ended(now time.Time) bool {
	return now.UnixMilli() > e.EndsAt
}

func (e *Event) IsOwnedBy(addr string) bool {
	return SameAddress(e.Owner, addr)
}

// CanPayout is true for the owner of an ended event that has not been paid out.
func (e *Event) CanPayout(viewer string, now time.Time) bool {
	return e.IsOwnedBy(viewer) && !e.PaidOut && e.Ended(now)
}

// TotalCost is the price of quantity tickets at the current ticket cost.
func (e *Event) TotalCost(quantity int64) decimal.Decimal {
	return e.TicketCost.Mul(decimal.NewFromInt(quantity))
}

// EventView is an Event plus the display state derived for one viewer.
type EventView struct {
	Event
	HasAvailableSeats bool  `json:"hasAvailableSeats"`
	SoldOut           bool  `json:"soldOut"`
	RemainingSeats    int64 `json:"remainingSeats"`
	Ended             bool  `json:"ended"`
	IsOwner           bool  `json:"isOwner"`
	CanPayout         bool  `json:"canPayout"`
}

func NewEventView(e Event, viewer string, now time.Time) EventView {
	return EventView{
		Event:             e,
		HasAvailableSeats: e.HasAvailableSeats(),
		SoldOut:           !e.HasAvailableSeats(),
		RemainingSeats:    e.RemainingSeats(),
		Ended:             e.Ended(now),
		IsOwner:           e.IsOwnedBy(viewer),
		CanPayout:         e.CanPayout(viewer, now),
	}
}

func NewEventViews(events []Event, viewer string, now time.Time) []EventView {
	views := make([]EventView, 0, len(events))
	for _, e := range events {
		views = append(views, NewEventView(e, viewer, now))
	}
	return views
}
