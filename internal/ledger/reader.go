package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joshua-takyi/festora/internal/models"
)

// Reader queries event and ticket state from the ledger. Results are always
// fetched fresh; callers re-query after a confirmed write.
type Reader struct {
	backend Backend
}

func NewReader(backend Backend) *Reader {
	return &Reader{backend: backend}
}

func (r *Reader) ListEvents(ctx context.Context) ([]models.Event, error) {
	out, err := r.backend.Call(ctx, common.Address{}, "getEvents")
	if err != nil {
		return nil, fmt.Errorf("getEvents: %w", err)
	}
	return decodeEvents(first(out))
}

// ListEventsByOwner returns only events whose owner equals account, ignoring case.
func (r *Reader) ListEventsByOwner(ctx context.Context, account string) ([]models.Event, error) {
	if !common.IsHexAddress(account) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAccount, account)
	}
	from := common.HexToAddress(account)

	out, err := r.backend.Call(ctx, from, "getMyEvents")
	if err != nil {
		return nil, fmt.Errorf("getMyEvents: %w", err)
	}
	events, err := decodeEvents(first(out))
	if err != nil {
		return nil, err
	}

	owned := make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.IsOwnedBy(from.Hex()) {
			owned = append(owned, e)
		}
	}
	return owned, nil
}

// GetEvent returns nil without error when the ledger has no event with id.
func (r *Reader) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	if id <= 0 {
		return nil, nil
	}
	out, err := r.backend.Call(ctx, common.Address{}, "getSingleEvent", big.NewInt(id))
	if err != nil {
		if _, reverted := revertReason(err); reverted {
			return nil, nil
		}
		return nil, fmt.Errorf("getSingleEvent: %w", err)
	}
	raw := first(out)
	if raw == nil {
		return nil, nil
	}
	rec, err := toRecord(raw)
	if err != nil {
		return nil, err
	}
	e, err := decodeEvent(rec)
	if err != nil {
		return nil, err
	}
	if e.Owner == "" || e.Owner == zeroOwner {
		return nil, nil
	}
	return &e, nil
}

func (r *Reader) ListTickets(ctx context.Context, eventID int64) ([]models.Ticket, error) {
	if eventID <= 0 {
		return nil, fmt.Errorf("%w: event id %d", ErrInvalidArgument, eventID)
	}
	out, err := r.backend.Call(ctx, common.Address{}, "getTickets", big.NewInt(eventID))
	if err != nil {
		return nil, fmt.Errorf("getTickets: %w", err)
	}
	return decodeTickets(first(out))
}

var zeroOwner = models.NormalizeAddress(common.Address{}.Hex())

func first(out []interface{}) interface{} {
	if len(out) == 0 {
		return nil
	}
	return out[0]
}
