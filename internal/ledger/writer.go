package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/joshua-takyi/festora/internal/models"
	"github.com/joshua-takyi/festora/internal/units"
	"github.com/shopspring/decimal"
)

// Confirmation summarizes the receipt of a confirmed transaction.
type Confirmation struct {
	Method      string `json:"method"`
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
	GasUsed     uint64 `json:"gasUsed"`
	Status      uint64 `json:"status"`
}

// Writer submits state-changing operations and waits for their confirmation.
// Failures are reported as ErrNotConnected, ErrSubmissionFailed or an
// *ExecutionError. Nothing is retried.
type Writer struct {
	backend Backend
	logger  *slog.Logger
}

func NewWriter(backend Backend, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{backend: backend, logger: logger}
}

func (w *Writer) CreateEvent(ctx context.Context, signer Signer, p models.EventParams) (*Confirmation, error) {
	args, err := eventArgs(p)
	if err != nil {
		return nil, err
	}
	return w.execute(ctx, signer, "createEvent", nil, args...)
}

func (w *Writer) UpdateEvent(ctx context.Context, signer Signer, p models.EventParams) (*Confirmation, error) {
	if p.ID <= 0 {
		return nil, fmt.Errorf("%w: event id %d", ErrInvalidArgument, p.ID)
	}
	args, err := eventArgs(p)
	if err != nil {
		return nil, err
	}
	args = append([]interface{}{big.NewInt(p.ID)}, args...)
	return w.execute(ctx, signer, "updateEvent", nil, args...)
}

func (w *Writer) DeleteEvent(ctx context.Context, signer Signer, id int64) (*Confirmation, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: event id %d", ErrInvalidArgument, id)
	}
	return w.execute(ctx, signer, "deleteEvent", nil, big.NewInt(id))
}

func (w *Writer) Payout(ctx context.Context, signer Signer, id int64) (*Confirmation, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: event id %d", ErrInvalidArgument, id)
	}
	return w.execute(ctx, signer, "payout", nil, big.NewInt(id))
}

// BuyTickets attaches ticketCost × quantity, in fixed point, as the transaction value.
func (w *Writer) BuyTickets(ctx context.Context, signer Signer, id, quantity int64, ticketCost decimal.Decimal) (*Confirmation, error) {
	if id <= 0 || quantity <= 0 {
		return nil, fmt.Errorf("%w: event id %d, quantity %d", ErrInvalidArgument, id, quantity)
	}
	value, err := units.ToFixedPoint(ticketCost.Mul(decimal.NewFromInt(quantity)))
	if err != nil {
		return nil, fmt.Errorf("%w: ticket cost: %v", ErrInvalidArgument, err)
	}
	return w.execute(ctx, signer, "buyTickets", value, big.NewInt(id), big.NewInt(quantity))
}

func eventArgs(p models.EventParams) ([]interface{}, error) {
	cost, err := units.ToFixedPoint(p.TicketCost)
	if err != nil {
		return nil, fmt.Errorf("%w: ticket cost: %v", ErrInvalidArgument, err)
	}
	return []interface{}{
		p.Title,
		p.Description,
		p.ImageURL,
		big.NewInt(p.Capacity),
		cost,
		big.NewInt(p.StartsAt),
		big.NewInt(p.EndsAt),
	}, nil
}

func (w *Writer) execute(ctx context.Context, signer Signer, method string, value *big.Int, args ...interface{}) (*Confirmation, error) {
	if signer == nil {
		return nil, ErrNotConnected
	}
	opts, err := signer.TransactOpts(ctx)
	if err != nil || opts == nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	if value != nil {
		opts.Value = value
	}

	tx, err := w.backend.Transact(ctx, opts, method, args...)
	if err != nil {
		if reason, reverted := revertReason(err); reverted {
			return nil, newExecutionError(reason, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSubmissionFailed, method, err)
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: %s: no transaction returned", ErrSubmissionFailed, method)
	}
	w.logger.Info("Transaction submitted",
		"method", method,
		"tx_hash", tx.Hash().Hex(),
		"from", signer.Address().Hex(),
	)

	receipt, err := w.backend.WaitMined(ctx, tx)
	if err != nil {
		w.logger.Warn("Transaction confirmation abandoned", "method", method, "tx_hash", tx.Hash().Hex(), "error", err)
		return nil, &PendingError{Method: method, TxHash: tx.Hash().Hex(), cause: err}
	}
	if receipt == nil || receipt.Status != types.ReceiptStatusSuccessful {
		reason := ""
		if receipt != nil {
			reason = w.backend.RevertReason(ctx, tx, receipt)
		}
		w.logger.Warn("Transaction reverted", "method", method, "tx_hash", tx.Hash().Hex(), "reason", reason)
		return nil, newExecutionError(reason, nil)
	}

	c := &Confirmation{
		Method:  method,
		TxHash:  receipt.TxHash.Hex(),
		GasUsed: receipt.GasUsed,
		Status:  receipt.Status,
	}
	if receipt.BlockNumber != nil {
		c.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return c, nil
}
