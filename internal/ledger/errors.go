package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	ErrNotConnected     = errors.New("wallet not connected")
	ErrSubmissionFailed = errors.New("transaction submission failed")
	ErrExecutionFailed  = errors.New("transaction execution failed")
	ErrMalformedRecord  = errors.New("malformed ledger record")
	ErrInvalidAccount   = errors.New("invalid account address")
	ErrInvalidArgument  = errors.New("invalid ledger argument")

	ErrConfirmationPending = errors.New("transaction submitted, confirmation pending")
)

const defaultRevertMessage = "transaction reverted"

// ExecutionError is returned when the ledger rejected or reverted a transaction.
type ExecutionError struct {
	Reason string
	cause  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrExecutionFailed, e.Reason)
}

func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecutionFailed
}

func (e *ExecutionError) Unwrap() error {
	return e.cause
}

// PendingError is returned when waiting for a submitted transaction failed.
// The transaction may still be mined, so callers check TxHash before
// submitting again.
type PendingError struct {
	Method string
	TxHash string
	cause  error
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrConfirmationPending, e.Method, e.TxHash, e.cause)
}

func (e *PendingError) Is(target error) bool {
	return target == ErrConfirmationPending
}

func (e *PendingError) Unwrap() error {
	return e.cause
}

func newExecutionError(reason string, cause error) *ExecutionError {
	if strings.TrimSpace(reason) == "" {
		reason = defaultRevertMessage
	}
	return &ExecutionError{Reason: reason, cause: cause}
}

// revertReason extracts the revert string carried by a JSON-RPC error. ok is
// false when err does not describe a revert.
func revertReason(err error) (reason string, ok bool) {
	if err == nil {
		return "", false
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if s, isStr := dataErr.ErrorData().(string); isStr {
			if raw, decErr := hexutil.Decode(s); decErr == nil {
				if msg, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return msg, true
				}
			}
		}
		if strings.Contains(dataErr.Error(), "revert") {
			return trimRevertPrefix(dataErr.Error()), true
		}
	}
	if strings.Contains(err.Error(), "execution reverted") {
		return trimRevertPrefix(err.Error()), true
	}
	return "", false
}

func trimRevertPrefix(msg string) string {
	if i := strings.Index(msg, "execution reverted"); i >= 0 {
		msg = strings.TrimPrefix(msg[i+len("execution reverted"):], ":")
	}
	return strings.TrimSpace(msg)
}
