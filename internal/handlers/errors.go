package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/festora/internal/ledger"
	"github.com/joshua-takyi/festora/internal/middleware"
	"github.com/joshua-takyi/festora/internal/models"
	"github.com/joshua-takyi/festora/internal/payment"
	"github.com/joshua-takyi/festora/internal/services"
	"github.com/joshua-takyi/festora/internal/wallet"
)

type errorMapping struct {
	status    int
	code      string
	retryable bool
}

// classify maps a domain error to its HTTP status and stable error code.
func classify(err error) errorMapping {
	var execErr *ledger.ExecutionError
	switch {
	case errors.Is(err, ledger.ErrConfirmationPending):
		return errorMapping{http.StatusGatewayTimeout, "confirmation_pending", false}
	case errors.Is(err, ledger.ErrNotConnected):
		return errorMapping{http.StatusUnauthorized, "not_connected", false}
	case errors.Is(err, ledger.ErrSubmissionFailed):
		return errorMapping{http.StatusBadGateway, "submission_failed", true}
	case errors.As(err, &execErr), errors.Is(err, ledger.ErrExecutionFailed):
		return errorMapping{http.StatusUnprocessableEntity, "execution_failed", true}
	case errors.Is(err, payment.ErrPaymentNotVerified):
		return errorMapping{http.StatusBadRequest, "payment_not_verified", false}
	case errors.Is(err, payment.ErrGateway):
		return errorMapping{http.StatusBadGateway, "gateway_error", true}
	case errors.Is(err, models.ErrPersistenceFailed):
		return errorMapping{http.StatusInternalServerError, "persistence_failed", true}
	case errors.Is(err, services.ErrEventNotFound):
		return errorMapping{http.StatusNotFound, "not_found", false}
	case errors.Is(err, wallet.ErrUnknownAccount):
		return errorMapping{http.StatusNotFound, "unknown_account", false}
	case errors.Is(err, wallet.ErrBadPassphrase):
		return errorMapping{http.StatusUnauthorized, "bad_passphrase", false}
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidAccount),
		errors.Is(err, ledger.ErrInvalidArgument),
		errors.Is(err, wallet.ErrInvalidAddress):
		return errorMapping{http.StatusBadRequest, "invalid_input", false}
	case errors.Is(err, ledger.ErrMalformedRecord):
		return errorMapping{http.StatusBadGateway, "malformed_record", false}
	case errors.Is(err, context.DeadlineExceeded):
		return errorMapping{http.StatusGatewayTimeout, "timeout", true}
	}
	return errorMapping{http.StatusInternalServerError, "internal_error", false}
}

func respondError(c *gin.Context, err error) {
	m := classify(err)
	res := models.CodedErrorResponse(m.code, err.Error(), m.retryable)
	res.RequestID = middleware.GetRequestID(c)

	var execErr *ledger.ExecutionError
	var pending *ledger.PendingError
	switch {
	case errors.As(err, &execErr):
		res.Reason = execErr.Reason
	case errors.As(err, &pending):
		res.Reason = pending.TxHash
	}
	if m.status >= http.StatusInternalServerError {
		_ = c.Error(err)
		if m.code == "internal_error" {
			res.Error = "Internal server error"
		}
	}
	c.JSON(m.status, res)
}

func badRequest(c *gin.Context, msg string) {
	res := models.CodedErrorResponse("invalid_input", msg, false)
	res.RequestID = middleware.GetRequestID(c)
	c.JSON(http.StatusBadRequest, res)
}

func viewerAddress(c *gin.Context) string {
	return middleware.GetSession(c).GetSafeAddress()
}
