package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/agentfloat-wallet-ledger/internal/domain/funding"
	"github.com/agentfloat-wallet-ledger/internal/domain/money"
	"github.com/agentfloat-wallet-ledger/internal/domain/wallet"
)

// respondWalletError maps domain errors onto HTTP statuses. Replay is not
// handled here: handlers that can replay decide their own success-shaped
// response first.
func respondWalletError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, money.ErrInvalidAmount):
		RespondBadRequest(c, err.Error())
	case errors.Is(err, wallet.ErrInsufficientFunds{}):
		RespondConflict(c, "INSUFFICIENT_FUNDS", err.Error())
	case errors.Is(err, wallet.ErrConcurrentModification{}):
		RespondConflict(c, "CONCURRENT_MODIFICATION", err.Error())
	case errors.Is(err, wallet.ErrHoldNotActive{}):
		RespondConflict(c, "HOLD_NOT_ACTIVE", err.Error())
	case errors.Is(err, wallet.ErrDuplicateEntry{}):
		RespondConflict(c, "DUPLICATE_ENTRY", err.Error())
	case errors.Is(err, wallet.ErrBusinessMismatch{}):
		RespondForbidden(c, err.Error())
	case errors.Is(err, wallet.ErrAccountNotFound{}),
		errors.Is(err, wallet.ErrHoldNotFound{}),
		errors.Is(err, wallet.ErrEntryNotFound{}),
		errors.Is(err, funding.ErrRequestNotFound{}):
		RespondNotFound(c, err.Error())
	case errors.Is(err, funding.ErrUnsupportedStatus{}):
		RespondConflict(c, "UNSUPPORTED_STATUS", err.Error())
	default:
		RespondInternalError(c)
	}
}
