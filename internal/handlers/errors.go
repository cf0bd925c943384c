// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mintforge/assetledger/internal/services"
	"github.com/mintforge/assetledger/internal/utils"
)

// respondServiceError maps the service layer's sentinel errors onto
// HTTP statuses so every handler reports failures the same way.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, services.ErrNotOwner),
		errors.Is(err, services.ErrNotSeller),
		errors.Is(err, services.ErrNotLicensor),
		errors.Is(err, services.ErrNotLicensee):
		utils.ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, services.ErrInsufficientPayment),
		errors.Is(err, services.ErrInsufficientFunds):
		utils.ErrorResponse(c, http.StatusPaymentRequired, "PAYMENT_REQUIRED", err.Error(), nil)
	case errors.Is(err, services.ErrDuplicateContent),
		errors.Is(err, services.ErrAlreadySold),
		errors.Is(err, services.ErrAlreadyEnded),
		errors.Is(err, services.ErrOrderInactive),
		errors.Is(err, services.ErrOrderExpired),
		errors.Is(err, services.ErrNotExpired),
		errors.Is(err, services.ErrLicenseInactive),
		errors.Is(err, services.ErrLicenseExpired),
		errors.Is(err, services.ErrIsHighestBidder),
		errors.Is(err, services.ErrNoBidFound),
		errors.Is(err, services.ErrNoBids):
		utils.ErrorResponse(c, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, services.ErrLedgerPaused):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "LEDGER_PAUSED", err.Error(), nil)
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidRoyalty),
		errors.Is(err, services.ErrInvalidFeeRate),
		errors.Is(err, services.ErrInvalidLicensee),
		errors.Is(err, services.ErrSelfTransfer),
		errors.Is(err, services.ErrSelfTrade),
		errors.Is(err, services.ErrNotForSale),
		errors.Is(err, services.ErrNotLicensable),
		errors.Is(err, services.ErrWrongOrderKind),
		errors.Is(err, services.ErrBidTooLow):
		utils.BadRequestResponse(c, err.Error(), nil)
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}
