// internal/services/errors.go
package services

import "errors"

// Ledger error kinds. Every operation fails with one of these (possibly
// wrapped); handlers map them to HTTP statuses, and none are retried
// internally. Conflicting same-entity operations serialize on row locks
// rather than optimistic retry.
var (
	ErrNotFound = errors.New("record not found")

	// Authorization
	ErrNotOwner    = errors.New("caller is not the asset owner")
	ErrNotSeller   = errors.New("caller is not the order seller")
	ErrNotLicensor = errors.New("caller is not the licensor")
	ErrNotLicensee = errors.New("caller is not the licensee")

	// Input
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidRoyalty  = errors.New("royalty exceeds 1000 basis points")
	ErrInvalidFeeRate  = errors.New("fee exceeds 1000 basis points")
	ErrInvalidLicensee = errors.New("invalid licensee")

	// Asset registry
	ErrDuplicateContent = errors.New("content hash already registered")
	ErrSelfTransfer     = errors.New("cannot transfer asset to self")
	ErrNotForSale       = errors.New("asset is not for sale")

	// Order book
	ErrSelfTrade           = errors.New("cannot trade with self")
	ErrWrongOrderKind      = errors.New("operation does not apply to this order kind")
	ErrOrderInactive       = errors.New("order is not active")
	ErrOrderExpired        = errors.New("order has expired")
	ErrNotExpired          = errors.New("auction has not expired yet")
	ErrAlreadySold         = errors.New("order already sold")
	ErrAlreadyEnded        = errors.New("auction already ended")
	ErrNoBids              = errors.New("auction has no bids")
	ErrBidTooLow           = errors.New("bid does not exceed current highest")
	ErrIsHighestBidder     = errors.New("highest bidder cannot withdraw")
	ErrNoBidFound          = errors.New("no refundable bid found")
	ErrInsufficientPayment = errors.New("payment below price")

	// License registry
	ErrNotLicensable   = errors.New("asset is not flagged licensable")
	ErrLicenseInactive = errors.New("license is not active")
	ErrLicenseExpired  = errors.New("license has expired")

	// Accounts
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Process-wide pause flag
	ErrLedgerPaused = errors.New("ledger is paused")
)
