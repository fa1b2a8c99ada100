package domain

import "errors"

var (
	// ErrValidation wraps malformed-input failures detected at the API
	// boundary.
	ErrValidation = errors.New("validation failed")

	ErrAccountNotFound  = errors.New("account not found")
	ErrTransferNotFound = errors.New("transfer not found")

	ErrAccountFrozen     = errors.New("account is frozen")
	ErrAccountClosed     = errors.New("account is closed")
	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrConflict means a concurrent mutation won the race; the caller may
	// retry the whole operation.
	ErrConflict = errors.New("conflicting concurrent update")

	// ErrStoreUnavailable means the durable store failed before anything was
	// committed; the operation is safe to retry.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrUnsupportedCurrency = errors.New("currency is not supported")
	ErrCurrencyMismatch    = errors.New("currency does not match account currency")

	ErrInvalidAccountStatus  = errors.New("invalid account status")
	ErrInvalidDirection      = errors.New("invalid ledger direction")
	ErrInvalidTransferStatus = errors.New("invalid transfer status")
	ErrInvalidTransferType   = errors.New("invalid transfer type")
)
