package commons

import (
	"errors"
	"net/http"

	"github.com/isbank/ledger-core/internal/domain"
)

const (
	CodeValidationError        = "VALIDATION_ERROR"
	CodeNotFound               = "NOT_FOUND"
	CodeAccountFrozen          = "ACCOUNT_FROZEN"
	CodeInsufficientFunds      = "INSUFFICIENT_FUNDS"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeConflict               = "CONFLICT"
	CodeStoreUnavailable       = "STORE_UNAVAILABLE"
	CodeInternalError          = "INTERNAL_ERROR"
)

// CodeForError maps a domain error to the stable machine-readable code the
// API exposes, and the HTTP status it is served with.
func CodeForError(err error) (string, int) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrTransferNotFound):
		return CodeNotFound, http.StatusNotFound
	case errors.Is(err, domain.ErrAccountFrozen),
		errors.Is(err, domain.ErrAccountClosed):
		return CodeAccountFrozen, http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInsufficientFunds):
		return CodeInsufficientFunds, http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return CodeInvalidStateTransition, http.StatusConflict
	case errors.Is(err, domain.ErrConflict):
		return CodeConflict, http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return CodeStoreUnavailable, http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrUnsupportedCurrency),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrInvalidAccountStatus),
		errors.Is(err, domain.ErrInvalidDirection),
		errors.Is(err, domain.ErrInvalidTransferStatus),
		errors.Is(err, domain.ErrInvalidTransferType):
		return CodeValidationError, http.StatusBadRequest
	}
	return CodeInternalError, http.StatusInternalServerError
}
