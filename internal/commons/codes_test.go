package commons

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/isbank/ledger-core/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCodeForError(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{domain.ErrAccountNotFound, CodeNotFound, http.StatusNotFound},
		{domain.ErrTransferNotFound, CodeNotFound, http.StatusNotFound},
		{domain.ErrAccountFrozen, CodeAccountFrozen, http.StatusUnprocessableEntity},
		{domain.ErrAccountClosed, CodeAccountFrozen, http.StatusUnprocessableEntity},
		{domain.ErrInsufficientFunds, CodeInsufficientFunds, http.StatusUnprocessableEntity},
		{domain.ErrInvalidStateTransition, CodeInvalidStateTransition, http.StatusConflict},
		{domain.ErrConflict, CodeConflict, http.StatusConflict},
		{domain.ErrStoreUnavailable, CodeStoreUnavailable, http.StatusServiceUnavailable},
		{domain.ErrValidation, CodeValidationError, http.StatusBadRequest},
		{domain.ErrCurrencyMismatch, CodeValidationError, http.StatusBadRequest},
		{domain.ErrUnsupportedCurrency, CodeValidationError, http.StatusBadRequest},
		{fmt.Errorf("unexpected"), CodeInternalError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		code, status := CodeForError(tc.err)
		assert.Equal(t, tc.code, code, tc.err.Error())
		assert.Equal(t, tc.status, status, tc.err.Error())
	}
}

func TestCodeForWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("append leg: %w", domain.ErrInsufficientFunds)

	code, status := CodeForError(wrapped)
	assert.Equal(t, CodeInsufficientFunds, code)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}
