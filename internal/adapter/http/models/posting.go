package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// PostingRequest is the body of the internal single-leg debit and credit
// endpoints. The direction comes from the route, not the body, so one
// request shape serves both.
type PostingRequest struct {
	AccountID     int64           `json:"accountId"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
}

func (r PostingRequest) Validate() error {
	var errs []string

	if r.AccountID <= 0 {
		errs = append(errs, "accountId is required")
	}
	if strings.TrimSpace(r.TransactionID) == "" {
		errs = append(errs, "transactionId is required")
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}

	ccy := strings.ToUpper(strings.TrimSpace(r.Currency))
	if ccy == "" {
		errs = append(errs, "currency is required")
	} else if len(ccy) != 3 {
		errs = append(errs, "currency must be a 3-letter ISO code")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}
