package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type CreateTransferRequest struct {
	FromAccountID int64           `json:"fromAccountId"`
	ToAccountID   int64           `json:"toAccountId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Type          string          `json:"type"`
}

func (r CreateTransferRequest) Validate() error {
	var errs []string

	if r.FromAccountID <= 0 {
		errs = append(errs, "fromAccountId is required")
	}
	if r.ToAccountID <= 0 {
		errs = append(errs, "toAccountId is required")
	}
	if r.FromAccountID > 0 && r.FromAccountID == r.ToAccountID {
		errs = append(errs, "fromAccountId and toAccountId cannot be the same")
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

	transferType := strings.ToLower(strings.TrimSpace(r.Type))
	if transferType != "" && transferType != "internal" && transferType != "external" {
		errs = append(errs, "type must be internal or external")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

type TransferResponse struct {
	ID            int64           `json:"id"`
	FromAccountID int64           `json:"fromAccountId"`
	ToAccountID   int64           `json:"toAccountId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	FailureReason string          `json:"failureReason,omitempty"`
	CreatedAt     string          `json:"createdAt"`
	LastUpdatedAt string          `json:"lastUpdatedAt"`
}
