package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type CreateAccountRequest struct {
	CustomerID string `json:"customerId"`
	Currency   string `json:"currency"`
}

func (r CreateAccountRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.CustomerID) == "" {
		errs = append(errs, "customerId is required")
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

type AccountResponse struct {
	ID         int64           `json:"id"`
	CustomerID string          `json:"customerId"`
	AccountNo  string          `json:"accountNo"`
	Currency   string          `json:"currency"`
	Balance    decimal.Decimal `json:"balance"`
	Status     string          `json:"status"`
	CreatedAt  string          `json:"createdAt"`
	UpdatedAt  string          `json:"updatedAt"`
}

type LedgerEntryResponse struct {
	ID            int64           `json:"id"`
	AccountID     int64           `json:"accountId"`
	TransactionID string          `json:"transactionId"`
	Direction     string          `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	OccurredAt    string          `json:"occurredAt"`
}
