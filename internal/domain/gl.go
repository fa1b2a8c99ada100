package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GLAccount is a general ledger chart-of-accounts entry (CASH,
// CUSTOMER_DEPOSIT, ...), distinct from customer accounts.
type GLAccount struct {
	ID   int64
	Code string
	Name string
	Type string // ASSET, LIABILITY, INCOME, EXPENSE
}

const (
	GLAccountCash            = "CASH"
	GLAccountCustomerDeposit = "CUSTOMER_DEPOSIT"
)

// GLEntry is one side of a balanced double-entry posting. Exactly one of
// DebitAmount and CreditAmount is set.
type GLEntry struct {
	ID            int64
	TransactionID string
	GLAccountID   int64
	DebitAmount   *decimal.Decimal
	CreditAmount  *decimal.Decimal
	OccurredAt    time.Time
}

// GLPosting is the request form of a GL entry, addressed by account code.
type GLPosting struct {
	GLAccountCode string
	DebitAmount   *decimal.Decimal
	CreditAmount  *decimal.Decimal
}
