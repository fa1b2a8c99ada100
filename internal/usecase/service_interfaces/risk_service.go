package service_interfaces

import (
	"context"

	"github.com/isbank/ledger-core/internal/domain"
)

type RiskService interface {
	// Evaluate runs the pre-transfer risk rules and persists the decision.
	// A DENY result carries the reason code; evaluation errors are storage
	// failures, not denials.
	Evaluate(ctx context.Context, transfer domain.Transfer) (domain.RiskDecision, error)
}
