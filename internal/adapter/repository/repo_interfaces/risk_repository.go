package repo_interfaces

import (
	"context"

	"github.com/isbank/ledger-core/internal/domain"
)

type RiskRepository interface {
	CreateDecision(ctx context.Context, decision domain.RiskDecision) (domain.RiskDecision, error)
}
