package postgres

import (
	"context"
	"database/sql"

	"github.com/isbank/ledger-core/internal/domain"
	"github.com/isbank/ledger-core/internal/logger"
)

type RiskRepository struct {
	db *sql.DB
}

func NewRiskRepository(db *sql.DB) *RiskRepository {
	return &RiskRepository{db: db}
}

func (r *RiskRepository) CreateDecision(ctx context.Context, decision domain.RiskDecision) (domain.RiskDecision, error) {
	const query = `
INSERT INTO risk_decisions (
	transfer_id,
	result,
	reason_code
) VALUES ($1, $2, $3)
RETURNING id, created_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		decision.TransferID,
		decision.Result,
		decision.ReasonCode,
	).Scan(&decision.ID, &decision.CreatedAt); err != nil {
		logger.Error("risk repository create decision failed", err, logger.Fields{
			"transferId": decision.TransferID,
		})
		return domain.RiskDecision{}, storeErr("create risk decision", err)
	}

	logger.Info("risk repository decision recorded", logger.Fields{
		"transferId": decision.TransferID,
		"result":     decision.Result,
		"reasonCode": decision.ReasonCode,
	})

	return decision, nil
}
