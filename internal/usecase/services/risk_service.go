package services

import (
	"context"
	"strconv"

	"github.com/isbank/ledger-core/internal/adapter/repository/repo_interfaces"
	"github.com/isbank/ledger-core/internal/domain"
	"github.com/isbank/ledger-core/internal/logger"
	"github.com/isbank/ledger-core/internal/usecase/service_interfaces"
	"github.com/shopspring/decimal"
)

const ReasonCodeAmountLimit = "AMOUNT_LIMIT"

// Verify that RiskService implements the service_interfaces.RiskService interface
var _ service_interfaces.RiskService = (*RiskService)(nil)

type RiskService struct {
	riskRepo            repo_interfaces.RiskRepository
	singleTransferLimit decimal.Decimal
}

func NewRiskService(riskRepo repo_interfaces.RiskRepository, singleTransferLimit decimal.Decimal) *RiskService {
	return &RiskService{
		riskRepo:            riskRepo,
		singleTransferLimit: singleTransferLimit,
	}
}

// Evaluate applies the single-amount limit rule and persists the outcome.
// One decision row is written per evaluated transfer, allow or deny.
func (s *RiskService) Evaluate(ctx context.Context, transfer domain.Transfer) (domain.RiskDecision, error) {
	decision := domain.RiskDecision{
		TransferID: strconv.FormatInt(transfer.ID, 10),
		Result:     domain.RiskResultAllow,
	}

	if transfer.Amount.GreaterThan(s.singleTransferLimit) {
		decision.Result = domain.RiskResultDeny
		decision.ReasonCode = ReasonCodeAmountLimit
	}

	created, err := s.riskRepo.CreateDecision(ctx, decision)
	if err != nil {
		logger.Error("risk service persist decision failed", err, logger.Fields{
			"transferId": transfer.ID,
			"result":     decision.Result,
		})
		return domain.RiskDecision{}, err
	}

	logger.Info("risk service decision recorded", logger.Fields{
		"transferId": transfer.ID,
		"result":     created.Result,
		"reasonCode": created.ReasonCode,
	})

	return created, nil
}
