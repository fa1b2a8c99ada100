package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isbank/ledger-core/internal/adapter/http/models"
	"github.com/isbank/ledger-core/internal/adapter/repository/repo_interfaces"
	"github.com/isbank/ledger-core/internal/commons"
	"github.com/isbank/ledger-core/internal/domain"
	"github.com/isbank/ledger-core/internal/logger"
	"github.com/isbank/ledger-core/internal/usecase/service_interfaces"
)

// Verify that TransferService implements the service_interfaces.TransferService interface
var _ service_interfaces.TransferService = (*TransferService)(nil)

type TransferService struct {
	transferRepo repo_interfaces.TransferRepository
	accountRepo  repo_interfaces.AccountRepository
	ledgerRepo   repo_interfaces.LedgerRepository
	riskService  service_interfaces.RiskService
}

func NewTransferService(
	transferRepo repo_interfaces.TransferRepository,
	accountRepo repo_interfaces.AccountRepository,
	ledgerRepo repo_interfaces.LedgerRepository,
	riskService service_interfaces.RiskService,
) *TransferService {
	return &TransferService{
		transferRepo: transferRepo,
		accountRepo:  accountRepo,
		ledgerRepo:   ledgerRepo,
		riskService:  riskService,
	}
}

func (s *TransferService) CreateTransfer(ctx context.Context, req models.CreateTransferRequest) (commons.Response[models.TransferResponse], error) {
	logger.Info("transfer service create transfer request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.TransferResponse](commons.CodeValidationError, "validation failed", err.Error()),
			fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	transferType := domain.TransferTypeInternal
	if strings.TrimSpace(req.Type) != "" {
		parsed, err := domain.ParseTransferType(strings.ToLower(strings.TrimSpace(req.Type)))
		if err != nil {
			return commons.ErrorResponse[models.TransferResponse](commons.CodeValidationError, "validation failed", err.Error()), err
		}
		transferType = parsed
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))

	fromAccount, err := s.accountRepo.Get(ctx, req.FromAccountID)
	if err != nil {
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[models.TransferResponse](code, "source account not found", err.Error()), err
	}
	toAccount, err := s.accountRepo.Get(ctx, req.ToAccountID)
	if err != nil {
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[models.TransferResponse](code, "destination account not found", err.Error()), err
	}

	transfer, err := s.transferRepo.Create(ctx, domain.Transfer{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
		Currency:      currency,
		Type:          transferType,
		Status:        domain.TransferStatusPending,
	})
	if err != nil {
		logger.Error("transfer service create transfer repository failed", err, nil)
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[models.TransferResponse](code, "failed to create transfer", "Unable to process transfer right now"), err
	}

	if err := s.transferRepo.UpdateStatus(ctx, transfer.ID, domain.TransferStatusPending, domain.TransferStatusProcessing, ""); err != nil {
		logger.Error("transfer service move to processing failed", err, logger.Fields{
			"transferId": transfer.ID,
		})
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[models.TransferResponse](code, "failed to process transfer", "Unable to process transfer right now"), err
	}
	transfer.Status = domain.TransferStatusProcessing

	decision, err := s.riskService.Evaluate(ctx, transfer)
	if err != nil {
		return s.failTransfer(ctx, transfer, "risk check failed", err)
	}
	if decision.Result == domain.RiskResultDeny {
		reason := "risk rejected: " + decision.ReasonCode
		err := fmt.Errorf("%w: %s", domain.ErrValidation, reason)
		return s.failTransfer(ctx, transfer, reason, err)
	}

	// Pre-flight checks on the loaded snapshots. The repository re-verifies
	// all of them under row locks; these only decide the failure reason
	// before any posting is attempted.
	if err := checkAccountActive(fromAccount); err != nil {
		return s.failTransfer(ctx, transfer, "source "+err.Error(), err)
	}
	if err := checkAccountActive(toAccount); err != nil {
		return s.failTransfer(ctx, transfer, "destination "+err.Error(), err)
	}
	if !strings.EqualFold(fromAccount.Currency, currency) || !strings.EqualFold(toAccount.Currency, currency) {
		err := fmt.Errorf("%w: transfer is %s", domain.ErrCurrencyMismatch, currency)
		return s.failTransfer(ctx, transfer, err.Error(), err)
	}
	if fromAccount.Balance.LessThan(transfer.Amount) {
		err := domain.ErrInsufficientFunds
		return s.failTransfer(ctx, transfer, err.Error(), err)
	}

	event := newTransferEvent(transfer, domain.TransferStatusCompleted, "")
	if err := s.transferRepo.Complete(ctx, transfer, event); err != nil {
		if isPostingRejection(err) {
			return s.failTransfer(ctx, transfer, err.Error(), err)
		}
		logger.Error("transfer service atomic posting failed", err, logger.Fields{
			"transferId": transfer.ID,
		})
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[models.TransferResponse](code, "failed to process transfer", "Unable to process transfer right now"), err
	}

	completed, err := s.transferRepo.Get(ctx, transfer.ID)
	if err != nil {
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[models.TransferResponse](code, "failed to fetch transfer", err.Error()), err
	}

	logger.Info("transfer service transfer completed", logger.Fields{
		"transferId":    completed.ID,
		"fromAccountId": completed.FromAccountID,
		"toAccountId":   completed.ToAccountID,
		"amount":        completed.Amount,
	})

	return commons.SuccessResponse("transfer completed successfully", mapTransferToResponse(completed)), nil
}

func (s *TransferService) GetTransfer(ctx context.Context, id int64) (commons.Response[models.TransferResponse], error) {
	transfer, err := s.transferRepo.Get(ctx, id)
	if err != nil {
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[models.TransferResponse](code, "failed to fetch transfer", err.Error()), err
	}

	return commons.SuccessResponse("transfer fetched successfully", mapTransferToResponse(transfer)), nil
}

func (s *TransferService) ReverseTransfer(ctx context.Context, id int64) (commons.Response[models.TransferResponse], error) {
	transfer, err := s.transferRepo.Get(ctx, id)
	if err != nil {
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[models.TransferResponse](code, "failed to reverse transfer", err.Error()), err
	}

	if !transfer.Status.CanTransition(domain.TransferStatusReversed) {
		err := fmt.Errorf("%w: cannot reverse transfer in status %s", domain.ErrInvalidStateTransition, transfer.Status)
		return commons.ErrorResponse[models.TransferResponse](commons.CodeInvalidStateTransition, "failed to reverse transfer", err.Error()), err
	}

	if err := s.transferRepo.Reverse(ctx, transfer); err != nil {
		logger.Error("transfer service reverse failed", err, logger.Fields{
			"transferId": transfer.ID,
		})
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[models.TransferResponse](code, "failed to reverse transfer", err.Error()), err
	}

	reversed, err := s.transferRepo.Get(ctx, id)
	if err != nil {
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[models.TransferResponse](code, "failed to fetch transfer", err.Error()), err
	}

	logger.Info("transfer service transfer reversed", logger.Fields{
		"transferId": reversed.ID,
	})

	return commons.SuccessResponse("transfer reversed successfully", mapTransferToResponse(reversed)), nil
}

// RecoverStuckTransfers resolves transfers a crash left in processing. A
// transfer whose two ledger legs are durable is promoted to completed; one
// with no durable legs is failed. It also reports balance drift between the
// cached account balance and the replayed ledger sum.
func (s *TransferService) RecoverStuckTransfers(ctx context.Context) error {
	stuck, err := s.transferRepo.ListByStatus(ctx, domain.TransferStatusProcessing)
	if err != nil {
		return fmt.Errorf("list stuck transfers: %w", err)
	}

	for _, transfer := range stuck {
		legs, err := s.ledgerRepo.CountByTransaction(ctx, transfer.TransactionID())
		if err != nil {
			logger.Error("recovery count legs failed", err, logger.Fields{
				"transferId": transfer.ID,
			})
			continue
		}

		switch legs {
		case 2:
			event := newTransferEvent(transfer, domain.TransferStatusCompleted, "")
			if err := s.transferRepo.Finalize(ctx, transfer.ID, domain.TransferStatusCompleted, "", event); err != nil {
				logger.Error("recovery promote transfer failed", err, logger.Fields{
					"transferId": transfer.ID,
				})
				continue
			}
			logger.Info("recovery promoted stuck transfer", logger.Fields{
				"transferId": transfer.ID,
			})
		default:
			event := newTransferEvent(transfer, domain.TransferStatusFailed, "recovery")
			if err := s.transferRepo.Finalize(ctx, transfer.ID, domain.TransferStatusFailed, "recovery", event); err != nil {
				logger.Error("recovery fail transfer failed", err, logger.Fields{
					"transferId": transfer.ID,
					"legs":       legs,
				})
				continue
			}
			logger.Info("recovery failed stuck transfer", logger.Fields{
				"transferId": transfer.ID,
				"legs":       legs,
			})
		}

		s.reportDrift(ctx, transfer.FromAccountID)
		s.reportDrift(ctx, transfer.ToAccountID)
	}

	return nil
}

func (s *TransferService) reportDrift(ctx context.Context, accountID int64) {
	account, err := s.accountRepo.Get(ctx, accountID)
	if err != nil {
		return
	}
	replayed, err := s.ledgerRepo.SumByAccount(ctx, accountID)
	if err != nil {
		return
	}
	if !replayed.Equal(account.Balance) {
		logger.Error("recovery balance drift detected", domain.ErrConflict, logger.Fields{
			"accountId": accountID,
			"cached":    account.Balance,
			"replayed":  replayed,
		})
	}
}

// failTransfer moves a processing transfer to failed with the originating
// reason and returns the mapped error response. The failure event lands in
// the outbox inside the same transaction as the status flip.
func (s *TransferService) failTransfer(ctx context.Context, transfer domain.Transfer, reason string, cause error) (commons.Response[models.TransferResponse], error) {
	event := newTransferEvent(transfer, domain.TransferStatusFailed, reason)
	if err := s.transferRepo.Finalize(ctx, transfer.ID, domain.TransferStatusFailed, reason, event); err != nil {
		logger.Error("transfer service mark failed failed", err, logger.Fields{
			"transferId": transfer.ID,
			"reason":     reason,
		})
	}

	logger.Info("transfer service transfer failed", logger.Fields{
		"transferId": transfer.ID,
		"reason":     reason,
	})

	code, _ := commons.CodeForError(cause)
	return commons.ErrorResponse[models.TransferResponse](code, "transfer failed", reason), cause
}

func checkAccountActive(account domain.Account) error {
	switch account.Status {
	case domain.AccountStatusActive:
		return nil
	case domain.AccountStatusFrozen:
		return domain.ErrAccountFrozen
	default:
		return domain.ErrAccountClosed
	}
}

// isPostingRejection reports whether the atomic posting failed a business
// re-check under lock, as opposed to the store being unavailable.
func isPostingRejection(err error) bool {
	return errors.Is(err, domain.ErrAccountFrozen) ||
		errors.Is(err, domain.ErrAccountClosed) ||
		errors.Is(err, domain.ErrInsufficientFunds) ||
		errors.Is(err, domain.ErrCurrencyMismatch)
}

func newTransferEvent(transfer domain.Transfer, status domain.TransferStatus, reason string) domain.OutboxMessage {
	eventType := domain.EventTransferCompleted
	if status == domain.TransferStatusFailed {
		eventType = domain.EventTransferFailed
	}

	payload, _ := json.Marshal(domain.TransferEvent{
		TransferID:    transfer.ID,
		FromAccountID: transfer.FromAccountID,
		ToAccountID:   transfer.ToAccountID,
		Amount:        transfer.Amount.StringFixed(2),
		Currency:      transfer.Currency,
		Status:        string(status),
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	})

	return domain.OutboxMessage{
		ID:         uuid.NewString(),
		TransferID: transfer.ID,
		EventType:  eventType,
		Payload:    payload,
		Status:     domain.OutboxStatusPending,
	}
}

func mapTransferToResponse(transfer domain.Transfer) models.TransferResponse {
	return models.TransferResponse{
		ID:            transfer.ID,
		FromAccountID: transfer.FromAccountID,
		ToAccountID:   transfer.ToAccountID,
		Amount:        transfer.Amount,
		Currency:      transfer.Currency,
		Type:          string(transfer.Type),
		Status:        string(transfer.Status),
		FailureReason: transfer.FailureReason,
		CreatedAt:     transfer.CreatedAt.Format(time.RFC3339),
		LastUpdatedAt: transfer.LastUpdatedAt.Format(time.RFC3339),
	}
}
