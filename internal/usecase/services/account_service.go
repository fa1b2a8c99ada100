package services

import (
	"context"
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

const defaultLedgerPageSize = 100

// Verify that AccountService implements the service_interfaces.AccountService interface
var _ service_interfaces.AccountService = (*AccountService)(nil)

type AccountService struct {
	accountRepo         repo_interfaces.AccountRepository
	ledgerRepo          repo_interfaces.LedgerRepository
	supportedCurrencies map[string]struct{}
}

func NewAccountService(
	accountRepo repo_interfaces.AccountRepository,
	ledgerRepo repo_interfaces.LedgerRepository,
	supportedCurrencies []string,
) *AccountService {
	supported := make(map[string]struct{}, len(supportedCurrencies))
	for _, currency := range supportedCurrencies {
		supported[strings.ToUpper(strings.TrimSpace(currency))] = struct{}{}
	}
	return &AccountService{
		accountRepo:         accountRepo,
		ledgerRepo:          ledgerRepo,
		supportedCurrencies: supported,
	}
}

func (s *AccountService) CreateAccount(ctx context.Context, req models.CreateAccountRequest) (commons.Response[models.AccountResponse], error) {
	logger.Info("account service create account request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.AccountResponse](commons.CodeValidationError, "validation failed", err.Error()),
			fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if _, ok := s.supportedCurrencies[currency]; !ok {
		err := fmt.Errorf("%w: %s", domain.ErrUnsupportedCurrency, currency)
		return commons.ErrorResponse[models.AccountResponse](commons.CodeValidationError, "validation failed", err.Error()), err
	}

	account := domain.Account{
		CustomerID: strings.TrimSpace(req.CustomerID),
		AccountNo:  generateAccountNo(),
		Currency:   currency,
		Status:     domain.AccountStatusActive,
	}

	created, err := s.accountRepo.Create(ctx, account)
	if err != nil {
		logger.Error("account service create account repository failed", err, logger.Fields{
			"customerId": account.CustomerID,
		})
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[models.AccountResponse](code, "failed to create account", "Unable to create account right now"), err
	}

	logger.Info("account service create account success", logger.Fields{
		"accountId":  created.ID,
		"accountNo":  created.AccountNo,
		"customerId": created.CustomerID,
	})

	return commons.SuccessResponse("account created successfully", mapAccountToResponse(created)), nil
}

func (s *AccountService) GetAccount(ctx context.Context, id int64) (commons.Response[models.AccountResponse], error) {
	account, err := s.accountRepo.Get(ctx, id)
	if err != nil {
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[models.AccountResponse](code, "failed to fetch account", err.Error()), err
	}

	return commons.SuccessResponse("account fetched successfully", mapAccountToResponse(account)), nil
}

func (s *AccountService) ListAccounts(ctx context.Context) (commons.Response[[]models.AccountResponse], error) {
	accounts, err := s.accountRepo.List(ctx)
	if err != nil {
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[[]models.AccountResponse](code, "failed to list accounts", err.Error()), err
	}

	responses := make([]models.AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		responses = append(responses, mapAccountToResponse(account))
	}

	return commons.SuccessResponse("accounts fetched successfully", responses), nil
}

func (s *AccountService) GetLedger(ctx context.Context, accountID int64, limit, offset int) (commons.Response[[]models.LedgerEntryResponse], error) {
	if limit <= 0 {
		limit = defaultLedgerPageSize
	}
	if offset < 0 {
		offset = 0
	}

	// Resolve the account first so an unknown id is a 404, not an empty page.
	if _, err := s.accountRepo.Get(ctx, accountID); err != nil {
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[[]models.LedgerEntryResponse](code, "failed to fetch ledger", err.Error()), err
	}

	entries, err := s.ledgerRepo.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		logger.Error("account service list ledger failed", err, logger.Fields{
			"accountId": accountID,
		})
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[[]models.LedgerEntryResponse](code, "failed to fetch ledger", err.Error()), err
	}

	responses := make([]models.LedgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, mapLedgerEntryToResponse(entry))
	}

	return commons.SuccessResponse("ledger fetched successfully", responses), nil
}

func (s *AccountService) FreezeAccount(ctx context.Context, id int64) (commons.Response[models.AccountResponse], error) {
	return s.updateStatus(ctx, id, domain.AccountStatusActive, domain.AccountStatusFrozen, "freeze")
}

func (s *AccountService) UnfreezeAccount(ctx context.Context, id int64) (commons.Response[models.AccountResponse], error) {
	return s.updateStatus(ctx, id, domain.AccountStatusFrozen, domain.AccountStatusActive, "unfreeze")
}

// updateStatus performs one guarded lifecycle move. A second freeze on an
// already-frozen account is an error, not a no-op, so operator mistakes
// surface instead of being swallowed.
func (s *AccountService) updateStatus(ctx context.Context, id int64, from, to domain.AccountStatus, action string) (commons.Response[models.AccountResponse], error) {
	account, err := s.accountRepo.Get(ctx, id)
	if err != nil {
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[models.AccountResponse](code, "failed to "+action+" account", err.Error()), err
	}

	if account.Status != from {
		err := fmt.Errorf("%w: cannot %s account in status %s", domain.ErrInvalidStateTransition, action, account.Status)
		return commons.ErrorResponse[models.AccountResponse](commons.CodeInvalidStateTransition, "failed to "+action+" account", err.Error()), err
	}

	if err := s.accountRepo.UpdateStatus(ctx, id, from, to); err != nil {
		logger.Error("account service "+action+" failed", err, logger.Fields{
			"accountId": id,
		})
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[models.AccountResponse](code, "failed to "+action+" account", err.Error()), err
	}

	updated, err := s.accountRepo.Get(ctx, id)
	if err != nil {
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[models.AccountResponse](code, "failed to "+action+" account", err.Error()), err
	}

	logger.Info("account service "+action+" success", logger.Fields{
		"accountId": id,
		"status":    updated.Status,
	})

	return commons.SuccessResponse("account "+string(to), mapAccountToResponse(updated)), nil
}

func (s *AccountService) DebitAccount(ctx context.Context, req models.PostingRequest) (commons.Response[models.LedgerEntryResponse], error) {
	return s.postLeg(ctx, req, domain.DirectionDebit)
}

func (s *AccountService) CreditAccount(ctx context.Context, req models.PostingRequest) (commons.Response[models.LedgerEntryResponse], error) {
	return s.postLeg(ctx, req, domain.DirectionCredit)
}

func (s *AccountService) postLeg(ctx context.Context, req models.PostingRequest, direction domain.Direction) (commons.Response[models.LedgerEntryResponse], error) {
	logger.Info("account service posting request", logger.Fields{
		"payload":   logger.SanitizePayload(req),
		"direction": direction,
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.LedgerEntryResponse](commons.CodeValidationError, "validation failed", err.Error()),
			fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	account, err := s.accountRepo.Get(ctx, req.AccountID)
	if err != nil {
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[models.LedgerEntryResponse](code, "failed to post entry", err.Error()), err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if !strings.EqualFold(account.Currency, currency) {
		err := fmt.Errorf("%w: account holds %s", domain.ErrCurrencyMismatch, account.Currency)
		return commons.ErrorResponse[models.LedgerEntryResponse](commons.CodeValidationError, "validation failed", err.Error()), err
	}

	entry, err := s.ledgerRepo.AppendEntry(ctx, req.AccountID, direction, req.Amount, strings.TrimSpace(req.TransactionID))
	if err != nil {
		logger.Error("account service posting failed", err, logger.Fields{
			"accountId":     req.AccountID,
			"transactionId": req.TransactionID,
			"direction":     direction,
		})
		code, _ := commons.CodeForError(err)
		return commons.ErrorResponse[models.LedgerEntryResponse](code, "failed to post entry", err.Error()), err
	}

	logger.Info("account service posting success", logger.Fields{
		"accountId":     entry.AccountID,
		"transactionId": entry.TransactionID,
		"direction":     entry.Direction,
		"entryId":       entry.ID,
	})

	return commons.SuccessResponse("entry posted successfully", mapLedgerEntryToResponse(entry)), nil
}

func mapAccountToResponse(account domain.Account) models.AccountResponse {
	return models.AccountResponse{
		ID:         account.ID,
		CustomerID: account.CustomerID,
		AccountNo:  account.AccountNo,
		Currency:   account.Currency,
		Balance:    account.Balance,
		Status:     string(account.Status),
		CreatedAt:  account.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  account.UpdatedAt.Format(time.RFC3339),
	}
}

func mapLedgerEntryToResponse(entry domain.LedgerEntry) models.LedgerEntryResponse {
	return models.LedgerEntryResponse{
		ID:            entry.ID,
		AccountID:     entry.AccountID,
		TransactionID: entry.TransactionID,
		Direction:     string(entry.Direction),
		Amount:        entry.Amount,
		BalanceAfter:  entry.BalanceAfter,
		OccurredAt:    entry.OccurredAt.Format(time.RFC3339),
	}
}

func generateAccountNo() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("ACC%d%s", time.Now().UTC().UnixMilli(), raw[:8])
}
