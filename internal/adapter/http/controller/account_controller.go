package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/isbank/ledger-core/internal/adapter/http/models"
	"github.com/isbank/ledger-core/internal/commons"
	"github.com/isbank/ledger-core/internal/logger"
)

type AccountService interface {
	CreateAccount(ctx context.Context, req models.CreateAccountRequest) (commons.Response[models.AccountResponse], error)
	GetAccount(ctx context.Context, id int64) (commons.Response[models.AccountResponse], error)
	ListAccounts(ctx context.Context) (commons.Response[[]models.AccountResponse], error)
	GetLedger(ctx context.Context, accountID int64, limit, offset int) (commons.Response[[]models.LedgerEntryResponse], error)
	FreezeAccount(ctx context.Context, id int64) (commons.Response[models.AccountResponse], error)
	UnfreezeAccount(ctx context.Context, id int64) (commons.Response[models.AccountResponse], error)
	DebitAccount(ctx context.Context, req models.PostingRequest) (commons.Response[models.LedgerEntryResponse], error)
	CreditAccount(ctx context.Context, req models.PostingRequest) (commons.Response[models.LedgerEntryResponse], error)
}

type AccountController struct {
	service AccountService
}

func NewAccountController(service AccountService) *AccountController {
	return &AccountController{service: service}
}

func (c *AccountController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /account/accounts", c.createAccount)
	mux.HandleFunc("GET /account/accounts", c.listAccounts)
	mux.HandleFunc("GET /account/accounts/{id}", c.getAccount)
	mux.HandleFunc("GET /account/accounts/{id}/ledger", c.getLedger)
	mux.HandleFunc("POST /account/accounts/{id}/freeze", c.freezeAccount)
	mux.HandleFunc("POST /account/accounts/{id}/unfreeze", c.unfreezeAccount)

	// Single-leg postings sit behind channel credentials; everything else
	// on this controller is open to the front end.
	debit := http.Handler(http.HandlerFunc(c.debitAccount))
	credit := http.Handler(http.HandlerFunc(c.creditAccount))
	if authMiddleware != nil {
		debit = authMiddleware(debit)
		credit = authMiddleware(credit)
	}
	mux.Handle("POST /internal/accounts/debit", debit)
	mux.Handle("POST /internal/accounts/credit", credit)
}

func (c *AccountController) createAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.AccountResponse](commons.CodeValidationError, "invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.CreateAccount(r.Context(), req)
	if err != nil {
		_, status := commons.CodeForError(err)
		logError(r, err, logger.Fields{"message": response.Message})
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

func (c *AccountController) listAccounts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.ListAccounts(r.Context())
	if err != nil {
		_, status := commons.CodeForError(err)
		logError(r, err, nil)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *AccountController) getAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	id, ok := pathID[models.AccountResponse](w, r, start)
	if !ok {
		return
	}

	response, err := c.service.GetAccount(r.Context(), id)
	if err != nil {
		_, status := commons.CodeForError(err)
		logError(r, err, logger.Fields{"accountId": id})
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *AccountController) getLedger(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	id, ok := pathID[[]models.LedgerEntryResponse](w, r, start)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	response, err := c.service.GetLedger(r.Context(), id, limit, offset)
	if err != nil {
		_, status := commons.CodeForError(err)
		logError(r, err, logger.Fields{"accountId": id})
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *AccountController) freezeAccount(w http.ResponseWriter, r *http.Request) {
	c.changeStatus(w, r, c.service.FreezeAccount)
}

func (c *AccountController) unfreezeAccount(w http.ResponseWriter, r *http.Request) {
	c.changeStatus(w, r, c.service.UnfreezeAccount)
}

func (c *AccountController) changeStatus(w http.ResponseWriter, r *http.Request, call func(context.Context, int64) (commons.Response[models.AccountResponse], error)) {
	start := time.Now()
	logRequest(r, nil)

	id, ok := pathID[models.AccountResponse](w, r, start)
	if !ok {
		return
	}

	response, err := call(r.Context(), id)
	if err != nil {
		_, status := commons.CodeForError(err)
		logError(r, err, logger.Fields{"accountId": id})
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *AccountController) debitAccount(w http.ResponseWriter, r *http.Request) {
	c.postLeg(w, r, c.service.DebitAccount)
}

func (c *AccountController) creditAccount(w http.ResponseWriter, r *http.Request) {
	c.postLeg(w, r, c.service.CreditAccount)
}

func (c *AccountController) postLeg(w http.ResponseWriter, r *http.Request, call func(context.Context, models.PostingRequest) (commons.Response[models.LedgerEntryResponse], error)) {
	start := time.Now()

	var req models.PostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.LedgerEntryResponse](commons.CodeValidationError, "invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := call(r.Context(), req)
	if err != nil {
		_, status := commons.CodeForError(err)
		logError(r, err, logger.Fields{"message": response.Message})
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

// pathID parses the {id} path segment. A non-numeric id is a validation
// error, not a 404, so malformed URLs are distinguishable from unknown
// accounts.
func pathID[T any](w http.ResponseWriter, r *http.Request, start time.Time) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		response := commons.ErrorResponse[T](commons.CodeValidationError, "validation failed", "id must be a positive integer")
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
