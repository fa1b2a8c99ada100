package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/isbank/ledger-core/internal/adapter/http/models"
	"github.com/isbank/ledger-core/internal/commons"
	"github.com/isbank/ledger-core/internal/logger"
)

type TransferService interface {
	CreateTransfer(ctx context.Context, req models.CreateTransferRequest) (commons.Response[models.TransferResponse], error)
	GetTransfer(ctx context.Context, id int64) (commons.Response[models.TransferResponse], error)
}

type TransferController struct {
	service TransferService
}

func NewTransferController(service TransferService) *TransferController {
	return &TransferController{service: service}
}

func (c *TransferController) RegisterRoutes(mux *http.ServeMux, _ func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /transfer/transfers", c.createTransfer)
	mux.HandleFunc("GET /transfer/transfers/{id}", c.getTransfer)
}

func (c *TransferController) createTransfer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.TransferResponse](commons.CodeValidationError, "invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.CreateTransfer(r.Context(), req)
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

func (c *TransferController) getTransfer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	id, ok := pathID[models.TransferResponse](w, r, start)
	if !ok {
		return
	}

	response, err := c.service.GetTransfer(r.Context(), id)
	if err != nil {
		_, status := commons.CodeForError(err)
		logError(r, err, logger.Fields{"transferId": id})
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
