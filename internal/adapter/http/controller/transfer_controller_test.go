package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/isbank/ledger-core/internal/adapter/http/models"
	"github.com/isbank/ledger-core/internal/commons"
	"github.com/isbank/ledger-core/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTransferService struct {
	response commons.Response[models.TransferResponse]
	err      error
}

func (s *stubTransferService) CreateTransfer(ctx context.Context, req models.CreateTransferRequest) (commons.Response[models.TransferResponse], error) {
	return s.response, s.err
}

func (s *stubTransferService) GetTransfer(ctx context.Context, id int64) (commons.Response[models.TransferResponse], error) {
	return s.response, s.err
}

func newTransferMux(svc TransferService) *http.ServeMux {
	mux := http.NewServeMux()
	NewTransferController(svc).RegisterRoutes(mux, nil)
	return mux
}

func TestCreateTransferReturnsCreated(t *testing.T) {
	svc := &stubTransferService{
		response: commons.SuccessResponse("transfer completed successfully", models.TransferResponse{
			ID:     9,
			Status: "completed",
		}),
	}
	mux := newTransferMux(svc)

	body := strings.NewReader(`{"fromAccountId":1,"toAccountId":2,"amount":100.00,"currency":"USD"}`)
	req := httptest.NewRequest(http.MethodPost, "/transfer/transfers", body)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var decoded commons.Response[models.TransferResponse]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decoded))
	require.NotNil(t, decoded.Data)
	assert.Equal(t, "completed", decoded.Data.Status)
}

func TestCreateTransferFrozenAccountMapsTo422(t *testing.T) {
	svc := &stubTransferService{
		response: commons.ErrorResponse[models.TransferResponse](commons.CodeAccountFrozen, "transfer failed", "account is frozen"),
		err:      domain.ErrAccountFrozen,
	}
	mux := newTransferMux(svc)

	body := strings.NewReader(`{"fromAccountId":1,"toAccountId":2,"amount":100.00,"currency":"USD"}`)
	req := httptest.NewRequest(http.MethodPost, "/transfer/transfers", body)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var decoded commons.Response[models.TransferResponse]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decoded))
	assert.Equal(t, commons.CodeAccountFrozen, decoded.Code)
}

func TestGetTransferNotFoundMapsTo404(t *testing.T) {
	svc := &stubTransferService{
		response: commons.ErrorResponse[models.TransferResponse](commons.CodeNotFound, "failed to fetch transfer", "transfer not found"),
		err:      domain.ErrTransferNotFound,
	}
	mux := newTransferMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/transfer/transfers/404", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateTransferRejectsMalformedBody(t *testing.T) {
	mux := newTransferMux(&stubTransferService{})

	req := httptest.NewRequest(http.MethodPost, "/transfer/transfers", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
