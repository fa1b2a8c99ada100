package service_interfaces

import (
	"context"

	"github.com/isbank/ledger-core/internal/adapter/http/models"
	"github.com/isbank/ledger-core/internal/commons"
)

type TransferService interface {
	CreateTransfer(ctx context.Context, req models.CreateTransferRequest) (commons.Response[models.TransferResponse], error)
	GetTransfer(ctx context.Context, id int64) (commons.Response[models.TransferResponse], error)

	// ReverseTransfer compensates a completed transfer with two opposite
	// legs. Operational surface only, not routed over HTTP.
	ReverseTransfer(ctx context.Context, id int64) (commons.Response[models.TransferResponse], error)

	// RecoverStuckTransfers resolves transfers left in processing by a
	// crash: promoted to completed when both legs are durable, failed
	// otherwise.
	RecoverStuckTransfers(ctx context.Context) error
}
