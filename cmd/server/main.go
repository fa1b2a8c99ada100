package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/isbank/ledger-core/internal/adapter/http/controller"
	"github.com/isbank/ledger-core/internal/adapter/http/middleware"
	"github.com/isbank/ledger-core/internal/adapter/http/router"
	"github.com/isbank/ledger-core/internal/adapter/repository/postgres"
	"github.com/isbank/ledger-core/internal/config"
	"github.com/isbank/ledger-core/internal/infra/kafka"
	"github.com/isbank/ledger-core/internal/logger"
	"github.com/isbank/ledger-core/internal/outbox"
	"github.com/isbank/ledger-core/internal/usecase/services"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Client contract: decimal amounts serialize as JSON numbers, not
	// quoted strings.
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := postgres.Open(startupCtx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(startupCtx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	logger.Info("migrations completed", nil)

	accountRepo := postgres.NewAccountRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)
	transferRepo := postgres.NewTransferRepository(db)
	riskRepo := postgres.NewRiskRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	riskService := services.NewRiskService(riskRepo, cfg.TransferLimit())
	accountService := services.NewAccountService(accountRepo, ledgerRepo, cfg.SupportedCurrencies)
	transferService := services.NewTransferService(transferRepo, accountRepo, ledgerRepo, riskService)

	// Resolve transfers a previous crash left in processing before serving
	// traffic.
	if err := transferService.RecoverStuckTransfers(startupCtx); err != nil {
		log.Fatalf("recover stuck transfers: %v", err)
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	outboxProcessor := outbox.NewProcessor(outboxRepo, producer, cfg.KafkaTransferEventTopic, cfg.OutboxPollInterval)

	authMiddleware := middleware.BasicAuth(cfg.ChannelID, cfg.ChannelKey)
	mux := router.New(
		controller.NewAccountController(accountService),
		controller.NewTransferController(transferService),
		authMiddleware,
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("http server listening", logger.Fields{
			"addr": cfg.HTTPAddr,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		return outboxProcessor.Run(groupCtx)
	})

	group.Go(func() error {
		ticker := time.NewTicker(cfg.RecoverySweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			case <-ticker.C:
				if err := transferService.RecoverStuckTransfers(groupCtx); err != nil {
					logger.Error("recovery sweep failed", err, nil)
				}
			}
		}
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("server exited: %v", err)
	}

	logger.Info("server stopped", nil)
}
