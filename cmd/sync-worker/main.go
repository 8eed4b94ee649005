package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/amqp"
	"fintrack/internal/metrics"
	"fintrack/internal/provider"
	"fintrack/internal/repository"
	"fintrack/internal/service"
	"fintrack/pkg/config"
	"fintrack/pkg/logger"
	"fintrack/pkg/postgres"

	"go.uber.org/zap"
)

// The sync worker drains queued provider-sync requests: it pulls the
// trailing year of transactions from the provider and folds them into the
// ledger and budget aggregates.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger, err := logger.New(cfg.Logger.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("starting sync worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ledger := repository.NewTransactionRepository(db, appLogger)
	budgets := repository.NewBudgetRepository(db, appLogger)
	aggregates := repository.NewAggregateRepository(db, appLogger)

	collector := metrics.NoOp{}
	aggregator := service.NewAggregator(ledger, budgets, aggregates, collector, appLogger)
	syncCoordinator := service.NewSyncCoordinator(ledger, service.NewPlaidClassifier(), aggregator, collector, appLogger)
	plaidClient := provider.NewPlaidClient(&cfg.Plaid, collector, appLogger)

	queue, err := amqp.NewClient(cfg.AMQP.URL, cfg.AMQP.ExchangeName, cfg.AMQP.QueueName, appLogger)
	if err != nil {
		appLogger.Fatal("failed to connect to AMQP", zap.Error(err))
	}
	defer queue.Close()

	err = queue.ConsumeSyncRequests(ctx, func(msg *amqp.SyncRequestMessage) error {
		txns, err := plaidClient.GetTransactions(ctx, msg.AccessToken)
		if err != nil {
			return fmt.Errorf("fetch provider transactions: %w", err)
		}

		records, err := provider.ToSyncRecords(txns)
		if err != nil {
			return fmt.Errorf("convert provider transactions: %w", err)
		}

		result, err := syncCoordinator.Sync(ctx, msg.UserID, records)
		if err != nil {
			return fmt.Errorf("sync transactions: %w", err)
		}

		appLogger.Info("queued sync completed",
			zap.String("user_id", msg.UserID),
			zap.Int("transactions", result.Transactions),
			zap.Int("budgets_touched", result.BudgetsTouched),
		)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Fatal("consumer stopped", zap.Error(err))
	}

	appLogger.Info("sync worker stopped")
}
