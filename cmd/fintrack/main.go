package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/amqp"
	"fintrack/internal/api"
	"fintrack/internal/api/handlers"
	"fintrack/internal/metrics"
	"fintrack/internal/provider"
	"fintrack/internal/repository"
	"fintrack/internal/service"
	"fintrack/internal/storage"
	"fintrack/pkg/config"
	"fintrack/pkg/logger"
	"fintrack/pkg/postgres"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

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

	appLogger.Info("starting fintrack server")

	if err := storage.RunMigrations(postgres.DSN(&cfg.Database)); err != nil {
		appLogger.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	collector := metrics.NewPrometheus(registry)

	ledger := repository.NewTransactionRepository(db, appLogger)
	budgets := repository.NewBudgetRepository(db, appLogger)
	aggregates := repository.NewAggregateRepository(db, appLogger)
	users := repository.NewUserRepository(db, appLogger)

	aggregator := service.NewAggregator(ledger, budgets, aggregates, collector, appLogger)
	classifier := service.NewPlaidClassifier()
	syncCoordinator := service.NewSyncCoordinator(ledger, classifier, aggregator, collector, appLogger)
	userService := service.NewUserService(users, ledger, budgets, aggregates, appLogger)

	plaidClient := provider.NewPlaidClient(&cfg.Plaid, collector, appLogger)

	var queue *amqp.Client
	if cfg.AMQP.Enabled {
		queue, err = amqp.NewClient(cfg.AMQP.URL, cfg.AMQP.ExchangeName, cfg.AMQP.QueueName, appLogger)
		if err != nil {
			appLogger.Fatal("failed to connect to AMQP", zap.Error(err))
		}
		defer queue.Close()
	}

	userHandler := handlers.NewUserHandler(userService, appLogger)
	budgetHandler := handlers.NewBudgetHandler(aggregator, budgets, aggregates, appLogger)
	transactionHandler := handlers.NewTransactionHandler(aggregator, ledger, appLogger)
	plaidHandler := handlers.NewPlaidHandler(plaidClient, syncCoordinator, queue, appLogger)

	app := api.SetupRouter(userHandler, budgetHandler, transactionHandler, plaidHandler, registry)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("server shutdown error", zap.Error(err))
	}
}
