package main

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/castlepay/payments/internal/config"
	"github.com/castlepay/payments/internal/fx"
	"github.com/castlepay/payments/internal/handler"
	"github.com/castlepay/payments/internal/logging"
	"github.com/castlepay/payments/internal/middleware"
	"github.com/castlepay/payments/internal/repository"
	"github.com/castlepay/payments/internal/service"
)

//go:embed openapi.yaml
var openapiSpec []byte

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("payments-api", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	accountRepo := repository.NewAccountRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	apiKeyRepo := repository.NewAPIKeyRepository(db)
	webhookRepo := repository.NewWebhookRepository(db)

	fxService := fx.NewService()
	if cfg.RateFluctuation {
		fxService.EnableFluctuation()
		slog.Info("exchange rate fluctuation enabled")
	}

	accountService := service.NewAccountService(accountRepo)
	ledgerService := service.NewLedgerService(ledgerRepo, accountRepo, webhookRepo)
	apiKeyService := service.NewAPIKeyService(apiKeyRepo)
	webhookService := service.NewWebhookService(webhookRepo)

	worker := service.NewDeliveryWorker(
		webhookRepo,
		&http.Client{Timeout: 10 * time.Second},
		slog.Default(),
		time.Duration(cfg.WebhookPollIntervalMS)*time.Millisecond,
		cfg.WebhookBatchSize,
	)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	var workerWG sync.WaitGroup
	workerWG.Add(1)
	go func() {
		defer workerWG.Done()
		worker.Start(workerCtx)
	}()

	accounts := handler.NewAccountHandler(accountService)
	transactions := handler.NewTransactionHandler(ledgerService)
	keys := handler.NewAPIKeyHandler(apiKeyService)
	webhooks := handler.NewWebhookHandler(webhookService)
	rates := handler.NewFXHandler(fxService)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health)
	mux.Handle("GET /docs", handler.ServeDocs())
	mux.Handle("GET /docs/openapi.yaml", handler.ServeSpec(openapiSpec))

	mux.HandleFunc("POST /api/bootstrap", keys.Bootstrap)
	mux.HandleFunc("POST /api/keys", keys.Create)
	mux.HandleFunc("GET /api/keys", keys.List)
	mux.HandleFunc("DELETE /api/keys/{id}", keys.Delete)

	mux.HandleFunc("POST /api/accounts", accounts.Create)
	mux.HandleFunc("GET /api/accounts", accounts.List)
	mux.HandleFunc("GET /api/accounts/{id}", accounts.Get)
	mux.HandleFunc("GET /api/accounts/{id}/transactions", transactions.ListForAccount)

	mux.HandleFunc("POST /api/transactions/deposit", transactions.Deposit)
	mux.HandleFunc("POST /api/transactions/withdraw", transactions.Withdraw)
	mux.HandleFunc("POST /api/transactions/transfer", transactions.Transfer)
	mux.HandleFunc("GET /api/transactions/{id}", transactions.Get)

	mux.HandleFunc("POST /api/webhooks", webhooks.Register)
	mux.HandleFunc("GET /api/webhooks", webhooks.List)

	mux.HandleFunc("GET /api/rates/{base}", rates.Rates)
	mux.HandleFunc("POST /api/convert", rates.Convert)

	limiter := middleware.NewRateLimiter(
		cfg.RateLimitRequests,
		time.Duration(cfg.RateLimitWindowS)*time.Second,
	)

	// The limiter keys on the raw Authorization header, so it sits outside
	// Auth; Logging sits inside Auth so request logs carry the key identity.
	var root http.Handler = mux
	root = middleware.Recovery(root)
	root = middleware.Logging(root)
	root = middleware.Auth(apiKeyRepo)(root)
	root = limiter.Middleware(root)
	root = middleware.RequestID(root)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	stopWorker()
	workerWG.Wait()
	slog.Info("server stopped")
}

func connectDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}

	var err error
	for attempt := range 30 {
		var db *sql.DB
		db, err = repository.NewPostgresDB(ctx, cfg.DatabaseURL, pool)
		if err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", attempt+1)
		time.Sleep(time.Second)
	}

	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}
