// File: cmd/app/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet-flows/internal/config"
	"wallet-flows/internal/domain/ports/service"
	"wallet-flows/internal/infra/adapters/device"
	"wallet-flows/internal/infra/adapters/walletapi"
	pg "wallet-flows/internal/infra/db/postgres"
	"wallet-flows/internal/infra/logging"
	"wallet-flows/internal/infra/metrics"
	red "wallet-flows/internal/infra/redis"
	"wallet-flows/internal/infra/scheduler"
	"wallet-flows/internal/infra/web"
	"wallet-flows/internal/infra/worker"
	"wallet-flows/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	logging.Global = *logger
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool := pg.MustConnectPostgres(cfg.Database.URL)
	defer pool.Close()
	txManager := pg.NewTxManager(pool)
	attemptRepo := pg.NewLoginAttemptRepo(pool, txManager)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	eventCache := red.NewEventCache(redisClient)
	appSettings := red.NewAppSettings(redisClient, logger)

	// ---- Wallet API adapters ----
	apiClient := walletapi.NewClient(cfg.WalletAPI.BaseURL, cfg.WalletAPI.APIKey, cfg.WalletAPI.Timeout)
	authSvc := walletapi.NewAuthService(apiClient, logger)
	buySellSvc := walletapi.NewBuySellService(apiClient, logger)
	pinSvc := walletapi.NewPinService(apiClient, logger)
	credStore := walletapi.NewCredentialsStoreService(apiClient, logger)

	// ---- Device-side collaborators ----
	alertPresenter := device.NewLogAlertPresenter(logger)
	decryptLauncher := device.NewLogDecryptionLauncher(logger)
	biometry := device.NewNoopBiometry(service.BiometryNone)
	reachability := device.NewHTTPReachability(cfg.WalletAPI.BaseURL)

	// ---- Effect workers ----
	effectPool := worker.NewPool(cfg.Web.Workers)
	effectPool.Start(ctx)
	defer effectPool.Stop()

	// ---- Use cases ----
	attempts := usecase.NewAttemptRecorder(cfg.Auth.MaxAttempts, attemptRepo, logger)
	credentials := usecase.NewCredentialsFlow(
		authSvc, authSvc, authSvc, authSvc, authSvc,
		decryptLauncher, attempts, effectPool,
		usecase.AlertCopy{
			GenericErrorTitle:   cfg.Alerts.GenericErrorTitle,
			GenericErrorMessage: cfg.Alerts.GenericErrorMessage,
			EmailAuthTitle:      cfg.Alerts.EmailAuthTitle,
			EmailAuthMessage:    cfg.Alerts.EmailAuthMessage,
			SMSCodeSentTitle:    cfg.Alerts.SMSCodeSentTitle,
			SMSCodeSentMessage:  cfg.Alerts.SMSCodeSentMessage,
		},
		logger,
	)
	credentials.SetPollInterval(cfg.Auth.PollInterval)

	buyFlow := usecase.NewBuyFlowService(buySellSvc, buySellSvc, buySellSvc, eventCache, alertPresenter, logger)

	pinPresenter := usecase.NewPinPresenter(
		usecase.PinUseCaseAuthenticateOnLogin,
		pinSvc, biometry, appSettings, credStore, reachability, attempts, logger,
	)
	_ = pinPresenter // driven by the mobile shell, not the HTTP surface

	// ---- Audit retention ----
	pruner := scheduler.NewScheduler(time.Hour, 90*24*time.Hour, attemptRepo)
	pruner.Start(ctx)
	defer pruner.Stop()

	// ---- HTTP server ----
	authManager := web.NewAuthManager(cfg.Auth.JWTSecret, !cfg.Runtime.Dev, "", cfg.Auth.TokenTTL)
	srv := web.NewServer(buyFlow, credentials, authManager, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Web.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}
	cancel()
}
