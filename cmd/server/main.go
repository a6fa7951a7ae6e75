// Package main provides the API server entry point for the project analyzer.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/project-analyzer/internal/adapter"
	"github.com/project-analyzer/internal/api"
	"github.com/project-analyzer/internal/config"
	"github.com/project-analyzer/internal/logging"
	"github.com/project-analyzer/internal/service"
	"github.com/project-analyzer/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Database connections
	logger.Info("Connecting to databases...")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to ClickHouse")
	}
	defer clickhouse.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	// Repositories
	userRepo := storage.NewUserRepository(postgres)
	analysisRepo := storage.NewAnalysisRepository(postgres)
	paymentRepo := storage.NewPaymentRepository(postgres)
	indexerRepo := storage.NewIndexerRepository(postgres)
	settingsRepo := storage.NewSettingsRepository(postgres)
	toolDataRepo := storage.NewToolDataRepository(postgres)
	blockchainRepo := storage.NewBlockchainRepository(postgres)
	summaryRepo := storage.NewSummaryRepository(postgres)
	historyRepo := storage.NewHistoryRepository(clickhouse)

	cacheService := storage.NewCacheService(redis, cfg.Cache.TTL)

	// External providers
	ethereumClient, err := adapter.NewEthereumClient(cfg.Ethereum.RPCPrimary, cfg.Ethereum.RPCSecondary, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Ethereum RPC")
	}
	defer ethereumClient.Close()

	etherscanClient := adapter.NewEtherscanClient(cfg.Etherscan.APIKey)
	anthropicClient := adapter.NewAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model, logger)

	// Services
	logger.Info("Initializing services...")

	analysisService := service.NewAnalysisService(analysisRepo, historyRepo, cacheService, logger)
	paymentService := service.NewPaymentService(paymentRepo, logger)
	blockchainService := service.NewBlockchainService(ethereumClient, etherscanClient, analysisService, logger)
	insightService := service.NewInsightService(anthropicClient, cfg.Anthropic.Model, analysisRepo, analysisService, logger)
	summaryService := service.NewSummaryService(summaryRepo, analysisRepo, cacheService, logger)
	projectService := service.NewProjectService(analysisRepo, summaryRepo, historyRepo, cacheService, logger)

	logger.Info("Services initialized")

	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		FreeTierRPS:     cfg.RateLimit.FreeTier,
		PaidTierRPS:     cfg.RateLimit.PaidTier,
	}

	server := api.NewServer(serverConfig, api.Deps{
		AnalysisService:   analysisService,
		PaymentService:    paymentService,
		BlockchainService: blockchainService,
		InsightService:    insightService,
		SummaryService:    summaryService,
		ProjectService:    projectService,
		UserRepo:          userRepo,
		IndexerRepo:       indexerRepo,
		SettingsRepo:      settingsRepo,
		ToolDataRepo:      toolDataRepo,
		BlockRepo:         blockchainRepo,
	}, logger)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}

	logger.Info("Server stopped")
}
