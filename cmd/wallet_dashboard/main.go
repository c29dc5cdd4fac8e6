package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet_dashboard/internal/client"
	"wallet_dashboard/internal/config"
	"wallet_dashboard/internal/infrastructure/restapi"
	"wallet_dashboard/internal/pkg/utils"
	"wallet_dashboard/internal/registry"
	"wallet_dashboard/internal/service"
	"wallet_dashboard/pkg/metrics"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	// Bridge slog so libraries logging through the default slog logger
	// end up in the same stream.
	slog.SetDefault(slog.New(zapslog.NewHandler(zapLogger.Core())))

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))
	if cfg.Moralis.APIKey == "" {
		// Not fatal: the service starts, but every portfolio/history
		// request will be answered with a configuration error.
		zapLogger.Warn("MORALIS_API_KEY is not configured; portfolio requests will fail with a configuration error")
	}

	metrics.MustRegisterMetrics()

	reg := registry.NewDefault()
	if len(cfg.Networks) > 0 {
		reg, err = registry.New(cfg.Networks)
		if err != nil {
			zapLogger.Fatal("Invalid network configuration", zap.Error(err))
		}
	}
	zapLogger.Info("Chain registry initialized", zap.Int("networks", len(reg.All())))

	moralisClient := client.NewMoralisClient(
		cfg.Moralis.BaseURL,
		cfg.Moralis.APIKey,
		time.Duration(cfg.Moralis.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
		cfg.Moralis.PageLimit,
		cfg.Moralis.HistoryLimit,
	)
	coinGeckoClient := client.NewCoinGeckoClient(
		cfg.CoinGecko.BaseURL,
		cfg.CoinGecko.APIKey,
		time.Duration(cfg.CoinGecko.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)

	credentialed := cfg.Moralis.APIKey != ""
	balanceSvc := service.NewBalanceService(moralisClient, zapLogger)
	priceSvc := service.NewPriceService(coinGeckoClient, reg, cfg.PriceService, zapLogger)
	portfolioSvc := service.NewPortfolioService(balanceSvc, priceSvc, reg, cfg.Portfolio, credentialed, zapLogger)
	historySvc := service.NewHistoryService(moralisClient, reg, credentialed, zapLogger)

	portfolioHandler := restapi.NewPortfolioHandler(portfolioSvc, zapLogger)
	historyHandler := restapi.NewHistoryHandler(historySvc, zapLogger)
	router := restapi.SetupRouter(portfolioHandler, historyHandler, zapLogger)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}

func buildLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}
	logCfg := zap.NewProductionConfig()
	logCfg.Level = zap.NewAtomicLevelAt(parsed)
	return logCfg.Build()
}
