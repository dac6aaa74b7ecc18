package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"marketplace-backend/internal/client"
	"marketplace-backend/internal/config"
	"marketplace-backend/internal/handler"
	"marketplace-backend/internal/notify"
	"marketplace-backend/internal/repository"
	"marketplace-backend/internal/server"
	"marketplace-backend/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := client.InitDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}

	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	var notifier notify.Notifier
	if cfg.Redis.Addr != "" {
		notifier = notify.NewRedisNotifier(cfg.Redis.Addr, logger)
		logger.Info("live notifier on redis pub/sub", zap.String("addr", cfg.Redis.Addr))
	} else {
		notifier = notify.NewHub(logger)
	}

	// Catalog and address lookups run off the checkout-time snapshots the
	// webhook notes already carry, so both collaborators stay nil until a
	// live catalog or address service backs them.
	expander := service.NewExpander(nil, nil)
	webhookService := service.NewWebhookService(
		service.WebhookConfig{
			WebhookSecret: cfg.Provider.WebhookSecret,
			FanOut:        cfg.Pipeline.FanOut,
			Timeout:       cfg.Pipeline.Timeout,
		},
		expander,
		orderRepo,
		paymentRepo,
		webhookEventRepo,
		notifier,
		logger,
	)
	paymentService := service.NewPaymentService(cfg.Provider.KeySecret, paymentRepo, orderRepo, logger)
	orderService := service.NewOrderService(orderRepo, logger)

	srv := server.NewServer(
		handler.NewWebhookHandler(webhookService),
		handler.NewPaymentHandler(paymentService),
		handler.NewOrderHandler(orderService),
		handler.NewSSEHandler(notifier),
		cfg.JWTSecret,
	)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	logger.Info("starting HTTP server", zap.String("addr", serverAddr))
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logger.Info("signal received, starting graceful shutdown")

	// Let in-flight materializations finish before the process goes away.
	webhookService.Drain()
	if hub, ok := notifier.(*notify.Hub); ok {
		hub.Close()
	}

	if err := srv.Shutdown(); err != nil {
		logger.Fatal("HTTP server shutdown error", zap.Error(err))
	}
}

func newLogger(cfg config.Log) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
