package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kaayjang/kaayjang-web/internal/pkg/config"
	"github.com/kaayjang/kaayjang-web/internal/server"
	"github.com/kaayjang/kaayjang-web/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Options{
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
		Format: cfg.Observability.LogFormat,
	},
		zap.String("service", cfg.Observability.ServiceName),
		zap.String("version", version),
	); err != nil {
		return err
	}
	defer func() { _ = logger.Log.Sync() }()

	otelShutdown, err := server.InitObservability(cfg.Observability, version, logger.Named("otel"))
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	srv, err := server.New(cfg, logger.Named("server"))
	if err != nil {
		return err
	}
	srv.SetRouter(server.SetupRouter(cfg, srv.Dependencies(), logger.Named("http")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Log.Error("Server error", zap.Error(err))
		return err
	}
	logger.Log.Info("Graceful shutdown complete")
	return nil
}
