package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/app"
	"github.com/identity-tenancy-api/internal/config"
	"github.com/identity-tenancy-api/internal/worker"
)

// Worker consumes tenant lifecycle events: created tenants get their
// display-name config cached, deleted tenants get their cache dropped.
func main() {
	configFile := flag.String("config", "", "path to a config file")
	flag.Parse()

	cfg, err := config.Load(config.New(), *configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := app.NewLogger(cfg, "worker")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize", zap.Error(err))
	}
	defer a.Close()
	if a.Cache == nil {
		logger.Fatal("worker requires redis, set redis.host")
	}

	p := worker.NewProcessor(a.Cache, a.DisplayNames, a.Cache, logger)
	if err := p.Run(ctx); err != nil {
		logger.Error("worker stopped with error", zap.Error(err))
	}
	logger.Info("worker exited")
}
