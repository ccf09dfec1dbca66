package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/app"
	"github.com/identity-tenancy-api/internal/config"
	adminHandlers "github.com/identity-tenancy-api/internal/handlers/admin"
	"github.com/identity-tenancy-api/internal/storage"
)

// Admin API: tenant lifecycle, display names and password rules.
func main() {
	configFile := flag.String("config", "", "path to a config file")
	flag.Parse()

	cfg, err := config.Load(config.New(), *configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := app.NewLogger(cfg, "admin-api")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	gin.SetMode(cfg.AdminAPI.GinMode)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize", zap.Error(err))
	}
	defer a.Close()

	if _, created, err := a.Tenants.InitDefaultTenant(ctx); err != nil {
		logger.Warn("default tenant not initialized", zap.Error(err))
	} else if created {
		logger.Info("default tenant initialized", zap.String("tenant_id", cfg.App.DefaultTenantID()))
	}

	handlers := adminHandlers.Handlers{
		Tenants:       adminHandlers.NewTenantHandler(a.Tenants, logger),
		DisplayNames:  adminHandlers.NewDisplayNameHandler(a.DisplayNames, logger),
		PasswordRules: adminHandlers.NewPasswordRuleHandler(a.PasswordRules, logger),
		DataSources:   adminHandlers.NewDataSourceHandler(a.Store, logger),
	}
	if local, ok := a.Files.(*storage.LocalStorage); ok {
		handlers.UploadsPath = local.BasePath()
	}
	router := adminHandlers.NewRouter(&cfg.AdminAPI, handlers)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.AdminAPI.Port),
		Handler: router,
	}

	go func() {
		logger.Info("admin API listening", zap.String("port", cfg.AdminAPI.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down admin API")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin API forced to shutdown", zap.Error(err))
	}

	logger.Info("admin API exited")
}
