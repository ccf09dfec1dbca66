// Package app wires configuration, persistence and services for the binaries.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/cache"
	"github.com/identity-tenancy-api/internal/config"
	"github.com/identity-tenancy-api/internal/database"
	"github.com/identity-tenancy-api/internal/logger"
	"github.com/identity-tenancy-api/internal/passwd"
	"github.com/identity-tenancy-api/internal/repository"
	"github.com/identity-tenancy-api/internal/repository/memory"
	"github.com/identity-tenancy-api/internal/repository/postgres"
	"github.com/identity-tenancy-api/internal/services/displayname"
	"github.com/identity-tenancy-api/internal/services/idgen"
	"github.com/identity-tenancy-api/internal/services/passwordrule"
	"github.com/identity-tenancy-api/internal/services/tenant"
	"github.com/identity-tenancy-api/internal/storage"
)

type App struct {
	Config *config.Config
	Log    *zap.Logger
	Store  repository.Store
	DB     *database.Manager
	Cache  *cache.Client
	Files  storage.StorageDriver

	Tenants       *tenant.Service
	DisplayNames  *displayname.Handler
	PasswordRules *passwordrule.Resolver
}

// NewLogger builds the logger of service from cfg.
func NewLogger(cfg *config.Config, service string) (*zap.Logger, error) {
	return logger.New(cfg.Log.Level, cfg.Log.Format, service)
}

// New connects the configured store and Redis and builds the services.
// Redis is skipped when redis.host is empty.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	switch cfg.Store.Driver {
	case "memory":
		store, err := memory.New()
		if err != nil {
			return nil, err
		}
		a.Store = store
		log.Warn("using in-memory store, data is lost on exit")
	case "postgres", "":
		a.DB = database.NewManager(&cfg.Database, log)
		if err := a.DB.Init(ctx); err != nil {
			return nil, err
		}
		a.Store = postgres.NewStore(a.DB.Pool())
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}

	if cfg.Redis.Host != "" {
		client, err := cache.NewClient(&cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Cache = client
	}

	files, err := storage.NewStorageDriver(&cfg.Storage)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Files = files

	a.Tenants = tenant.NewService(a.Store, passwd.NewBcryptHasher(), idgen.New(), tenant.Options{
		LoginURL:          cfg.App.LoginURL,
		MultiTenantMode:   cfg.App.MultiTenantMode,
		DefaultTenantName: cfg.App.DefaultTenantName,
		AdminUsername:     cfg.InitialAdmin.Username,
		AdminPassword:     cfg.InitialAdmin.Password,
	}, log).WithLogos(tenant.NewLogoProcessor(files))

	var nameCache displayname.ConfigCache
	if a.Cache != nil {
		a.Tenants.WithEvents(a.Cache).WithCache(a.Cache)
		nameCache = a.Cache
	}
	a.DisplayNames = displayname.NewHandler(a.Store, nameCache, log)
	a.PasswordRules = passwordrule.NewResolver(a.Store)
	return a, nil
}

// Close releases the database pool and the Redis client.
func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Log.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
