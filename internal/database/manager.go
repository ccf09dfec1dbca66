package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/config"
)

type Manager struct {
	pool *pgxpool.Pool
	cfg  *config.DatabaseConfig
	log  *zap.Logger
	mu   sync.RWMutex
}

func NewManager(cfg *config.DatabaseConfig, log *zap.Logger) *Manager {
	return &Manager{cfg: cfg, log: log}
}

// Init opens and verifies the connection pool. Calling it twice is a no-op.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pool != nil {
		return nil
	}

	poolConfig, err := pgxpool.ParseConfig(m.cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to parse db config: %w", err)
	}

	if m.cfg.MaxConns > 0 {
		poolConfig.MaxConns = m.cfg.MaxConns
	}
	if m.cfg.MinConns > 0 {
		poolConfig.MinConns = m.cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping db: %w", err)
	}

	m.pool = pool
	m.log.Info("db pool initialized",
		zap.String("host", m.cfg.Host),
		zap.String("database", m.cfg.DBName),
		zap.Int32("max_conns", poolConfig.MaxConns),
	)
	return nil
}

func (m *Manager) Pool() *pgxpool.Pool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pool
}

func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pool != nil {
		m.pool.Close()
		m.pool = nil
		m.log.Info("db pool closed")
	}
}
