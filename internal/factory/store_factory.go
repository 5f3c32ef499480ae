package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/email-triage/internal/adapters/store"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"go.uber.org/zap"
)

// StoreFactory creates thread repositories based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateThreadRepository creates a thread repository based on the configuration
func (f *StoreFactory) CreateThreadRepository() (core.ThreadRepository, error) {
	threadsCfg := f.cfg.GetThreads()

	switch threadsCfg.Store {
	case "memory":
		return store.NewMemoryStore(f.logger), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(threadsCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return store.NewSQLiteStore(threadsCfg.SQLitePath, f.logger)
	case "mysql":
		if threadsCfg.MySQLDSN == "" {
			return nil, fmt.Errorf("threads.mysql_dsn is required for the mysql store")
		}
		return store.NewMySQLStore(threadsCfg.MySQLDSN, f.logger)
	case "redis":
		return store.NewRedisStore(threadsCfg.RedisURL, threadsCfg.RedisPrefix, f.logger)
	default:
		return nil, fmt.Errorf("unsupported thread store: %s", threadsCfg.Store)
	}
}
