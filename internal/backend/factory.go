// Package backend creates the configured store implementation.
package backend

import (
	"fmt"
	"log/slog"

	"wisepenny/internal/store"
	"wisepenny/internal/store/memory"
	"wisepenny/internal/store/sqlite"
)

// New builds a store from config.
func New(cfg Config, logger *slog.Logger) (store.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Kind.IsValid() {
		return nil, fmt.Errorf("invalid store kind: %s", cfg.Kind)
	}

	switch cfg.Kind {
	case SQLiteKind:
		st, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		logger.Info("Initialized SQLite store", "db_path", cfg.SQLiteDBPath)
		return st, nil
	default:
		logger.Info("Initialized memory store")
		return memory.New(), nil
	}
}

// Compile-time checks: both implementations satisfy the store interface.
var (
	_ store.Store = (*memory.Store)(nil)
	_ store.Store = (*sqlite.Store)(nil)
)
