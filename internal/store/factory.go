package store

import (
	"fmt"
	"os"
	"path/filepath"

	"subtrack/internal/config"
	"subtrack/internal/subtrack"
)

// NewStoreFromConfig creates a RecordStore implementation based on the store config type.
func NewStoreFromConfig(cfg config.StoreConfig) (subtrack.RecordStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite store")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "records.db"))
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
