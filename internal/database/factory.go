package database

import (
	"fmt"
	"os"
	"path/filepath"

	"channels-go/internal/catalog"
	"channels-go/internal/config"
)

// NewDatabaseFromConfig creates a database based on the database config type.
// File databases are opened as they are; `channels db migrate` brings their
// schema up to date. Memory databases are migrated on creation.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, instanceID string, clock catalog.Clock, idgen catalog.IDGenerator) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteDatabase(DatabasePath(cfg, instanceID), clock, idgen)
	case "memory":
		db, err := NewSQLiteDatabase(memoryPath, clock, idgen)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating memory database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

// DatabasePath returns the file a sqlite database config points at.
func DatabasePath(cfg config.DatabaseConfig, instanceID string) string {
	if cfg.Type != "sqlite" {
		return memoryPath
	}
	return filepath.Join(cfg.DataDir, instanceID+".db")
}
