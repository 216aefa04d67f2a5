// Package postgres implements the storage.Backend interface on a PostgreSQL
// database through the GORM backend.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/liftsim/liftsim/internal/config"
	"github.com/liftsim/liftsim/internal/database"
	gormstorage "github.com/liftsim/liftsim/internal/storage/gorm"
)

const maxOpenConns = 10

// Backend wraps the GORM backend with its own postgres connection.
type Backend struct {
	*gormstorage.Backend
	cfg config.DBConfig
	log *slog.Logger
}

// New creates a postgres backend. The connection is opened by Init.
func New(cfg config.DBConfig, log *slog.Logger) *Backend {
	if log == nil {
		log = slog.Default()
	}
	return &Backend{cfg: cfg, log: log}
}

// Init connects, validates the connection and initializes the GORM backend.
func (b *Backend) Init() error {
	db, err := database.GetPostgresDB(b.cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)

	b.Backend = gormstorage.New(gormstorage.Dependencies{DB: db, Logger: b.log})
	if err := b.Backend.Init(); err != nil {
		_ = sqlDB.Close()
		b.Backend = nil
		return err
	}

	b.log.Info("Connected to postgres", "host", b.cfg.Host, "database", b.cfg.Database)
	return nil
}

// Close flushes the GORM backend and closes the connection.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	if err := b.Backend.Close(); err != nil {
		return err
	}
	sqlDB, err := b.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
