package main

import (
	"fmt"
	"log/slog"

	"github.com/liftsim/liftsim/internal/config"
	"github.com/liftsim/liftsim/internal/storage"
	"github.com/liftsim/liftsim/internal/storage/memory"
	pgstorage "github.com/liftsim/liftsim/internal/storage/postgres"
	sqlitestorage "github.com/liftsim/liftsim/internal/storage/sqlite"
)

// createStorageBackend returns the backend selected by storageCfg.Type, or
// nil for "none".
func createStorageBackend(storageCfg config.StorageConfig, dbCfg config.DBConfig, log *slog.Logger) (storage.Backend, error) {
	switch storageCfg.Type {
	case "none":
		log.Info("Trace storage disabled")
		return nil, nil

	case "postgres":
		log.Info("Postgres storage backend selected", "host", dbCfg.Host)
		return pgstorage.New(dbCfg, log), nil

	case "sqlite":
		backend, err := sqlitestorage.New(storageCfg.SQLite, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		log.Info("SQLite storage backend selected", "path", storageCfg.SQLite.Path)
		return backend, nil

	case "memory", "":
		log.Info("Memory storage backend selected", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}
