package tokenstore

import (
	"context"
	"fmt"
	"log/slog"

	"garansi-console/pkg/utils"
)

// Driver identifiers.
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config selects and configures a backend.
type Config struct {
	Driver    string
	Namespace string

	FilePath    string
	Redis       utils.RedisConfig
	PostgresDSN string
}

// Open builds the store for cfg.Driver, defaulting to the file backend.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFile
	}

	var (
		backend Backend
		err     error
	)
	switch driver {
	case DriverMemory:
		backend = NewMemory()
	case DriverFile:
		path := cfg.FilePath
		if path == "" {
			if path, err = DefaultFilePath(cfg.Namespace); err != nil {
				return nil, err
			}
		}
		backend, err = NewFile(path)
	case DriverRedis:
		rdb, openErr := utils.OpenRedis(ctx, cfg.Redis)
		if openErr != nil {
			return nil, openErr
		}
		backend = NewRedis(rdb, cfg.Namespace)
	case DriverPostgres:
		db, openErr := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN, utils.PostgresPoolConfig{})
		if openErr != nil {
			return nil, openErr
		}
		backend, err = NewPostgres(ctx, db, cfg.Namespace)
		if err != nil {
			_ = db.Close()
		}
	default:
		return nil, fmt.Errorf("unsupported token store driver: %s", driver)
	}
	if err != nil {
		return nil, err
	}

	log.Info("token store ready", "driver", driver, "namespace", cfg.Namespace)
	return New(backend, log), nil
}
