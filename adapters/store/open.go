package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"adherents/internal/migration"
	"adherents/ports"
)

// Driver names accepted by Open
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config selects and locates the preference backend
type Config struct {
	Driver string
	DSN    string
	TTL    time.Duration // redis only
}

// Open connects the configured backend and prepares its schema
func Open(ctx context.Context, cfg Config) (ports.MappingPreferenceRepository, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryPreferenceRepository(), nil
	case DriverSQLite:
		return openSQL(ctx, "sqlite3", cfg.DSN)
	case DriverPostgres:
		return openSQL(ctx, "postgres", cfg.DSN)
	case DriverRedis:
		return NewRedisPreferenceRepository(ctx, cfg.DSN, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func openSQL(ctx context.Context, driverName, dsn string) (*SQLPreferenceRepository, error) {
	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driverName, err)
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return NewSQLPreferenceRepository(db), nil
}

var (
	_ ports.MappingPreferenceRepository = (*SQLPreferenceRepository)(nil)
	_ ports.MappingPreferenceRepository = (*RedisPreferenceRepository)(nil)
	_ ports.MappingPreferenceRepository = (*MemoryPreferenceRepository)(nil)
)
