package di

import (
	"database/sql"
	"fmt"

	"github.com/goliatone/go-publication/internal/runtimeconfig"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bundebug"
)

// configureDatabase opens the database named by the storage config unless
// the host supplied one through WithBunDB.
func (c *Container) configureDatabase() error {
	cfg := c.Config.Storage
	provider := runtimeconfig.NormalizeProvider(cfg.Provider)
	if c.bunDB == nil {
		switch provider {
		case runtimeconfig.StorageSQLite:
			sqlDB, err := sql.Open("sqlite3", cfg.DSN)
			if err != nil {
				return fmt.Errorf("di: open sqlite: %w", err)
			}
			c.bunDB = bun.NewDB(sqlDB, sqlitedialect.New())
			// sqlite serialises writers; a single connection also keeps
			// shared in-memory databases alive.
			c.bunDB.SetMaxOpenConns(1)
			c.ownsDB = true
		case runtimeconfig.StoragePostgres:
			sqlDB, err := sql.Open("pgx", cfg.DSN)
			if err != nil {
				return fmt.Errorf("di: open postgres: %w", err)
			}
			c.bunDB = bun.NewDB(sqlDB, pgdialect.New())
			c.ownsDB = true
		default:
			return nil
		}
	}
	if cfg.Debug && c.ownsDB {
		c.bunDB.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return nil
}

func (c *Container) storageProviderName() string {
	if c.bunDB == nil {
		return runtimeconfig.StorageMemory
	}
	return c.bunDB.Dialect().Name().String()
}
