// Package mysqldata provides a MySQL-backed payload store for staticdata,
// registering the go-sql-driver driver.
package mysqldata

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/go-sql-driver/mysql"

	"github.com/goforj/staticdata"
	"github.com/goforj/staticdata/staticcore"
)

// Config configures a mysql-backed payload store.
type Config struct {
	staticcore.BaseConfig
	DSN   string
	Table string
}

// New opens and pings the database, then builds a mysql-backed
// staticcore.Store. The ping makes an unreachable server a construction
// error; schema bootstrap failures surface from the store's first operation.
func New(ctx context.Context, cfg Config) (staticcore.Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("mysqldata: dsn is required")
	}
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return staticdata.NewSQLStore(ctx, db, staticdata.DialectMySQL, storeOptions(cfg)...), nil
}

// NewWithDB builds a store over an existing database handle.
func NewWithDB(ctx context.Context, db *sql.DB, cfg Config) staticcore.Store {
	return staticdata.NewSQLStore(ctx, db, staticdata.DialectMySQL, storeOptions(cfg)...)
}

func storeOptions(cfg Config) []staticdata.StoreOption {
	opts := []staticdata.StoreOption{
		staticdata.WithPrefix(cfg.Prefix),
		staticdata.WithDefaultTTL(cfg.DefaultTTL),
		staticdata.WithCompression(cfg.Compression),
		staticdata.WithMaxValueBytes(cfg.MaxValueBytes),
		staticdata.WithEncryptionKey(cfg.EncryptionKey),
	}
	if cfg.Table != "" {
		opts = append(opts, staticdata.WithSQLTable(cfg.Table))
	}
	return opts
}
