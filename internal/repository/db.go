package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/certpay/payroll-extractor/internal/common"
)

// DB wraps the sql pool together with the driver name, which decides
// placeholder style and the dialect of the migration DDL.
type DB struct {
	*sql.DB
	driver string
	logger *slog.Logger
}

func driverName(configured string) (string, error) {
	switch configured {
	case "sqlite":
		return "sqlite", nil
	case "postgres":
		return "pgx", nil
	}
	return "", fmt.Errorf("unsupported database driver %q", configured)
}

// Open connects, applies pool limits, and verifies the connection.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	name, err := driverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	logger.Info("connecting to database", "driver", cfg.Driver, "dsn", cfg.DSN)
	pool, err := sql.Open(name, cfg.DSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return nil, fmt.Errorf("open database: %w", err)
	}

	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	db := &DB{DB: pool, driver: name, logger: logger}
	if err := db.HealthCheck(ctx, cfg.PingTimeout); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("successfully connected to database")
	return db, nil
}

// HealthCheck pings the database, to catch DSN issues early.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		db.logger.Error("database ping failed", "error", err)
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close closes the pool gracefully.
func (db *DB) Close() {
	db.logger.Info("closing database connections")
	if err := db.DB.Close(); err != nil {
		db.logger.Error("failed to close database", "error", err)
	}
}

func (db *DB) postgres() bool {
	return db.driver == "pgx"
}

// rebind rewrites ? placeholders to $n for postgres. Queries in this
// package never contain a literal question mark.
func (db *DB) rebind(query string) string {
	if !db.postgres() {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
