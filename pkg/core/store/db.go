// Package store persists screening runs and parsed statements. Postgres via
// pgxpool is the primary backend; a file-based fallback keeps the platform
// fully usable without a database.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// InitDB initializes the shared connection pool from DATABASE_URL. Callers
// that run without a database simply skip this; the repositories and caches
// then fall back to files.
func InitDB(ctx context.Context) error {
	var err error
	once.Do(func() {
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			err = errors.New("store: DATABASE_URL not set")
			return
		}
		cfg, parseErr := pgxpool.ParseConfig(dsn)
		if parseErr != nil {
			err = fmt.Errorf("store: parse DATABASE_URL: %w", parseErr)
			return
		}
		pool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			err = fmt.Errorf("store: connect: %w", err)
			return
		}
		logrus.WithField("component", "store").Info("postgres pool initialized")
	})
	return err
}

// GetPool returns the pool, nil when InitDB was skipped or failed.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the pool.
func Close() {
	if pool != nil {
		pool.Close()
	}
}
