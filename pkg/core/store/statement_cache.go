package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/models"
)

// StatementCache caches parsed financial statements between runs so a
// screening refresh does not refetch every filing.
// Hybrid: DB when a pool is configured, JSON files otherwise.
type StatementCache struct {
	pool    *pgxpool.Pool
	fileDir string
}

// NewStatementCache creates a cache. With a nil pool it falls back to files
// in dir; with an empty dir it uses the default local cache path.
func NewStatementCache(pool *pgxpool.Pool, dir string) *StatementCache {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "aperture", "statements")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logrus.WithField("component", "store").Warnf("statement cache dir: %v", err)
		}
	}
	return &StatementCache{pool: pool, fileDir: dir}
}

// statementEntry is the file cache envelope.
type statementEntry struct {
	Ticker    string                     `json:"ticker"`
	FetchedAt time.Time                  `json:"fetched_at"`
	Statement *models.FinancialStatement `json:"statement"`
}

// Get retrieves cached statements for a ticker. A miss returns (nil, nil).
func (c *StatementCache) Get(ctx context.Context, ticker string) (*models.FinancialStatement, error) {
	if c.pool != nil {
		query := `
			SELECT data
			FROM statement_cache
			WHERE ticker = $1
			ORDER BY updated_at DESC
			LIMIT 1
		`
		var dataJSON []byte
		if err := c.pool.QueryRow(ctx, query, strings.ToUpper(ticker)).Scan(&dataJSON); err != nil {
			return nil, nil // Cache miss
		}
		var stmt models.FinancialStatement
		if err := json.Unmarshal(dataJSON, &stmt); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached statements: %w", err)
		}
		return &stmt, nil
	}

	if c.fileDir != "" {
		return c.loadFromFile(c.tickerPath(ticker))
	}
	return nil, nil
}

// Save stores parsed statements for a ticker.
func (c *StatementCache) Save(ctx context.Context, stmt *models.FinancialStatement) error {
	dataJSON, err := json.Marshal(stmt)
	if err != nil {
		return fmt.Errorf("failed to marshal statements: %w", err)
	}

	if c.pool != nil {
		query := `
			INSERT INTO statement_cache (ticker, data, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (ticker)
			DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
		`
		if _, err := c.pool.Exec(ctx, query, strings.ToUpper(stmt.Ticker), dataJSON); err != nil {
			return fmt.Errorf("failed to save to db cache: %w", err)
		}
		return nil
	}

	if c.fileDir != "" {
		entry := statementEntry{
			Ticker:    strings.ToUpper(stmt.Ticker),
			FetchedAt: time.Now(),
			Statement: stmt,
		}
		fileBytes, _ := json.MarshalIndent(entry, "", "  ")
		if err := os.WriteFile(c.tickerPath(stmt.Ticker), fileBytes, 0644); err != nil {
			return fmt.Errorf("failed to save to file cache: %w", err)
		}
	}
	return nil
}

func (c *StatementCache) tickerPath(ticker string) string {
	safe := strings.ToUpper(strings.ReplaceAll(ticker, "/", "_"))
	return filepath.Join(c.fileDir, safe+".json")
}

func (c *StatementCache) loadFromFile(path string) (*models.FinancialStatement, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, nil // Not found
	}
	var entry statementEntry
	if err := json.Unmarshal(bytes, &entry); err == nil && entry.Statement != nil {
		return entry.Statement, nil
	}
	var stmt models.FinancialStatement
	if err := json.Unmarshal(bytes, &stmt); err != nil {
		return nil, err
	}
	return &stmt, nil
}
