package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// RunRecord is one persisted screening run: summary columns for listing plus
// the full report payload for replay in the dashboard.
type RunRecord struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	DurationMs int64           `json:"duration_ms"`
	Universe   int             `json:"universe"`
	Survivors  int             `json:"survivors"`
	Payload    json.RawMessage `json:"payload"`
}

// RunRepository persists screening runs.
type RunRepository interface {
	SaveRun(ctx context.Context, rec RunRecord) error
	LatestRun(ctx context.Context) (*RunRecord, error)
}

// NewRunRepo returns the DB-backed repository when a pool is configured, the
// file-backed one otherwise.
func NewRunRepo() RunRepository {
	if pool != nil {
		return &pgRunRepo{}
	}
	return &fileRunRepo{dir: filepath.Join(".cache", "aperture", "runs")}
}

type pgRunRepo struct{}

func (r *pgRunRepo) SaveRun(ctx context.Context, rec RunRecord) error {
	query := `
		INSERT INTO screening_runs (id, started_at, duration_ms, universe, survivors, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET payload = EXCLUDED.payload, survivors = EXCLUDED.survivors
	`
	_, err := pool.Exec(ctx, query, rec.ID, rec.StartedAt, rec.DurationMs, rec.Universe, rec.Survivors, rec.Payload)
	if err != nil {
		return fmt.Errorf("failed to save screening run: %w", err)
	}
	return nil
}

func (r *pgRunRepo) LatestRun(ctx context.Context) (*RunRecord, error) {
	query := `
		SELECT id, started_at, duration_ms, universe, survivors, payload
		FROM screening_runs
		ORDER BY started_at DESC
		LIMIT 1
	`
	var rec RunRecord
	err := pool.QueryRow(ctx, query).Scan(&rec.ID, &rec.StartedAt, &rec.DurationMs, &rec.Universe, &rec.Survivors, &rec.Payload)
	if err != nil {
		return nil, nil // No runs yet
	}
	return &rec, nil
}

type fileRunRepo struct {
	dir string
}

func (r *fileRunRepo) SaveRun(ctx context.Context, rec RunRecord) error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to prepare run dir: %w", err)
	}
	bytes, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	path := filepath.Join(r.dir, rec.StartedAt.UTC().Format("20060102T150405")+"_"+rec.ID+".json")
	if err := os.WriteFile(path, bytes, 0644); err != nil {
		return fmt.Errorf("failed to write run file: %w", err)
	}
	return nil
}

func (r *fileRunRepo) LatestRun(ctx context.Context) (*RunRecord, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, nil
	}
	var names []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, nil
	}
	// File names start with the UTC timestamp, so the lexical max is newest.
	sort.Strings(names)
	bytes, err := os.ReadFile(filepath.Join(r.dir, names[len(names)-1]))
	if err != nil {
		return nil, err
	}
	var rec RunRecord
	if err := json.Unmarshal(bytes, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
