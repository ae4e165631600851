// Package db provides PostgreSQL persistence for search runs and their leads.
package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/lead-scraper/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// CreateSearchRun records a new search run and returns its ID
func (db *DB) CreateSearchRun(ctx context.Context, req types.SearchRequest) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.pool.Exec(ctx,
		`INSERT INTO search_runs (id, query, location, platform, method, page, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, req.Query, req.Location, string(req.Platform), string(req.SearchMethod), req.Page, RunStatusRunning,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create search run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a search run as finished with the given status
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string, leadCount int) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE search_runs SET status = $1, lead_count = $2, completed_at = NOW() WHERE id = $3`,
		status, leadCount, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// SaveLeads stores leads for a run, keeping their order
func (db *DB) SaveLeads(ctx context.Context, runID uuid.UUID, leads []types.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, lead := range leads {
		batch.Queue(
			`INSERT INTO leads (run_id, position, name, email, phone, website, location, source, industry)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (run_id, position) DO NOTHING`,
			runID, i, lead.Name, lead.Email, lead.Phone, lead.Website, lead.Location, lead.Source, lead.Industry,
		)
	}

	results := db.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for i := range leads {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to save lead %d: %w", i, err)
		}
	}
	return nil
}

// ListLeads retrieves the leads of a run in their original order
func (db *DB) ListLeads(ctx context.Context, runID uuid.UUID) ([]types.Lead, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT name, email, phone, website, location, source, industry
		 FROM leads WHERE run_id = $1 ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := []types.Lead{}
	for rows.Next() {
		var lead types.Lead
		if err := rows.Scan(&lead.Name, &lead.Email, &lead.Phone, &lead.Website, &lead.Location, &lead.Source, &lead.Industry); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

// GetRun retrieves a search run by ID. It returns nil when the run does not exist.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, query, location, platform, method, page, status, lead_count, created_at, completed_at
		 FROM search_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Query, &run.Location, &run.Platform, &run.Method, &run.Page, &run.Status, &run.LeadCount, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves recent search runs
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, query, location, platform, method, page, status, lead_count, created_at, completed_at
		 FROM search_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Query, &run.Location, &run.Platform, &run.Method, &run.Page, &run.Status, &run.LeadCount, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
