// Package reportstore persists finished reports to Postgres so past
// analyses can be listed and re-opened without scanning the object store.
package reportstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"geointel/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id         TEXT PRIMARY KEY,
	image_key  TEXT NOT NULL,
	image_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	model_used TEXT,
	latitude   DOUBLE PRECISION,
	longitude  DOUBLE PRECISION,
	document   JSONB NOT NULL
)`

// PostgresStore stores reports in a single reports table. The full report
// lives in a JSONB column; the primary coordinates are broken out so recent
// results can be listed without decoding every document.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres with the given DSN and makes sure
// the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %v", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure reports schema: %v", err)
	}
	log.Println("Connected to Postgres report store")
	return &PostgresStore{pool: pool}, nil
}

// Insert stores one report, replacing any earlier row for the same ID.
func (s *PostgresStore) Insert(ctx context.Context, report *models.Report) error {
	document, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %v", err)
	}

	var lat, lon *float64
	if primary, ok := report.Primary(); ok {
		lat, lon = &primary.Lat, &primary.Lon
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO reports (id, image_key, image_hash, created_at, model_used, latitude, longitude, document)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			model_used = EXCLUDED.model_used,
			latitude   = EXCLUDED.latitude,
			longitude  = EXCLUDED.longitude,
			document   = EXCLUDED.document`,
		report.ID, report.ImageKey, report.ImageHash, report.CreatedAt,
		report.ModelUsed, lat, lon, document,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %v", err)
	}
	return nil
}

// Get loads one report by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Report, error) {
	var document []byte
	err := s.pool.QueryRow(ctx, `SELECT document FROM reports WHERE id = $1`, id).Scan(&document)
	if err != nil {
		return nil, fmt.Errorf("failed to load report %q: %v", id, err)
	}

	var report models.Report
	if err := json.Unmarshal(document, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %q: %v", id, err)
	}
	return &report, nil
}

// Recent returns up to limit reports, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]*models.Report, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT document FROM reports ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent reports: %v", err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %v", err)
		}
		var report models.Report
		if err := json.Unmarshal(document, &report); err != nil {
			return nil, fmt.Errorf("failed to decode report document: %v", err)
		}
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
