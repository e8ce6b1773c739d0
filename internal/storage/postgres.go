package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fuelcell_parser/internal/dcl"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PostgresDB wraps a PostgreSQL connection pool for ingest state.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PostgresDB) Close() {
	d.pool.Close()
}

// CreateSchema creates the PostgreSQL tables.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	-- Ingest ledger: one row per source file processed.
	CREATE TABLE IF NOT EXISTS ingest_files (
		path            TEXT PRIMARY KEY,
		dataset         TEXT NOT NULL,
		record_count    INTEGER NOT NULL,
		warning_count   INTEGER NOT NULL,
		ingested_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_ingest_files_dataset ON ingest_files(dataset);

	-- Persisted per-line diagnostics for audit.
	CREATE TABLE IF NOT EXISTS ingest_warnings (
		id              BIGSERIAL PRIMARY KEY,
		path            TEXT NOT NULL,
		line            INTEGER NOT NULL,
		reason          TEXT NOT NULL,
		message         TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_ingest_warnings_path ON ingest_warnings(path);
	`

	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// FileIngest is one row of the ingest ledger.
type FileIngest struct {
	Path         string
	Dataset      string
	RecordCount  int
	WarningCount int
	IngestedAt   time.Time
}

// RecordFileIngest upserts the ledger row for one processed file.
func (d *PostgresDB) RecordFileIngest(ctx context.Context, fi FileIngest) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO ingest_files (path, dataset, record_count, warning_count, ingested_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (path) DO UPDATE SET
			dataset = EXCLUDED.dataset,
			record_count = EXCLUDED.record_count,
			warning_count = EXCLUDED.warning_count,
			ingested_at = NOW()
	`, fi.Path, fi.Dataset, fi.RecordCount, fi.WarningCount)
	if err != nil {
		return fmt.Errorf("record file ingest: %w", err)
	}
	return nil
}

// GetFileIngest returns the ledger row for a path, or nil when the file has
// not been ingested.
func (d *PostgresDB) GetFileIngest(ctx context.Context, path string) (*FileIngest, error) {
	var fi FileIngest
	err := d.pool.QueryRow(ctx, `
		SELECT path, dataset, record_count, warning_count, ingested_at
		FROM ingest_files WHERE path = $1
	`, path).Scan(&fi.Path, &fi.Dataset, &fi.RecordCount, &fi.WarningCount, &fi.IngestedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file ingest: %w", err)
	}
	return &fi, nil
}

// InsertIngestWarnings persists the diagnostics produced while parsing path.
// Existing rows for the path are replaced so re-ingest stays idempotent.
func (d *PostgresDB) InsertIngestWarnings(ctx context.Context, path string, warnings []dcl.Warning) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM ingest_warnings WHERE path = $1`, path); err != nil {
		return fmt.Errorf("clear warnings: %w", err)
	}

	for _, w := range warnings {
		if _, err := tx.Exec(ctx, `
			INSERT INTO ingest_warnings (path, line, reason, message)
			VALUES ($1, $2, $3, $4)
		`, path, w.Line, string(w.Reason), w.Message()); err != nil {
			return fmt.Errorf("insert warning: %w", err)
		}
	}

	return tx.Commit(ctx)
}
