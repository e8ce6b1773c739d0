package storage

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// Config holds database connection settings for both ClickHouse and PostgreSQL.
type Config struct {
	ClickHouse ClickHouseConfig
	Postgres   PostgresConfig
}

// DefaultConfig returns a configuration with default local development settings.
func DefaultConfig() Config {
	return Config{
		ClickHouse: ClickHouseConfig{
			Host:     "localhost",
			Port:     9000,
			Database: "fuelcell",
			User:     "default",
			Password: "",
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "fuelcell_state",
			User:     "fuelcell",
			Password: "fuelcell",
		},
	}
}

// ConfigFromEnv returns DefaultConfig with any CLICKHOUSE_*/POSTGRES_*
// environment overrides applied.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		cfg.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.ClickHouse.Port = p
		}
	}
	if v := os.Getenv("CLICKHOUSE_DB"); v != "" {
		cfg.ClickHouse.Database = v
	}
	if v := os.Getenv("CLICKHOUSE_USER"); v != "" {
		cfg.ClickHouse.User = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		cfg.ClickHouse.Password = v
	}

	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = p
		}
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}

	return cfg
}

// AnalyticsDB wraps both ClickHouse and PostgreSQL connections.
type AnalyticsDB struct {
	CH *ClickHouseDB // ClickHouse for engineering records and analytics.
	PG *PostgresDB   // PostgreSQL for ingest state.
}

// OpenAnalytics opens connections to both ClickHouse and PostgreSQL.
func OpenAnalytics(ctx context.Context, cfg Config) (*AnalyticsDB, error) {
	ch, err := OpenClickHouse(ctx, cfg.ClickHouse)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: %w", err)
	}

	pg, err := OpenPostgres(ctx, cfg.Postgres)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	return &AnalyticsDB{CH: ch, PG: pg}, nil
}

// Close closes both database connections.
func (d *AnalyticsDB) Close() error {
	var errs []error
	if d.CH != nil {
		if err := d.CH.Close(); err != nil {
			errs = append(errs, fmt.Errorf("clickhouse: %w", err))
		}
	}
	if d.PG != nil {
		d.PG.Close()
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// CreateSchemas creates the schemas in both databases.
func (d *AnalyticsDB) CreateSchemas(ctx context.Context) error {
	if err := d.CH.CreateSchema(ctx); err != nil {
		return fmt.Errorf("clickhouse schema: %w", err)
	}
	if err := d.PG.CreateSchema(ctx); err != nil {
		return fmt.Errorf("postgres schema: %w", err)
	}
	return nil
}
