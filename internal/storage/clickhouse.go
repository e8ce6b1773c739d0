package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"fuelcell_parser/internal/dcl"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseDB wraps a ClickHouse connection for engineering analytics.
type ClickHouseDB struct {
	conn driver.Conn
}

// Conn returns the underlying ClickHouse connection for direct queries.
func (d *ClickHouseDB) Conn() driver.Conn {
	return d.conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// engColumns returns the 27 engineering column names in payload order,
// derived from the particle field table so schema and insert stay aligned.
func engColumns() []string {
	cols := make([]string, 0, dcl.NumFields)
	for _, k := range dcl.FieldTable {
		cols = append(cols, string(k))
	}
	return cols
}

// CreateSchema creates the ClickHouse tables.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	var b strings.Builder
	b.WriteString(`CREATE TABLE IF NOT EXISTS fuelcell_eng (
		particle_type   LowCardinality(String),
		ntp_timestamp   Float64,
		utc_time        DateTime64(3),
		dcl_timestamp   String,
		source_file     LowCardinality(String),
`)
	for _, col := range engColumns() {
		fmt.Fprintf(&b, "\t\t%s Int64,\n", col)
	}
	b.WriteString(`		created_at DateTime64(3) DEFAULT now64(3)
	)
	ENGINE = MergeTree()
	PARTITION BY toYYYYMM(utc_time)
	ORDER BY (particle_type, utc_time)
	SETTINGS index_granularity = 8192`)

	if err := d.conn.Exec(ctx, b.String()); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// InsertParticles stores a batch of particles efficiently.
func (d *ClickHouseDB) InsertParticles(ctx context.Context, particles []*dcl.Particle, sourceFile string) error {
	if len(particles) == 0 {
		return nil
	}

	cols := append([]string{"particle_type", "ntp_timestamp", "utc_time", "dcl_timestamp", "source_file"}, engColumns()...)
	batch, err := d.conn.PrepareBatch(ctx,
		fmt.Sprintf("INSERT INTO fuelcell_eng (%s)", strings.Join(cols, ", ")))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range particles {
		row := make([]interface{}, 0, len(cols))
		row = append(row,
			p.Type().String(),
			p.NTPTimestamp(),
			dcl.NTPToTime(p.NTPTimestamp()),
			p.DCLTimestamp(),
			sourceFile,
		)
		for i := 0; i < dcl.NumFields; i++ {
			row = append(row, p.ValueAt(i))
		}
		if err := batch.Append(row...); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}
