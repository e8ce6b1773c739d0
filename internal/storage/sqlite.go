// Package storage provides persistent storage for parsed fuel cell particles.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fuelcell_parser/internal/dcl"
)

// StoredParticle is a particle row read back from the archive.
type StoredParticle struct {
	ID            int64
	ParticleType  string
	NTPTimestamp  float64
	DCLTimestamp  string
	SourceFile    string
	FuelCellState int64
	FuelRemaining int64
	ParticleJSON  string
	CreatedAt     time.Time
}

// StoredWarning is a per-line diagnostic row read back from the archive.
type StoredWarning struct {
	ID         int64
	SourceFile string
	Line       int
	Reason     string
	Message    string
}

// DB wraps a SQLite database connection for particle storage.
type DB struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database tables and indices.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS particles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		particle_type TEXT NOT NULL,
		ntp_timestamp REAL NOT NULL,
		dcl_timestamp TEXT NOT NULL,
		source_file TEXT,
		fuel_cell_voltage INTEGER NOT NULL,
		fuel_cell_current INTEGER NOT NULL,
		fuel_cell_state INTEGER NOT NULL,
		fuel_remaining INTEGER NOT NULL,
		power_manager_error_mask INTEGER NOT NULL,
		reformer_error_mask INTEGER NOT NULL,
		fuel_cell_error_mask INTEGER NOT NULL,
		particle_json TEXT NOT NULL,
		created_at TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_particles_type ON particles(particle_type);
	CREATE INDEX IF NOT EXISTS idx_particles_source ON particles(source_file);
	CREATE INDEX IF NOT EXISTS idx_particles_ntp ON particles(ntp_timestamp);

	CREATE TABLE IF NOT EXISTS warnings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_file TEXT,
		line INTEGER NOT NULL,
		reason TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_warnings_source ON warnings(source_file);
	`

	_, err := db.Exec(schema)
	return err
}

// InsertParticle stores one particle. sourceFile records where the particle
// came from (file path or feed subject).
func (d *DB) InsertParticle(p *dcl.Particle, sourceFile string) (int64, error) {
	particleJSON, err := json.Marshal(p)
	if err != nil {
		return 0, fmt.Errorf("marshal particle: %w", err)
	}

	voltage, _ := p.Value(dcl.FuelCellVoltage)
	current, _ := p.Value(dcl.FuelCellCurrent)
	state, _ := p.Value(dcl.FuelCellState)
	remaining, _ := p.Value(dcl.FuelRemaining)
	pmMask, _ := p.Value(dcl.PowerManagerErrorMask)
	refMask, _ := p.Value(dcl.ReformerErrorMask)
	fcMask, _ := p.Value(dcl.FuelCellErrorMask)

	result, err := d.db.Exec(`
		INSERT INTO particles (particle_type, ntp_timestamp, dcl_timestamp, source_file,
			fuel_cell_voltage, fuel_cell_current, fuel_cell_state, fuel_remaining,
			power_manager_error_mask, reformer_error_mask, fuel_cell_error_mask, particle_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Type().String(), p.NTPTimestamp(), p.DCLTimestamp(), sourceFile,
		voltage, current, state, remaining, pmMask, refMask, fcMask, string(particleJSON))
	if err != nil {
		return 0, fmt.Errorf("insert particle: %w", err)
	}

	return result.LastInsertId()
}

// InsertParticles stores a batch of particles inside one transaction,
// preserving their order.
func (d *DB) InsertParticles(particles []*dcl.Particle, sourceFile string) error {
	if len(particles) == 0 {
		return nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO particles (particle_type, ntp_timestamp, dcl_timestamp, source_file,
			fuel_cell_voltage, fuel_cell_current, fuel_cell_state, fuel_remaining,
			power_manager_error_mask, reformer_error_mask, fuel_cell_error_mask, particle_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range particles {
		particleJSON, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal particle: %w", err)
		}
		voltage, _ := p.Value(dcl.FuelCellVoltage)
		current, _ := p.Value(dcl.FuelCellCurrent)
		state, _ := p.Value(dcl.FuelCellState)
		remaining, _ := p.Value(dcl.FuelRemaining)
		pmMask, _ := p.Value(dcl.PowerManagerErrorMask)
		refMask, _ := p.Value(dcl.ReformerErrorMask)
		fcMask, _ := p.Value(dcl.FuelCellErrorMask)

		if _, err := stmt.Exec(p.Type().String(), p.NTPTimestamp(), p.DCLTimestamp(), sourceFile,
			voltage, current, state, remaining, pmMask, refMask, fcMask, string(particleJSON)); err != nil {
			return fmt.Errorf("insert particle: %w", err)
		}
	}

	return tx.Commit()
}

// InsertWarnings stores the per-line diagnostics for a source.
func (d *DB) InsertWarnings(warnings []dcl.Warning, sourceFile string) error {
	if len(warnings) == 0 {
		return nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO warnings (source_file, line, reason, message) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, w := range warnings {
		if _, err := stmt.Exec(sourceFile, w.Line, string(w.Reason), w.Message()); err != nil {
			return fmt.Errorf("insert warning: %w", err)
		}
	}

	return tx.Commit()
}

// QueryParams contains filtering options for querying particles.
type QueryParams struct {
	ID           int64   // Filter by specific particle row ID.
	ParticleType string  // Filter by particle type (exact match).
	SourceFile   string  // Filter by source file (exact match).
	SinceNTP     float64 // Only particles at or after this NTP timestamp.
	UntilNTP     float64 // Only particles before this NTP timestamp.
	Limit        int     // Max results (default 100).
	Offset       int     // Pagination offset.
	OrderDesc    bool    // Sort by NTP timestamp descending.
}

// Query retrieves particles matching the given parameters, ordered by NTP
// timestamp then row ID so input order is reproduced within a file.
func (d *DB) Query(p QueryParams) ([]StoredParticle, error) {
	var conditions []string
	var args []interface{}

	if p.ID != 0 {
		conditions = append(conditions, "id = ?")
		args = append(args, p.ID)
	}
	if p.ParticleType != "" {
		conditions = append(conditions, "particle_type = ?")
		args = append(args, p.ParticleType)
	}
	if p.SourceFile != "" {
		conditions = append(conditions, "source_file = ?")
		args = append(args, p.SourceFile)
	}
	if p.SinceNTP != 0 {
		conditions = append(conditions, "ntp_timestamp >= ?")
		args = append(args, p.SinceNTP)
	}
	if p.UntilNTP != 0 {
		conditions = append(conditions, "ntp_timestamp < ?")
		args = append(args, p.UntilNTP)
	}

	query := `SELECT id, particle_type, ntp_timestamp, dcl_timestamp, source_file,
		fuel_cell_state, fuel_remaining, particle_json, created_at FROM particles`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	dir := "ASC"
	if p.OrderDesc {
		dir = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY ntp_timestamp %s, id %s", dir, dir)

	limit := p.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, p.Offset)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query particles: %w", err)
	}
	defer rows.Close()

	var out []StoredParticle
	for rows.Next() {
		var sp StoredParticle
		var createdAt string
		if err := rows.Scan(&sp.ID, &sp.ParticleType, &sp.NTPTimestamp, &sp.DCLTimestamp,
			&sp.SourceFile, &sp.FuelCellState, &sp.FuelRemaining, &sp.ParticleJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan particle: %w", err)
		}
		sp.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		out = append(out, sp)
	}
	return out, rows.Err()
}

// QueryWarnings retrieves stored diagnostics, optionally filtered by source.
func (d *DB) QueryWarnings(sourceFile string, limit int) ([]StoredWarning, error) {
	query := `SELECT id, source_file, line, reason, message FROM warnings`
	var args []interface{}
	if sourceFile != "" {
		query += " WHERE source_file = ?"
		args = append(args, sourceFile)
	}
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY id LIMIT ?"
	args = append(args, limit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query warnings: %w", err)
	}
	defer rows.Close()

	var out []StoredWarning
	for rows.Next() {
		var sw StoredWarning
		if err := rows.Scan(&sw.ID, &sw.SourceFile, &sw.Line, &sw.Reason, &sw.Message); err != nil {
			return nil, fmt.Errorf("scan warning: %w", err)
		}
		out = append(out, sw)
	}
	return out, rows.Err()
}

// Stats summarises the archive contents.
type Stats struct {
	Particles int64            `json:"particles"`
	Warnings  int64            `json:"warnings"`
	ByType    map[string]int64 `json:"by_type"`
}

// Stats returns archive totals and per-type counts.
func (d *DB) Stats() (*Stats, error) {
	st := &Stats{ByType: make(map[string]int64)}

	if err := d.db.QueryRow(`SELECT COUNT(*) FROM particles`).Scan(&st.Particles); err != nil {
		return nil, fmt.Errorf("count particles: %w", err)
	}
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM warnings`).Scan(&st.Warnings); err != nil {
		return nil, fmt.Errorf("count warnings: %w", err)
	}

	rows, err := d.db.Query(`SELECT particle_type, COUNT(*) FROM particles GROUP BY particle_type`)
	if err != nil {
		return nil, fmt.Errorf("count by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var typ string
		var n int64
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan type count: %w", err)
		}
		st.ByType[typ] = n
	}
	return st, rows.Err()
}
