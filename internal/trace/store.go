package trace

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists Rounds to a SQLite database, the same pure-Go driver and
// migration-as-statement-slice style the teacher uses in
// internal/infra/sqlite for its phase schemas.
type Store struct {
	db *sql.DB
}

// migrations are the Store's schema statements, applied in order and
// idempotently, matching the teacher's PhaseNMigrations() convention.
func migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			id           TEXT PRIMARY KEY,
			cpu          INTEGER NOT NULL,
			kind         INTEGER NOT NULL,
			at           TEXT NOT NULL,
			state_idx    INTEGER NOT NULL DEFAULT 0,
			predicted_us INTEGER NOT NULL DEFAULT 0,
			measured_us  INTEGER NOT NULL DEFAULT 0,
			attendees    INTEGER NOT NULL DEFAULT 0,
			weight_residency INTEGER NOT NULL DEFAULT 0,
			weight_timer     INTEGER NOT NULL DEFAULT 0,
			weight_network   INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_cpu_at ON rounds(cpu, at)`,
	}
}

// Open opens (creating if necessary) the SQLite database at path and
// applies migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open trace db: %w", err)
	}
	for _, stmt := range migrations() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate trace db: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Insert appends one round to the rounds table.
func (s *Store) Insert(r Round) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO rounds
			(id, cpu, kind, at, state_idx, predicted_us, measured_us, attendees,
			 weight_residency, weight_timer, weight_network)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.CPU, int(r.Kind), r.At.Format(time.RFC3339Nano), r.StateIdx,
		r.PredictedUs, r.MeasuredUs, r.Attendees,
		r.Weights[0], r.Weights[1], r.Weights[2])
	return err
}

// RecentForCPU returns the most recent limit persisted rounds for cpu,
// oldest first, surviving process restarts (unlike Recorder.ForCPU, which
// only sees what's still in the in-memory ring buffer).
func (s *Store) RecentForCPU(cpu, limit int) ([]Round, error) {
	rows, err := s.db.Query(`
		SELECT id, cpu, kind, at, state_idx, predicted_us, measured_us, attendees,
		       weight_residency, weight_timer, weight_network
		FROM rounds WHERE cpu = ? ORDER BY at DESC LIMIT ?
	`, cpu, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Round
	for rows.Next() {
		var r Round
		var kind int
		var atStr string
		if err := rows.Scan(&r.ID, &r.CPU, &kind, &atStr, &r.StateIdx, &r.PredictedUs,
			&r.MeasuredUs, &r.Attendees, &r.Weights[0], &r.Weights[1], &r.Weights[2]); err != nil {
			return nil, err
		}
		r.Kind = Kind(kind)
		r.At, _ = time.Parse(time.RFC3339Nano, atStr)
		out = append(out, r)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}
