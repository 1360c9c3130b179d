package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one mapper pass over a track source.
type Run struct {
	RunID      string `json:"run_id"`
	Source     string `json:"source"`
	ConfigJSON string `json:"config_json,omitempty"`
	CreatedAt  int64  `json:"created_at"` // unix nanoseconds
	Notes      string `json:"notes,omitempty"`
}

// RunStore provides persistence for runs.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Insert creates a run. If run.RunID is empty a new UUID is generated; a
// zero CreatedAt is set to now.
func (s *RunStore) Insert(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}
	_, err := s.db.Exec(`
		INSERT INTO gp_runs (run_id, source, config_json, created_at, notes)
		VALUES (?, ?, ?, ?, ?)
	`, run.RunID, run.Source, nullString(run.ConfigJSON), run.CreatedAt, nullString(run.Notes))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Get returns the run with runID, or sql.ErrNoRows.
func (s *RunStore) Get(runID string) (*Run, error) {
	r := &Run{}
	var cfg, notes sql.NullString
	err := s.db.QueryRow(`
		SELECT run_id, source, config_json, created_at, notes
		FROM gp_runs WHERE run_id = ?
	`, runID).Scan(&r.RunID, &r.Source, &cfg, &r.CreatedAt, &notes)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	r.ConfigJSON = cfg.String
	r.Notes = notes.String
	return r, nil
}

// List returns every run, newest first.
func (s *RunStore) List() ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, source, config_json, created_at, notes
		FROM gp_runs ORDER BY created_at DESC, run_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		var cfg, notes sql.NullString
		if err := rows.Scan(&r.RunID, &r.Source, &cfg, &r.CreatedAt, &notes); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.ConfigJSON = cfg.String
		r.Notes = notes.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Delete removes a run and, through the foreign keys, everything recorded
// for it.
func (s *RunStore) Delete(runID string) error {
	result, err := s.db.Exec("DELETE FROM gp_runs WHERE run_id = ?", runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
