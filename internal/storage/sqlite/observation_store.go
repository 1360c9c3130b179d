package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/banshee-data/groundplane/internal/groundplane"
	"github.com/golang/geo/r2"
)

// ObservationStore provides persistence for per-frame track observations.
type ObservationStore struct {
	db *sql.DB
}

// NewObservationStore creates a new ObservationStore.
func NewObservationStore(db *sql.DB) *ObservationStore {
	return &ObservationStore{db: db}
}

// Insert records the observations of one frame in a single transaction,
// replacing any earlier observation of the same track in that frame.
func (s *ObservationStore) Insert(runID string, frame groundplane.FrameID, obs []groundplane.Observation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert observations: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO gp_track_observations (run_id, frame_id, track_id, x, y)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert observation: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		if _, err := stmt.Exec(runID, int64(frame), int64(o.ID), o.Loc.X, o.Loc.Y); err != nil {
			return fmt.Errorf("insert observation frame %d track %d: %w", frame, o.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit observations: %w", err)
	}
	return nil
}

// ActiveTracks returns the observations recorded for frame, ordered by
// track id.
func (s *ObservationStore) ActiveTracks(runID string, frame groundplane.FrameID) ([]groundplane.Observation, error) {
	rows, err := s.db.Query(`
		SELECT track_id, x, y FROM gp_track_observations
		WHERE run_id = ? AND frame_id = ?
		ORDER BY track_id
	`, runID, int64(frame))
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var obs []groundplane.Observation
	for rows.Next() {
		var id int64
		var p r2.Point
		if err := rows.Scan(&id, &p.X, &p.Y); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		obs = append(obs, groundplane.Observation{ID: groundplane.TrackID(id), Loc: p})
	}
	return obs, rows.Err()
}

// Frames returns the distinct frame ids recorded for runID, ascending.
func (s *ObservationStore) Frames(runID string) ([]groundplane.FrameID, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT frame_id FROM gp_track_observations
		WHERE run_id = ? ORDER BY frame_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var frames []groundplane.FrameID
	for rows.Next() {
		var f int64
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		frames = append(frames, groundplane.FrameID(f))
	}
	return frames, rows.Err()
}

// Source returns a groundplane.TrackSource reading runID's observations.
func (s *ObservationStore) Source(runID string) *ObservationSource {
	return &ObservationSource{store: s, runID: runID}
}

// ObservationSource serves one run's stored observations to a mapper.
type ObservationSource struct {
	store *ObservationStore
	runID string
}

// ActiveTracks implements groundplane.TrackSource.
func (o *ObservationSource) ActiveTracks(frame groundplane.FrameID) ([]groundplane.Observation, error) {
	return o.store.ActiveTracks(o.runID, frame)
}
