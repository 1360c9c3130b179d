package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/banshee-data/groundplane/internal/groundplane"
	"github.com/banshee-data/groundplane/internal/homography"
)

// HomographyStore provides persistence for a run's frame homographies.
type HomographyStore struct {
	db *sql.DB
}

// NewHomographyStore creates a new HomographyStore.
func NewHomographyStore(db *sql.DB) *HomographyStore {
	return &HomographyStore{db: db}
}

const insertHomography = `
	INSERT OR REPLACE INTO gp_homographies (
		run_id, frame_id, h0, h1, h2, h3, h4, h5, h6, h7, h8
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func homographyArgs(runID string, fh groundplane.FrameHomography) []interface{} {
	args := []interface{}{runID, int64(fh.Frame)}
	for _, v := range fh.H {
		args = append(args, v)
	}
	return args
}

// Insert records one frame's homography.
func (s *HomographyStore) Insert(runID string, fh groundplane.FrameHomography) error {
	if _, err := s.db.Exec(insertHomography, homographyArgs(runID, fh)...); err != nil {
		return fmt.Errorf("insert homography frame %d: %w", fh.Frame, err)
	}
	return nil
}

// InsertCollection records every homography in c in one transaction.
func (s *HomographyStore) InsertCollection(runID string, c groundplane.Collection) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert homographies: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertHomography)
	if err != nil {
		return fmt.Errorf("prepare insert homography: %w", err)
	}
	defer stmt.Close()

	for _, fh := range c.All() {
		if _, err := stmt.Exec(homographyArgs(runID, fh)...); err != nil {
			return fmt.Errorf("insert homography frame %d: %w", fh.Frame, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit homographies: %w", err)
	}
	return nil
}

// ListByRun loads runID's homographies as a Collection.
func (s *HomographyStore) ListByRun(runID string) (groundplane.Collection, error) {
	rows, err := s.db.Query(`
		SELECT frame_id, h0, h1, h2, h3, h4, h5, h6, h7, h8
		FROM gp_homographies WHERE run_id = ?
		ORDER BY frame_id
	`, runID)
	if err != nil {
		return groundplane.Collection{}, fmt.Errorf("list homographies: %w", err)
	}
	defer rows.Close()

	var items []groundplane.FrameHomography
	for rows.Next() {
		var frame int64
		var h homography.Matrix
		if err := rows.Scan(&frame, &h[0], &h[1], &h[2], &h[3], &h[4], &h[5], &h[6], &h[7], &h[8]); err != nil {
			return groundplane.Collection{}, fmt.Errorf("scan homography: %w", err)
		}
		items = append(items, groundplane.FrameHomography{Frame: groundplane.FrameID(frame), H: h})
	}
	if err := rows.Err(); err != nil {
		return groundplane.Collection{}, fmt.Errorf("iterate homographies: %w", err)
	}
	return groundplane.NewCollection(items)
}
