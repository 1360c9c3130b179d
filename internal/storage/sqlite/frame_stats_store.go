package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/banshee-data/groundplane/internal/groundplane"
)

// FrameStatsStore provides persistence for per-frame mapper statistics.
type FrameStatsStore struct {
	db *sql.DB
}

// NewFrameStatsStore creates a new FrameStatsStore.
func NewFrameStatsStore(db *sql.DB) *FrameStatsStore {
	return &FrameStatsStore{db: db}
}

// Insert records the statistics of one Measure call.
func (s *FrameStatsStore) Insert(runID string, st groundplane.FrameStats) error {
	var errText string
	if st.Err != nil {
		errText = st.Err.Error()
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO gp_frame_stats (
			run_id, frame_id, outcome, active, created, missed, evicted,
			bootstrapped, correspondences, inliers, good, bad,
			max_error_sqr, seeded, appended, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID, int64(st.Frame), string(st.Outcome),
		st.Active, st.Created, st.Missed, st.Evicted,
		st.Bootstrapped, st.Correspondences, st.Inliers, st.Good, st.Bad,
		st.MaxErrorSqr, st.Seeded, st.Appended, nullString(errText),
	)
	if err != nil {
		return fmt.Errorf("insert frame stats frame %d: %w", st.Frame, err)
	}
	return nil
}

// ListByRun returns runID's frame statistics ordered by frame. Stored
// errors are restored as opaque errors carrying the original message.
func (s *FrameStatsStore) ListByRun(runID string) ([]groundplane.FrameStats, error) {
	rows, err := s.db.Query(`
		SELECT frame_id, outcome, active, created, missed, evicted,
			bootstrapped, correspondences, inliers, good, bad,
			max_error_sqr, seeded, appended, error
		FROM gp_frame_stats WHERE run_id = ?
		ORDER BY frame_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list frame stats: %w", err)
	}
	defer rows.Close()

	var out []groundplane.FrameStats
	for rows.Next() {
		var st groundplane.FrameStats
		var frame int64
		var outcome string
		var errText sql.NullString
		err := rows.Scan(
			&frame, &outcome, &st.Active, &st.Created, &st.Missed, &st.Evicted,
			&st.Bootstrapped, &st.Correspondences, &st.Inliers, &st.Good, &st.Bad,
			&st.MaxErrorSqr, &st.Seeded, &st.Appended, &errText,
		)
		if err != nil {
			return nil, fmt.Errorf("scan frame stats: %w", err)
		}
		st.Frame = groundplane.FrameID(frame)
		st.Outcome = groundplane.Outcome(outcome)
		if errText.Valid {
			st.Err = errors.New(errText.String)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// OutcomeCounts returns how many of runID's frames ended in each outcome.
func (s *FrameStatsStore) OutcomeCounts(runID string) (map[groundplane.Outcome]int, error) {
	rows, err := s.db.Query(`
		SELECT outcome, COUNT(*) FROM gp_frame_stats
		WHERE run_id = ? GROUP BY outcome
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[groundplane.Outcome]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan outcome count: %w", err)
		}
		counts[groundplane.Outcome(outcome)] = n
	}
	return counts, rows.Err()
}
