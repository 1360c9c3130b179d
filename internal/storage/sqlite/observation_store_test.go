package sqlite

import (
	"testing"

	"github.com/banshee-data/groundplane/internal/groundplane"
	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservationStore(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	runID := insertTestRun(t, db)
	store := NewObservationStore(db.DB)

	require.NoError(t, store.Insert(runID, 3, []groundplane.Observation{
		{ID: 8, Loc: r2.Point{X: 1.5, Y: 2}},
		{ID: 2, Loc: r2.Point{X: -4, Y: 0.25}},
	}))
	require.NoError(t, store.Insert(runID, 1, []groundplane.Observation{{ID: 2, Loc: r2.Point{X: 9, Y: 9}}}))
	// Same track in the same frame replaces.
	require.NoError(t, store.Insert(runID, 3, []groundplane.Observation{{ID: 8, Loc: r2.Point{X: 7, Y: 7}}}))

	frames, err := store.Frames(runID)
	require.NoError(t, err)
	assert.Equal(t, []groundplane.FrameID{1, 3}, frames)

	src := store.Source(runID)
	var _ groundplane.TrackSource = src
	obs, err := src.ActiveTracks(3)
	require.NoError(t, err)
	assert.Equal(t, []groundplane.Observation{
		{ID: 2, Loc: r2.Point{X: -4, Y: 0.25}},
		{ID: 8, Loc: r2.Point{X: 7, Y: 7}},
	}, obs)

	obs, err = src.ActiveTracks(2)
	require.NoError(t, err)
	assert.Empty(t, obs)

	other, err := store.Source("missing-run").ActiveTracks(3)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestObservationStoreRequiresRun(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	err := NewObservationStore(db.DB).Insert("no-such-run", 1, []groundplane.Observation{{ID: 1}})
	assert.Error(t, err, "foreign key must reject observations without a run")
}

func TestDeleteRunCascades(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	runID := insertTestRun(t, db)
	store := NewObservationStore(db.DB)
	require.NoError(t, store.Insert(runID, 1, []groundplane.Observation{{ID: 1}}))

	require.NoError(t, NewRunStore(db.DB).Delete(runID))
	frames, err := store.Frames(runID)
	require.NoError(t, err)
	assert.Empty(t, frames)
}
