package sqlite

import (
	"errors"
	"testing"

	"github.com/banshee-data/groundplane/internal/groundplane"
	"github.com/banshee-data/groundplane/internal/homography"
	"github.com/banshee-data/groundplane/internal/tracks"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomographyStore(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	runID := insertTestRun(t, db)
	store := NewHomographyStore(db.DB)

	pan := homography.Matrix{1, 0, 3.5, 0, 1, -2, 1e-4, 0, 1}
	require.NoError(t, store.Insert(runID, groundplane.FrameHomography{Frame: 4, H: pan}))
	require.NoError(t, store.Insert(runID, groundplane.FrameHomography{Frame: 1, H: homography.Identity()}))

	c, err := store.ListByRun(runID)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, groundplane.FrameID(1), c.At(0).Frame)
	h, ok := c.ForFrame(4)
	require.True(t, ok)
	assert.Equal(t, pan, h)

	empty, err := store.ListByRun("none")
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
}

// Runs a mapper over stored observations and checks the stored
// collection matches the in-memory one.
func TestStoredRunRoundTrip(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	runID := insertTestRun(t, db)

	sc := tracks.DefaultSyntheticConfig()
	sc.Frames = 8
	sc.Seed = 2
	scene, err := tracks.GenerateSynthetic(sc)
	require.NoError(t, err)

	obsStore := NewObservationStore(db.DB)
	for _, f := range scene.Tracks.Frames() {
		obs, _ := scene.Tracks.ActiveTracks(f)
		require.NoError(t, obsStore.Insert(runID, f, obs))
	}

	cfg := groundplane.DefaultConfig()
	cfg.Estimator.RANSAC.Seed = 1
	m, err := groundplane.NewMapper(cfg)
	require.NoError(t, err)

	statsStore := NewFrameStatsStore(db.DB)
	frames, err := obsStore.Frames(runID)
	require.NoError(t, err)
	src := obsStore.Source(runID)
	for _, f := range frames {
		_, err := m.Measure(f, src)
		require.NoError(t, err)
		require.NoError(t, statsStore.Insert(runID, m.LastStats()))
	}

	hs := NewHomographyStore(db.DB)
	require.NoError(t, hs.InsertCollection(runID, m.Collection()))
	loaded, err := hs.ListByRun(runID)
	require.NoError(t, err)
	if diff := cmp.Diff(m.Collection().All(), loaded.All()); diff != "" {
		t.Errorf("stored collection differs (-want +got):\n%s", diff)
	}

	stats, err := statsStore.ListByRun(runID)
	require.NoError(t, err)
	require.Len(t, stats, len(frames))
	assert.True(t, stats[0].Bootstrapped)
	assert.Equal(t, m.LastStats().Correspondences, stats[len(stats)-1].Correspondences)

	counts, err := statsStore.OutcomeCounts(runID)
	require.NoError(t, err)
	assert.Equal(t, len(frames), counts[groundplane.OutcomeEstimated])
}

func TestFrameStatsStoreKeepsError(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	runID := insertTestRun(t, db)
	store := NewFrameStatsStore(db.DB)

	require.NoError(t, store.Insert(runID, groundplane.FrameStats{
		Frame:   2,
		Outcome: groundplane.OutcomeEstimationFailed,
		Err:     errors.New("homography: degenerate correspondences"),
	}))
	require.NoError(t, store.Insert(runID, groundplane.FrameStats{Frame: 3, Outcome: groundplane.OutcomeInsufficientMatches}))

	stats, err := store.ListByRun(runID)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	require.Error(t, stats[0].Err)
	assert.Equal(t, "homography: degenerate correspondences", stats[0].Err.Error())
	assert.NoError(t, stats[1].Err)
	assert.Equal(t, groundplane.OutcomeInsufficientMatches, stats[1].Outcome)
}
