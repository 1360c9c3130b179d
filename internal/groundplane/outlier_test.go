package groundplane

import (
	"testing"

	"github.com/banshee-data/groundplane/internal/homography"
	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
)

func TestFilterOutliers(t *testing.T) {
	t.Parallel()

	// Track 3 is observed 5px from where its reference says it should be,
	// track 4 exactly 2px away.
	build := func() (*Registry, []Observation) {
		ids := []TrackID{1, 2, 3, 4, 5}
		reg := seededRegistry(ids, nil, map[TrackID]bool{5: true})
		obs := observe(ids...)
		obs[2].Loc = obs[2].Loc.Add(r2.Point{X: 3, Y: 4})
		obs[3].Loc = obs[3].Loc.Add(r2.Point{X: 0, Y: 2})
		return reg, obs
	}

	t.Run("enabled marks large errors bad", func(t *testing.T) {
		reg, obs := build()
		rep := FilterOutliers(reg, obs, homography.Identity(), true, 4.0)

		assert.Equal(t, 4, rep.Checked)
		assert.Equal(t, 3, rep.Good)
		assert.Equal(t, 1, rep.Bad)
		assert.InDelta(t, 25.0, rep.MaxErrorSqr, 1e-9)

		e3, _ := reg.Lookup(3)
		assert.False(t, e3.IsGood)
		assert.Equal(t, TrackBad, e3.State())

		// Error equal to the threshold is still good.
		e4, _ := reg.Lookup(4)
		assert.True(t, e4.IsGood)

		// Entries without a reference are left alone.
		e5, _ := reg.Lookup(5)
		assert.False(t, e5.IsGood)
		assert.False(t, e5.RefLocValid)
	})

	t.Run("bad tracks recover", func(t *testing.T) {
		reg, obs := build()
		FilterOutliers(reg, obs, homography.Identity(), true, 4.0)
		FilterOutliers(reg, observe(1, 2, 3, 4), homography.Identity(), true, 4.0)
		e3, _ := reg.Lookup(3)
		assert.True(t, e3.IsGood)
	})

	t.Run("disabled marks every referenced track good", func(t *testing.T) {
		reg, obs := build()
		reg.entry(2).IsGood = false
		rep := FilterOutliers(reg, obs, homography.Identity(), false, 4.0)

		assert.Equal(t, 4, rep.Good)
		assert.Zero(t, rep.Bad)
		for _, id := range []TrackID{1, 2, 3, 4} {
			e, _ := reg.Lookup(id)
			assert.True(t, e.IsGood, "track %d", id)
		}
	})

	t.Run("observation carried through the estimate", func(t *testing.T) {
		reg, _ := build()
		// Camera panned: image = ground − (7, −3), so H adds (7, −3).
		h := homography.Matrix{1, 0, 7, 0, 1, -3, 0, 0, 1}
		obs := observe(1, 2)
		for i := range obs {
			obs[i].Loc = obs[i].Loc.Sub(r2.Point{X: 7, Y: -3})
		}
		rep := FilterOutliers(reg, obs, h, true, 0.01)
		assert.Equal(t, 2, rep.Good)
		assert.InDelta(t, 0, rep.MaxErrorSqr, 1e-12)
	})
}
