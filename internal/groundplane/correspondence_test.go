package groundplane

import (
	"testing"

	"github.com/banshee-data/groundplane/internal/homography"
	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seededRegistry returns a registry holding ids with references at
// (10·id, 5·id); ids listed in bad are marked bad and ids in unseeded have
// no reference.
func seededRegistry(ids []TrackID, bad, unseeded map[TrackID]bool) *Registry {
	r := NewRegistry(10)
	r.Merge(ids)
	for _, id := range ids {
		if unseeded[id] {
			continue
		}
		e := r.entry(id)
		e.RefLoc = r2.Point{X: 10 * float64(id), Y: 5 * float64(id)}
		e.RefLocValid = true
		e.IsGood = !bad[id]
	}
	return r
}

func observe(ids ...TrackID) []Observation {
	obs := make([]Observation, len(ids))
	for i, id := range ids {
		obs[i] = Observation{ID: id, Loc: r2.Point{X: 10 * float64(id), Y: 5 * float64(id)}}
	}
	return obs
}

func pairIDs(pairs []Correspondence) []TrackID {
	var ids []TrackID
	for _, p := range pairs {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestSelectCorrespondences(t *testing.T) {
	t.Parallel()
	ids := []TrackID{1, 2, 3, 4, 5, 6}
	reg := seededRegistry(ids, map[TrackID]bool{2: true}, map[TrackID]bool{6: true})
	obs := observe(ids...)

	t.Run("filter enabled skips bad and unseeded", func(t *testing.T) {
		pairs := SelectCorrespondences(reg, obs, true)
		assert.Equal(t, []TrackID{1, 3, 4, 5}, pairIDs(pairs))
	})

	t.Run("filter disabled ignores quality", func(t *testing.T) {
		pairs := SelectCorrespondences(reg, obs, false)
		assert.Equal(t, []TrackID{1, 2, 3, 4, 5}, pairIDs(pairs))
	})

	t.Run("pairs carry reference and current location", func(t *testing.T) {
		moved := observe(ids...)
		moved[0].Loc = r2.Point{X: -1, Y: -2}
		pairs := SelectCorrespondences(reg, moved, false)
		require.NotEmpty(t, pairs)
		assert.Equal(t, r2.Point{X: 10, Y: 5}, pairs[0].Ref)
		assert.Equal(t, r2.Point{X: -1, Y: -2}, pairs[0].Cur)
	})

	t.Run("unobserved entries are not paired", func(t *testing.T) {
		pairs := SelectCorrespondences(reg, observe(1, 3, 4, 5), true)
		assert.Len(t, pairs, 4)
	})
}

func TestSelectCorrespondencesBelowMinimum(t *testing.T) {
	t.Parallel()
	ids := []TrackID{1, 2, 3, 4}
	reg := seededRegistry(ids, map[TrackID]bool{4: true}, nil)

	assert.Nil(t, SelectCorrespondences(reg, observe(ids...), true))
	assert.Len(t, SelectCorrespondences(reg, observe(ids...), false), homography.MinCorrespondences)
	assert.Nil(t, SelectCorrespondences(reg, observe(1, 2, 3), false))
	assert.Nil(t, SelectCorrespondences(reg, nil, false))
}
