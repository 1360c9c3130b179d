package tracks

import (
	"testing"

	"github.com/banshee-data/groundplane/internal/groundplane"
	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obs(id groundplane.TrackID, x, y float64) groundplane.Observation {
	return groundplane.Observation{ID: id, Loc: r2.Point{X: x, Y: y}}
}

func TestSet(t *testing.T) {
	t.Parallel()
	s := NewSet()
	s.Add(2, obs(9, 1, 1), obs(3, 2, 2))
	s.Add(1, obs(3, 0, 0))
	s.Add(2, obs(9, 5, 5))

	assert.Equal(t, []groundplane.FrameID{1, 2}, s.Frames())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.TrackCount())

	got, err := s.ActiveTracks(2)
	require.NoError(t, err)
	assert.Equal(t, []groundplane.Observation{obs(3, 2, 2), obs(9, 5, 5)}, got)

	got, err = s.ActiveTracks(7)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSetActiveTracksReturnsCopy(t *testing.T) {
	t.Parallel()
	s := NewSet()
	s.Add(1, obs(1, 0, 0))

	got, _ := s.ActiveTracks(1)
	got[0].Loc = r2.Point{X: 100, Y: 100}

	again, _ := s.ActiveTracks(1)
	assert.Equal(t, r2.Point{}, again[0].Loc)
}

func TestSetIsTrackSource(t *testing.T) {
	t.Parallel()
	var _ groundplane.TrackSource = NewSet()
}
