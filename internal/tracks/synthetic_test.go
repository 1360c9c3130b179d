package tracks

import (
	"testing"

	"github.com/banshee-data/groundplane/internal/groundplane"
	"github.com/banshee-data/groundplane/internal/homography"
	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticConfigValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*SyntheticConfig)
	}{
		{"no frames", func(c *SyntheticConfig) { c.Frames = 0 }},
		{"no points", func(c *SyntheticConfig) { c.Points = -1 }},
		{"no image", func(c *SyntheticConfig) { c.Width = 0 }},
		{"zoom", func(c *SyntheticConfig) { c.ZoomRate = 0 }},
		{"noise", func(c *SyntheticConfig) { c.Noise = -1 }},
		{"outliers", func(c *SyntheticConfig) { c.OutlierRate = 1.5 }},
		{"dropouts", func(c *SyntheticConfig) { c.DropoutRate = -0.1 }},
	}
	assert.NoError(t, DefaultSyntheticConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSyntheticConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
			_, err := GenerateSynthetic(cfg)
			assert.Error(t, err)
		})
	}
}

func TestGenerateSyntheticIsDeterministic(t *testing.T) {
	t.Parallel()
	cfg := DefaultSyntheticConfig()
	cfg.Frames = 10
	cfg.Seed = 17

	a, err := GenerateSynthetic(cfg)
	require.NoError(t, err)
	b, err := GenerateSynthetic(cfg)
	require.NoError(t, err)

	require.Equal(t, a.Tracks.Frames(), b.Tracks.Frames())
	for _, f := range a.Tracks.Frames() {
		x, _ := a.Tracks.ActiveTracks(f)
		y, _ := b.Tracks.ActiveTracks(f)
		assert.Equal(t, x, y)
	}
}

func TestGenerateSyntheticMatchesCamera(t *testing.T) {
	t.Parallel()
	cfg := DefaultSyntheticConfig()
	cfg.Frames = 20
	cfg.Noise = 0
	cfg.DropoutRate = 0
	cfg.Seed = 5

	scene, err := GenerateSynthetic(cfg)
	require.NoError(t, err)
	require.Len(t, scene.WorldToImage, cfg.Frames)
	assert.True(t, scene.WorldToImage[0].ApproxEqual(homography.Identity(), 1e-12))

	first, _ := scene.Tracks.ActiveTracks(1)
	firstByID := make(map[groundplane.TrackID]r2.Point, len(first))
	for _, o := range first {
		firstByID[o.ID] = o.Loc
	}

	// Tracks that survive to the last frame sit where the camera puts them.
	last := groundplane.FrameID(cfg.Frames)
	toFirst, ok := scene.FrameToFirst(last)
	require.True(t, ok)
	obs, _ := scene.Tracks.ActiveTracks(last)
	matched := 0
	for _, o := range obs {
		want, ok := firstByID[o.ID]
		if !ok {
			continue
		}
		got, ok := toFirst.Apply(o.Loc)
		require.True(t, ok)
		assert.InDelta(t, want.X, got.X, 1e-6)
		assert.InDelta(t, want.Y, got.Y, 1e-6)
		matched++
	}
	assert.Greater(t, matched, 4)

	for _, f := range scene.Tracks.Frames() {
		obs, _ := scene.Tracks.ActiveTracks(f)
		for _, o := range obs {
			assert.True(t, o.Loc.X >= 0 && o.Loc.X <= cfg.Width && o.Loc.Y >= 0 && o.Loc.Y <= cfg.Height,
				"frame %d track %d outside image: %v", f, o.ID, o.Loc)
		}
	}

	_, ok = scene.FrameToFirst(0)
	assert.False(t, ok)
	_, ok = scene.FrameToFirst(last + 1)
	assert.False(t, ok)
}

func TestGenerateSyntheticReassignsReenteringTracks(t *testing.T) {
	t.Parallel()
	cfg := DefaultSyntheticConfig()
	cfg.Frames = 3
	cfg.Pan = r2.Point{X: 700}
	cfg.RotationRate = 0
	cfg.Noise = 0
	cfg.DropoutRate = 0
	cfg.Seed = 9

	scene, err := GenerateSynthetic(cfg)
	require.NoError(t, err)

	// The camera jumps more than an image width per frame, so no track id
	// is shared between frames.
	seen := make(map[groundplane.TrackID]groundplane.FrameID)
	for _, f := range scene.Tracks.Frames() {
		obs, _ := scene.Tracks.ActiveTracks(f)
		for _, o := range obs {
			prev, dup := seen[o.ID]
			assert.False(t, dup, "track %d seen in frames %d and %d", o.ID, prev, f)
			seen[o.ID] = f
		}
	}
}
