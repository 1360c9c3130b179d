package groundplane_test

import (
	"testing"

	"github.com/banshee-data/groundplane/internal/groundplane"
	"github.com/banshee-data/groundplane/internal/homography"
	"github.com/banshee-data/groundplane/internal/tracks"
	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cornerError returns the largest distance between image corners mapped
// through got and want.
func cornerError(t *testing.T, got, want homography.Matrix, w, h float64) float64 {
	t.Helper()
	worst := 0.0
	for _, c := range []r2.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}} {
		a, ok := got.Apply(c)
		require.True(t, ok)
		b, ok := want.Apply(c)
		require.True(t, ok)
		if d := a.Sub(b).Norm(); d > worst {
			worst = d
		}
	}
	return worst
}

func runScene(t *testing.T, scene *tracks.SyntheticScene, cfg groundplane.Config) groundplane.Collection {
	t.Helper()
	m, err := groundplane.NewMapper(cfg)
	require.NoError(t, err)
	var out groundplane.Collection
	for _, f := range scene.Tracks.Frames() {
		out, err = m.Measure(f, scene.Tracks)
		require.NoError(t, err)
	}
	return out
}

func TestMapperFollowsSyntheticCamera(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		scene  func(*tracks.SyntheticConfig)
		mapper func(*groundplane.Config)
		tol    float64
	}{
		{
			name:  "noise free projective",
			scene: func(c *tracks.SyntheticConfig) { c.Noise = 0; c.DropoutRate = 0.05; c.Tilt = 0.02; c.ZoomRate = 1.003 },
			tol:   1e-4,
		},
		{
			name: "outliers with filter",
			scene: func(c *tracks.SyntheticConfig) {
				c.Noise = 0
				c.OutlierRate = 0.05
			},
			mapper: func(c *groundplane.Config) {
				c.UseBackprojectError = true
				c.SetBackprojectThreshold(2)
			},
			tol: 1e-4,
		},
		{
			name:  "noisy",
			scene: func(c *tracks.SyntheticConfig) { c.Noise = 0.1 },
			tol:   3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sc := tracks.DefaultSyntheticConfig()
			sc.Frames = 30
			sc.Seed = 21
			tt.scene(&sc)
			scene, err := tracks.GenerateSynthetic(sc)
			require.NoError(t, err)

			cfg := groundplane.DefaultConfig()
			cfg.Estimator.RANSAC.Seed = 8
			if tt.mapper != nil {
				tt.mapper(&cfg)
			}
			out := runScene(t, scene, cfg)
			require.Equal(t, sc.Frames, out.Len())

			for _, fh := range out.All() {
				want, ok := scene.FrameToFirst(fh.Frame)
				require.True(t, ok)
				assert.Less(t, cornerError(t, fh.H, want, sc.Width, sc.Height), tt.tol, "frame %d", fh.Frame)
			}
		})
	}
}
