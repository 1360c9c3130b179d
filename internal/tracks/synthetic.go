package tracks

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/banshee-data/groundplane/internal/groundplane"
	"github.com/banshee-data/groundplane/internal/homography"
	"github.com/golang/geo/r2"
)

// SyntheticConfig describes a camera moving over a flat, textured ground
// plane. World and image units are pixels of the first frame.
type SyntheticConfig struct {
	Frames int     // number of frames to generate, numbered from 1
	Points int     // ground features scattered over the visited area
	Width  float64 // image width
	Height float64 // image height

	Pan          r2.Point // camera centre motion per frame (world units)
	RotationRate float64  // radians per frame
	ZoomRate     float64  // scale factor per frame, 1 for none
	Tilt         float64  // projective foreshortening, 0 for a nadir view

	Noise         float64 // standard deviation of observation noise
	OutlierRate   float64 // probability an observation is displaced
	OutlierOffset float64 // displacement applied to outliers
	DropoutRate   float64 // probability a visible track is missed for a frame

	Seed int64 // 0 seeds from the clock
}

// DefaultSyntheticConfig returns a slowly panning, slightly rotating camera
// with mild noise and no outliers.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Frames:        60,
		Points:        400,
		Width:         640,
		Height:        480,
		Pan:           r2.Point{X: 4, Y: 1},
		RotationRate:  0.002,
		ZoomRate:      1.0,
		Noise:         0.2,
		DropoutRate:   0.02,
		OutlierOffset: 25,
	}
}

// Validate reports configurations the generator cannot honour.
func (c SyntheticConfig) Validate() error {
	switch {
	case c.Frames <= 0:
		return fmt.Errorf("frames must be positive, got %d", c.Frames)
	case c.Points <= 0:
		return fmt.Errorf("points must be positive, got %d", c.Points)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("image size must be positive, got %gx%g", c.Width, c.Height)
	case c.ZoomRate <= 0:
		return fmt.Errorf("zoom_rate must be positive, got %g", c.ZoomRate)
	case c.Noise < 0:
		return fmt.Errorf("noise must be non-negative, got %g", c.Noise)
	case c.OutlierRate < 0 || c.OutlierRate > 1:
		return fmt.Errorf("outlier_rate must be in [0, 1], got %g", c.OutlierRate)
	case c.DropoutRate < 0 || c.DropoutRate > 1:
		return fmt.Errorf("dropout_rate must be in [0, 1], got %g", c.DropoutRate)
	}
	return nil
}

// SyntheticScene is a generated track set with its ground truth.
type SyntheticScene struct {
	Tracks *Set

	// WorldToImage holds each frame's true camera mapping, indexed by
	// frame id minus one.
	WorldToImage []homography.Matrix
}

// FrameToFirst returns the true mapping from frame's image to the first
// frame's image, which is what a mapper bootstrapped on frame 1 estimates.
func (s *SyntheticScene) FrameToFirst(frame groundplane.FrameID) (homography.Matrix, bool) {
	i := int(frame) - 1
	if i < 0 || i >= len(s.WorldToImage) {
		return homography.Matrix{}, false
	}
	inv, ok := s.WorldToImage[i].Inverse()
	if !ok {
		return homography.Matrix{}, false
	}
	return s.WorldToImage[0].Mul(inv).Normalize(), true
}

// GenerateSynthetic renders cfg into a track set. Features leaving the
// image lose their track; when they re-enter they are given a new id, as a
// feature tracker would.
func GenerateSynthetic(cfg SyntheticConfig) (*SyntheticScene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("synthetic scene: %w", err)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	scene := &SyntheticScene{
		Tracks:       NewSet(),
		WorldToImage: make([]homography.Matrix, cfg.Frames),
	}
	for i := range scene.WorldToImage {
		scene.WorldToImage[i] = cameraAt(cfg, i)
	}

	world := scatter(cfg, rng)
	ids := make([]groundplane.TrackID, len(world))
	next := groundplane.TrackID(1)

	for i, m := range scene.WorldToImage {
		frame := groundplane.FrameID(i + 1)
		for p, w := range world {
			img, ok := m.Apply(w)
			if !ok || img.X < 0 || img.Y < 0 || img.X > cfg.Width || img.Y > cfg.Height {
				ids[p] = 0
				continue
			}
			if ids[p] == 0 {
				ids[p] = next
				next++
			}
			if rng.Float64() < cfg.DropoutRate {
				continue
			}
			img = img.Add(r2.Point{X: rng.NormFloat64() * cfg.Noise, Y: rng.NormFloat64() * cfg.Noise})
			if rng.Float64() < cfg.OutlierRate {
				a := rng.Float64() * 2 * math.Pi
				img = img.Add(r2.Point{X: math.Cos(a), Y: math.Sin(a)}.Mul(cfg.OutlierOffset))
			}
			scene.Tracks.Add(frame, groundplane.Observation{ID: ids[p], Loc: img})
		}
	}
	return scene, nil
}

// cameraAt returns the world-to-image mapping of frame index i. Frame 0's
// image coincides with the world.
func cameraAt(cfg SyntheticConfig, i int) homography.Matrix {
	c := r2.Point{X: cfg.Width / 2, Y: cfg.Height / 2}
	centre := c.Add(cfg.Pan.Mul(float64(i)))
	theta := cfg.RotationRate * float64(i)
	zoom := math.Pow(cfg.ZoomRate, float64(i))
	sin, cos := math.Sincos(theta)

	toCentre := homography.Matrix{1, 0, -centre.X, 0, 1, -centre.Y, 0, 0, 1}
	rotZoom := homography.Matrix{zoom * cos, zoom * sin, 0, -zoom * sin, zoom * cos, 0, 0, 0, 1}
	tilt := homography.Matrix{1, 0, 0, 0, 1, 0, 0, cfg.Tilt * float64(i) / cfg.Height, 1}
	toImage := homography.Matrix{1, 0, c.X, 0, 1, c.Y, 0, 0, 1}
	return toImage.Mul(tilt).Mul(rotZoom).Mul(toCentre).Normalize()
}

// scatter places cfg.Points features uniformly over the area the camera
// centre sweeps, padded by one image diagonal.
func scatter(cfg SyntheticConfig, rng *rand.Rand) []r2.Point {
	start := r2.Point{X: cfg.Width / 2, Y: cfg.Height / 2}
	end := start.Add(cfg.Pan.Mul(float64(cfg.Frames - 1)))
	pad := math.Hypot(cfg.Width, cfg.Height) / math.Min(1, math.Pow(cfg.ZoomRate, float64(cfg.Frames-1)))
	minX, maxX := math.Min(start.X, end.X)-pad, math.Max(start.X, end.X)+pad
	minY, maxY := math.Min(start.Y, end.Y)-pad, math.Max(start.Y, end.Y)+pad

	pts := make([]r2.Point, cfg.Points)
	for i := range pts {
		pts[i] = r2.Point{
			X: minX + rng.Float64()*(maxX-minX),
			Y: minY + rng.Float64()*(maxY-minY),
		}
	}
	return pts
}
