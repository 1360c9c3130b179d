package groundplane

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/groundplane/internal/config"
	"github.com/banshee-data/groundplane/internal/homography"
)

// ErrInvalidConfiguration wraps every configuration check failure.
var ErrInvalidConfiguration = errors.New("groundplane: invalid configuration")

// Config holds the mapper's parameters.
type Config struct {
	// Estimator selects and configures the homography estimator.
	Estimator homography.Config

	// UseBackprojectError enables the outlier filter: tracks whose
	// back-projection error exceeds the threshold are left out of the next
	// estimate.
	UseBackprojectError bool

	// BackprojectThresholdSqr is the squared outlier cutoff (pixels²).
	BackprojectThresholdSqr float64

	// ForgetTrackThreshold is the number of consecutive missed frames
	// after which a track's state is discarded.
	ForgetTrackThreshold int
}

// DefaultConfig returns the built-in defaults: RANSAC estimation, outlier
// filter off, a 4 pixel back-projection threshold and a 10 frame forget
// threshold.
func DefaultConfig() Config {
	return Config{
		Estimator:               homography.DefaultConfig(),
		UseBackprojectError:     false,
		BackprojectThresholdSqr: 16.0,
		ForgetTrackThreshold:    10,
	}
}

// ConfigFromFile builds a Config from a loaded GroundPlaneConfig.
func ConfigFromFile(cfg *config.GroundPlaneConfig) Config {
	c := Config{
		Estimator: homography.Config{
			Type: cfg.GetEstimatorType(),
			DLT:  homography.DLTConfig{Normalize: cfg.GetDLTNormalize()},
			RANSAC: homography.RANSACConfig{
				InlierThreshold: cfg.GetRANSACInlierThreshold(),
				MaxIterations:   cfg.GetRANSACMaxIterations(),
				Confidence:      cfg.GetRANSACConfidence(),
				Seed:            cfg.GetRANSACSeed(),
			},
		},
		UseBackprojectError:  cfg.GetUseBackprojectError(),
		ForgetTrackThreshold: clampInt(cfg.GetForgetTrackThreshold()),
	}
	c.SetBackprojectThreshold(cfg.GetBackprojectThreshold())
	return c
}

// clampInt converts v to int, saturating at math.MaxInt.
func clampInt(v uint) int {
	if v > math.MaxInt {
		return math.MaxInt
	}
	return int(v)
}

// SetBackprojectThreshold sets the outlier cutoff from a distance in pixels.
func (c *Config) SetBackprojectThreshold(px float64) {
	c.BackprojectThresholdSqr = px * px
}

// BackprojectThreshold returns the outlier cutoff in pixels.
func (c Config) BackprojectThreshold() float64 {
	return math.Sqrt(c.BackprojectThresholdSqr)
}

// CheckConfiguration reports whether cfg can drive a Mapper. Only the
// nested estimator is checked; thresholds are accepted as given.
func CheckConfiguration(cfg Config) error {
	if err := homography.CheckConfig(cfg.Estimator); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return nil
}
