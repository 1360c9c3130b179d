package homography

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/golang/geo/r2"
)

// MinCorrespondences is the minimum number of point pairs that determine a
// projective transform.
const MinCorrespondences = 4

var (
	// ErrInsufficientPoints is returned when fewer than MinCorrespondences
	// pairs are supplied.
	ErrInsufficientPoints = errors.New("homography: insufficient correspondences")
	// ErrDegenerate is returned when the correspondences do not determine a
	// unique, invertible transform (collinear or coincident points, no
	// consensus).
	ErrDegenerate = errors.New("homography: degenerate correspondences")
	// ErrMissingEstimator is returned by CheckConfig when no estimator type
	// is configured.
	ErrMissingEstimator = errors.New("homography: estimator type not set")
	// ErrUnknownEstimator is returned by CheckConfig for an unregistered type.
	ErrUnknownEstimator = errors.New("homography: unknown estimator type")
)

// Result is the output of a successful estimate.
type Result struct {
	H Matrix
	// Inliers[i] reports whether pair i agrees with H. Estimators without a
	// notion of outliers mark every pair as an inlier.
	Inliers []bool
}

// InlierCount returns the number of pairs flagged as inliers.
func (r Result) InlierCount() int {
	n := 0
	for _, in := range r.Inliers {
		if in {
			n++
		}
	}
	return n
}

// Estimator fits a transform H such that H(from[i]) ≈ to[i].
// from and to must have equal length.
type Estimator interface {
	Estimate(from, to []r2.Point) (Result, error)
}

// DLTConfig configures the direct linear transform estimator.
type DLTConfig struct {
	// Normalize enables Hartley normalisation of both point sets before
	// solving. Disabling it is only useful for comparison runs.
	Normalize bool
}

// RANSACConfig configures the RANSAC estimator.
type RANSACConfig struct {
	InlierThreshold float64 // maximum transfer error (pixels) for an inlier
	MaxIterations   int     // hard cap on sampling rounds
	Confidence      float64 // probability of drawing one all-inlier sample, (0,1)
	Seed            int64   // 0 seeds from the clock
}

// Config is the nested estimator configuration: Type selects a registered
// variant and the matching block configures it.
type Config struct {
	Type   string
	DLT    DLTConfig
	RANSAC RANSACConfig
}

// DefaultConfig returns a RANSAC estimator configuration suitable for
// pixel-scale feature tracks.
func DefaultConfig() Config {
	return Config{
		Type: "ransac",
		DLT:  DLTConfig{Normalize: true},
		RANSAC: RANSACConfig{
			InlierThreshold: 2.0,
			MaxIterations:   500,
			Confidence:      0.99,
		},
	}
}

// Variant describes one pluggable estimator.
type Variant struct {
	// New builds an estimator from an already checked configuration.
	New func(cfg Config) Estimator
	// Check validates the variant's own configuration block.
	Check func(cfg Config) error
}

var (
	variantsMu sync.RWMutex
	variants   = map[string]Variant{
		"dlt": {
			New:   func(cfg Config) Estimator { return NewDLT(cfg.DLT) },
			Check: func(Config) error { return nil },
		},
		"ransac": {
			New:   func(cfg Config) Estimator { return NewRANSAC(cfg.RANSAC, cfg.DLT) },
			Check: func(cfg Config) error { return cfg.RANSAC.validate() },
		},
	}
)

// Register adds or replaces a named estimator variant.
func Register(name string, v Variant) {
	variantsMu.Lock()
	defer variantsMu.Unlock()
	variants[name] = v
}

// Types returns the registered variant names in sorted order.
func Types() []string {
	variantsMu.RLock()
	defer variantsMu.RUnlock()
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckConfig reports whether cfg names a registered estimator whose own
// configuration is valid.
func CheckConfig(cfg Config) error {
	if cfg.Type == "" {
		return ErrMissingEstimator
	}
	variantsMu.RLock()
	v, ok := variants[cfg.Type]
	variantsMu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q (known: %v)", ErrUnknownEstimator, cfg.Type, Types())
	}
	if v.Check != nil {
		if err := v.Check(cfg); err != nil {
			return fmt.Errorf("homography estimator %q: %w", cfg.Type, err)
		}
	}
	return nil
}

// New builds the estimator selected by cfg.
func New(cfg Config) (Estimator, error) {
	if err := CheckConfig(cfg); err != nil {
		return nil, err
	}
	variantsMu.RLock()
	v := variants[cfg.Type]
	variantsMu.RUnlock()
	return v.New(cfg), nil
}

func (c RANSACConfig) validate() error {
	if c.InlierThreshold <= 0 {
		return fmt.Errorf("inlier_threshold must be positive, got %g", c.InlierThreshold)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		return fmt.Errorf("confidence must be in (0, 1), got %g", c.Confidence)
	}
	return nil
}
