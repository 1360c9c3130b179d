package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/groundplane.defaults.json"

// GroundPlaneConfig is the root configuration for the ground-plane mapper.
// Fields are pointers so that omitted keys fall back to the Get* defaults.
type GroundPlaneConfig struct {
	HomographyEstimator  *EstimatorConfig `json:"homography_estimator,omitempty"`
	UseBackprojectError  *bool            `json:"use_backproject_error,omitempty"`
	BackprojectThreshold *float64         `json:"backproject_threshold,omitempty"` // pixels
	ForgetTrackThreshold *uint            `json:"forget_track_threshold,omitempty"`
}

// EstimatorConfig is the nested homography estimator block. Type selects
// the estimator; the matching sub-block configures it.
type EstimatorConfig struct {
	Type   *string       `json:"type,omitempty"`
	DLT    *DLTConfig    `json:"dlt,omitempty"`
	RANSAC *RANSACConfig `json:"ransac,omitempty"`
}

// DLTConfig configures the direct linear transform estimator.
type DLTConfig struct {
	Normalize *bool `json:"normalize,omitempty"`
}

// RANSACConfig configures the RANSAC estimator.
type RANSACConfig struct {
	InlierThreshold *float64 `json:"inlier_threshold,omitempty"` // pixels
	MaxIterations   *int     `json:"max_iterations,omitempty"`
	Confidence      *float64 `json:"confidence,omitempty"`
	Seed            *int64   `json:"seed,omitempty"`
}

// DefaultEstimatorType is the estimator named by DefaultConfig and the
// shipped defaults file.
const DefaultEstimatorType = "ransac"

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }
func ptrUint(v uint) *uint          { return &v }

// EmptyConfig returns a GroundPlaneConfig with all fields set to nil.
func EmptyConfig() *GroundPlaneConfig {
	return &GroundPlaneConfig{}
}

// DefaultConfig returns a GroundPlaneConfig with every field populated from
// the built-in defaults.
func DefaultConfig() *GroundPlaneConfig {
	c := EmptyConfig()
	return &GroundPlaneConfig{
		HomographyEstimator: &EstimatorConfig{
			Type: ptrString(DefaultEstimatorType),
			DLT:  &DLTConfig{Normalize: ptrBool(c.GetDLTNormalize())},
			RANSAC: &RANSACConfig{
				InlierThreshold: ptrFloat64(c.GetRANSACInlierThreshold()),
				MaxIterations:   ptrInt(c.GetRANSACMaxIterations()),
				Confidence:      ptrFloat64(c.GetRANSACConfidence()),
				Seed:            ptrInt64(c.GetRANSACSeed()),
			},
		},
		UseBackprojectError:  ptrBool(c.GetUseBackprojectError()),
		BackprojectThreshold: ptrFloat64(c.GetBackprojectThreshold()),
		ForgetTrackThreshold: ptrUint(c.GetForgetTrackThreshold()),
	}
}

// LoadConfig loads a GroundPlaneConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file fall back to their defaults, so partial configs are safe.
func LoadConfig(path string) (*GroundPlaneConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates a JSON configuration document.
func ParseConfig(data []byte) (*GroundPlaneConfig, error) {
	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file cannot
// be loaded; intended for test setup.
func MustLoadDefaultConfig() *GroundPlaneConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/storage/sqlite/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks values that can be judged without knowing which
// estimators are registered. Whether the estimator block is usable is
// decided by the mapper's configuration check.
func (c *GroundPlaneConfig) Validate() error {
	if c.BackprojectThreshold != nil && *c.BackprojectThreshold < 0 {
		return fmt.Errorf("backproject_threshold must be non-negative, got %f", *c.BackprojectThreshold)
	}
	return nil
}

// MarshalIndent returns the configuration as indented JSON.
func (c *GroundPlaneConfig) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// GetEstimatorType returns homography_estimator.type, or "" when the block
// or its type is absent. A missing type has no default; the mapper's
// configuration check rejects it.
func (c *GroundPlaneConfig) GetEstimatorType() string {
	if c.HomographyEstimator == nil || c.HomographyEstimator.Type == nil {
		return ""
	}
	return *c.HomographyEstimator.Type
}

// GetDLTNormalize returns homography_estimator.dlt.normalize or the default.
func (c *GroundPlaneConfig) GetDLTNormalize() bool {
	if c.HomographyEstimator == nil || c.HomographyEstimator.DLT == nil || c.HomographyEstimator.DLT.Normalize == nil {
		return true
	}
	return *c.HomographyEstimator.DLT.Normalize
}

func (c *GroundPlaneConfig) ransac() *RANSACConfig {
	if c.HomographyEstimator == nil || c.HomographyEstimator.RANSAC == nil {
		return &RANSACConfig{}
	}
	return c.HomographyEstimator.RANSAC
}

// GetRANSACInlierThreshold returns homography_estimator.ransac.inlier_threshold or the default.
func (c *GroundPlaneConfig) GetRANSACInlierThreshold() float64 {
	if r := c.ransac(); r.InlierThreshold != nil {
		return *r.InlierThreshold
	}
	return 2.0
}

// GetRANSACMaxIterations returns homography_estimator.ransac.max_iterations or the default.
func (c *GroundPlaneConfig) GetRANSACMaxIterations() int {
	if r := c.ransac(); r.MaxIterations != nil {
		return *r.MaxIterations
	}
	return 500
}

// GetRANSACConfidence returns homography_estimator.ransac.confidence or the default.
func (c *GroundPlaneConfig) GetRANSACConfidence() float64 {
	if r := c.ransac(); r.Confidence != nil {
		return *r.Confidence
	}
	return 0.99
}

// GetRANSACSeed returns homography_estimator.ransac.seed or the default
// (0: seed from the clock).
func (c *GroundPlaneConfig) GetRANSACSeed() int64 {
	if r := c.ransac(); r.Seed != nil {
		return *r.Seed
	}
	return 0
}

// GetUseBackprojectError returns use_backproject_error or the default.
func (c *GroundPlaneConfig) GetUseBackprojectError() bool {
	if c.UseBackprojectError == nil {
		return false
	}
	return *c.UseBackprojectError
}

// GetBackprojectThreshold returns backproject_threshold (pixels) or the default.
func (c *GroundPlaneConfig) GetBackprojectThreshold() float64 {
	if c.BackprojectThreshold == nil {
		return 4.0
	}
	return *c.BackprojectThreshold
}

// GetForgetTrackThreshold returns forget_track_threshold or the default.
func (c *GroundPlaneConfig) GetForgetTrackThreshold() uint {
	if c.ForgetTrackThreshold == nil {
		return 10
	}
	return *c.ForgetTrackThreshold
}
