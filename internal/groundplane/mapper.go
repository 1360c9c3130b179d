package groundplane

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/banshee-data/groundplane/internal/homography"
)

var (
	// ErrFrameOutOfOrder is returned when Measure is called with a frame id
	// lower than the previous call's.
	ErrFrameOutOfOrder = errors.New("groundplane: frame out of order")

	// ErrCloneEstimator is returned by Clone when the estimator cannot be
	// rebuilt from the mapper's configuration.
	ErrCloneEstimator = errors.New("groundplane: cannot rebuild estimator for clone")
)

// Outcome classifies what Measure could compute for a frame.
type Outcome string

const (
	OutcomeEstimated              Outcome = "estimated"
	OutcomeInsufficientMatches    Outcome = "insufficient_correspondences"
	OutcomeEstimationFailed       Outcome = "estimation_failed"
	OutcomeTrackSourceUnavailable Outcome = "track_source_unavailable"
)

// FrameStats describes the most recent Measure call.
type FrameStats struct {
	Frame   FrameID
	Outcome Outcome

	// Registry aging
	Active  int
	Created int
	Missed  int
	Evicted int

	// Bootstrapped is set on the frame that established the ground plane.
	Bootstrapped bool

	// Estimation
	Correspondences int
	Inliers         int // as reported by the estimator
	Good            int // outlier filter verdicts
	Bad             int
	MaxErrorSqr     float64
	Seeded          int  // tracks given their first reference this frame
	Appended        bool // a homography was added to the collection

	// Err holds the estimator or track source error behind a failed outcome.
	Err error
}

// Mapper incrementally maps video frames onto the ground plane.
//
// A Mapper owns its registry, estimator and output collection. Calls are
// serialised internally, but frames must still be supplied in
// non-decreasing order; use one Mapper (or a Clone) per video stream.
type Mapper struct {
	cfg       Config
	estimator homography.Estimator
	registry  *Registry
	output    Collection

	started   bool
	lastFrame FrameID
	stats     FrameStats

	mu sync.Mutex
}

// NewMapper creates a mapper, refusing configurations that fail
// CheckConfiguration.
func NewMapper(cfg Config) (*Mapper, error) {
	if err := CheckConfiguration(cfg); err != nil {
		Opsf("refusing mapper configuration: %v", err)
		return nil, err
	}
	est, err := homography.New(cfg.Estimator)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return &Mapper{
		cfg:       cfg,
		estimator: est,
		registry:  NewRegistry(cfg.ForgetTrackThreshold),
	}, nil
}

// Config returns the mapper's configuration.
func (m *Mapper) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Measure processes one frame: it ages the registry against the frame's
// active tracks, estimates the frame's image-to-ground homography from
// tracks with known ground-plane references, updates track quality and
// seeds references for new tracks. The returned collection holds every
// homography produced so far.
//
// A frame with fewer than four usable correspondences, or whose estimate
// fails, adds nothing to the collection and is not an error; LastStats
// reports the outcome. Repeating the most recent frame id is a no-op: the
// registry is not aged again and LastStats still describes the first call.
// Errors are returned only for out-of-order frames and track source
// failures.
func (m *Mapper) Measure(frame FrameID, src TrackSource) (Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started && frame < m.lastFrame {
		return m.output.snapshot(), fmt.Errorf("%w: frame %d after frame %d", ErrFrameOutOfOrder, frame, m.lastFrame)
	}
	if m.started && frame == m.lastFrame {
		Diagf("frame %d: already measured, skipping", frame)
		return m.output.snapshot(), nil
	}

	obs, err := src.ActiveTracks(frame)
	if err != nil {
		m.stats = FrameStats{Frame: frame, Outcome: OutcomeTrackSourceUnavailable, Err: err}
		Opsf("frame %d: track source failed: %v", frame, err)
		return m.output.snapshot(), fmt.Errorf("active tracks at frame %d: %w", frame, err)
	}
	obs = normalizeObservations(obs)
	m.started = true
	m.lastFrame = frame

	ids := make([]TrackID, len(obs))
	for i, o := range obs {
		ids[i] = o.ID
	}
	merge := m.registry.Merge(ids)
	stats := FrameStats{
		Frame:   frame,
		Active:  len(obs),
		Created: len(merge.Created),
		Missed:  len(merge.Missed),
		Evicted: len(merge.Evicted),
	}
	if len(merge.Evicted) > 0 {
		Diagf("frame %d: evicted %d tracks %v", frame, len(merge.Evicted), merge.Evicted)
	}

	if !m.registry.HasValidReference() && len(obs) >= homography.MinCorrespondences {
		m.bootstrap(obs)
		stats.Bootstrapped = true
		Opsf("frame %d: ground plane established from %d tracks", frame, len(obs))
	}

	pairs := SelectCorrespondences(m.registry, obs, m.cfg.UseBackprojectError)
	stats.Correspondences = len(pairs)
	if pairs == nil {
		stats.Outcome = OutcomeInsufficientMatches
		m.stats = stats
		Diagf("frame %d: insufficient correspondences (active=%d)", frame, len(obs))
		return m.output.snapshot(), nil
	}

	cur, ref := split(pairs)
	est, err := m.estimator.Estimate(cur, ref)
	if err != nil {
		stats.Outcome = OutcomeEstimationFailed
		stats.Err = err
		m.stats = stats
		Diagf("frame %d: homography estimation failed on %d correspondences: %v", frame, len(pairs), err)
		return m.output.snapshot(), nil
	}
	stats.Outcome = OutcomeEstimated
	stats.Inliers = est.InlierCount()

	rep := FilterOutliers(m.registry, obs, est.H, m.cfg.UseBackprojectError, m.cfg.BackprojectThresholdSqr)
	stats.Good, stats.Bad, stats.MaxErrorSqr = rep.Good, rep.Bad, rep.MaxErrorSqr

	stats.Seeded = m.seedReferences(obs, est.H)
	stats.Appended = m.output.append(FrameHomography{Frame: frame, H: est.H})
	m.stats = stats

	Diagf("frame %d: estimated from %d correspondences (inliers=%d good=%d bad=%d seeded=%d)",
		frame, stats.Correspondences, stats.Inliers, stats.Good, stats.Bad, stats.Seeded)
	return m.output.snapshot(), nil
}

// bootstrap adopts the current frame as the ground plane: every active
// track's reference becomes its current location.
func (m *Mapper) bootstrap(obs []Observation) {
	for _, o := range obs {
		e := m.registry.entry(o.ID)
		e.RefLoc = o.Loc
		e.RefLocValid = true
		e.IsGood = true
	}
}

// seedReferences maps active tracks without a reference onto the ground
// plane through h and returns how many were seeded.
func (m *Mapper) seedReferences(obs []Observation, h homography.Matrix) int {
	n := 0
	for _, o := range obs {
		e := m.registry.entry(o.ID)
		if e == nil || e.RefLocValid {
			continue
		}
		p, ok := h.Apply(o.Loc)
		if !ok {
			continue
		}
		e.RefLoc = p
		e.RefLocValid = true
		e.IsGood = true
		n++
	}
	return n
}

// Collection returns the homographies produced so far.
func (m *Mapper) Collection() Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.output.snapshot()
}

// Registry returns a copy of the track extension entries in id order.
func (m *Mapper) Registry() []TrackExtension {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.Entries()
}

// Lookup returns the registry entry for id.
func (m *Mapper) Lookup(id TrackID) (TrackExtension, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.Lookup(id)
}

// LastStats returns the statistics of the most recent Measure call.
func (m *Mapper) LastStats() FrameStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Reset discards all track state and output, as if newly constructed.
func (m *Mapper) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry.Reset()
	m.output = Collection{}
	m.started = false
	m.lastFrame = 0
	m.stats = FrameStats{}
}

// Clone returns an independent mapper with a copy of this mapper's
// configuration, registry and output, and a fresh estimator built from the
// same configuration. Estimators are never shared between mappers.
func (m *Mapper) Clone() (*Mapper, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	est, err := homography.New(m.cfg.Estimator)
	if err != nil {
		Opsf("clone: rebuilding estimator: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrCloneEstimator, err)
	}
	return &Mapper{
		cfg:       m.cfg,
		estimator: est,
		registry:  m.registry.Clone(),
		output:    m.output.clone(),
		started:   m.started,
		lastFrame: m.lastFrame,
		stats:     m.stats,
	}, nil
}

// normalizeObservations sorts obs by track id, keeping the first
// observation of any duplicated id.
func normalizeObservations(obs []Observation) []Observation {
	out := slices.Clone(obs)
	slices.SortStableFunc(out, func(a, b Observation) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return slices.CompactFunc(out, func(a, b Observation) bool { return a.ID == b.ID })
}
