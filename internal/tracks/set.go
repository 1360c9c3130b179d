// Package tracks holds 2D feature tracks per video frame and serves them to
// the ground-plane mapper. Tracks can be loaded from CSV or generated from a
// synthetic planar scene.
package tracks

import (
	"slices"
	"sync"

	"github.com/banshee-data/groundplane/internal/groundplane"
)

// Set is an in-memory collection of track observations keyed by frame.
// It implements groundplane.TrackSource.
type Set struct {
	mu     sync.RWMutex
	frames map[groundplane.FrameID][]groundplane.Observation
	count  int
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{frames: make(map[groundplane.FrameID][]groundplane.Observation)}
}

// Add records observations for frame. A later observation of a track id
// already present in the frame replaces the earlier one.
func (s *Set) Add(frame groundplane.FrameID, obs ...groundplane.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.frames[frame]
	for _, o := range obs {
		if i := slices.IndexFunc(cur, func(c groundplane.Observation) bool { return c.ID == o.ID }); i >= 0 {
			cur[i] = o
			continue
		}
		cur = append(cur, o)
		s.count++
	}
	s.frames[frame] = cur
}

// ActiveTracks returns the observations of frame sorted by track id. A frame
// with no observations yields an empty result.
func (s *Set) ActiveTracks(frame groundplane.FrameID) ([]groundplane.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.frames[frame])
	slices.SortFunc(out, func(a, b groundplane.Observation) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

// Frames returns every frame id holding at least one observation, ascending.
func (s *Set) Frames() []groundplane.FrameID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]groundplane.FrameID, 0, len(s.frames))
	for f, obs := range s.frames {
		if len(obs) > 0 {
			ids = append(ids, f)
		}
	}
	slices.Sort(ids)
	return ids
}

// Len returns the total number of observations.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// TrackCount returns the number of distinct track ids.
func (s *Set) TrackCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[groundplane.TrackID]struct{})
	for _, obs := range s.frames {
		for _, o := range obs {
			seen[o.ID] = struct{}{}
		}
	}
	return len(seen)
}
