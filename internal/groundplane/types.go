package groundplane

import (
	"fmt"
	"sort"

	"github.com/banshee-data/groundplane/internal/homography"
	"github.com/golang/geo/r2"
)

// TrackID identifies a feature track for the lifetime of its track source.
type TrackID int64

// FrameID indexes video frames. Successive Measure calls on one Mapper must
// pass non-decreasing values.
type FrameID int64

// Observation is a track's image location in one frame.
type Observation struct {
	ID  TrackID
	Loc r2.Point
}

// TrackSource provides the tracks observed in a frame.
type TrackSource interface {
	// ActiveTracks returns the observations for frame. Order is not
	// significant; the mapper sorts by ID.
	ActiveTracks(frame FrameID) ([]Observation, error)
}

// TrackSourceFunc adapts a function to the TrackSource interface.
type TrackSourceFunc func(frame FrameID) ([]Observation, error)

// ActiveTracks calls f(frame).
func (f TrackSourceFunc) ActiveTracks(frame FrameID) ([]Observation, error) {
	return f(frame)
}

// TrackState is the lifecycle state of a registry entry.
type TrackState string

const (
	TrackNew    TrackState = "new"    // seen, no ground-plane reference yet
	TrackGood   TrackState = "good"   // referenced and consistent with the latest estimate
	TrackBad    TrackState = "bad"    // referenced but rejected by back-projection error
	TrackMissed TrackState = "missed" // absent from the most recent frame(s)
)

// TrackExtension is the per-track state the mapper keeps alongside the
// track source.
type TrackExtension struct {
	ID TrackID

	// RefLoc is the track's ground-plane location; meaningful only when
	// RefLocValid is set.
	RefLoc      r2.Point
	RefLocValid bool

	// IsGood marks the track as usable for the next homography estimate.
	IsGood bool

	// MissedCount is the number of consecutive processed frames in which
	// the track was not active.
	MissedCount int
}

// State derives the lifecycle state from the entry's flags.
func (e TrackExtension) State() TrackState {
	switch {
	case e.MissedCount > 0:
		return TrackMissed
	case !e.RefLocValid:
		return TrackNew
	case e.IsGood:
		return TrackGood
	default:
		return TrackBad
	}
}

// FrameHomography is one frame's image-to-ground transform.
type FrameHomography struct {
	Frame FrameID
	H     homography.Matrix
}

// Collection is an append-only sequence of frame homographies ordered by
// strictly increasing frame id. The zero value is empty and ready to use.
//
// A Collection returned by the Mapper is a snapshot: later frames appended
// by the mapper are not visible through it.
type Collection struct {
	items []FrameHomography
}

// NewCollection builds a collection from items, which must be ordered by
// strictly increasing frame id.
func NewCollection(items []FrameHomography) (Collection, error) {
	for i := 1; i < len(items); i++ {
		if items[i].Frame <= items[i-1].Frame {
			return Collection{}, fmt.Errorf("homography collection: frame %d follows frame %d", items[i].Frame, items[i-1].Frame)
		}
	}
	out := make([]FrameHomography, len(items))
	copy(out, items)
	return Collection{items: out}, nil
}

// Len returns the number of homographies.
func (c Collection) Len() int { return len(c.items) }

// At returns the i-th homography in frame order.
func (c Collection) At(i int) FrameHomography { return c.items[i] }

// All returns a copy of the homographies in frame order.
func (c Collection) All() []FrameHomography {
	out := make([]FrameHomography, len(c.items))
	copy(out, c.items)
	return out
}

// Latest returns the most recently appended homography.
func (c Collection) Latest() (FrameHomography, bool) {
	if len(c.items) == 0 {
		return FrameHomography{}, false
	}
	return c.items[len(c.items)-1], true
}

// ForFrame returns the homography recorded for frame, if any.
func (c Collection) ForFrame(frame FrameID) (homography.Matrix, bool) {
	i := sort.Search(len(c.items), func(i int) bool { return c.items[i].Frame >= frame })
	if i < len(c.items) && c.items[i].Frame == frame {
		return c.items[i].H, true
	}
	return homography.Matrix{}, false
}

// append adds fh when its frame id is beyond the last entry's.
func (c *Collection) append(fh FrameHomography) bool {
	if n := len(c.items); n > 0 && fh.Frame <= c.items[n-1].Frame {
		return false
	}
	c.items = append(c.items, fh)
	return true
}

// snapshot returns a view whose capacity is capped at its length, so
// appends through either side never share storage.
func (c Collection) snapshot() Collection {
	return Collection{items: c.items[:len(c.items):len(c.items)]}
}

func (c Collection) clone() Collection {
	out := Collection{items: make([]FrameHomography, len(c.items))}
	copy(out.items, c.items)
	return out
}
