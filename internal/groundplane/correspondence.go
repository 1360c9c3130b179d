package groundplane

import (
	"github.com/banshee-data/groundplane/internal/homography"
	"github.com/golang/geo/r2"
)

// Correspondence pairs a track's ground-plane reference with its location
// in the current frame.
type Correspondence struct {
	ID  TrackID
	Ref r2.Point
	Cur r2.Point
}

// SelectCorrespondences returns a pair for every observed track whose entry
// has a valid reference and is marked good. When useBackprojectError is
// false the quality flag is ignored. Fewer than
// homography.MinCorrespondences pairs yield nil: there is nothing to
// estimate from.
func SelectCorrespondences(reg *Registry, obs []Observation, useBackprojectError bool) []Correspondence {
	var pairs []Correspondence
	for _, o := range obs {
		e, ok := reg.Lookup(o.ID)
		if !ok || !e.RefLocValid {
			continue
		}
		if useBackprojectError && !e.IsGood {
			continue
		}
		pairs = append(pairs, Correspondence{ID: o.ID, Ref: e.RefLoc, Cur: o.Loc})
	}
	if len(pairs) < homography.MinCorrespondences {
		return nil
	}
	return pairs
}

// split returns the current-frame and reference points of pairs, in order.
func split(pairs []Correspondence) (cur, ref []r2.Point) {
	cur = make([]r2.Point, len(pairs))
	ref = make([]r2.Point, len(pairs))
	for i, p := range pairs {
		cur[i], ref[i] = p.Cur, p.Ref
	}
	return cur, ref
}
