// Package camerapath turns a homography collection into the camera's path
// over the ground plane and renders it as HTML (go-echarts) or PNG
// (gonum/plot).
package camerapath

import (
	"math"

	"github.com/banshee-data/groundplane/internal/groundplane"
	"github.com/golang/geo/r2"
)

// Footprint is the ground-plane outline of one frame's image.
type Footprint struct {
	Frame   groundplane.FrameID
	Corners [4]r2.Point // image corners clockwise from the origin
	Centre  r2.Point    // image centre
}

// Area returns the footprint's area (shoelace formula).
func (f Footprint) Area() float64 {
	a := 0.0
	for i := range f.Corners {
		j := (i + 1) % len(f.Corners)
		a += f.Corners[i].Cross(f.Corners[j])
	}
	return math.Abs(a) / 2
}

// Footprints maps the corners and centre of a width×height image through
// every homography in c. Frames whose image touches the horizon are
// skipped.
func Footprints(c groundplane.Collection, width, height float64) []Footprint {
	img := [4]r2.Point{{X: 0, Y: 0}, {X: width, Y: 0}, {X: width, Y: height}, {X: 0, Y: height}}
	centre := r2.Point{X: width / 2, Y: height / 2}

	out := make([]Footprint, 0, c.Len())
	for _, fh := range c.All() {
		fp := Footprint{Frame: fh.Frame}
		ok := true
		for i, p := range img {
			if fp.Corners[i], ok = fh.H.Apply(p); !ok {
				break
			}
		}
		if !ok {
			continue
		}
		if fp.Centre, ok = fh.H.Apply(centre); !ok {
			continue
		}
		out = append(out, fp)
	}
	return out
}

// Summary describes a camera path.
type Summary struct {
	Frames   int
	Distance float64 // path length of the footprint centres
	Min, Max r2.Point
}

// Summarize returns the path length and the bounding box of every
// footprint corner.
func Summarize(fps []Footprint) Summary {
	s := Summary{Frames: len(fps)}
	if len(fps) == 0 {
		return s
	}
	s.Min = r2.Point{X: math.Inf(1), Y: math.Inf(1)}
	s.Max = r2.Point{X: math.Inf(-1), Y: math.Inf(-1)}
	for i, fp := range fps {
		if i > 0 {
			s.Distance += fp.Centre.Sub(fps[i-1].Centre).Norm()
		}
		for _, p := range fp.Corners {
			s.Min = r2.Point{X: math.Min(s.Min.X, p.X), Y: math.Min(s.Min.Y, p.Y)}
			s.Max = r2.Point{X: math.Max(s.Max.X, p.X), Y: math.Max(s.Max.Y, p.Y)}
		}
	}
	return s
}
