package groundplane

import (
	"math"

	"github.com/banshee-data/groundplane/internal/homography"
)

// OutlierReport summarises one outlier filter pass.
type OutlierReport struct {
	Checked     int     // observed entries with a valid reference
	Good        int     // entries marked good
	Bad         int     // entries marked bad
	MaxErrorSqr float64 // largest squared back-projection error among checked entries
}

// FilterOutliers recomputes the quality flag of every observed entry that
// has a ground-plane reference. The observation is carried onto the ground
// plane through h and compared with the stored reference; a squared
// distance above thresholdSqr marks the entry bad. With enabled false every
// checked entry is marked good.
func FilterOutliers(reg *Registry, obs []Observation, h homography.Matrix, enabled bool, thresholdSqr float64) OutlierReport {
	var rep OutlierReport
	for _, o := range obs {
		e := reg.entry(o.ID)
		if e == nil || !e.RefLocValid {
			continue
		}
		rep.Checked++

		errSqr := h.TransferErrorSquared(o.Loc, e.RefLoc)
		if !math.IsInf(errSqr, 1) {
			rep.MaxErrorSqr = math.Max(rep.MaxErrorSqr, errSqr)
		}
		good := !enabled || errSqr <= thresholdSqr
		if enabled && e.IsGood != good {
			Tracef("track %d back-projection error² %.3f (threshold %.3f): good=%v", o.ID, errSqr, thresholdSqr, good)
		}
		e.IsGood = good
		if good {
			rep.Good++
		} else {
			rep.Bad++
		}
	}
	return rep
}
