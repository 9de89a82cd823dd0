package stage6

import (
	"time"

	"github.com/cedarwud/orbit-engine/internal/model"
)

// PoolStatus builds the per-instant, per-constellation visible-satellite
// count and its coverage verdict against minimumVisible (spec.md §4.7:
// Starlink 10-15, OneWeb 3-6, as configured).
func PoolStatus(times []time.Time, byTime map[int64][]jointPoint, minimumVisible map[model.Constellation]int) []model.PoolStatusPoint {
	var out []model.PoolStatusPoint
	for _, t := range times {
		counts := map[model.Constellation]int{}
		for _, p := range byTime[t.Unix()] {
			counts[p.Constellation]++
		}
		for c, floor := range minimumVisible {
			n := counts[c]
			out = append(out, model.PoolStatusPoint{
				Timestamp:     t,
				Constellation: c,
				VisibleCount:  n,
				MeetsFloor:    n >= floor,
			})
		}
	}
	return out
}

// CoverageRate is the fraction of pool-status points that meet their
// constellation's floor -- the dynamic-pool verification's headline
// number, asserted against a 95% minimum.
func CoverageRate(status []model.PoolStatusPoint) float64 {
	if len(status) == 0 {
		return 0
	}
	met := 0
	for _, s := range status {
		if s.MeetsFloor {
			met++
		}
	}
	return float64(met) / float64(len(status))
}
