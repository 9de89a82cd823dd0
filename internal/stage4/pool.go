package stage4

import (
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/model"
)

// PoolResult is the outcome of greedy set-cover pool optimization.
type PoolResult struct {
	Selected     []model.FeasibilitySatellite `json:"-"`
	SelectedIDs  []int                        `json:"selected_satellite_ids"`
	CoverageRate float64                      `json:"coverage_rate"`
	Iterations   int                          `json:"iterations"`
	StopReason   string                       `json:"stop_reason"`
	CoverageGaps []time.Time                  `json:"coverage_gaps,omitempty"`
}

// azimuthSectorCount splits the horizon into 8 45-degree sectors for the
// diversity tie-break (spec.md §4.5.2, Open Question resolved: sectors
// rather than raw variance, since entropy is well-defined on an empty
// sector count and variance is not for a single-satellite pool).
const azimuthSectorCount = 8

// OptimizePool runs greedy set cover with per-instant multiplicity over one
// constellation's candidate pool (spec.md §4.5.2): each instant in universe
// carries a residual demand seeded at targetMultiplicity
// (average_visible_target.min), decremented by 1 per selected satellite
// connectable at that instant, floored at 0 -- a satellite contributes at
// most one "slot" per instant regardless of how undercovered that instant
// still is. Reported coverage_rate is the fraction of instants whose
// achieved visible count reaches minimumVisibleFloor, independent of the
// residual bookkeeping that drives selection.
func OptimizePool(candidates []model.FeasibilitySatellite, universe []time.Time, targetMultiplicity, minimumVisibleFloor int, cfg config.Stage4Config) PoolResult {
	residual := make(map[int64]int, len(universe))
	for _, t := range universe {
		residual[t.Unix()] = targetMultiplicity
	}
	visibleCount := make(map[int64]int, len(universe))

	selected := make([]model.FeasibilitySatellite, 0, cfg.PoolOptimization.MaxPoolSize)
	remaining := append([]model.FeasibilitySatellite(nil), candidates...)

	total := len(universe)
	var result PoolResult

	for len(remaining) > 0 {
		if len(selected) >= cfg.PoolOptimization.MaxPoolSize {
			result.StopReason = "max_pool_size_reached"
			break
		}

		best, bestIdx, bestGain, bestScore := -1, -1, -1, -1.0
		for i, sat := range remaining {
			gain := marginalGain(sat, residual)
			score := float64(gain) + cfg.PoolOptimization.DiversityWeight*diversityScore(sat)
			if score > bestScore {
				best, bestIdx, bestGain, bestScore = sat.SatelliteID, i, gain, score
			}
		}

		if best < 0 {
			result.StopReason = "no_candidates_remain"
			break
		}

		if total > 0 {
			marginalRate := float64(bestGain) / float64(total)
			if marginalRate < cfg.PoolOptimization.ConvergenceEpsilon && len(selected) > 0 {
				result.StopReason = "marginal_gain_below_epsilon"
				break
			}
		}

		chosen := remaining[bestIdx]
		selected = append(selected, chosen)
		for _, p := range chosen.TimeSeries {
			if p.IsConnectable {
				key := p.Timestamp.Unix()
				visibleCount[key]++
				if residual[key] > 0 {
					residual[key]--
				}
			}
		}
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
		result.Iterations++

		coverageRate := coverageRateFromFloor(universe, visibleCount, minimumVisibleFloor)
		if allResidualsZero(residual) && coverageRate >= cfg.PoolOptimization.TargetCoverageRate {
			result.StopReason = "target_coverage_reached"
			break
		}
	}

	if result.StopReason == "" {
		result.StopReason = "candidates_exhausted"
	}

	result.Selected = selected
	result.SelectedIDs = lo.Map(selected, func(s model.FeasibilitySatellite, _ int) int { return s.SatelliteID })
	result.CoverageRate = coverageRateFromFloor(universe, visibleCount, minimumVisibleFloor)
	result.CoverageGaps = coverageGaps(universe, visibleCount, minimumVisibleFloor)
	return result
}

// marginalGain counts how many of sat's connectable timestamps still carry
// unmet residual demand -- a satellite contributes at most one slot per
// instant, never the full remaining residual.
func marginalGain(sat model.FeasibilitySatellite, residual map[int64]int) int {
	gain := 0
	for _, p := range sat.TimeSeries {
		if p.IsConnectable && residual[p.Timestamp.Unix()] > 0 {
			gain++
		}
	}
	return gain
}

// allResidualsZero reports whether every instant's residual demand has been
// met -- stopping condition (a)'s "all instants reach target" clause.
func allResidualsZero(residual map[int64]int) bool {
	for _, r := range residual {
		if r > 0 {
			return false
		}
	}
	return true
}

// coverageRateFromFloor is the fraction of universe instants whose achieved
// visible count meets or exceeds floor -- the coverage_rate_target metric,
// distinct from the greedy loop's internal residual-multiplicity target.
func coverageRateFromFloor(universe []time.Time, visibleCount map[int64]int, floor int) float64 {
	if len(universe) == 0 {
		return 0
	}
	met := 0
	for _, t := range universe {
		if visibleCount[t.Unix()] >= floor {
			met++
		}
	}
	return float64(met) / float64(len(universe))
}

// diversityScore is the Shannon entropy (bits) of sat's connectable points
// across 8 azimuth sectors, normalized to [0,1]. A satellite whose pass
// sweeps many compass directions scores higher than one that lingers in a
// single sector, all else equal.
func diversityScore(sat model.FeasibilitySatellite) float64 {
	counts := make([]int, azimuthSectorCount)
	total := 0
	for _, p := range sat.TimeSeries {
		if !p.IsConnectable {
			continue
		}
		sector := int(math.Mod(p.AzimuthDeg, 360) / (360.0 / azimuthSectorCount))
		if sector < 0 {
			sector = 0
		}
		if sector >= azimuthSectorCount {
			sector = azimuthSectorCount - 1
		}
		counts[sector]++
		total++
	}
	if total == 0 {
		return 0
	}

	entropy := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	maxEntropy := math.Log2(float64(azimuthSectorCount))
	if maxEntropy == 0 {
		return 0
	}
	return entropy / maxEntropy
}

// coverageGaps returns the subset of universe whose achieved visible count
// falls below floor, for the stage summary's coverage-gap enumeration.
func coverageGaps(universe []time.Time, visibleCount map[int64]int, floor int) []time.Time {
	return lo.Filter(universe, func(t time.Time, _ int) bool { return visibleCount[t.Unix()] < floor })
}
