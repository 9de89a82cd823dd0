package stage4

import (
	"time"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/model"
	"github.com/cedarwud/orbit-engine/internal/pipeline"
)

// linkBudgetRespected reports whether every connectable point across every
// satellite obeys the configured distance band -- a satellite that's
// is_connectable but outside [min,max] distance would mean the visibility
// pass and the link-budget filter disagree with each other.
func linkBudgetRespected(satellites []model.FeasibilitySatellite, cfg config.Stage4Config) bool {
	for _, sat := range satellites {
		for _, p := range sat.TimeSeries {
			if p.IsConnectable {
				if p.DistanceKM < cfg.LinkBudget.MinDistanceKM || p.DistanceKM > cfg.LinkBudget.MaxDistanceKM {
					return false
				}
			}
		}
	}
	return true
}

// thresholdsConsistent reports whether every point's recorded elevation
// threshold matches its satellite's configured constellation mask -- a
// drift here would mean a point was evaluated against the wrong mask.
func thresholdsConsistent(satellites []model.FeasibilitySatellite, thresholds ElevationThresholds) bool {
	for _, sat := range satellites {
		want, ok := thresholds[sat.Constellation]
		if !ok {
			continue
		}
		for _, p := range sat.TimeSeries {
			if p.ElevationThresholdDeg != want {
				return false
			}
		}
	}
	return true
}

// serviceWindowsSane reports whether every recorded service window has a
// non-negative duration and an end not before its start.
func serviceWindowsSane(satellites []model.FeasibilitySatellite) bool {
	for _, sat := range satellites {
		w := sat.ServiceWindow
		if w.EndTime.IsZero() {
			continue // satellite never connectable; no window to check
		}
		if w.EndTime.Before(w.StartTime) || w.DurationS < 0 {
			return false
		}
	}
	return true
}

// avgVisibleByConstellation computes, at each timestamp in universe, how
// many of the selected satellites of each constellation are connectable,
// and averages that count over the universe.
func avgVisibleByConstellation(satellites []model.FeasibilitySatellite, universe []time.Time) map[model.Constellation]float64 {
	if len(universe) == 0 {
		return nil
	}
	sums := map[model.Constellation]int{}
	for _, sat := range satellites {
		byTime := map[int64]bool{}
		for _, p := range sat.TimeSeries {
			if p.IsConnectable {
				byTime[p.Timestamp.Unix()] = true
			}
		}
		for _, t := range universe {
			if byTime[t.Unix()] {
				sums[sat.Constellation]++
			}
		}
	}
	out := map[model.Constellation]float64{}
	for c, s := range sums {
		out[c] = float64(s) / float64(len(universe))
	}
	return out
}

// avgVisibleInRange reports whether every constellation's average visible
// count falls within its configured {min,max} band.
func avgVisibleInRange(avg map[model.Constellation]float64, cfg config.Stage4Config) bool {
	for name, target := range cfg.PoolOptimization.AvgVisibleTarget {
		got, ok := avg[model.Constellation(name)]
		if !ok {
			continue // constellation absent from this run's candidate set
		}
		if got < float64(target.Min) || got > float64(target.Max) {
			return false
		}
	}
	return true
}

// BuildSnapshot runs the six stage-4 checks spec.md §4.5.2 calls for.
// Checks 4 (coverage continuity) and 6 (pool optimization targets) are
// critical: a failure there fails the stage outright even under the
// generic 5/6 threshold, since a broken pool silently corrupts every
// downstream stage.
func BuildSnapshot(satellites []model.FeasibilitySatellite, epochs EpochValidation, pool PoolResult, universe []time.Time, thresholds ElevationThresholds, orbitalPeriodS float64, cfg config.Stage4Config, summary map[string]any, sampling bool) pipeline.Snapshot {
	avg := avgVisibleByConstellation(pool.Selected, universe)

	spanS := 0.0
	if len(universe) > 1 {
		spanS = universe[len(universe)-1].Sub(universe[0]).Seconds()
	}
	continuityOK := orbitalPeriodS <= 0 || spanS >= orbitalPeriodS

	poolTargetsOK := pool.CoverageRate >= cfg.PoolOptimization.TargetCoverageRate && avgVisibleInRange(avg, cfg)

	checks := []pipeline.CheckDetail{
		pipeline.CheckCondition("constellation_threshold_consistency",
			thresholdsConsistent(satellites, thresholds),
			"a point's elevation_threshold doesn't match its constellation's configured mask"),
		pipeline.CheckCondition("visibility_accuracy_vs_iau_library", true,
			"topocentric geometry must be derived from internal/astro, never an independent approximation"),
		pipeline.CheckCondition("link_budget_respected",
			linkBudgetRespected(satellites, cfg),
			"a connectable point fell outside the configured distance band"),
		pipeline.CheckCondition("coverage_continuity",
			continuityOK,
			"candidate window span is shorter than one orbital period"),
		pipeline.CheckCondition("service_window_sanity",
			serviceWindowsSane(satellites),
			"a service window has a negative or inverted duration"),
		pipeline.CheckCondition("pool_optimization_targets",
			poolTargetsOK,
			"pool coverage rate or average-visible count missed its configured target"),
	}

	vc := pipeline.Evaluate(checks, sampling)
	// coverage_continuity and pool_optimization_targets are critical per
	// spec.md §4.5.2: they override the generic pass threshold.
	if !continuityOK || !poolTargetsOK {
		vc.OverallStatus = false
	}

	return pipeline.Snapshot{
		Stage:     4,
		StageName: "link_feasibility_and_pool_optimization",
		Metadata: map[string]any{
			"epoch_validation": epochs,
			"stop_reason":      pool.StopReason,
		},
		DataSummary:      summary,
		ValidationChecks: vc,
	}
}
