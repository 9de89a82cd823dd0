package stage4

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/geo"
	"github.com/cedarwud/orbit-engine/internal/jsonio"
	"github.com/cedarwud/orbit-engine/internal/model"
	"github.com/cedarwud/orbit-engine/internal/pipeline"
	"github.com/cedarwud/orbit-engine/internal/stage1"
	"github.com/cedarwud/orbit-engine/internal/stage3"
)

// Output is stage 4's result: the selected dynamic pool's full (unpruned
// within each satellite) feasibility time series, plus the pool-selection
// record.
type Output struct {
	Satellites []model.FeasibilitySatellite
	Pool       PoolResult
	Epochs     EpochValidation
}

// NewRunner builds the stage 4 Runner[stage3.Output, Output]. stage1Dir is
// read once for epoch_analysis.json, which carries the per-constellation
// orbital period stage 4's coverage-continuity check needs.
func NewRunner(cfg config.Stage4Config, stage1Dir, previousDir, outputDir string, station geo.Station) *pipeline.Runner[stage3.Output, Output] {
	thresholds := thresholdsFromConfig(cfg)
	bins := qualityBinsFromConfig(cfg)

	return &pipeline.Runner[stage3.Output, Output]{
		StageID:      4,
		StageName:    "link_feasibility_and_pool_optimization",
		OutputDir:    outputDir,
		OutputGlob:   "stage4_output_*.json",
		SnapshotPath: outputDir + "/stage4_validation.json",

		LoadPrevious: func() (stage3.Output, error) {
			path, err := jsonio.LatestMatching(previousDir, "stage3_output_*.json")
			if err != nil {
				return stage3.Output{}, fmt.Errorf("stage4: %w: %v", pipeline.ErrNoPreviousOutput, err)
			}
			var out stage3.Output
			if err := jsonio.ReadJSON(path, &out); err != nil {
				return stage3.Output{}, err
			}
			return out, nil
		},

		Execute: func(previous stage3.Output) (pipeline.Result[Output], error) {
			epochs := ValidateEpochs(previous.Series)
			if !epochs.IndependencePass {
				return pipeline.Result[Output]{}, fmt.Errorf("stage4: %w", pipeline.ErrEpochIndependence)
			}

			all := make([]model.FeasibilitySatellite, 0, len(previous.Series))
			for _, series := range previous.Series {
				all = append(all, EvaluateSatellite(series, station, cfg, thresholds, bins))
			}

			candidates := make([]model.FeasibilitySatellite, 0, len(all))
			for _, sat := range all {
				if IsCandidate(sat) {
					candidates = append(candidates, sat)
				}
			}

			universe := timestampUniverse(all)
			pool := optimizePoolPerConstellation(candidates, cfg)

			orbitalPeriodS := orbitalPeriodFromStage1(stage1Dir)

			summary := map[string]any{
				"satellites_total":     len(all),
				"candidates_total":     len(candidates),
				"pool_size":            len(pool.Selected),
				"coverage_rate":        pool.CoverageRate,
				"coverage_gap_count":   len(pool.CoverageGaps),
				"stop_reason":          pool.StopReason,
				"orbital_period_s":     orbitalPeriodS,
				"universe_span_hours":  spanHours(universe),
			}

			return pipeline.Result[Output]{
				Output: Output{Satellites: pool.Selected, Pool: pool, Epochs: epochs},
				Summary: summary,
			}, nil
		},

		PersistOutput: func(out Output, dir string, at time.Time) (string, error) {
			path := filepath.Join(dir, fmt.Sprintf("stage4_output_%s.json", at.Format("20060102T150405Z")))
			if _, err := jsonio.WriteJSON(path, out); err != nil {
				return "", err
			}
			return path, nil
		},

		Validate: func(out Output, summary map[string]any, sampling bool) pipeline.Snapshot {
			universe := timestampUniverse(out.Satellites)
			orbitalPeriodS, _ := summary["orbital_period_s"].(float64)
			return BuildSnapshot(out.Satellites, out.Epochs, out.Pool, universe, thresholds, orbitalPeriodS, cfg, summary, sampling)
		},
	}
}

// optimizePoolPerConstellation runs OptimizePool once per constellation,
// since average_visible_target and minimum_visible both vary by
// constellation (spec.md §4.5.2: "From the candidate pool per
// constellation, select a subset"), then merges the per-constellation
// results into one combined PoolResult for the stage output.
func optimizePoolPerConstellation(candidates []model.FeasibilitySatellite, cfg config.Stage4Config) PoolResult {
	byConstellation := map[model.Constellation][]model.FeasibilitySatellite{}
	for _, sat := range candidates {
		byConstellation[sat.Constellation] = append(byConstellation[sat.Constellation], sat)
	}

	names := make([]string, 0, len(byConstellation))
	for c := range byConstellation {
		names = append(names, string(c))
	}
	sort.Strings(names)

	var combined PoolResult
	stopReasons := make([]string, 0, len(names))
	totalInstants := 0
	weightedCoverage := 0.0

	for _, name := range names {
		c := model.Constellation(name)
		constellationCandidates := byConstellation[c]
		constellationUniverse := timestampUniverse(constellationCandidates)

		target := cfg.PoolOptimization.AvgVisibleTarget[name].Min
		floor := cfg.PoolOptimization.MinimumVisible[name]

		result := OptimizePool(constellationCandidates, constellationUniverse, target, floor, cfg)

		combined.Selected = append(combined.Selected, result.Selected...)
		combined.SelectedIDs = append(combined.SelectedIDs, result.SelectedIDs...)
		combined.CoverageGaps = append(combined.CoverageGaps, result.CoverageGaps...)
		combined.Iterations += result.Iterations
		stopReasons = append(stopReasons, name+":"+result.StopReason)

		n := len(constellationUniverse)
		totalInstants += n
		weightedCoverage += result.CoverageRate * float64(n)
	}

	if totalInstants > 0 {
		combined.CoverageRate = weightedCoverage / float64(totalInstants)
	}
	combined.StopReason = strings.Join(stopReasons, ";")
	return combined
}

// timestampUniverse is the sorted union of every satellite's timestamps,
// used both as the set-cover universe and for coverage-gap reporting.
func timestampUniverse(satellites []model.FeasibilitySatellite) []time.Time {
	seen := map[int64]time.Time{}
	for _, sat := range satellites {
		for _, p := range sat.TimeSeries {
			seen[p.Timestamp.Unix()] = p.Timestamp
		}
	}
	out := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func spanHours(universe []time.Time) float64 {
	if len(universe) < 2 {
		return 0
	}
	return universe[len(universe)-1].Sub(universe[0]).Hours()
}

// orbitalPeriodFromStage1 reads the longest recommended per-constellation
// orbital period out of stage 1's epoch_analysis.json, used for the
// coverage-continuity check. A missing or unreadable file degrades to 0,
// which disables that check rather than failing the stage on a path error.
func orbitalPeriodFromStage1(stage1Dir string) float64 {
	path := filepath.Join(stage1Dir, "epoch_analysis.json")
	var analysis stage1.EpochAnalysis
	if err := jsonio.ReadJSON(path, &analysis); err != nil {
		return 0
	}
	longest := 0.0
	for _, ps := range analysis.PerConstellation {
		if ps.RecommendedMinutes*60 > longest {
			longest = ps.RecommendedMinutes * 60
		}
	}
	return longest
}
