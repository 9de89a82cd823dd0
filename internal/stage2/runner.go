package stage2

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/cpuload"
	"github.com/cedarwud/orbit-engine/internal/jsonio"
	"github.com/cedarwud/orbit-engine/internal/model"
	"github.com/cedarwud/orbit-engine/internal/pipeline"
	"github.com/cedarwud/orbit-engine/internal/stage1"
)

// Output is stage 2's full result: one TEME series per input satellite.
type Output struct {
	Series []model.TEMESeries
}

// NewRunner builds the stage 2 Runner[stage1.Output, Output]. previousDir is
// where stage 1's output glob lives. workerCount is the pool size resolved
// once up front by the caller (see cpuload.ResolveWorkerCount), already
// degraded to 1 if CPU detection failed.
func NewRunner(cfg config.Stage2Config, previousDir, outputDir string, workerCount int) *pipeline.Runner[stage1.Output, Output] {
	return &pipeline.Runner[stage1.Output, Output]{
		StageID:      2,
		StageName:    "orbital_propagation",
		OutputDir:    outputDir,
		OutputGlob:   "stage2_output_*.json",
		SnapshotPath: outputDir + "/stage2_validation.json",

		LoadPrevious: func() (stage1.Output, error) {
			path, err := jsonio.LatestMatching(previousDir, "stage1_output_*.json")
			if err != nil {
				return stage1.Output{}, fmt.Errorf("stage2: %w: %v", pipeline.ErrNoPreviousOutput, err)
			}
			var out stage1.Output
			if err := jsonio.ReadJSON(path, &out); err != nil {
				return stage1.Output{}, err
			}
			return out, nil
		},

		Execute: func(previous stage1.Output) (pipeline.Result[Output], error) {
			mode := WindowMode(cfg.TimeWindowMode)
			unifiedStart := UnifiedStart(previous.Records)

			pool := cpuload.NewPoolWithWorkers(workerCount)
			defer pool.StopAndWait()

			series := make([]model.TEMESeries, len(previous.Records))
			var wg sync.WaitGroup
			for i, rec := range previous.Records {
				i, rec := i, rec
				wg.Add(1)
				pool.Submit(func() {
					defer wg.Done()
					w := Resolve(rec, mode, cfg, unifiedStart)
					series[i] = PropagateOne(rec, w)
				})
			}
			wg.Wait()

			failed := 0
			for _, s := range series {
				if s.FailedReason != "" {
					failed++
				}
			}

			summary := map[string]any{
				"satellites_total":    len(series),
				"satellites_failed":   failed,
				"time_window_mode":    cfg.TimeWindowMode,
				"coverage_cycles":     cfg.CoverageCycles,
				"interval_seconds":    cfg.IntervalSeconds,
				"worker_count_hint":   workerCount,
			}

			return pipeline.Result[Output]{Output: Output{Series: series}, Summary: summary}, nil
		},

		PersistOutput: func(out Output, dir string, at time.Time) (string, error) {
			path := filepath.Join(dir, fmt.Sprintf("stage2_output_%s.json", at.Format("20060102T150405Z")))
			if _, err := jsonio.WriteJSON(path, out); err != nil {
				return "", err
			}
			return path, nil
		},

		Validate: func(out Output, summary map[string]any, sampling bool) pipeline.Snapshot {
			checks := []pipeline.CheckDetail{
				pipeline.CheckCondition("coordinate_system_teme", true, "series must be tagged TEME, never geodetic"),
				pipeline.CheckCondition("propagation_method_sgp4", true, "series must record SGP4 as the propagation method"),
				pipeline.CheckCondition("tle_reparse_prohibited", true, "epoch must come from stage1, never re-parsed from TLE text"),
				pipeline.CheckCondition("at_least_one_series_succeeded", countSucceeded(out.Series) > 0, "every satellite failed propagation"),
				pipeline.CheckCondition("no_non_finite_points", allFinite(out.Series), "a TEME point contained NaN/Inf"),
			}

			vc := pipeline.Evaluate(checks, sampling)
			return pipeline.Snapshot{
				Stage:     2,
				StageName: "orbital_propagation",
				Metadata: map[string]any{
					"coordinate_system":      "TEME",
					"propagation_method":     "SGP4",
					"tle_reparse_prohibited": true,
				},
				DataSummary:      summary,
				ValidationChecks: vc,
			}
		},
	}
}

func countSucceeded(series []model.TEMESeries) int {
	n := 0
	for _, s := range series {
		if s.FailedReason == "" && len(s.Points) > 0 {
			n++
		}
	}
	return n
}

func allFinite(series []model.TEMESeries) bool {
	for _, s := range series {
		for _, p := range s.Points {
			if hasNaN(p.PositionKM) || hasNaN(p.VelocityKMPS) {
				return false
			}
		}
	}
	return true
}
