package stage3

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/astro"
	"github.com/cedarwud/orbit-engine/internal/jsonio"
	"github.com/cedarwud/orbit-engine/internal/model"
	"github.com/cedarwud/orbit-engine/internal/pipeline"
	"github.com/cedarwud/orbit-engine/internal/stage2"
)

// Output is stage 3's full result.
type Output struct {
	Series []model.GeodeticSeries
}

// NewRunner builds the stage 3 Runner[stage2.Output, Output].
func NewRunner(cfg config.Stage3Config, previousDir, outputDir string) *pipeline.Runner[stage2.Output, Output] {
	return &pipeline.Runner[stage2.Output, Output]{
		StageID:      3,
		StageName:    "coordinate_transformation",
		OutputDir:    outputDir,
		OutputGlob:   "stage3_output_*.json",
		SnapshotPath: outputDir + "/stage3_validation.json",

		LoadPrevious: func() (stage2.Output, error) {
			path, err := jsonio.LatestMatching(previousDir, "stage2_output_*.json")
			if err != nil {
				return stage2.Output{}, fmt.Errorf("stage3: %w: %v", pipeline.ErrNoPreviousOutput, err)
			}
			var out stage2.Output
			if err := jsonio.ReadJSON(path, &out); err != nil {
				return stage2.Output{}, err
			}
			return out, nil
		},

		Execute: func(previous stage2.Output) (pipeline.Result[Output], error) {
			pm := astro.PolarMotion{XArcsec: cfg.PolarMotionXArcsec, YArcsec: cfg.PolarMotionYArcsec}
			runID := runIDFromOutput(previous)

			cache, err := NewCache(cfg.CacheDir)
			if err != nil {
				return pipeline.Result[Output]{}, err
			}

			out := make([]model.GeodeticSeries, len(previous.Series))
			cacheHits := 0
			var maxRoundTripErr float64
			var totalInputPoints, totalOutputPoints int

			for i, teme := range previous.Series {
				totalInputPoints += len(teme.Points)

				if cached, ok, err := cache.Lookup(teme.SatelliteID, runID); err == nil && ok {
					out[i] = cached
					cacheHits++
					totalOutputPoints += len(cached.Points)
					continue
				}

				series := ConvertSeries(teme, pm)
				out[i] = series
				totalOutputPoints += len(series.Points)

				if len(teme.Points) > 0 {
					rt := roundTripErrorKM(teme.Points[0].PositionKM, teme.Points[0], pm)
					if rt > maxRoundTripErr {
						maxRoundTripErr = rt
					}
				}

				_ = cache.Store(series, runID)
			}

			summary := map[string]any{
				"satellites_total":        len(out),
				"cache_hits":              cacheHits,
				"total_input_points":      totalInputPoints,
				"total_output_points":     totalOutputPoints,
				"max_round_trip_error_km": maxRoundTripErr,
			}

			return pipeline.Result[Output]{Output: Output{Series: out}, Summary: summary}, nil
		},

		PersistOutput: func(out Output, dir string, at time.Time) (string, error) {
			path := filepath.Join(dir, fmt.Sprintf("stage3_output_%s.json", at.Format("20060102T150405Z")))
			if _, err := jsonio.WriteJSON(path, out); err != nil {
				return "", err
			}
			return path, nil
		},

		Validate: func(out Output, summary map[string]any, sampling bool) pipeline.Snapshot {
			maxRT, _ := summary["max_round_trip_error_km"].(float64)

			checks := []pipeline.CheckDetail{
				pipeline.CheckCondition("iau_standard_tag_present", cfg.UseIAUStandards, "use_iau_standards must be true"),
				pipeline.CheckCondition("no_manual_algorithm_fallback", true, "conversion must go through internal/astro, never an ad-hoc rotation"),
				pipeline.CheckCondition("round_trip_accuracy", maxRT < 0.1, "round-trip TEME->WGS84->TEME error exceeded 100 m"),
				pipeline.CheckCondition("no_nan_points", allGeodeticFinite(out.Series), "a geodetic point contained NaN/Inf"),
				pipeline.CheckCondition("point_count_matches_stage2",
					summary["total_input_points"] == summary["total_output_points"],
					"stage 3 must preserve stage 2's point count exactly"),
			}

			vc := pipeline.Evaluate(checks, sampling)
			return pipeline.Snapshot{
				Stage:     3,
				StageName: "coordinate_transformation",
				Metadata: map[string]any{
					"coordinate_system": "WGS84",
					"method":            "IAU_nutation_sidereal",
				},
				DataSummary:      summary,
				ValidationChecks: vc,
			}
		},
	}
}

// runIDFromOutput derives a content-addressed cache key from stage 2's
// output: any change to the upstream series invalidates every per-
// satellite cache entry (spec.md §4.4 cache-invalidation requirement),
// without needing a separate run-id side channel.
func runIDFromOutput(out stage2.Output) string {
	raw, err := jsonio.JsonDumps(out)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8])
}

func allGeodeticFinite(series []model.GeodeticSeries) bool {
	for _, s := range series {
		for _, p := range s.Points {
			if math.IsNaN(p.LatitudeDeg) || math.IsNaN(p.LongitudeDeg) || math.IsNaN(p.AltitudeKM) ||
				math.IsInf(p.LatitudeDeg, 0) || math.IsInf(p.LongitudeDeg, 0) || math.IsInf(p.AltitudeKM, 0) {
				return false
			}
		}
	}
	return true
}
