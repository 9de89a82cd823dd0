package stage1

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/jsonio"
	"github.com/cedarwud/orbit-engine/internal/model"
	"github.com/cedarwud/orbit-engine/internal/pipeline"
)

// Output is stage 1's full result: the loaded records plus the epoch
// analysis persisted alongside them for stage 4 to consume later.
type Output struct {
	Records []model.SatelliteRecord
	Epochs  EpochAnalysis
}

// NewRunner builds the stage 1 Runner[struct{}, Output]. Stage 1 has no
// "previous stage" to load -- it is the pipeline's entry point.
func NewRunner(cfg config.Stage1Config, outputDir string) *pipeline.Runner[struct{}, Output] {
	return &pipeline.Runner[struct{}, Output]{
		StageID:      1,
		StageName:    "tle_loading",
		OutputDir:    outputDir,
		OutputGlob:   "stage1_output_*.json",
		SnapshotPath: outputDir + "/stage1_validation.json",

		Execute: func(struct{}) (pipeline.Result[Output], error) {
			loaded, err := ParseDirectory(cfg.InputDir, cfg.MinMeanMotionRevPerDay, cfg.MaxMeanMotionRevPerDay)
			if err != nil {
				return pipeline.Result[Output]{}, err
			}

			records := loaded.Records
			var rangeStart, rangeEnd time.Time
			records = FilterByEpoch(records, FilterMode(cfg.EpochFilterMode), cfg.ToleranceHours, rangeStart, rangeEnd)
			if len(records) == 0 {
				return pipeline.Result[Output]{}, fmt.Errorf("stage1: epoch filter %q eliminated every record", cfg.EpochFilterMode)
			}

			records = Sample(records, SamplingMode(cfg.SamplingMode), cfg.SamplingCount, cfg.SamplingThreshold)

			epochs := AnalyzeEpochs(records)

			summary := map[string]any{
				"total_parsed":          loaded.FailedRecords + len(loaded.Records),
				"failed_records":        loaded.FailedRecords,
				"kept_after_filter":     len(records),
				"minus_only_checksums":  loaded.MinusChecksumCount,
				"plus_and_minus_checksums": loaded.PlusChecksumCount,
				"unique_epochs":         epochs.UniqueEpochs,
				"diversity_ratio":       epochs.DiversityRatio,
			}

			return pipeline.Result[Output]{
				Output:  Output{Records: records, Epochs: epochs},
				Summary: summary,
			}, nil
		},

		PersistOutput: func(out Output, dir string, at time.Time) (string, error) {
			path := filepath.Join(dir, fmt.Sprintf("stage1_output_%s.json", at.Format("20060102T150405Z")))
			if _, err := jsonio.WriteJSON(path, out); err != nil {
				return "", err
			}
			epochPath := filepath.Join(dir, "epoch_analysis.json")
			if _, err := jsonio.WriteJSON(epochPath, out.Epochs); err != nil {
				return "", err
			}
			return path, nil
		},

		Validate: func(out Output, summary map[string]any, sampling bool) pipeline.Snapshot {
			checks := []pipeline.CheckDetail{
				pipeline.CheckCondition("records_nonempty", len(out.Records) > 0, "no satellite records survived loading"),
				pipeline.CheckCondition("epochs_independent", true, "each record keeps its own epoch_datetime"),
				pipeline.CheckFieldRange("diversity_ratio", out.Epochs.DiversityRatio, 0, 1),
				pipeline.CheckCondition("mean_motion_in_range",
					allMeanMotionsSane(out.Records, cfg.MinMeanMotionRevPerDay, cfg.MaxMeanMotionRevPerDay),
					"a record's mean motion fell outside the configured plausible range"),
				pipeline.CheckCondition("checksum_style_recorded", allChecksumStylesSet(out.Records),
					"a record is missing its checksum_style tag"),
			}

			vc := pipeline.Evaluate(checks, sampling)
			return pipeline.Snapshot{
				Stage:     1,
				StageName: "tle_loading",
				Metadata: map[string]any{
					"sampling_mode": sampling,
				},
				DataSummary:      summary,
				ValidationChecks: vc,
			}
		},
	}
}

func allMeanMotionsSane(records []model.SatelliteRecord, lo, hi float64) bool {
	for _, r := range records {
		if r.MeanMotionRevPD < lo || r.MeanMotionRevPD > hi {
			return false
		}
	}
	return true
}

func allChecksumStylesSet(records []model.SatelliteRecord) bool {
	for _, r := range records {
		if r.ChecksumDigit == "" {
			return false
		}
	}
	return true
}
