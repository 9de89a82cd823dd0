package stage6

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/geo"
	"github.com/cedarwud/orbit-engine/internal/jsonio"
	"github.com/cedarwud/orbit-engine/internal/model"
	"github.com/cedarwud/orbit-engine/internal/pipeline"
	"github.com/cedarwud/orbit-engine/internal/stage4"
	"github.com/cedarwud/orbit-engine/internal/stage5"
)

// Output is stage 6's result: the full handover-event dataset.
type Output struct {
	Events     []model.EventRecord
	PoolStatus []model.PoolStatusPoint
	Episodes   []model.Episode
}

// NewRunner builds the stage 6 Runner[stage5.Output, Output]. stage4Dir is
// read directly for the geometry stage 5's own record doesn't carry
// (elevation/azimuth/distance/lat/lon), joined back in by (satellite,
// timestamp) -- see internal/stage6/joint.go.
func NewRunner(cfg config.Stage6Config, stage4Dir, previousDir, outputDir string, station geo.Station, minimumVisible map[model.Constellation]int, orbitalPeriodMinutes map[model.Constellation]float64) *pipeline.Runner[stage5.Output, Output] {
	return &pipeline.Runner[stage5.Output, Output]{
		StageID:      6,
		StageName:    "event_detection_and_dataset",
		OutputDir:    outputDir,
		OutputGlob:   "stage6_output_*.json",
		SnapshotPath: outputDir + "/stage6_validation.json",

		LoadPrevious: func() (stage5.Output, error) {
			path, err := jsonio.LatestMatching(previousDir, "stage5_output_*.json")
			if err != nil {
				return stage5.Output{}, fmt.Errorf("stage6: %w: %v", pipeline.ErrNoPreviousOutput, err)
			}
			var out stage5.Output
			if err := jsonio.ReadJSON(path, &out); err != nil {
				return stage5.Output{}, err
			}
			return out, nil
		},

		Execute: func(previous stage5.Output) (pipeline.Result[Output], error) {
			feasibility, err := loadFeasibility(stage4Dir)
			if err != nil {
				return pipeline.Result[Output]{}, err
			}

			joint := buildJoint(feasibility, previous.Satellites)
			times, byTime := groupByTimestamp(joint)

			events := DetectEvents(station, times, byTime, cfg.Events)
			poolStatus := PoolStatus(times, byTime, minimumVisible)
			episodes := BuildEpisodes(joint, orbitalPeriodMinutes, cfg)

			summary := map[string]any{
				"satellites_total":   len(previous.Satellites),
				"instants_total":     len(times),
				"event_count":        len(events),
				"a3_count":           countEventType(events, model.EventA3),
				"a4_count":           countEventType(events, model.EventA4),
				"pool_coverage_rate": CoverageRate(poolStatus),
				"episode_count":      len(episodes),
				"joint_point_count":  len(joint),
			}

			return pipeline.Result[Output]{
				Output:  Output{Events: events, PoolStatus: poolStatus, Episodes: episodes},
				Summary: summary,
			}, nil
		},

		PersistOutput: func(out Output, dir string, at time.Time) (string, error) {
			path := filepath.Join(dir, fmt.Sprintf("stage6_output_%s.json", at.Format("20060102T150405Z")))
			if _, err := jsonio.WriteJSON(path, out); err != nil {
				return "", err
			}
			return path, nil
		},

		Validate: func(out Output, summary map[string]any, sampling bool) pipeline.Snapshot {
			return BuildSnapshot(out, summary, sampling)
		},
	}
}

func loadFeasibility(stage4Dir string) ([]model.FeasibilitySatellite, error) {
	path, err := jsonio.LatestMatching(stage4Dir, "stage4_output_*.json")
	if err != nil {
		return nil, fmt.Errorf("stage6: %w: %v", pipeline.ErrNoPreviousOutput, err)
	}
	var out stage4.Output
	if err := jsonio.ReadJSON(path, &out); err != nil {
		return nil, err
	}
	return out.Satellites, nil
}

func countEventType(events []model.EventRecord, t model.EventType) int {
	n := 0
	for _, e := range events {
		if e.EventType == t {
			n++
		}
	}
	return n
}
