package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/cpuload"
	"github.com/cedarwud/orbit-engine/internal/geo"
	"github.com/cedarwud/orbit-engine/internal/jsonio"
	"github.com/cedarwud/orbit-engine/internal/model"
	"github.com/cedarwud/orbit-engine/internal/pipeline"
	"github.com/cedarwud/orbit-engine/internal/stage1"
	"github.com/cedarwud/orbit-engine/internal/stage2"
	"github.com/cedarwud/orbit-engine/internal/stage3"
	"github.com/cedarwud/orbit-engine/internal/stage4"
	"github.com/cedarwud/orbit-engine/internal/stage5"
	"github.com/cedarwud/orbit-engine/internal/stage6"
)

// pipelineConfig bundles the per-stage YAML configs plus the single ground
// station, all loaded up front so a partial --stages run still fails fast on
// a bad config file rather than midway through the pipeline.
type pipelineConfig struct {
	Station geo.Station
	Stage1  config.Stage1Config
	Stage2  config.Stage2Config
	Stage3  config.Stage3Config
	Stage4  config.Stage4Config
	Stage5  config.Stage5Config
	Stage6  config.Stage6Config
}

func loadPipelineConfig(dir string) (pipelineConfig, error) {
	var pc pipelineConfig
	var station struct {
		GroundStation config.GroundStation `yaml:"ground_station" validate:"required"`
	}

	loaders := []struct {
		file string
		v    any
	}{
		{"station.yaml", &station},
		{"stage1.yaml", &pc.Stage1},
		{"stage2.yaml", &pc.Stage2},
		{"stage3.yaml", &pc.Stage3},
		{"stage4.yaml", &pc.Stage4},
		{"stage5.yaml", &pc.Stage5},
		{"stage6.yaml", &pc.Stage6},
	}
	for _, l := range loaders {
		if err := config.Load(filepath.Join(dir, l.file), l.v); err != nil {
			return pipelineConfig{}, err
		}
	}

	pc.Station = geo.Station{
		LatitudeDeg:  station.GroundStation.LatitudeDeg,
		LongitudeDeg: station.GroundStation.LongitudeDeg,
		AltitudeKM:   station.GroundStation.AltitudeKM,
	}
	return pc, nil
}

// minimumVisibleByConstellation converts configuration's string-keyed map
// into the model.Constellation-keyed map stage 6's pool-status check wants,
// the same string-to-domain-type conversion stage 4 already does for its
// own per-constellation thresholds (see internal/stage4/visibility.go).
func minimumVisibleByConstellation(cfg config.Stage4Config) map[model.Constellation]int {
	out := make(map[model.Constellation]int, len(cfg.PoolOptimization.MinimumVisible))
	for name, n := range cfg.PoolOptimization.MinimumVisible {
		out[model.Constellation(name)] = n
	}
	return out
}

func orbitalPeriodsByConstellation(cfg config.Stage2Config) map[model.Constellation]float64 {
	return map[model.Constellation]float64{
		model.ConstellationStarlink: cfg.ConstellationOrbitalPeriods.StarlinkMinutes,
		model.ConstellationOneWeb:   cfg.ConstellationOrbitalPeriods.OneWebMinutes,
	}
}

// runPipeline runs stages [from, to] in order, each stage reading the
// previous stage's persisted output from outputDir -- the same directory
// every stage writes its own output into, following the Runner[In, Out]
// template method's clean/load/execute/persist/validate sequence.
func runPipeline(pc pipelineConfig, outputDir string, from, to int) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	workerCount := cpuload.ResolveWorkerCount(cpuload.Thresholds{
		High:   pc.Stage2.CPUUsageThresholdHigh,
		Medium: pc.Stage2.CPUUsageThresholdMedium,
	})

	if from <= 1 && 1 <= to {
		r := stage1.NewRunner(pc.Stage1, outputDir)
		if _, snap, err := r.Run(); err != nil {
			return err
		} else if !writeSnapshotOK(r.SnapshotPath, snap) {
			return fmt.Errorf("stage 1 validation failed, aborting pipeline")
		}
	}
	if from <= 2 && 2 <= to {
		r := stage2.NewRunner(pc.Stage2, outputDir, outputDir, workerCount)
		if _, snap, err := r.Run(); err != nil {
			return err
		} else if !writeSnapshotOK(r.SnapshotPath, snap) {
			return fmt.Errorf("stage 2 validation failed, aborting pipeline")
		}
	}
	if from <= 3 && 3 <= to {
		r := stage3.NewRunner(pc.Stage3, outputDir, outputDir)
		if _, snap, err := r.Run(); err != nil {
			return err
		} else if !writeSnapshotOK(r.SnapshotPath, snap) {
			return fmt.Errorf("stage 3 validation failed, aborting pipeline")
		}
	}
	if from <= 4 && 4 <= to {
		r := stage4.NewRunner(pc.Stage4, outputDir, outputDir, outputDir, pc.Station)
		if _, snap, err := r.Run(); err != nil {
			return err
		} else if !writeSnapshotOK(r.SnapshotPath, snap) {
			return fmt.Errorf("stage 4 validation failed, aborting pipeline")
		}
	}
	if from <= 5 && 5 <= to {
		r := stage5.NewRunner(pc.Stage5, outputDir, outputDir, pc.Station)
		if _, snap, err := r.Run(); err != nil {
			return err
		} else if !writeSnapshotOK(r.SnapshotPath, snap) {
			return fmt.Errorf("stage 5 validation failed, aborting pipeline")
		}
	}
	if from <= 6 && 6 <= to {
		r := stage6.NewRunner(pc.Stage6, outputDir, outputDir, outputDir, pc.Station,
			minimumVisibleByConstellation(pc.Stage4), orbitalPeriodsByConstellation(pc.Stage2))
		if _, snap, err := r.Run(); err != nil {
			return err
		} else if !writeSnapshotOK(r.SnapshotPath, snap) {
			return fmt.Errorf("stage 6 validation failed, aborting pipeline")
		}
	}

	return nil
}

// writeSnapshotOK persists a stage's validation snapshot and reports whether
// the pipeline should keep going. Per spec.md's error taxonomy a failed
// validation doesn't panic -- it's surfaced in the snapshot -- but a CLI
// driving multiple stages back to back still needs to stop before feeding
// bad data forward.
func writeSnapshotOK(path string, snap pipeline.Snapshot) bool {
	if _, err := jsonio.WriteJSON(path, snap); err != nil {
		log.Printf("warning: failed to write validation snapshot %s: %v", path, err)
	}
	return snap.ValidationChecks.OverallStatus
}

func main() {
	app := &cli.App{
		Name:  "orbitengine",
		Usage: "six-stage offline pipeline turning TLE catalogs into LEO handover research datasets",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run one or more pipeline stages in order",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config-dir",
						Usage: "directory containing station.yaml and stageN.yaml",
						Value: "configs",
					},
					&cli.StringFlag{
						Name:  "output-dir",
						Usage: "directory each stage reads its predecessor's output from and writes its own into",
						Value: "output",
					},
					&cli.IntFlag{
						Name:  "stage",
						Usage: "run a single stage (1-6); takes precedence over --stages",
					},
					&cli.StringFlag{
						Name:  "stages",
						Usage: "run an inclusive stage range, e.g. 1-6 or 4-6",
						Value: "1-6",
					},
				},
				Action: func(cCtx *cli.Context) error {
					pc, err := loadPipelineConfig(cCtx.String("config-dir"))
					if err != nil {
						return err
					}

					from, to := 1, 6
					if cCtx.IsSet("stage") {
						from, to = cCtx.Int("stage"), cCtx.Int("stage")
					} else if _, err := fmt.Sscanf(cCtx.String("stages"), "%d-%d", &from, &to); err != nil {
						return fmt.Errorf("--stages must look like 1-6: %w", err)
					}
					if from < 1 || to > 6 || from > to {
						return fmt.Errorf("invalid stage range %d-%d", from, to)
					}

					return runPipeline(pc, cCtx.String("output-dir"), from, to)
				},
			},
			{
				Name:  "validate",
				Usage: "re-run a single stage's validator against its most recent persisted output",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config-dir",
						Usage: "directory containing station.yaml and stageN.yaml",
						Value: "configs",
					},
					&cli.StringFlag{
						Name:     "output-dir",
						Usage:    "directory containing the stage's output and where the snapshot is written",
						Value:    "output",
					},
					&cli.IntFlag{
						Name:     "stage",
						Usage:    "stage to validate (1-6)",
						Required: true,
					},
				},
				Action: func(cCtx *cli.Context) error {
					return revalidate(cCtx.Int("stage"), cCtx.String("output-dir"))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// revalidate loads a stage's own persisted output file back in and reruns
// just its validator, without redoing the stage's computation -- useful
// after hand-editing configuration thresholds to see which checks a past
// run would now pass or fail.
//
// Stages 1-3 validate inline against values only their own Runner closure
// holds (sampling config, cached thresholds) and stage 4's validator needs
// the epoch/pool/universe context computed during its own run, so none of
// those are meaningfully re-checkable from the output file alone. Stages 5
// and 6 validate purely from their own persisted Output, so those are what
// this command supports.
func revalidate(stageID int, outputDir string) error {
	switch stageID {
	case 5:
		path, err := jsonio.LatestMatching(outputDir, "stage5_output_*.json")
		if err != nil {
			return err
		}
		var out stage5.Output
		if err := jsonio.ReadJSON(path, &out); err != nil {
			return err
		}
		snap := stage5.BuildSnapshot(out, map[string]any{}, false)
		return printSnapshot(snap)
	case 6:
		path, err := jsonio.LatestMatching(outputDir, "stage6_output_*.json")
		if err != nil {
			return err
		}
		var out stage6.Output
		if err := jsonio.ReadJSON(path, &out); err != nil {
			return err
		}
		snap := stage6.BuildSnapshot(out, map[string]any{}, false)
		return printSnapshot(snap)
	default:
		return fmt.Errorf("validate currently supports stages 5 and 6 (stages 1-4 validate against run-local context that isn't recoverable from the output file alone)")
	}
}

func printSnapshot(snap pipeline.Snapshot) error {
	b, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	if !snap.ValidationChecks.OverallStatus {
		return fmt.Errorf("validation: %d/%d checks passed", snap.ValidationChecks.ChecksPassed, snap.ValidationChecks.ChecksPerformed)
	}
	return nil
}
