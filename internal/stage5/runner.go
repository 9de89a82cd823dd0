package stage5

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"time"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/geo"
	"github.com/cedarwud/orbit-engine/internal/jsonio"
	"github.com/cedarwud/orbit-engine/internal/model"
	"github.com/cedarwud/orbit-engine/internal/pipeline"
	"github.com/cedarwud/orbit-engine/internal/stage4"
)

// Output is stage 5's result.
type Output struct {
	Satellites []model.SignalSatellite
}

// NewRunner builds the stage 5 Runner[stage4.Output, Output].
func NewRunner(cfg config.Stage5Config, previousDir, outputDir string, station geo.Station) *pipeline.Runner[stage4.Output, Output] {
	return &pipeline.Runner[stage4.Output, Output]{
		StageID:      5,
		StageName:    "signal_analysis",
		OutputDir:    outputDir,
		OutputGlob:   "stage5_output_*.json",
		SnapshotPath: outputDir + "/stage5_validation.json",

		LoadPrevious: func() (stage4.Output, error) {
			path, err := jsonio.LatestMatching(previousDir, "stage4_output_*.json")
			if err != nil {
				return stage4.Output{}, fmt.Errorf("stage5: %w: %v", pipeline.ErrNoPreviousOutput, err)
			}
			var out stage4.Output
			if err := jsonio.ReadJSON(path, &out); err != nil {
				return stage4.Output{}, err
			}
			return out, nil
		},

		Execute: func(previous stage4.Output) (pipeline.Result[Output], error) {
			out, allRSRP := computeSignals(previous.Satellites, cfg, station)

			summary := map[string]any{
				"satellites_total": len(out),
				"points_total":     countPoints(out),
				"rsrp_stddev_db":   stddev(allRSRP),
				"rsrp_range_db":    valueRange(allRSRP),
				"rsrp_min_dbm":     minOf(allRSRP),
				"rsrp_max_dbm":     maxOf(allRSRP),
			}

			return pipeline.Result[Output]{Output: Output{Satellites: out}, Summary: summary}, nil
		},

		PersistOutput: func(out Output, dir string, at time.Time) (string, error) {
			path := filepath.Join(dir, fmt.Sprintf("stage5_output_%s.json", at.Format("20060102T150405Z")))
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

// computeSignals runs the two-pass signal computation: pass 1 computes
// RSRP for every connectable point across every satellite (needed before
// interference can be summed); pass 2 derives RSRQ/SINR/Doppler/delay now
// that every other satellite's RSRP at the same instant is known.
func computeSignals(satellites []model.FeasibilitySatellite, cfg config.Stage5Config, station geo.Station) ([]model.SignalSatellite, []float64) {
	rsrpByTime := map[int64]map[int]rsrpEntry{}
	type rawPoint struct {
		fp      model.FeasibilityPoint
		rsrp    float64
		atm     model.AtmosphericBreakdown
		fspl    float64
	}
	raw := make(map[int][]rawPoint, len(satellites))

	noiseDbm := ThermalNoiseDbm(cfg)

	for _, sat := range satellites {
		points := make([]rawPoint, 0, len(sat.TimeSeries))
		for _, p := range sat.TimeSeries {
			if !p.IsConnectable {
				continue
			}
			atm := AtmosphericLoss(p.ElevationDeg, p.DistanceKM, cfg.FrequencyGHz, cfg.Atmospheric)
			fspl := FreeSpacePathLossDb(p.DistanceKM, cfg.FrequencyGHz)
			rsrp := RSRP(cfg, p.DistanceKM, totalAtmosphericLoss(atm))

			ts := p.Timestamp.Unix()
			if rsrpByTime[ts] == nil {
				rsrpByTime[ts] = map[int]rsrpEntry{}
			}
			rsrpByTime[ts][sat.SatelliteID] = rsrpEntry{constellation: sat.Constellation, rsrpDbm: rsrp}

			points = append(points, rawPoint{fp: p, rsrp: rsrp, atm: atm, fspl: fspl})
		}
		raw[sat.SatelliteID] = points
	}

	var allRSRP []float64
	out := make([]model.SignalSatellite, 0, len(satellites))

	for _, sat := range satellites {
		stationECEF := station.ECEF()
		signalPoints := make([]model.SignalPoint, 0, len(raw[sat.SatelliteID]))

		for _, rp := range raw[sat.SatelliteID] {
			ts := rp.fp.Timestamp.Unix()
			interference := InterferenceDbm(sat.SatelliteID, sat.Constellation, ts, rsrpByTime)

			rsrq := RSRQ(cfg, rp.rsrp, interference, noiseDbm)
			sinr := SINR(rp.rsrp, interference, noiseDbm)

			satGeo := geo.Station{LatitudeDeg: rp.fp.LatitudeDeg, LongitudeDeg: rp.fp.LongitudeDeg, AltitudeKM: rp.fp.AltitudeKM}
			satECEF := satGeo.ECEF()
			los := losUnitVector(stationECEF, satECEF)
			dopplerHz, radialMPS := DopplerShiftHz(los, rp.fp.VelocityECEFKMPS, cfg.FrequencyGHz)

			allRSRP = append(allRSRP, rp.rsrp)

			signalPoints = append(signalPoints, model.SignalPoint{
				Timestamp:            rp.fp.Timestamp,
				RSRPDbm:              rp.rsrp,
				RSRQDb:               rsrq,
				SINRDb:               sinr,
				PathLossDb:           rp.fspl,
				AtmosphericLossDb:    totalAtmosphericLoss(rp.atm),
				AtmosphericBreakdown: rp.atm,
				DopplerShiftHz:       dopplerHz,
				RadialVelocityMPS:    radialMPS,
				PropagationDelayMs:   PropagationDelayMs(rp.fp.DistanceKM),
				OffsetMODb:           0,
				CellOffsetDb:         0,
				CalculationStandard:  "3GPP_TS_38.214_38.215_ITU-R_P.676-13_P.618-13",
			})
		}

		out = append(out, model.SignalSatellite{
			SatelliteID:   sat.SatelliteID,
			Name:          sat.Name,
			Constellation: sat.Constellation,
			Points:        signalPoints,
		})
	}

	return out, allRSRP
}

func countPoints(satellites []model.SignalSatellite) int {
	n := 0
	for _, s := range satellites {
		n += len(s.Points)
	}
	return n
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}

func valueRange(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return maxOf(values) - minOf(values)
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sorted[0]
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sorted[len(sorted)-1]
}
