// Package stage4 is the link-feasibility and dynamic-pool-optimization
// stage: per-timestep topocentric visibility (spec.md §4.5.1) followed by
// greedy set-cover pool selection (§4.5.2).
package stage4

import (
	"sort"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/geo"
	"github.com/cedarwud/orbit-engine/internal/model"
)

// ElevationThresholds maps a constellation name to its minimum-elevation
// mask, read from configuration (never hard-coded, spec.md §4.5.1).
type ElevationThresholds map[model.Constellation]float64

func thresholdsFromConfig(cfg config.Stage4Config) ElevationThresholds {
	out := ElevationThresholds{}
	for name, t := range cfg.ConstellationThresholds {
		out[model.Constellation(name)] = t.ElevationDeg
	}
	return out
}

// linkQualityBins is a sorted (descending elevation) list of {label,
// minElevation} derived from configuration.
type linkQualityBin struct {
	label        model.LinkQuality
	minElevation float64
}

func qualityBinsFromConfig(cfg config.Stage4Config) []linkQualityBin {
	bins := make([]linkQualityBin, 0, len(cfg.LinkQualityBins))
	for label, minElev := range cfg.LinkQualityBins {
		bins = append(bins, linkQualityBin{label: model.LinkQuality(label), minElevation: minElev})
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i].minElevation > bins[j].minElevation })
	return bins
}

func classifyQuality(bins []linkQualityBin, elevationDeg float64) model.LinkQuality {
	for _, b := range bins {
		if elevationDeg >= b.minElevation {
			return b.label
		}
	}
	return model.LinkUnavailable
}

// EvaluateSatellite computes the full feasibility time series for one
// stage 3 geodetic series.
func EvaluateSatellite(series model.GeodeticSeries, station geo.Station, cfg config.Stage4Config, thresholds ElevationThresholds, bins []linkQualityBin) model.FeasibilitySatellite {
	threshold, ok := thresholds[series.Constellation]
	if !ok {
		threshold = 10.0 // conservative fallback if a constellation has no configured mask
	}

	points := make([]model.FeasibilityPoint, len(series.Points))
	satECEFs := make([][3]float64, len(series.Points))
	var window model.ServiceWindow
	inWindow := false

	for i, p := range series.Points {
		satECEFs[i][0], satECEFs[i][1], satECEFs[i][2] = stationRelativeECEF(p)
		elevDeg, azDeg, distKM := station.Topocentric(satECEFs[i])
		elevDeg += geo.RefractionCorrectionDeg(elevDeg)

		connectable := elevDeg >= threshold && distKM >= cfg.LinkBudget.MinDistanceKM && distKM <= cfg.LinkBudget.MaxDistanceKM

		points[i] = model.FeasibilityPoint{
			Timestamp:             p.Timestamp,
			LatitudeDeg:           p.LatitudeDeg,
			LongitudeDeg:          p.LongitudeDeg,
			AltitudeKM:            p.AltitudeKM,
			ElevationDeg:          elevDeg,
			AzimuthDeg:            azDeg,
			DistanceKM:            distKM,
			IsConnectable:         connectable,
			ElevationThresholdDeg: threshold,
			LinkQuality:           classifyQuality(bins, elevDeg),
		}

		if connectable {
			if !inWindow {
				window.StartTime = p.Timestamp
				window.MaxElevDeg = elevDeg
				inWindow = true
			}
			window.EndTime = p.Timestamp
			if elevDeg > window.MaxElevDeg {
				window.MaxElevDeg = elevDeg
			}
		}
	}

	if inWindow {
		window.DurationS = window.EndTime.Sub(window.StartTime).Seconds()
	}

	fillVelocities(points, satECEFs)

	return model.FeasibilitySatellite{
		SatelliteID:   series.SatelliteID,
		Name:          series.Name,
		Constellation: series.Constellation,
		TimeSeries:    points,
		ServiceWindow: window,
	}
}

// fillVelocities derives each point's ECEF velocity by central difference
// on the already-computed positions, one-sided at the two endpoints.
func fillVelocities(points []model.FeasibilityPoint, ecef [][3]float64) {
	n := len(points)
	for i := range points {
		var dt float64
		var prev, next [3]float64
		switch {
		case n < 2:
			continue
		case i == 0:
			dt = points[1].Timestamp.Sub(points[0].Timestamp).Seconds()
			prev, next = ecef[0], ecef[1]
		case i == n-1:
			dt = points[n-1].Timestamp.Sub(points[n-2].Timestamp).Seconds()
			prev, next = ecef[n-2], ecef[n-1]
		default:
			dt = points[i+1].Timestamp.Sub(points[i-1].Timestamp).Seconds()
			prev, next = ecef[i-1], ecef[i+1]
		}
		if dt == 0 {
			continue
		}
		points[i].VelocityECEFKMPS = [3]float64{
			(next[0] - prev[0]) / dt,
			(next[1] - prev[1]) / dt,
			(next[2] - prev[2]) / dt,
		}
	}
}

// stationRelativeECEF converts a geodetic point back to ECEF via the same
// WGS84 inverse used by internal/geo, so stage 4 never re-derives its own
// rotation matrix.
func stationRelativeECEF(p model.GeodeticPoint) (x, y, z float64) {
	s := geo.Station{LatitudeDeg: p.LatitudeDeg, LongitudeDeg: p.LongitudeDeg, AltitudeKM: p.AltitudeKM}
	ecef := s.ECEF()
	return ecef[0], ecef[1], ecef[2]
}

// IsCandidate reports whether a satellite has at least one connectable
// point (spec.md §4.5.1, "candidate if ... ≥ 1 connectable point").
func IsCandidate(sat model.FeasibilitySatellite) bool {
	for _, p := range sat.TimeSeries {
		if p.IsConnectable {
			return true
		}
	}
	return false
}
