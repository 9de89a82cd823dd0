// Package stage6 detects 3GPP TS 38.331 A3/A4/A5/D2 handover-relevant
// events from stage 5's signal series and assembles the resulting
// training-episode dataset.
package stage6

import (
	"sort"
	"time"

	"github.com/cedarwud/orbit-engine/internal/model"
)

// jointPoint merges one connectable instant's stage 4 geometry with its
// stage 5 signal quality -- stage 5's own record type intentionally
// doesn't carry geometry (it's a signal-quality record, not a geometry
// one), so stage 6 joins the two by (satellite, timestamp) the same way a
// research notebook would join two aligned time series.
type jointPoint struct {
	SatelliteID   int
	Constellation model.Constellation
	Timestamp     time.Time

	LatitudeDeg  float64
	LongitudeDeg float64
	DistanceKM   float64
	ElevationDeg float64
	AzimuthDeg   float64

	RSRPDbm            float64
	RSRQDb             float64
	SINRDb             float64
	AtmosphericLossDb  float64
	DopplerShiftHz     float64
	RadialVelocityMPS  float64
	PropagationDelayMs float64
	OffsetMODb         float64
	CellOffsetDb       float64
}

// buildJoint merges stage 4's feasibility points with stage 5's signal
// points, keeping only the connectable instants stage 5 actually scored.
func buildJoint(feasibility []model.FeasibilitySatellite, signal []model.SignalSatellite) []jointPoint {
	geomBySat := map[int]model.FeasibilitySatellite{}
	for _, f := range feasibility {
		geomBySat[f.SatelliteID] = f
	}

	var out []jointPoint
	for _, s := range signal {
		geom, ok := geomBySat[s.SatelliteID]
		if !ok {
			continue
		}
		geomByTime := map[int64]model.FeasibilityPoint{}
		for _, p := range geom.TimeSeries {
			geomByTime[p.Timestamp.Unix()] = p
		}

		for _, sp := range s.Points {
			g, ok := geomByTime[sp.Timestamp.Unix()]
			if !ok {
				continue
			}
			out = append(out, jointPoint{
				SatelliteID:        s.SatelliteID,
				Constellation:      s.Constellation,
				Timestamp:          sp.Timestamp,
				LatitudeDeg:        g.LatitudeDeg,
				LongitudeDeg:       g.LongitudeDeg,
				DistanceKM:         g.DistanceKM,
				ElevationDeg:       g.ElevationDeg,
				AzimuthDeg:         g.AzimuthDeg,
				RSRPDbm:            sp.RSRPDbm,
				RSRQDb:             sp.RSRQDb,
				SINRDb:             sp.SINRDb,
				AtmosphericLossDb:  sp.AtmosphericLossDb,
				DopplerShiftHz:     sp.DopplerShiftHz,
				RadialVelocityMPS:  sp.RadialVelocityMPS,
				PropagationDelayMs: sp.PropagationDelayMs,
				OffsetMODb:         sp.OffsetMODb,
				CellOffsetDb:       sp.CellOffsetDb,
			})
		}
	}
	return out
}

// groupByTimestamp buckets joint points by instant, sorted chronologically.
func groupByTimestamp(points []jointPoint) ([]time.Time, map[int64][]jointPoint) {
	byTime := map[int64][]jointPoint{}
	for _, p := range points {
		byTime[p.Timestamp.Unix()] = append(byTime[p.Timestamp.Unix()], p)
	}
	times := make([]time.Time, 0, len(byTime))
	seen := map[int64]bool{}
	for _, p := range points {
		key := p.Timestamp.Unix()
		if !seen[key] {
			seen[key] = true
			times = append(times, p.Timestamp)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times, byTime
}
