// Package stage3 converts stage 2's TEME time series into WGS84 geodetic
// latitude/longitude/altitude using the IAU-standard chain in
// internal/astro, with a TileDB-backed cache keyed by the upstream
// pipeline run so a re-run of stage 3 alone (no stage 2 change) is free
// (spec.md §4.4).
package stage3

import (
	"math"

	"github.com/cedarwud/orbit-engine/internal/astro"
	"github.com/cedarwud/orbit-engine/internal/model"
)

// ConvertSeries converts one satellite's TEME series into a geodetic
// series, point for point, preserving the point count (validator check
// "point count matches Stage 2").
func ConvertSeries(series model.TEMESeries, pm astro.PolarMotion) model.GeodeticSeries {
	points := make([]model.GeodeticPoint, len(series.Points))
	for i, p := range series.Points {
		lat, lon, alt := astro.TEMEToWGS84(p.PositionKM, p.Timestamp, pm)
		points[i] = model.GeodeticPoint{
			Timestamp:    p.Timestamp,
			LatitudeDeg:  lat,
			LongitudeDeg: lon,
			AltitudeKM:   alt,
		}
	}

	return model.GeodeticSeries{
		SatelliteID:   series.SatelliteID,
		Name:          series.Name,
		Constellation: series.Constellation,
		EpochDatetime: series.EpochDatetime,
		Points:        points,
	}
}

// roundTripErrorKM is the spot-check helper the stage 3 validator uses:
// convert posKM -> geodetic -> TEME at the same timestamp, and report the
// residual distance (spec.md §8 round-trip law, < 100 m).
func roundTripErrorKM(posKM [3]float64, t model.TEMEPoint, pm astro.PolarMotion) float64 {
	lat, lon, alt := astro.TEMEToWGS84(posKM, t.Timestamp, pm)
	back := astro.WGS84ToTEME(lat, lon, alt, t.Timestamp, pm)

	dx := back[0] - posKM[0]
	dy := back[1] - posKM[1]
	dz := back[2] - posKM[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
