// Package geo computes ground-station-relative geometry: topocentric
// elevation/azimuth/slant-range, and great-circle ground distances, the
// two measurements stage 4 and stage 6 build everything else on top of.
package geo

import (
	"math"

	"github.com/cedarwud/orbit-engine/internal/astro"
)

// Station is a single configurable ground station (spec.md Non-goals:
// exactly one site per run).
type Station struct {
	LatitudeDeg  float64
	LongitudeDeg float64
	AltitudeKM   float64
}

// ECEF returns the station's Earth-centered Earth-fixed position in km.
func (s Station) ECEF() [3]float64 {
	x, y, z := astro.GeodeticToECEF(s.LatitudeDeg, s.LongitudeDeg, s.AltitudeKM)
	return [3]float64{x, y, z}
}

// Topocentric computes elevation (degrees above local horizon), azimuth
// (degrees, 0=north, clockwise), and slant range (km) of an ECEF satellite
// position as seen from the station.
func (s Station) Topocentric(satECEF [3]float64) (elevationDeg, azimuthDeg, distanceKM float64) {
	stationECEF := s.ECEF()

	dx := satECEF[0] - stationECEF[0]
	dy := satECEF[1] - stationECEF[1]
	dz := satECEF[2] - stationECEF[2]
	distanceKM = math.Sqrt(dx*dx + dy*dy + dz*dz)

	lat := s.LatitudeDeg * math.Pi / 180
	lon := s.LongitudeDeg * math.Pi / 180
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	sinLon, cosLon := math.Sin(lon), math.Cos(lon)

	// rotate the ECEF range vector into the station's local ENU frame
	south := sinLat*cosLon*dx + sinLat*sinLon*dy - cosLat*dz
	east := -sinLon*dx + cosLon*dy
	up := cosLat*cosLon*dx + cosLat*sinLon*dy + sinLat*dz

	north := -south
	horizontalDist := math.Hypot(north, east)

	elevationDeg = math.Atan2(up, horizontalDist) * 180 / math.Pi

	azimuthDeg = math.Atan2(east, north) * 180 / math.Pi
	if azimuthDeg < 0 {
		azimuthDeg += 360
	}

	return elevationDeg, azimuthDeg, distanceKM
}

// RefractionCorrectionDeg applies a simple tropospheric refraction
// correction (Bennett 1982, arcminutes) to an apparent elevation,
// SOURCE: G.G. Bennett, "The Calculation of Astronomical Refraction in
// Marine Navigation", 1982 -- the standard low-cost correction used when
// a full ray-tracing atmospheric model isn't warranted.
func RefractionCorrectionDeg(trueElevationDeg float64) float64 {
	if trueElevationDeg < -1 {
		return 0
	}
	h := trueElevationDeg
	arcmin := 1.0 / math.Tan((h+7.31/(h+4.4))*math.Pi/180)
	return arcmin / 60.0
}

// GreatCircleDistanceKM returns the haversine ground distance (km)
// between two geodetic points, used for D2's ground-projection distance
// check.
func GreatCircleDistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthMeanRadiusKM = 6371.0

	p1 := lat1 * math.Pi / 180
	p2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(p1)*math.Cos(p2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthMeanRadiusKM * c
}
