package stage6

import (
	"testing"
	"time"

	"github.com/cedarwud/orbit-engine/internal/model"
)

func TestBuildJointKeepsOnlySharedInstants(t *testing.T) {
	t0 := time.Date(2025, 10, 16, 6, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	feasibility := []model.FeasibilitySatellite{
		{
			SatelliteID: 1,
			TimeSeries: []model.FeasibilityPoint{
				{Timestamp: t0, ElevationDeg: 30, AzimuthDeg: 120, DistanceKM: 800, LatitudeDeg: 1, LongitudeDeg: 2},
				{Timestamp: t1, ElevationDeg: 35, AzimuthDeg: 121, DistanceKM: 790, LatitudeDeg: 1, LongitudeDeg: 2},
			},
		},
	}
	signal := []model.SignalSatellite{
		{
			SatelliteID:   1,
			Constellation: model.ConstellationStarlink,
			Points: []model.SignalPoint{
				{Timestamp: t0, RSRPDbm: -90},
				// t1 deliberately absent from the signal side -- stage 5 may
				// have dropped a disconnected instant.
			},
		},
	}

	joint := buildJoint(feasibility, signal)
	if len(joint) != 1 {
		t.Fatalf("expected exactly 1 joint point (only t0 present on both sides), got %d", len(joint))
	}
	if joint[0].ElevationDeg != 30 || joint[0].RSRPDbm != -90 {
		t.Fatalf("joint point did not merge geometry and signal fields correctly: %+v", joint[0])
	}
}

func TestBuildJointDropsSatellitesMissingGeometry(t *testing.T) {
	t0 := time.Date(2025, 10, 16, 6, 0, 0, 0, time.UTC)
	signal := []model.SignalSatellite{
		{SatelliteID: 99, Points: []model.SignalPoint{{Timestamp: t0, RSRPDbm: -100}}},
	}
	joint := buildJoint(nil, signal)
	if len(joint) != 0 {
		t.Fatalf("expected no joint points when stage 4 has no matching satellite, got %d", len(joint))
	}
}

func TestGroupByTimestampSortsChronologically(t *testing.T) {
	t0 := time.Date(2025, 10, 16, 6, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)
	points := []jointPoint{
		{SatelliteID: 1, Timestamp: t1},
		{SatelliteID: 1, Timestamp: t0},
		{SatelliteID: 2, Timestamp: t0},
	}
	times, byTime := groupByTimestamp(points)
	if len(times) != 2 {
		t.Fatalf("expected 2 distinct instants, got %d", len(times))
	}
	if !times[0].Equal(t0) || !times[1].Equal(t1) {
		t.Fatalf("expected chronological order [t0, t1], got %v", times)
	}
	if len(byTime[t0.Unix()]) != 2 {
		t.Fatalf("expected 2 joint points at t0, got %d", len(byTime[t0.Unix()]))
	}
}
