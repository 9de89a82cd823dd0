package stage4

import (
	"testing"
	"time"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/geo"
	"github.com/cedarwud/orbit-engine/internal/model"
)

func testConfig() config.Stage4Config {
	var cfg config.Stage4Config
	cfg.LinkBudget.MinDistanceKM = 200
	cfg.LinkBudget.MaxDistanceKM = 2000
	cfg.ConstellationThresholds = map[string]config.ConstellationThreshold{
		"starlink": {ElevationDeg: 10},
	}
	cfg.LinkQualityBins = map[string]float64{
		"excellent": 60,
		"good":      30,
		"fair":      10,
		"poor":      0,
	}
	return cfg
}

func TestEvaluateSatelliteOverheadPassIsConnectable(t *testing.T) {
	station := geo.Station{LatitudeDeg: 25.03, LongitudeDeg: 121.56, AltitudeKM: 0.05}
	cfg := testConfig()
	thresholds := thresholdsFromConfig(cfg)
	bins := qualityBinsFromConfig(cfg)

	// a point directly above the station at 550 km altitude
	series := model.GeodeticSeries{
		SatelliteID:   1,
		Constellation: model.ConstellationStarlink,
		Points: []model.GeodeticPoint{
			{Timestamp: time.Date(2025, 10, 16, 6, 0, 0, 0, time.UTC), LatitudeDeg: 25.03, LongitudeDeg: 121.56, AltitudeKM: 550},
		},
	}

	sat := EvaluateSatellite(series, station, cfg, thresholds, bins)
	if !sat.TimeSeries[0].IsConnectable {
		t.Fatalf("expected overhead pass to be connectable, got elevation=%f distance=%f",
			sat.TimeSeries[0].ElevationDeg, sat.TimeSeries[0].DistanceKM)
	}
	if sat.TimeSeries[0].ElevationDeg < 80 {
		t.Fatalf("expected near-90deg elevation overhead, got %f", sat.TimeSeries[0].ElevationDeg)
	}
}

func TestEvaluateSatelliteHorizonIsNotConnectable(t *testing.T) {
	station := geo.Station{LatitudeDeg: 25.03, LongitudeDeg: 121.56, AltitudeKM: 0.05}
	cfg := testConfig()
	thresholds := thresholdsFromConfig(cfg)
	bins := qualityBinsFromConfig(cfg)

	series := model.GeodeticSeries{
		SatelliteID:   2,
		Constellation: model.ConstellationStarlink,
		Points: []model.GeodeticPoint{
			// far enough away that elevation should be below the mask
			{Timestamp: time.Date(2025, 10, 16, 6, 0, 0, 0, time.UTC), LatitudeDeg: 0, LongitudeDeg: 0, AltitudeKM: 550},
		},
	}

	sat := EvaluateSatellite(series, station, cfg, thresholds, bins)
	if sat.TimeSeries[0].IsConnectable {
		t.Fatalf("expected a satellite on the far side of the globe to be unconnectable")
	}
}

func TestIsCandidateRequiresAtLeastOneConnectablePoint(t *testing.T) {
	sat := model.FeasibilitySatellite{
		TimeSeries: []model.FeasibilityPoint{{IsConnectable: false}, {IsConnectable: false}},
	}
	if IsCandidate(sat) {
		t.Fatalf("satellite with zero connectable points must not be a candidate")
	}
	sat.TimeSeries[1].IsConnectable = true
	if !IsCandidate(sat) {
		t.Fatalf("satellite with one connectable point must be a candidate")
	}
}
