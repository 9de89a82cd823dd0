package stage4

import (
	"testing"
	"time"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/model"
)

func poolTestUniverse(n int) []time.Time {
	base := time.Date(2025, 10, 16, 6, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.Add(time.Duration(i) * time.Minute)
	}
	return out
}

func connectableAt(universe []time.Time, azimuth float64, idxs ...int) []model.FeasibilityPoint {
	set := map[int]bool{}
	for _, i := range idxs {
		set[i] = true
	}
	points := make([]model.FeasibilityPoint, len(universe))
	for i, t := range universe {
		points[i] = model.FeasibilityPoint{Timestamp: t, IsConnectable: set[i], AzimuthDeg: azimuth}
	}
	return points
}

func TestOptimizePoolCoversUniverseWithTwoSatellites(t *testing.T) {
	universe := poolTestUniverse(10)
	candidates := []model.FeasibilitySatellite{
		{SatelliteID: 1, TimeSeries: connectableAt(universe, 0, 0, 1, 2, 3, 4)},
		{SatelliteID: 2, TimeSeries: connectableAt(universe, 180, 5, 6, 7, 8, 9)},
	}

	var cfg config.Stage4Config
	cfg.PoolOptimization.TargetCoverageRate = 0.95
	cfg.PoolOptimization.MaxPoolSize = 10
	cfg.PoolOptimization.ConvergenceEpsilon = 0.01
	cfg.PoolOptimization.DiversityWeight = 0.1

	result := OptimizePool(candidates, universe, 1, 1, cfg)
	if len(result.Selected) != 2 {
		t.Fatalf("expected both satellites selected to reach full coverage, got %d", len(result.Selected))
	}
	if result.CoverageRate < 0.95 {
		t.Fatalf("expected coverage >= 0.95, got %f", result.CoverageRate)
	}
}

func TestOptimizePoolRejectsDisjointHalvesUnderMultiplicityTwo(t *testing.T) {
	universe := poolTestUniverse(10)
	candidates := []model.FeasibilitySatellite{
		{SatelliteID: 1, TimeSeries: connectableAt(universe, 0, 0, 1, 2, 3, 4)},
		{SatelliteID: 2, TimeSeries: connectableAt(universe, 180, 5, 6, 7, 8, 9)},
	}

	var cfg config.Stage4Config
	cfg.PoolOptimization.TargetCoverageRate = 0.95
	cfg.PoolOptimization.MaxPoolSize = 10
	cfg.PoolOptimization.ConvergenceEpsilon = 0.01
	cfg.PoolOptimization.DiversityWeight = 0.1

	// Each instant needs 2 simultaneously-connectable satellites, but these
	// two candidates only ever cover disjoint halves -- no instant ever
	// reaches multiplicity 2, so the achieved-visible-count floor of 2 is
	// never met anywhere and coverage_rate must stay at 0, not report full
	// coverage the way the old "touched once" boolean model did.
	result := OptimizePool(candidates, universe, 2, 2, cfg)
	if len(result.Selected) != 2 {
		t.Fatalf("expected both candidates exhausted, got %d selected", len(result.Selected))
	}
	if result.CoverageRate != 0 {
		t.Fatalf("expected coverage rate 0 since no instant reaches the multiplicity-2 floor, got %f", result.CoverageRate)
	}
	if result.StopReason != "candidates_exhausted" {
		t.Fatalf("expected stop reason candidates_exhausted, got %s", result.StopReason)
	}
	if len(result.CoverageGaps) != 10 {
		t.Fatalf("expected all 10 instants to remain below the floor, got %d gaps", len(result.CoverageGaps))
	}
}

func TestOptimizePoolStopsAtMaxPoolSize(t *testing.T) {
	universe := poolTestUniverse(4)
	candidates := []model.FeasibilitySatellite{
		{SatelliteID: 1, TimeSeries: connectableAt(universe, 0, 0)},
		{SatelliteID: 2, TimeSeries: connectableAt(universe, 90, 1)},
		{SatelliteID: 3, TimeSeries: connectableAt(universe, 180, 2)},
	}

	var cfg config.Stage4Config
	cfg.PoolOptimization.TargetCoverageRate = 1.0
	cfg.PoolOptimization.MaxPoolSize = 1
	cfg.PoolOptimization.ConvergenceEpsilon = 0.0
	cfg.PoolOptimization.DiversityWeight = 0.0

	result := OptimizePool(candidates, universe, 1, 1, cfg)
	if len(result.Selected) != 1 {
		t.Fatalf("expected pool capped at 1 satellite, got %d", len(result.Selected))
	}
	if result.StopReason != "max_pool_size_reached" {
		t.Fatalf("expected stop reason max_pool_size_reached, got %s", result.StopReason)
	}
}

func TestDiversityScorePrefersSpreadAzimuths(t *testing.T) {
	universe := poolTestUniverse(8)
	spread := model.FeasibilitySatellite{TimeSeries: []model.FeasibilityPoint{
		{Timestamp: universe[0], IsConnectable: true, AzimuthDeg: 0},
		{Timestamp: universe[1], IsConnectable: true, AzimuthDeg: 90},
		{Timestamp: universe[2], IsConnectable: true, AzimuthDeg: 180},
		{Timestamp: universe[3], IsConnectable: true, AzimuthDeg: 270},
	}}
	clustered := model.FeasibilitySatellite{TimeSeries: []model.FeasibilityPoint{
		{Timestamp: universe[0], IsConnectable: true, AzimuthDeg: 1},
		{Timestamp: universe[1], IsConnectable: true, AzimuthDeg: 2},
		{Timestamp: universe[2], IsConnectable: true, AzimuthDeg: 3},
		{Timestamp: universe[3], IsConnectable: true, AzimuthDeg: 4},
	}}

	if diversityScore(spread) <= diversityScore(clustered) {
		t.Fatalf("expected spread azimuths to score higher diversity than clustered ones")
	}
}
