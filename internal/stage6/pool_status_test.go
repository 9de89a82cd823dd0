package stage6

import (
	"testing"
	"time"

	"github.com/cedarwud/orbit-engine/internal/model"
)

func TestPoolStatusMeetsFloorAndCoverageRate(t *testing.T) {
	t0 := time.Date(2025, 10, 16, 6, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)
	times := []time.Time{t0, t1}

	byTime := map[int64][]jointPoint{
		t0.Unix(): {
			{SatelliteID: 1, Constellation: model.ConstellationStarlink},
			{SatelliteID: 2, Constellation: model.ConstellationStarlink},
		},
		t1.Unix(): {
			{SatelliteID: 1, Constellation: model.ConstellationStarlink},
		},
	}
	floor := map[model.Constellation]int{model.ConstellationStarlink: 2}

	status := PoolStatus(times, byTime, floor)
	if len(status) != 2 {
		t.Fatalf("expected one status point per instant, got %d", len(status))
	}
	if !status[0].MeetsFloor {
		t.Fatalf("t0 has 2 visible satellites against a floor of 2, expected MeetsFloor=true")
	}
	if status[1].MeetsFloor {
		t.Fatalf("t1 has 1 visible satellite against a floor of 2, expected MeetsFloor=false")
	}

	rate := CoverageRate(status)
	if rate != 0.5 {
		t.Fatalf("expected coverage rate 0.5 (1 of 2 instants meeting the floor), got %f", rate)
	}
}

func TestCoverageRateEmptyStatusIsZero(t *testing.T) {
	if rate := CoverageRate(nil); rate != 0 {
		t.Fatalf("expected coverage rate 0 for an empty status slice, got %f", rate)
	}
}
