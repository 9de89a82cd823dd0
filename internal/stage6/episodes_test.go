package stage6

import (
	"testing"
	"time"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/model"
)

func makeJointPoints(satelliteID int, n int) []jointPoint {
	base := time.Date(2025, 10, 16, 6, 0, 0, 0, time.UTC)
	out := make([]jointPoint, n)
	for i := range out {
		out[i] = jointPoint{SatelliteID: satelliteID, Constellation: model.ConstellationStarlink, Timestamp: base.Add(time.Duration(i) * time.Minute)}
	}
	return out
}

func TestBuildEpisodesNoSatelliteSpansMultipleSplits(t *testing.T) {
	var points []jointPoint
	for id := 1; id <= 8; id++ {
		points = append(points, makeJointPoints(id, 5)...)
	}

	cfg := config.Stage6Config{TrainSplit: 0.75, ValidationSplit: 0.125, TestSplit: 0.125}
	episodes := BuildEpisodes(points, map[model.Constellation]float64{model.ConstellationStarlink: 95}, cfg)

	if len(episodes) != 8 {
		t.Fatalf("expected 8 episodes (one per satellite), got %d", len(episodes))
	}
	for _, ep := range episodes {
		if ep.Split != "train" && ep.Split != "validation" && ep.Split != "test" {
			t.Fatalf("satellite %d got an unexpected split %q", ep.SatelliteID, ep.Split)
		}
		if len(ep.Points) != 5 {
			t.Fatalf("satellite %d: expected 5 points, got %d", ep.SatelliteID, len(ep.Points))
		}
	}
}

func TestSplitAssignmentIsDeterministic(t *testing.T) {
	ids := []int{1, 2, 3, 4, 5, 6, 7, 8}
	a := splitAssignment(ids, 0.75, 0.125)
	b := splitAssignment(ids, 0.75, 0.125)
	for _, id := range ids {
		if a[id] != b[id] {
			t.Fatalf("split assignment for satellite %d was non-deterministic: %s vs %s", id, a[id], b[id])
		}
	}
}
