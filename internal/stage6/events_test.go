package stage6

import (
	"testing"
	"time"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/geo"
	"github.com/cedarwud/orbit-engine/internal/model"
)

func TestServingSelectionPicksMedianNotMax(t *testing.T) {
	points := []jointPoint{
		{SatelliteID: 1, RSRPDbm: -40},
		{SatelliteID: 2, RSRPDbm: -30},
		{SatelliteID: 3, RSRPDbm: -20},
	}
	serving := servingSelection(points)
	if serving.SatelliteID != 2 {
		t.Fatalf("expected the median (-30dBm, id=2) satellite, got id=%d rsrp=%f", serving.SatelliteID, serving.RSRPDbm)
	}
}

func TestDetectEventsA3FiresWhenNeighborBeatsServingByOffset(t *testing.T) {
	ts := time.Date(2025, 10, 16, 6, 0, 0, 0, time.UTC)
	points := []jointPoint{
		{SatelliteID: 1, RSRPDbm: -40, Constellation: model.ConstellationStarlink},
		{SatelliteID: 2, RSRPDbm: -30, Constellation: model.ConstellationStarlink}, // median/serving
		{SatelliteID: 3, RSRPDbm: -20, Constellation: model.ConstellationStarlink}, // clearly better neighbor
	}
	byTime := map[int64][]jointPoint{ts.Unix(): points}

	cfg := config.EventThresholds{A3OffsetDb: 3, A3HysteresisDb: 2}
	station := geo.Station{}

	events := DetectEvents(station, []time.Time{ts}, byTime, cfg)

	found := false
	for _, e := range events {
		if e.EventType == model.EventA3 && e.ServingSatelliteID == 2 && e.NeighborSatelliteID == 3 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an A3 event from satellite 3 against median-serving satellite 2, got %+v", events)
	}
}

func TestDetectEventsNoEventsBelowSingleCandidate(t *testing.T) {
	ts := time.Date(2025, 10, 16, 6, 0, 0, 0, time.UTC)
	byTime := map[int64][]jointPoint{ts.Unix(): {{SatelliteID: 1, RSRPDbm: -40}}}

	events := DetectEvents(geo.Station{}, []time.Time{ts}, byTime, config.EventThresholds{})
	if len(events) != 0 {
		t.Fatalf("expected no events with a single satellite present, got %d", len(events))
	}
}
