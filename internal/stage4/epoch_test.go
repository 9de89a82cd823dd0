package stage4

import (
	"testing"
	"time"

	"github.com/cedarwud/orbit-engine/internal/model"
)

func TestValidateEpochsIndependentPasses(t *testing.T) {
	base := time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC)
	series := []model.GeodeticSeries{
		{SatelliteID: 1, EpochDatetime: base},
		{SatelliteID: 2, EpochDatetime: base.Add(2 * time.Hour)},
		{SatelliteID: 3, EpochDatetime: base.Add(30 * time.Hour)},
		{SatelliteID: 4, EpochDatetime: base.Add(40 * time.Hour)},
	}

	v := ValidateEpochs(series)
	if !v.IndependencePass {
		t.Fatalf("expected independence pass with 4 distinct epochs out of 4")
	}
	if !v.ConsistencyPass {
		t.Fatalf("expected consistency pass within a 40-hour spread")
	}
	if !v.DistributionPass {
		t.Fatalf("expected distribution pass with a 40-hour span")
	}
}

func TestValidateEpochsSharedEpochFailsIndependence(t *testing.T) {
	shared := time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC)
	series := make([]model.GeodeticSeries, 10)
	for i := range series {
		series[i] = model.GeodeticSeries{SatelliteID: i, EpochDatetime: shared}
	}

	v := ValidateEpochs(series)
	if v.IndependencePass {
		t.Fatalf("expected independence failure when all 10 satellites share one epoch")
	}
}
