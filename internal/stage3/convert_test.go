package stage3

import (
	"testing"
	"time"

	"github.com/cedarwud/orbit-engine/internal/astro"
	"github.com/cedarwud/orbit-engine/internal/model"
)

func TestConvertSeriesPreservesPointCount(t *testing.T) {
	series := model.TEMESeries{
		SatelliteID: 1,
		Points: []model.TEMEPoint{
			{Timestamp: time.Now().UTC(), PositionKM: [3]float64{7000, 0, 0}},
			{Timestamp: time.Now().UTC().Add(time.Minute), PositionKM: [3]float64{0, 7000, 500}},
		},
	}

	got := ConvertSeries(series, astro.PolarMotion{})
	if len(got.Points) != len(series.Points) {
		t.Fatalf("got %d points, want %d", len(got.Points), len(series.Points))
	}
}

func TestRoundTripErrorSmall(t *testing.T) {
	pos := [3]float64{6800, 1200, 300}
	ts := time.Date(2025, 10, 16, 6, 0, 0, 0, time.UTC)
	point := model.TEMEPoint{Timestamp: ts, PositionKM: pos}

	errKM := roundTripErrorKM(pos, point, astro.PolarMotion{})
	if errKM > 0.1 {
		t.Fatalf("round-trip error %f km exceeds 100 m tolerance", errKM)
	}
}
