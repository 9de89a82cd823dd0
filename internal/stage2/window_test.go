package stage2

import (
	"testing"
	"time"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/model"
)

func TestResolveIndependentEpoch(t *testing.T) {
	rec := model.SatelliteRecord{
		EpochDatetime:   time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC),
		MeanMotionRevPD: 15.5,
	}
	cfg := config.Stage2Config{IntervalSeconds: 30, CoverageCycles: 1.2}

	w := Resolve(rec, ModeIndependentEpoch, cfg, time.Time{})
	if !w.Start.Equal(rec.EpochDatetime) {
		t.Fatalf("independent_epoch window must start at the satellite's own epoch")
	}
	wantMinutes := 1.2 * (1440.0 / 15.5)
	gotMinutes := w.Duration.Minutes()
	if diff := gotMinutes - wantMinutes; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("got duration %f min, want %f min", gotMinutes, wantMinutes)
	}
}

func TestResolveUnifiedWindow(t *testing.T) {
	unified := time.Date(2025, 10, 16, 12, 0, 0, 0, time.UTC)
	cfg := config.Stage2Config{IntervalSeconds: 30, CoverageCycles: 1.2}
	cfg.ConstellationOrbitalPeriods.StarlinkMinutes = 95
	cfg.ConstellationOrbitalPeriods.OneWebMinutes = 109

	rec := model.SatelliteRecord{EpochDatetime: unified.Add(-time.Hour)}
	w := Resolve(rec, ModeUnifiedWindow, cfg, unified)
	if !w.Start.Equal(unified) {
		t.Fatalf("unified_window must start at the shared anchor, not the satellite's own epoch")
	}
	wantMinutes := 1.2 * 109.0
	if diff := w.Duration.Minutes() - wantMinutes; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("got duration %f min, want %f min (longer constellation period)", w.Duration.Minutes(), wantMinutes)
	}
}

func TestWindowTimestampsSpacing(t *testing.T) {
	w := Window{Start: time.Unix(0, 0).UTC(), Duration: 90 * time.Second, Interval: 30 * time.Second}
	ts := w.Timestamps()
	if len(ts) != 4 {
		t.Fatalf("got %d timestamps, want 4", len(ts))
	}
	for i := 1; i < len(ts); i++ {
		if ts[i].Sub(ts[i-1]) != 30*time.Second {
			t.Fatalf("timestamps unevenly spaced at index %d", i)
		}
	}
}

func TestOrbitRegimeClassification(t *testing.T) {
	cases := []struct {
		semiMajorKM float64
		want        string
	}{
		{6378.135 + 550, "LEO"},
		{6378.135 + 8000, "MEO"},
		{6378.135 + 35786, "GEO"},
	}
	for _, c := range cases {
		if got := OrbitRegime(c.semiMajorKM); got != c.want {
			t.Fatalf("OrbitRegime(%f) = %q, want %q", c.semiMajorKM, got, c.want)
		}
	}
}
