// Package stage2 propagates each stage 1 satellite record over a shared
// research time window using SGP4, producing TEME position/velocity
// series (spec.md §4.3).
package stage2

import (
	"time"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/model"
	"github.com/cedarwud/orbit-engine/internal/stage1"
)

// Window is the absolute [Start, Start+Duration] propagation span for one
// satellite, sampled every Interval (Start+Duration itself is a sample
// only when Duration is a whole number of Intervals).
type Window struct {
	Start    time.Time
	Duration time.Duration
	Interval time.Duration
}

// Timestamps materialises every sample instant in the window, inclusive of
// Start, exclusive of Start+Duration's final partial step.
func (w Window) Timestamps() []time.Time {
	if w.Interval <= 0 {
		return nil
	}
	n := int(w.Duration / w.Interval)
	out := make([]time.Time, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, w.Start.Add(time.Duration(i)*w.Interval))
	}
	return out
}

// WindowMode names the two time-window strategies spec.md §4.3 allows.
type WindowMode string

const (
	ModeUnifiedWindow   WindowMode = "unified_window"
	ModeIndependentEpoch WindowMode = "independent_epoch"
)

// Resolve computes the propagation window for one satellite record.
//
// unified_window: every satellite shares the same absolute start (the
// latest epoch across all loaded records, so no satellite has to be
// propagated backward from a not-yet-reached epoch) and the same duration,
// sized off the longer of the two configured constellation orbital
// periods so the slower constellation still gets its required coverage
// cycles.
//
// independent_epoch: each satellite's window starts at its own epoch and
// runs for coverage_cycles times ITS OWN orbital period (derived from its
// TLE mean motion, not a configured constant) -- this is the mode that
// keeps each satellite's reference frame fully independent end to end.
func Resolve(rec model.SatelliteRecord, mode WindowMode, cfg config.Stage2Config, unifiedStart time.Time) Window {
	interval := time.Duration(cfg.IntervalSeconds * float64(time.Second))

	switch mode {
	case ModeIndependentEpoch:
		periodMin := stage1.OrbitalPeriodFromMeanMotion(rec.MeanMotionRevPD)
		duration := time.Duration(cfg.CoverageCycles * periodMin * float64(time.Minute))
		return Window{Start: rec.EpochDatetime, Duration: duration, Interval: interval}

	default: // ModeUnifiedWindow
		longestPeriod := cfg.ConstellationOrbitalPeriods.StarlinkMinutes
		if cfg.ConstellationOrbitalPeriods.OneWebMinutes > longestPeriod {
			longestPeriod = cfg.ConstellationOrbitalPeriods.OneWebMinutes
		}
		duration := time.Duration(cfg.CoverageCycles * longestPeriod * float64(time.Minute))
		return Window{Start: unifiedStart, Duration: duration, Interval: interval}
	}
}

// UnifiedStart returns the latest epoch across records, the anchor used by
// unified_window mode.
func UnifiedStart(records []model.SatelliteRecord) time.Time {
	var latest time.Time
	for i, r := range records {
		if i == 0 || r.EpochDatetime.After(latest) {
			latest = r.EpochDatetime
		}
	}
	return latest
}

// OrbitRegime classifies a semi-major axis into the coarse LEO/MEO/GEO
// bands (SOURCE: Vallado 2013 ch.1 regime boundaries), supplemental
// metadata carried alongside each satellite's series.
func OrbitRegime(semiMajorAxisKM float64) string {
	const earthRadiusKM = 6378.135
	altitudeKM := semiMajorAxisKM - earthRadiusKM
	switch {
	case altitudeKM < 2000:
		return "LEO"
	case altitudeKM < 35786:
		return "MEO"
	default:
		return "GEO"
	}
}
