package stage5

import (
	"github.com/cedarwud/orbit-engine/internal/model"
	"github.com/cedarwud/orbit-engine/internal/pipeline"
)

// BuildSnapshot runs the runtime sanity checks spec.md §4.6 calls for: a
// clipping bug collapses RSRP stddev/range to near zero, any
// atmospheric_loss_db equal to the 999.0 sentinel is rejected
// (AtmosphericLoss clamps elevation to 5 deg and never returns it itself),
// and per-point bounds catch anything else implausible.
func BuildSnapshot(out Output, summary map[string]any, sampling bool) pipeline.Snapshot {
	stddevDb, _ := summary["rsrp_stddev_db"].(float64)
	rangeDb, _ := summary["rsrp_range_db"].(float64)

	checks := []pipeline.CheckDetail{
		pipeline.CheckCondition("rsrp_stddev_at_least_2db",
			stddevDb >= 2.0,
			"RSRP standard deviation below 2 dB across satellites -- values may have collapsed to a single number"),
		pipeline.CheckCondition("rsrp_range_at_least_5db",
			rangeDb >= 5.0,
			"RSRP range below 5 dB across satellites -- LEO distance spread should produce more variation"),
		pipeline.CheckCondition("no_atmospheric_sentinel",
			noSentinelLoss(out.Satellites),
			"an atmospheric_loss_db value of 999.0 leaked through, usually from a negative-elevation input"),
		pipeline.CheckCondition("rsrp_within_bounds",
			allRSRPWithinBounds(out.Satellites, -150, -20),
			"a point's RSRP fell outside (-150, -20) dBm"),
		pipeline.CheckCondition("distance_within_bounds",
			allDistancesWithinBounds(out.Satellites, 500, 3000),
			"a connectable point's propagation delay implies a distance outside (500, 3000) km"),
	}

	vc := pipeline.Evaluate(checks, sampling)
	return pipeline.Snapshot{
		Stage:            5,
		StageName:        "signal_analysis",
		Metadata:         map[string]any{"calculation_standard": "3GPP_TS_38.214_38.215_ITU-R_P.676-13_P.618-13"},
		DataSummary:      summary,
		ValidationChecks: vc,
	}
}

func noSentinelLoss(satellites []model.SignalSatellite) bool {
	for _, s := range satellites {
		for _, p := range s.Points {
			if p.AtmosphericLossDb == 999.0 {
				return false
			}
		}
	}
	return true
}

func allRSRPWithinBounds(satellites []model.SignalSatellite, lo, hi float64) bool {
	for _, s := range satellites {
		for _, p := range s.Points {
			if p.RSRPDbm < lo || p.RSRPDbm > hi {
				return false
			}
		}
	}
	return true
}

func allDistancesWithinBounds(satellites []model.SignalSatellite, loKM, hiKM float64) bool {
	for _, s := range satellites {
		for _, p := range s.Points {
			distanceKM := p.PropagationDelayMs / 1000 * speedOfLightMPS / 1000
			if distanceKM < loKM || distanceKM > hiKM {
				return false
			}
		}
	}
	return true
}
