package stage2

import (
	"fmt"
	"math"

	"github.com/cedarwud/orbit-engine/internal/model"
	"github.com/cedarwud/orbit-engine/internal/sgp4"
)

// PropagateOne runs SGP4 for a single satellite over its resolved window,
// producing the full TEME time series. Errors from a single satellite are
// captured on the series (FailedReason) rather than aborting the batch --
// a malformed element set for one satellite must not block the rest
// (spec.md §7 taxonomy, "individual record malformed").
func PropagateOne(rec model.SatelliteRecord, w Window) model.TEMESeries {
	series := model.TEMESeries{
		SatelliteID:   rec.SatelliteID,
		Name:          rec.Name,
		Constellation: rec.Constellation,
		EpochDatetime: rec.EpochDatetime,
	}

	elements, err := sgp4.ParseElements(rec.Line1, rec.Line2, rec.EpochDatetime)
	if err != nil {
		series.FailedReason = fmt.Sprintf("parse elements: %v", err)
		return series
	}

	propagator, err := sgp4.Initialize(elements)
	if err != nil {
		series.FailedReason = fmt.Sprintf("initialize: %v", err)
		return series
	}

	series.OrbitalPeriodS = sgp4.OrbitalPeriod(elements).Seconds()
	series.OrbitRegime = OrbitRegime(propagator.SemiMajorAxisKM())

	timestamps := w.Timestamps()
	points := make([]model.TEMEPoint, 0, len(timestamps))
	for _, t := range timestamps {
		state, err := propagator.Propagate(t)
		if err != nil {
			series.FailedReason = fmt.Sprintf("propagate at %s: %v", t, err)
			return series
		}
		if hasNaN(state.PositionKM) || hasNaN(state.VelocityKMPS) {
			series.FailedReason = fmt.Sprintf("non-finite state at %s", t)
			return series
		}
		points = append(points, model.TEMEPoint{
			Timestamp:    t,
			PositionKM:   state.PositionKM,
			VelocityKMPS: state.VelocityKMPS,
			DataSource:   "stage1_provided",
		})
	}

	series.Points = points
	return series
}

func hasNaN(v [3]float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return true
		}
	}
	return false
}
