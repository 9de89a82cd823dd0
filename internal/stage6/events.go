package stage6

import (
	"sort"
	"time"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/geo"
	"github.com/cedarwud/orbit-engine/internal/model"
)

// servingSelection picks the median-RSRP entry at one instant -- not the
// strongest, which would make A3 mathematically impossible (no neighbor
// can ever exceed the best by an offset). On an even count the lower of
// the two middle entries is used, a fixed deterministic tie-break rather
// than an arbitrary pick.
func servingSelection(points []jointPoint) jointPoint {
	sorted := append([]jointPoint(nil), points...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RSRPDbm < sorted[j].RSRPDbm })
	mid := (len(sorted) - 1) / 2
	return sorted[mid]
}

// DetectEvents runs the 3GPP TS 38.331 A3/A4/A5/D2 formulas at every
// instant: the serving satellite is the median-RSRP entry; every other
// connectable satellite at that instant is a neighbor candidate. Offsets
// Ocn/Ofn/Ofp/Ofs default to 0 (spec.md §4.7: A3 offsets are 0 by default
// in the record itself); only the configured offset_db/hysteresis_db and
// the absolute thresholds are applied.
func DetectEvents(groundStation geo.Station, times []time.Time, byTime map[int64][]jointPoint, cfg config.EventThresholds) []model.EventRecord {
	var events []model.EventRecord

	for _, t := range times {
		points := byTime[t.Unix()]
		if len(points) < 2 {
			continue
		}
		serving := servingSelection(points)

		for _, neighbor := range points {
			if neighbor.SatelliteID == serving.SatelliteID {
				continue
			}

			trigger := model.TriggerContext{
				ServingRSRPDbm:     serving.RSRPDbm,
				NeighborRSRPDbm:    neighbor.RSRPDbm,
				ServingDistanceKM:  serving.DistanceKM,
				NeighborDistanceKM: neighbor.DistanceKM,
			}

			if neighbor.RSRPDbm-cfg.A3HysteresisDb > serving.RSRPDbm+cfg.A3OffsetDb {
				events = append(events, newEvent(model.EventA3, t, serving, neighbor, trigger))
			}
			if neighbor.RSRPDbm-cfg.A3HysteresisDb > cfg.A4ThresholdDbm {
				events = append(events, newEvent(model.EventA4, t, serving, neighbor, trigger))
			}
			if serving.RSRPDbm < cfg.A5Threshold1Dbm && neighbor.RSRPDbm > cfg.A5Threshold2Dbm {
				events = append(events, newEvent(model.EventA5, t, serving, neighbor, trigger))
			}
			if thresholds, ok := cfg.D2[string(neighbor.Constellation)]; ok {
				servingGroundKM := geo.GreatCircleDistanceKM(groundStation.LatitudeDeg, groundStation.LongitudeDeg, serving.LatitudeDeg, serving.LongitudeDeg)
				neighborGroundKM := geo.GreatCircleDistanceKM(groundStation.LatitudeDeg, groundStation.LongitudeDeg, neighbor.LatitudeDeg, neighbor.LongitudeDeg)
				if servingGroundKM > thresholds.Threshold1KM && neighborGroundKM < thresholds.Threshold2KM {
					events = append(events, newEvent(model.EventD2, t, serving, neighbor, trigger))
				}
			}
		}
	}

	return events
}

func newEvent(eventType model.EventType, t time.Time, serving, neighbor jointPoint, trigger model.TriggerContext) model.EventRecord {
	return model.EventRecord{
		EventType:           eventType,
		Timestamp:           t,
		ServingSatelliteID:  serving.SatelliteID,
		NeighborSatelliteID: neighbor.SatelliteID,
		Trigger:             trigger,
		HandoverRecommended: eventType == model.EventA3 || eventType == model.EventA5,
	}
}
