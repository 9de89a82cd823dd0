package stage5

import (
	"math"

	"github.com/cedarwud/orbit-engine/internal/model"
)

// InterferenceDbm sums the linear received power of every other
// connectable satellite of the same constellation at the same instant
// (spec.md §9 Open Question resolution: interference is the sum of other
// optimized-pool satellites' received power at that instant, not a
// constant), returning the result back in dBm.
func InterferenceDbm(selfSatelliteID int, constellation model.Constellation, ts int64, rsrpByTime map[int64]map[int]rsrpEntry) float64 {
	byTime, ok := rsrpByTime[ts]
	if !ok {
		return negativeInfinityDbm
	}
	sumWatts := 0.0
	any := false
	for id, e := range byTime {
		if id == selfSatelliteID || e.constellation != constellation {
			continue
		}
		sumWatts += dbmToWatts(e.rsrpDbm)
		any = true
	}
	if !any {
		return negativeInfinityDbm
	}
	return wattsToDbm(sumWatts)
}

type rsrpEntry struct {
	constellation model.Constellation
	rsrpDbm       float64
}

const negativeInfinityDbm = -300.0 // effectively zero linear power; avoids a real -Inf propagating into RSRQ/SINR logs

func wattsToDbm(w float64) float64 {
	if w <= 0 {
		return negativeInfinityDbm
	}
	return 10*math.Log10(w) + 30
}
