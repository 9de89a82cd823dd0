package stage4

import (
	"time"

	"github.com/cedarwud/orbit-engine/internal/model"
)

// EpochValidation captures the three epoch checks stage 4 runs before any
// visibility computation (spec.md §4.5.1): independence, consistency, and
// distribution. Independence failing aborts the stage; the other two only
// warn.
type EpochValidation struct {
	DistinctEpochs    int     `json:"distinct_epochs"`
	TotalSatellites   int     `json:"total_satellites"`
	IndependenceRatio float64 `json:"independence_ratio"`
	IndependencePass  bool    `json:"independence_pass"`

	MaxEpochSpreadHours float64 `json:"max_epoch_spread_hours"`
	ConsistencyPass     bool    `json:"consistency_pass"`

	SpanHours       float64 `json:"span_hours"`
	DistributionPass bool   `json:"distribution_pass"`
}

// ValidateEpochs checks that satellites were not all force-fit to a
// single shared epoch (which would silently defeat independent-epoch
// propagation), that epochs cluster within a plausible TLE-batch window,
// and that the batch spans enough wall-clock time to be a real multi-day
// catalog rather than a single snapshot.
func ValidateEpochs(series []model.GeodeticSeries) EpochValidation {
	n := len(series)
	v := EpochValidation{TotalSatellites: n}
	if n == 0 {
		return v
	}

	seen := map[int64]struct{}{}
	var minT, maxT time.Time
	for i, s := range series {
		seen[s.EpochDatetime.Unix()] = struct{}{}
		if i == 0 || s.EpochDatetime.Before(minT) {
			minT = s.EpochDatetime
		}
		if i == 0 || s.EpochDatetime.After(maxT) {
			maxT = s.EpochDatetime
		}
	}

	v.DistinctEpochs = len(seen)
	v.IndependenceRatio = float64(v.DistinctEpochs) / float64(n)

	// spec.md §4.5.1: independent if >=50% distinct; with fewer than 3
	// satellites every satellite must also have its own epoch (otherwise
	// two satellites sharing one epoch would pass at exactly 50%).
	v.IndependencePass = v.IndependenceRatio >= 0.5 && (n >= 3 || v.DistinctEpochs == n)

	v.MaxEpochSpreadHours = maxT.Sub(minT).Hours()
	v.ConsistencyPass = v.MaxEpochSpreadHours <= 7*24

	v.SpanHours = v.MaxEpochSpreadHours
	v.DistributionPass = v.SpanHours >= 24 || n < 3

	return v
}
