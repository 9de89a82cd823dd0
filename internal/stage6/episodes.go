package stage6

import (
	"sort"

	"github.com/cedarwud/orbit-engine/config"
	"github.com/cedarwud/orbit-engine/internal/model"
)

// BuildEpisodes groups joint points by satellite into one contiguous
// episode each, then assigns train/validation/test splits keyed by
// satellite so no satellite's points leak across splits.
func BuildEpisodes(points []jointPoint, orbitalPeriodMinutes map[model.Constellation]float64, cfg config.Stage6Config) []model.Episode {
	bySat := map[int][]jointPoint{}
	constellationBySat := map[int]model.Constellation{}
	for _, p := range points {
		bySat[p.SatelliteID] = append(bySat[p.SatelliteID], p)
		constellationBySat[p.SatelliteID] = p.Constellation
	}

	ids := make([]int, 0, len(bySat))
	for id := range bySat {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	splits := splitAssignment(ids, cfg.TrainSplit, cfg.ValidationSplit)

	episodes := make([]model.Episode, 0, len(ids))
	for _, id := range ids {
		pts := bySat[id]
		sort.Slice(pts, func(i, j int) bool { return pts[i].Timestamp.Before(pts[j].Timestamp) })

		epPoints := make([]model.EpisodePoint, len(pts))
		for i, p := range pts {
			epPoints[i] = model.EpisodePoint{
				Timestamp:          p.Timestamp,
				ElevationDeg:       p.ElevationDeg,
				AzimuthDeg:         p.AzimuthDeg,
				DistanceKM:         p.DistanceKM,
				RSRPDbm:            p.RSRPDbm,
				RSRQDb:             p.RSRQDb,
				SINRDb:             p.SINRDb,
				AtmosphericLossDb:  p.AtmosphericLossDb,
				DopplerShiftHz:     p.DopplerShiftHz,
				RadialVelocityMPS:  p.RadialVelocityMPS,
				PropagationDelayMs: p.PropagationDelayMs,
				OffsetMODb:         p.OffsetMODb,
				CellOffsetDb:       p.CellOffsetDb,
			}
		}

		episodes = append(episodes, model.Episode{
			SatelliteID:      id,
			Constellation:    constellationBySat[id],
			OrbitalPeriodMin: orbitalPeriodMinutes[constellationBySat[id]],
			StartTime:        pts[0].Timestamp,
			EndTime:          pts[len(pts)-1].Timestamp,
			Points:           epPoints,
			Split:            splits[id],
		})
	}

	return episodes
}

// splitAssignment deterministically buckets sorted satellite IDs into
// train/validation/test by cumulative fraction, so the same input always
// produces the same split -- no RNG, no satellite ever split across
// buckets.
func splitAssignment(sortedIDs []int, trainRatio, valRatio float64) map[int]string {
	n := len(sortedIDs)
	out := make(map[int]string, n)
	denom := n
	if denom < 1 {
		denom = 1
	}
	for i, id := range sortedIDs {
		frac := float64(i) / float64(denom)
		switch {
		case frac < trainRatio:
			out[id] = "train"
		case frac < trainRatio+valRatio:
			out[id] = "validation"
		default:
			out[id] = "test"
		}
	}
	return out
}
