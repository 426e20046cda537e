package pipeline

import (
	"github.com/trajflow/engine/internal/poi"
	"github.com/trajflow/engine/internal/trajectory"
)

// RateSeconds is the spacing of the uniform temporal grid resampling fills.
const RateSeconds int32 = 10

// Resample produces the resampling pipeline's delta for rec: a seed row if
// oid is unseen, an empty delta when the record arrives before a full
// rate interval has elapsed or its implied speed is an outlier, or one row
// per synthetic grid point otherwise — each annotated and flock-checked
// against resampled as it stood before this record.
func Resample(rec trajectory.Record, resampled *trajectory.Collection, pois *poi.Set) *trajectory.Trajectory {
	existing, seen := resampled.Get(rec.OID)
	if !seen {
		diagf("oid=%d resample: seed row at t=%d", rec.OID, rec.T)
		return trajectory.NewSeed(rec.OID, resampled.MaxSize(), rec.Coordinate(), rec.T)
	}

	delta := trajectory.NewEmpty(rec.OID, resampled.MaxSize())
	lastT := existing.LastTimestamp()
	if rec.T == lastT || rec.T-lastT < RateSeconds {
		return delta
	}

	coord := rec.Coordinate()
	speedNow := existing.CalculateSpeedKnots(coord, rec.T)
	if speedNow > MaxSpeedKnots {
		opsf("oid=%d resample: rejected outlier speed=%.2fkn at t=%d", rec.OID, speedNow, rec.T)
		return delta
	}
	bearingNow := existing.CalculateBearingDeg(coord)

	points := existing.Resample(RateSeconds, rec.T, speedNow, bearingNow)
	stopped, poiID, tripID := annotate(existing, coord, speedNow, pois)
	for _, p := range points {
		flock := resampled.Flocks(p.Coordinate, speedNow, bearingNow, p.Timestamp, rec.OID)
		tracef("oid=%d resample: synthetic point t=%d flock=%v", rec.OID, p.Timestamp, flock)
		delta.AppendRow(p.Coordinate, p.Timestamp, speedNow, bearingNow, stopped, tripID, poiID, flock)
	}
	return delta
}
