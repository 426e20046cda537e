package pipeline

import (
	"github.com/trajflow/engine/internal/poi"
	"github.com/trajflow/engine/internal/trajectory"
)

// Compress produces the compression pipeline's delta and flush index for
// rec: a seed row if oid is unseen, an empty delta (no flush) on a
// duplicate timestamp or outlier speed, or a single annotated row plus
// whatever flush algo dictates otherwise.
func Compress(rec trajectory.Record, algo trajectory.Algorithm, compressed *trajectory.Collection, pois *poi.Set) (delta *trajectory.Trajectory, flushIdx int, hasFlush bool) {
	existing, seen := compressed.Get(rec.OID)
	if !seen {
		diagf("oid=%d compress: seed row at t=%d", rec.OID, rec.T)
		return trajectory.NewSeed(rec.OID, compressed.MaxSize(), rec.Coordinate(), rec.T), 0, false
	}

	delta = trajectory.NewEmpty(rec.OID, compressed.MaxSize())
	if rec.T == existing.LastTimestamp() {
		opsf("oid=%d compress: duplicate timestamp t=%d, dropped", rec.OID, rec.T)
		return delta, 0, false
	}

	coord := rec.Coordinate()
	speedNow := existing.CalculateSpeedKnots(coord, rec.T)
	if speedNow > MaxSpeedKnots {
		opsf("oid=%d compress: rejected outlier speed=%.2fkn at t=%d", rec.OID, speedNow, rec.T)
		return delta, 0, false
	}
	bearingNow := existing.CalculateBearingDeg(coord)

	idx, ok := existing.FlushIndex(algo, coord, rec.T, speedNow, bearingNow)
	if ok {
		diagf("oid=%d compress: flush at index %d (algo=%d)", rec.OID, idx, algo)
	}

	stopped, poiID, tripID := annotate(existing, coord, speedNow, pois)
	delta.AppendRow(coord, rec.T, speedNow, bearingNow, stopped, tripID, poiID, nil)
	return delta, idx, ok
}
