// Package pipeline implements the pure per-record pipeline functions that
// turn one telemetry record into a delta trajectory: clean, resample, and
// compress. Each function reads the owning collection's existing state for
// the record's object but never mutates it — callers merge the returned
// delta back in via Collection.ExtendFlush.
package pipeline

import (
	"github.com/trajflow/engine/internal/geo"
	"github.com/trajflow/engine/internal/poi"
	"github.com/trajflow/engine/internal/trajectory"
)

// MaxSpeedKnots rejects any record implying faster travel as sensor noise.
const MaxSpeedKnots float32 = 50

// DistanceToPOIThresholdNMI bounds how close a stopped position must be to
// a point of interest to still be annotated with it.
const DistanceToPOIThresholdNMI float32 = 1.0

// Clean produces the cleaning pipeline's delta for rec: a seed row if oid
// is unseen, an empty delta on a duplicate timestamp or outlier speed, or a
// single annotated row otherwise.
func Clean(rec trajectory.Record, clean *trajectory.Collection, pois *poi.Set) *trajectory.Trajectory {
	existing, seen := clean.Get(rec.OID)
	if !seen {
		diagf("oid=%d clean: seed row at t=%d", rec.OID, rec.T)
		return trajectory.NewSeed(rec.OID, clean.MaxSize(), rec.Coordinate(), rec.T)
	}

	delta := trajectory.NewEmpty(rec.OID, clean.MaxSize())
	if rec.T == existing.LastTimestamp() {
		opsf("oid=%d clean: duplicate timestamp t=%d, dropped", rec.OID, rec.T)
		return delta
	}

	coord := rec.Coordinate()
	speedNow := existing.CalculateSpeedKnots(coord, rec.T)
	if speedNow > MaxSpeedKnots {
		opsf("oid=%d clean: rejected outlier speed=%.2fkn at t=%d", rec.OID, speedNow, rec.T)
		return delta
	}
	bearingNow := existing.CalculateBearingDeg(coord)

	stopped, poiID, tripID := annotate(existing, coord, speedNow, pois)
	diagf("oid=%d clean: stopped=%d poi=%d trip=%d", rec.OID, stopped, poiID, tripID)
	delta.AppendRow(coord, rec.T, speedNow, bearingNow, stopped, tripID, poiID, nil)
	return delta
}

// annotate computes the stopped/poi/trip triple every pipeline's preface
// shares: stop-speed gating, POI inheritance while stopped, and the
// stopped-to-moving trip increment.
func annotate(existing *trajectory.Trajectory, coord geo.Coordinate, speedNow float32, pois *poi.Set) (stopped int8, poiID int32, tripID int32) {
	if speedNow < trajectory.StopSpeedThresholdKnots {
		stopped = trajectory.StoppedYes
	} else {
		stopped = trajectory.StoppedNo
	}

	switch {
	case stopped == trajectory.StoppedYes && existing.LastStopped() == trajectory.StoppedYes:
		poiID = existing.LastPOI()
	case stopped == trajectory.StoppedYes && pois != nil:
		poiID = pois.Nearest(coord, DistanceToPOIThresholdNMI)
	default:
		poiID = trajectory.NoPOI
	}

	tripID = existing.LastTrip()
	if existing.LastStopped() == trajectory.StoppedYes && stopped != trajectory.StoppedYes {
		tripID++
	}
	return stopped, poiID, tripID
}
