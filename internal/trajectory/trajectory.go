// Package trajectory implements the per-object trajectory state and its
// four online algorithms (cleaning annotation, resampling, compression, and
// flock detection helpers), plus the collection that owns every object's
// trajectory and routes records through the pipelines.
package trajectory

import (
	"github.com/trajflow/engine/internal/geo"
)

// Sentinel values used on the seed row and for "no point of interest".
const (
	SeedSpeed   float32 = -1
	SeedBearing float32 = -1

	StoppedUnknown int8 = -1
	StoppedNo      int8 = 0
	StoppedYes     int8 = 1

	NoPOI int32 = -1
)

// Unbounded can be passed as maxSize to NewSeed/NewEmpty to retain every
// row for the lifetime of the object (the reference configuration).
const Unbounded = int(^uint(0) >> 1)

// Record is a single input telemetry tuple. Records for a given OID arrive
// in non-decreasing T order; the engine never sorts.
type Record struct {
	OID int32
	T   int32
	Lon float32
	Lat float32
}

// Coordinate returns the geographic coordinate carried by the record.
func (r Record) Coordinate() geo.Coordinate {
	return geo.Coordinate{X: r.Lon, Y: r.Lat}
}

// Trajectory is the column-oriented, per-object sliding history. All slices
// are kept at equal length; rows are dropped from the front (oldest first)
// on overflow or on an explicit flush.
type Trajectory struct {
	OID     int32
	MaxSize int

	Coordinates []geo.Coordinate
	Timestamps  []int32
	Speed       []float32
	Bearing     []float32
	Stopped     []int8
	Trip        []int32
	POI         []int32
	Flock       [][]int32
}

// NewEmpty returns a zero-length trajectory for oid. Pipeline functions
// build their delta onto an empty trajectory of this shape; an empty delta
// (no rows appended) means "nothing to emit for this record".
func NewEmpty(oid int32, maxSize int) *Trajectory {
	return &Trajectory{OID: oid, MaxSize: maxSize}
}

// NewSeed returns the single-row seed trajectory created the first time an
// object is observed, carrying sentinel kinematics in place of a speed or
// bearing that has no prior point to compute from.
func NewSeed(oid int32, maxSize int, coord geo.Coordinate, t int32) *Trajectory {
	tr := NewEmpty(oid, maxSize)
	tr.AppendRow(coord, t, SeedSpeed, SeedBearing, StoppedUnknown, 0, NoPOI, nil)
	return tr
}

// Len returns the number of rows currently buffered.
func (t *Trajectory) Len() int {
	return len(t.Timestamps)
}

// AppendRow appends a single row to every parallel sequence, preserving the
// equal-length invariant.
func (t *Trajectory) AppendRow(coord geo.Coordinate, ts int32, speed, bearing float32, stopped int8, trip, poiID int32, flock []int32) {
	t.Coordinates = append(t.Coordinates, coord)
	t.Timestamps = append(t.Timestamps, ts)
	t.Speed = append(t.Speed, speed)
	t.Bearing = append(t.Bearing, bearing)
	t.Stopped = append(t.Stopped, stopped)
	t.Trip = append(t.Trip, trip)
	t.POI = append(t.POI, poiID)
	t.Flock = append(t.Flock, flock)
}

// LastCoordinate returns the most recent coordinate. Callers only invoke
// this on a non-empty trajectory.
func (t *Trajectory) LastCoordinate() geo.Coordinate { return t.Coordinates[t.Len()-1] }

// LastTimestamp returns the most recent timestamp.
func (t *Trajectory) LastTimestamp() int32 { return t.Timestamps[t.Len()-1] }

// LastSpeed returns the most recent speed (knots, or SeedSpeed on the seed row).
func (t *Trajectory) LastSpeed() float32 { return t.Speed[t.Len()-1] }

// LastBearing returns the most recent bearing (degrees, or SeedBearing on the seed row).
func (t *Trajectory) LastBearing() float32 { return t.Bearing[t.Len()-1] }

// LastStopped returns the most recent stopped flag.
func (t *Trajectory) LastStopped() int8 { return t.Stopped[t.Len()-1] }

// LastTrip returns the most recent trip id.
func (t *Trajectory) LastTrip() int32 { return t.Trip[t.Len()-1] }

// LastPOI returns the most recent point-of-interest id.
func (t *Trajectory) LastPOI() int32 { return t.POI[t.Len()-1] }

// Extend appends every row of delta onto t, then drops the oldest rows if
// the combined length exceeds t.MaxSize.
func (t *Trajectory) Extend(delta *Trajectory) {
	t.Coordinates = append(t.Coordinates, delta.Coordinates...)
	t.Timestamps = append(t.Timestamps, delta.Timestamps...)
	t.Speed = append(t.Speed, delta.Speed...)
	t.Bearing = append(t.Bearing, delta.Bearing...)
	t.Stopped = append(t.Stopped, delta.Stopped...)
	t.Trip = append(t.Trip, delta.Trip...)
	t.POI = append(t.POI, delta.POI...)
	t.Flock = append(t.Flock, delta.Flock...)

	if size := t.Len(); size > t.MaxSize {
		t.DropPrefix(size - t.MaxSize)
	}
}

// DropPrefix removes the first n rows. A no-op for n <= 0; callers must not
// pass n > Len().
func (t *Trajectory) DropPrefix(n int) {
	if n <= 0 {
		return
	}
	t.Coordinates = append([]geo.Coordinate(nil), t.Coordinates[n:]...)
	t.Timestamps = append([]int32(nil), t.Timestamps[n:]...)
	t.Speed = append([]float32(nil), t.Speed[n:]...)
	t.Bearing = append([]float32(nil), t.Bearing[n:]...)
	t.Stopped = append([]int8(nil), t.Stopped[n:]...)
	t.Trip = append([]int32(nil), t.Trip[n:]...)
	t.POI = append([]int32(nil), t.POI[n:]...)
	t.Flock = append([][]int32(nil), t.Flock[n:]...)
}

// CalculateSpeedKnots returns the speed implied by moving from the last row
// to coord over (t - lastT) seconds. The caller guarantees t > lastT.
func (t *Trajectory) CalculateSpeedKnots(coord geo.Coordinate, ts int32) float32 {
	dt := ts - t.LastTimestamp()
	return geo.Haversine(t.LastCoordinate(), coord) * 3600.0 / float32(dt)
}

// CalculateBearingDeg returns the initial bearing from the last row to coord.
func (t *Trajectory) CalculateBearingDeg(coord geo.Coordinate) float32 {
	return geo.Bearing(t.LastCoordinate(), coord)
}

// ResampledPoint is one synthetic dead-reckoned sample produced by Resample.
type ResampledPoint struct {
	Coordinate geo.Coordinate
	Timestamp  int32
}

// Resample produces the synthetic samples that fill the gap between the
// last row and tNew on a uniform grid spaced rateSeconds apart, obtained by
// dead-reckoning from the last row with the supplied speed/bearing. It does
// not include the terminal point tNew itself.
func (t *Trajectory) Resample(rateSeconds, tNew int32, speedKnots, bearingDeg float32) []ResampledPoint {
	lastT := t.LastTimestamp()
	lastCoord := t.LastCoordinate()

	steps := int((tNew - lastT) / rateSeconds)
	out := make([]ResampledPoint, 0, steps)
	for i := int32(1); i <= int32(steps); i++ {
		dt := rateSeconds * i
		out = append(out, ResampledPoint{
			Coordinate: geo.Extrapolate(lastCoord, speedKnots, bearingDeg, dt),
			Timestamp:  lastT + dt,
		})
	}
	return out
}

// ExtrapolateNext dead-reckons from the last row using its own speed and
// bearing (not a freshly observed one).
func (t *Trajectory) ExtrapolateNext(dtSeconds int32) geo.Coordinate {
	return geo.Extrapolate(t.LastCoordinate(), t.LastSpeed(), t.LastBearing(), dtSeconds)
}
