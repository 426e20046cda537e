package trajectory

import (
	"math"

	"github.com/trajflow/engine/internal/geo"
)

// Flock detection thresholds.
const (
	FlocksDistanceThresholdNMI float32 = 0.3
	FlocksMaxDtSeconds         int32   = 1800
	FlocksMaxBearingDeg        float32 = 20
	StopSpeedThresholdKnots    float32 = 0.5
)

// Collection maps object id to its owned Trajectory. It is mutated
// exclusively by a single logical executor (the driver, or the serialized
// record loop behind a network transport); it carries no internal locking
// of its own.
type Collection struct {
	objects map[int32]*Trajectory
	maxSize int
}

// NewCollection returns an empty collection whose trajectories are each
// capped at maxSize rows.
func NewCollection(maxSize int) *Collection {
	return &Collection{objects: make(map[int32]*Trajectory), maxSize: maxSize}
}

// Get returns the trajectory owned for oid, if any.
func (c *Collection) Get(oid int32) (*Trajectory, bool) {
	tr, ok := c.objects[oid]
	return tr, ok
}

// Len returns the number of distinct objects tracked.
func (c *Collection) Len() int {
	return len(c.objects)
}

// Range calls fn for every tracked object. Iteration order is unspecified.
func (c *Collection) Range(fn func(oid int32, tr *Trajectory)) {
	for oid, tr := range c.objects {
		fn(oid, tr)
	}
}

// MaxSize returns the per-trajectory row cap new trajectories are created
// with.
func (c *Collection) MaxSize() int {
	return c.maxSize
}

// ExtendFlush merges a pipeline's delta trajectory into the collection.
// If the owning object is unseen, delta becomes its trajectory outright
// (this is the seed-row case). Otherwise delta's rows are appended to the
// existing trajectory and, if hasFlush, the first flushIdx rows of the
// pre-extension trajectory are dropped — extension always happens before
// the drop, so flushIdx refers to the pre-extension buffer.
func (c *Collection) ExtendFlush(delta *Trajectory, flushIdx int, hasFlush bool) {
	if delta.Len() == 0 {
		return
	}
	existing, ok := c.objects[delta.OID]
	if !ok {
		delta.MaxSize = c.maxSize
		c.objects[delta.OID] = delta
		return
	}
	existing.Extend(delta)
	if hasFlush {
		existing.DropPrefix(flushIdx)
	}
}

// Flocks returns the ids of every other tracked object currently co-moving
// with selfOID at time t. Stationary movers never flock.
func (c *Collection) Flocks(coord geo.Coordinate, speedKnots, bearingDeg float32, t int32, selfOID int32) []int32 {
	if speedKnots <= StopSpeedThresholdKnots {
		return nil
	}

	var flocked []int32
	for oid, tr := range c.objects {
		if oid == selfOID || tr.Len() == 0 {
			continue
		}
		if tr.LastStopped() == StoppedYes {
			continue
		}

		dt := t - tr.LastTimestamp()
		db := float32(math.Abs(float64(bearingDeg - tr.LastBearing())))
		if dt > FlocksMaxDtSeconds || db > FlocksMaxBearingDeg {
			continue
		}

		estimate := tr.ExtrapolateNext(dt)
		if geo.Haversine(coord, estimate) < FlocksDistanceThresholdNMI {
			flocked = append(flocked, oid)
		}
	}
	return flocked
}
