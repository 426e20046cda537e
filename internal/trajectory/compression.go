package trajectory

import (
	"math"

	"github.com/trajflow/engine/internal/geo"
)

// Compression thresholds and algorithm identifiers.
const (
	OPWEpsilon      float32 = 5e-4
	OPWTREpsilon    float32 = 3e-4
	UniformStride   int     = 5
	DeadRecEpsilon  float32 = 1e-4
)

// Algorithm selects which on-line compression rule the compression pipeline
// dispatches to.
type Algorithm int

const (
	OPW Algorithm = iota
	OPWTimeRatio
	Uniform
	DeadReckoning
)

// FlushIndex returns the index into t (as it stood before the current
// record was appended) at or after which the collection should retain
// rows, dropping everything before it. ok is false when no flush applies.
func (t *Trajectory) FlushIndex(algo Algorithm, candidate geo.Coordinate, ts int32, speedNow, bearingNow float32) (idx int, ok bool) {
	switch algo {
	case OPW:
		return t.opw(candidate)
	case OPWTimeRatio:
		return t.opwTimeRatio(candidate, ts)
	case Uniform:
		return t.uniform()
	case DeadReckoning:
		return t.deadReckoning(speedNow, bearingNow)
	default:
		return 0, false
	}
}

// opw implements the distance-only Open Window scan: the perpendicular
// Euclidean distance (on raw lon/lat) from each buffered middle point to
// the chord (first buffered point, candidate). Returns the first offending
// index, else none.
func (t *Trajectory) opw(candidate geo.Coordinate) (int, bool) {
	n := t.Len()
	if n < 2 {
		return 0, false
	}
	p0 := t.Coordinates[0]
	for i := 1; i < n; i++ {
		mid := t.Coordinates[i]
		if perpendicularDistance(p0, candidate, mid) > OPWEpsilon {
			return i, true
		}
	}
	return 0, false
}

// opwTimeRatio implements the Open Window scan with the time-ratio
// synchronized Euclidean distance (SED) error metric. The time ratio is
// computed with integer division, intentionally truncating toward zero
// rather than rounding.
func (t *Trajectory) opwTimeRatio(candidate geo.Coordinate, ts int32) (int, bool) {
	n := t.Len()
	if n < 2 {
		return 0, false
	}
	p0 := t.Coordinates[0]
	t0 := t.Timestamps[0]
	for i := 1; i < n; i++ {
		mid := t.Coordinates[i]
		tm := t.Timestamps[i]
		if sed(p0, t0, mid, tm, candidate, ts) > OPWTREpsilon {
			return i, true
		}
	}
	return 0, false
}

// sed computes the synchronized Euclidean distance from mid to the
// time-parameterized interpolant between (start, t0) and (end, te).
func sed(start geo.Coordinate, t0 int32, mid geo.Coordinate, tm int32, end geo.Coordinate, te int32) float32 {
	numerator := tm - t0
	denominator := te - t0

	var ratio int32
	if denominator != 0 {
		ratio = numerator / denominator // integer division, truncates toward zero
	} else {
		ratio = 1
	}

	x := start.X + (end.X-start.X)*float32(ratio)
	y := start.Y + (end.Y-start.Y)*float32(ratio)

	dx := float64(x - mid.X)
	dy := float64(y - mid.Y)
	return float32(math.Sqrt(dx*dx + dy*dy))
}

// perpendicularDistance returns the Euclidean distance from point m to the
// infinite line through a and b. Falls back to point distance when a == b.
func perpendicularDistance(a, b, m geo.Coordinate) float32 {
	if a.X == b.X && a.Y == b.Y {
		dx := float64(m.X - a.X)
		dy := float64(m.Y - a.Y)
		return float32(math.Sqrt(dx*dx + dy*dy))
	}
	num := math.Abs(float64(b.Y-a.Y)*float64(m.X) - float64(b.X-a.X)*float64(m.Y) + float64(b.X)*float64(a.Y) - float64(b.Y)*float64(a.X))
	den := math.Sqrt(math.Pow(float64(b.Y-a.Y), 2) + math.Pow(float64(b.X-a.X), 2))
	return float32(num / den)
}

// deadReckoning flushes everything but the last buffered row when the
// freshly observed speed or bearing diverges from the last row's by more
// than DeadRecEpsilon.
func (t *Trajectory) deadReckoning(speedNow, bearingNow float32) (int, bool) {
	n := t.Len()
	if n == 0 {
		return 0, false
	}
	speedDelta := float32(math.Abs(float64(speedNow - t.LastSpeed())))
	bearingDelta := float32(math.Abs(float64(bearingNow - t.LastBearing())))
	if speedDelta > DeadRecEpsilon || bearingDelta > DeadRecEpsilon {
		return n - 1, true
	}
	return 0, false
}

// uniform flushes at the last buffered index every UniformStride ingested
// points, keyed off the trajectory's own length.
func (t *Trajectory) uniform() (int, bool) {
	n := t.Len()
	if n > 0 && n%UniformStride == 0 {
		return n - 1, true
	}
	return 0, false
}
