// Package poi holds the set of reference coordinates (points of interest,
// e.g. ports) used to annotate stopped trajectory rows.
package poi

import "github.com/trajflow/engine/internal/geo"

// NoneID is returned by Nearest when no point of interest is within the
// threshold distance.
const NoneID int32 = -1

// Set is an unordered collection of points of interest. A point's identity
// is its index in the underlying slice, fixed at construction time.
type Set struct {
	points []geo.Coordinate
}

// NewSet builds a Set from the given coordinates. Identity (index) follows
// input order and is stable for the lifetime of the Set.
func NewSet(points []geo.Coordinate) *Set {
	cp := make([]geo.Coordinate, len(points))
	copy(cp, points)
	return &Set{points: cp}
}

// Len returns the number of points of interest in the set.
func (s *Set) Len() int {
	return len(s.points)
}

// At returns the coordinate for a given poi id. Panics if id is out of
// range; callers only ever pass ids this package produced.
func (s *Set) At(id int32) geo.Coordinate {
	return s.points[id]
}

// Nearest returns the id of the closest point of interest to coord, or
// NoneID if the closest point is farther than thresholdNMI nautical miles
// away (or the set is empty).
func (s *Set) Nearest(coord geo.Coordinate, thresholdNMI float32) int32 {
	bestID := NoneID
	var bestDist float32
	for i, p := range s.points {
		d := geo.Haversine(coord, p)
		if bestID == NoneID || d < bestDist {
			bestID = int32(i)
			bestDist = d
		}
	}
	if bestID == NoneID || bestDist >= thresholdNMI {
		return NoneID
	}
	return bestID
}
