package poi

import (
	"testing"

	"github.com/trajflow/engine/internal/geo"
)

func TestNearestWithinThreshold(t *testing.T) {
	set := NewSet([]geo.Coordinate{
		{X: -4.495, Y: 48.380}, // port A
		{X: 23.60, Y: 37.94},   // port B (far away)
	})

	id := set.Nearest(geo.Coordinate{X: -4.495, Y: 48.381}, 1.0)
	if id != 0 {
		t.Fatalf("Nearest = %d, want 0", id)
	}
}

func TestNearestOutsideThreshold(t *testing.T) {
	set := NewSet([]geo.Coordinate{{X: -4.495, Y: 48.380}})
	id := set.Nearest(geo.Coordinate{X: 0, Y: 0}, 1.0)
	if id != NoneID {
		t.Fatalf("Nearest = %d, want NoneID", id)
	}
}

func TestNearestEmptySet(t *testing.T) {
	set := NewSet(nil)
	if got := set.Nearest(geo.Coordinate{}, 1.0); got != NoneID {
		t.Fatalf("Nearest on empty set = %d, want NoneID", got)
	}
}

func TestAtReturnsStableIdentity(t *testing.T) {
	pts := []geo.Coordinate{{X: 1, Y: 1}, {X: 2, Y: 2}}
	set := NewSet(pts)
	if set.At(1) != (geo.Coordinate{X: 2, Y: 2}) {
		t.Fatalf("At(1) returned unexpected coordinate")
	}
	if set.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", set.Len())
	}
}
