package geo

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestHaversineSymmetricAndZero(t *testing.T) {
	a := Coordinate{X: -4.5, Y: 48.38}
	b := Coordinate{X: -4.4, Y: 48.40}

	if Haversine(a, a) != 0 {
		t.Fatalf("haversine(a, a) = %v, want 0", Haversine(a, a))
	}
	ab := Haversine(a, b)
	ba := Haversine(b, a)
	if ab != ba {
		t.Fatalf("haversine not symmetric: %v vs %v", ab, ba)
	}
	if ab <= 0 {
		t.Fatalf("expected positive distance, got %v", ab)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Brest (-4.4861, 48.3904) to Ouessant (-5.0960, 48.4587), roughly 24.6 nmi.
	brest := Coordinate{X: -4.4861, Y: 48.3904}
	ouessant := Coordinate{X: -5.0960, Y: 48.4587}
	d := Haversine(brest, ouessant)
	if !almostEqual(float64(d), 24.64, 0.5) {
		t.Fatalf("haversine(Brest, Ouessant) = %v nmi, want ~24.64", d)
	}
}

func TestExtrapolateZeroSpeedIsIdentity(t *testing.T) {
	a := Coordinate{X: 10.0, Y: 20.0}
	for _, brg := range []float32{0, 45, 90, 180, -90, 359} {
		for _, dt := range []int32{0, 1, 600, 3600} {
			got := Extrapolate(a, 0, brg, dt)
			if !almostEqual(float64(got.X), float64(a.X), 1e-5) || !almostEqual(float64(got.Y), float64(a.Y), 1e-5) {
				t.Fatalf("extrapolate(a, 0, %v, %v) = %v, want %v", brg, dt, got, a)
			}
		}
	}
}

func TestExtrapolateNorthIncreasesLatitude(t *testing.T) {
	a := Coordinate{X: 0, Y: 0}
	got := Extrapolate(a, 10, 0, 3600)
	if got.Y <= a.Y {
		t.Fatalf("expected northward extrapolation to increase latitude, got %v", got.Y)
	}
}

func TestBearingRange(t *testing.T) {
	a := Coordinate{X: 0, Y: 10}
	b := Coordinate{X: 5, Y: -5}
	brg := Bearing(a, b)
	if brg < -180 || brg > 180 {
		t.Fatalf("bearing out of range: %v", brg)
	}
}

func TestProjectRoundTrip(t *testing.T) {
	original := Coordinate{X: -4.4861, Y: 48.3904}
	planar, err := Project(CRSGeographic, CRSPlanar, original)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := Project(CRSPlanar, CRSGeographic, planar)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(float64(back.X), float64(original.X), 1e-3) || !almostEqual(float64(back.Y), float64(original.Y), 1e-3) {
		t.Fatalf("round trip mismatch: got %v, want %v", back, original)
	}
}

func TestProjectUnsupportedCRS(t *testing.T) {
	_, err := Project("EPSG:2154", CRSGeographic, Coordinate{})
	if err == nil {
		t.Fatal("expected error for unsupported CRS pair")
	}
}

func TestProjectSameCRSIsIdentity(t *testing.T) {
	c := Coordinate{X: 1, Y: 2}
	got, err := Project(CRSGeographic, CRSGeographic, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != c {
		t.Fatalf("expected identity, got %v", got)
	}
}
