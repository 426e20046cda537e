package trajectory

import "gonum.org/v1/gonum/stat"

// Metrics summarizes the kinematic quality of a single trajectory: speed
// distribution and trip segmentation.
type Metrics struct {
	OID           int32
	Samples       int
	MeanSpeedKts  float64
	StdDevSpeed   float64
	MaxSpeedKts   float64
	DistinctTrips int
}

// ComputeMetrics summarizes t's non-seed speed samples using gonum/stat.
// Returns a zero-sample Metrics if t has fewer than two rows.
func ComputeMetrics(t *Trajectory) Metrics {
	m := Metrics{OID: t.OID}
	if t.Len() < 2 {
		return m
	}

	speeds := make([]float64, 0, t.Len()-1)
	for _, s := range t.Speed {
		if s < 0 {
			continue // seed sentinel
		}
		speeds = append(speeds, float64(s))
	}
	if len(speeds) == 0 {
		return m
	}

	m.Samples = len(speeds)
	m.MeanSpeedKts = stat.Mean(speeds, nil)
	if len(speeds) > 1 {
		m.StdDevSpeed = stat.StdDev(speeds, nil)
	}
	for _, s := range speeds {
		if s > m.MaxSpeedKts {
			m.MaxSpeedKts = s
		}
	}

	lastTrip := int32(-1)
	for _, trip := range t.Trip {
		if trip != lastTrip {
			m.DistinctTrips++
			lastTrip = trip
		}
	}
	return m
}
