// Package predict assembles the fixed-shape feature tensor a short-horizon
// forward model consumes from a trajectory's recent history, and
// denormalizes the model's output into a predicted geographic coordinate.
package predict

import (
	"errors"
	"fmt"

	"github.com/trajflow/engine/internal/geo"
	"github.com/trajflow/engine/internal/trajectory"
	"gonum.org/v1/gonum/mat"
)

// WindowSize is the number of trailing trajectory points a prediction
// consumes. FeatureRows/FeatureCols describe the resulting tensor shape.
const (
	WindowSize  = 13
	FeatureRows = 10
	FeatureCols = 4

	dtNormSeconds = 1800.0
	xNormMean     = 0.604
	xNormScale    = 245.366
	yNormMean     = 1.619
	yNormScale    = 232.757
)

// ErrInsufficientHistory is returned when a trajectory has fewer than
// WindowSize buffered points.
var ErrInsufficientHistory = errors.New("predict: fewer than 13 points of history")

// Model is the opaque forward function a trained model exposes: given the
// [1x10x4] feature tensor and a [1] auxiliary tensor, it returns the
// normalized planar displacement (δx̂, δŷ).
type Model interface {
	Forward(features *mat.Dense, aux []float64) (dxHat, dyHat float64, err error)
}

// Predict fetches oid's trajectory from clean, builds its feature tensor,
// invokes model, and reprojects the denormalized result back to a
// geographic coordinate. Returns ErrInsufficientHistory when the
// trajectory has fewer than WindowSize points; a CRS projection failure
// aborts only this prediction, wrapped in the returned error.
func Predict(oid int32, clean *trajectory.Collection, model Model) (geo.Coordinate, error) {
	tr, ok := clean.Get(oid)
	if !ok || tr.Len() < WindowSize {
		return geo.Coordinate{}, ErrInsufficientHistory
	}

	n := tr.Len()
	coords := tr.Coordinates[n-WindowSize:]
	timestamps := tr.Timestamps[n-WindowSize:]

	planar := make([]geo.Coordinate, WindowSize)
	for i, c := range coords {
		p, err := geo.Project(geo.CRSGeographic, geo.CRSPlanar, c)
		if err != nil {
			return geo.Coordinate{}, fmt.Errorf("predict: project point %d: %w", i, err)
		}
		planar[i] = p
	}

	features := BuildFeatures(planar, timestamps)

	dxHat, dyHat, err := model.Forward(features, []float64{1})
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("predict: model forward: %w", err)
	}

	deltaX := dxHat*xNormScale + xNormMean
	deltaY := dyHat*yNormScale + yNormMean

	last := planar[WindowSize-1]
	predictedPlanar := geo.Coordinate{
		X: last.X + float32(deltaX),
		Y: last.Y + float32(deltaY),
	}
	predicted, err := geo.Project(geo.CRSPlanar, geo.CRSGeographic, predictedPlanar)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("predict: reproject result: %w", err)
	}
	return predicted, nil
}

// BuildFeatures assembles the 10x4 feature tensor from exactly WindowSize
// planar coordinates and timestamps. Row i holds
// [Δt_(i+1), Δt_(i+2), (X_(i+3)-X_(i+2)-xNormMean)/xNormScale, (Y_(i+3)-Y_(i+2)-yNormMean)/yNormScale]
// where Δt_k = (t_(k+1) - t_k) / 1800.
func BuildFeatures(planar []geo.Coordinate, timestamps []int32) *mat.Dense {
	features := mat.NewDense(FeatureRows, FeatureCols, nil)
	for i := 0; i < FeatureRows; i++ {
		dt1 := float64(timestamps[i+2]-timestamps[i+1]) / dtNormSeconds
		dt2 := float64(timestamps[i+3]-timestamps[i+2]) / dtNormSeconds
		dx := (float64(planar[i+3].X) - float64(planar[i+2].X) - xNormMean) / xNormScale
		dy := (float64(planar[i+3].Y) - float64(planar[i+2].Y) - yNormMean) / yNormScale
		features.SetRow(i, []float64{dt1, dt2, dx, dy})
	}
	return features
}
