package predict

import (
	"errors"
	"testing"

	"github.com/trajflow/engine/internal/geo"
	"github.com/trajflow/engine/internal/trajectory"
	"gonum.org/v1/gonum/mat"
)

type recordingModel struct {
	features *mat.Dense
}

func (m *recordingModel) Forward(features *mat.Dense, _ []float64) (float64, float64, error) {
	m.features = mat.DenseCopyOf(features)
	return 0, 0, nil // zero displacement: predicted point equals the last planar point
}

func seedTrajectory(n int) *trajectory.Trajectory {
	tr := trajectory.NewSeed(1, trajectory.Unbounded, geo.Coordinate{X: 0, Y: 0}, 0)
	for i := 1; i < n; i++ {
		tr.AppendRow(geo.Coordinate{X: float32(i) * 0.001, Y: 0}, int32(i*100), 1, 0, trajectory.StoppedNo, 0, trajectory.NoPOI, nil)
	}
	return tr
}

func TestPredictReturnsErrorWithTooFewPoints(t *testing.T) {
	coll := trajectory.NewCollection(trajectory.Unbounded)
	tr := seedTrajectory(WindowSize - 1)
	coll.ExtendFlush(tr, 0, false)

	if _, err := Predict(1, coll, &recordingModel{}); !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("Predict() err = %v, want ErrInsufficientHistory", err)
	}
}

func TestPredictSucceedsWithExactWindow(t *testing.T) {
	coll := trajectory.NewCollection(trajectory.Unbounded)
	tr := seedTrajectory(WindowSize)
	coll.ExtendFlush(tr, 0, false)

	model := &recordingModel{}
	if _, err := Predict(1, coll, model); err != nil {
		t.Fatalf("Predict() unexpected error: %v", err)
	}

	r, c := model.features.Dims()
	if r != FeatureRows || c != FeatureCols {
		t.Fatalf("feature tensor shape = %dx%d, want %dx%d", r, c, FeatureRows, FeatureCols)
	}
}

func TestBuildFeaturesIndexing(t *testing.T) {
	// 13 points, evenly spaced by 100s and 1 unit apart on X, at Y=0.
	planar := make([]geo.Coordinate, WindowSize)
	timestamps := make([]int32, WindowSize)
	for i := 0; i < WindowSize; i++ {
		planar[i] = geo.Coordinate{X: float32(i), Y: 0}
		timestamps[i] = int32(i * 100)
	}

	features := BuildFeatures(planar, timestamps)

	wantDt := 100.0 / dtNormSeconds
	wantDx := (1.0 - xNormMean) / xNormScale
	wantDy := (0.0 - yNormMean) / yNormScale

	for i := 0; i < FeatureRows; i++ {
		if got := features.At(i, 0); got != wantDt {
			t.Fatalf("row %d Δt_(i+1) = %v, want %v", i, got, wantDt)
		}
		if got := features.At(i, 1); got != wantDt {
			t.Fatalf("row %d Δt_(i+2) = %v, want %v", i, got, wantDt)
		}
		if got := features.At(i, 2); got != wantDx {
			t.Fatalf("row %d dx = %v, want %v", i, got, wantDx)
		}
		if got := features.At(i, 3); got != wantDy {
			t.Fatalf("row %d dy = %v, want %v", i, got, wantDy)
		}
	}
}

func TestLinearModelRejectsWrongShape(t *testing.T) {
	weights := mat.NewDense(FeatureRows*FeatureCols, 2, nil)
	model, err := NewLinearModel(weights, []float64{0, 0})
	if err != nil {
		t.Fatalf("NewLinearModel() unexpected error: %v", err)
	}

	bad := mat.NewDense(2, 2, nil)
	if _, _, err := model.Forward(bad, nil); err == nil {
		t.Fatalf("Forward() with wrong feature shape should error")
	}
}

func TestLinearModelForwardAppliesWeightsAndBias(t *testing.T) {
	weights := mat.NewDense(FeatureRows*FeatureCols, 2, nil)
	weights.Set(0, 0, 1) // first feature entry maps entirely to output 0
	model, err := NewLinearModel(weights, []float64{0.5, -0.5})
	if err != nil {
		t.Fatalf("NewLinearModel() unexpected error: %v", err)
	}

	features := mat.NewDense(FeatureRows, FeatureCols, nil)
	features.Set(0, 0, 2)

	dx, dy, err := model.Forward(features, nil)
	if err != nil {
		t.Fatalf("Forward() unexpected error: %v", err)
	}
	if dx != 2.5 {
		t.Fatalf("dx = %v, want 2.5", dx)
	}
	if dy != -0.5 {
		t.Fatalf("dy = %v, want -0.5", dy)
	}
}
