package predict

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LinearModel is a reference forward model exercised by this package's
// tests; cmd/trajflow does not use it. It flattens
// the 10x4 feature tensor to a 40-length row vector and applies a learned
// affine map down to the two normalized displacement outputs.
type LinearModel struct {
	// Weights is a 40x2 matrix; Bias has length 2.
	Weights *mat.Dense
	Bias    []float64
}

// NewLinearModel constructs a LinearModel from a 40x2 weight matrix and a
// 2-element bias.
func NewLinearModel(weights *mat.Dense, bias []float64) (*LinearModel, error) {
	r, c := weights.Dims()
	if r != FeatureRows*FeatureCols || c != 2 {
		return nil, fmt.Errorf("predict: LinearModel weights must be %dx2, got %dx%d", FeatureRows*FeatureCols, r, c)
	}
	if len(bias) != 2 {
		return nil, fmt.Errorf("predict: LinearModel bias must have length 2, got %d", len(bias))
	}
	return &LinearModel{Weights: weights, Bias: bias}, nil
}

// Forward implements Model by flattening features row-major and applying
// the affine map. aux is accepted to satisfy the Model interface but
// unused by this linear model.
func (m *LinearModel) Forward(features *mat.Dense, _ []float64) (float64, float64, error) {
	r, c := features.Dims()
	if r != FeatureRows || c != FeatureCols {
		return 0, 0, fmt.Errorf("predict: expected %dx%d features, got %dx%d", FeatureRows, FeatureCols, r, c)
	}

	flat := mat.NewDense(1, FeatureRows*FeatureCols, nil)
	for i := 0; i < FeatureRows; i++ {
		for j := 0; j < FeatureCols; j++ {
			flat.Set(0, i*FeatureCols+j, features.At(i, j))
		}
	}

	var out mat.Dense
	out.Mul(flat, m.Weights)
	return out.At(0, 0) + m.Bias[0], out.At(0, 1) + m.Bias[1], nil
}
