package pipeline

import (
	"github.com/trajflow/engine/internal/geo"
	"github.com/trajflow/engine/internal/predict"
	"github.com/trajflow/engine/internal/trajectory"
)

// Predict runs the prediction pipeline for oid against clean's trajectory.
// Returns predict.ErrInsufficientHistory when fewer than predict.WindowSize
// points are buffered; any other error aborts only this prediction.
func Predict(oid int32, clean *trajectory.Collection, model predict.Model) (geo.Coordinate, error) {
	coord, err := predict.Predict(oid, clean, model)
	if err != nil {
		diagf("oid=%d predict: %v", oid, err)
		return geo.Coordinate{}, err
	}
	tracef("oid=%d predict: %+v", oid, coord)
	return coord, nil
}
