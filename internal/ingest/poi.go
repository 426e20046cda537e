package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/trajflow/engine/internal/fsutil"
	"github.com/trajflow/engine/internal/geo"
	"github.com/trajflow/engine/internal/poi"
	"github.com/trajflow/engine/internal/security"
)

// LoadPOIs reads a CSV file with a header mappable to x (longitude) and y
// (latitude) columns and returns the resulting point-of-interest set.
func LoadPOIs(fsys fsutil.FileSystem, baseDir, path string) (*poi.Set, error) {
	if err := security.ValidatePathWithinDirectory(path, baseDir); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open poi file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("ingest: read poi header: %w", err)
	}
	columns, err := indexColumns(header, "x", "y")
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	var points []geo.Coordinate
	for {
		row, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("ingest: read poi row: %w", err)
		}

		x, err := strconv.ParseFloat(row[columns["x"]], 32)
		if err != nil {
			return nil, fmt.Errorf("ingest: malformed poi x %q: %w", row[columns["x"]], err)
		}
		y, err := strconv.ParseFloat(row[columns["y"]], 32)
		if err != nil {
			return nil, fmt.Errorf("ingest: malformed poi y %q: %w", row[columns["y"]], err)
		}
		points = append(points, geo.Coordinate{X: float32(x), Y: float32(y)})
	}

	return poi.NewSet(points), nil
}
