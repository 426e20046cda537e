package ingest

import (
	"encoding/csv"
	"fmt"

	"github.com/trajflow/engine/internal/fsutil"
	"github.com/trajflow/engine/internal/security"
	"github.com/trajflow/engine/internal/trajectory"
)

// WriteRows dumps tr's rows as CSV to path (which must validate within
// baseDir), one row per buffered sample. This is a reporting convenience
// used by cmd/trajflow's -dump-dir output (which cmd/tools/trajreport
// reads) and by tests, not part of the engine's core contract.
func WriteRows(fsys fsutil.FileSystem, baseDir, path string, tr *trajectory.Trajectory) error {
	if err := security.ValidatePathWithinDirectory(path, baseDir); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	w, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("ingest: create dump file %s: %w", path, err)
	}
	defer w.Close()

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"t", "lon", "lat", "speed", "bearing", "stopped", "trip", "poi"}); err != nil {
		return fmt.Errorf("ingest: write dump header: %w", err)
	}

	for i := 0; i < tr.Len(); i++ {
		row := []string{
			fmt.Sprintf("%d", tr.Timestamps[i]),
			fmt.Sprintf("%g", tr.Coordinates[i].X),
			fmt.Sprintf("%g", tr.Coordinates[i].Y),
			fmt.Sprintf("%g", tr.Speed[i]),
			fmt.Sprintf("%g", tr.Bearing[i]),
			fmt.Sprintf("%d", tr.Stopped[i]),
			fmt.Sprintf("%d", tr.Trip[i]),
			fmt.Sprintf("%d", tr.POI[i]),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("ingest: write dump row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
