// Package ingest supplies the external collaborators the core engine treats
// as opaque: a CSV record iterator and a point-of-interest file loader. The
// engine itself only ever consumes the resulting trajectory.Record values
// and poi.Set; it never touches a filesystem path.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/trajflow/engine/internal/fsutil"
	"github.com/trajflow/engine/internal/security"
	"github.com/trajflow/engine/internal/trajectory"
)

// RecordSource iterates trajectory.Record values read from a CSV file with
// header `oid,t,lon,lat`. A malformed row aborts iteration with an error,
// matching the engine's strict input-malformed error kind.
type RecordSource struct {
	r       *csv.Reader
	closer  io.Closer
	columns map[string]int
}

// OpenRecordSource opens path via fs (rooted at baseDir, which
// ValidatePathWithinDirectory must accept) and returns a RecordSource ready
// to iterate. The caller must Close it.
func OpenRecordSource(fsys fsutil.FileSystem, baseDir, path string) (*RecordSource, error) {
	if err := security.ValidatePathWithinDirectory(path, baseDir); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open record source %s: %w", path, err)
	}

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ingest: read record source header: %w", err)
	}

	columns, err := indexColumns(header, "oid", "t", "lon", "lat")
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ingest: %w", err)
	}

	return &RecordSource{r: r, closer: f, columns: columns}, nil
}

// Close releases the underlying file.
func (s *RecordSource) Close() error {
	return s.closer.Close()
}

// Next returns the next record, or io.EOF once the source is exhausted.
func (s *RecordSource) Next() (trajectory.Record, error) {
	row, err := s.r.Read()
	if err != nil {
		return trajectory.Record{}, err
	}

	oid, err := strconv.ParseInt(row[s.columns["oid"]], 10, 32)
	if err != nil {
		return trajectory.Record{}, fmt.Errorf("ingest: malformed oid %q: %w", row[s.columns["oid"]], err)
	}
	t, err := strconv.ParseInt(row[s.columns["t"]], 10, 32)
	if err != nil {
		return trajectory.Record{}, fmt.Errorf("ingest: malformed t %q: %w", row[s.columns["t"]], err)
	}
	lon, err := strconv.ParseFloat(row[s.columns["lon"]], 32)
	if err != nil {
		return trajectory.Record{}, fmt.Errorf("ingest: malformed lon %q: %w", row[s.columns["lon"]], err)
	}
	lat, err := strconv.ParseFloat(row[s.columns["lat"]], 32)
	if err != nil {
		return trajectory.Record{}, fmt.Errorf("ingest: malformed lat %q: %w", row[s.columns["lat"]], err)
	}

	return trajectory.Record{OID: int32(oid), T: int32(t), Lon: float32(lon), Lat: float32(lat)}, nil
}

// indexColumns maps each wanted header name to its column index, erroring
// if any is missing.
func indexColumns(header []string, wanted ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	out := make(map[string]int, len(wanted))
	for _, w := range wanted {
		i, ok := idx[w]
		if !ok {
			return nil, fmt.Errorf("missing required column %q", w)
		}
		out[w] = i
	}
	return out, nil
}
