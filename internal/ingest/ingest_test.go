package ingest

import (
	"io"
	"testing"

	"github.com/trajflow/engine/internal/fsutil"
	"github.com/trajflow/engine/internal/geo"
	"github.com/trajflow/engine/internal/trajectory"
)

func TestRecordSourceIteratesRows(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("records.csv", []byte("oid,t,lon,lat\n1,0,0,0\n1,10,0.01,0.01\n"), 0644)

	src, err := OpenRecordSource(fsys, ".", "records.csv")
	if err != nil {
		t.Fatalf("OpenRecordSource() error: %v", err)
	}
	defer src.Close()

	first, err := src.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if first.OID != 1 || first.T != 0 {
		t.Fatalf("first record = %+v, want oid=1 t=0", first)
	}

	second, err := src.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if second.T != 10 {
		t.Fatalf("second record t = %d, want 10", second.T)
	}

	if _, err := src.Next(); err != io.EOF {
		t.Fatalf("Next() after last row = %v, want io.EOF", err)
	}
}

func TestOpenRecordSourceRejectsMissingColumn(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("bad.csv", []byte("oid,t,lon\n1,0,0\n"), 0644)

	if _, err := OpenRecordSource(fsys, ".", "bad.csv"); err == nil {
		t.Fatalf("expected an error for a record source missing the lat column")
	}
}

func TestLoadPOIsParsesXY(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("pois.csv", []byte("name,x,y\nport,1.5,2.5\n"), 0644)

	set, err := LoadPOIs(fsys, ".", "pois.csv")
	if err != nil {
		t.Fatalf("LoadPOIs() error: %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", set.Len())
	}
	if set.At(0).X != 1.5 || set.At(0).Y != 2.5 {
		t.Fatalf("At(0) = %+v, want {1.5 2.5}", set.At(0))
	}
}

func TestWriteRowsDumpsEveryRow(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	tr := trajectory.NewSeed(1, trajectory.Unbounded, geo.Coordinate{X: 0, Y: 0}, 0)
	tr.AppendRow(geo.Coordinate{X: 1, Y: 1}, 10, 5, 45, trajectory.StoppedNo, 0, trajectory.NoPOI, nil)

	if err := WriteRows(fsys, ".", "out.csv", tr); err != nil {
		t.Fatalf("WriteRows() error: %v", err)
	}

	data, err := fsys.ReadFile("out.csv")
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty dump output")
	}
}
