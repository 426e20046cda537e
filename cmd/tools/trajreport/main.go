// Command trajreport renders an HTML visualization of a pipeline's CSV dump:
// a per-object speed-over-time line chart, the way the reference monitor
// renders its debug ECharts dashboards. Flock data is not charted.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/trajflow/engine/internal/fsutil"
	"github.com/trajflow/engine/internal/security"
)

var (
	inputFlag  = flag.String("input", "", "path to a trajflow dump CSV (t,lon,lat,speed,bearing,stopped,trip,poi)")
	outputFlag = flag.String("output", "report.html", "path to write the HTML report to")
	oidFlag    = flag.Int("oid", 0, "object id label for the chart title")
)

type sample struct {
	t     int32
	speed float64
	trip  int32
	poi   int32
}

func main() {
	flag.Parse()
	if *inputFlag == "" {
		log.Fatal("-input is required")
	}
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := security.ValidateExportPath(*outputFlag); err != nil {
		return fmt.Errorf("trajreport: %w", err)
	}

	fsys := fsutil.OSFileSystem{}
	samples, err := readSamples(fsys, *inputFlag)
	if err != nil {
		return fmt.Errorf("trajreport: %w", err)
	}
	if len(samples) == 0 {
		return fmt.Errorf("trajreport: %s has no data rows", *inputFlag)
	}

	page := buildReport(samples, int32(*oidFlag))

	w, err := fsys.Create(*outputFlag)
	if err != nil {
		return fmt.Errorf("trajreport: create report %s: %w", *outputFlag, err)
	}
	defer w.Close()

	if err := page.Render(w); err != nil {
		return fmt.Errorf("trajreport: render report: %w", err)
	}
	fmt.Printf("wrote %s\n", *outputFlag)
	return nil
}

func readSamples(fsys fsutil.FileSystem, path string) ([]sample, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	var samples []sample
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		t, _ := strconv.ParseInt(row[col["t"]], 10, 32)
		speed, _ := strconv.ParseFloat(row[col["speed"]], 64)
		trip, _ := strconv.ParseInt(row[col["trip"]], 10, 32)
		poi, _ := strconv.ParseInt(row[col["poi"]], 10, 32)
		samples = append(samples, sample{t: int32(t), speed: speed, trip: int32(trip), poi: int32(poi)})
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].t < samples[j].t })
	return samples, nil
}

func buildReport(samples []sample, oid int32) *charts.Line {
	xAxis := make([]string, len(samples))
	speedSeries := make([]opts.LineData, len(samples))
	for i, s := range samples {
		xAxis[i] = strconv.Itoa(int(s.t))
		speedSeries[i] = opts.LineData{Value: s.speed}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: fmt.Sprintf("trajectory %d", oid), Theme: "dark", Width: "1000px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Object %d speed over time", oid), Subtitle: fmt.Sprintf("%d samples", len(samples))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)", Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "speed (knots)"}),
	)
	line.SetXAxis(xAxis).AddSeries("speed", speedSeries)
	return line
}
