// Command trajflow runs the streaming trajectory engine over a CSV feed of
// telemetry records, driving the clean, resample, compress, and predict
// pipelines in order for every record and reporting per-stage metrics.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gonum.org/v1/gonum/mat"

	"github.com/trajflow/engine/internal/engineconfig"
	"github.com/trajflow/engine/internal/enginemetrics"
	"github.com/trajflow/engine/internal/fsutil"
	"github.com/trajflow/engine/internal/httputil"
	"github.com/trajflow/engine/internal/ingest"
	"github.com/trajflow/engine/internal/monitoring"
	"github.com/trajflow/engine/internal/pipeline"
	"github.com/trajflow/engine/internal/poi"
	"github.com/trajflow/engine/internal/predict"
	"github.com/trajflow/engine/internal/timeutil"
	"github.com/trajflow/engine/internal/trajectory"
	"github.com/trajflow/engine/internal/units"
	"github.com/trajflow/engine/internal/version"
)

var (
	algorithmFlag  = flag.String("algorithm", "uniform", "compression algorithm: opw, opw_tr, uniform, dead_reckoning")
	recordsFlag    = flag.String("records", "", "path to the input CSV of telemetry records (required)")
	poisFlag       = flag.String("pois", "", "path to a CSV of points of interest (optional)")
	dumpDirFlag    = flag.String("dump-dir", "", "directory to write per-pipeline CSV dumps into (optional)")
	maxSizeFlag    = flag.Int("max-trajectory-size", 0, "per-object row cap; 0 means unbounded")
	metricsAddr    = flag.String("metrics-listen", ":9090", "address to serve Prometheus /metrics and /healthz on")
	speedUnitsFlag = flag.String("speed-units", units.KNOTS, "display units for the end-of-run speed report: mps, mph, kmph, kph, knots")
	opsLogPath     = flag.String("ops-log", "", "path to the operational log (defaults to stdout)")
	diagLogPath    = flag.String("diag-log", "", "path to the diagnostic log (optional)")
	traceLogPath   = flag.String("trace-log", "", "path to the trace log (optional)")
	versionFlag    = flag.Bool("version", false, "print version information and exit")
	webhookFlag    = flag.String("webhook-url", "", "URL to POST a JSON run summary to on completion (optional)")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("trajflow v%s (git SHA: %s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return 0
	}

	logFiles, err := configureLogging()
	if err != nil {
		log.Printf("warning: %v", err)
	}
	defer closeAll(logFiles)

	if !units.IsValid(*speedUnitsFlag) {
		log.Printf("invalid -speed-units %q, valid options: %s", *speedUnitsFlag, units.GetValidUnitsString())
		return 1
	}

	cfg := &engineconfig.Config{
		CompressionAlgorithm: engineconfig.CompressionAlgorithm(*algorithmFlag),
		RecordsPath:          *recordsFlag,
		POIsPath:             *poisFlag,
		MaxTrajectorySize:    *maxSizeFlag,
		MetricsAddr:          *metricsAddr,
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("invalid configuration: %v", err)
		return 1
	}
	algo, err := cfg.CompressionAlgorithm.Resolve()
	if err != nil {
		log.Printf("%v", err)
		return 1
	}

	runID := uuid.NewString()
	monitoring.Logf("trajflow run %s starting: algorithm=%s records=%s", runID, cfg.CompressionAlgorithm, cfg.RecordsPath)

	registry := prometheus.NewRegistry()
	recorder := enginemetrics.NewRecorder(registry, runID, timeutil.RealClock{})

	stopMetricsServer := serveMetrics(registry, cfg.MetricsAddr)
	defer stopMetricsServer()

	fsys := fsutil.OSFileSystem{}
	baseDir := filepath.Dir(cfg.RecordsPath)

	var pois *poi.Set
	if cfg.POIsPath != "" {
		pois, err = ingest.LoadPOIs(fsys, baseDir, cfg.POIsPath)
		if err != nil {
			log.Printf("failed to load points of interest: %v", err)
			return 1
		}
	}

	src, err := ingest.OpenRecordSource(fsys, baseDir, cfg.RecordsPath)
	if err != nil {
		log.Printf("failed to open records: %v", err)
		return 1
	}
	defer src.Close()

	maxSize := cfg.TrajectoryMaxSize()
	cleanColl := trajectory.NewCollection(maxSize)
	resampledColl := trajectory.NewCollection(maxSize)
	compressedColl := trajectory.NewCollection(maxSize)

	model := defaultModel()

	for {
		rec, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			log.Printf("failed to read record: %v", err)
			return 1
		}

		recorder.ObserveStage(enginemetrics.StageClean, func() {
			delta := pipeline.Clean(rec, cleanColl, pois)
			recorder.RecordRowsEmitted(enginemetrics.StageClean, delta.Len())
			if delta.Len() == 0 {
				reason := enginemetrics.ReasonOutlierSpeed
				if prev, ok := cleanColl.Get(rec.OID); ok && prev.LastTimestamp() == rec.T {
					reason = enginemetrics.ReasonDuplicateTimestamp
				}
				recorder.RecordRejected(enginemetrics.StageClean, reason)
			}
			cleanColl.ExtendFlush(delta, 0, false)
		})

		recorder.ObserveStage(enginemetrics.StageResample, func() {
			delta := pipeline.Resample(rec, resampledColl, pois)
			recorder.RecordRowsEmitted(enginemetrics.StageResample, delta.Len())
			resampledColl.ExtendFlush(delta, 0, false)
		})

		recorder.ObserveStage(enginemetrics.StageCompress, func() {
			delta, flushIdx, hasFlush := pipeline.Compress(rec, algo, compressedColl, pois)
			recorder.RecordRowsEmitted(enginemetrics.StageCompress, delta.Len())
			compressedColl.ExtendFlush(delta, flushIdx, hasFlush)
		})

		recorder.ObserveStage(enginemetrics.StagePredict, func() {
			if _, err := pipeline.Predict(rec.OID, cleanColl, model); err != nil {
				if errors.Is(err, predict.ErrInsufficientHistory) {
					recorder.RecordRejected(enginemetrics.StagePredict, enginemetrics.ReasonInsufficientHistory)
				}
			}
		})
	}

	flocks := 0
	cleanColl.Range(func(oid int32, tr *trajectory.Trajectory) {
		if tr.Len() == 0 {
			return
		}
		others := cleanColl.Flocks(tr.LastCoordinate(), tr.LastSpeed(), tr.LastBearing(), tr.LastTimestamp(), oid)
		flocks += len(others)
	})
	recorder.RecordFlock(flocks)

	if *dumpDirFlag != "" {
		if err := dumpCollections(fsys, *dumpDirFlag, cleanColl, resampledColl, compressedColl); err != nil {
			log.Printf("failed to dump pipeline output: %v", err)
		}
	}

	printReport(cleanColl, *speedUnitsFlag)
	monitoring.Logf("trajflow run %s complete: %d objects, %d flock pairs", runID, cleanColl.Len(), flocks)

	if *webhookFlag != "" {
		if err := postRunSummary(httputil.NewStandardClient(nil), *webhookFlag, runSummary{
			RunID:   runID,
			Objects: cleanColl.Len(),
			Flocks:  flocks,
		}); err != nil {
			log.Printf("warning: failed to post run summary webhook: %v", err)
		}
	}
	return 0
}

type runSummary struct {
	RunID   string `json:"run_id"`
	Objects int    `json:"objects"`
	Flocks  int    `json:"flocks"`
}

// postRunSummary notifies an operator-configured endpoint once a run
// completes. client is an httputil.HTTPClient so tests can substitute
// httputil.MockHTTPClient instead of making a real request.
func postRunSummary(client httputil.HTTPClient, url string, summary runSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode run summary: %w", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post run summary: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("run summary webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func defaultModel() predict.Model {
	return zeroModel{}
}

// zeroModel predicts no displacement. It stands in for a trained model
// until one is supplied out of band; wiring a real Model only requires
// satisfying the Forward interface.
type zeroModel struct{}

func (zeroModel) Forward(_ *mat.Dense, _ []float64) (float64, float64, error) {
	return 0, 0, nil
}

func serveMetrics(registry *prometheus.Registry, addr string) func() {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
	})
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server stopped: %v", err)
		}
	}()
	return func() {
		_ = server.Close()
	}
}

func dumpCollections(fsys fsutil.FileSystem, dir string, clean, resampled, compressed *trajectory.Collection) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}
	dump := func(name string, coll *trajectory.Collection) error {
		var firstErr error
		coll.Range(func(oid int32, tr *trajectory.Trajectory) {
			if firstErr != nil {
				return
			}
			path := filepath.Join(dir, fmt.Sprintf("%s-%d.csv", name, oid))
			if err := ingest.WriteRows(fsys, dir, path, tr); err != nil {
				firstErr = err
			}
		})
		return firstErr
	}
	if err := dump("clean", clean); err != nil {
		return err
	}
	if err := dump("resampled", resampled); err != nil {
		return err
	}
	return dump("compressed", compressed)
}

func printReport(clean *trajectory.Collection, speedUnits string) {
	clean.Range(func(oid int32, tr *trajectory.Trajectory) {
		m := trajectory.ComputeMetrics(tr)
		meanDisplay := units.ConvertSpeed(float64(m.MeanSpeedKts)*0.514444, speedUnits)
		maxDisplay := units.ConvertSpeed(float64(m.MaxSpeedKts)*0.514444, speedUnits)
		fmt.Printf("object %d: %d samples, mean speed %.2f %s, max speed %.2f %s, %d trips\n",
			oid, m.Samples, meanDisplay, speedUnits, maxDisplay, speedUnits, m.DistinctTrips)
	})
}

func configureLogging() ([]*os.File, error) {
	var files []*os.File
	open := func(path string) (io.Writer, error) {
		if path == "" {
			return os.Stdout, nil
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log %s: %w", path, err)
		}
		files = append(files, f)
		return f, nil
	}

	ops, err := open(*opsLogPath)
	if err != nil {
		return files, err
	}
	var diag, trace io.Writer
	if *diagLogPath != "" {
		if diag, err = open(*diagLogPath); err != nil {
			return files, err
		}
	}
	if *traceLogPath != "" {
		if trace, err = open(*traceLogPath); err != nil {
			return files, err
		}
	}
	pipeline.SetLogWriters(ops, diag, trace)
	log.SetOutput(ops)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return files, nil
}

func closeAll(files []*os.File) {
	for _, f := range files {
		if err := f.Close(); err != nil {
			log.Printf("warning: failed to close log file: %v", err)
		}
	}
}
