// Command groundplane estimates per-frame image-to-ground homographies from
// 2D feature tracks and optionally stores and renders the camera path.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/banshee-data/groundplane/internal/camerapath"
	"github.com/banshee-data/groundplane/internal/config"
	"github.com/banshee-data/groundplane/internal/groundplane"
	"github.com/banshee-data/groundplane/internal/storage/sqlite"
	"github.com/banshee-data/groundplane/internal/tracks"
	"github.com/banshee-data/groundplane/internal/version"
	"github.com/golang/geo/r2"
)

type options struct {
	configPath   string
	tracksPath   string
	synthetic    bool
	frames       int
	seed         int64
	noise        float64
	outliers     float64
	exportTracks string
	dbPath       string
	outPath      string
	htmlPath     string
	plotsDir     string
	width        float64
	height       float64
	serveAddr    string
	verbose      bool
	trace        bool
	showVersion  bool
}

func parseFlags(args []string) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("groundplane", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "JSON configuration file (defaults when empty)")
	fs.StringVar(&o.tracksPath, "tracks", "", "input tracks CSV (frame,track_id,x,y)")
	fs.BoolVar(&o.synthetic, "synthetic", false, "generate a synthetic planar scene instead of reading -tracks")
	fs.IntVar(&o.frames, "frames", 60, "synthetic: number of frames")
	fs.Int64Var(&o.seed, "seed", 1, "synthetic: random seed (0 for clock)")
	fs.Float64Var(&o.noise, "noise", 0.2, "synthetic: observation noise (pixels)")
	fs.Float64Var(&o.outliers, "outliers", 0, "synthetic: outlier probability")
	fs.StringVar(&o.exportTracks, "export-tracks", "", "write the input tracks to this CSV")
	fs.StringVar(&o.dbPath, "db", "", "SQLite database to record the run in")
	fs.StringVar(&o.outPath, "out", "", "write homographies to this CSV")
	fs.StringVar(&o.htmlPath, "html", "", "write an HTML camera path chart")
	fs.StringVar(&o.plotsDir, "plots", "", "write PNG plots into this directory")
	fs.Float64Var(&o.width, "width", 640, "image width for footprints")
	fs.Float64Var(&o.height, "height", 480, "image height for footprints")
	fs.StringVar(&o.serveAddr, "serve", "", "after the run, serve /debug/ admin pages for -db on this address")
	fs.BoolVar(&o.verbose, "v", false, "log per-frame diagnostics")
	fs.BoolVar(&o.trace, "trace", false, "log per-track outlier decisions")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if !o.showVersion && !o.synthetic && o.tracksPath == "" {
		return nil, errors.New("one of -tracks or -synthetic is required")
	}
	if o.synthetic && o.tracksPath != "" {
		return nil, errors.New("-tracks and -synthetic are mutually exclusive")
	}
	if o.serveAddr != "" && o.dbPath == "" {
		return nil, errors.New("-serve requires -db")
	}
	return o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("groundplane: %v", err)
	}
	if err := run(o, os.Stdout); err != nil {
		log.Fatalf("groundplane: %v", err)
	}
}

func run(o *options, stdout io.Writer) error {
	if o.showVersion {
		fmt.Fprintln(stdout, version.String())
		return nil
	}

	logs := groundplane.LogWriters{Ops: os.Stderr}
	if o.verbose {
		logs.Diag = os.Stderr
	}
	if o.trace {
		logs.Trace = os.Stderr
	}
	groundplane.SetLogWriters(logs)

	fileCfg := config.DefaultConfig()
	if o.configPath != "" {
		var err error
		if fileCfg, err = config.LoadConfig(o.configPath); err != nil {
			return err
		}
	}
	mapper, err := groundplane.NewMapper(groundplane.ConfigFromFile(fileCfg))
	if err != nil {
		return err
	}

	set, sourceName, err := loadTracks(o)
	if err != nil {
		return err
	}
	log.Printf("loaded %d observations of %d tracks over %d frames from %s",
		set.Len(), set.TrackCount(), len(set.Frames()), sourceName)

	if o.exportTracks != "" {
		if err := writeFile(o.exportTracks, func(w io.Writer) error { return tracks.WriteCSV(w, set) }); err != nil {
			return err
		}
	}

	var rec *recorder
	if o.dbPath != "" {
		if rec, err = newRecorder(o.dbPath, sourceName, fileCfg, set, set.Frames()); err != nil {
			return err
		}
		defer rec.Close()
		log.Printf("recording run %s in %s", rec.runID, o.dbPath)
	}

	var src groundplane.TrackSource = set
	frames := set.Frames()
	if rec != nil {
		src = rec.source()
	}

	var stats []groundplane.FrameStats
	for _, f := range frames {
		if _, err := mapper.Measure(f, src); err != nil {
			return err
		}
		st := mapper.LastStats()
		stats = append(stats, st)
		if rec != nil {
			if err := rec.stats.Insert(rec.runID, st); err != nil {
				return err
			}
		}
	}

	out := mapper.Collection()
	counts := make(map[groundplane.Outcome]int)
	for _, st := range stats {
		counts[st.Outcome]++
	}
	log.Printf("estimated %d of %d frames (insufficient=%d failed=%d)",
		out.Len(), len(frames), counts[groundplane.OutcomeInsufficientMatches], counts[groundplane.OutcomeEstimationFailed])

	if rec != nil {
		if err := rec.homographies.InsertCollection(rec.runID, out); err != nil {
			return err
		}
	}
	if o.outPath != "" {
		if err := writeFile(o.outPath, func(w io.Writer) error { return writeHomographies(w, out) }); err != nil {
			return err
		}
	}

	fps := camerapath.Footprints(out, o.width, o.height)
	if o.htmlPath != "" {
		title := "Camera path: " + sourceName
		if err := writeFile(o.htmlPath, func(w io.Writer) error { return camerapath.WriteHTML(w, title, fps) }); err != nil {
			return err
		}
	}
	if o.plotsDir != "" {
		if err := os.MkdirAll(o.plotsDir, 0o755); err != nil {
			return fmt.Errorf("create plots dir: %w", err)
		}
		files, err := camerapath.SavePlots(o.plotsDir, fps, stats)
		if err != nil {
			return err
		}
		for _, f := range files {
			log.Printf("✓ Created: %s", f)
		}
	}

	s := camerapath.Summarize(fps)
	fmt.Fprintf(stdout, "frames=%d estimated=%d path=%.2f bounds=(%.1f,%.1f)-(%.1f,%.1f)\n",
		len(frames), out.Len(), s.Distance, s.Min.X, s.Min.Y, s.Max.X, s.Max.Y)

	if o.serveAddr != "" {
		return serveAdmin(rec, o)
	}
	return nil
}

func loadTracks(o *options) (*tracks.Set, string, error) {
	if o.synthetic {
		cfg := tracks.DefaultSyntheticConfig()
		cfg.Frames = o.frames
		cfg.Seed = o.seed
		cfg.Noise = o.noise
		cfg.OutlierRate = o.outliers
		cfg.Width, cfg.Height = o.width, o.height
		cfg.Pan = r2.Point{X: o.width / 160, Y: o.height / 480}
		scene, err := tracks.GenerateSynthetic(cfg)
		if err != nil {
			return nil, "", err
		}
		return scene.Tracks, fmt.Sprintf("synthetic(seed=%d)", o.seed), nil
	}

	f, err := os.Open(o.tracksPath)
	if err != nil {
		return nil, "", fmt.Errorf("open tracks: %w", err)
	}
	defer f.Close()
	set, err := tracks.ReadCSV(f)
	if err != nil {
		return nil, "", err
	}
	return set, o.tracksPath, nil
}

// recorder stores one run's inputs and results.
type recorder struct {
	db           *sqlite.DB
	runID        string
	observations *sqlite.ObservationStore
	homographies *sqlite.HomographyStore
	stats        *sqlite.FrameStatsStore
}

func newRecorder(path, sourceName string, cfg *config.GroundPlaneConfig, src groundplane.TrackSource, frames []groundplane.FrameID) (*recorder, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	cfgJSON, err := cfg.MarshalIndent()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("encode config: %w", err)
	}
	run := &sqlite.Run{Source: sourceName, ConfigJSON: string(cfgJSON)}
	if err := sqlite.NewRunStore(db.DB).Insert(run); err != nil {
		db.Close()
		return nil, err
	}

	r := &recorder{
		db:           db,
		runID:        run.RunID,
		observations: sqlite.NewObservationStore(db.DB),
		homographies: sqlite.NewHomographyStore(db.DB),
		stats:        sqlite.NewFrameStatsStore(db.DB),
	}
	for _, f := range frames {
		obs, err := src.ActiveTracks(f)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("active tracks at frame %d: %w", f, err)
		}
		if err := r.observations.Insert(r.runID, f, obs); err != nil {
			db.Close()
			return nil, err
		}
	}
	return r, nil
}

// source replays the stored observations, so the database holds exactly
// what the mapper saw.
func (r *recorder) source() groundplane.TrackSource {
	return r.observations.Source(r.runID)
}

func (r *recorder) Close() error { return r.db.Close() }

// newAdminMux mounts the database debug pages plus a per-run camera path
// chart at /debug/camerapath?run=<id>.
func newAdminMux(rec *recorder, o *options) (*http.ServeMux, error) {
	mux := http.NewServeMux()
	debug, err := rec.db.AttachAdminRoutes(mux)
	if err != nil {
		return nil, err
	}
	debug.Handle("camerapath", "Camera path chart of a recorded run (?run=<id>)", cameraPathHandler(rec, o))
	return mux, nil
}

// cameraPathHandler renders the stored homographies of a run; the recorded
// run is the default.
func cameraPathHandler(rec *recorder, o *options) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runID := r.URL.Query().Get("run")
		if runID == "" {
			runID = rec.runID
		}
		out, err := rec.homographies.ListByRun(runID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if out.Len() == 0 {
			http.Error(w, fmt.Sprintf("no homographies for run %q", runID), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fps := camerapath.Footprints(out, o.width, o.height)
		if err := camerapath.WriteHTML(w, "Camera path: run "+runID, fps); err != nil {
			log.Printf("camerapath: %v", err)
		}
	})
}

func serveAdmin(rec *recorder, o *options) error {
	mux, err := newAdminMux(rec, o)
	if err != nil {
		return err
	}
	log.Printf("serving admin pages for %s on http://%s/debug/", o.dbPath, o.serveAddr)
	return http.ListenAndServe(o.serveAddr, mux)
}

func writeHomographies(w io.Writer, c groundplane.Collection) error {
	cw := csv.NewWriter(w)
	header := []string{"frame", "h0", "h1", "h2", "h3", "h4", "h5", "h6", "h7", "h8"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, fh := range c.All() {
		rec := []string{strconv.FormatInt(int64(fh.Frame), 10)}
		for _, v := range fh.H {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
