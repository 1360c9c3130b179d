package camerapath

import (
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/banshee-data/groundplane/internal/groundplane"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	pathColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	cornerColor = color.RGBA{R: 180, G: 180, B: 180, A: 255}
	goodColor   = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	badColor    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// SavePlots writes camera_path.png (footprint centres and outlines on the
// ground plane) and, when stats is non-empty, frame_stats.png
// (correspondences and outlier verdicts per frame) into dir. It returns
// the files written.
func SavePlots(dir string, fps []Footprint, stats []groundplane.FrameStats) ([]string, error) {
	var files []string

	pathFile := filepath.Join(dir, "camera_path.png")
	if err := savePathPlot(pathFile, fps); err != nil {
		return files, err
	}
	files = append(files, pathFile)

	if len(stats) > 0 {
		statsFile := filepath.Join(dir, "frame_stats.png")
		if err := saveStatsPlot(statsFile, stats); err != nil {
			return files, err
		}
		files = append(files, statsFile)
	}
	return files, nil
}

func savePathPlot(file string, fps []Footprint) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Camera path (%d frames)", len(fps))
	p.X.Label.Text = "ground X"
	p.Y.Label.Text = "ground Y"

	for _, fp := range fps {
		outline := make(plotter.XYs, 0, len(fp.Corners)+1)
		for _, c := range fp.Corners {
			outline = append(outline, plotter.XY{X: c.X, Y: c.Y})
		}
		outline = append(outline, outline[0])
		line, err := plotter.NewLine(outline)
		if err != nil {
			return fmt.Errorf("footprint line frame %d: %w", fp.Frame, err)
		}
		line.Width = vg.Points(0.5)
		line.Color = cornerColor
		p.Add(line)
	}

	if len(fps) > 0 {
		centres := make(plotter.XYs, 0, len(fps))
		for _, fp := range fps {
			centres = append(centres, plotter.XY{X: fp.Centre.X, Y: fp.Centre.Y})
		}
		path, err := plotter.NewLine(centres)
		if err != nil {
			return fmt.Errorf("centre line: %w", err)
		}
		path.Width = vg.Points(1.5)
		path.Color = pathColor
		p.Add(path)
		p.Legend.Add("image centre", path)
	}

	if err := p.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
		return fmt.Errorf("save %s: %w", file, err)
	}
	return nil
}

func saveStatsPlot(file string, stats []groundplane.FrameStats) error {
	p := plot.New()
	p.Title.Text = "Correspondences per frame"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Tracks"

	corr := make(plotter.XYs, 0, len(stats))
	good := make(plotter.XYs, 0, len(stats))
	bad := make(plotter.XYs, 0, len(stats))
	for _, st := range stats {
		x := float64(st.Frame)
		corr = append(corr, plotter.XY{X: x, Y: float64(st.Correspondences)})
		good = append(good, plotter.XY{X: x, Y: float64(st.Good)})
		bad = append(bad, plotter.XY{X: x, Y: float64(st.Bad)})
	}

	series := []struct {
		name string
		xys  plotter.XYs
		c    color.Color
	}{
		{"correspondences", corr, pathColor},
		{"good", good, goodColor},
		{"bad", bad, badColor},
	}
	for _, s := range series {
		line, err := plotter.NewLine(s.xys)
		if err != nil {
			return fmt.Errorf("%s line: %w", s.name, err)
		}
		line.Width = vg.Points(1)
		line.Color = s.c
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("save %s: %w", file, err)
	}
	return nil
}
