package camerapath

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteHTML renders the footprint centres and corners as a go-echarts
// scatter page.
func WriteHTML(w io.Writer, title string, fps []Footprint) error {
	centres := make([]opts.ScatterData, 0, len(fps))
	corners := make([]opts.ScatterData, 0, 4*len(fps))
	for _, fp := range fps {
		centres = append(centres, opts.ScatterData{Value: []interface{}{fp.Centre.X, fp.Centre.Y, int64(fp.Frame)}})
		for _, c := range fp.Corners {
			corners = append(corners, opts.ScatterData{Value: []interface{}{c.X, c.Y, int64(fp.Frame)}})
		}
	}

	s := Summarize(fps)
	// Square axes so the ground plane is not distorted.
	lo, hi := 0.0, 1.0
	if len(fps) > 0 {
		lo = math.Floor(math.Min(s.Min.X, s.Min.Y))
		hi = math.Ceil(math.Max(s.Max.X, s.Max.Y))
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("frames=%d path=%.1f", s.Frames, s.Distance)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: lo, Max: hi, Name: "ground X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: lo, Max: hi, Name: "ground Y", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("footprint corners", corners, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))
	scatter.AddSeries("image centre", centres, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render camera path: %w", err)
	}
	return nil
}
