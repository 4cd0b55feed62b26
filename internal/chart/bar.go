package chart

import (
	"fmt"
	"image/color"
	"math"

	"github.com/KaramelBytes/tbburden/internal/analysis"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// TopIncidence draws the ranked countries as a bar chart with value labels.
func TopIncidence(rep *analysis.Report) (*plot.Plot, error) {
	if len(rep.Top) == 0 {
		return nil, nil
	}
	values := make(plotter.Values, len(rep.Top))
	names := make([]string, len(rep.Top))
	var peak float64
	for i, r := range rep.Top {
		values[i] = r.Incidence
		names[i] = r.Country
		peak = math.Max(peak, r.Incidence)
	}
	if peak <= 0 {
		peak = 1
	}
	p := newPlot(fmt.Sprintf("Top %d countries by TB incidence (%d)", len(rep.Top), rep.Stats.LatestYear),
		"", "Incidence per 100k")

	bars, err := plotter.NewBarChart(values, vg.Points(28))
	if err != nil {
		return nil, err
	}
	bars.Color = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Min = 0
	p.Y.Max = peak * 1.12

	xy := make(plotter.XYs, len(values))
	text := make([]string, len(values))
	for i, v := range values {
		xy[i] = plotter.XY{X: float64(i), Y: v + peak*0.02}
		text[i] = fmt.Sprintf("%.0f", v)
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xy, Labels: text})
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
	}
	p.Add(labels)
	return p, nil
}
