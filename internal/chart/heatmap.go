package chart

import (
	"fmt"
	"image/color"
	"math"

	"github.com/KaramelBytes/tbburden/internal/analysis"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"
)

// corrGrid exposes a correlation matrix as a heat map grid in clustered
// order. Row 0 is drawn at the bottom, so the first indicator of the order
// sits in the top row.
type corrGrid struct {
	m     *analysis.CorrMatrix
	order []int
}

func (g corrGrid) Dims() (c, r int)   { return len(g.order), len(g.order) }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }
func (g corrGrid) col(c int) int      { return g.order[c] }
func (g corrGrid) row(r int) int      { return g.order[len(g.order)-1-r] }
func (g corrGrid) Z(c, r int) float64 { return g.m.Values[g.row(r)][g.col(c)] }

// CorrelationHeatmap draws the annotated correlation matrix on a diverging
// blue-red scale fixed to [-1, 1]. Undefined coefficients are grey and
// labelled NA.
func CorrelationHeatmap(rep *analysis.Report) (*plot.Plot, error) {
	if rep.Corr == nil || len(rep.Corr.Columns) < 2 {
		return nil, nil
	}
	g := corrGrid{m: rep.Corr, order: rep.Corr.Order()}
	n := len(g.order)

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)
	hm := plotter.NewHeatMap(g, cm.Palette(255))
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Gray{Y: 200}

	p := newPlot("Correlation of TB burden indicators", "", "")
	p.Add(hm)

	xy := make(plotter.XYs, 0, n*n)
	text := make([]string, 0, n*n)
	xt := make([]plot.Tick, n)
	yt := make([]plot.Tick, n)
	for c := 0; c < n; c++ {
		xt[c] = plot.Tick{Value: float64(c), Label: rep.Corr.Columns[g.col(c)]}
		yt[c] = plot.Tick{Value: float64(c), Label: rep.Corr.Columns[g.row(c)]}
		for r := 0; r < n; r++ {
			xy = append(xy, plotter.XY{X: float64(c), Y: float64(r)})
			v := g.Z(c, r)
			if math.IsNaN(v) {
				text = append(text, "NA")
			} else {
				text = append(text, fmt.Sprintf("%.2f", v))
			}
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xy, Labels: text})
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)

	p.X.Tick.Marker = plot.ConstantTicks(xt)
	p.Y.Tick.Marker = plot.ConstantTicks(yt)
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Min, p.X.Max = -0.5, float64(n)-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(n)-0.5
	return p, nil
}
