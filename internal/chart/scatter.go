package chart

import (
	"fmt"
	"image/color"
	"math"

	"github.com/KaramelBytes/tbburden/internal/analysis"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	pointColor = color.RGBA{R: 139, G: 0, B: 0, A: 255}
	lineColor  = color.RGBA{A: 255}
)

// RegressionFit plots observed against fitted mortality for the final model,
// with the identity line as reference.
func RegressionFit(rep *analysis.Report) (*plot.Plot, error) {
	if rep.Regression == nil || rep.Regression.Final == nil {
		return nil, nil
	}
	fit := rep.Regression.Final
	pts := make(plotter.XYs, len(fit.Observed))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range fit.Observed {
		pts[i].X = fit.Fitted[i]
		pts[i].Y = fit.Observed[i]
		lo = math.Min(lo, math.Min(pts[i].X, pts[i].Y))
		hi = math.Max(hi, math.Max(pts[i].X, pts[i].Y))
	}
	p := newPlot(fmt.Sprintf("%s (R² %.3f, n=%d)", fit.Formula, fit.RSquared, fit.N),
		"Fitted mortality per 100k", "Observed mortality per 100k")

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Color = pointColor
	scatter.GlyphStyle.Radius = vg.Points(3)
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(plotter.NewGrid(), scatter)

	line := plotter.NewFunction(func(x float64) float64 { return x })
	line.Color = lineColor
	line.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	p.Add(line)

	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
	}
	p.X.Min, p.X.Max = lo-pad, hi+pad
	p.Y.Min, p.Y.Max = lo-pad, hi+pad
	return p, nil
}

// MortalityVsHIV plots mortality against HIV share with the bivariate fit.
func MortalityVsHIV(rep *analysis.Report) (*plot.Plot, error) {
	m := rep.HIVModel
	if m == nil || len(m.X) == 0 {
		return nil, nil
	}
	pts := make(plotter.XYs, len(m.X))
	for i := range m.X {
		pts[i].X, pts[i].Y = m.X[i], m.Y[i]
	}
	p := newPlot(fmt.Sprintf("Mortality vs HIV in incident TB (R² %.3f)", m.RSquared),
		"HIV in incident TB (%)", "Mortality per 100k")
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Color = pointColor
	scatter.GlyphStyle.Radius = vg.Points(3)
	p.Add(plotter.NewGrid(), scatter)

	alpha, beta := m.Intercept, m.Slope
	line := plotter.NewFunction(func(x float64) float64 { return alpha + beta*x })
	line.Color = lineColor
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add(fmt.Sprintf("y = %.3g + %.3g x", alpha, beta), line)
	p.Legend.Top = true
	return p, nil
}

// Clusters plots incidence against mortality, one series per burden label.
// Countries are named when the data set is small enough to stay legible,
// otherwise only High Burden members are.
func Clusters(rep *analysis.Report) (*plot.Plot, error) {
	cl := rep.Clusters
	if cl == nil || len(cl.Records) == 0 {
		return nil, nil
	}
	p := newPlot(fmt.Sprintf("k-means burden clusters (k=%d)", cl.K),
		"Incidence per 100k", "Mortality per 100k")
	p.Add(plotter.NewGrid())

	var (
		names []string
		at    plotter.XYs
	)
	for i, s := range cl.Clusters {
		members := cl.Members(s.Label)
		if len(members) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(members))
		for j, r := range members {
			pts[j].X, pts[j].Y = r.Incidence, r.Mortality
			if len(cl.Records) <= maxPointLabels || s.Label == analysis.HighBurden {
				names = append(names, r.Country)
				at = append(at, pts[j])
			}
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		scatter.GlyphStyle.Color = plotutil.Color(i)
		scatter.GlyphStyle.Shape = plotutil.Shape(i)
		scatter.GlyphStyle.Radius = vg.Points(4)
		p.Add(scatter)
		p.Legend.Add(fmt.Sprintf("%s (%d)", s.Label, s.Count), scatter)
	}
	if len(names) > 0 {
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: at, Labels: names})
		if err != nil {
			return nil, err
		}
		labels.Offset = vg.Point{X: vg.Points(4), Y: vg.Points(2)}
		for i := range labels.TextStyle {
			labels.TextStyle[i].Font.Size = vg.Points(7)
		}
		p.Add(labels)
	}
	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}
