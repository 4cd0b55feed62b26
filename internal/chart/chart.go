// Package chart renders the analysis results as PNG figures with gonum/plot.
package chart

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/tbburden/internal/analysis"
	"github.com/KaramelBytes/tbburden/internal/logging"
	"github.com/KaramelBytes/tbburden/internal/utils"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// Output file names inside the plots directory.
const (
	HeatmapFile    = "correlation_heatmap.png"
	FitFile        = "regression_fit.png"
	HIVFile        = "mortality_vs_hiv.png"
	TopFile        = "top_incidence.png"
	ClustersFile   = "clusters.png"
	defaultFormat  = "png"
	titleFontSize  = 14
	maxPointLabels = 40
)

type renderer struct {
	file string
	make func(*analysis.Report) (*plot.Plot, error)
	w, h vg.Length
}

var renderers = []renderer{
	{HeatmapFile, CorrelationHeatmap, 7 * vg.Inch, 6 * vg.Inch},
	{FitFile, RegressionFit, 7 * vg.Inch, 6 * vg.Inch},
	{HIVFile, MortalityVsHIV, 7 * vg.Inch, 6 * vg.Inch},
	{TopFile, TopIncidence, 9 * vg.Inch, 6 * vg.Inch},
	{ClustersFile, Clusters, 8 * vg.Inch, 6 * vg.Inch},
}

// RenderAll writes every chart the report has data for into dir and returns
// the written paths in a fixed order. Sections missing from the report are
// skipped.
func RenderAll(rep *analysis.Report, dir string) ([]string, error) {
	log := logging.New("chart")
	if rep == nil {
		return nil, fmt.Errorf("render charts: nil report")
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create plots dir: %w", err)
	}
	var written []string
	for _, r := range renderers {
		p, err := r.make(rep)
		if err != nil {
			return written, fmt.Errorf("render %s: %w", r.file, err)
		}
		if p == nil {
			log.Debug("chart skipped", "file", r.file)
			continue
		}
		path := filepath.Join(dir, r.file)
		if err := Save(p, r.w, r.h, path); err != nil {
			return written, err
		}
		log.Debug("chart written", "path", path)
		written = append(written, path)
	}
	return written, nil
}

// Save encodes p as PNG and writes it atomically to path.
func Save(p *plot.Plot, w, h vg.Length, path string) error {
	wt, err := p.WriterTo(w, h, defaultFormat)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

func newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(titleFontSize)
	p.X.Label.Text = x
	p.Y.Label.Text = y
	return p
}
