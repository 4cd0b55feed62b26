package analysis

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Markdown renders the report as plain sections for the terminal.
func (r *Report) Markdown() string {
	var b strings.Builder
	pr := message.NewPrinter(language.English)

	b.WriteString("[DATASET SUMMARY]\n")
	if r.Stats.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Stats.Source))
	}
	b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	b.WriteString(fmt.Sprintf("Latest year: %d\n", r.Stats.LatestYear))
	b.WriteString(fmt.Sprintf("Rows: %d raw, %d in %d, %d complete (%d dropped)\n",
		r.Stats.RawRows, r.Stats.YearRows, r.Stats.LatestYear, r.Stats.Kept, r.Stats.Dropped))
	if r.Stats.Renamed > 0 {
		b.WriteString(fmt.Sprintf("Renamed: %d country name(s)\n", r.Stats.Renamed))
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		order := r.Corr.Order()
		b.WriteString("| ")
		b.WriteString("indicator")
		for _, j := range order {
			b.WriteString(" | ")
			b.WriteString(r.Corr.Columns[j])
		}
		b.WriteString(" |\n|---")
		for range order {
			b.WriteString("|---")
		}
		b.WriteString("|\n")
		for _, i := range order {
			b.WriteString("| ")
			b.WriteString(r.Corr.Columns[i])
			for _, j := range order {
				b.WriteString(" | ")
				b.WriteString(fmtR(r.Corr.Values[i][j]))
			}
			b.WriteString(" |\n")
		}
		for _, p := range r.Corr.TopPairs(3) {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}

	if r.Regression != nil && r.Regression.Final != nil {
		b.WriteString("\n[REGRESSION]\n")
		reg := r.Regression
		writeFit(&b, reg.Final)
		b.WriteString(fmt.Sprintf("Initial fit: n=%d, R²=%.4f; final fit: n=%d, R²=%.4f\n",
			reg.Initial.N, reg.Initial.RSquared, reg.Final.N, reg.Final.RSquared))
		if len(reg.Removed) > 0 {
			b.WriteString(fmt.Sprintf("Removed (Cook's distance > %.2g): ", reg.Threshold))
			for i, inf := range reg.Removed {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s (%.2f)", safeVal(inf.Country), inf.CooksDistance))
			}
			b.WriteString("\n")
		}
		if r.HIVModel != nil {
			b.WriteString(fmt.Sprintf("%s: intercept %.4g, slope %.4g, R²=%.4f (n=%d)\n",
				r.HIVModel.Formula, r.HIVModel.Intercept, r.HIVModel.Slope, r.HIVModel.RSquared, r.HIVModel.N))
		}
	}

	if len(r.Top) > 0 {
		b.WriteString(fmt.Sprintf("\n[TOP %d INCIDENCE]\n", len(r.Top)))
		b.WriteString("| # | country | incidence/100k | mortality/100k | population |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for i, rec := range r.Top {
			b.WriteString(pr.Sprintf("| %d | %s | %.1f | %.1f | %d |\n", i+1, safeVal(rec.Country), rec.Incidence, rec.Mortality, int64(rec.Population)))
		}
	}

	if r.Clusters != nil {
		b.WriteString("\n[CLUSTERS]\n")
		b.WriteString(fmt.Sprintf("k=%d, restarts=%d, seed=%d, total within SS %.4g\n",
			r.Clusters.K, r.Clusters.Restarts, r.Clusters.Seed, r.Clusters.TotalWithinSS))
		b.WriteString("| cluster | label | n | incidence | mortality | hiv % | detection % |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, s := range r.Clusters.Clusters {
			b.WriteString(fmt.Sprintf("| %d | %s | %d | %.1f | %.1f | %.2f | %.1f |\n",
				s.ID, s.Label, s.Count, s.MeanIncidence, s.MeanMortality, s.MeanHIV, s.MeanDetection))
		}
		for _, label := range []string{HighBurden, ModerateBurden, LowBurden} {
			members := r.Clusters.Members(label)
			if len(members) == 0 {
				continue
			}
			names := make([]string, 0, 8)
			for i, m := range members {
				if i == 8 {
					names = append(names, fmt.Sprintf("… +%d more", len(members)-8))
					break
				}
				names = append(names, safeVal(m.Country))
			}
			b.WriteString(fmt.Sprintf("- %s: %s\n", label, strings.Join(names, ", ")))
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeFit(b *strings.Builder, f *OLSFit) {
	b.WriteString(fmt.Sprintf("Model: %s (n=%d)\n", f.Formula, f.N))
	b.WriteString("| term | estimate | std error | t | p | 95% CI |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, c := range f.Coefficients {
		b.WriteString(fmt.Sprintf("| %s | %.4g | %.4g | %.3f | %s | [%.4g, %.4g] |\n",
			c.Term, c.Estimate, c.StdError, c.TValue, fmtP(c.PValue), c.CILower, c.CIUpper))
	}
	b.WriteString(fmt.Sprintf("Residual std error %.4g on %d df; R² %.4f, adjusted %.4f; F %.4g, p %s\n",
		f.ResidualStdError, f.DF, f.RSquared, f.AdjRSquared, f.FStatistic, fmtP(f.FPValue)))
}

func fmtR(r float64) string {
	if math.IsNaN(r) {
		return "NA"
	}
	return fmt.Sprintf("%.2f", r)
}

func fmtP(p float64) string {
	switch {
	case math.IsNaN(p):
		return "NA"
	case p < 2e-16:
		return "<2e-16"
	case p < 1e-4:
		return fmt.Sprintf("%.2e", p)
	default:
		return fmt.Sprintf("%.4f", p)
	}
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
