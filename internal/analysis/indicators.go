package analysis

import (
	"math"

	"github.com/KaramelBytes/tbburden/internal/dataset"
)

// Indicator is one numeric burden column used by correlation and clustering.
type Indicator struct {
	Name  string
	Value func(dataset.Record) float64
}

// Indicators are the five numeric columns analysed together, in report order.
var Indicators = []Indicator{
	{dataset.ColPrevalence, func(r dataset.Record) float64 { return r.Prevalence }},
	{dataset.ColMortality, func(r dataset.Record) float64 { return r.Mortality }},
	{dataset.ColIncidence, func(r dataset.Record) float64 { return r.Incidence }},
	{dataset.ColHIVPercent, func(r dataset.Record) float64 { return r.HIVPercent }},
	{dataset.ColDetectionRate, func(r dataset.Record) float64 { return r.DetectionRate }},
}

// IndicatorNames returns the names of Indicators in order.
func IndicatorNames() []string {
	out := make([]string, len(Indicators))
	for i, ind := range Indicators {
		out[i] = ind.Name
	}
	return out
}

// column extracts one value per record.
func column(records []dataset.Record, f func(dataset.Record) float64) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = f(r)
	}
	return out
}

// finite returns nil for NaN and ±Inf so JSON output stays valid.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
