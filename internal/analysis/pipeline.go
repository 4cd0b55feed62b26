package analysis

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/tbburden/internal/dataset"
	"github.com/KaramelBytes/tbburden/internal/logging"
	"github.com/google/uuid"
)

// Options controls the analysis steps that follow cleaning.
type Options struct {
	CooksThreshold float64
	TopN           int
	Cluster        ClusterOptions
}

// DefaultOptions returns the settings used for the published analysis.
func DefaultOptions() Options {
	return Options{
		CooksThreshold: DefaultCooksThreshold,
		TopN:           DefaultTopN,
		Cluster:        DefaultClusterOptions(),
	}
}

// Report is the full result of one analysis run.
type Report struct {
	RunID      string           `json:"run_id"`
	Stats      dataset.Stats    `json:"dataset"`
	Corr       *CorrMatrix      `json:"correlation"`
	Regression *Regression      `json:"regression"`
	HIVModel   *SimpleFit       `json:"hiv_model"`
	Top        []dataset.Record `json:"top_incidence"`
	Clusters   *Clustering      `json:"clustering"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// Run executes correlation, regression, ranking and clustering in order. Each
// step gets its own copy of the cleaned records.
func Run(cleaned *dataset.Cleaned, opt Options) (*Report, error) {
	log := logging.New("analysis")
	if cleaned == nil || len(cleaned.Records) == 0 {
		return nil, &dataset.EmptyDatasetError{Stage: "analysis"}
	}
	rep := &Report{RunID: uuid.NewString(), Stats: cleaned.Stats}
	records := func() []dataset.Record { return append([]dataset.Record(nil), cleaned.Records...) }

	rep.Corr = Correlate(records())
	for _, p := range undefinedPairs(rep.Corr) {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("correlation %s is undefined (zero variance or too few pairs)", p))
	}
	log.Debug("correlation computed", "indicators", len(rep.Corr.Columns))

	reg, err := FitRegression(records(), opt.CooksThreshold)
	if err != nil {
		return nil, err
	}
	rep.Regression = reg
	if len(reg.Removed) > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("removed %d influential rows (Cook's distance > %.2g) before refitting", len(reg.Removed), reg.Threshold))
	}
	log.Info("regression fitted", "rows", reg.Initial.N, "removed", len(reg.Removed), "r_squared", reg.Final.RSquared)

	rep.HIVModel, err = FitSimple(records())
	if err != nil {
		return nil, err
	}

	rep.Top = TopIncidence(records(), opt.TopN)
	topN := opt.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	if len(rep.Top) < topN {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("only %d countries available for a top-%d ranking", len(rep.Top), topN))
	}

	rep.Clusters, err = ClusterCountries(records(), opt.Cluster)
	if err != nil {
		return nil, err
	}
	log.Info("clustering done", "k", rep.Clusters.K, "restarts", rep.Clusters.Restarts, "total_within_ss", rep.Clusters.TotalWithinSS)
	return rep, nil
}

func undefinedPairs(m *CorrMatrix) []string {
	var out []string
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			if math.IsNaN(m.Values[i][j]) {
				out = append(out, m.Columns[i]+" ~ "+m.Columns[j])
			}
		}
	}
	return out
}
