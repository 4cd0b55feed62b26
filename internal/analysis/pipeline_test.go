package analysis

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/tbburden/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fiveCountryCSV = `Country.or.territory.name,Year,Estimated.total.population.number,Estimated.prevalence.of.TB..all.forms..per.100.000.population,Estimated.mortality.of.TB.cases..all.forms..excluding.HIV..per.100.000.population,Estimated.incidence..all.forms..per.100.000.population,Estimated.HIV.in.incident.TB..percent.,Case.detection.rate..all.forms...percent
Alpha,2012,1000000,20,2,12,0.5,88
Alpha,2013,1000000,15,1,10,0.5,90
Bravo,2013,2000000,70,5,50,1,85
Charlie,2013,3000000,140,10,100,2,80
Delta,2013,4000000,650,50,500,15,55
Echo,2013,5000000,900,70,700,25,45
`

func TestFiveCountryScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TB_Burden_Country.csv")
	require.NoError(t, os.WriteFile(path, []byte(fiveCountryCSV), 0o644))

	tbl, err := dataset.Load(path, dataset.DefaultLoadOptions())
	require.NoError(t, err)
	cleaned, err := dataset.Clean(tbl, dataset.DefaultLoadOptions())
	require.NoError(t, err)
	assert.Equal(t, 2013, cleaned.Stats.LatestYear)
	require.Len(t, cleaned.Records, 5)

	top := TopIncidence(cleaned.Records, DefaultTopN)
	require.Len(t, top, 5)
	assert.Equal(t, "Echo", top[0].Country)
	assert.Equal(t, 700.0, top[0].Incidence)
	assert.Equal(t, "Alpha", top[4].Country)

	clusters, err := ClusterCountries(cleaned.Records, DefaultClusterOptions())
	require.NoError(t, err)
	for _, r := range clusters.Records {
		if r.Country == "Echo" {
			assert.Equal(t, HighBurden, r.ClusterLabel)
		}
		if r.Country == "Alpha" {
			assert.Equal(t, LowBurden, r.ClusterLabel)
		}
	}
}

func TestRunProducesEverySection(t *testing.T) {
	cleaned := &dataset.Cleaned{
		Records: noisyBurden(),
		Stats:   dataset.Stats{Source: "fixture.csv", RawRows: 14, LatestYear: 2013, YearRows: 12, Kept: 12},
	}
	rep, err := Run(cleaned, DefaultOptions())
	require.NoError(t, err)
	require.NotEmpty(t, rep.RunID)
	require.NotNil(t, rep.Corr)
	require.NotNil(t, rep.Regression)
	require.NotNil(t, rep.HIVModel)
	require.NotNil(t, rep.Clusters)
	assert.Len(t, rep.Top, DefaultTopN)
	assert.Len(t, cleaned.Records, 12)
	assert.Equal(t, "Country 01", cleaned.Records[0].Country, "Run must not reorder its input")

	md := rep.Markdown()
	for _, section := range []string{"[DATASET SUMMARY]", "[CORRELATIONS]", "[REGRESSION]", "[TOP 10 INCIDENCE]", "[CLUSTERS]"} {
		assert.Contains(t, md, section)
	}
	assert.Contains(t, md, "mortality_per_100k ~ hiv_percent")
	assert.Contains(t, md, HighBurden)

	raw, err := json.Marshal(rep)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"run_id", "dataset", "correlation", "regression", "hiv_model", "top_incidence", "clustering"} {
		assert.Contains(t, decoded, key)
	}
}

func TestRunWarnsOnShortRanking(t *testing.T) {
	opt := DefaultOptions()
	opt.TopN = 20
	rep, err := Run(&dataset.Cleaned{Records: noisyBurden()}, opt)
	require.NoError(t, err)
	found := false
	for _, w := range rep.Warnings {
		if strings.Contains(w, "top-20") {
			found = true
		}
	}
	assert.True(t, found, "warnings: %v", rep.Warnings)
	assert.Contains(t, rep.Markdown(), "[NOTES]")
}

func TestRunRejectsEmptyInput(t *testing.T) {
	_, err := Run(&dataset.Cleaned{}, DefaultOptions())
	var empty *dataset.EmptyDatasetError
	assert.True(t, errors.As(err, &empty))
}
