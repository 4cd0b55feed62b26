package dataset

// Source column names as published in the country burden snapshot.
const (
	SourceYear          = "Year"
	SourceCountry       = "Country.or.territory.name"
	SourcePopulation    = "Estimated.total.population.number"
	SourcePrevalence    = "Estimated.prevalence.of.TB..all.forms..per.100.000.population"
	SourceMortality     = "Estimated.mortality.of.TB.cases..all.forms..excluding.HIV..per.100.000.population"
	SourceIncidence     = "Estimated.incidence..all.forms..per.100.000.population"
	SourceHIVPercent    = "Estimated.HIV.in.incident.TB..percent."
	SourceDetectionRate = "Case.detection.rate..all.forms...percent"
)

// Semantic column names used after projection.
const (
	ColCountry       = "country"
	ColPopulation    = "population"
	ColPrevalence    = "prevalence_per_100k"
	ColMortality     = "mortality_per_100k"
	ColIncidence     = "incidence_per_100k"
	ColHIVPercent    = "hiv_percent"
	ColDetectionRate = "case_detection_rate"
)

// projection maps each kept source column to its semantic name, in output order.
var projection = []struct {
	Source   string
	Semantic string
}{
	{SourceCountry, ColCountry},
	{SourcePopulation, ColPopulation},
	{SourcePrevalence, ColPrevalence},
	{SourceMortality, ColMortality},
	{SourceIncidence, ColIncidence},
	{SourceHIVPercent, ColHIVPercent},
	{SourceDetectionRate, ColDetectionRate},
}

// Record is one cleaned country row for the selected year. No field is missing.
type Record struct {
	Country       string  `json:"country"`
	Population    float64 `json:"population"`
	Prevalence    float64 `json:"prevalence_per_100k"`
	Mortality     float64 `json:"mortality_per_100k"`
	Incidence     float64 `json:"incidence_per_100k"`
	HIVPercent    float64 `json:"hiv_percent"`
	DetectionRate float64 `json:"case_detection_rate"`
}

// Table is an untyped, in-memory view of a source file.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Index returns the position of a header column, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Stats describes how many rows survived each cleaning stage.
type Stats struct {
	Source     string `json:"source"`
	RawRows    int    `json:"raw_rows"`
	LatestYear int    `json:"latest_year"`
	YearRows   int    `json:"year_rows"`
	Dropped    int    `json:"dropped"`
	Kept       int    `json:"kept"`
	Renamed    int    `json:"renamed"`
}

// Cleaned is the output of the clean step.
type Cleaned struct {
	Records []Record
	Stats   Stats
}
