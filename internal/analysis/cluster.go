package analysis

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/KaramelBytes/tbburden/internal/dataset"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Burden tiers, lowest first.
const (
	LowBurden      = "Low Burden"
	ModerateBurden = "Moderate Burden"
	HighBurden     = "High Burden"
)

var burdenTiers = []string{LowBurden, ModerateBurden, HighBurden}

const maxLloydIterations = 100

// ClusterOptions controls the k-means pass.
type ClusterOptions struct {
	K        int
	Restarts int
	Seed     int64
}

// DefaultClusterOptions returns k=3 with 25 random starts and a fixed seed.
func DefaultClusterOptions() ClusterOptions {
	return ClusterOptions{K: len(burdenTiers), Restarts: 25, Seed: 42}
}

// KMeansResult is the best partition found across restarts.
type KMeansResult struct {
	Assign        []int // 0-based cluster per row
	Centers       *mat.Dense
	WithinSS      []float64
	TotalWithinSS float64
	Iterations    int
}

// ClusterStats summarises one cluster on the original scale.
type ClusterStats struct {
	ID            int     `json:"id"`
	Label         string  `json:"label"`
	Count         int     `json:"count"`
	MeanIncidence float64 `json:"mean_incidence"`
	MeanMortality float64 `json:"mean_mortality"`
	MeanHIV       float64 `json:"mean_hiv_percent"`
	MeanDetection float64 `json:"mean_detection_rate"`
	WithinSS      float64 `json:"within_ss"`
}

// ClusteredRecord is a cleaned record with its cluster assignment.
type ClusteredRecord struct {
	dataset.Record
	Cluster      int    `json:"cluster"`
	ClusterLabel string `json:"cluster_label"`
}

// Clustering is the outcome of ClusterCountries.
type Clustering struct {
	K             int               `json:"k"`
	Restarts      int               `json:"restarts"`
	Seed          int64             `json:"seed"`
	TotalWithinSS float64           `json:"total_within_ss"`
	Iterations    int               `json:"iterations"`
	Clusters      []ClusterStats    `json:"clusters"`
	Records       []ClusteredRecord `json:"records"`
}

// Standardize z-scores each indicator across records using the sample
// standard deviation. A constant indicator cannot be scaled.
func Standardize(records []dataset.Record) (*mat.Dense, error) {
	n, p := len(records), len(Indicators)
	if n < 2 {
		return nil, &ModelFitError{Model: "k-means", Cause: fmt.Sprintf("%d rows cannot be standardized", n)}
	}
	z := mat.NewDense(n, p, nil)
	for j, ind := range Indicators {
		col := column(records, ind.Value)
		mean, sd := stat.MeanStdDev(col, nil)
		if sd == 0 || math.IsNaN(sd) {
			return nil, &ModelFitError{Model: "k-means", Cause: fmt.Sprintf("indicator %s has zero variance", ind.Name)}
		}
		for i, v := range col {
			z.Set(i, j, (v-mean)/sd)
		}
	}
	return z, nil
}

// KMeans partitions the rows of data into k clusters with Lloyd iterations,
// started restarts times from k distinct random rows. The start with the
// lowest total within-cluster sum of squares wins; starts that leave a
// cluster empty are discarded.
func KMeans(data *mat.Dense, k, restarts int, rng *rand.Rand) (*KMeansResult, error) {
	n, _ := data.Dims()
	if k < 1 {
		return nil, &ModelFitError{Model: "k-means", Cause: fmt.Sprintf("invalid cluster count %d", k)}
	}
	if restarts < 1 {
		restarts = 1
	}
	distinct := distinctRows(data)
	if len(distinct) < k {
		return nil, &ModelFitError{Model: "k-means", Cause: fmt.Sprintf("more cluster centers (%d) than distinct data points (%d)", k, len(distinct))}
	}
	var best *KMeansResult
	for s := 0; s < restarts; s++ {
		perm := rng.Perm(len(distinct))
		seeds := make([]int, k)
		for c := range seeds {
			seeds[c] = distinct[perm[c]]
		}
		res := lloyd(data, seeds)
		if res == nil {
			continue
		}
		if best == nil || res.TotalWithinSS < best.TotalWithinSS {
			best = res
		}
	}
	if best == nil || n == 0 {
		return nil, &ModelFitError{Model: "k-means", Cause: fmt.Sprintf("every start left an empty cluster (%d restarts)", restarts)}
	}
	return best, nil
}

func lloyd(data *mat.Dense, seeds []int) *KMeansResult {
	n, p := data.Dims()
	k := len(seeds)
	centers := mat.NewDense(k, p, nil)
	for c, row := range seeds {
		centers.SetRow(c, data.RawRowView(row))
	}
	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	iter := 0
	for iter < maxLloydIterations {
		iter++
		changed := false
		for i := 0; i < n; i++ {
			c := nearest(data.RawRowView(i), centers)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}
		counts := make([]int, k)
		sums := mat.NewDense(k, p, nil)
		for i, c := range assign {
			counts[c]++
			row := data.RawRowView(i)
			dst := sums.RawRowView(c)
			for j := range row {
				dst[j] += row[j]
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			dst := centers.RawRowView(c)
			src := sums.RawRowView(c)
			for j := range dst {
				dst[j] = src[j] / float64(counts[c])
			}
		}
	}
	res := &KMeansResult{Assign: assign, Centers: centers, WithinSS: make([]float64, k), Iterations: iter}
	counts := make([]int, k)
	for i, c := range assign {
		counts[c]++
		d := sqDist(data.RawRowView(i), centers.RawRowView(c))
		res.WithinSS[c] += d
		res.TotalWithinSS += d
	}
	for _, cnt := range counts {
		if cnt == 0 {
			return nil
		}
	}
	return res
}

func nearest(row []float64, centers *mat.Dense) int {
	k, _ := centers.Dims()
	best, bestD := 0, math.Inf(1)
	for c := 0; c < k; c++ {
		if d := sqDist(row, centers.RawRowView(c)); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

// distinctRows returns the index of the first occurrence of each unique row.
func distinctRows(data *mat.Dense) []int {
	n, _ := data.Dims()
	var out []int
	for i := 0; i < n; i++ {
		dup := false
		for _, j := range out {
			if mat.Equal(data.RowView(i), data.RowView(j)) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, i)
		}
	}
	return out
}

// ClusterCountries standardizes the indicators, runs k-means and labels each
// cluster by its rank on mean incidence (ties: mean mortality). Labels never
// depend on the numeric cluster id, which is arbitrary per seed.
func ClusterCountries(records []dataset.Record, opt ClusterOptions) (*Clustering, error) {
	if opt.K <= 0 {
		opt.K = len(burdenTiers)
	}
	if opt.Restarts <= 0 {
		opt.Restarts = DefaultClusterOptions().Restarts
	}
	z, err := Standardize(records)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(opt.Seed))
	km, err := KMeans(z, opt.K, opt.Restarts, rng)
	if err != nil {
		return nil, err
	}

	stats := make([]ClusterStats, opt.K)
	for c := range stats {
		stats[c].ID = c + 1
		stats[c].WithinSS = km.WithinSS[c]
	}
	for i, r := range records {
		s := &stats[km.Assign[i]]
		s.Count++
		s.MeanIncidence += r.Incidence
		s.MeanMortality += r.Mortality
		s.MeanHIV += r.HIVPercent
		s.MeanDetection += r.DetectionRate
	}
	for c := range stats {
		cnt := float64(stats[c].Count)
		stats[c].MeanIncidence /= cnt
		stats[c].MeanMortality /= cnt
		stats[c].MeanHIV /= cnt
		stats[c].MeanDetection /= cnt
	}

	labels := BurdenLabels(stats)
	for c := range stats {
		stats[c].Label = labels[stats[c].ID]
	}
	out := &Clustering{
		K:             opt.K,
		Restarts:      opt.Restarts,
		Seed:          opt.Seed,
		TotalWithinSS: km.TotalWithinSS,
		Iterations:    km.Iterations,
		Clusters:      stats,
		Records:       make([]ClusteredRecord, len(records)),
	}
	for i, r := range records {
		id := km.Assign[i] + 1
		out.Records[i] = ClusteredRecord{Record: r, Cluster: id, ClusterLabel: labels[id]}
	}
	return out, nil
}

// BurdenLabels maps cluster ids to burden tiers by ascending mean incidence,
// then mean mortality, then id. With three clusters the tiers are Low,
// Moderate and High Burden; other counts get numbered tiers.
func BurdenLabels(stats []ClusterStats) map[int]string {
	ranked := append([]ClusterStats(nil), stats...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.MeanIncidence != b.MeanIncidence {
			return a.MeanIncidence < b.MeanIncidence
		}
		if a.MeanMortality != b.MeanMortality {
			return a.MeanMortality < b.MeanMortality
		}
		return a.ID < b.ID
	})
	out := make(map[int]string, len(ranked))
	for rank, s := range ranked {
		if len(ranked) == len(burdenTiers) {
			out[s.ID] = burdenTiers[rank]
		} else {
			out[s.ID] = fmt.Sprintf("Tier %d", rank+1)
		}
	}
	return out
}

// Members returns the records assigned to a burden label, in input order.
func (c *Clustering) Members(label string) []ClusteredRecord {
	var out []ClusteredRecord
	for _, r := range c.Records {
		if r.ClusterLabel == label {
			out = append(out, r)
		}
	}
	return out
}
