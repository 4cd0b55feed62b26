package analysis

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/KaramelBytes/tbburden/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// CorrMatrix holds a symmetric Pearson correlation matrix.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
	Pairs   [][]int     // complete observations behind each coefficient
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// Correlate computes the indicator correlation matrix for the cleaned records.
func Correlate(records []dataset.Record) *CorrMatrix {
	cols := make([][]float64, len(Indicators))
	for i, ind := range Indicators {
		cols[i] = column(records, ind.Value)
	}
	return Pearson(IndicatorNames(), cols)
}

// Pearson computes pairwise-complete correlations: each coefficient uses only
// the rows where both values are finite. Fewer than two such rows, or a
// zero-variance side, yields NaN. The diagonal is exactly 1.
func Pearson(names []string, cols [][]float64) *CorrMatrix {
	n := len(cols)
	m := &CorrMatrix{Columns: append([]string(nil), names...), Values: make([][]float64, n), Pairs: make([][]int, n)}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
		m.Pairs[i] = make([]int, n)
	}
	for a := 0; a < n; a++ {
		m.Values[a][a] = 1
		m.Pairs[a][a] = countFinite(cols[a])
		for b := a + 1; b < n; b++ {
			x, y := completePairs(cols[a], cols[b])
			r := math.NaN()
			if len(x) >= 2 {
				r = stat.Correlation(x, y, nil)
				if r > 1 {
					r = 1
				} else if r < -1 {
					r = -1
				}
			}
			m.Values[a][b], m.Values[b][a] = r, r
			m.Pairs[a][b], m.Pairs[b][a] = len(x), len(x)
		}
	}
	return m
}

func completePairs(a, b []float64) (x, y []float64) {
	for i := range a {
		if i >= len(b) || !isFinite(a[i]) || !isFinite(b[i]) {
			continue
		}
		x = append(x, a[i])
		y = append(y, b[i])
	}
	return x, y
}

func countFinite(vals []float64) int {
	n := 0
	for _, v := range vals {
		if isFinite(v) {
			n++
		}
	}
	return n
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// TopPairs lists off-diagonal pairs by descending |r|, skipping NaN.
func (m *CorrMatrix) TopPairs(limit int) []PairCorr {
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.IsNaN(m.Values[i][j]) {
				continue
			}
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// Order returns the column order of a complete-linkage hierarchical clustering
// on the distance 1-r, so strongly correlated indicators sit next to each other.
// NaN coefficients are treated as the maximum distance 2.
func (m *CorrMatrix) Order() []int {
	n := len(m.Columns)
	dist := func(i, j int) float64 {
		r := m.Values[i][j]
		if math.IsNaN(r) {
			return 2
		}
		return 1 - r
	}
	groups := make([][]int, n)
	for i := range groups {
		groups[i] = []int{i}
	}
	for len(groups) > 1 {
		bi, bj, best := 0, 1, math.Inf(1)
		for i := 0; i < len(groups); i++ {
			for j := i + 1; j < len(groups); j++ {
				d := 0.0
				for _, a := range groups[i] {
					for _, b := range groups[j] {
						d = math.Max(d, dist(a, b))
					}
				}
				if d < best {
					bi, bj, best = i, j, d
				}
			}
		}
		merged := append(append([]int(nil), groups[bi]...), groups[bj]...)
		groups[bi] = merged
		groups = append(groups[:bj], groups[bj+1:]...)
	}
	if n == 0 {
		return nil
	}
	return groups[0]
}

// MarshalJSON writes undefined coefficients as null.
func (m *CorrMatrix) MarshalJSON() ([]byte, error) {
	vals := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		vals[i] = make([]*float64, len(row))
		for j, v := range row {
			vals[i][j] = finite(v)
		}
	}
	return json.Marshal(struct {
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
		Pairs   [][]int      `json:"pairs"`
		Order   []string     `json:"order"`
	}{m.Columns, vals, m.Pairs, m.orderedNames()})
}

func (m *CorrMatrix) orderedNames() []string {
	order := m.Order()
	out := make([]string, len(order))
	for i, idx := range order {
		out[i] = m.Columns[idx]
	}
	return out
}
