package analysis

import (
	"sort"

	"github.com/KaramelBytes/tbburden/internal/dataset"
)

// DefaultTopN is the size of the incidence ranking.
const DefaultTopN = 10

// TopIncidence returns the n records with the highest incidence, in
// descending order. Ties keep their input order.
func TopIncidence(records []dataset.Record, n int) []dataset.Record {
	if n <= 0 {
		n = DefaultTopN
	}
	sorted := append([]dataset.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Incidence > sorted[j].Incidence
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
