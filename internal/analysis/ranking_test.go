package analysis

import (
	"testing"

	"github.com/KaramelBytes/tbburden/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopIncidenceOrderAndLength(t *testing.T) {
	recs := noisyBurden()
	top := TopIncidence(recs, 10)
	require.Len(t, top, 10)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Incidence, top[i].Incidence)
	}
	assert.Equal(t, 620.0, top[0].Incidence)
	assert.Equal(t, "Country 01", recs[0].Country, "input must not be reordered")
}

func TestTopIncidenceShortInput(t *testing.T) {
	recs := tieredBurden()[:4]
	top := TopIncidence(recs, 10)
	assert.Len(t, top, 4)
	assert.Len(t, TopIncidence(nil, 10), 0)
}

func TestTopIncidenceTiesKeepInputOrder(t *testing.T) {
	recs := []dataset.Record{
		{Country: "first", Incidence: 100},
		{Country: "top", Incidence: 300},
		{Country: "second", Incidence: 100},
		{Country: "third", Incidence: 100},
	}
	top := TopIncidence(recs, 3)
	var names []string
	for _, r := range top {
		names = append(names, r.Country)
	}
	assert.Equal(t, []string{"top", "first", "second"}, names)
}
