package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParetoRankSingleObjectiveMinimize(t *testing.T) {
	order, err := ParetoRank([][]float64{{3}, {1}, {2}}, []float64{-1})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0}, order)
}

func TestParetoRankSingleObjectiveMaximize(t *testing.T) {
	order, err := ParetoRank([][]float64{{3}, {1}, {2}}, []float64{1})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 1}, order)
}

func TestParetoRankDominatedLast(t *testing.T) {
	// A=[1,5] and B=[2,4] are mutually non-dominated; C=[1,4] is
	// dominated by both, so it lands in the second front.
	order, err := ParetoRank([][]float64{
		{1, 5},
		{2, 4},
		{1, 4},
	}, []float64{1, 1})
	require.NoError(t, err)

	require.Len(t, order, 3)
	assert.Equal(t, 2, order[2], "dominated candidate ranks last")
	assert.ElementsMatch(t, []int{0, 1}, order[:2])
}

func TestParetoRankSecondaryKey(t *testing.T) {
	// One non-dominated front; the normalized-sum key decides the order.
	// Candidate 1 is best on both normalized scales.
	order, err := ParetoRank([][]float64{
		{0, 10},
		{5, 9},
		{10, 0},
	}, []float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, order[0])
}

func TestParetoRankTiesBreakByIndex(t *testing.T) {
	order, err := ParetoRank([][]float64{
		{1, 1},
		{1, 1},
		{1, 1},
	}, []float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestParetoRankMixedWeights(t *testing.T) {
	// Second objective minimized: [2,1] beats [2,3] outright.
	order, err := ParetoRank([][]float64{
		{2, 3},
		{2, 1},
	}, []float64{1, -1})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, order)
}

func TestParetoRankValidation(t *testing.T) {
	_, err := ParetoRank([][]float64{{1}}, []float64{0.5})
	assert.Error(t, err)

	_, err = ParetoRank([][]float64{{1, 2}, {1}}, []float64{1, 1})
	assert.Error(t, err)

	order, err := ParetoRank(nil, []float64{1})
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestRankRecordsWithoutScores(t *testing.T) {
	order, err := RankRecords([]ScoreRecord{
		{Tag: "a"},
		{Tag: "b"},
		{Tag: "c"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestRankRecordsScored(t *testing.T) {
	order, err := RankRecords([]ScoreRecord{
		{Tag: "a", Scores: []float64{0.2}, Weights: []float64{1}},
		{Tag: "b", Scores: []float64{0.9}, Weights: []float64{1}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, order)
}
