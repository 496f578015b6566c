package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataml/cubefit/pkg/errors"
	"github.com/strataml/cubefit/pkg/scoring"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := NewRecorder(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRecordAndReadScores(t *testing.T) {
	r := newTestRecorder(t)

	require.NoError(t, r.RecordScores("run-1", 0, []scoring.ScoreRecord{
		{Tag: "m0", Scores: []float64{0.1, 0.5}, Weights: []float64{1, -1}},
		{Tag: "m1", Scores: []float64{0.9, 0.2}, Weights: []float64{1, -1}},
	}))
	require.NoError(t, r.RecordScores("run-1", 1, []scoring.ScoreRecord{
		{Tag: "m1", Scores: []float64{0.95, 0.1}, Weights: []float64{1, -1}},
	}))

	rows, err := r.Scores("run-1")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 0, rows[0].Generation)
	assert.Equal(t, "m0", rows[0].Tag)
	assert.Equal(t, []float64{0.1, 0.5}, rows[0].Scores)
	assert.Equal(t, []float64{1, -1}, rows[0].Weights)
	assert.Equal(t, 1, rows[2].Generation)
}

func TestScoresIsolatedByRun(t *testing.T) {
	r := newTestRecorder(t)

	require.NoError(t, r.RecordScores("run-a", 0, []scoring.ScoreRecord{
		{Tag: "m0", Scores: []float64{1}, Weights: []float64{1}},
	}))
	require.NoError(t, r.RecordScores("run-b", 0, []scoring.ScoreRecord{
		{Tag: "m0", Scores: []float64{2}, Weights: []float64{1}},
	}))

	rows, err := r.Scores("run-a")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []float64{1}, rows[0].Scores)
}

func TestRecordScoresWithoutScoring(t *testing.T) {
	r := newTestRecorder(t)

	require.NoError(t, r.RecordScores("run-1", 0, []scoring.ScoreRecord{{Tag: "m0"}}))

	rows, err := r.Scores("run-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Scores)
}

func TestRecordAndReadFailures(t *testing.T) {
	r := newTestRecorder(t)

	require.NoError(t, r.RecordFailure("run-1", 0, "m1", "fit",
		errors.New(errors.MemberFit, "diverged")))
	require.NoError(t, r.RecordFailure("run-1", 2, "m0", "predict",
		errors.New(errors.MemberPredict, "shape mismatch")))

	rows, err := r.Failures("run-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 0, rows[0].Generation)
	assert.Equal(t, "m1", rows[0].Tag)
	assert.Equal(t, "fit", rows[0].Phase)
	assert.Contains(t, rows[0].Error, "diverged")
	assert.Equal(t, "predict", rows[1].Phase)
}

func TestEmptyRun(t *testing.T) {
	r := newTestRecorder(t)

	rows, err := r.Scores("nosuch")
	require.NoError(t, err)
	assert.Empty(t, rows)

	failures, err := r.Failures("nosuch")
	require.NoError(t, err)
	assert.Empty(t, failures)
}
