package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataml/cubefit/pkg/errors"
	"github.com/strataml/cubefit/pkg/pipeline"
	"github.com/strataml/cubefit/pkg/sample"
)

type constEstimator struct{ name string }

func (c *constEstimator) Name() string                    { return c.name }
func (c *constEstimator) Params() map[string]interface{}  { return map[string]interface{}{} }
func (c *constEstimator) WithParams(map[string]interface{}) (pipeline.Step, error) {
	return &constEstimator{name: c.name}, nil
}
func (c *constEstimator) Fit(context.Context, *sample.Sample) error { return nil }
func (c *constEstimator) Predict(_ context.Context, s *sample.Sample) ([]float64, error) {
	return make([]float64, s.NumRows()), nil
}

func evalSample(t *testing.T) *sample.Sample {
	t.Helper()
	cube, err := sample.NewCube(
		[]string{sample.DimSample, sample.DimBand}, []int{2, 1}, []float64{1, 2})
	require.NoError(t, err)
	s, err := sample.New(cube, []float64{1, 2}, nil)
	require.NoError(t, err)
	return s
}

func TestEvaluatorScoreWithScoring(t *testing.T) {
	scoring := func(context.Context, *pipeline.Pipeline, *sample.Sample, map[string]interface{}) ([]float64, error) {
		return []float64{0.7, 0.1}, nil
	}
	p, err := pipeline.New(
		[]pipeline.Step{&constEstimator{name: "est"}},
		pipeline.WithScoring(scoring, nil),
		pipeline.WithObjectiveWeights(1, -1),
	)
	require.NoError(t, err)

	rec, err := Evaluator{}.Score(context.Background(), "m0", p, evalSample(t))
	require.NoError(t, err)
	assert.Equal(t, "m0", rec.Tag)
	assert.Equal(t, []float64{0.7, 0.1}, rec.Scores)
	assert.Equal(t, []float64{1, -1}, rec.Weights)
}

func TestEvaluatorDefaultsWeights(t *testing.T) {
	scoring := func(context.Context, *pipeline.Pipeline, *sample.Sample, map[string]interface{}) ([]float64, error) {
		return []float64{0.7}, nil
	}
	p, err := pipeline.New(
		[]pipeline.Step{&constEstimator{name: "est"}},
		pipeline.WithScoring(scoring, nil),
	)
	require.NoError(t, err)

	rec, err := Evaluator{}.Score(context.Background(), "m0", p, evalSample(t))
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, rec.Weights)
}

func TestEvaluatorWeightLengthMismatch(t *testing.T) {
	scoring := func(context.Context, *pipeline.Pipeline, *sample.Sample, map[string]interface{}) ([]float64, error) {
		return []float64{0.7, 0.1}, nil
	}
	p, err := pipeline.New(
		[]pipeline.Step{&constEstimator{name: "est"}},
		pipeline.WithScoring(scoring, nil),
		pipeline.WithObjectiveWeights(1),
	)
	require.NoError(t, err)

	_, err = Evaluator{}.Score(context.Background(), "m0", p, evalSample(t))
	assert.True(t, errors.HasCode(err, errors.Configuration))
}

func TestEvaluatorNoScoringAnywhere(t *testing.T) {
	p, err := pipeline.New([]pipeline.Step{&constEstimator{name: "est"}})
	require.NoError(t, err)

	rec, err := Evaluator{}.Score(context.Background(), "m0", p, evalSample(t))
	require.NoError(t, err)
	assert.Nil(t, rec.Scores)
}

func TestValidateRecords(t *testing.T) {
	n, err := ValidateRecords([]ScoreRecord{
		{Tag: "a", Scores: []float64{1, 2}},
		{Tag: "b", Scores: []float64{3, 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = ValidateRecords([]ScoreRecord{
		{Tag: "a", Scores: []float64{1, 2}},
		{Tag: "b", Scores: []float64{3}},
	})
	assert.Error(t, err)

	_, err = ValidateRecords([]ScoreRecord{
		{Tag: "a", Scores: []float64{1}},
		{Tag: "b"},
	})
	assert.Error(t, err)

	n, err = ValidateRecords([]ScoreRecord{{Tag: "a"}, {Tag: "b"}})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
