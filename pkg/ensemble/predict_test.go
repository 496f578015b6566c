package ensemble

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataml/cubefit/pkg/errors"
	"github.com/strataml/cubefit/pkg/sample"
)

// fittedEngine runs one trivial generation so the engine holds a fitted
// ensemble of the given size.
func fittedEngine(t *testing.T, size int) *Engine {
	t.Helper()
	e, err := New(stubTemplate(t, &stubControl{}))
	require.NoError(t, err)
	_, err = e.FitEnsemble(context.Background(), FitOptions{
		Sample:   gridSample(t, 4),
		NGen:     1,
		InitSize: size,
	})
	require.NoError(t, err)
	return e
}

func TestPredictManyCrossProduct(t *testing.T) {
	e := fittedEngine(t, 2)

	s := gridSample(t, 3)
	sampler := func(ctx context.Context, args ...interface{}) (*sample.Sample, error) {
		return s, nil
	}

	res, err := e.PredictMany(context.Background(), PredictOptions{
		Sampler:  sampler,
		ArgsList: [][]interface{}{{0}, {1}},
	})
	require.NoError(t, err)

	// 2 members x 2 samples, member-major submission order.
	require.Len(t, res.Outputs, 4)
	assert.Empty(t, res.Failures)

	first := res.Outputs[0].(*Prediction)
	second := res.Outputs[1].(*Prediction)
	assert.Equal(t, first.Tag, second.Tag, "outputs iterate samples within a member")
	assert.Equal(t, 0, first.SampleIndex)
	assert.Equal(t, 1, second.SampleIndex)
	assert.Len(t, first.Values, 3)
}

func TestPredictManyFailureOmitted(t *testing.T) {
	e := fittedEngine(t, 1)
	fitted := e.Ensemble()[0]

	unfitted, err := fitted.Pipeline.Clone()
	require.NoError(t, err)

	res, err := e.PredictMany(context.Background(), PredictOptions{
		Members: []Member{fitted, {Tag: "broken", Pipeline: unfitted}},
		Sample:  gridSample(t, 2),
	})
	require.NoError(t, err, "a failing pair is not a call failure")

	require.Len(t, res.Outputs, 1)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "broken", res.Failures[0].Tag)
	assert.Equal(t, 0, res.Failures[0].SampleIndex)
	assert.True(t, errors.HasCode(res.Failures[0].Err, errors.MemberPredict))
}

func TestPredictManySerialize(t *testing.T) {
	e := fittedEngine(t, 1)

	res, err := e.PredictMany(context.Background(), PredictOptions{
		Sample: gridSample(t, 2),
		Serialize: func(y *Prediction, x *sample.Sample, tag string) (interface{}, error) {
			return fmt.Sprintf("%s:%d", tag, len(y.Values)), nil
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Outputs, 1)
	assert.Equal(t, e.Ensemble()[0].Tag+":2", res.Outputs[0])
}

func TestPredictManySerializeErrorIsPairFailure(t *testing.T) {
	e := fittedEngine(t, 1)

	res, err := e.PredictMany(context.Background(), PredictOptions{
		Sample: gridSample(t, 2),
		Serialize: func(*Prediction, *sample.Sample, string) (interface{}, error) {
			return nil, errors.New(errors.Unknown, "sink unavailable")
		},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Outputs)
	require.Len(t, res.Failures, 1)
}

func TestPredictManyToCube(t *testing.T) {
	e := fittedEngine(t, 1)

	// A 2x3 spatial grid with 2 bands, flattened to a 6-row table.
	spatial, err := sample.NewCube(
		[]string{"y", "x", sample.DimBand}, []int{2, 3, 2}, make([]float64, 12))
	require.NoError(t, err)
	flat, err := spatial.Flatten()
	require.NoError(t, err)
	s, err := sample.New(flat, nil, nil)
	require.NoError(t, err)

	res, err := e.PredictMany(context.Background(), PredictOptions{
		Sample: s,
		ToCube: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Outputs, 1)

	pred := res.Outputs[0].(*Prediction)
	require.NotNil(t, pred.Cube)
	assert.Equal(t, []string{"y", "x"}, pred.Cube.Dims)
	assert.Equal(t, []int{2, 3}, pred.Cube.Shape)
	assert.Len(t, pred.Cube.Values, 6)
}

func TestPredictManyValidation(t *testing.T) {
	e, err := New(stubTemplate(t, &stubControl{}))
	require.NoError(t, err)

	// No prior fit and no explicit members.
	_, err = e.PredictMany(context.Background(), PredictOptions{Sample: gridSample(t, 2)})
	assert.True(t, errors.HasCode(err, errors.Configuration))

	fitted := fittedEngine(t, 1)
	_, err = fitted.PredictMany(context.Background(), PredictOptions{})
	assert.True(t, errors.HasCode(err, errors.Configuration))

	_, err = fitted.PredictMany(context.Background(), PredictOptions{
		Sampler: func(ctx context.Context, args ...interface{}) (*sample.Sample, error) { return nil, nil },
	})
	assert.True(t, errors.HasCode(err, errors.Configuration))
}
