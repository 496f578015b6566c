package datasets

import (
	"context"
	"math/rand"

	"github.com/strataml/cubefit/pkg/ensemble"
	"github.com/strataml/cubefit/pkg/errors"
	"github.com/strataml/cubefit/pkg/sample"
)

// SyntheticSource generates labeled regression samples from a fixed
// linear model plus gaussian noise. Each sampler call is seeded from its
// arguments, so a given args list reproduces the same sample sequence.
type SyntheticSource struct {
	Bands []string
	Coef  []float64
	Noise float64
}

// NewSyntheticSource builds a source with one coefficient per band.
func NewSyntheticSource(bands []string, coef []float64, noise float64) (*SyntheticSource, error) {
	if len(bands) != len(coef) {
		return nil, errors.Newf(errors.InvalidInput,
			"%d bands but %d coefficients", len(bands), len(coef))
	}
	return &SyntheticSource{Bands: bands, Coef: coef, Noise: noise}, nil
}

// ArgsList builds n argument tuples of the given row count, seeded
// deterministically.
func (s *SyntheticSource) ArgsList(n, rows int) [][]interface{} {
	args := make([][]interface{}, n)
	for i := range args {
		args[i] = []interface{}{rows, int64(i + 1)}
	}
	return args
}

// Sampler returns the sampling function: args are (rows int, seed int64).
func (s *SyntheticSource) Sampler() ensemble.Sampler {
	return func(ctx context.Context, args ...interface{}) (*sample.Sample, error) {
		if len(args) != 2 {
			return nil, errors.Newf(errors.SampleAcquisition,
				"synthetic sampler wants (rows, seed), got %d args", len(args))
		}
		rows, ok := args[0].(int)
		if !ok {
			return nil, errors.Newf(errors.SampleAcquisition, "rows argument wants int, got %T", args[0])
		}
		seed, ok := args[1].(int64)
		if !ok {
			return nil, errors.Newf(errors.SampleAcquisition, "seed argument wants int64, got %T", args[1])
		}
		return s.Generate(rows, seed)
	}
}

// Generate materializes one sample.
func (s *SyntheticSource) Generate(rows int, seed int64) (*sample.Sample, error) {
	if rows < 1 {
		return nil, errors.Newf(errors.SampleAcquisition, "rows must be >= 1, got %d", rows)
	}
	rng := rand.New(rand.NewSource(seed))

	nBands := len(s.Bands)
	values := make([]float64, rows*nBands)
	labels := make([]float64, rows)
	for i := 0; i < rows; i++ {
		y := 0.0
		for j := 0; j < nBands; j++ {
			v := rng.NormFloat64()
			values[i*nBands+j] = v
			y += s.Coef[j] * v
		}
		labels[i] = y + rng.NormFloat64()*s.Noise
	}

	cube, err := sample.NewCube([]string{sample.DimSample, sample.DimBand}, []int{rows, nBands}, values)
	if err != nil {
		return nil, err
	}
	cube.Coords[sample.DimBand] = s.Bands

	return sample.New(cube, labels, nil)
}
