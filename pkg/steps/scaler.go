// Package steps provides a small set of concrete pipeline steps: a
// standard scaler, a band selector and an incremental linear estimator.
// They exist to exercise the pipeline capability contracts; the
// interesting numerics of a production deployment live in external step
// implementations.
package steps

import (
	"context"
	"encoding/gob"
	"math"

	"github.com/strataml/cubefit/pkg/errors"
	"github.com/strataml/cubefit/pkg/pipeline"
	"github.com/strataml/cubefit/pkg/sample"
)

func init() {
	gob.Register(&StandardScaler{})
	gob.Register(&BandSelector{})
	gob.Register(&SGDRegressor{})
}

// StandardScaler centers and scales each band to zero mean and unit
// variance. Supports whole-sample and incremental fitting; incremental
// statistics use Chan et al. parallel-variance merging so batch order
// does not change the result.
type StandardScaler struct {
	StepName string
	WithMean bool
	WithStd  bool

	// Fitted state
	Count float64
	Mean  []float64
	M2    []float64
}

// NewStandardScaler builds a scaler step with the given name.
func NewStandardScaler(name string, withMean, withStd bool) *StandardScaler {
	return &StandardScaler{StepName: name, WithMean: withMean, WithStd: withStd}
}

func (s *StandardScaler) Name() string { return s.StepName }

func (s *StandardScaler) Params() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

func (s *StandardScaler) WithParams(overrides map[string]interface{}) (pipeline.Step, error) {
	c := &StandardScaler{StepName: s.StepName, WithMean: s.WithMean, WithStd: s.WithStd}
	for k, v := range overrides {
		b, ok := v.(bool)
		if !ok {
			return nil, errors.Newf(errors.Configuration, "scaler parameter %q wants bool, got %T", k, v)
		}
		switch k {
		case "with_mean":
			c.WithMean = b
		case "with_std":
			c.WithStd = b
		default:
			return nil, errors.Newf(errors.Configuration, "scaler has no parameter %q", k)
		}
	}
	return c, nil
}

func (s *StandardScaler) Fit(ctx context.Context, smp *sample.Sample) error {
	s.Count = 0
	s.Mean = nil
	s.M2 = nil
	return s.PartialFit(ctx, smp)
}

func (s *StandardScaler) PartialFit(ctx context.Context, smp *sample.Sample) error {
	if err := errors.CheckContext(ctx, "scaler fit"); err != nil {
		return err
	}
	w := smp.NumBands()
	if s.Mean == nil {
		s.Mean = make([]float64, w)
		s.M2 = make([]float64, w)
	}
	if len(s.Mean) != w {
		return errors.Newf(errors.InvalidInput,
			"scaler fitted with %d bands, sample has %d", len(s.Mean), w)
	}

	rows := smp.NumRows()
	batchMean := make([]float64, w)
	batchM2 := make([]float64, w)
	for i := 0; i < rows; i++ {
		row := smp.Row(i)
		for j, v := range row {
			delta := v - batchMean[j]
			batchMean[j] += delta / float64(i+1)
			batchM2[j] += delta * (v - batchMean[j])
		}
	}

	// Merge batch statistics into the running statistics.
	n := float64(rows)
	for j := 0; j < w; j++ {
		delta := batchMean[j] - s.Mean[j]
		tot := s.Count + n
		s.Mean[j] += delta * n / tot
		s.M2[j] += batchM2[j] + delta*delta*s.Count*n/tot
	}
	s.Count += n
	return nil
}

func (s *StandardScaler) Transform(ctx context.Context, smp *sample.Sample) (*sample.Sample, error) {
	if err := errors.CheckContext(ctx, "scaler transform"); err != nil {
		return nil, err
	}
	if s.Mean == nil {
		return nil, errors.New(errors.MemberFit, "scaler transform before fit")
	}
	w := smp.NumBands()
	if len(s.Mean) != w {
		return nil, errors.Newf(errors.InvalidInput,
			"scaler fitted with %d bands, sample has %d", len(s.Mean), w)
	}

	out := make([]float64, len(smp.Features.Values))
	copy(out, smp.Features.Values)
	for j := 0; j < w; j++ {
		mean := 0.0
		if s.WithMean {
			mean = s.Mean[j]
		}
		std := 1.0
		if s.WithStd && s.Count > 1 {
			std = math.Sqrt(s.M2[j] / (s.Count - 1))
			if std == 0 {
				std = 1
			}
		}
		for i := 0; i < smp.NumRows(); i++ {
			out[i*w+j] = (out[i*w+j] - mean) / std
		}
	}

	cube := &sample.Cube{
		Dims:   smp.Features.Dims,
		Shape:  smp.Features.Shape,
		Coords: smp.Features.Coords,
		Values: out,
		Attrs:  smp.Features.Attrs,
	}
	return &sample.Sample{Features: cube, Labels: smp.Labels, Weights: smp.Weights}, nil
}

func (s *StandardScaler) FitTransform(ctx context.Context, smp *sample.Sample) (*sample.Sample, error) {
	if err := s.Fit(ctx, smp); err != nil {
		return nil, err
	}
	return s.Transform(ctx, smp)
}
