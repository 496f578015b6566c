package sample

import (
	"github.com/strataml/cubefit/pkg/errors"
)

// Sample is one batch of features, labels and weights fed to a single fit
// or predict call. Labels and weights are optional and, when present,
// align to the feature cube's sample axis (axis 0). Samples are produced
// by a sampler, consumed once, and never mutated after submission.
type Sample struct {
	Features *Cube
	Labels   []float64
	Weights  []float64
}

// New builds a Sample, validating label/weight alignment against the
// feature cube's sample axis.
func New(features *Cube, labels, weights []float64) (*Sample, error) {
	if features == nil {
		return nil, errors.New(errors.InvalidInput, "sample requires a feature cube")
	}
	rows := features.Shape[0]
	if labels != nil && len(labels) != rows {
		return nil, errors.Newf(errors.InvalidInput,
			"labels length %d does not match sample axis %d", len(labels), rows)
	}
	if weights != nil && len(weights) != rows {
		return nil, errors.Newf(errors.InvalidInput,
			"weights length %d does not match sample axis %d", len(weights), rows)
	}
	return &Sample{Features: features, Labels: labels, Weights: weights}, nil
}

// NumRows returns the length of the sample axis.
func (s *Sample) NumRows() int {
	return s.Features.Shape[0]
}

// NumBands returns the width of a table-shaped sample.
func (s *Sample) NumBands() int {
	if len(s.Features.Shape) < 2 {
		return 1
	}
	return s.Features.Shape[len(s.Features.Shape)-1]
}

// Row returns one feature row of a table-shaped (2-D) sample.
func (s *Sample) Row(i int) []float64 {
	w := s.NumBands()
	return s.Features.Values[i*w : (i+1)*w]
}

// Partitions splits a table-shaped sample into k contiguous windows along
// the sample axis for sequential partial-fit batches. The windows cover
// the whole sample; k is capped at the row count.
func (s *Sample) Partitions(k int) ([]*Sample, error) {
	if k < 1 {
		return nil, errors.Newf(errors.InvalidInput, "partition count must be >= 1, got %d", k)
	}
	if len(s.Features.Shape) != 2 {
		return nil, errors.New(errors.InvalidInput, "partitioning requires a table-shaped sample")
	}
	rows := s.NumRows()
	if k > rows {
		k = rows
	}
	if k == 1 {
		return []*Sample{s}, nil
	}

	w := s.NumBands()
	parts := make([]*Sample, 0, k)
	for i := 0; i < k; i++ {
		lo := i * rows / k
		hi := (i + 1) * rows / k
		sub := &Cube{
			Dims:   s.Features.Dims,
			Shape:  []int{hi - lo, w},
			Coords: s.Features.Coords,
			Values: s.Features.Values[lo*w : hi*w],
			Attrs:  s.Features.Attrs,
		}
		part := &Sample{Features: sub}
		if s.Labels != nil {
			part.Labels = s.Labels[lo:hi]
		}
		if s.Weights != nil {
			part.Weights = s.Weights[lo:hi]
		}
		parts = append(parts, part)
	}
	return parts, nil
}
