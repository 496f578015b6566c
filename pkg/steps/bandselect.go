package steps

import (
	"context"

	"github.com/strataml/cubefit/pkg/errors"
	"github.com/strataml/cubefit/pkg/pipeline"
	"github.com/strataml/cubefit/pkg/sample"
)

// BandSelector keeps only the named bands of a table-shaped sample, in
// the order given. It is a pure transform with no fitted state.
type BandSelector struct {
	StepName string
	Bands    []string
}

// NewBandSelector builds a selector for the given band names.
func NewBandSelector(name string, bands ...string) *BandSelector {
	return &BandSelector{StepName: name, Bands: bands}
}

func (b *BandSelector) Name() string { return b.StepName }

func (b *BandSelector) Params() map[string]interface{} {
	return map[string]interface{}{"bands": b.Bands}
}

func (b *BandSelector) WithParams(overrides map[string]interface{}) (pipeline.Step, error) {
	bands := make([]string, len(b.Bands))
	copy(bands, b.Bands)
	c := &BandSelector{StepName: b.StepName, Bands: bands}
	for k, v := range overrides {
		if k != "bands" {
			return nil, errors.Newf(errors.Configuration, "band selector has no parameter %q", k)
		}
		sel, ok := v.([]string)
		if !ok {
			return nil, errors.Newf(errors.Configuration, "bands parameter wants []string, got %T", v)
		}
		c.Bands = sel
	}
	return c, nil
}

func (b *BandSelector) Transform(ctx context.Context, smp *sample.Sample) (*sample.Sample, error) {
	if err := errors.CheckContext(ctx, "band select"); err != nil {
		return nil, err
	}
	have := smp.Features.Bands()
	if have == nil {
		return nil, errors.New(errors.InvalidInput, "sample carries no band coordinates")
	}
	pos := make(map[string]int, len(have))
	for i, name := range have {
		pos[name] = i
	}

	cols := make([]int, len(b.Bands))
	for i, name := range b.Bands {
		j, ok := pos[name]
		if !ok {
			return nil, errors.Newf(errors.InvalidInput, "sample has no band %q", name)
		}
		cols[i] = j
	}

	rows := smp.NumRows()
	w := smp.NumBands()
	out := make([]float64, rows*len(cols))
	for i := 0; i < rows; i++ {
		for k, j := range cols {
			out[i*len(cols)+k] = smp.Features.Values[i*w+j]
		}
	}

	coords := map[string][]string{sample.DimBand: b.Bands}
	cube := &sample.Cube{
		Dims:   []string{sample.DimSample, sample.DimBand},
		Shape:  []int{rows, len(cols)},
		Coords: coords,
		Values: out,
		Attrs:  smp.Features.Attrs,
	}
	return &sample.Sample{Features: cube, Labels: smp.Labels, Weights: smp.Weights}, nil
}
