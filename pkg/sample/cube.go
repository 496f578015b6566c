package sample

import (
	"github.com/strataml/cubefit/pkg/errors"
)

// Attribute keys recorded on a flattened cube so predictions can be
// reshaped back to the original layout.
const (
	AttrPreFlattenDims   = "pre_flatten_dims"
	AttrPreFlattenShape  = "pre_flatten_shape"
	AttrPreFlattenCoords = "pre_flatten_coords"
)

// DimSample is the name of the synthetic row dimension a flattened cube
// gains; DimBand is the conventional name of the band dimension.
const (
	DimSample = "sample"
	DimBand   = "band"
)

// Cube is a labeled multi-dimensional float64 array. Values are stored
// row-major over Shape. Coords optionally names positions along a
// dimension (the band dimension always carries coords, giving the cube
// its band order). Attrs holds arbitrary metadata.
//
// Once a Cube has been handed to the engine it is treated as read-only:
// concurrent fit jobs in one generation share it without copying.
type Cube struct {
	Dims   []string
	Shape  []int
	Coords map[string][]string
	Values []float64
	Attrs  map[string]interface{}
}

// NewCube builds a cube after validating that the value count matches the
// shape product and that dims and shape agree.
func NewCube(dims []string, shape []int, values []float64) (*Cube, error) {
	if len(dims) != len(shape) {
		return nil, errors.Newf(errors.InvalidInput,
			"cube dims/shape mismatch: %d dims, %d shape entries", len(dims), len(shape))
	}
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return nil, errors.Newf(errors.InvalidInput, "cube shape entry must be positive, got %d", s)
		}
		n *= s
	}
	if len(values) != n {
		return nil, errors.Newf(errors.InvalidInput,
			"cube has %d values, shape requires %d", len(values), n)
	}
	return &Cube{
		Dims:   dims,
		Shape:  shape,
		Coords: make(map[string][]string),
		Values: values,
		Attrs:  make(map[string]interface{}),
	}, nil
}

// Size returns the total number of elements.
func (c *Cube) Size() int {
	n := 1
	for _, s := range c.Shape {
		n *= s
	}
	return n
}

// DimIndex returns the axis position of the named dimension, or -1.
func (c *Cube) DimIndex(name string) int {
	for i, d := range c.Dims {
		if d == name {
			return i
		}
	}
	return -1
}

// Bands returns the coordinate labels of the band dimension, preserving
// band order. Nil when the cube has no band dimension.
func (c *Cube) Bands() []string {
	return c.Coords[DimBand]
}

// strides returns row-major strides for the cube's shape.
func (c *Cube) strides() []int {
	st := make([]int, len(c.Shape))
	acc := 1
	for i := len(c.Shape) - 1; i >= 0; i-- {
		st[i] = acc
		acc *= c.Shape[i]
	}
	return st
}

// Flatten collapses every non-band dimension into a single leading sample
// axis, producing a 2-D (sample x band) table cube. The original dims,
// shape and coords are recorded in Attrs so a 1-D prediction aligned to
// the sample axis can be reshaped back with UnflattenPredictions.
func (c *Cube) Flatten() (*Cube, error) {
	bandAxis := c.DimIndex(DimBand)
	if bandAxis < 0 {
		return nil, errors.Newf(errors.InvalidInput, "cube has no %q dimension", DimBand)
	}
	nBands := c.Shape[bandAxis]
	nRows := c.Size() / nBands

	st := c.strides()
	out := make([]float64, c.Size())

	// Walk every element once; its flattened row is the row-major rank of
	// its non-band coordinates, its column is the band index.
	idx := make([]int, len(c.Shape))
	for flat := 0; flat < len(c.Values); flat++ {
		rem := flat
		for ax := range c.Shape {
			idx[ax] = rem / st[ax]
			rem %= st[ax]
		}
		row := 0
		for ax := range c.Shape {
			if ax == bandAxis {
				continue
			}
			row = row*c.Shape[ax] + idx[ax]
		}
		out[row*nBands+idx[bandAxis]] = c.Values[flat]
	}

	flatCoords := make(map[string][]string)
	if bands := c.Coords[DimBand]; bands != nil {
		flatCoords[DimBand] = bands
	}

	preDims := make([]string, 0, len(c.Dims)-1)
	preShape := make([]int, 0, len(c.Dims)-1)
	preCoords := make(map[string][]string)
	for ax, d := range c.Dims {
		if ax == bandAxis {
			continue
		}
		preDims = append(preDims, d)
		preShape = append(preShape, c.Shape[ax])
		if coords, ok := c.Coords[d]; ok {
			preCoords[d] = coords
		}
	}

	attrs := make(map[string]interface{}, len(c.Attrs)+3)
	for k, v := range c.Attrs {
		attrs[k] = v
	}
	attrs[AttrPreFlattenDims] = preDims
	attrs[AttrPreFlattenShape] = preShape
	attrs[AttrPreFlattenCoords] = preCoords

	return &Cube{
		Dims:   []string{DimSample, DimBand},
		Shape:  []int{nRows, nBands},
		Coords: flatCoords,
		Values: out,
		Attrs:  attrs,
	}, nil
}

// UnflattenPredictions reshapes a 1-D prediction aligned to flat's sample
// axis back into the spatial layout recorded when flat was flattened. It
// is the pure geometric inverse of Flatten on the non-band dimensions.
func UnflattenPredictions(flat *Cube, preds []float64) (*Cube, error) {
	dims, ok := flat.Attrs[AttrPreFlattenDims].([]string)
	if !ok {
		return nil, errors.New(errors.InvalidInput, "cube carries no pre-flatten layout")
	}
	shape, ok := flat.Attrs[AttrPreFlattenShape].([]int)
	if !ok {
		return nil, errors.New(errors.InvalidInput, "cube carries no pre-flatten shape")
	}

	n := 1
	for _, s := range shape {
		n *= s
	}
	if len(preds) != n {
		return nil, errors.Newf(errors.InvalidInput,
			"prediction length %d does not match pre-flatten size %d", len(preds), n)
	}

	out, err := NewCube(dims, shape, preds)
	if err != nil {
		return nil, err
	}
	if coords, ok := flat.Attrs[AttrPreFlattenCoords].(map[string][]string); ok {
		for d, c := range coords {
			out.Coords[d] = c
		}
	}
	return out, nil
}
