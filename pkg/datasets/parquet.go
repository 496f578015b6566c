// Package datasets provides sample sources for the ensemble engine: a
// Parquet-backed source for real feature tables and a synthetic source
// for tests and demos.
package datasets

import (
	"context"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/apache/arrow/go/v13/parquet/file"
	"github.com/apache/arrow/go/v13/parquet/pqarrow"

	"github.com/strataml/cubefit/pkg/ensemble"
	"github.com/strataml/cubefit/pkg/errors"
	"github.com/strataml/cubefit/pkg/sample"
)

// ParquetSource produces one Sample per Parquet row group. Feature
// columns become the sample's bands in the order given; the optional
// label and weight columns align to the sample axis.
type ParquetSource struct {
	Path           string
	FeatureColumns []string
	LabelColumn    string
	WeightColumn   string
}

// NumRowGroups opens the file and returns its row-group count.
func (p *ParquetSource) NumRowGroups() (int, error) {
	reader, err := file.OpenParquetFile(p.Path, false)
	if err != nil {
		return 0, errors.Wrap(err, errors.SampleAcquisition, "opening parquet file")
	}
	defer reader.Close()
	return reader.NumRowGroups(), nil
}

// ArgsList returns one sampler argument tuple per row group, the natural
// args list for a fit call over the whole file.
func (p *ParquetSource) ArgsList() ([][]interface{}, error) {
	n, err := p.NumRowGroups()
	if err != nil {
		return nil, err
	}
	args := make([][]interface{}, n)
	for i := range args {
		args[i] = []interface{}{i}
	}
	return args, nil
}

// Sampler returns the sampling function: args[0] is the row-group index.
func (p *ParquetSource) Sampler() ensemble.Sampler {
	return func(ctx context.Context, args ...interface{}) (*sample.Sample, error) {
		if len(args) != 1 {
			return nil, errors.Newf(errors.SampleAcquisition,
				"parquet sampler wants one row-group argument, got %d", len(args))
		}
		rowGroup, ok := args[0].(int)
		if !ok {
			return nil, errors.Newf(errors.SampleAcquisition,
				"row-group argument wants int, got %T", args[0])
		}
		return p.ReadRowGroup(ctx, rowGroup)
	}
}

// ReadRowGroup materializes one row group as a table-shaped Sample.
func (p *ParquetSource) ReadRowGroup(ctx context.Context, rowGroup int) (*sample.Sample, error) {
	reader, err := file.OpenParquetFile(p.Path, false)
	if err != nil {
		return nil, errors.Wrap(err, errors.SampleAcquisition, "opening parquet file")
	}
	defer reader.Close()

	if rowGroup < 0 || rowGroup >= reader.NumRowGroups() {
		return nil, errors.Newf(errors.SampleAcquisition,
			"row group %d out of range, file has %d", rowGroup, reader.NumRowGroups())
	}

	arrowReader, err := pqarrow.NewFileReader(reader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, errors.Wrap(err, errors.SampleAcquisition, "creating arrow reader")
	}

	table, err := arrowReader.ReadRowGroups(ctx, nil, []int{rowGroup})
	if err != nil {
		return nil, errors.Wrap(err, errors.SampleAcquisition, "reading row group")
	}
	defer table.Release()

	rows := int(table.NumRows())
	nBands := len(p.FeatureColumns)

	values := make([]float64, rows*nBands)
	for j, name := range p.FeatureColumns {
		col, err := columnValues(table, name)
		if err != nil {
			return nil, err
		}
		for i, v := range col {
			values[i*nBands+j] = v
		}
	}

	cube, err := sample.NewCube([]string{sample.DimSample, sample.DimBand}, []int{rows, nBands}, values)
	if err != nil {
		return nil, err
	}
	cube.Coords[sample.DimBand] = p.FeatureColumns
	cube.Attrs["source"] = p.Path
	cube.Attrs["row_group"] = rowGroup

	var labels, weights []float64
	if p.LabelColumn != "" {
		if labels, err = columnValues(table, p.LabelColumn); err != nil {
			return nil, err
		}
	}
	if p.WeightColumn != "" {
		if weights, err = columnValues(table, p.WeightColumn); err != nil {
			return nil, err
		}
	}

	return sample.New(cube, labels, weights)
}

// columnValues extracts one named numeric column as float64.
func columnValues(table arrow.Table, name string) ([]float64, error) {
	indices := table.Schema().FieldIndices(name)
	if len(indices) == 0 {
		return nil, errors.Newf(errors.SampleAcquisition, "column %q not found in schema", name)
	}
	col := table.Column(indices[0])

	out := make([]float64, 0, table.NumRows())
	for _, chunk := range col.Data().Chunks() {
		switch arr := chunk.(type) {
		case *array.Float64:
			for i := 0; i < arr.Len(); i++ {
				out = append(out, arr.Value(i))
			}
		case *array.Float32:
			for i := 0; i < arr.Len(); i++ {
				out = append(out, float64(arr.Value(i)))
			}
		case *array.Int64:
			for i := 0; i < arr.Len(); i++ {
				out = append(out, float64(arr.Value(i)))
			}
		case *array.Int32:
			for i := 0; i < arr.Len(); i++ {
				out = append(out, float64(arr.Value(i)))
			}
		default:
			return nil, errors.Newf(errors.SampleAcquisition,
				"column %q has unsupported type %s", name, chunk.DataType())
		}
	}
	return out, nil
}
