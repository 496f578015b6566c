package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableSample(t *testing.T, rows, bands int, labels bool) *Sample {
	t.Helper()
	values := make([]float64, rows*bands)
	for i := range values {
		values[i] = float64(i)
	}
	c, err := NewCube([]string{DimSample, DimBand}, []int{rows, bands}, values)
	require.NoError(t, err)

	var y []float64
	if labels {
		y = make([]float64, rows)
		for i := range y {
			y[i] = float64(i)
		}
	}
	s, err := New(c, y, nil)
	require.NoError(t, err)
	return s
}

func TestNewValidation(t *testing.T) {
	c, err := NewCube([]string{DimSample, DimBand}, []int{3, 2}, make([]float64, 6))
	require.NoError(t, err)

	_, err = New(nil, nil, nil)
	assert.Error(t, err)

	_, err = New(c, []float64{1, 2}, nil)
	assert.Error(t, err)

	_, err = New(c, nil, []float64{1})
	assert.Error(t, err)

	s, err := New(c, []float64{1, 2, 3}, []float64{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 3, s.NumRows())
	assert.Equal(t, 2, s.NumBands())
}

func TestRow(t *testing.T) {
	s := tableSample(t, 3, 2, false)
	assert.Equal(t, []float64{0, 1}, s.Row(0))
	assert.Equal(t, []float64{4, 5}, s.Row(2))
}

func TestPartitionsCoverSample(t *testing.T) {
	s := tableSample(t, 10, 2, true)
	parts, err := s.Partitions(3)
	require.NoError(t, err)
	require.Len(t, parts, 3)

	total := 0
	for _, p := range parts {
		total += p.NumRows()
		assert.Len(t, p.Labels, p.NumRows())
	}
	assert.Equal(t, 10, total)

	// Windows are contiguous and ordered.
	assert.Equal(t, s.Row(0), parts[0].Row(0))
	last := parts[2]
	assert.Equal(t, s.Row(9), last.Row(last.NumRows()-1))
}

func TestPartitionsCapped(t *testing.T) {
	s := tableSample(t, 2, 2, false)
	parts, err := s.Partitions(5)
	require.NoError(t, err)
	assert.Len(t, parts, 2)
}

func TestPartitionsSingle(t *testing.T) {
	s := tableSample(t, 4, 2, false)
	parts, err := s.Partitions(1)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Same(t, s, parts[0])
}

func TestPartitionsInvalid(t *testing.T) {
	s := tableSample(t, 4, 2, false)
	_, err := s.Partitions(0)
	assert.Error(t, err)
}
