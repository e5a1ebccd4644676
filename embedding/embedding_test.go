package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPositionsSpatialOnly(t *testing.T) {
	// 2x3 grid, spatialStd 2: positions are (row/2, col/2) in row-major
	// sample order.
	dims := []int{2, 3}
	dst := make([]float32, 6*2)

	require.NoError(t, BuildPositions(dst, nil, dims, 0, 2, 0, false))

	expected := []float32{
		0, 0, 0, 0.5, 0, 1,
		0.5, 0, 0.5, 0.5, 0.5, 1,
	}
	for i := range expected {
		assert.InDelta(t, expected[i], dst[i], 1e-6, "element %d", i)
	}
}

func TestBuildPositionsBilateral(t *testing.T) {
	dims := []int{2, 2}
	ref := []float32{10, 20, 30, 40} // one channel per sample
	pd := PositionDims(dims, 1, true)
	require.Equal(t, 3, pd)

	dst := make([]float32, 4*pd)
	require.NoError(t, BuildPositions(dst, ref, dims, 1, 1, 10, true))

	// Sample 3 is grid (1,1) with reference value 40.
	assert.InDelta(t, 1, dst[3*pd], 1e-6)
	assert.InDelta(t, 1, dst[3*pd+1], 1e-6)
	assert.InDelta(t, 4, dst[3*pd+2], 1e-6)
}

func TestBuildPositionsValidation(t *testing.T) {
	dims := []int{4}

	err := BuildPositions(make([]float32, 4), nil, dims, 0, 0, 1, false)
	var bwErr *ErrInvalidBandwidth
	require.ErrorAs(t, err, &bwErr)
	assert.Equal(t, "spatialStd", bwErr.Name)

	err = BuildPositions(make([]float32, 8), make([]float32, 4), dims, 1, 1, -1, true)
	require.ErrorAs(t, err, &bwErr)
	assert.Equal(t, "featuresStd", bwErr.Name)

	err = BuildPositions(make([]float32, 2), nil, dims, 0, 1, 1, false)
	var shortErr *ErrShortBuffer
	require.ErrorAs(t, err, &shortErr)
	assert.Equal(t, "dst", shortErr.Name)

	err = BuildPositions(make([]float32, 8), make([]float32, 1), dims, 1, 1, 1, true)
	require.ErrorAs(t, err, &shortErr)
	assert.Equal(t, "reference", shortErr.Name)
}

func TestNumSamples(t *testing.T) {
	assert.Equal(t, 12, NumSamples([]int{3, 4}))
	assert.Equal(t, 1, NumSamples(nil))
}
