// Package embedding builds the per-sample position vectors consumed by the
// lattice filter.
//
// A position is the sample's feature-space coordinate: for a pure spatial
// (Gaussian) filter it is the grid coordinate divided by the spatial
// bandwidth; for a bilateral filter the reference image's channel values
// divided by the feature bandwidth are appended. Larger bandwidths move
// positions closer together, which makes more samples share lattice
// simplices and therefore blend.
package embedding

import "fmt"

// ErrInvalidBandwidth is a named error type for a non-positive filter
// bandwidth.
type ErrInvalidBandwidth struct {
	Name  string  // "spatialStd" or "featuresStd"
	Value float32 // Offending value
}

// Error returns the error message for an invalid bandwidth.
func (e *ErrInvalidBandwidth) Error() string {
	return fmt.Sprintf("invalid bandwidth %s: %v (must be positive)", e.Name, e.Value)
}

// ErrShortBuffer is a named error type for an undersized caller buffer.
type ErrShortBuffer struct {
	Name     string
	Expected int
	Actual   int
}

// Error returns the error message for an undersized buffer.
func (e *ErrShortBuffer) Error() string {
	return fmt.Sprintf("buffer %s: expected %d elements, got %d", e.Name, e.Expected, e.Actual)
}

// PositionDims returns the position dimensionality pd produced by
// BuildPositions for the given configuration.
func PositionDims(spatialDims []int, refChannels int, bilateral bool) int {
	if bilateral {
		return len(spatialDims) + refChannels
	}
	return len(spatialDims)
}

// NumSamples returns the number of grid samples spanned by spatialDims.
func NumSamples(spatialDims []int) int {
	n := 1
	for _, d := range spatialDims {
		n *= d
	}
	return n
}

// BuildPositions fills dst with one pd-dimensional position per grid sample,
// in row-major sample order.
//
// When bilateral is true, each position is the concatenation of the spatial
// coordinates divided by spatialStd and the reference channel values divided
// by featuresStd, and reference must hold NumSamples*refChannels values.
// When bilateral is false the reference image is ignored and positions are
// the spatial coordinates divided by spatialStd alone.
func BuildPositions(dst, reference []float32, spatialDims []int, refChannels int, spatialStd, featuresStd float32, bilateral bool) error {
	if spatialStd <= 0 {
		return &ErrInvalidBandwidth{Name: "spatialStd", Value: spatialStd}
	}
	if bilateral && featuresStd <= 0 {
		return &ErrInvalidBandwidth{Name: "featuresStd", Value: featuresStd}
	}

	n := NumSamples(spatialDims)
	pd := PositionDims(spatialDims, refChannels, bilateral)
	nsd := len(spatialDims)

	if len(dst) < n*pd {
		return &ErrShortBuffer{Name: "dst", Expected: n * pd, Actual: len(dst)}
	}
	if bilateral && len(reference) < n*refChannels {
		return &ErrShortBuffer{Name: "reference", Expected: n * refChannels, Actual: len(reference)}
	}

	invSpatial := 1 / spatialStd
	var invFeatures float32
	if bilateral {
		invFeatures = 1 / featuresStd
	}

	for idx := 0; idx < n; idx++ {
		pos := dst[idx*pd : (idx+1)*pd]

		divisor := 1
		for sd := nsd - 1; sd >= 0; sd-- {
			pos[sd] = float32((idx/divisor)%spatialDims[sd]) * invSpatial
			divisor *= spatialDims[sd]
		}

		if bilateral {
			ref := reference[idx*refChannels : (idx+1)*refChannels]
			for c, v := range ref {
				pos[nsd+c] = v * invFeatures
			}
		}
	}

	return nil
}
