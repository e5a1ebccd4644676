// Package tensor provides the dense grid containers moved through the
// filter: a batch of spatial grids with a channel vector per sample, stored
// as one flat float32 buffer in batch-major, row-major, channels-last order.
package tensor

import "fmt"

// ErrInvalidShape is a named error type for a shape with non-positive
// extents.
type ErrInvalidShape struct {
	Shape Shape
}

// Error returns the error message for an invalid shape.
func (e *ErrInvalidShape) Error() string {
	return fmt.Sprintf("invalid shape: %s", e.Shape)
}

// ErrShapeMismatch is a named error type for data that does not match the
// declared shape.
type ErrShapeMismatch struct {
	Shape    Shape
	Expected int
	Actual   int
}

// Error returns the error message for a shape mismatch.
func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("shape %s requires %d elements, got %d", e.Shape, e.Expected, e.Actual)
}

// Shape describes a batched spatial tensor: Batch elements, each a grid
// spanned by Spatial with Channels values per grid sample.
type Shape struct {
	Batch    int
	Spatial  []int
	Channels int
}

// String implements fmt.Stringer.
func (s Shape) String() string {
	return fmt.Sprintf("[%d %v %d]", s.Batch, s.Spatial, s.Channels)
}

// Valid reports whether all extents are positive and at least one spatial
// dimension is present.
func (s Shape) Valid() bool {
	if s.Batch <= 0 || s.Channels <= 0 || len(s.Spatial) == 0 {
		return false
	}
	for _, d := range s.Spatial {
		if d <= 0 {
			return false
		}
	}
	return true
}

// NumSamples returns the number of grid samples per batch element.
func (s Shape) NumSamples() int {
	n := 1
	for _, d := range s.Spatial {
		n *= d
	}
	return n
}

// Elements returns the total float32 element count of the tensor.
func (s Shape) Elements() int {
	return s.Batch * s.NumSamples() * s.Channels
}

// Equal reports whether two shapes are identical.
func (s Shape) Equal(o Shape) bool {
	if s.Batch != o.Batch || s.Channels != o.Channels || len(s.Spatial) != len(o.Spatial) {
		return false
	}
	for i, d := range s.Spatial {
		if o.Spatial[i] != d {
			return false
		}
	}
	return true
}

// Tensor is a dense float32 tensor with a fixed shape.
type Tensor struct {
	shape Shape
	data  []float32
}

// New allocates a zero-filled tensor of the given shape.
func New(shape Shape) (*Tensor, error) {
	if !shape.Valid() {
		return nil, &ErrInvalidShape{Shape: shape}
	}
	return &Tensor{
		shape: shape,
		data:  make([]float32, shape.Elements()),
	}, nil
}

// FromSlice wraps an existing buffer without copying. The buffer length must
// match the shape exactly.
func FromSlice(shape Shape, data []float32) (*Tensor, error) {
	if !shape.Valid() {
		return nil, &ErrInvalidShape{Shape: shape}
	}
	if len(data) != shape.Elements() {
		return nil, &ErrShapeMismatch{Shape: shape, Expected: shape.Elements(), Actual: len(data)}
	}
	return &Tensor{shape: shape, data: data}, nil
}

// Shape returns the tensor's shape. The Spatial slice aliases tensor state
// and must not be mutated.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Data returns the flat backing buffer.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Element returns the contiguous sub-buffer of batch element b, holding
// NumSamples*Channels values. The slice aliases tensor storage.
func (t *Tensor) Element(b int) []float32 {
	size := t.shape.NumSamples() * t.shape.Channels
	return t.data[b*size : (b+1)*size]
}
