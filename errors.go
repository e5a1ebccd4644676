package permgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/permgo/tensor"
)

var (
	// ErrNilTensor is returned when a required tensor argument is nil.
	ErrNilTensor = errors.New("nil tensor")

	// ErrMissingReference is returned when bilateral filtering is requested
	// without a reference tensor.
	ErrMissingReference = errors.New("bilateral filtering requires a reference tensor")
)

// ErrShapeMismatch indicates that two tensors that must agree in shape do
// not.
type ErrShapeMismatch struct {
	Name string // Offending tensor: "dst", "reference"
	Want tensor.Shape
	Got  tensor.Shape
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("shape mismatch for %s: want %s, got %s", e.Name, e.Want, e.Got)
}

// ErrInvalidParam indicates an invalid scalar filter parameter.
type ErrInvalidParam struct {
	Name  string // "theta_alpha", "theta_beta" or "theta_gamma"
	Value float32
}

func (e *ErrInvalidParam) Error() string {
	return fmt.Sprintf("invalid parameter %s: %v (must be positive)", e.Name, e.Value)
}
