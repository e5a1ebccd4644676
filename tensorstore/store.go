package tensorstore

import (
	"context"
	"os"

	"github.com/hupe1980/permgo/codec"
	"github.com/hupe1980/permgo/tensor"
)

// ErrNotFound is returned when an object does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for reading and writing tensor artifacts.
// Tensors move as whole objects; implementations must be safe for
// concurrent use.
type Store interface {
	// Get reads the full object.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put writes an object atomically, replacing any existing object of
	// the same name.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, name string) error

	// List returns all object names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// GetTensor reads and decodes a tensor frame.
func GetTensor(ctx context.Context, s Store, name string) (*tensor.Tensor, error) {
	data, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return codec.Decode(data)
}

// PutTensor encodes and writes a tensor frame.
func PutTensor(ctx context.Context, s Store, name string, t *tensor.Tensor, compression codec.CompressionType) error {
	data, err := codec.Encode(t, compression)
	if err != nil {
		return err
	}
	return s.Put(ctx, name, data)
}
