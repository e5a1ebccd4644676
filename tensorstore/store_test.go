package tensorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/permgo/codec"
	"github.com/hupe1980/permgo/resource"
	"github.com/hupe1980/permgo/tensor"
)

func TestStores(t *testing.T) {
	ctx := context.Background()

	stores := map[string]Store{
		"memory": NewMemoryStore(),
	}

	local, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	stores["local"] = local

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("put and get", func(t *testing.T) {
				err := store.Put(ctx, "a/first", []byte("hello"))
				require.NoError(t, err)

				data, err := store.Get(ctx, "a/first")
				require.NoError(t, err)
				assert.Equal(t, []byte("hello"), data)
			})

			t.Run("put replaces", func(t *testing.T) {
				require.NoError(t, store.Put(ctx, "a/second", []byte("v1")))
				require.NoError(t, store.Put(ctx, "a/second", []byte("v2")))

				data, err := store.Get(ctx, "a/second")
				require.NoError(t, err)
				assert.Equal(t, []byte("v2"), data)
			})

			t.Run("list prefix", func(t *testing.T) {
				require.NoError(t, store.Put(ctx, "b/third", nil))

				names, err := store.List(ctx, "a/")
				require.NoError(t, err)
				assert.Equal(t, []string{"a/first", "a/second"}, names)
			})

			t.Run("not found", func(t *testing.T) {
				_, err := store.Get(ctx, "missing")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("delete", func(t *testing.T) {
				require.NoError(t, store.Delete(ctx, "b/third"))
				require.NoError(t, store.Delete(ctx, "b/third"))

				_, err := store.Get(ctx, "b/third")
				assert.ErrorIs(t, err, ErrNotFound)
			})
		})
	}
}

func TestLocalStoreRateLimited(t *testing.T) {
	ctx := context.Background()

	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
	store, err := NewLocalStore(t.TempDir(), WithController(rc))
	require.NoError(t, err)

	payload := make([]byte, 4<<10)
	for i := range payload {
		payload[i] = byte(i)
	}

	require.NoError(t, store.Put(ctx, "throttled/frame", payload))

	got, err := store.Get(ctx, "throttled/frame")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// A canceled context stops the transfer at the limiter.
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	err = store.Put(canceled, "throttled/late", payload)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.Get(canceled, "throttled/frame")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTensorRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	shape := tensor.Shape{Batch: 1, Spatial: []int{3, 3}, Channels: 2}
	src, err := tensor.New(shape)
	require.NoError(t, err)
	for i := range src.Data() {
		src.Data()[i] = float32(i) * 0.5
	}

	err = PutTensor(ctx, store, "tensors/src", src, codec.CompressionZSTD)
	require.NoError(t, err)

	got, err := GetTensor(ctx, store, "tensors/src")
	require.NoError(t, err)

	assert.True(t, got.Shape().Equal(shape))
	assert.Equal(t, src.Data(), got.Data())
}
