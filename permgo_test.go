package permgo

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/permgo/resource"
	"github.com/hupe1980/permgo/tensor"
)

func TestFilter_Validation(t *testing.T) {
	ctx := context.Background()

	shape := tensor.Shape{Batch: 1, Spatial: []int{4, 4}, Channels: 3}
	src, err := tensor.New(shape)
	require.NoError(t, err)
	dst, err := tensor.New(shape)
	require.NoError(t, err)

	t.Run("nil tensors", func(t *testing.T) {
		err := Filter(ctx, nil, src, src, DefaultParams())
		assert.ErrorIs(t, err, ErrNilTensor)

		err = Filter(ctx, dst, nil, src, DefaultParams())
		assert.ErrorIs(t, err, ErrNilTensor)
	})

	t.Run("missing reference", func(t *testing.T) {
		err := Filter(ctx, dst, src, nil, DefaultParams())
		assert.ErrorIs(t, err, ErrMissingReference)
	})

	t.Run("invalid params", func(t *testing.T) {
		tests := []struct {
			name   string
			params Params
		}{
			{"theta_alpha", Params{Bilateral: true, ThetaAlpha: 0, ThetaBeta: 1}},
			{"theta_beta", Params{Bilateral: true, ThetaAlpha: 1, ThetaBeta: -1}},
			{"theta_gamma", Params{Bilateral: false, ThetaGamma: 0}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := Filter(ctx, dst, src, src, tt.params)

				var invalidErr *ErrInvalidParam
				require.ErrorAs(t, err, &invalidErr)
				assert.Equal(t, tt.name, invalidErr.Name)
			})
		}
	})

	t.Run("shape mismatch", func(t *testing.T) {
		other, err := tensor.New(tensor.Shape{Batch: 1, Spatial: []int{4, 4}, Channels: 1})
		require.NoError(t, err)

		err = Filter(ctx, other, src, src, DefaultParams())

		var mismatchErr *ErrShapeMismatch
		require.ErrorAs(t, err, &mismatchErr)
		assert.Equal(t, "dst", mismatchErr.Name)
	})

	t.Run("reference extent mismatch", func(t *testing.T) {
		ref, err := tensor.New(tensor.Shape{Batch: 1, Spatial: []int{2, 2}, Channels: 3})
		require.NoError(t, err)

		err = Filter(ctx, dst, src, ref, DefaultParams())

		var mismatchErr *ErrShapeMismatch
		require.ErrorAs(t, err, &mismatchErr)
		assert.Equal(t, "reference", mismatchErr.Name)
	})
}

func TestFilter_ConstantInput(t *testing.T) {
	ctx := context.Background()

	shape := tensor.Shape{Batch: 1, Spatial: []int{8, 8}, Channels: 2}
	src, err := tensor.New(shape)
	require.NoError(t, err)
	dst, err := tensor.New(shape)
	require.NoError(t, err)

	for i := range src.Data() {
		src.Data()[i] = 3.5
	}

	params := Params{Bilateral: false, ThetaGamma: 2}

	err = Filter(ctx, dst, src, nil, params)
	require.NoError(t, err)

	for i, v := range dst.Data() {
		assert.InDelta(t, 3.5, v, 1e-4, "sample %d", i)
	}
}

func TestFilter_BilateralPreservesEdges(t *testing.T) {
	ctx := context.Background()

	// Two halves with wildly different reference values: the filter must
	// smooth within each half but not across the boundary.
	const w = 16
	shape := tensor.Shape{Batch: 1, Spatial: []int{w}, Channels: 1}

	src, err := tensor.New(shape)
	require.NoError(t, err)
	ref, err := tensor.New(shape)
	require.NoError(t, err)
	dst, err := tensor.New(shape)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < w; i++ {
		if i < w/2 {
			src.Data()[i] = 1 + 0.1*rng.Float32()
			ref.Data()[i] = 0
		} else {
			src.Data()[i] = 10 + 0.1*rng.Float32()
			ref.Data()[i] = 1000
		}
	}

	params := Params{Bilateral: true, ThetaAlpha: 100, ThetaBeta: 1}

	err = Filter(ctx, dst, src, ref, params)
	require.NoError(t, err)

	for i := 0; i < w/2; i++ {
		assert.InDelta(t, 1.05, dst.Data()[i], 0.1, "left sample %d", i)
	}
	for i := w / 2; i < w; i++ {
		assert.InDelta(t, 10.05, dst.Data()[i], 0.1, "right sample %d", i)
	}
}

func TestFilter_BatchMatchesSingle(t *testing.T) {
	ctx := context.Background()

	const batch = 3
	shape := tensor.Shape{Batch: batch, Spatial: []int{6, 5}, Channels: 2}

	src, err := tensor.New(shape)
	require.NoError(t, err)
	dst, err := tensor.New(shape)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := range src.Data() {
		src.Data()[i] = rng.Float32()
	}

	params := Params{Bilateral: true, ThetaAlpha: 3, ThetaBeta: 0.5}

	err = Filter(ctx, dst, src, src, params, WithBatchConcurrency(batch))
	require.NoError(t, err)

	single := tensor.Shape{Batch: 1, Spatial: shape.Spatial, Channels: shape.Channels}
	for b := 0; b < batch; b++ {
		elemSrc, err := tensor.FromSlice(single, src.Element(b))
		require.NoError(t, err)
		elemDst, err := tensor.New(single)
		require.NoError(t, err)

		err = Filter(ctx, elemDst, elemSrc, elemSrc, params)
		require.NoError(t, err)

		for i, v := range elemDst.Data() {
			assert.InDelta(t, v, dst.Element(b)[i], 1e-6, "batch %d sample %d", b, i)
		}
	}
}

func TestFilter_MaskPassthrough(t *testing.T) {
	ctx := context.Background()

	shape := tensor.Shape{Batch: 1, Spatial: []int{10}, Channels: 1}
	n := shape.NumSamples()

	src, err := tensor.New(shape)
	require.NoError(t, err)
	dst, err := tensor.New(shape)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for i := range src.Data() {
		src.Data()[i] = rng.Float32() * 10
	}

	mask := roaring.New()
	for i := 0; i < n/2; i++ {
		mask.Add(uint32(i))
	}

	params := Params{Bilateral: false, ThetaGamma: 2}

	err = Filter(ctx, dst, src, nil, params, WithMask(mask))
	require.NoError(t, err)

	// Unselected samples pass through bit-exact.
	for i := n / 2; i < n; i++ {
		assert.Equal(t, src.Data()[i], dst.Data()[i], "sample %d", i)
	}

	// Selected samples change: they are smoothed against each other.
	changed := false
	for i := 0; i < n/2; i++ {
		if dst.Data()[i] != src.Data()[i] {
			changed = true
		}
	}
	assert.True(t, changed)
}

func TestFilter_EmptyMask(t *testing.T) {
	ctx := context.Background()

	shape := tensor.Shape{Batch: 1, Spatial: []int{4}, Channels: 1}
	src, err := tensor.New(shape)
	require.NoError(t, err)
	dst, err := tensor.New(shape)
	require.NoError(t, err)

	for i := range src.Data() {
		src.Data()[i] = float32(i)
	}

	err = Filter(ctx, dst, src, nil, Params{Bilateral: false, ThetaGamma: 1}, WithMask(roaring.New()))
	require.NoError(t, err)

	assert.Equal(t, src.Data(), dst.Data())
}

func TestFilterBuffers(t *testing.T) {
	ctx := context.Background()

	const n, pd, vd = 20, 2, 1

	src := make([]float32, n*vd)
	dst := make([]float32, n*vd)
	positions := make([]float32, n*pd)

	rng := rand.New(rand.NewSource(9))
	for i := range src {
		src[i] = rng.Float32()
	}
	for i := range positions {
		positions[i] = rng.Float32() * 4
	}

	err := FilterBuffers(ctx, dst, src, positions, n, pd, vd, false)
	require.NoError(t, err)

	// Smoothing reduces variance.
	assert.Less(t, variance(dst), variance(src))
}

func TestFilter_Metrics(t *testing.T) {
	ctx := context.Background()

	mc := &BasicMetricsCollector{}

	shape := tensor.Shape{Batch: 2, Spatial: []int{4}, Channels: 1}
	src, err := tensor.New(shape)
	require.NoError(t, err)
	dst, err := tensor.New(shape)
	require.NoError(t, err)

	err = Filter(ctx, dst, src, nil, Params{Bilateral: false, ThetaGamma: 1}, WithMetricsCollector(mc))
	require.NoError(t, err)

	stats := mc.GetStats()
	assert.Equal(t, int64(1), stats.BatchCount)
	assert.Equal(t, int64(2), stats.BatchElements)
	assert.Equal(t, int64(0), stats.BatchFailed)
}

func TestFilterBuffers_Metrics(t *testing.T) {
	ctx := context.Background()

	mc := &BasicMetricsCollector{}

	const n, pd, vd = 8, 1, 1
	buf := make([]float32, n)
	positions := make([]float32, n)

	err := FilterBuffers(ctx, buf, buf, positions, n, pd, vd, false, WithMetricsCollector(mc))
	require.NoError(t, err)

	// Error path is recorded too.
	err = FilterBuffers(ctx, buf, buf, positions, 0, pd, vd, false, WithMetricsCollector(mc))
	require.Error(t, err)

	stats := mc.GetStats()
	assert.Equal(t, int64(2), stats.FilterCount)
	assert.Equal(t, int64(1), stats.FilterErrors)
}

func TestFilter_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	shape := tensor.Shape{Batch: 1, Spatial: []int{64, 64}, Channels: 3}
	src, err := tensor.New(shape)
	require.NoError(t, err)
	dst, err := tensor.New(shape)
	require.NoError(t, err)

	err = Filter(ctx, dst, src, src, DefaultParams())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilter_Logging(t *testing.T) {
	ctx := context.Background()

	shape := tensor.Shape{Batch: 1, Spatial: []int{4}, Channels: 1}
	src, err := tensor.New(shape)
	require.NoError(t, err)
	dst, err := tensor.New(shape)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Filter(ctx, dst, src, nil, Params{Bilateral: false, ThetaGamma: 1}, WithLogger(NoopLogger()))
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("filter did not complete")
	}
}

func TestFilter_MemoryBudget(t *testing.T) {
	ctx := context.Background()

	shape := tensor.Shape{Batch: 1, Spatial: []int{8, 8}, Channels: 1}
	src, err := tensor.New(shape)
	require.NoError(t, err)
	dst, err := tensor.New(shape)
	require.NoError(t, err)

	t.Run("sufficient budget", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 64 << 20})

		err := Filter(ctx, dst, src, nil, Params{Bilateral: false, ThetaGamma: 1}, WithMemoryAcquirer(rc))
		require.NoError(t, err)

		// Everything charged must have been released.
		assert.Equal(t, int64(0), rc.MemoryUsage())
	})

	t.Run("starved budget", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 16})

		cctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		err := Filter(cctx, dst, src, nil, Params{Bilateral: false, ThetaGamma: 1}, WithMemoryAcquirer(rc))
		require.Error(t, err)
		assert.Equal(t, int64(0), rc.MemoryUsage())
	})
}

func variance(xs []float32) float64 {
	var mean float64
	for _, x := range xs {
		mean += float64(x)
	}
	mean /= float64(len(xs))

	var v float64
	for _, x := range xs {
		v += (float64(x) - mean) * (float64(x) - mean)
	}
	return math.Sqrt(v / float64(len(xs)))
}
