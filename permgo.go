package permgo

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/permgo/embedding"
	"github.com/hupe1980/permgo/lattice"
	"github.com/hupe1980/permgo/tensor"
)

// Params holds the scalar configuration of a filter invocation.
type Params struct {
	// Bilateral selects bilateral filtering: positions combine spatial
	// coordinates and reference channel values. When false the filter is a
	// pure spatial Gaussian and the reference tensor is ignored.
	Bilateral bool

	// Reverse runs the blur axes backward. The backward pass of a
	// differentiable filter runs the same lattice with Reverse set.
	Reverse bool

	// ThetaAlpha is the spatial bandwidth for bilateral filtering.
	ThetaAlpha float32

	// ThetaBeta is the feature (reference channel) bandwidth for bilateral
	// filtering.
	ThetaBeta float32

	// ThetaGamma is the spatial bandwidth for non-bilateral filtering.
	ThetaGamma float32
}

// DefaultParams returns bilateral filtering with unit bandwidths.
func DefaultParams() Params {
	return Params{
		Bilateral:  true,
		ThetaAlpha: 1,
		ThetaBeta:  1,
		ThetaGamma: 1,
	}
}

func (p Params) validate() error {
	if p.Bilateral {
		if p.ThetaAlpha <= 0 {
			return &ErrInvalidParam{Name: "theta_alpha", Value: p.ThetaAlpha}
		}
		if p.ThetaBeta <= 0 {
			return &ErrInvalidParam{Name: "theta_beta", Value: p.ThetaBeta}
		}
		return nil
	}
	if p.ThetaGamma <= 0 {
		return &ErrInvalidParam{Name: "theta_gamma", Value: p.ThetaGamma}
	}
	return nil
}

func (p Params) spatialStd() float32 {
	if p.Bilateral {
		return p.ThetaAlpha
	}
	return p.ThetaGamma
}

// Filter runs the permutohedral lattice filter over a whole batch.
//
// dst and src must have identical shapes; dst is fully populated on success.
// For bilateral filtering, ref supplies the reference image guiding the
// filter and must match src in batch and spatial extents (its channel count
// is free). For non-bilateral filtering ref may be nil.
//
// Batch elements share no state and are filtered in parallel, bounded by
// WithBatchConcurrency. Unless WithWorkers says otherwise, multi-element
// batches run each lattice sequentially and spend the parallelism at the
// batch level.
func Filter(ctx context.Context, dst, src, ref *tensor.Tensor, params Params, optFns ...Option) error {
	o := applyOptions(optFns)

	start := time.Now()
	batch, failed, err := filterBatch(ctx, &o, dst, src, ref, params)

	o.metricsCollector.RecordBatchFilter(batch, failed, time.Since(start))
	o.logger.LogBatchFilter(ctx, batch, time.Since(start), err)

	return err
}

// FilterBuffers runs the filter for a single batch element over raw buffers,
// for callers that build their own position vectors. dst and src hold n*vd
// values, positions holds n*pd feature coordinates.
func FilterBuffers(ctx context.Context, dst, src, positions []float32, n, pd, vd int, reverse bool, optFns ...Option) error {
	o := applyOptions(optFns)

	start := time.Now()
	err := filterBuffers(ctx, &o, dst, src, positions, n, pd, vd, reverse, 0)

	o.metricsCollector.RecordFilter(n, time.Since(start), err)
	o.logger.LogFilter(ctx, n, pd, vd, time.Since(start), err)

	return err
}

func filterBatch(ctx context.Context, o *options, dst, src, ref *tensor.Tensor, params Params) (batch, failed int, err error) {
	if dst == nil || src == nil {
		return 0, 0, ErrNilTensor
	}
	if err := params.validate(); err != nil {
		return 0, 0, err
	}

	shape := src.Shape()
	if !dst.Shape().Equal(shape) {
		return 0, 0, &ErrShapeMismatch{Name: "dst", Want: shape, Got: dst.Shape()}
	}

	refChannels := 0
	if params.Bilateral {
		if ref == nil {
			return 0, 0, ErrMissingReference
		}
		refShape := ref.Shape()
		want := tensor.Shape{Batch: shape.Batch, Spatial: shape.Spatial, Channels: refShape.Channels}
		if !refShape.Equal(want) {
			return 0, 0, &ErrShapeMismatch{Name: "reference", Want: want, Got: refShape}
		}
		refChannels = refShape.Channels
	}

	n := shape.NumSamples()
	vd := shape.Channels
	pd := embedding.PositionDims(shape.Spatial, refChannels, params.Bilateral)

	concurrency := o.batchConcurrency
	if concurrency <= 0 {
		concurrency = min(shape.Batch, runtime.GOMAXPROCS(0))
	}

	workers := o.workers
	if workers <= 0 && shape.Batch > 1 {
		workers = 1
	}

	var failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for b := 0; b < shape.Batch; b++ {
		g.Go(func() error {
			positions := make([]float32, n*pd)

			var refElem []float32
			if params.Bilateral {
				refElem = ref.Element(b)
			}
			if err := embedding.BuildPositions(positions, refElem, shape.Spatial, refChannels,
				params.spatialStd(), params.ThetaBeta, params.Bilateral); err != nil {
				failures.Add(1)
				return err
			}

			if err := filterBuffers(gctx, o, dst.Element(b), src.Element(b), positions,
				n, pd, vd, params.Reverse, workers); err != nil {
				failures.Add(1)
				return err
			}
			return nil
		})
	}

	err = g.Wait()
	return shape.Batch, int(failures.Load()), err
}

// filterBuffers runs one lattice over one batch element, honoring the
// optional sample mask. workers overrides the configured per-lattice
// parallelism when positive.
func filterBuffers(ctx context.Context, o *options, dst, src, positions []float32, n, pd, vd int, reverse bool, workers int) error {
	if o.mask != nil {
		return filterMasked(ctx, o, dst, src, positions, n, pd, vd, reverse, workers)
	}

	l, err := lattice.New(ctx, pd, vd, n, o.latticeOptions(workers))
	if err != nil {
		return err
	}
	defer l.Close()

	return l.Filter(ctx, dst, src, positions, reverse)
}

// filterMasked filters only the samples selected by the mask. Unselected
// samples are copied through untouched and never enter the lattice, so they
// neither blend nor bleed into their masked neighbors.
func filterMasked(ctx context.Context, o *options, dst, src, positions []float32, n, pd, vd int, reverse bool, workers int) error {
	copy(dst[:n*vd], src[:n*vd])

	selected := make([]int, 0, o.mask.GetCardinality())
	it := o.mask.Iterator()
	for it.HasNext() {
		v := int(it.Next())
		if v >= n {
			break
		}
		selected = append(selected, v)
	}
	if len(selected) == 0 {
		return nil
	}

	sub := len(selected)
	subSrc := make([]float32, sub*vd)
	subPos := make([]float32, sub*pd)
	subDst := make([]float32, sub*vd)
	for i, s := range selected {
		copy(subSrc[i*vd:(i+1)*vd], src[s*vd:(s+1)*vd])
		copy(subPos[i*pd:(i+1)*pd], positions[s*pd:(s+1)*pd])
	}

	l, err := lattice.New(ctx, pd, vd, sub, o.latticeOptions(workers))
	if err != nil {
		return err
	}
	defer l.Close()

	if err := l.Filter(ctx, subDst, subSrc, subPos, reverse); err != nil {
		return err
	}

	for i, s := range selected {
		copy(dst[s*vd:(s+1)*vd], subDst[i*vd:(i+1)*vd])
	}
	return nil
}

func (o *options) latticeOptions(workers int) func(*lattice.Options) {
	return func(lo *lattice.Options) {
		if workers > 0 {
			lo.Parallelism = workers
		} else if o.workers > 0 {
			lo.Parallelism = o.workers
		}
		if o.capacityHint > 0 {
			lo.CapacityHint = o.capacityHint
		}
		lo.Acquirer = o.acquirer
	}
}
