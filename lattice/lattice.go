package lattice

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/permgo/internal/simd"
)

// ErrInvalidDimension is a named error type for non-positive dimension
// configuration. It is reported before any table allocation happens.
type ErrInvalidDimension struct {
	Name  string // Parameter name: "pd", "vd" or "n"
	Value int    // Offending value
}

// Error returns the error message for an invalid dimension.
func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension %s: %d (must be positive)", e.Name, e.Value)
}

// ErrBufferSize is a named error type for a caller-supplied buffer whose
// length does not match the configured dimensions.
type ErrBufferSize struct {
	Name     string // Buffer name: "dst", "src" or "positions"
	Expected int    // Required element count
	Actual   int    // Supplied element count
}

// Error returns the error message for a buffer size mismatch.
func (e *ErrBufferSize) Error() string {
	return fmt.Sprintf("buffer %s: expected %d elements, got %d", e.Name, e.Expected, e.Actual)
}

// MemoryAcquirer is an interface for reserving memory against an external
// budget before the lattice allocates its vertex storage.
type MemoryAcquirer interface {
	AcquireMemory(ctx context.Context, amount int64) error
	ReleaseMemory(amount int64)
}

// Options represents the options for configuring a Lattice.
type Options struct {
	// Parallelism is the number of workers used for the data-parallel
	// passes (embedding, blur, slice). <= 0 selects GOMAXPROCS.
	// Parallelism 1 gives the fully sequential backend.
	Parallelism int

	// CapacityHint is the expected number of distinct lattice vertices.
	// The hard upper bound is n*(pd+1), but overlapping samples collapse
	// onto shared vertices, so the default assumes a quarter of that.
	// The table grows past the hint as needed.
	CapacityHint int

	// Acquirer, if set, is charged an upper-bound estimate of the lattice's
	// memory at construction time and credited on Close. Acquisition
	// failure is a resource-exhaustion failure, never a truncated filter.
	Acquirer MemoryAcquirer
}

// DefaultOptions are the options used when none are supplied.
var DefaultOptions = Options{
	Parallelism:  0,
	CapacityHint: 0,
}

// Lattice approximates a high-dimensional Gaussian convolution over scattered
// samples in three passes: splat distributes every sample onto the vertices
// of its enclosing simplex, blur runs a 3-tap stencil along each lattice
// axis, and slice interpolates the convolved vertex values back to the
// sample positions.
//
// A Lattice is configured for a fixed (pd, vd, n) and may run Filter any
// number of times, but a single instance must not be used concurrently:
// the hash table is exclusively owned by one in-flight call. Batch elements
// get independent instances and parallelize at that level.
type Lattice struct {
	pd int // position dimensions
	vd int // value channels (excluding the homogeneous channel)
	n  int // samples per filter call

	kd     int // lattice key length, pd+1
	stride int // accumulator length, vd+1

	// canonical holds the offsets of the canonical simplex: entry
	// [r*kd + rank] is added to the base point to reach vertex r.
	canonical []int16

	table *hashTable

	// Per-sample splat replay, reused by slice so the embedding is computed
	// exactly once per sample: n*(pd+1) (slot, weight) pairs.
	replaySlots   []int32
	replayWeights []float32

	reserved int64
	opts     Options
}

// New creates a Lattice for n samples with pd position dimensions and vd
// value channels per sample.
func New(ctx context.Context, pd, vd, n int, optFns ...func(o *Options)) (*Lattice, error) {
	if pd <= 0 {
		return nil, &ErrInvalidDimension{Name: "pd", Value: pd}
	}
	if vd <= 0 {
		return nil, &ErrInvalidDimension{Name: "vd", Value: vd}
	}
	if n <= 0 {
		return nil, &ErrInvalidDimension{Name: "n", Value: n}
	}

	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	if opts.CapacityHint <= 0 {
		opts.CapacityHint = n * (pd + 1) / 4
	}

	l := &Lattice{
		pd:            pd,
		vd:            vd,
		n:             n,
		kd:            pd + 1,
		stride:        vd + 1,
		canonical:     buildCanonical(pd),
		replaySlots:   make([]int32, n*(pd+1)),
		replayWeights: make([]float32, n*(pd+1)),
		opts:          opts,
	}

	if opts.Acquirer != nil {
		reserved := l.memoryBound()
		if err := opts.Acquirer.AcquireMemory(ctx, reserved); err != nil {
			return nil, fmt.Errorf("lattice: acquire memory: %w", err)
		}
		l.reserved = reserved
	}

	return l, nil
}

// buildCanonical precomputes the canonical simplex offsets. Row r holds the
// offset applied at each rank to walk from the base point to vertex r:
// +r for the first pd+1-r ranks, r-(pd+1) for the rest.
func buildCanonical(pd int) []int16 {
	kd := pd + 1
	canonical := make([]int16, kd*kd)
	for r := 0; r <= pd; r++ {
		for j := 0; j <= pd-r; j++ {
			canonical[r*kd+j] = int16(r)
		}
		for j := pd - r + 1; j <= pd; j++ {
			canonical[r*kd+j] = int16(r - kd)
		}
	}
	return canonical
}

// memoryBound is the worst-case footprint of one filter call: every sample
// creating pd+1 fresh vertices, with double-buffered accumulators.
func (l *Lattice) memoryBound() int64 {
	maxVertices := int64(l.n) * int64(l.kd)
	perVertex := int64(l.kd)*2 + int64(l.stride)*4*2 + 8 // keys + value buffers + index
	replay := int64(l.n) * int64(l.kd) * 8
	return maxVertices*perVertex + replay
}

// Close releases memory charged to the acquirer. The lattice must not be
// used after Close.
func (l *Lattice) Close() {
	if l.opts.Acquirer != nil && l.reserved > 0 {
		l.opts.Acquirer.ReleaseMemory(l.reserved)
		l.reserved = 0
	}
	l.table = nil
}

// Stats describes the lattice state after the most recent filter call.
type Stats struct {
	Samples  int // Samples per call
	Vertices int // Distinct lattice vertices touched by splat
	Capacity int // Current hash index capacity

	// Mass is the total homogeneous weight distributed by splat. The
	// barycentric weights of each sample sum to one, so Mass tracks
	// Samples up to float rounding; a large gap indicates degenerate
	// positions (NaN or out of key range).
	Mass float32
}

// Stats returns a snapshot of the lattice state.
func (l *Lattice) Stats() Stats {
	s := Stats{Samples: l.n}
	if l.table != nil {
		s.Vertices = l.table.filled
		s.Capacity = l.table.capacity
		s.Mass = simd.Sum(l.replayWeights)
	}
	return s
}

// Filter runs the full splat -> blur -> slice sequence for one batch
// element. dst and src hold n*vd values, positions holds n*pd feature
// coordinates. reverse runs the blur axes backward, which is the order used
// by the backward pass of a differentiable filter.
//
// Lattice coordinates are stored as int16, so position values beyond roughly
// 2e4 in magnitude overflow the key range and alias unrelated vertices.
// Positions are expected pre-scaled by the inverse bandwidth into that range.
//
// dst is fully populated on success; on error its contents are undefined
// but never a partial result of a completed pass sequence.
func (l *Lattice) Filter(ctx context.Context, dst, src, positions []float32, reverse bool) error {
	if len(dst) < l.n*l.vd {
		return &ErrBufferSize{Name: "dst", Expected: l.n * l.vd, Actual: len(dst)}
	}
	if len(src) < l.n*l.vd {
		return &ErrBufferSize{Name: "src", Expected: l.n * l.vd, Actual: len(src)}
	}
	if len(positions) < l.n*l.pd {
		return &ErrBufferSize{Name: "positions", Expected: l.n * l.pd, Actual: len(positions)}
	}

	// Fresh vertex state per call; replay buffers are reused.
	l.table = newHashTable(l.kd, l.stride, l.opts.CapacityHint)

	if err := l.splat(ctx, src, positions); err != nil {
		return err
	}
	if err := l.blur(ctx, reverse); err != nil {
		return err
	}
	if err := l.normalize(ctx); err != nil {
		return err
	}
	return l.slice(ctx, dst)
}

// splat scatters every sample onto the pd+1 vertices of its enclosing
// simplex. The embedding phase is parallel across sample chunks; the merge
// into the shared hash table is sequential, so no per-slot synchronization
// is needed.
func (l *Lattice) splat(ctx context.Context, src, positions []float32) error {
	kd := l.kd

	rem0 := make([]int32, l.n*kd)
	rank := make([]int32, l.n*kd)

	g, gctx := errgroup.WithContext(ctx)
	for lo, hi := range l.chunks(l.n) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e := newEmbedder(l.pd)
			for s := lo; s < hi; s++ {
				e.embed(positions[s*l.pd : s*l.pd+l.pd])
				copy(rem0[s*kd:(s+1)*kd], e.rem0)
				copy(rank[s*kd:(s+1)*kd], e.rank)
				for r := 0; r < kd; r++ {
					l.replayWeights[s*kd+r] = float32(e.bary[r])
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	key := make([]int16, kd)
	for s := 0; s < l.n; s++ {
		base := rem0[s*kd : (s+1)*kd]
		perm := rank[s*kd : (s+1)*kd]
		val := src[s*l.vd : (s+1)*l.vd]

		for r := 0; r < kd; r++ {
			for i := 0; i < kd; i++ {
				key[i] = int16(base[i]) + l.canonical[r*kd+int(perm[i])]
			}

			slot := l.table.findOrCreate(key)
			w := l.replayWeights[s*kd+r]

			acc := l.table.value(slot)
			simd.Axpy(acc[:l.vd], val, w)
			acc[l.vd] += w

			l.replaySlots[s*kd+r] = int32(slot)
		}
	}

	return nil
}

// blur convolves the vertex accumulators along each lattice axis in turn
// with the normalized 0.25/0.5/0.25 stencil. Within one axis the pass is
// double-buffered and parallel across vertices; axes are strictly
// sequential, so axis i+1 always sees axis i's fully blurred result.
func (l *Lattice) blur(ctx context.Context, reverse bool) error {
	filled := l.table.filled
	next := make([]float32, filled*l.stride)

	for pass := 0; pass <= l.pd; pass++ {
		axis := pass
		if reverse {
			axis = l.pd - pass
		}

		g, gctx := errgroup.WithContext(ctx)
		for lo, hi := range l.chunks(filled) {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				l.blurAxisRange(axis, lo, hi, next)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		l.table.values, next = next, l.table.values
	}

	return nil
}

// blurAxisRange applies one axis of the blur to slots [lo, hi), reading the
// pre-pass accumulators and writing into next.
func (l *Lattice) blurAxisRange(axis, lo, hi int, next []float32) {
	kd := l.kd
	n1 := make([]int16, kd)
	n2 := make([]int16, kd)

	for slot := lo; slot < hi; slot++ {
		k := l.table.key(slot)

		// The two neighbors along a lattice axis: +1 on every coordinate
		// except -pd on the axis itself, and the mirror image.
		for i := 0; i < kd; i++ {
			n1[i] = k[i] + 1
			n2[i] = k[i] - 1
		}
		n1[axis] = k[axis] - int16(l.pd)
		n2[axis] = k[axis] + int16(l.pd)

		var prev, after []float32
		if s, ok := l.table.find(n1); ok {
			prev = l.table.value(s)
		}
		if s, ok := l.table.find(n2); ok {
			after = l.table.value(s)
		}

		dst := next[slot*l.stride : (slot+1)*l.stride]
		simd.Stencil3(dst, prev, l.table.value(slot), after)
	}
}

// normalize divides every vertex accumulator by its homogeneous weight,
// renormalizing for partial simplex coverage once per vertex instead of once
// per sample reference. A vertex with zero homogeneous weight carries zero
// mass and is left alone rather than a division fault.
func (l *Lattice) normalize(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for lo, hi := range l.chunks(l.table.filled) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for slot := lo; slot < hi; slot++ {
				acc := l.table.value(slot)
				if h := acc[l.vd]; h != 0 {
					simd.ScaleInPlace(acc[:l.vd], 1/h)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// slice interpolates the normalized vertex values back to every sample using
// the (slot, weight) pairs recorded during splat. Read-only with respect to
// the table, parallel across samples.
func (l *Lattice) slice(ctx context.Context, dst []float32) error {
	kd := l.kd

	g, gctx := errgroup.WithContext(ctx)
	for lo, hi := range l.chunks(l.n) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for s := lo; s < hi; s++ {
				out := dst[s*l.vd : (s+1)*l.vd]
				for i := range out {
					out[i] = 0
				}

				for r := 0; r < kd; r++ {
					slot := int(l.replaySlots[s*kd+r])
					w := l.replayWeights[s*kd+r]

					acc := l.table.value(slot)
					simd.Axpy(out, acc[:l.vd], w)
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// chunks yields [lo, hi) ranges splitting count items across the configured
// worker parallelism.
func (l *Lattice) chunks(count int) func(yield func(int, int) bool) {
	workers := l.opts.Parallelism
	if workers > count {
		workers = count
	}
	if workers < 1 {
		workers = 1
	}
	size := (count + workers - 1) / workers

	return func(yield func(int, int) bool) {
		for lo := 0; lo < count; lo += size {
			hi := lo + size
			if hi > count {
				hi = count
			}
			if !yield(lo, hi) {
				return
			}
		}
	}
}
