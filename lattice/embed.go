package lattice

import "math"

// embedder locates the simplex of the canonical permutohedral lattice that
// encloses a position, producing the rounded base vertex, the axis rank
// permutation and the barycentric weights of the enclosing simplex.
//
// One embedder carries the scratch buffers for a single goroutine; the
// parallel passes allocate one per worker.
type embedder struct {
	pd int

	// scale folds the lattice inverse standard deviation sqrt(2/3)*(pd+1)
	// into the triangular elevation basis.
	scale []float64

	elevated []float64
	rem0     []int32
	rank     []int32
	bary     []float64
}

func newEmbedder(pd int) *embedder {
	e := &embedder{
		pd:       pd,
		scale:    make([]float64, pd),
		elevated: make([]float64, pd+1),
		rem0:     make([]int32, pd+1),
		rank:     make([]int32, pd+1),
		bary:     make([]float64, pd+2),
	}

	invStdDev := math.Sqrt(2.0/3.0) * float64(pd+1)
	for i := 0; i < pd; i++ {
		e.scale[i] = invStdDev / math.Sqrt(float64((i+1)*(i+2)))
	}

	return e
}

// embed computes the enclosing simplex of position. After it returns,
// e.rem0 holds the rounded zero-sum base point, e.rank the descending
// remainder permutation and e.bary[0..pd] the barycentric weights.
//
// The weights are non-negative, sum to 1 within floating-point epsilon, and
// the result is deterministic for a given position: remainder ties are
// broken by ascending axis index through the strict pairwise comparison.
func (e *embedder) embed(position []float32) {
	pd := e.pd

	// Elevate into the zero-sum hyperplane of R^(pd+1).
	sm := 0.0
	for i := pd; i > 0; i-- {
		cf := float64(position[i-1]) * e.scale[i-1]
		e.elevated[i] = sm - float64(i)*cf
		sm += cf
	}
	e.elevated[0] = sm

	// Round each coordinate to the nearest multiple of pd+1.
	down := float64(pd + 1)
	sum := int32(0)
	for i := 0; i <= pd; i++ {
		v := e.elevated[i] / down
		upper := math.Ceil(v) * down
		lower := math.Floor(v) * down
		if upper-e.elevated[i] < e.elevated[i]-lower {
			e.rem0[i] = int32(upper)
		} else {
			e.rem0[i] = int32(lower)
		}
		sum += e.rem0[i]
	}
	sum /= int32(pd + 1)

	// Rank axes by descending rounding remainder. rank 0 is the largest
	// remainder; equal remainders rank the lower axis index first.
	for i := range e.rank {
		e.rank[i] = 0
	}
	for i := 0; i < pd; i++ {
		di := e.elevated[i] - float64(e.rem0[i])
		for j := i + 1; j <= pd; j++ {
			if di < e.elevated[j]-float64(e.rem0[j]) {
				e.rank[i]++
			} else {
				e.rank[j]++
			}
		}
	}

	// The rounded point may have left the zero-sum plane. Shift ranks by the
	// plane defect and wrap out-of-range ranks back, moving the matching
	// coordinate one lattice period. The total correction is bounded by pd+1.
	for i := 0; i <= pd; i++ {
		e.rank[i] += sum
		if e.rank[i] < 0 {
			e.rank[i] += int32(pd + 1)
			e.rem0[i] += int32(pd + 1)
		} else if e.rank[i] > int32(pd) {
			e.rank[i] -= int32(pd + 1)
			e.rem0[i] -= int32(pd + 1)
		}
	}

	// Barycentric weights from the sorted remainder differences.
	for i := range e.bary {
		e.bary[i] = 0
	}
	for i := 0; i <= pd; i++ {
		delta := (e.elevated[i] - float64(e.rem0[i])) / down
		e.bary[pd-int(e.rank[i])] += delta
		e.bary[pd+1-int(e.rank[i])] -= delta
	}
	e.bary[0] += 1.0 + e.bary[pd+1]
}
