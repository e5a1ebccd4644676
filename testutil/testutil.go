package testutil

import (
	"math"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
func (r *RNG) FillUniformRange(dst []float32, minVal, maxVal float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := maxVal - minVal
	for i := range dst {
		dst[i] = minVal + r.rand.Float32()*span
	}
}

// FillGaussian fills dst with values from a standard normal distribution.
func (r *RNG) FillGaussian(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = float32(r.rand.NormFloat64())
	}
}

// BruteForceFilter computes the exact Gaussian-weighted average of src over
// all sample pairs, normalized per sample. O(n^2), for ground truth only.
//
// src holds n*vd values, positions holds n*pd coordinates already divided by
// their bandwidths.
func BruteForceFilter(src, positions []float32, n, pd, vd int) []float32 {
	dst := make([]float32, n*vd)

	for i := 0; i < n; i++ {
		var norm float64
		acc := make([]float64, vd)

		for j := 0; j < n; j++ {
			var d2 float64
			for k := 0; k < pd; k++ {
				d := float64(positions[i*pd+k] - positions[j*pd+k])
				d2 += d * d
			}
			w := math.Exp(-d2 / 2)

			norm += w
			for c := 0; c < vd; c++ {
				acc[c] += w * float64(src[j*vd+c])
			}
		}

		for c := 0; c < vd; c++ {
			dst[i*vd+c] = float32(acc[c] / norm)
		}
	}

	return dst
}

// MaxAbsDiff returns the largest absolute elementwise difference.
func MaxAbsDiff(a, b []float32) float64 {
	var maxDiff float64
	for i := range a {
		d := math.Abs(float64(a[i]) - float64(b[i]))
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff
}
