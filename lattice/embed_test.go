package lattice

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedWeightsSumToOne(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for pd := 1; pd <= 6; pd++ {
		e := newEmbedder(pd)
		pos := make([]float32, pd)

		for trial := 0; trial < 500; trial++ {
			for i := range pos {
				pos[i] = rng.Float32()*200 - 100
			}
			e.embed(pos)

			var sum float64
			for r := 0; r <= pd; r++ {
				assert.GreaterOrEqual(t, e.bary[r], -1e-6,
					"pd=%d negative weight %v at pos %v", pd, e.bary[r], pos)
				sum += e.bary[r]
			}
			assert.InDelta(t, 1.0, sum, 1e-6, "pd=%d pos %v", pd, pos)
		}
	}
}

func TestEmbedBasePointZeroSum(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for pd := 1; pd <= 6; pd++ {
		e := newEmbedder(pd)
		pos := make([]float32, pd)

		for trial := 0; trial < 200; trial++ {
			for i := range pos {
				pos[i] = rng.Float32()*50 - 25
			}
			e.embed(pos)

			var sum int32
			for _, c := range e.rem0 {
				sum += c
			}
			assert.Zero(t, sum, "pd=%d base point off the plane at %v", pd, pos)

			// rank is a permutation of 0..pd.
			seen := make([]bool, pd+1)
			for _, r := range e.rank {
				require.GreaterOrEqual(t, r, int32(0))
				require.LessOrEqual(t, r, int32(pd))
				require.False(t, seen[r], "duplicate rank at %v", pos)
				seen[r] = true
			}
		}
	}
}

func TestEmbedDeterministic(t *testing.T) {
	e1 := newEmbedder(3)
	e2 := newEmbedder(3)

	pos := []float32{0.3, -1.7, 12.25}
	e1.embed(pos)

	// Interleave unrelated embeds: result must be independent of call order.
	e2.embed([]float32{5, 5, 5})
	e2.embed(pos)

	assert.Equal(t, e1.rem0, e2.rem0)
	assert.Equal(t, e1.rank, e2.rank)
	for i := range e1.bary {
		assert.InDelta(t, e1.bary[i], e2.bary[i], 1e-12)
	}
}

func TestEmbedOrigin(t *testing.T) {
	// A position exactly on a lattice vertex collapses onto that vertex:
	// the first barycentric weight is 1, the rest are 0.
	e := newEmbedder(4)
	e.embed([]float32{0, 0, 0, 0})

	assert.InDelta(t, 1.0, e.bary[0], 1e-9)
	for r := 1; r <= 4; r++ {
		assert.InDelta(t, 0.0, e.bary[r], 1e-9)
	}
	for _, c := range e.rem0 {
		assert.Zero(t, c)
	}
}

func TestEmbedInterpolatesPosition(t *testing.T) {
	// The barycentric combination of the simplex vertices must reproduce
	// the elevated position losslessly.
	rng := rand.New(rand.NewSource(99))

	for pd := 1; pd <= 4; pd++ {
		e := newEmbedder(pd)
		canonical := buildCanonical(pd)
		kd := pd + 1
		pos := make([]float32, pd)

		for trial := 0; trial < 100; trial++ {
			for i := range pos {
				pos[i] = rng.Float32()*20 - 10
			}
			e.embed(pos)

			elevated := append([]float64(nil), e.elevated...)

			recon := make([]float64, kd)
			for r := 0; r < kd; r++ {
				for i := 0; i < kd; i++ {
					vertex := float64(e.rem0[i]) + float64(canonical[r*kd+int(e.rank[i])])
					recon[i] += e.bary[r] * vertex
				}
			}

			for i := range recon {
				assert.InDelta(t, elevated[i], recon[i], 1e-4,
					"pd=%d axis %d pos %v", pd, i, pos)
			}
		}
	}
}
