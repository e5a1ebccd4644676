// Package permgo provides fast high-dimensional Gaussian filtering on a
// permutohedral lattice.
//
// Permgo approximates Gaussian filtering in arbitrary feature dimension with
// cost linear in the number of samples. It is the workhorse behind
// edge-preserving bilateral filtering and the pairwise message passing of
// dense CRF inference.
//
// # Quick Start
//
// Bilateral filtering of a batched image tensor:
//
//	ctx := context.Background()
//	src, _ := tensor.FromSlice(tensor.Shape{Batch: 1, Spatial: []int{h, w}, Channels: 3}, pixels)
//	dst, _ := tensor.New(src.Shape())
//
//	params := permgo.DefaultParams()
//	params.ThetaAlpha = 8  // spatial bandwidth
//	params.ThetaBeta = 0.25 // feature bandwidth
//
//	err := permgo.Filter(ctx, dst, src, src, params)
//
// The reference tensor guides the filter: samples blend only where the
// reference agrees, so edges in the reference survive in the output. Passing
// the source as its own reference gives the classic bilateral filter; a
// separate reference gives joint (cross) filtering.
//
// # Raw Buffers
//
// Callers with custom feature spaces skip the tensor layer and supply
// position vectors directly:
//
//	err := permgo.FilterBuffers(ctx, dst, src, positions, n, pd, vd, false)
//
// # Region of Interest
//
// A roaring bitmap restricts filtering to selected samples; everything else
// is copied through untouched:
//
//	mask := roaring.New()
//	mask.AddRange(0, uint64(n/2))
//	err := permgo.Filter(ctx, dst, src, ref, params, permgo.WithMask(mask))
//
// # Key Features
//
//   - O(n) splat/blur/slice pipeline, exact for constant inputs
//   - Bilateral and spatial-only position embeddings
//   - Reverse pass for gradient computation
//   - Batch parallelism via errgroup, per-lattice worker control
//   - Memory budgeting through resource.Controller
//   - SIMD optimized accumulation (AVX2/NEON)
package permgo
