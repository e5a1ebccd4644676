// Package lattice implements the permutohedral lattice filter: an
// approximate high-dimensional Gaussian convolution over scattered samples
// that runs in time linear in the number of samples.
//
// The permutohedral lattice tiles the zero-sum hyperplane of R^(pd+1) with
// regular simplices. Filtering is three passes:
//
//   - Splat: each sample is embedded into its enclosing simplex and its
//     value vector is scattered onto the pd+1 simplex vertices, weighted by
//     barycentric coordinates. Vertices live in a hash table keyed by
//     integer lattice coordinates.
//   - Blur: a normalized 3-tap stencil is applied along each of the pd+1
//     lattice axes in turn, double-buffered within an axis.
//   - Slice: the convolved vertex values are gathered back to each sample
//     with the same barycentric weights, renormalized by the per-vertex
//     homogeneous weight.
//
// The result is not an exact Gaussian convolution; it is a bounded-error
// lattice approximation whose resolution is fixed by how the caller scales
// positions (see the embedding package).
//
// # Usage
//
//	l, err := lattice.New(ctx, pd, vd, n)
//	if err != nil { ... }
//	defer l.Close()
//	err = l.Filter(ctx, dst, src, positions, false)
//
// One Lattice serves one batch element at a time; batch elements are
// independent and parallelize naturally with one instance each.
package lattice
