// Package testutil provides testing utilities for permgo.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random tensors and positions, and a
// brute-force Gaussian filter for ground truth comparison.
//
// # Random Data Generation
//
//	rng := testutil.NewRNG(seed)
//	buf := make([]float32, n*vd)
//	rng.FillUniform(buf)  // uniform [0, 1)
//	rng.FillGaussian(buf) // standard normal
//
// # Ground Truth
//
//	want := testutil.BruteForceFilter(src, positions, n, pd, vd)
package testutil
