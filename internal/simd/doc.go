// Package simd provides the float32 kernels used by the lattice passes.
//
// Splat, blur and slice spend nearly all their time in three tiny loops:
// scaled accumulation (axpy), in-place scaling, and the 3-tap blur stencil.
// The kernels are selected once at init time based on detected CPU features
// (golang.org/x/sys/cpu); wide-vector CPUs get 4-wide unrolled variants that
// the compiler turns into packed loads and FMAs, everything else gets the
// scalar loop.
//
// Set PERMGO_SIMD=generic|neon|avx2 to override the selection, e.g. to rule
// out kernel selection when debugging numeric differences across machines.
package simd
