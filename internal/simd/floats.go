package simd

var (
	axpyImpl     = axpyGeneric
	scaleImpl    = scaleGeneric
	stencil3Impl = stencil3Generic
)

// Axpy computes dst[i] += a * src[i].
//
// SAFETY: This function assumes len(src) >= len(dst).
// It does NOT perform bounds checks for performance reasons.
// Callers MUST ensure lengths match.
func Axpy(dst, src []float32, a float32) {
	axpyImpl(dst, src, a)
}

// ScaleInPlace computes v[i] *= a.
func ScaleInPlace(v []float32, a float32) {
	scaleImpl(v, a)
}

// Stencil3 computes dst[i] = 0.25*prev[i] + 0.5*center[i] + 0.25*next[i],
// the normalized 3-tap blur stencil. prev and next may be nil, in which case
// the missing tap contributes zero.
//
// SAFETY: non-nil operands must be at least len(dst) long.
func Stencil3(dst, prev, center, next []float32) {
	stencil3Impl(dst, prev, center, next)
}

// Sum returns the sum of all elements of v.
func Sum(v []float32) float32 {
	var s float32
	for _, x := range v {
		s += x
	}
	return s
}

func axpyGeneric(dst, src []float32, a float32) {
	for i := range dst {
		dst[i] += a * src[i]
	}
}

func axpyUnrolled(dst, src []float32, a float32) {
	n := len(dst)
	i := 0
	for ; i+4 <= n; i += 4 {
		d := dst[i : i+4 : i+4]
		s := src[i : i+4 : i+4]
		d[0] += a * s[0]
		d[1] += a * s[1]
		d[2] += a * s[2]
		d[3] += a * s[3]
	}
	for ; i < n; i++ {
		dst[i] += a * src[i]
	}
}

func scaleGeneric(v []float32, a float32) {
	for i := range v {
		v[i] *= a
	}
}

func scaleUnrolled(v []float32, a float32) {
	n := len(v)
	i := 0
	for ; i+4 <= n; i += 4 {
		w := v[i : i+4 : i+4]
		w[0] *= a
		w[1] *= a
		w[2] *= a
		w[3] *= a
	}
	for ; i < n; i++ {
		v[i] *= a
	}
}

func stencil3Generic(dst, prev, center, next []float32) {
	switch {
	case prev == nil && next == nil:
		for i := range dst {
			dst[i] = 0.5 * center[i]
		}
	case prev == nil:
		for i := range dst {
			dst[i] = 0.5*center[i] + 0.25*next[i]
		}
	case next == nil:
		for i := range dst {
			dst[i] = 0.25*prev[i] + 0.5*center[i]
		}
	default:
		for i := range dst {
			dst[i] = 0.25*prev[i] + 0.5*center[i] + 0.25*next[i]
		}
	}
}

func stencil3Unrolled(dst, prev, center, next []float32) {
	if prev == nil || next == nil {
		stencil3Generic(dst, prev, center, next)
		return
	}

	n := len(dst)
	i := 0
	for ; i+4 <= n; i += 4 {
		d := dst[i : i+4 : i+4]
		p := prev[i : i+4 : i+4]
		c := center[i : i+4 : i+4]
		x := next[i : i+4 : i+4]
		d[0] = 0.25*p[0] + 0.5*c[0] + 0.25*x[0]
		d[1] = 0.25*p[1] + 0.5*c[1] + 0.25*x[1]
		d[2] = 0.25*p[2] + 0.5*c[2] + 0.25*x[2]
		d[3] = 0.25*p[3] + 0.5*c[3] + 0.25*x[3]
	}
	for ; i < n; i++ {
		dst[i] = 0.25*prev[i] + 0.5*center[i] + 0.25*next[i]
	}
}
