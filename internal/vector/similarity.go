package vector

import "math"

// dot returns the inner product of two vectors (for normalized vectors
// equals cosine similarity).
func dot(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// normalized returns a unit-norm copy of v. A zero-norm vector is returned
// as an unchanged copy; the input slice is never mutated.
func normalized(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	norm := L2Norm(v)
	if norm == 0 {
		return out
	}
	inv := float32(1.0 / norm)
	for i := range out {
		out[i] *= inv
	}
	return out
}

// isZero reports whether every component of v is zero.
func isZero(v []float32) bool {
	for _, c := range v {
		if c != 0 {
			return false
		}
	}
	return true
}
