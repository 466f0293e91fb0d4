package filter

import "github.com/chewxy/math32"

// GaussianKernel returns normalized weights for a blur of standard
// deviation sigma, sampled at integer offsets over three sigma on each
// side. A non-positive sigma yields the identity kernel.
func GaussianKernel(sigma float32) []float32 {
	if !(sigma > 0) {
		return []float32{1}
	}
	half := int(math32.Ceil(sigma * 3))
	k := make([]float32, 2*half+1)
	twoSigmaSq := 2 * sigma * sigma
	var sum float32
	for i := range k {
		x := float32(i - half)
		k[i] = math32.Exp(-x * x / twoSigmaSq)
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}
