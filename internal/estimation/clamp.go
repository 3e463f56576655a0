// Package estimation drives maximum-likelihood fits and cluster-robust
// inference for any ports.Model.
package estimation

import "math"

// DefaultClampEpsilon keeps log-probabilities finite when a probability
// saturates to exactly 0 or 1 in floating point.
const DefaultClampEpsilon = 1e-4

// ClampProbabilities replaces every exact 0 with eps and every exact 1 with
// 1-eps across the whole batch and returns how many entries changed. The
// replacement is a documented approximation of the published estimates,
// applied only at saturation. NaN counts as saturated at 0.
func ClampProbabilities(p []float64, eps float64) int {
	clamped := 0
	for i, v := range p {
		switch {
		case v <= 0, math.IsNaN(v):
			p[i] = eps
			clamped++
		case v >= 1:
			p[i] = 1 - eps
			clamped++
		}
	}
	return clamped
}

// NegLogInto writes -log(p_i) into dst.
func NegLogInto(dst, p []float64) {
	for i, v := range p {
		dst[i] = -math.Log(v)
	}
}
