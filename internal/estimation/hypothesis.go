package estimation

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ZTest returns the two-sided z-statistic of estimate against ref and its
// p-value 2(1 - Phi(|z|)). A non-positive or undefined se yields NaNs.
func ZTest(estimate, se, ref float64) (z, p float64) {
	if !(se > 0) || math.IsInf(se, 0) {
		return math.NaN(), math.NaN()
	}
	z = (estimate - ref) / se
	return z, TwoSidedP(z)
}

// TwoSidedP is 2 * (1 - Phi(|z|)) computed from the survival function so
// that tiny p-values keep their precision.
func TwoSidedP(z float64) float64 {
	if math.IsNaN(z) {
		return math.NaN()
	}
	return 2 * distuv.UnitNormal.Survival(math.Abs(z))
}

// TwoSampleZ tests equality of one parameter estimated on two independent
// samples: |a - b| / sqrt(se_a^2 + se_b^2).
func TwoSampleZ(a, seA, b, seB float64) (z, p float64) {
	pooled := math.Sqrt(seA*seA + seB*seB)
	if !(pooled > 0) || math.IsInf(pooled, 0) {
		return math.NaN(), math.NaN()
	}
	z = math.Abs(a-b) / pooled
	return z, TwoSidedP(z)
}

// LikelihoodRatio compares an unrestricted and a restricted fit with df
// restrictions: LR = 2 (LL_u - LL_r), p from the chi-square survival.
func LikelihoodRatio(llUnrestricted, llRestricted float64, df int) (lr, p float64) {
	if df <= 0 {
		return math.NaN(), math.NaN()
	}
	lr = 2 * (llUnrestricted - llRestricted)
	if lr < 0 {
		lr = 0
	}
	return lr, distuv.ChiSquared{K: float64(df)}.Survival(lr)
}
