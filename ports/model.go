package ports

import (
	"goreplicate/domain/dataset"
	"goreplicate/domain/stats"

	"gonum.org/v1/gonum/mat"
)

// ParamShape fixes the name and working-scale transform a model expects at
// each position of the parameter vector.
type ParamShape struct {
	Name      string
	Transform stats.Transform
}

// Model is a negative log-likelihood over a fixed observation batch. All
// parameter vectors are on the working (optimizer) scale.
type Model interface {
	Name() string
	Params() []ParamShape
	NumObs() int
	Clusters() dataset.Clusters

	// NegLogLik returns the sum of per-observation negative log-likelihoods.
	NegLogLik(theta []float64) float64

	// ObsNegLogLik writes the per-observation contributions into dst and
	// returns how many probabilities were clamped away from 0 or 1.
	ObsNegLogLik(theta, dst []float64) int
}

// ScoreModel is a Model with hand-derived per-observation gradients.
type ScoreModel interface {
	Model

	// ObsScores writes d NLL_i / d theta into row i of dst (NumObs x len(theta)).
	ObsScores(theta []float64, dst *mat.Dense)
}

// PenalizedModel is a Model that scores infeasible parameter regions with a
// finite per-observation penalty instead of NaN.
type PenalizedModel interface {
	Model

	// Penalty is the contribution of one infeasible observation.
	Penalty() float64
}

// GradientProvider supplies the derivatives the optimizer and the sandwich
// estimator need. Analytic and finite-difference implementations are
// interchangeable.
type GradientProvider interface {
	Name() string

	// Gradient writes the gradient of the total negative log-likelihood into dst.
	Gradient(dst, theta []float64)

	// Scores returns the NumObs x K matrix of per-observation gradients.
	Scores(theta []float64) *mat.Dense

	// Hessian returns the K x K Hessian of the total negative log-likelihood.
	Hessian(theta []float64) (*mat.SymDense, error)
}
