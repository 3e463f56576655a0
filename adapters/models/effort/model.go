// Package effort implements the structural real-effort model with present
// bias and Tobit censoring at the observable effort bounds.
package effort

import (
	"fmt"
	"math"

	"goreplicate/domain/core"
	"goreplicate/domain/dataset"
	"goreplicate/domain/stats"
	"goreplicate/internal/estimation"
	"goreplicate/ports"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Name identifies the model in configs and reports
const Name = "effort"

// Parameter order on the working scale.
const (
	ParamBeta = iota
	ParamBetaH
	ParamDelta
	ParamGamma
	ParamLogPhi
	ParamAlpha
	ParamLogSigma
	numParams
)

// InfeasiblePenalty is the per-observation objective where the optimal
// effort is undefined (non-positive power base or gamma <= 1).
const InfeasiblePenalty = 1e10

var params = []ports.ParamShape{
	{Name: "beta", Transform: stats.TransformIdentity},
	{Name: "beta_h", Transform: stats.TransformIdentity},
	{Name: "delta", Transform: stats.TransformIdentity},
	{Name: "gamma", Transform: stats.TransformIdentity},
	{Name: "phi", Transform: stats.TransformExp},
	{Name: "alpha", Transform: stats.TransformIdentity},
	{Name: "sigma", Transform: stats.TransformExp},
}

// Censoring classifies an observed effort.
type Censoring int

const (
	Interior Censoring = iota
	AtLower
	AtUpper
)

// Classify places an effort relative to the observable bounds
func Classify(e float64) Censoring {
	switch {
	case e <= dataset.EffortLowerBound:
		return AtLower
	case e >= dataset.EffortUpperBound:
		return AtUpper
	}
	return Interior
}

// Model is the Tobit likelihood of observed efforts around
// e* = (phi w B delta^netdistance)^(1/(gamma-1)) - alpha, where B is beta
// (beta_h for predictions) when the work happens today and 1 otherwise.
type Model struct {
	obs       []dataset.EffortChoice
	censoring []Censoring
	clusters  dataset.Clusters
	eps       float64
}

// NewModel prepares the observations. eps is the saturation clamp for the
// censored tail probabilities; zero uses estimation.DefaultClampEpsilon.
func NewModel(obs []dataset.EffortChoice, eps float64) (*Model, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: no effort choices", core.ErrEmptyDataset)
	}
	if eps <= 0 {
		eps = estimation.DefaultClampEpsilon
	}
	m := &Model{
		obs:       obs,
		censoring: make([]Censoring, len(obs)),
		eps:       eps,
	}
	subjects := make([]core.SubjectID, len(obs))
	for i, o := range obs {
		m.censoring[i] = Classify(o.Effort)
		subjects[i] = o.Subject
	}
	m.clusters = dataset.NewClusters(subjects)
	return m, nil
}

func (m *Model) Name() string               { return Name }
func (m *Model) Params() []ports.ParamShape { return params }
func (m *Model) NumObs() int                { return len(m.obs) }
func (m *Model) Clusters() dataset.Clusters { return m.clusters }

// CensoringCounts returns how many efforts sit at the lower bound, inside
// and at the upper bound.
func (m *Model) CensoringCounts() (lower, interior, upper int) {
	for _, c := range m.censoring {
		switch c {
		case AtLower:
			lower++
		case AtUpper:
			upper++
		default:
			interior++
		}
	}
	return lower, interior, upper
}

// OptimalEffort returns e* for one observation, or false when the power
// base is not positive or the result is not finite.
func OptimalEffort(theta []float64, o dataset.EffortChoice) (float64, bool) {
	gamma := theta[ParamGamma]
	if !(gamma > 1) {
		return 0, false
	}
	b := 1.0
	if o.Today {
		b = theta[ParamBeta]
		if o.Prediction {
			b = theta[ParamBetaH]
		}
	}
	base := math.Exp(theta[ParamLogPhi]) * o.Wage * b * math.Pow(theta[ParamDelta], o.NetDistance)
	if !(base > 0) || math.IsInf(base, 0) {
		return 0, false
	}
	e := math.Pow(base, 1/(gamma-1)) - theta[ParamAlpha]
	if math.IsNaN(e) || math.IsInf(e, 0) {
		return 0, false
	}
	return e, true
}

// ObsNegLogLik writes the per-observation Tobit contributions: the normal
// log density inside the bounds, log Phi((10 - e*)/sigma) at the lower
// bound and log(1 - Phi((110 - e*)/sigma)) at the upper bound. Tail
// probabilities that saturate are clamped across the batch; a density that
// overflows gets InfeasiblePenalty.
func (m *Model) ObsNegLogLik(theta, dst []float64) int {
	if len(theta) != numParams {
		panic(fmt.Sprintf("effort: parameter vector has %d entries, want %d", len(theta), numParams))
	}
	sigma := math.Exp(theta[ParamLogSigma])
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		for i := range dst {
			dst[i] = InfeasiblePenalty
		}
		return 0
	}

	var tailIdx []int
	var tailProb []float64
	for i, o := range m.obs {
		estar, ok := OptimalEffort(theta, o)
		if !ok {
			dst[i] = InfeasiblePenalty
			continue
		}
		switch m.censoring[i] {
		case AtLower:
			tailIdx = append(tailIdx, i)
			tailProb = append(tailProb, distuv.UnitNormal.CDF((dataset.EffortLowerBound-estar)/sigma))
		case AtUpper:
			tailIdx = append(tailIdx, i)
			tailProb = append(tailProb, distuv.UnitNormal.Survival((dataset.EffortUpperBound-estar)/sigma))
		default:
			nll := -distuv.Normal{Mu: estar, Sigma: sigma}.LogProb(o.Effort)
			if math.IsInf(nll, 0) || math.IsNaN(nll) {
				nll = InfeasiblePenalty
			}
			dst[i] = nll
		}
	}

	clamped := estimation.ClampProbabilities(tailProb, m.eps)
	for j, i := range tailIdx {
		dst[i] = -math.Log(tailProb[j])
	}
	return clamped
}

func (m *Model) NegLogLik(theta []float64) float64 {
	dst := make([]float64, len(m.obs))
	m.ObsNegLogLik(theta, dst)
	return floats.Sum(dst)
}

var _ ports.Model = (*Model)(nil)

// Penalty reports InfeasiblePenalty
func (m *Model) Penalty() float64 { return InfeasiblePenalty }

var _ ports.PenalizedModel = (*Model)(nil)
