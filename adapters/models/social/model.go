package social

import (
	"fmt"
	"math"

	"goreplicate/domain/core"
	"goreplicate/domain/dataset"
	"goreplicate/domain/stats"
	"goreplicate/internal/estimation"
	"goreplicate/ports"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Name identifies the model in configs and reports
const Name = "social"

// Parameter order on the working scale.
const (
	ParamAlpha = iota
	ParamBeta
	ParamGamma
	ParamDelta
	ParamLogSigma
	numParams
)

var params = []ports.ParamShape{
	{Name: "alpha", Transform: stats.TransformIdentity},
	{Name: "beta", Transform: stats.TransformIdentity},
	{Name: "gamma", Transform: stats.TransformIdentity},
	{Name: "delta", Transform: stats.TransformIdentity},
	{Name: "sigma", Transform: stats.TransformExp},
}

// Model is the Bernoulli likelihood of the observed choices. It holds no
// scratch state, so concurrent evaluations are safe.
type Model struct {
	features *Features
	clusters dataset.Clusters
	eps      float64
}

// NewModel builds the design for obs. eps is the saturation clamp; zero
// uses estimation.DefaultClampEpsilon.
func NewModel(obs []dataset.SocialChoice, eps float64) (*Model, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: no social decisions", core.ErrEmptyDataset)
	}
	if eps <= 0 {
		eps = estimation.DefaultClampEpsilon
	}
	subjects := make([]core.SubjectID, len(obs))
	for i, o := range obs {
		subjects[i] = o.Subject
	}
	return &Model{
		features: BuildFeatures(obs),
		clusters: dataset.NewClusters(subjects),
		eps:      eps,
	}, nil
}

func (m *Model) Name() string               { return Name }
func (m *Model) Params() []ports.ParamShape { return params }
func (m *Model) NumObs() int                { return m.features.Len() }
func (m *Model) Clusters() dataset.Clusters { return m.clusters }

// Features exposes the design matrix
func (m *Model) Features() *Features {
	return m.features
}

// index returns t_i = sigma (Base_i + Z_i w) for every decision.
func (m *Model) index(theta []float64) (t []float64, sigma float64) {
	if len(theta) != numParams {
		panic(fmt.Sprintf("social: parameter vector has %d entries, want %d", len(theta), numParams))
	}
	n := m.NumObs()
	sigma = math.Exp(theta[ParamLogSigma])

	var zw mat.VecDense
	zw.MulVec(m.features.Z, mat.NewVecDense(numWeights, theta[:numWeights:numWeights]))

	t = make([]float64, n)
	floats.AddTo(t, m.features.Base, zw.RawVector().Data[:n])
	for i, u := range t {
		// a tie stays at t = 0 even when sigma overflows to +Inf
		if u != 0 {
			t[i] = sigma * u
		}
	}
	return t, sigma
}

// probabilities returns P(observed choice) before clamping and P(X).
func (m *Model) probabilities(t []float64) (observed, px []float64) {
	observed = make([]float64, len(t))
	px = make([]float64, len(t))
	for i, ti := range t {
		p := 1 / (1 + math.Exp(-ti))
		px[i] = p
		if m.features.ChoseX[i] == 1 {
			observed[i] = p
		} else {
			observed[i] = 1 - p
		}
	}
	return observed, px
}

// ObsNegLogLik writes -log P(observed choice) per decision. Probabilities
// that saturate to 0 or 1 are clamped to eps and 1-eps across the batch.
func (m *Model) ObsNegLogLik(theta, dst []float64) int {
	t, _ := m.index(theta)
	observed, _ := m.probabilities(t)
	clamped := estimation.ClampProbabilities(observed, m.eps)
	estimation.NegLogInto(dst, observed)
	return clamped
}

func (m *Model) NegLogLik(theta []float64) float64 {
	dst := make([]float64, m.NumObs())
	m.ObsNegLogLik(theta, dst)
	return floats.Sum(dst)
}

// ObsScores writes the analytic per-decision gradient. With
// dNLL/dt = P(X) - choice_x:
//
//	d/dw_k       = (P(X) - choice_x) sigma Z_ik
//	d/dlog sigma = (P(X) - choice_x) t_i
//
// A clamped decision contributes a constant, so its score row is zero.
func (m *Model) ObsScores(theta []float64, dst *mat.Dense) {
	t, sigma := m.index(theta)
	observed, px := m.probabilities(t)
	for i, ti := range t {
		row := dst.RawRowView(i)
		if observed[i] <= 0 || observed[i] >= 1 {
			for k := range row {
				row[k] = 0
			}
			continue
		}
		resid := px[i] - m.features.ChoseX[i]
		z := m.features.Z.RawRowView(i)
		for k := 0; k < numWeights; k++ {
			row[k] = resid * sigma * z[k]
		}
		row[ParamLogSigma] = resid * ti
	}
}

var _ ports.ScoreModel = (*Model)(nil)
