package estimation

import (
	"fmt"

	"goreplicate/domain/core"
	"goreplicate/ports"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// DefaultStep is the central-difference step for first derivatives.
const DefaultStep = 1e-5

// DefaultHessianStep is the step for second derivatives.
const DefaultHessianStep = 1e-4

// AnalyticGradient uses a model's hand-derived scores. Its Hessian is the
// central-difference Jacobian of the analytic total gradient.
type AnalyticGradient struct {
	model ports.ScoreModel
	step  float64
}

// NewAnalyticGradient wraps a model that exposes per-observation scores
func NewAnalyticGradient(model ports.ScoreModel, step float64) *AnalyticGradient {
	if step <= 0 {
		step = DefaultStep
	}
	return &AnalyticGradient{model: model, step: step}
}

func (g *AnalyticGradient) Name() string { return "analytic" }

func (g *AnalyticGradient) Scores(theta []float64) *mat.Dense {
	scores := mat.NewDense(g.model.NumObs(), len(theta), nil)
	g.model.ObsScores(theta, scores)
	return scores
}

func (g *AnalyticGradient) Gradient(dst, theta []float64) {
	scores := g.Scores(theta)
	columnSums(dst, scores)
}

func (g *AnalyticGradient) Hessian(theta []float64) (*mat.SymDense, error) {
	k := len(theta)
	jac := mat.NewDense(k, k, nil)
	fd.Jacobian(jac, func(y, x []float64) {
		g.Gradient(y, x)
	}, theta, &fd.JacobianSettings{
		Formula: fd.Central,
		Step:    g.step,
	})
	return symmetrize(jac)
}

// NumericGradient differentiates per-observation likelihood contributions
// with central differences. It needs nothing beyond ports.Model.
type NumericGradient struct {
	model       ports.Model
	step        float64
	hessianStep float64
}

// NewNumericGradient builds a finite-difference provider
func NewNumericGradient(model ports.Model, step, hessianStep float64) *NumericGradient {
	if step <= 0 {
		step = DefaultStep
	}
	if hessianStep <= 0 {
		hessianStep = DefaultHessianStep
	}
	return &NumericGradient{model: model, step: step, hessianStep: hessianStep}
}

func (g *NumericGradient) Name() string { return "finite-difference" }

func (g *NumericGradient) Scores(theta []float64) *mat.Dense {
	scores := mat.NewDense(g.model.NumObs(), len(theta), nil)
	fd.Jacobian(scores, func(y, x []float64) {
		g.model.ObsNegLogLik(x, y)
	}, theta, &fd.JacobianSettings{
		Formula: fd.Central,
		Step:    g.step,
	})
	return scores
}

func (g *NumericGradient) Gradient(dst, theta []float64) {
	fd.Gradient(dst, g.model.NegLogLik, theta, &fd.Settings{
		Formula: fd.Central,
		Step:    g.step,
	})
}

func (g *NumericGradient) Hessian(theta []float64) (*mat.SymDense, error) {
	h := mat.NewSymDense(len(theta), nil)
	fd.Hessian(h, g.model.NegLogLik, theta, &fd.Settings{
		Formula: fd.Central,
		Step:    g.hessianStep,
	})
	return h, nil
}

func columnSums(dst []float64, m *mat.Dense) {
	r, c := m.Dims()
	if len(dst) != c {
		panic(fmt.Sprintf("estimation: gradient length %d for %d columns", len(dst), c))
	}
	for j := range dst {
		dst[j] = 0
	}
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		for j, v := range row {
			dst[j] += v
		}
	}
}

// symmetrize averages a square matrix with its transpose.
func symmetrize(a mat.Matrix) (*mat.SymDense, error) {
	r, c := a.Dims()
	if r != c {
		return nil, core.NewDimensionError("square matrix", r, c)
	}
	s := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			s.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	return s, nil
}

var (
	_ ports.GradientProvider = (*AnalyticGradient)(nil)
	_ ports.GradientProvider = (*NumericGradient)(nil)
)
