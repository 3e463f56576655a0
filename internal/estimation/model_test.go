package estimation

import (
	"fmt"
	"math"
	"math/rand"

	"goreplicate/domain/core"
	"goreplicate/domain/dataset"
	"goreplicate/domain/stats"
	"goreplicate/ports"

	"gonum.org/v1/gonum/mat"
)

// normalModel is y_i ~ N(mu, sigma^2) with theta = [mu, log sigma]. Its
// maximum-likelihood estimates have closed forms, which makes it a useful
// fixture for the optimizer and the variance code.
type normalModel struct {
	y        []float64
	clusters dataset.Clusters
}

func newNormalModel(seed int64, clusters, perCluster int, mu, sigma float64) *normalModel {
	r := rand.New(rand.NewSource(seed))
	n := clusters * perCluster
	y := make([]float64, n)
	subjects := make([]core.SubjectID, n)
	for i := range y {
		y[i] = mu + sigma*r.NormFloat64()
		subjects[i] = core.SubjectID(fmt.Sprintf("s%03d", i/perCluster))
	}
	return &normalModel{y: y, clusters: dataset.NewClusters(subjects)}
}

func (m *normalModel) Name() string { return "normal" }

func (m *normalModel) Params() []ports.ParamShape {
	return []ports.ParamShape{
		{Name: "mu", Transform: stats.TransformIdentity},
		{Name: "sigma", Transform: stats.TransformExp},
	}
}

func (m *normalModel) NumObs() int                { return len(m.y) }
func (m *normalModel) Clusters() dataset.Clusters { return m.clusters }

func (m *normalModel) ObsNegLogLik(theta, dst []float64) int {
	mu, logSigma := theta[0], theta[1]
	s2 := math.Exp(2 * logSigma)
	for i, y := range m.y {
		d := y - mu
		dst[i] = 0.5*math.Log(2*math.Pi) + logSigma + d*d/(2*s2)
	}
	return 0
}

func (m *normalModel) NegLogLik(theta []float64) float64 {
	dst := make([]float64, len(m.y))
	m.ObsNegLogLik(theta, dst)
	total := 0.0
	for _, v := range dst {
		total += v
	}
	return total
}

func (m *normalModel) ObsScores(theta []float64, dst *mat.Dense) {
	mu, logSigma := theta[0], theta[1]
	s2 := math.Exp(2 * logSigma)
	for i, y := range m.y {
		d := y - mu
		dst.Set(i, 0, -d/s2)
		dst.Set(i, 1, 1-d*d/s2)
	}
}

// mle returns the closed-form estimates mean and root mean squared deviation.
func (m *normalModel) mle() (mu, sigma float64) {
	for _, y := range m.y {
		mu += y
	}
	mu /= float64(len(m.y))
	for _, y := range m.y {
		sigma += (y - mu) * (y - mu)
	}
	return mu, math.Sqrt(sigma / float64(len(m.y)))
}

func normalSpecs() []stats.ParamSpec {
	return []stats.ParamSpec{
		{Name: "mu", Start: 0, Lower: -5, Upper: 5, Transform: stats.TransformIdentity},
		{Name: "sigma", Start: 1, Lower: 0.2, Upper: 5, Transform: stats.TransformExp},
	}
}

var _ ports.ScoreModel = (*normalModel)(nil)

// plateauModel sits on a constant penalty everywhere, like a structural
// model started deep inside its infeasible region.
type plateauModel struct {
	*normalModel
	penalty float64
}

func (m *plateauModel) ObsNegLogLik(theta, dst []float64) int {
	for i := range dst {
		dst[i] = m.penalty
	}
	return 0
}

func (m *plateauModel) NegLogLik(theta []float64) float64 {
	return float64(m.NumObs()) * m.penalty
}

func (m *plateauModel) Penalty() float64 { return m.penalty }

var _ ports.PenalizedModel = (*plateauModel)(nil)
