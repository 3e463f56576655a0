package effort

import (
	"context"
	"math"
	"testing"

	"goreplicate/adapters/rng"
	"goreplicate/domain/dataset"
	"goreplicate/internal/config"
	"goreplicate/internal/estimation"
	"goreplicate/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

var publishedTheta = []float64{0.835, 0.999, 1.003, 2.145, math.Log(723.97), 7.307, math.Log(42.63)}

func TestClassify(t *testing.T) {
	assert.Equal(t, AtLower, Classify(10))
	assert.Equal(t, Interior, Classify(10.5))
	assert.Equal(t, Interior, Classify(109))
	assert.Equal(t, AtUpper, Classify(110))
}

func TestOptimalEffort_MatchesGenerator(t *testing.T) {
	gen := testkit.DefaultEffortConfig()
	theta := gen.Theta()
	for _, o := range testkit.NewEffortGenerator(gen).Generate()[:200] {
		got, ok := OptimalEffort(theta, o)
		require.True(t, ok)
		assert.InDelta(t, gen.OptimalEffort(o), got, 1e-9)
	}
}

func TestOptimalEffort_Infeasible(t *testing.T) {
	o := dataset.EffortChoice{Wage: 0.2, Today: true, NetDistance: 7}

	flat := append([]float64(nil), publishedTheta...)
	flat[ParamGamma] = 1
	_, ok := OptimalEffort(flat, o)
	assert.False(t, ok, "gamma <= 1")

	negative := append([]float64(nil), publishedTheta...)
	negative[ParamBeta] = -0.5
	_, ok = OptimalEffort(negative, o)
	assert.False(t, ok, "negative base")

	// beta only enters for work done today
	o.Today = false
	_, ok = OptimalEffort(negative, o)
	assert.True(t, ok)
}

func TestObsNegLogLik_TobitContributions(t *testing.T) {
	obs := []dataset.EffortChoice{
		{Subject: "1", Effort: 10, Wage: 0.1},
		{Subject: "1", Effort: 60, Wage: 0.2, Today: true},
		{Subject: "2", Effort: 110, Wage: 0.3, Today: true, Prediction: true, NetDistance: 14},
	}
	m, err := NewModel(obs, 0)
	require.NoError(t, err)

	dst := make([]float64, 3)
	clamped := m.ObsNegLogLik(publishedTheta, dst)
	assert.Zero(t, clamped)

	sigma := 42.63
	e0, _ := OptimalEffort(publishedTheta, obs[0])
	e1, _ := OptimalEffort(publishedTheta, obs[1])
	e2, _ := OptimalEffort(publishedTheta, obs[2])
	assert.InDelta(t, -math.Log(distuv.UnitNormal.CDF((10-e0)/sigma)), dst[0], 1e-9)
	assert.InDelta(t, -distuv.Normal{Mu: e1, Sigma: sigma}.LogProb(60), dst[1], 1e-9)
	assert.InDelta(t, -math.Log(1-distuv.UnitNormal.CDF((110-e2)/sigma)), dst[2], 1e-9)

	lower, interior, upper := m.CensoringCounts()
	assert.Equal(t, []int{1, 1, 1}, []int{lower, interior, upper})
}

func TestNegLogLik_FiniteEverywhere(t *testing.T) {
	obs := testkit.NewEffortGenerator(testkit.DefaultEffortConfig()).Generate()
	m, err := NewModel(obs, 0)
	require.NoError(t, err)

	thetas := [][]float64{
		publishedTheta,
		{0.835, 0.999, 1.003, 2.145, math.Log(723.97), 7.307, -20}, // sigma ~ 2e-9: tails saturate
		{0.835, 0.999, 1.003, 1.01, math.Log(723.97), 7.307, 3},    // e* explodes
		{0.835, 0.999, 1.003, 0.5, math.Log(723.97), 7.307, 3},     // gamma < 1
		{-1, -1, -1, 2, 40, 0, 800},                                // sigma overflows
	}
	for _, theta := range thetas {
		dst := make([]float64, m.NumObs())
		m.ObsNegLogLik(theta, dst)
		for i, v := range dst {
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "theta %v obs %d", theta, i)
		}
	}

	dst := make([]float64, m.NumObs())
	clamped := m.ObsNegLogLik(thetas[1], dst)
	assert.Positive(t, clamped)
}

func TestNegLogLik_PenaltyDominatesFeasible(t *testing.T) {
	obs := testkit.NewEffortGenerator(testkit.DefaultEffortConfig()).Generate()
	m, err := NewModel(obs, 0)
	require.NoError(t, err)

	infeasible := append([]float64(nil), publishedTheta...)
	infeasible[ParamGamma] = 0.9
	assert.Greater(t, m.NegLogLik(infeasible), m.NegLogLik(publishedTheta))
	assert.Equal(t, float64(m.NumObs())*InfeasiblePenalty, m.NegLogLik(infeasible))
	assert.Equal(t, InfeasiblePenalty, m.Penalty())
}

func TestEstimate_RecoversSyntheticParameters(t *testing.T) {
	if testing.Short() {
		t.Skip("simplex fit over 7 parameters")
	}
	gen := testkit.DefaultEffortConfig()
	obs := testkit.NewEffortGenerator(gen).Generate()
	m, err := NewModel(obs, 0)
	require.NoError(t, err)

	cfg := config.DefaultEffort()
	opt, err := estimation.NewOptimizer(estimation.OptimizerSettings{
		Method:         cfg.Optimizer.Method,
		MaxIterations:  cfg.Optimizer.MaxIterations,
		MaxEvaluations: cfg.Optimizer.MaxEvaluations,
		Tolerance:      cfg.Optimizer.Tolerance,
	}, nil)
	require.NoError(t, err)
	est := estimation.NewEstimator(opt, rng.New(), estimation.Settings{}, nil)

	grad := estimation.NewNumericGradient(m, cfg.Variance.Step, cfg.Variance.HessianStep)
	res, err := est.Estimate(context.Background(), m, grad, cfg.Params)
	require.NoError(t, err)

	want := map[string]float64{
		"beta": gen.Beta, "beta_h": gen.BetaH, "delta": gen.Delta, "gamma": gen.Gamma,
		"phi": gen.Phi, "alpha": gen.Alpha, "sigma": gen.Sigma,
	}
	for _, e := range res.Estimates {
		assert.InDelta(t, want[e.Name], e.Value, 5*e.SE+1e-3, "%s = %.4f (se %.4f)", e.Name, e.Value, e.SE)
	}
	assert.Equal(t, gen.Subjects, res.J)
}
