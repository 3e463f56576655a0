package estimation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradientProviders_Agree(t *testing.T) {
	model := newNormalModel(5, 20, 3, 1, 2)
	analytic := NewAnalyticGradient(model, 0)
	numeric := NewNumericGradient(model, 0, 0)
	theta := []float64{-2, math.Log(1.7)}

	sa, sn := analytic.Scores(theta), numeric.Scores(theta)
	n, k := sa.Dims()
	require.Equal(t, model.NumObs(), n)
	for i := 0; i < n; i++ {
		for p := 0; p < k; p++ {
			assert.InDelta(t, sa.At(i, p), sn.At(i, p), 1e-6, "score (%d,%d)", i, p)
		}
	}

	ga, gn := make([]float64, k), make([]float64, k)
	analytic.Gradient(ga, theta)
	numeric.Gradient(gn, theta)
	assert.InDeltaSlice(t, ga, gn, 1e-5)

	ha, err := analytic.Hessian(theta)
	require.NoError(t, err)
	hn, err := numeric.Hessian(theta)
	require.NoError(t, err)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			assert.InEpsilon(t, ha.At(i, j), hn.At(i, j), 1e-3, "hessian (%d,%d)", i, j)
		}
	}
}

func TestAnalyticGradient_HessianClosedForm(t *testing.T) {
	model := newNormalModel(8, 25, 2, 0, 1)
	mu, sigma := model.mle()
	h, err := NewAnalyticGradient(model, 0).Hessian([]float64{mu, math.Log(sigma)})
	require.NoError(t, err)

	n := float64(model.NumObs())
	assert.InEpsilon(t, n/(sigma*sigma), h.At(0, 0), 1e-6)
	assert.InDelta(t, 0, h.At(0, 1), 1e-4)
	assert.InEpsilon(t, 2*n, h.At(1, 1), 1e-6)
}

func TestProviderNames(t *testing.T) {
	model := newNormalModel(1, 2, 2, 0, 1)
	assert.Equal(t, "analytic", NewAnalyticGradient(model, 0).Name())
	assert.Equal(t, "finite-difference", NewNumericGradient(model, 0, 0).Name())
}
