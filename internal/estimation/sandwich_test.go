package estimation

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"goreplicate/domain/core"
	"goreplicate/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestClusterOuterProduct_Symmetric(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for trial := 0; trial < 10; trial++ {
		n, k := 30+trial, 2+trial%5
		scores := mat.NewDense(n, k, nil)
		subjects := make([]core.SubjectID, n)
		for i := 0; i < n; i++ {
			for p := 0; p < k; p++ {
				scores.Set(i, p, r.NormFloat64()*math.Pow(10, float64(p)))
			}
			subjects[i] = core.SubjectID(string(rune('a' + r.Intn(6))))
		}

		g, err := ClusterOuterProduct(scores, dataset.NewClusters(subjects))
		require.NoError(t, err)
		assert.True(t, IsSymmetric(g, 1e-12))
		for p := 0; p < k; p++ {
			assert.GreaterOrEqual(t, g.At(p, p), 0.0)
		}
	}
}

func TestClusterOuterProduct_SumsWithinCluster(t *testing.T) {
	scores := mat.NewDense(3, 1, []float64{1, 2, 3})
	clusters := dataset.NewClusters([]core.SubjectID{"a", "a", "b"})

	g, err := ClusterOuterProduct(scores, clusters)
	require.NoError(t, err)
	// (1+2)^2 + 3^2
	assert.InDelta(t, 18.0, g.At(0, 0), 1e-12)
}

func TestClusterOuterProduct_DimensionMismatch(t *testing.T) {
	scores := mat.NewDense(3, 1, nil)
	_, err := ClusterOuterProduct(scores, dataset.NewClusters([]core.SubjectID{"a"}))
	assert.ErrorIs(t, err, core.ErrDimension)
}

func TestDFAdjustment(t *testing.T) {
	adj, err := DFAdjustment(100, 5, 10)
	require.NoError(t, err)
	assert.InDelta(t, 99.0/95.0*10.0/9.0, adj, 1e-12)

	// tends to J/(J-1) with J fixed
	prev := math.Inf(1)
	for _, n := range []int{100, 1000, 100000, 10000000} {
		adj, err := DFAdjustment(n, 5, 10)
		require.NoError(t, err)
		assert.Less(t, adj, prev)
		prev = adj
	}
	assert.InDelta(t, 10.0/9.0, prev, 1e-5)
	// the (N-1)/(N-K) factor alone tends to 1
	assert.InDelta(t, 1.0, prev*9.0/10.0, 1e-5)

	// and Adj itself tends to 1 when J grows with N
	adj, err = DFAdjustment(10000000, 5, 1000000)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, adj, 1e-5)
}

func TestDFAdjustment_Guards(t *testing.T) {
	_, err := DFAdjustment(100, 5, 1)
	assert.True(t, errors.Is(err, core.ErrSingleCluster))

	_, err = DFAdjustment(5, 5, 3)
	assert.True(t, errors.Is(err, core.ErrDegreesOfFreedom))
}

func TestNewSandwich_IdentityHessian(t *testing.T) {
	h := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	g := mat.NewSymDense(2, []float64{4, 1, 1, 9})

	sw, err := NewSandwich(h, g, 2, 0)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, sw.Covariance.At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, sw.Covariance.At(0, 1), 1e-12)
	assert.InDelta(t, 18.0, sw.Covariance.At(1, 1), 1e-12)

	se, err := StandardErrors(sw.Covariance)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(8), se[0], 1e-12)
	assert.InDelta(t, math.Sqrt(18), se[1], 1e-12)
}

func TestNewSandwich_Singular(t *testing.T) {
	h := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	g := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	_, err := NewSandwich(h, g, 1, 0)
	assert.ErrorIs(t, err, core.ErrSingularHessian)
}

func TestStandardErrors_NegativeDiagonal(t *testing.T) {
	v := mat.NewSymDense(2, []float64{1, 0, 0, -1e-3})
	_, err := StandardErrors(v)
	assert.ErrorIs(t, err, core.ErrNegativeVariance)
}

func TestIsSymmetric(t *testing.T) {
	assert.True(t, IsSymmetric(mat.NewDense(2, 2, []float64{1, 2, 2, 1}), 1e-9))
	assert.False(t, IsSymmetric(mat.NewDense(2, 2, []float64{1, 2, 2.1, 1}), 1e-9))
	assert.False(t, IsSymmetric(mat.NewDense(2, 3, nil), 1e-9))
}
